package remote

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/odvcencio/myvcs/pkg/object"
	"github.com/odvcencio/myvcs/pkg/refs"
	"github.com/stretchr/testify/require"
)

// history writes a linear chain of n commits, each adding one file, and
// returns the commit hashes oldest first.
func history(t *testing.T, store *object.Store, n int) []object.Hash {
	t.Helper()
	var out []object.Hash
	snap := object.Snapshot{}
	var parent object.Hash
	for i := 0; i < n; i++ {
		blob, err := store.WriteBlob(&object.Blob{Data: []byte{byte('a' + i), '\n'}})
		require.NoError(t, err)
		snap = snap.Clone()
		snap[string(rune('a'+i))+".txt"] = blob
		c := &object.CommitObj{Timestamp: int64(1700000000 + i), Message: "step", Snapshot: snap}
		if parent != "" {
			c.Parents = []object.Hash{parent}
		}
		h, err := store.WriteCommit(c)
		require.NoError(t, err)
		out = append(out, h)
		parent = h
	}
	return out
}

func newLocal(t *testing.T) (*object.Store, *refs.Table, *StoreTransport) {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, refs.InitLayout(dir, "main"))
	store := object.NewStore(dir)
	table := refs.New(dir)
	return store, table, NewStoreTransport(store, table)
}

func TestMissingOrdersBlobsThenParentsFirst(t *testing.T) {
	src, _, _ := newLocal(t)
	_, _, dst := newLocal(t)
	chain := history(t, src, 3)

	missing, err := Missing(context.Background(), src, dst, chain[2])
	require.NoError(t, err)
	require.Len(t, missing, 6)

	for _, h := range missing[:3] {
		objType, _, err := src.Read(h)
		require.NoError(t, err)
		require.Equal(t, object.TypeBlob, objType)
	}
	require.Equal(t, chain, missing[3:])
}

func TestMissingStopsAtCommitsRemoteHas(t *testing.T) {
	src, _, _ := newLocal(t)
	dstStore, _, dst := newLocal(t)
	chain := history(t, src, 3)

	_, err := PushObjects(context.Background(), src, dst, chain[1])
	require.NoError(t, err)
	require.True(t, dstStore.Has(chain[1]))

	missing, err := Missing(context.Background(), src, dst, chain[2])
	require.NoError(t, err)
	require.Len(t, missing, 2, "one new blob and one new commit")
	require.Equal(t, chain[2], missing[1])
}

func TestPushObjectsAndUpdateBranch(t *testing.T) {
	src, _, _ := newLocal(t)
	dstStore, dstRefs, dst := newLocal(t)
	chain := history(t, src, 2)
	ctx := context.Background()

	n, err := PushObjects(ctx, src, dst, chain[1])
	require.NoError(t, err)
	require.Equal(t, 4, n)
	for _, h := range chain {
		require.True(t, dstStore.Has(h))
	}

	require.NoError(t, dst.UpdateBranch(ctx, "main", "", chain[1]))
	got, _, err := dstRefs.Read(refs.HeadsPrefix + "main")
	require.NoError(t, err)
	require.Equal(t, chain[1], got)

	err = dst.UpdateBranch(ctx, "main", chain[0], chain[1])
	require.ErrorIs(t, err, ErrStaleRef)
}

func TestUpdateBranchRequiresStoredCommit(t *testing.T) {
	_, _, dst := newLocal(t)
	err := dst.UpdateBranch(context.Background(), "main", "", object.HashBytes([]byte("nope")))
	require.ErrorIs(t, err, object.ErrNotFound)
}

func TestPutRejectsMismatchedHash(t *testing.T) {
	_, _, dst := newLocal(t)
	err := dst.Put(context.Background(), []Object{{
		Hash: object.HashObject(object.TypeBlob, []byte("one")),
		Type: object.TypeBlob,
		Data: []byte("two"),
	}})
	require.ErrorIs(t, err, ErrObjectMismatch)
}

func TestFetchCopiesClosure(t *testing.T) {
	srcStore, _, src := newLocal(t)
	dst, _, _ := newLocal(t)
	chain := history(t, srcStore, 3)

	n, err := Fetch(context.Background(), src, dst, chain[2])
	require.NoError(t, err)
	require.Equal(t, 6, n)

	want, err := srcStore.List()
	require.NoError(t, err)
	got, err := dst.List()
	require.NoError(t, err)
	require.Equal(t, want, got)

	n, err = Fetch(context.Background(), src, dst, chain[2])
	require.NoError(t, err)
	require.Zero(t, n)
}

// lyingTransport serves tampered object content.
type lyingTransport struct {
	*StoreTransport
}

func (l lyingTransport) Get(ctx context.Context, hashes []object.Hash) ([]Object, error) {
	objs, err := l.StoreTransport.Get(ctx, hashes)
	for i := range objs {
		objs[i].Data = append(objs[i].Data, 'x')
	}
	return objs, err
}

func TestFetchRejectsTamperedObjects(t *testing.T) {
	srcStore, _, src := newLocal(t)
	dst, _, _ := newLocal(t)
	chain := history(t, srcStore, 1)

	_, err := Fetch(context.Background(), lyingTransport{src}, dst, chain[0])
	require.ErrorIs(t, err, ErrObjectMismatch)
	objs, err := dst.List()
	require.NoError(t, err)
	require.Empty(t, objs)
}

func TestOpenLocal(t *testing.T) {
	dir := t.TempDir()
	_, err := OpenLocal(dir, "")
	require.ErrorIs(t, err, ErrNoRepository)

	tr, err := OpenLocal(dir, "main")
	require.NoError(t, err)
	info, err := tr.ListRefs(context.Background())
	require.NoError(t, err)
	require.Equal(t, "main", info.Head)
	require.Contains(t, info.Branches, "main")
	require.Empty(t, info.Branches["main"])
}

func TestHTTPClientRoundTrip(t *testing.T) {
	srcStore, _, _ := newLocal(t)
	dstStore, dstRefs, dst := newLocal(t)
	chain := history(t, srcStore, 3)

	srv := httptest.NewServer(NewHandler(dst))
	defer srv.Close()

	ctx := context.Background()
	client, err := NewClient(srv.URL+"/", OpenOptions{})
	require.NoError(t, err)
	require.Equal(t, srv.URL, client.BaseURL())

	n, err := PushObjects(ctx, srcStore, client, chain[2])
	require.NoError(t, err)
	require.Equal(t, 6, n)
	require.True(t, dstStore.Has(chain[2]))

	require.NoError(t, client.UpdateBranch(ctx, "main", "", chain[2]))
	tip, _, err := dstRefs.Read(refs.HeadsPrefix + "main")
	require.NoError(t, err)
	require.Equal(t, chain[2], tip)

	err = client.UpdateBranch(ctx, "main", chain[0], chain[2])
	require.ErrorIs(t, err, ErrStaleRef)
	var re *RemoteError
	require.ErrorAs(t, err, &re)
	require.Equal(t, http.StatusConflict, re.Status)

	info, err := client.ListRefs(ctx)
	require.NoError(t, err)
	require.Equal(t, chain[2], info.Branches["main"])

	fresh, _, _ := newLocal(t)
	n, err = Fetch(ctx, client, fresh, chain[2])
	require.NoError(t, err)
	require.Equal(t, 6, n)
	require.True(t, fresh.Has(chain[0]))
}

func TestNewClientRejectsBadURL(t *testing.T) {
	_, err := NewClient("ftp://example.com", OpenOptions{})
	require.ErrorIs(t, err, ErrInvalidRequest)
	_, err = NewClient("http://", OpenOptions{})
	require.Error(t, err)
}

func TestRetryDoRetriesServerErrors(t *testing.T) {
	old := retryBaseDelay
	retryBaseDelay = time.Millisecond
	defer func() { retryBaseDelay = old }()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	req, err := http.NewRequest(http.MethodPost, srv.URL, nil)
	require.NoError(t, err)
	resp, err := retryDo(srv.Client(), req, 3)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.EqualValues(t, 3, calls.Load())
}

func TestRetryDoDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	req, err := http.NewRequest(http.MethodGet, srv.URL, nil)
	require.NoError(t, err)
	resp, err := retryDo(srv.Client(), req, 3)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.EqualValues(t, 1, calls.Load())
}

func TestRetryDoStopsOnCancel(t *testing.T) {
	old := retryBaseDelay
	retryBaseDelay = time.Hour
	defer func() { retryBaseDelay = old }()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL, nil)
	require.NoError(t, err)
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()
	_, err = retryDo(srv.Client(), req, 2)
	require.True(t, errors.Is(err, context.Canceled))
}

func TestObjectsCodec(t *testing.T) {
	objs := []Object{{Hash: object.HashObject(object.TypeBlob, []byte("x")), Type: object.TypeBlob, Data: []byte("x")}}
	body, err := EncodeObjects(objs)
	require.NoError(t, err)
	got, err := DecodeObjects(body, true)
	require.NoError(t, err)
	require.Equal(t, objs, got)

	_, err = DecodeObjects(body, false)
	require.Error(t, err)
}
