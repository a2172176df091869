package object

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestHashBytesDeterminism(t *testing.T) {
	data := []byte("hello world")
	h1 := HashBytes(data)
	h2 := HashBytes(data)
	if h1 != h2 {
		t.Errorf("HashBytes not deterministic: %q != %q", h1, h2)
	}
	if len(h1) != 64 {
		t.Errorf("Hash length: got %d, want 64", len(h1))
	}
}

func TestHashObjectEnvelope(t *testing.T) {
	data := []byte("hello")
	h1 := HashObject(TypeBlob, data)
	if h1 == HashBytes(data) {
		t.Error("HashObject should differ from HashBytes due to envelope")
	}
	if HashObject(TypeBlob, data) != h1 {
		t.Error("HashObject not deterministic")
	}
	if HashObject(TypeCommit, data) == h1 {
		t.Error("Different types should produce different hashes")
	}
}

func tempStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(t.TempDir())
}

func TestStoreWriteRead(t *testing.T) {
	s := tempStore(t)
	data := []byte("hello world")
	h, err := s.Write(TypeBlob, data)
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if h != HashObject(TypeBlob, data) {
		t.Errorf("Write hash = %s, want %s", h, HashObject(TypeBlob, data))
	}

	gotType, gotData, err := s.Read(h)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if gotType != TypeBlob {
		t.Errorf("Type: got %q, want %q", gotType, TypeBlob)
	}
	if !bytes.Equal(gotData, data) {
		t.Errorf("Data: got %q, want %q", gotData, data)
	}
}

func TestStoreWriteEmptyBlob(t *testing.T) {
	s := tempStore(t)
	h, err := s.WriteBlob(&Blob{})
	if err != nil {
		t.Fatalf("WriteBlob: %v", err)
	}
	got, err := s.ReadBlob(h)
	if err != nil {
		t.Fatalf("ReadBlob: %v", err)
	}
	if len(got.Data) != 0 {
		t.Errorf("empty blob read back %d bytes", len(got.Data))
	}
}

func TestStoreHas(t *testing.T) {
	s := tempStore(t)
	h, err := s.Write(TypeBlob, []byte("exists"))
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if !s.Has(h) {
		t.Error("Has returned false for existing object")
	}
	if s.Has(ZeroHash) {
		t.Error("Has returned true for non-existing object")
	}
	if s.Has(Hash("../../etc")) {
		t.Error("Has accepted a malformed hash")
	}
}

func TestStoreFanoutLayoutIsCompressed(t *testing.T) {
	s := tempStore(t)
	data := []byte(strings.Repeat("fanout test\n", 200))
	h, err := s.Write(TypeBlob, data)
	if err != nil {
		t.Fatalf("Write: %v", err)
	}

	objPath := filepath.Join(s.Root(), "objects", string(h[:2]), string(h[2:]))
	raw, err := os.ReadFile(objPath)
	if err != nil {
		t.Fatalf("expected fan-out file at %s: %v", objPath, err)
	}
	if bytes.Contains(raw, []byte("fanout test")) {
		t.Error("loose object stored uncompressed")
	}
	if len(raw) >= len(data) {
		t.Errorf("compressed size %d not smaller than %d", len(raw), len(data))
	}
}

func TestStoreDuplicateWriteIsNoop(t *testing.T) {
	s := tempStore(t)
	data := []byte("duplicate")
	h1, err := s.Write(TypeBlob, data)
	if err != nil {
		t.Fatalf("Write 1: %v", err)
	}
	path := filepath.Join(s.Root(), "objects", string(h1[:2]), string(h1[2:]))
	before, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}

	h2, err := s.Write(TypeBlob, data)
	if err != nil {
		t.Fatalf("Write 2: %v", err)
	}
	if h1 != h2 {
		t.Errorf("Same content produced different hashes: %q vs %q", h1, h2)
	}
	after, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if !os.SameFile(before, after) {
		t.Error("second write replaced the stored object")
	}

	hashes, err := s.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(hashes) != 1 {
		t.Errorf("List: got %d objects, want 1", len(hashes))
	}
	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".tmp-") {
			t.Errorf("temp file left behind: %s", e.Name())
		}
	}
}

func TestStoreReadMissing(t *testing.T) {
	s := tempStore(t)
	_, _, err := s.Read(ZeroHash)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("Read missing: got %v, want ErrNotFound", err)
	}
	if _, err := s.ReadCommit(Hash("short")); !errors.Is(err, ErrNotFound) {
		t.Fatalf("ReadCommit malformed: got %v, want ErrNotFound", err)
	}
}

func TestStoreTypeMismatch(t *testing.T) {
	s := tempStore(t)
	h, err := s.WriteBlob(&Blob{Data: []byte("not a commit")})
	if err != nil {
		t.Fatalf("WriteBlob: %v", err)
	}
	if _, err := s.ReadCommit(h); err == nil {
		t.Fatal("ReadCommit of a blob should fail")
	}
}

func TestStoreWriteReadCommit(t *testing.T) {
	s := tempStore(t)
	blob, err := s.WriteBlob(&Blob{Data: []byte("hello")})
	if err != nil {
		t.Fatalf("WriteBlob: %v", err)
	}
	orig := &CommitObj{
		Timestamp: 1700000000,
		Message:   "init",
		Snapshot:  Snapshot{"a.txt": blob},
	}
	h, err := s.WriteCommit(orig)
	if err != nil {
		t.Fatalf("WriteCommit: %v", err)
	}
	if h != CommitID(orig) {
		t.Errorf("stored id %s != CommitID %s", h, CommitID(orig))
	}
	got, err := s.ReadCommit(h)
	if err != nil {
		t.Fatalf("ReadCommit: %v", err)
	}
	if got.Message != "init" || got.Timestamp != 1700000000 || !got.Snapshot.Equal(orig.Snapshot) {
		t.Errorf("ReadCommit = %+v", got)
	}
	if CommitID(got) != h {
		t.Error("recomputed id of a stored commit differs from its name")
	}
}

func TestStoreResolvePrefix(t *testing.T) {
	s := tempStore(t)
	h, err := s.WriteBlob(&Blob{Data: []byte("prefix")})
	if err != nil {
		t.Fatalf("WriteBlob: %v", err)
	}

	got, err := s.ResolvePrefix(string(h[:8]))
	if err != nil {
		t.Fatalf("ResolvePrefix: %v", err)
	}
	if got != h {
		t.Errorf("ResolvePrefix = %s, want %s", got, h)
	}
	if got, err := s.ResolvePrefix(strings.ToUpper(string(h[:8]))); err != nil || got != h {
		t.Errorf("ResolvePrefix upper = %s, %v", got, err)
	}
	if _, err := s.ResolvePrefix("zz"); !errors.Is(err, ErrNotFound) {
		t.Errorf("ResolvePrefix non-hex: got %v, want ErrNotFound", err)
	}

	missing := "0"
	if h[0] == '0' {
		missing = "1"
	}
	if _, err := s.ResolvePrefix(missing + "000000"); !errors.Is(err, ErrNotFound) {
		t.Errorf("ResolvePrefix missing: got %v, want ErrNotFound", err)
	}
}

func TestStoreResolvePrefixAmbiguous(t *testing.T) {
	s := tempStore(t)
	// Write blobs until two land in the same fan-out directory.
	seen := map[string]Hash{}
	var first, second Hash
	for i := 0; first == ""; i++ {
		h, err := s.WriteBlob(&Blob{Data: []byte{byte(i), byte(i >> 8)}})
		if err != nil {
			t.Fatalf("WriteBlob: %v", err)
		}
		if prev, ok := seen[string(h[:2])]; ok {
			first, second = prev, h
		}
		seen[string(h[:2])] = h
	}
	if _, err := s.ResolvePrefix(string(first[:2])); !errors.Is(err, ErrAmbiguous) {
		t.Fatalf("shared prefix: got %v, want ErrAmbiguous", err)
	}
	got, err := s.ResolvePrefix(string(second))
	if err != nil || got != second {
		t.Fatalf("full hash: got %s, %v", got, err)
	}
	if _, err := s.ResolvePrefix(string(first[:1])); !errors.Is(err, ErrNotFound) {
		t.Errorf("one-character prefix: got %v, want ErrNotFound", err)
	}
}

func TestStoreVerifyDetectsCorruption(t *testing.T) {
	s := tempStore(t)
	good, err := s.WriteBlob(&Blob{Data: []byte("good")})
	if err != nil {
		t.Fatalf("WriteBlob: %v", err)
	}
	bad, err := s.WriteBlob(&Blob{Data: []byte("bad")})
	if err != nil {
		t.Fatalf("WriteBlob: %v", err)
	}

	summary, err := s.Verify()
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if summary.Objects != 2 || len(summary.Corrupt) != 0 {
		t.Fatalf("clean Verify = %+v", summary)
	}

	// Replace bad's content with good's compressed bytes.
	goodRaw, err := os.ReadFile(filepath.Join(s.Root(), "objects", string(good[:2]), string(good[2:])))
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	badPath := filepath.Join(s.Root(), "objects", string(bad[:2]), string(bad[2:]))
	if err := os.WriteFile(badPath, goodRaw, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	summary, err = s.Verify()
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if len(summary.Corrupt) != 1 || summary.Corrupt[0] != bad {
		t.Fatalf("Verify corrupt = %v, want [%s]", summary.Corrupt, bad)
	}
}

func TestReachableSetFollowsParentsAndSnapshot(t *testing.T) {
	s := tempStore(t)
	b1, _ := s.WriteBlob(&Blob{Data: []byte("one")})
	b2, _ := s.WriteBlob(&Blob{Data: []byte("two")})
	orphan, _ := s.WriteBlob(&Blob{Data: []byte("orphan")})

	c1, err := s.WriteCommit(&CommitObj{Timestamp: 1, Message: "one", Snapshot: Snapshot{"a": b1}})
	if err != nil {
		t.Fatalf("WriteCommit: %v", err)
	}
	c2, err := s.WriteCommit(&CommitObj{Parents: []Hash{c1}, Timestamp: 2, Message: "two", Snapshot: Snapshot{"a": b2}})
	if err != nil {
		t.Fatalf("WriteCommit: %v", err)
	}

	set, err := s.ReachableSet([]Hash{c2, "", c2})
	if err != nil {
		t.Fatalf("ReachableSet: %v", err)
	}
	for _, h := range []Hash{c1, c2, b1, b2} {
		if _, ok := set[h]; !ok {
			t.Errorf("ReachableSet missing %s", h.Short())
		}
	}
	if _, ok := set[orphan]; ok {
		t.Error("ReachableSet included an unreferenced blob")
	}
}
