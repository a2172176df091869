package object

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/klauspost/compress/zstd"
)

// ErrNotFound is returned (wrapped) when an object is absent from the store.
var ErrNotFound = errors.New("object not found")

// ErrAmbiguous is returned when a hash prefix matches more than one object.
var ErrAmbiguous = errors.New("ambiguous object prefix")

// Loose objects are compressed with shared zstd codecs; EncodeAll and
// DecodeAll are safe for concurrent use.
var (
	zstdEncoder, _ = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	zstdDecoder, _ = zstd.NewReader(nil)
)

// Store is a content-addressed object store with a 2-character fan-out
// directory layout: objects/ab/cdef0123...
//
// Objects are immutable. An existing object file is never rewritten, so a
// crash mid-write can only lose the object being written.
type Store struct {
	root string
}

// NewStore creates a Store rooted at the given directory. The objects/
// subdirectory is created lazily on first write.
func NewStore(root string) *Store {
	return &Store{root: root}
}

// Root returns the directory the store lives in.
func (s *Store) Root() string {
	return s.root
}

func (s *Store) objectsDir() string {
	return filepath.Join(s.root, "objects")
}

// objectPath returns the filesystem path for a given hash.
func (s *Store) objectPath(h Hash) string {
	return filepath.Join(s.objectsDir(), string(h[:2]), string(h[2:]))
}

// Has reports whether the store contains an object with the given hash.
func (s *Store) Has(h Hash) bool {
	if !ValidHash(h) {
		return false
	}
	_, err := os.Stat(s.objectPath(h))
	return err == nil
}

// Write stores an object and returns its content hash. The stored bytes are
// the zstd-compressed envelope "type len\0content". The object is written
// to a synced temp file and then linked into place, so a concurrent writer
// of the same object never observes a partial file.
func (s *Store) Write(objType ObjectType, data []byte) (Hash, error) {
	h := HashObject(objType, data)

	// Fast path: already exists.
	if s.Has(h) {
		return h, nil
	}

	raw := append(envelopeHeader(objType, len(data)), data...)
	compressed := zstdEncoder.EncodeAll(raw, nil)

	dir := filepath.Join(s.objectsDir(), string(h[:2]))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("object write mkdir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return "", fmt.Errorf("object write tmpfile: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(compressed); err != nil {
		tmp.Close()
		return "", fmt.Errorf("object write: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return "", fmt.Errorf("object write sync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("object write close: %w", err)
	}

	dest := s.objectPath(h)
	if err := os.Link(tmpName, dest); err != nil {
		if errors.Is(err, os.ErrExist) {
			return h, nil
		}
		// Filesystems without hard links fall back to rename.
		if err := os.Rename(tmpName, dest); err != nil {
			return "", fmt.Errorf("object write rename: %w", err)
		}
	}
	return h, nil
}

// Read retrieves an object by hash, returning its type and raw content.
// Absent objects yield an error wrapping ErrNotFound.
func (s *Store) Read(h Hash) (ObjectType, []byte, error) {
	if !ValidHash(h) {
		return "", nil, fmt.Errorf("object read %q: %w", h, ErrNotFound)
	}
	compressed, err := os.ReadFile(s.objectPath(h))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil, fmt.Errorf("object read %s: %w", h, ErrNotFound)
		}
		return "", nil, fmt.Errorf("object read %s: %w", h, err)
	}
	raw, err := zstdDecoder.DecodeAll(compressed, nil)
	if err != nil {
		return "", nil, fmt.Errorf("object read %s: decompress: %w", h, err)
	}
	return parseEnvelope(h, raw)
}

// parseEnvelope splits "type len\0content".
func parseEnvelope(h Hash, raw []byte) (ObjectType, []byte, error) {
	nulIdx := bytes.IndexByte(raw, 0)
	if nulIdx < 0 {
		return "", nil, fmt.Errorf("object read %s: invalid format (no NUL)", h)
	}
	header := string(raw[:nulIdx])
	content := raw[nulIdx+1:]

	typ, lenStr, ok := strings.Cut(header, " ")
	if !ok {
		return "", nil, fmt.Errorf("object read %s: invalid header %q", h, header)
	}
	length, err := strconv.Atoi(lenStr)
	if err != nil {
		return "", nil, fmt.Errorf("object read %s: invalid length %q: %w", h, lenStr, err)
	}
	if len(content) != length {
		return "", nil, fmt.Errorf("object read %s: length mismatch (header=%d, actual=%d)", h, length, len(content))
	}
	return ObjectType(typ), content, nil
}

// WriteBlob serializes and stores a Blob.
func (s *Store) WriteBlob(b *Blob) (Hash, error) {
	return s.Write(TypeBlob, MarshalBlob(b))
}

// ReadBlob reads and deserializes a Blob.
func (s *Store) ReadBlob(h Hash) (*Blob, error) {
	objType, data, err := s.Read(h)
	if err != nil {
		return nil, err
	}
	if objType != TypeBlob {
		return nil, fmt.Errorf("object %s: type mismatch: got %q, want %q", h, objType, TypeBlob)
	}
	return UnmarshalBlob(data)
}

// WriteCommit serializes and stores a CommitObj.
func (s *Store) WriteCommit(c *CommitObj) (Hash, error) {
	return s.Write(TypeCommit, MarshalCommit(c))
}

// ReadCommit reads and deserializes a CommitObj.
func (s *Store) ReadCommit(h Hash) (*CommitObj, error) {
	objType, data, err := s.Read(h)
	if err != nil {
		return nil, err
	}
	if objType != TypeCommit {
		return nil, fmt.Errorf("object %s: type mismatch: got %q, want %q", h, objType, TypeCommit)
	}
	return UnmarshalCommit(data)
}

// List returns every stored object hash in lexicographic order.
func (s *Store) List() ([]Hash, error) {
	fans, err := os.ReadDir(s.objectsDir())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("object list: %w", err)
	}
	var out []Hash
	for _, fan := range fans {
		if !fan.IsDir() || len(fan.Name()) != 2 || !IsHex(fan.Name()) {
			continue
		}
		hashes, err := s.listFan(fan.Name())
		if err != nil {
			return nil, err
		}
		out = append(out, hashes...)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

func (s *Store) listFan(fan string) ([]Hash, error) {
	entries, err := os.ReadDir(filepath.Join(s.objectsDir(), fan))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("object list %s: %w", fan, err)
	}
	out := make([]Hash, 0, len(entries))
	for _, e := range entries {
		h := Hash(fan + e.Name())
		if e.IsDir() || !ValidHash(h) {
			continue
		}
		out = append(out, h)
	}
	return out, nil
}

// ResolvePrefix expands an abbreviated hash to the single stored object it
// names. The prefix must be at least 2 hex characters.
func (s *Store) ResolvePrefix(prefix string) (Hash, error) {
	prefix = strings.ToLower(strings.TrimSpace(prefix))
	if len(prefix) < 2 || len(prefix) > 64 || !IsHex(prefix) {
		return "", fmt.Errorf("resolve %q: %w", prefix, ErrNotFound)
	}
	if len(prefix) == 64 {
		if s.Has(Hash(prefix)) {
			return Hash(prefix), nil
		}
		return "", fmt.Errorf("resolve %s: %w", prefix, ErrNotFound)
	}
	candidates, err := s.listFan(prefix[:2])
	if err != nil {
		return "", err
	}
	var match Hash
	for _, h := range candidates {
		if !strings.HasPrefix(string(h), prefix) {
			continue
		}
		if match != "" {
			return "", fmt.Errorf("resolve %s: %w", prefix, ErrAmbiguous)
		}
		match = h
	}
	if match == "" {
		return "", fmt.Errorf("resolve %s: %w", prefix, ErrNotFound)
	}
	return match, nil
}

// VerifySummary reports the outcome of Verify.
type VerifySummary struct {
	Objects int
	Corrupt []Hash
}

// Verify re-reads every stored object and checks that its content still
// hashes to its name. Unreadable objects count as corrupt.
func (s *Store) Verify() (*VerifySummary, error) {
	hashes, err := s.List()
	if err != nil {
		return nil, err
	}
	summary := &VerifySummary{Objects: len(hashes)}
	for _, h := range hashes {
		objType, data, err := s.Read(h)
		if err != nil || HashObject(objType, data) != h {
			summary.Corrupt = append(summary.Corrupt, h)
		}
	}
	return summary, nil
}
