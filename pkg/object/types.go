package object

import "sort"

// Hash is a 64-character hex-encoded SHA-256 digest.
type Hash string

// ZeroHash stands in for "no object" in reflog lines.
const ZeroHash Hash = "0000000000000000000000000000000000000000000000000000000000000000"

// Short returns the first 8 characters of the hash.
func (h Hash) Short() string {
	if len(h) <= 8 {
		return string(h)
	}
	return string(h[:8])
}

// ObjectType identifies the kind of object stored.
type ObjectType string

const (
	TypeBlob   ObjectType = "blob"
	TypeCommit ObjectType = "commit"
)

// Blob holds raw file data.
type Blob struct {
	Data []byte
}

// Snapshot maps a slash-separated file path to the blob holding its content.
// A commit always carries the complete mapping, never a delta.
type Snapshot map[string]Hash

// Clone returns an independent copy of s. A nil snapshot clones to an empty one.
func (s Snapshot) Clone() Snapshot {
	out := make(Snapshot, len(s))
	for p, h := range s {
		out[p] = h
	}
	return out
}

// Paths returns the snapshot paths in lexicographic order.
func (s Snapshot) Paths() []string {
	out := make([]string, 0, len(s))
	for p := range s {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// Equal reports whether both snapshots map the same paths to the same blobs.
func (s Snapshot) Equal(other Snapshot) bool {
	if len(s) != len(other) {
		return false
	}
	for p, h := range s {
		if oh, ok := other[p]; !ok || oh != h {
			return false
		}
	}
	return true
}

// CommitObj is an immutable record of a full snapshot plus its lineage.
// Its identity is HashObject(TypeCommit, MarshalCommit(c)).
type CommitObj struct {
	Parents   []Hash
	Timestamp int64
	Message   string
	Snapshot  Snapshot
}

// FirstParent returns the first parent, or "" for a root commit.
func (c *CommitObj) FirstParent() Hash {
	if len(c.Parents) == 0 {
		return ""
	}
	return c.Parents[0]
}
