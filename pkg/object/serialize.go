package object

import (
	"bytes"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// MarshalBlob serializes a Blob to raw bytes (identity).
func MarshalBlob(b *Blob) []byte {
	out := make([]byte, len(b.Data))
	copy(out, b.Data)
	return out
}

// UnmarshalBlob deserializes raw bytes into a Blob.
func UnmarshalBlob(data []byte) (*Blob, error) {
	out := make([]byte, len(data))
	copy(out, data)
	return &Blob{Data: out}, nil
}

// MarshalCommit serializes a CommitObj:
//
//	parent H          (zero or more, in order)
//	timestamp T
//	file H path       (zero or more, sorted by path)
//
//	message
//
// The encoding is canonical, so equal fields always produce equal bytes.
func MarshalCommit(c *CommitObj) []byte {
	var buf bytes.Buffer
	for _, p := range c.Parents {
		fmt.Fprintf(&buf, "parent %s\n", string(p))
	}
	fmt.Fprintf(&buf, "timestamp %d\n", c.Timestamp)
	paths := make([]string, 0, len(c.Snapshot))
	for p := range c.Snapshot {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	for _, p := range paths {
		fmt.Fprintf(&buf, "file %s %s\n", string(c.Snapshot[p]), p)
	}
	buf.WriteByte('\n')
	buf.WriteString(c.Message)
	return buf.Bytes()
}

// UnmarshalCommit parses a CommitObj from its serialized form.
func UnmarshalCommit(data []byte) (*CommitObj, error) {
	idx := bytes.Index(data, []byte("\n\n"))
	if idx < 0 {
		return nil, fmt.Errorf("unmarshal commit: missing header/message separator")
	}
	header := string(data[:idx])
	message := string(data[idx+2:])

	c := &CommitObj{Message: message, Snapshot: Snapshot{}}
	sawTimestamp := false
	for _, line := range strings.Split(header, "\n") {
		key, val, ok := strings.Cut(line, " ")
		if !ok {
			return nil, fmt.Errorf("unmarshal commit: malformed header line %q", line)
		}
		switch key {
		case "parent":
			if !ValidHash(Hash(val)) {
				return nil, fmt.Errorf("unmarshal commit: bad parent %q", val)
			}
			c.Parents = append(c.Parents, Hash(val))
		case "timestamp":
			ts, err := strconv.ParseInt(val, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("unmarshal commit: bad timestamp %q: %w", val, err)
			}
			c.Timestamp = ts
			sawTimestamp = true
		case "file":
			h, path, ok := strings.Cut(val, " ")
			if !ok || !ValidHash(Hash(h)) || path == "" {
				return nil, fmt.Errorf("unmarshal commit: malformed file entry %q", val)
			}
			if _, dup := c.Snapshot[path]; dup {
				return nil, fmt.Errorf("unmarshal commit: duplicate file entry %q", path)
			}
			c.Snapshot[path] = Hash(h)
		default:
			return nil, fmt.Errorf("unmarshal commit: unknown header key %q", key)
		}
	}
	if !sawTimestamp {
		return nil, fmt.Errorf("unmarshal commit: missing timestamp")
	}
	return c, nil
}
