package object

import (
	"bytes"
	"testing"
)

func TestMarshalUnmarshalBlob(t *testing.T) {
	orig := &Blob{Data: []byte("hello world\nline two")}
	got, err := UnmarshalBlob(MarshalBlob(orig))
	if err != nil {
		t.Fatalf("UnmarshalBlob: %v", err)
	}
	if !bytes.Equal(got.Data, orig.Data) {
		t.Errorf("Blob round-trip mismatch: got %q, want %q", got.Data, orig.Data)
	}
}

func TestMarshalCommitFormat(t *testing.T) {
	c := &CommitObj{
		Parents:   []Hash{Hash("1111111111111111111111111111111111111111111111111111111111111111")},
		Timestamp: 42,
		Message:   "update\n\nbody",
		Snapshot: Snapshot{
			"z.txt":     Hash("bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"),
			"dir/a b.c": Hash("aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"),
		},
	}
	want := "parent 1111111111111111111111111111111111111111111111111111111111111111\n" +
		"timestamp 42\n" +
		"file aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa dir/a b.c\n" +
		"file bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb z.txt\n" +
		"\n" +
		"update\n\nbody"
	if got := string(MarshalCommit(c)); got != want {
		t.Fatalf("MarshalCommit:\n%s\nwant:\n%s", got, want)
	}

	got, err := UnmarshalCommit([]byte(want))
	if err != nil {
		t.Fatalf("UnmarshalCommit: %v", err)
	}
	if got.Message != c.Message || got.Timestamp != 42 || len(got.Parents) != 1 || got.Parents[0] != c.Parents[0] {
		t.Errorf("UnmarshalCommit header = %+v", got)
	}
	if !got.Snapshot.Equal(c.Snapshot) {
		t.Errorf("UnmarshalCommit snapshot = %v", got.Snapshot)
	}
}

func TestCommitIDDependsOnEveryField(t *testing.T) {
	base := &CommitObj{
		Timestamp: 10,
		Message:   "m",
		Snapshot:  Snapshot{"a": Hash("aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")},
	}
	id := CommitID(base)

	variants := map[string]*CommitObj{
		"parents":   {Parents: []Hash{ZeroHash}, Timestamp: 10, Message: "m", Snapshot: base.Snapshot},
		"timestamp": {Timestamp: 11, Message: "m", Snapshot: base.Snapshot},
		"message":   {Timestamp: 10, Message: "n", Snapshot: base.Snapshot},
		"snapshot":  {Timestamp: 10, Message: "m", Snapshot: Snapshot{}},
	}
	for name, v := range variants {
		if CommitID(v) == id {
			t.Errorf("changing %s did not change the commit id", name)
		}
	}

	same := &CommitObj{Timestamp: 10, Message: "m", Snapshot: base.Snapshot.Clone()}
	if CommitID(same) != id {
		t.Error("equal fields produced a different commit id")
	}
}

func TestUnmarshalCommitRejectsMalformed(t *testing.T) {
	cases := map[string]string{
		"no separator":   "timestamp 1\nmessage",
		"bad timestamp":  "timestamp x\n\nm",
		"no timestamp":   "parent 1111111111111111111111111111111111111111111111111111111111111111\n\nm",
		"unknown key":    "timestamp 1\ntree abc\n\nm",
		"bad file entry": "timestamp 1\nfile nothex a.txt\n\nm",
		"bad parent":     "parent abc\ntimestamp 1\n\nm",
	}
	for name, raw := range cases {
		if _, err := UnmarshalCommit([]byte(raw)); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}

func TestSnapshotHelpers(t *testing.T) {
	s := Snapshot{"b": "2", "a": "1"}
	paths := s.Paths()
	if len(paths) != 2 || paths[0] != "a" || paths[1] != "b" {
		t.Fatalf("Paths = %v", paths)
	}
	c := s.Clone()
	c["c"] = "3"
	if _, ok := s["c"]; ok {
		t.Fatal("Clone shares storage")
	}
	if s.Equal(c) || !s.Equal(Snapshot{"a": "1", "b": "2"}) {
		t.Fatal("Equal mismatch")
	}
	var nilSnap Snapshot
	if !nilSnap.Equal(Snapshot{}) {
		t.Fatal("nil snapshot should equal empty snapshot")
	}
}
