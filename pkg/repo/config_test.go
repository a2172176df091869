package repo

import (
	"os"
	"path/filepath"
	"testing"
)

func TestConfigDefaultsAndRoundTrip(t *testing.T) {
	r := newTestRepo(t)
	cfg, err := r.ReadConfig()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Core.DefaultBranch != "main" || cfg.Diff.Context != 3 || cfg.Log.Level != "info" {
		t.Fatalf("defaults = %+v", cfg)
	}

	cfg.Diff.Context = 1
	cfg.Log.File = "myvcs.log"
	if err := r.WriteConfig(cfg); err != nil {
		t.Fatal(err)
	}
	got, err := r.ReadConfig()
	if err != nil {
		t.Fatal(err)
	}
	if got.Diff.Context != 1 || got.Log.File != "myvcs.log" || got.Server.Addr != "127.0.0.1:8080" {
		t.Fatalf("round trip = %+v", got)
	}
}

func TestLoadConfigPartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	data := "[diff]\ncontext = -4\n\n[remotes]\norigin = \"/srv/repo\"\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Diff.Context != 0 {
		t.Fatalf("negative context not clamped: %d", cfg.Diff.Context)
	}
	if cfg.Core.DefaultBranch != "main" {
		t.Fatalf("missing keys should keep defaults, got %q", cfg.Core.DefaultBranch)
	}
	if cfg.Remotes["origin"] != "/srv/repo" {
		t.Fatalf("remotes = %v", cfg.Remotes)
	}

	if err := os.WriteFile(path, []byte("[diff\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadConfig(path); err == nil {
		t.Fatalf("expected a decode error")
	}
}

func TestRemotes(t *testing.T) {
	r := newTestRepo(t)
	if err := r.SetRemote("upstream", "https://example.com/repo"); err != nil {
		t.Fatal(err)
	}
	if err := r.SetRemote("origin", "/tmp/origin"); err != nil {
		t.Fatal(err)
	}
	if err := r.SetRemote("origin", "/tmp/moved"); err != nil {
		t.Fatal(err)
	}
	assertCode(t, r.SetRemote("", "/x"), ErrInvalidArgument)
	assertCode(t, r.SetRemote("x", " "), ErrInvalidArgument)

	remotes, err := r.Remotes()
	if err != nil {
		t.Fatal(err)
	}
	want := []Remote{{Name: "origin", Location: "/tmp/moved"}, {Name: "upstream", Location: "https://example.com/repo"}}
	if len(remotes) != 2 || remotes[0] != want[0] || remotes[1] != want[1] {
		t.Fatalf("Remotes = %+v", remotes)
	}

	loc, err := r.remoteLocation("origin")
	if err != nil || loc != "/tmp/moved" {
		t.Fatalf("remoteLocation(origin) = %q, %v", loc, err)
	}
	loc, err = r.remoteLocation("/some/path")
	if err != nil || loc != "/some/path" {
		t.Fatalf("remoteLocation(path) = %q, %v", loc, err)
	}
}

func TestInitBranchAndOpen(t *testing.T) {
	dir := t.TempDir()
	r, err := InitBranch(dir, "trunk")
	if err != nil {
		t.Fatal(err)
	}
	head, err := r.CurrentBranch()
	if err != nil || head.Branch != "trunk" || head.Hash != "" {
		t.Fatalf("CurrentBranch = %+v, %v", head, err)
	}
	_, err = Init(dir)
	assertCode(t, err, ErrAlreadyExists)
	_, err = InitBranch(t.TempDir(), "bad..branch")
	assertCode(t, err, ErrInvalidArgument)

	sub := filepath.Join(dir, "a", "b")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	opened, err := Open(sub)
	if err != nil {
		t.Fatalf("Open(subdir): %v", err)
	}
	if opened.RootDir != r.RootDir {
		t.Fatalf("Open found %s, want %s", opened.RootDir, r.RootDir)
	}

	_, err = Open(t.TempDir())
	assertCode(t, err, ErrNotARepository)
}
