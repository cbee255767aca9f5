package iohelper

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

func TestReadBody_NilReader(t *testing.T) {
	body, err := ReadBody(nil, MaxBodySize)
	if err != nil {
		t.Errorf("Expected no error for nil reader, got %v", err)
	}
	if len(body) != 0 {
		t.Errorf("Expected empty body for nil reader, got %d bytes", len(body))
	}
}

func TestReadBody_RespectsLimit(t *testing.T) {
	body, err := ReadBody(strings.NewReader(strings.Repeat("x", 1000)), 100)
	if err != nil {
		t.Errorf("Unexpected error: %v", err)
	}
	if len(body) != 100 {
		t.Errorf("Expected 100 bytes (limit), got %d", len(body))
	}
}

func TestReadBodyStrict(t *testing.T) {
	body, err := ReadBodyStrict(strings.NewReader("small data"), 1024)
	if err != nil || string(body) != "small data" {
		t.Errorf("ReadBodyStrict = %q, %v", body, err)
	}

	body, err = ReadBodyStrict(strings.NewReader(strings.Repeat("x", 101)), 100)
	if !errors.Is(err, ErrBodyTooLarge) {
		t.Errorf("Expected ErrBodyTooLarge, got %v", err)
	}
	if len(body) != 100 {
		t.Errorf("Expected truncated body of 100 bytes, got %d", len(body))
	}

	_, err = ReadBodyStrict(strings.NewReader(strings.Repeat("x", 100)), 100)
	if err != nil {
		t.Errorf("Body exactly at the limit must pass, got %v", err)
	}
}

func TestReadBodySmall(t *testing.T) {
	body, _ := ReadBodySmall(strings.NewReader(strings.Repeat("y", int(SmallMaxBodySize)+10)))
	if int64(len(body)) != SmallMaxBodySize {
		t.Errorf("Expected %d bytes, got %d", SmallMaxBodySize, len(body))
	}
}

func TestExcerpt(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"  short  ", 300, "short"},
		{strings.Repeat("a", 310), 300, strings.Repeat("a", 300)},
		{"ñandú", 3, "ñan"},
		{"", 10, ""},
	}
	for _, tt := range tests {
		if got := Excerpt([]byte(tt.in), tt.n); got != tt.want {
			t.Errorf("Excerpt(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
		}
	}
}

type trackingCloser struct {
	io.Reader
	closed bool
}

func (c *trackingCloser) Close() error {
	c.closed = true
	return nil
}

func TestDrainAndClose(t *testing.T) {
	if err := DrainAndClose(nil); err != nil {
		t.Errorf("nil reader: %v", err)
	}

	rc := &trackingCloser{Reader: strings.NewReader("remaining")}
	_ = DrainAndClose(rc)
	if !rc.closed {
		t.Error("Expected ReadCloser to be closed")
	}
	if n, _ := rc.Read(make([]byte, 1)); n != 0 {
		t.Error("Expected reader to be drained")
	}
}

func TestPendingFile_Commit(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.csv")
	if err := os.WriteFile(path, []byte("old"), 0o644); err != nil {
		t.Fatal(err)
	}

	p, err := CreatePending(path)
	if err != nil {
		t.Fatal(err)
	}
	_, _ = p.Write([]byte("new"))

	if got, _ := os.ReadFile(path); string(got) != "old" {
		t.Errorf("destination changed before commit: %q", got)
	}
	if err := p.Commit(); err != nil {
		t.Fatal(err)
	}
	if got, _ := os.ReadFile(path); string(got) != "new" {
		t.Errorf("destination = %q, want new", got)
	}
	assertNoTemps(t, dir)
}

func TestPendingFile_CommitMode(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("POSIX permission bits")
	}
	path := filepath.Join(t.TempDir(), "policy_audit.prom")
	p, err := CreatePending(path)
	if err != nil {
		t.Fatal(err)
	}
	_, _ = p.Write([]byte("policy_audit_policies_total 3\n"))
	if err := p.Commit(); err != nil {
		t.Fatal(err)
	}
	fi, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if got := fi.Mode().Perm(); got != FileMode {
		t.Errorf("mode = %v, want %v", got, FileMode)
	}
}

func TestPendingFile_RestoreAndRelease(t *testing.T) {
	dir := t.TempDir()
	prev := filepath.Join(dir, "pre_final.csv")
	fresh := filepath.Join(dir, "report.pdf")
	if err := os.WriteFile(prev, []byte("previous run"), 0o644); err != nil {
		t.Fatal(err)
	}

	commit := func(path, body string) *PendingFile {
		t.Helper()
		p, err := CreatePending(path)
		if err != nil {
			t.Fatal(err)
		}
		_, _ = p.Write([]byte(body))
		if err := p.Commit(); err != nil {
			t.Fatal(err)
		}
		return p
	}

	p1 := commit(prev, "this run")
	p2 := commit(fresh, "this run")
	if err := p1.Restore(); err != nil {
		t.Fatal(err)
	}
	if err := p2.Restore(); err != nil {
		t.Fatal(err)
	}
	if got, _ := os.ReadFile(prev); string(got) != "previous run" {
		t.Errorf("restored content = %q, want previous run", got)
	}
	if _, err := os.Stat(fresh); !os.IsNotExist(err) {
		t.Errorf("new file must be removed on restore, stat err = %v", err)
	}

	p3 := commit(prev, "next run")
	p3.Release()
	if got, _ := os.ReadFile(prev); string(got) != "next run" {
		t.Errorf("content = %q, want next run", got)
	}
	assertNoTemps(t, dir)
}

func TestPendingFile_CommitOntoDirectory(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.csv")
	if err := os.Mkdir(path, 0o755); err != nil {
		t.Fatal(err)
	}
	p, err := CreatePending(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := p.Commit(); err == nil {
		t.Fatal("Expected error committing onto a directory")
	}
	if fi, err := os.Stat(path); err != nil || !fi.IsDir() {
		t.Errorf("directory must be left alone, stat err = %v", err)
	}
	assertNoTemps(t, dir)
}

func TestPendingFile_Abort(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "report.pdf")

	p, err := CreatePending(path)
	if err != nil {
		t.Fatal(err)
	}
	_, _ = p.Write([]byte("partial"))
	p.Abort()
	p.Abort()

	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("destination must not exist after abort, stat err = %v", err)
	}
	assertNoTemps(t, dir)

	if err := p.Commit(); err != nil {
		t.Errorf("Commit after Abort should be a no-op, got %v", err)
	}
}

func TestCreatePending_MissingDir(t *testing.T) {
	_, err := CreatePending(filepath.Join(t.TempDir(), "nope", "out.csv"))
	if err == nil {
		t.Error("Expected error for missing directory")
	}
}

func assertNoTemps(t *testing.T, dir string) {
	t.Helper()
	entries, _ := os.ReadDir(dir)
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".tmp") || strings.HasSuffix(e.Name(), ".bak") {
			t.Errorf("leftover temp file %s", e.Name())
		}
	}
}
