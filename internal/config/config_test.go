package config

import (
	"os"
	"path/filepath"
	"syscall"
	"testing"
)

func writeDoc(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "taskmaster.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadFileDefaults(t *testing.T) {
	path := writeDoc(t, `
programs:
  echo:
    cmd: "/bin/echo hi"
`)
	doc, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	opts, ok := doc.Programs["echo"]
	if !ok {
		t.Fatal("expected program \"echo\"")
	}
	if opts.NumProcs != 1 {
		t.Errorf("NumProcs = %d, want 1", opts.NumProcs)
	}
	if !opts.AutoStart {
		t.Error("AutoStart should default true")
	}
	if opts.AutoRestart.Mode != RestartAlways {
		t.Errorf("AutoRestart.Mode = %v, want RestartAlways", opts.AutoRestart.Mode)
	}
	if opts.Retries != 8 {
		t.Errorf("Retries = %d, want 8", opts.Retries)
	}
	if opts.StopSignal != syscall.SIGTERM {
		t.Errorf("StopSignal = %v, want SIGTERM", opts.StopSignal)
	}
	if len(opts.Argv) != 2 || opts.Argv[0] != "/bin/echo" {
		t.Errorf("Argv = %v, want [/bin/echo hi]", opts.Argv)
	}
}

func TestLoadFileMissingCmd(t *testing.T) {
	path := writeDoc(t, `
programs:
  broken:
    numprocs: 2
`)
	if _, err := LoadFile(path); err == nil {
		t.Fatal("expected an error when cmd is missing")
	}
}

func TestLoadFileBadAutorestart(t *testing.T) {
	path := writeDoc(t, `
programs:
  broken:
    cmd: "/bin/true"
    autorestart: "sometimes"
`)
	if _, err := LoadFile(path); err == nil {
		t.Fatal("expected an error for an invalid autorestart value")
	}
}

func TestLoadFileUnknownSignal(t *testing.T) {
	path := writeDoc(t, `
programs:
  broken:
    cmd: "/bin/true"
    stopsignal: "BOGUS"
`)
	if _, err := LoadFile(path); err == nil {
		t.Fatal("expected an error for an unknown signal name")
	}
}

func TestLoadFileUnexpectedExitCodes(t *testing.T) {
	path := writeDoc(t, `
programs:
  app:
    cmd: "/bin/true"
    autorestart: "unexpected"
    exitcodes: [0, 2]
`)
	doc, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	ar := doc.Programs["app"].AutoRestart
	if ar.Mode != RestartUnexpected {
		t.Fatalf("Mode = %v, want RestartUnexpected", ar.Mode)
	}
	for _, code := range []int{0, 2} {
		if _, ok := ar.ExitCodes[code]; !ok {
			t.Errorf("expected exit code %d in the expected set", code)
		}
	}
}

func TestLoadFileDuplicateNameFirstWins(t *testing.T) {
	path := writeDoc(t, `
programs:
  app:
    cmd: "/bin/true"
  app:
    cmd: "/bin/false"
`)
	doc, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if got := doc.Programs["app"].Argv[0]; got != "/bin/true" {
		t.Errorf("Argv[0] = %q, want /bin/true (first definition should win)", got)
	}
}

func TestLoadFileMissingFile(t *testing.T) {
	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected an error for a missing file")
	}
}

func TestOptionsEqual(t *testing.T) {
	a := TaskOptions{Argv: []string{"/bin/true"}, NumProcs: 2, Env: map[string]string{"A": "1", "B": "2"}}
	b := TaskOptions{Argv: []string{"/bin/true"}, NumProcs: 2, Env: map[string]string{"B": "2", "A": "1"}}
	if !a.Equal(b) {
		t.Error("Equal should treat Env as a set of pairs, order-independent")
	}
	c := b
	c.Env = map[string]string{"A": "1", "B": "3"}
	if a.Equal(c) {
		t.Error("Equal should detect a changed Env value")
	}
}
