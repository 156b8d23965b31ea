package plugin

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"
)

// countingWriter records whether anything was ever written.
type countingWriter struct{ n int }

func (w *countingWriter) Write(p []byte) (int, error) {
	w.n += len(p)
	return len(p), nil
}

// testHandle wires a Handle around a fake plugin.
func testHandle(t *testing.T, name string, handler func(req rpcRequest) string) *Handle {
	t.Helper()
	return &Handle{
		Info: Info{Name: name, Version: "1.0.0"},
		rpc:  fakePlugin(t, time.Second, handler),
	}
}

func TestGetTimeEntriesBeforeInitialize(t *testing.T) {
	w := &countingWriter{}
	h := &Handle{
		Info: Info{Name: "jira"},
		rpc:  newLineClient(w, strings.NewReader(""), time.Second),
	}

	_, err := h.GetTimeEntries(time.Now(), time.Now())
	if err == nil {
		t.Fatal("uninitialized plugin should fail")
	}
	if w.n != 0 {
		t.Fatalf("no bytes may reach the process, wrote %d", w.n)
	}
}

func TestInitializeThenGetEntries(t *testing.T) {
	h := testHandle(t, "jira", func(req rpcRequest) string {
		switch req.Method {
		case "initialize":
			return okLine(req.ID, "null")
		case "get_time_entries":
			return okLine(req.ID, `[{"id":"J-1","description":"triage","started_at":"2023-08-09T08:00:00Z","ended_at":"2023-08-09T09:00:00Z","source":"jira"}]`)
		}
		return okLine(req.ID, "null")
	})

	if err := h.Initialize(); err != nil {
		t.Fatal(err)
	}
	if !h.Info.Initialized {
		t.Fatal("handle should be marked initialized")
	}

	entries, err := h.GetTimeEntries(time.Now(), time.Now())
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].ID != "J-1" || entries[0].Source != "jira" {
		t.Fatalf("unexpected entries %+v", entries)
	}
}

func TestShutdownKillFallback(t *testing.T) {
	killed := false
	h := testHandle(t, "slow", func(req rpcRequest) string {
		if req.Method == "shutdown" {
			return fmt.Sprintf(`{"jsonrpc":"2.0","id":%d,"error":{"code":-1,"message":"refusing"}}`, req.ID)
		}
		return okLine(req.ID, "null")
	})
	h.kill = func() error { killed = true; return nil }

	if err := h.Initialize(); err != nil {
		t.Fatal(err)
	}
	err := h.Shutdown()
	if err == nil {
		t.Fatal("shutdown should report the rpc failure")
	}
	if !killed {
		t.Fatal("a failing shutdown RPC must still kill the process")
	}
}

func TestShutdownGraceful(t *testing.T) {
	killed := false
	h := testHandle(t, "nice", func(req rpcRequest) string {
		return okLine(req.ID, "null")
	})
	h.kill = func() error { killed = true; return nil }

	h.Initialize()
	if err := h.Shutdown(); err != nil {
		t.Fatal(err)
	}
	if killed {
		t.Fatal("graceful shutdown should not kill")
	}
}

func TestAggregationFailureIsolation(t *testing.T) {
	good := testHandle(t, "good", func(req rpcRequest) string {
		if req.Method == "get_time_entries" {
			return okLine(req.ID, `[{"id":"g1","source":"good","started_at":"2023-08-09T08:00:00Z","ended_at":"2023-08-09T09:00:00Z"}]`)
		}
		return okLine(req.ID, "null")
	})
	bad := testHandle(t, "bad", func(req rpcRequest) string {
		if req.Method == "get_time_entries" {
			return fmt.Sprintf(`{"jsonrpc":"2.0","id":%d,"error":{"code":-2,"message":"backend gone"}}`, req.ID)
		}
		return okLine(req.ID, "null")
	})
	good.Initialize()
	bad.Initialize()

	m := NewManager("", 0)
	m.plugins = map[string]*Handle{"good": good, "bad": bad}
	m.order = []string{"good", "bad"}

	entries, problems := m.GetAllTimeEntries(time.Now(), time.Now().Add(time.Hour))
	if len(entries) != 1 || entries[0].ID != "g1" {
		t.Fatalf("healthy plugin entries must survive, got %+v", entries)
	}
	if len(problems) != 1 || problems[0].Plugin != "bad" {
		t.Fatalf("expected exactly one (name, error) pair, got %+v", problems)
	}
	if !strings.Contains(problems[0].Error(), "backend gone") {
		t.Fatalf("error should carry the plugin message, got %v", problems[0])
	}
}

// writePlugin lays out a plugin directory. The script, when non-empty,
// becomes the executable.
func writePlugin(t *testing.T, root, name, script string, withConfig bool) string {
	t.Helper()
	dir := filepath.Join(root, name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	manifest := fmt.Sprintf("plugin:\n  name: %s\n  version: 1.0.0\nexecutable:\n  default: run.sh\n", name)
	os.WriteFile(filepath.Join(dir, ManifestFile), []byte(manifest), 0o644)
	if withConfig {
		os.WriteFile(filepath.Join(dir, ConfigFile), []byte("{}\n"), 0o644)
	}
	if script != "" {
		os.WriteFile(filepath.Join(dir, "run.sh"), []byte(script), 0o755)
	}
	return dir
}

func TestDiscoverFailureIsolation(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell script plugins")
	}
	root := t.TempDir()

	// Responds to initialize (id 1), get_time_entries (id 2), shutdown (id 3).
	script := `#!/bin/sh
read req
printf '{"jsonrpc":"2.0","id":1,"result":null}\n'
read req
printf '{"jsonrpc":"2.0","id":2,"result":[]}\n'
read req
printf '{"jsonrpc":"2.0","id":3,"result":null}\n'
`
	writePlugin(t, root, "healthy", script, true)
	writePlugin(t, root, "noconfig", script, false)
	writePlugin(t, root, "noexec", "", true)
	nonexecDir := writePlugin(t, root, "badmode", script, true)
	os.Chmod(filepath.Join(nonexecDir, "run.sh"), 0o644)

	m := NewManager(root, 2*time.Second)
	problems := m.Discover()
	defer m.Shutdown()

	if len(problems) != 3 {
		t.Fatalf("expected 3 per-plugin failures, got %+v", problems)
	}
	infos := m.Plugins()
	if len(infos) != 1 || infos[0].Name != "healthy" || !infos[0].Initialized {
		t.Fatalf("only the healthy plugin should load, got %+v", infos)
	}

	entries, errs := m.GetAllTimeEntries(time.Now(), time.Now())
	if len(errs) != 0 {
		t.Fatalf("unexpected errors %+v", errs)
	}
	if len(entries) != 0 {
		t.Fatalf("script returns an empty list, got %+v", entries)
	}
}

func TestDiscoverMissingDirectory(t *testing.T) {
	m := NewManager(filepath.Join(t.TempDir(), "nope"), 0)
	if problems := m.Discover(); problems != nil {
		t.Fatalf("missing plugins dir is not an error, got %+v", problems)
	}
}

func TestManifestValidation(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ManifestFile)

	os.WriteFile(path, []byte("plugin:\n  version: 1.0.0\nexecutable:\n  default: run\n"), 0o644)
	if _, err := LoadManifest(path); err == nil || !strings.Contains(err.Error(), "plugin.name") {
		t.Fatalf("missing name should be rejected, got %v", err)
	}

	os.WriteFile(path, []byte("plugin:\n  name: x\n  version: 1.0.0\n"), 0o644)
	if _, err := LoadManifest(path); err == nil || !strings.Contains(err.Error(), "executable.default") {
		t.Fatalf("missing executable should be rejected, got %v", err)
	}

	os.WriteFile(path, []byte("plugin:\n  name: x\n  version: 2.1.0\n  icon: \"⏱\"\nexecutable:\n  default: run\n  windows: run.exe\n"), 0o644)
	m, err := LoadManifest(path)
	if err != nil {
		t.Fatal(err)
	}
	want := "run"
	if runtime.GOOS == "windows" {
		want = "run.exe"
	}
	if m.ExecutableName() != want {
		t.Fatalf("expected executable %q, got %q", want, m.ExecutableName())
	}
}
