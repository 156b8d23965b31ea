// Package plugin discovers plugin packages on disk, runs each as a child
// process, and speaks newline-delimited JSON-RPC 2.0 with it over stdio.
// Plugins supply additional time entries; a broken plugin is reported and
// skipped, never fatal to the session.
package plugin

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sort"
	"time"
)

// Info describes a loaded plugin for display.
type Info struct {
	Name        string
	Version     string
	Description string
	Icon        string
	Initialized bool
}

// Handle is one running plugin process. Owned exclusively by the
// Manager; nothing else touches its pipes.
type Handle struct {
	Info       Info
	dir        string
	configPath string

	cmd   *exec.Cmd
	stdin io.WriteCloser
	rpc   *lineClient

	// kill terminates the child; split out so shutdown fallback
	// behavior is testable without a real process.
	kill func() error
}

// Initialize performs the required first call. Until it succeeds no
// other method reaches the process.
func (h *Handle) Initialize() error {
	_, err := h.rpc.call("initialize", map[string]string{"config_path": h.configPath})
	if err != nil {
		return fmt.Errorf("initialize %s: %w", h.Info.Name, err)
	}
	h.Info.Initialized = true
	return nil
}

// GetTimeEntries asks the plugin for entries between the RFC3339 bounds.
// Fails locally, without writing to the process, when the plugin was
// never initialized.
func (h *Handle) GetTimeEntries(start, end time.Time) ([]TimeEntry, error) {
	if !h.Info.Initialized {
		return nil, fmt.Errorf("plugin %s is not initialized", h.Info.Name)
	}
	result, err := h.rpc.call("get_time_entries", map[string]string{
		"start_date": start.Format(time.RFC3339),
		"end_date":   end.Format(time.RFC3339),
	})
	if err != nil {
		return nil, fmt.Errorf("get_time_entries %s: %w", h.Info.Name, err)
	}
	var entries []TimeEntry
	if err := json.Unmarshal(result, &entries); err != nil {
		return nil, fmt.Errorf("decode entries from %s: %w", h.Info.Name, err)
	}
	return entries, nil
}

// Shutdown stops the plugin: a graceful shutdown RPC first, and a hard
// kill when that call itself fails. Either way the process is reaped;
// shutdown never leaves an orphan.
func (h *Handle) Shutdown() error {
	var rpcErr error
	if h.Info.Initialized {
		_, rpcErr = h.rpc.call("shutdown", struct{}{})
	}
	if h.stdin != nil {
		h.stdin.Close()
	}
	if rpcErr != nil && h.kill != nil {
		h.kill()
	}
	if h.cmd != nil {
		h.cmd.Wait()
	}
	if rpcErr != nil {
		return fmt.Errorf("shutdown %s: %w", h.Info.Name, rpcErr)
	}
	return nil
}

// Error pairs a plugin name with what went wrong, for per-plugin
// reporting that never aborts the rest.
type Error struct {
	Plugin string
	Err    error
}

func (e Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Plugin, e.Err)
}

// Manager owns all plugin handles, keyed by plugin name.
type Manager struct {
	dir     string
	timeout time.Duration
	plugins map[string]*Handle
	order   []string
}

// NewManager returns a manager scanning dir. Timeout bounds each RPC
// call; zero means DefaultCallTimeout.
func NewManager(dir string, timeout time.Duration) *Manager {
	return &Manager{
		dir:     dir,
		timeout: timeout,
		plugins: make(map[string]*Handle),
	}
}

// Discover scans the plugins directory, spawning and initializing one
// plugin per subdirectory that carries both a manifest and a config
// file. Failures are collected per plugin; one bad plugin never stops
// the others. A missing plugins directory is not an error.
func (m *Manager) Discover() []Error {
	var problems []Error

	dirEntries, err := os.ReadDir(m.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return []Error{{Plugin: m.dir, Err: fmt.Errorf("read plugins directory: %w", err)}}
	}

	// Deterministic load order.
	sort.Slice(dirEntries, func(i, j int) bool { return dirEntries[i].Name() < dirEntries[j].Name() })

	for _, de := range dirEntries {
		if !de.IsDir() {
			continue
		}
		pluginDir := filepath.Join(m.dir, de.Name())
		handle, err := m.load(pluginDir)
		if err != nil {
			problems = append(problems, Error{Plugin: de.Name(), Err: err})
			continue
		}
		if err := handle.Initialize(); err != nil {
			handle.Shutdown()
			problems = append(problems, Error{Plugin: handle.Info.Name, Err: err})
			continue
		}
		m.plugins[handle.Info.Name] = handle
		m.order = append(m.order, handle.Info.Name)
	}
	return problems
}

// load parses a plugin directory and spawns its process.
func (m *Manager) load(pluginDir string) (*Handle, error) {
	manifestPath := filepath.Join(pluginDir, ManifestFile)
	configPath := filepath.Join(pluginDir, ConfigFile)

	manifest, err := LoadManifest(manifestPath)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(configPath); err != nil {
		return nil, fmt.Errorf("plugin config file: %w", err)
	}

	execPath := filepath.Join(pluginDir, manifest.ExecutableName())
	info, err := os.Stat(execPath)
	if err != nil {
		return nil, fmt.Errorf("plugin executable: %w", err)
	}
	if runtime.GOOS != "windows" && info.Mode().Perm()&0o111 == 0 {
		return nil, fmt.Errorf("plugin executable %s is not executable", execPath)
	}

	cmd := exec.Command(execPath)
	cmd.Dir = pluginDir
	cmd.Stderr = os.Stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("create stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		stdin.Close()
		return nil, fmt.Errorf("create stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		stdin.Close()
		return nil, fmt.Errorf("start plugin: %w", err)
	}

	h := &Handle{
		Info: Info{
			Name:        manifest.Plugin.Name,
			Version:     manifest.Plugin.Version,
			Description: manifest.Plugin.Description,
			Icon:        manifest.Plugin.Icon,
		},
		dir:        pluginDir,
		configPath: configPath,
		cmd:        cmd,
		stdin:      stdin,
		rpc:        newLineClient(stdin, stdout, m.timeout),
	}
	h.kill = func() error { return cmd.Process.Kill() }
	return h, nil
}

// Plugins returns the loaded plugin infos in load order.
func (m *Manager) Plugins() []Info {
	infos := make([]Info, 0, len(m.order))
	for _, name := range m.order {
		infos = append(infos, m.plugins[name].Info)
	}
	return infos
}

// GetAllTimeEntries aggregates entries from every loaded plugin. A
// failing plugin contributes one (name, error) pair and never drops
// entries already obtained from the others.
func (m *Manager) GetAllTimeEntries(start, end time.Time) ([]TimeEntry, []Error) {
	var all []TimeEntry
	var problems []Error
	for _, name := range m.order {
		entries, err := m.plugins[name].GetTimeEntries(start, end)
		if err != nil {
			problems = append(problems, Error{Plugin: name, Err: err})
			continue
		}
		all = append(all, entries...)
	}
	return all, problems
}

// Shutdown stops all plugins, collecting per-plugin failures. Processes
// are terminated regardless.
func (m *Manager) Shutdown() []Error {
	var problems []Error
	for _, name := range m.order {
		if err := m.plugins[name].Shutdown(); err != nil {
			problems = append(problems, Error{Plugin: name, Err: err})
		}
	}
	m.plugins = make(map[string]*Handle)
	m.order = nil
	return problems
}
