package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sadopc/tempo/internal/api"
	"github.com/sadopc/tempo/internal/config"
	"github.com/sadopc/tempo/internal/logbuf"
	"github.com/sadopc/tempo/internal/plugin"
	"github.com/sadopc/tempo/internal/store"
	"github.com/sadopc/tempo/internal/tui"
)

func main() {
	cfgPath, err := config.DefaultPath()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error loading config: %v\n", err)
		os.Exit(1)
	}
	if cfg.APIToken == "" {
		fmt.Fprintf(os.Stderr, "no API token configured; set api_token in %s\n", cfgPath)
		os.Exit(1)
	}

	log := logbuf.New(logbuf.DefaultCap, cfg.Debug)
	client := api.NewClient(cfg.APIBaseURL, cfg.APIToken)

	dbPath, err := store.DefaultDBPath()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	cache, err := store.New(dbPath)
	if err != nil {
		// Run without the offline cache rather than refusing to start.
		log.Append(logbuf.Warning, "opening cache: %v", err)
		cache = nil
	}
	if cache != nil {
		defer cache.Close()
	}

	plugins := plugin.NewManager(cfg.PluginsDir, plugin.DefaultCallTimeout)
	for _, perr := range plugins.Discover() {
		log.Append(logbuf.Warning, "plugin %s: %v", perr.Plugin, perr.Err)
	}
	for _, info := range plugins.Plugins() {
		log.Append(logbuf.Notice, "plugin %s %s ready", info.Name, info.Version)
	}
	defer func() {
		for _, perr := range plugins.Shutdown() {
			fmt.Fprintf(os.Stderr, "plugin %s: shutdown: %v\n", perr.Plugin, perr.Err)
		}
	}()

	app := tui.New(client, plugins, cache, cfg, cfgPath, log)
	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithMouseCellMotion())

	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
