package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/staticfs/staticd/fileserver"
)

// fileConfig mirrors fileserver.Config for TOML decoding plus the ambient
// knobs (listener addresses, log level) that live outside the engine's
// scope. Flags always win over values loaded from a --config file.
type fileConfig struct {
	ListenAddr  string `toml:"listen_addr"`
	MetricsAddr string `toml:"metrics_addr"`
	Root        string `toml:"root"`
	MountPrefix string `toml:"mount_prefix"`
	FollowLinks bool   `toml:"follow_links"`
	ShowIndex   bool   `toml:"show_index"`
	HideEntry   bool   `toml:"hide_entry"`
	CacheSecs   uint32 `toml:"cache_secs"`
	ChunkSize   int    `toml:"chunk_size"`
	Workers     int    `toml:"workers"`
	LogLevel    string `toml:"log_level"`
}

// loadFileConfig reads a TOML config file. A missing path is not an error —
// it simply yields a zero-valued fileConfig so flags provide every value.
func loadFileConfig(path string) (fileConfig, error) {
	var fc fileConfig
	if path == "" {
		return fc, nil
	}
	if _, err := toml.DecodeFile(path, &fc); err != nil {
		return fc, fmt.Errorf("reading config %s: %w", path, err)
	}
	return fc, nil
}

// resolveRoot makes root absolute and verifies it exists and is a
// directory, the way a file-serving engine's startup must before it ever
// accepts a request.
func resolveRoot(root string) (string, error) {
	if root == "" {
		return "", fmt.Errorf("root directory must be set")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("resolving root %s: %w", root, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("root %s: %w", abs, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("root %s is not a directory", abs)
	}
	return abs, nil
}

func (fc fileConfig) engineConfig(root string) fileserver.Config {
	return fileserver.Config{
		Root:              root,
		MountPrefix:       fc.MountPrefix,
		FollowLinks:       fc.FollowLinks,
		ShowIndex:         fc.ShowIndex,
		HideEntry:         fc.HideEntry,
		CacheSecs:         fc.CacheSecs,
		ChunkSize:         fc.ChunkSize,
		WorkerConcurrency: fc.Workers,
	}
}
