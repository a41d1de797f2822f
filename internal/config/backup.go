package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"
)

const (
	// MaxBackups bounds how many config backups are kept per config file.
	MaxBackups = 3

	// BackupSuffix marks backup files, followed by a timestamp.
	BackupSuffix = ".bak"
)

// BackupUserConfig snapshots the user config file next to itself with a
// timestamped name and prunes snapshots beyond MaxBackups. Returns the
// backup path, or empty string when there is no user config to back up.
func BackupUserConfig() (string, error) {
	if !UserConfigExists() {
		return "", nil
	}

	configPath := GetUserConfigPath()
	data, err := os.ReadFile(configPath)
	if err != nil {
		return "", fmt.Errorf("read config for backup: %w", err)
	}

	stamp := time.Now().Format("20060102-150405")
	backupPath := configPath + BackupSuffix + "." + stamp
	if err := os.WriteFile(backupPath, data, 0644); err != nil {
		return "", fmt.Errorf("write backup: %w", err)
	}

	// Pruning is best-effort; the backup itself already succeeded.
	if backups, err := ListUserConfigBackups(); err == nil {
		for i := MaxBackups; i < len(backups); i++ {
			_ = os.Remove(backups[i])
		}
	}

	return backupPath, nil
}

// ListUserConfigBackups returns the user config's backup files, newest
// first. A missing config directory means no backups, not an error.
func ListUserConfigBackups() ([]string, error) {
	pattern := GetUserConfigPath() + BackupSuffix + ".*"
	backups, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("list config backups: %w", err)
	}

	type stamped struct {
		path string
		mod  time.Time
	}
	infos := make([]stamped, 0, len(backups))
	for _, b := range backups {
		info, err := os.Stat(b)
		if err != nil {
			continue
		}
		infos = append(infos, stamped{path: b, mod: info.ModTime()})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].mod.After(infos[j].mod) })

	out := make([]string, 0, len(infos))
	for _, s := range infos {
		out = append(out, s.path)
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out, nil
}

// RestoreUserConfig replaces the user config with the contents of
// backupPath. The current config, if present, is backed up first so a bad
// restore is itself recoverable.
func RestoreUserConfig(backupPath string) error {
	data, err := os.ReadFile(backupPath)
	if err != nil {
		return fmt.Errorf("read backup: %w", err)
	}

	if UserConfigExists() {
		if _, err := BackupUserConfig(); err != nil {
			return fmt.Errorf("backup current config before restore: %w", err)
		}
	}

	if err := os.MkdirAll(GetUserConfigDir(), 0755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if err := os.WriteFile(GetUserConfigPath(), data, 0644); err != nil {
		return fmt.Errorf("write restored config: %w", err)
	}
	return nil
}
