package configutil

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"dario.cat/mergo"
	"github.com/titanous/json5"
)

// ReadConfig loads `name` and, when a `<stem>.local.<ext>` sibling exists,
// merges it on top. Non-zero values from the local file win, so a checked-in
// config can ship defaults while deployments override just the fields they
// care about. Returns os.ErrNotExist when neither file holds anything.
func ReadConfig[T any](name string) (T, error) {
	var cfg T

	found, err := loadInto(name, &cfg)
	if err != nil {
		return cfg, err
	}

	localName := localVariant(name)
	var local T
	localFound, err := loadInto(localName, &local)
	if err != nil {
		return cfg, err
	}
	if localFound {
		err = mergo.Merge(&cfg, local, mergo.WithOverride)
		if err != nil {
			return cfg, err
		}
		slog.Info("applied local config overrides", "path", localName)
	}

	if !found && !localFound {
		return cfg, os.ErrNotExist
	}
	return cfg, nil
}

// ReadRecursively walks from the working directory up to the filesystem
// root looking for a directory where ReadConfig succeeds.
func ReadRecursively[T any](name string) (T, error) {
	var none T

	current, err := os.Getwd()
	if err != nil {
		return none, err
	}

	for {
		cfg, err := ReadConfig[T](filepath.Join(current, name))
		if err == nil {
			return cfg, nil
		}
		if !os.IsNotExist(err) {
			return none, err
		}

		parent := filepath.Dir(current)
		if parent == current {
			return none, os.ErrNotExist
		}
		current = parent
	}
}

// localVariant turns "config.json5" into "config.local.json5".
func localVariant(name string) string {
	ext := filepath.Ext(name)
	return strings.TrimSuffix(name, ext) + ".local" + ext
}

// loadInto reports whether the file existed with content. Empty files are
// treated the same as missing ones.
func loadInto[T any](path string, out *T) (bool, error) {
	contents, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if len(contents) == 0 {
		return false, nil
	}

	err = json5.Unmarshal(contents, out)
	if err != nil {
		return false, fmt.Errorf("parse %s: %w", path, err)
	}
	return true, nil
}
