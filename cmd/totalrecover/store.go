package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/yndrdev/totalrecover/internal/constants"
	"github.com/yndrdev/totalrecover/internal/keyring"
	"github.com/yndrdev/totalrecover/internal/storage"
	"github.com/yndrdev/totalrecover/internal/storage/postgres"
	"github.com/yndrdev/totalrecover/internal/storage/sqlite"
)

var userHomeDir = os.UserHomeDir

// expandHome replaces a leading ~ with the user's home directory.
func expandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := userHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}

// openStore picks the storage backend for config. A connection string
// selects PostgreSQL; with the default config, a connection string from the
// environment or keyring takes precedence over the local SQLite file. The
// returned directory holds logs.
func openStore(config string, isDefault bool) (storage.Provider, string, error) {
	defaultDir, err := expandHome(filepath.Dir(constants.DefaultConfigPath))
	if err != nil {
		return nil, "", err
	}

	if postgres.IsConnString(config) {
		if _, err := postgres.ValidateConnString(config); err != nil {
			if errors.Is(err, postgres.ErrEmbeddedCredentials) {
				return nil, "", fmt.Errorf("%w: pass credentials through %s, .pgpass or '%s keyring set' instead",
					err, constants.EnvDBConnection, constants.AppName)
			}
			return nil, "", err
		}
		return postgres.New(config), defaultDir, nil
	}

	if isDefault {
		// Missing or unavailable keyring credentials fall through to SQLite.
		if connStr, _, err := keyring.ResolveConnectionString(); err == nil {
			if _, err := postgres.ValidateConnString(connStr); err != nil && !errors.Is(err, postgres.ErrEmbeddedCredentials) {
				return nil, "", err
			}
			return postgres.New(connStr), defaultDir, nil
		}
	}

	path, err := expandHome(config)
	if err != nil {
		return nil, "", err
	}
	return sqlite.NewStore(path), filepath.Dir(path), nil
}

func redactConfig(config string) string {
	if postgres.IsConnString(config) {
		return keyring.Redact(config)
	}
	return config
}
