package config

import "path/filepath"

const (
	StoreDriverSQLite = "sqlite"
	StoreDriverFile   = "file"
)

type Store struct{}

var _ StoreConfig = Store{}

func (Store) GetStoreDriver() string {
	switch driver := GetEnv("STORE_DRIVER", StoreDriverSQLite); driver {
	case StoreDriverFile:
		return driver
	default:
		return StoreDriverSQLite
	}
}

// GetStorePath returns STORE_PATH, or a driver-specific file inside the data folder.
func (s Store) GetStorePath() string {
	if path := GetEnv("STORE_PATH", ""); path != "" {
		return path
	}
	if s.GetStoreDriver() == StoreDriverFile {
		return filepath.Join(EnvVars{}.GetDataFolder(), "session.json")
	}
	return filepath.Join(EnvVars{}.GetDataFolder(), "session.db")
}
