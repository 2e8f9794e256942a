package storage

import (
	"github.com/IshaanNene/iconfetch/internal/types"
)

// Storage is the interface for icon output backends.
type Storage interface {
	// Save persists the icon fetched for targetURL and returns where it went.
	Save(icon *types.Icon, targetURL string) (string, error)

	// Name returns the storage backend identifier.
	Name() string
}
