package domain

import (
	"fmt"
	"io/fs"
	"time"
)

// Snapshot describes one exported JSON document.
type Snapshot struct {
	Key       string    `json:"key"`
	URL       string    `json:"url"`
	Size      int64     `json:"size"`
	CreatedAt time.Time `json:"createdAt"`
}

// Both errors match their io/fs counterparts with errors.Is.
var (
	ErrSnapshotNotFound = fmt.Errorf("snapshot not found: %w", fs.ErrNotExist)
	ErrInvalidKey       = fmt.Errorf("invalid snapshot key: %w", fs.ErrInvalid)
)
