// Package store keeps a history of conversion runs.
package store

import (
	"errors"

	"github.com/yourorg/oas2postman/pkg/types"
)

// ErrNotFound is returned when a run id is unknown.
var ErrNotFound = errors.New("run not found")

type Store interface {
	// CreateRun assigns run.ID and run.CreatedAt and saves the run with
	// its rendered collection, which may be empty for failed runs.
	CreateRun(run *types.Run, collection []byte) error
	GetRun(id string) (*types.Run, error)
	// ListRuns returns the newest runs first. limit <= 0 means all.
	ListRuns(limit int) ([]types.Run, error)
	DeleteRun(id string) error
	GetCollection(id string) ([]byte, error)

	Close() error
}
