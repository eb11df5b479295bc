// Package backend opens the storage and event publishing backends selected
// by configuration.
package backend

import (
	"context"

	"tasknest/internal/services"
	"tasknest/internal/storage"
)

// CleanupFunc releases resources held by a backend.
type CleanupFunc func() error

// Result carries the opened store and, when AMQP is configured and
// reachable, the event publisher. Publisher is nil otherwise.
type Result struct {
	Store     storage.Store
	Publisher services.EventPublisher
	Cleanup   CleanupFunc
}

// Factory opens a backend from its configuration.
type Factory interface {
	Open(ctx context.Context, config Config) (*Result, error)
}

type Config struct {
	Type BackendType

	SQLiteDBPath string

	// AMQP is optional for every backend type.
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string
}

type BackendType string

const (
	SQLiteBackend BackendType = "sqlite"
	MemoryBackend BackendType = "memory"
)

func (bt BackendType) String() string {
	return string(bt)
}

func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
