package backend

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"testing"

	"tasknest/internal/amqp"
	"tasknest/internal/config"
	"tasknest/internal/log"
	"tasknest/internal/storage"
	"tasknest/internal/storage/memory"
)

func quietFactory() *DefaultFactory {
	return NewFactory(log.New(log.Config{Output: io.Discard}))
}

func TestFromAppConfig(t *testing.T) {
	cfg, err := FromAppConfig(&config.Config{DataBackend: "sqlite", SQLiteDBPath: "x.db", AMQPURL: "amqp://h", AMQPExchange: "e", AMQPQueue: "q"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Type != SQLiteBackend || cfg.SQLiteDBPath != "x.db" || cfg.AMQPQueue != "q" {
		t.Fatalf("unexpected config %+v", cfg)
	}

	if _, err := FromAppConfig(nil); err == nil {
		t.Fatal("expected error for nil config")
	}
	if _, err := FromAppConfig(&config.Config{DataBackend: "sheets"}); err == nil {
		t.Fatal("expected error for unknown backend")
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{"memory", Config{Type: MemoryBackend}, false},
		{"sqlite", Config{Type: SQLiteBackend, SQLiteDBPath: "a.db"}, false},
		{"sqlite without path", Config{Type: SQLiteBackend}, true},
		{"unknown type", Config{Type: "postgres"}, true},
		{"amqp without queue", Config{Type: MemoryBackend, AMQPURL: "amqp://h", AMQPExchange: "e"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.config.Validate(); (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestOpen_Memory(t *testing.T) {
	res, err := quietFactory().Open(context.Background(), Config{Type: MemoryBackend})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := res.Store.(*memory.Store); !ok {
		t.Fatalf("expected memory store, got %T", res.Store)
	}
	if res.Publisher != nil {
		t.Fatal("expected no publisher without AMQP")
	}
	if err := res.Cleanup(); err != nil {
		t.Fatalf("cleanup: %v", err)
	}
}

func TestOpen_SQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "tasknest.db")
	res, err := quietFactory().Open(context.Background(), Config{Type: SQLiteBackend, SQLiteDBPath: path})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := res.Store.(*storage.SQLiteRepository); !ok {
		t.Fatalf("expected sqlite repository, got %T", res.Store)
	}
	if err := res.Store.Ping(context.Background()); err != nil {
		t.Fatalf("ping: %v", err)
	}
	if err := res.Cleanup(); err != nil {
		t.Fatalf("cleanup: %v", err)
	}
}

func TestOpen_BrokerUnavailable(t *testing.T) {
	f := quietFactory()
	var dialed string
	f.dial = func(url, exchange, queue string) (*amqp.Client, error) {
		dialed = url
		return nil, errors.New("connection refused")
	}

	res, err := f.Open(context.Background(), Config{Type: MemoryBackend, AMQPURL: "amqp://localhost:5672/", AMQPExchange: "tasknest", AMQPQueue: "budget_events"})
	if err != nil {
		t.Fatalf("broker failure must not fail the backend: %v", err)
	}
	if dialed != "amqp://localhost:5672/" {
		t.Fatalf("expected dial, got %q", dialed)
	}
	if res.Publisher != nil {
		t.Fatalf("expected nil publisher, got %T", res.Publisher)
	}
}

func TestOpen_Invalid(t *testing.T) {
	if _, err := quietFactory().Open(context.Background(), Config{Type: "sheets"}); err == nil {
		t.Fatal("expected error for unsupported backend")
	}
}
