package main

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"kvfiles/internal/config"
	"kvfiles/internal/keystore"
)

func TestBuildKeyStore_MemoryWithSeed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.json")
	seed := `[{"name":"a.png","metadata":{"fileName":"a.png","TimeStamp":1}},{"name":"b.mp4","metadata":{"fileName":"b.mp4","TimeStamp":2}}]`
	if err := os.WriteFile(path, []byte(seed), 0o600); err != nil {
		t.Fatal(err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store, closeFn, err := buildKeyStore(context.Background(), &config.Config{KVDriver: config.DriverMemory, KVSeedFile: path}, logger)
	if err != nil {
		t.Fatalf("buildKeyStore: %v", err)
	}
	defer closeFn()

	page, err := store.List(context.Background(), keystore.ListOptions{Limit: 10})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(page.Keys) != 2 || !page.ListComplete {
		t.Fatalf("unexpected page: %+v", page)
	}
}

func TestBuildKeyStore_Errors(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	if _, _, err := buildKeyStore(context.Background(), &config.Config{KVDriver: "redis"}, logger); err == nil {
		t.Fatal("expected error for unknown driver")
	}

	missing := filepath.Join(t.TempDir(), "missing.json")
	if _, _, err := buildKeyStore(context.Background(), &config.Config{KVDriver: config.DriverMemory, KVSeedFile: missing}, logger); err == nil {
		t.Fatal("expected error for missing seed file")
	}
}
