// Package testutil provides test helpers for setting up in-memory stores,
// creating fixtures, and making assertions.
package testutil

import (
	"fmt"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/zielaskowski/tradeDB/internal/config"
	"github.com/zielaskowski/tradeDB/internal/database"
)

// dbSeq gives every in-memory store its own namespace, so parallel tests
// never see each other's tables.
var dbSeq atomic.Int64

// SetupTestDB opens a freshly provisioned in-memory store, schema created
// and reference tables seeded.
func SetupTestDB(t *testing.T) *database.Manager {
	t.Helper()

	cfg := &config.Config{
		Env:          "test",
		DBPath:       fmt.Sprintf("file:testdb%d?mode=memory&cache=shared", dbSeq.Add(1)),
		ClauseBudget: database.DefaultClauseBudget,
		GraceDays:    30,
	}
	mgr, err := database.Open(cfg)
	if err != nil {
		t.Fatalf("failed to open test store: %v", err)
	}
	return mgr
}

// TeardownTestDB closes the store; an in-memory store vanishes with it.
func TeardownTestDB(t *testing.T, mgr *database.Manager) {
	t.Helper()

	if err := mgr.Close(); err != nil {
		t.Errorf("failed to close test store: %v", err)
	}
}

// TestConfig returns a configuration backed by a store file in a per-test
// temp directory. Use it for flows that open and close the store repeatedly;
// the file survives between calls, the in-memory store would not.
func TestConfig(t *testing.T) *config.Config {
	t.Helper()

	return &config.Config{
		Env:          "test",
		DBPath:       filepath.Join(t.TempDir(), "trader.sqlite"),
		ClauseBudget: database.DefaultClauseBudget,
		GraceDays:    30,
	}
}
