package core

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"assurecore/internal/infra/persistence/memory"
	"assurecore/internal/infra/persistence/sqlite"
	"assurecore/pkg/domain"

	"go.uber.org/zap"
)

func TestOpenPersistentStoreMemory(t *testing.T) {
	t.Setenv("ASSURECORE_STORAGE_DRIVER", "memory")
	store, err := OpenPersistentStore(NewEngine(), zap.NewNop())
	if err != nil {
		t.Fatalf("OpenPersistentStore: %v", err)
	}
	if _, ok := store.(*memory.Store); !ok {
		t.Fatalf("expected memory store, got %T", store)
	}
}

func TestOpenPersistentStoreSQLiteDefault(t *testing.T) {
	t.Setenv("ASSURECORE_STORAGE_DRIVER", "")
	t.Setenv("ASSURECORE_SQLITE_PATH", filepath.Join(t.TempDir(), "state.db"))
	store, err := OpenPersistentStore(NewEngine(), zap.NewNop())
	if err != nil {
		t.Fatalf("OpenPersistentStore: %v", err)
	}
	sq, ok := store.(*sqlite.Store)
	if !ok {
		t.Fatalf("expected sqlite store by default, got %T", store)
	}
	defer sq.Close()
}

func TestOpenPersistentStoreUnknownDriver(t *testing.T) {
	t.Setenv("ASSURECORE_STORAGE_DRIVER", "oracle")
	if _, err := OpenPersistentStore(NewEngine(), zap.NewNop()); err == nil {
		t.Fatal("expected unknown driver error")
	}
}

func TestNewEngineStrictMode(t *testing.T) {
	t.Setenv("ASSURECORE_STRICT_REFERENCES", "true")
	store := memory.NewStore(NewEngine())
	svc := NewService(store)

	_, _, err := svc.CreateLink(context.Background(), domain.InvestorBusinessLink{
		InvestorID:       "ghost-investor",
		BusinessID:       "ghost-business",
		RelationshipType: domain.RelationshipObserver,
		StartDate:        "2025-06-01",
		Status:           domain.LinkStatusActive,
	})
	var violation domain.RuleViolationError
	if !errors.As(err, &violation) {
		t.Fatalf("expected rule violation, got %v", err)
	}
	if len(violation.Result.Violations) != 2 {
		t.Fatalf("expected 2 blocking violations, got %+v", violation.Result.Violations)
	}

	t.Setenv("ASSURECORE_STRICT_REFERENCES", "false")
	lenient := NewService(memory.NewStore(NewEngine()))
	_, res, err := lenient.CreateLink(context.Background(), domain.InvestorBusinessLink{
		InvestorID:       "ghost-investor",
		BusinessID:       "ghost-business",
		RelationshipType: domain.RelationshipObserver,
		StartDate:        "2025-06-01",
		Status:           domain.LinkStatusActive,
	})
	if err != nil {
		t.Fatalf("lenient mode should commit, got %v", err)
	}
	if len(res.Violations) != 2 {
		t.Fatalf("expected 2 warn violations, got %+v", res.Violations)
	}
}
