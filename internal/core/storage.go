package core

import (
	"fmt"
	"os"
	"strings"

	"assurecore/internal/infra/persistence/memory"
	"assurecore/internal/infra/persistence/postgres"
	"assurecore/internal/infra/persistence/sqlite"
	"assurecore/pkg/domain"

	"go.uber.org/zap"
)

// StorageDriver identifies a concrete persistent storage implementation.
type StorageDriver string

// Supported storage drivers.
const (
	StorageMemory   StorageDriver = "memory"   // in-memory only (tests / ephemeral)
	StorageSQLite   StorageDriver = "sqlite"   // embedded sqlite file
	StoragePostgres StorageDriver = "postgres" // PostgreSQL server
)

// NewEngine builds the rules engine from the environment. Reference checks
// warn by default; ASSURECORE_STRICT_REFERENCES=true escalates them to
// blocking, rejecting writes against missing foreign keys.
func NewEngine() *RulesEngine {
	engine := domain.NewRulesEngine()
	strict := strings.EqualFold(os.Getenv("ASSURECORE_STRICT_REFERENCES"), "true")
	engine.Register(domain.NewReferenceIntegrityRule(strict))
	return engine
}

// OpenPersistentStore selects a backend using environment variables.
// Defaults to sqlite when unset.
//
//	ASSURECORE_STORAGE_DRIVER: memory|sqlite|postgres (default sqlite)
//	ASSURECORE_SQLITE_PATH:    path to sqlite file (default ./assurecore.db)
//	ASSURECORE_POSTGRES_DSN:   postgres DSN when driver=postgres
//	ASSURECORE_BUCKET_PREFIX:  bucket key prefix (default investor_platform)
func OpenPersistentStore(engine *RulesEngine, logger *zap.Logger) (PersistentStore, error) {
	driver := os.Getenv("ASSURECORE_STORAGE_DRIVER")
	if driver == "" {
		driver = string(StorageSQLite)
	}
	prefix := os.Getenv("ASSURECORE_BUCKET_PREFIX")
	switch StorageDriver(driver) {
	case StorageMemory:
		return memory.NewStore(engine), nil
	case StorageSQLite:
		return sqlite.NewStore(os.Getenv("ASSURECORE_SQLITE_PATH"), prefix, engine, logger)
	case StoragePostgres:
		return postgres.NewStore(os.Getenv("ASSURECORE_POSTGRES_DSN"), prefix, engine, logger)
	default:
		return nil, fmt.Errorf("unknown storage driver %s", driver)
	}
}
