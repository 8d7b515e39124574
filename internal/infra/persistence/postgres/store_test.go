package postgres

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"

	"assurecore/internal/infra/persistence/bucket"
	"assurecore/pkg/domain"
)

// stubConn is a minimal database/sql driver backing the snapshot table with a
// map. It supports exactly the statements the store issues.
type stubConn struct {
	mu       sync.Mutex
	rows     map[string][]byte
	execs    []string
	failExec bool
}

func newStubDB() (*sql.DB, *stubConn) {
	conn := &stubConn{rows: map[string][]byte{}}
	return sql.OpenDB(stubConnector{conn: conn}), conn
}

type stubConnector struct{ conn *stubConn }

func (c stubConnector) Connect(context.Context) (driver.Conn, error) { return c.conn, nil }
func (c stubConnector) Driver() driver.Driver                        { return stubDriver{} }

type stubDriver struct{}

func (stubDriver) Open(string) (driver.Conn, error) { return nil, errors.New("use connector") }

func (*stubConn) Prepare(string) (driver.Stmt, error) { return nil, errors.New("prepare unsupported") }
func (*stubConn) Close() error                        { return nil }
func (*stubConn) Begin() (driver.Tx, error)           { return stubTx{}, nil }
func (*stubConn) BeginTx(context.Context, driver.TxOptions) (driver.Tx, error) {
	return stubTx{}, nil
}
func (*stubConn) Ping(context.Context) error { return nil }

func (c *stubConn) ExecContext(_ context.Context, query string, args []driver.NamedValue) (driver.Result, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failExec {
		return nil, errors.New("exec fail")
	}
	c.execs = append(c.execs, query)
	if strings.HasPrefix(query, "INSERT INTO state") {
		key, _ := args[0].Value.(string)
		payload, _ := args[1].Value.([]byte)
		c.rows[key] = append([]byte(nil), payload...)
	}
	return driver.RowsAffected(1), nil
}

func (c *stubConn) QueryContext(_ context.Context, query string, _ []driver.NamedValue) (driver.Rows, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !strings.HasPrefix(query, "SELECT bucket, payload") {
		return nil, fmt.Errorf("unexpected query %q", query)
	}
	rows := &stubRows{}
	for key, payload := range c.rows {
		rows.data = append(rows.data, [2]driver.Value{key, append([]byte(nil), payload...)})
	}
	return rows, nil
}

type stubTx struct{}

func (stubTx) Commit() error   { return nil }
func (stubTx) Rollback() error { return nil }

type stubRows struct {
	data [][2]driver.Value
	idx  int
}

func (*stubRows) Columns() []string { return []string{"bucket", "payload"} }
func (*stubRows) Close() error      { return nil }
func (r *stubRows) Next(dest []driver.Value) error {
	if r.idx >= len(r.data) {
		return io.EOF
	}
	dest[0] = r.data[r.idx][0]
	dest[1] = r.data[r.idx][1]
	r.idx++
	return nil
}

func TestNewStoreOpenError(t *testing.T) {
	restore := OverrideSQLOpen(func(_, _ string) (*sql.DB, error) {
		return nil, fmt.Errorf("open fail")
	})
	defer restore()
	if _, err := NewStore("", "", domain.NewRulesEngine(), nil); err == nil || !strings.Contains(err.Error(), "open fail") {
		t.Fatalf("expected open error, got %v", err)
	}
}

func TestRunInTransactionPersistsAllBuckets(t *testing.T) {
	db, conn := newStubDB()
	restore := OverrideSQLOpen(func(_, _ string) (*sql.DB, error) { return db, nil })
	defer restore()

	store, err := NewStore("ignored", "", domain.NewRulesEngine(), nil)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	if _, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		_, err := tx.CreateBusiness(domain.Business{BusinessName: "Persisted Posho Mill"})
		return err
	}); err != nil {
		t.Fatalf("RunInTransaction: %v", err)
	}

	conn.mu.Lock()
	defer conn.mu.Unlock()
	for _, suffix := range bucket.Suffixes {
		key := bucket.DefaultPrefix + "_" + suffix
		if _, ok := conn.rows[key]; !ok {
			t.Fatalf("missing persisted bucket %q, have %v", key, conn.rows)
		}
	}
	var businesses []domain.Business
	if err := json.Unmarshal(conn.rows[bucket.DefaultPrefix+"_businesses"], &businesses); err != nil {
		t.Fatalf("decode persisted businesses: %v", err)
	}
	if len(businesses) != 1 || businesses[0].BusinessName != "Persisted Posho Mill" {
		t.Fatalf("persisted payload mismatch: %+v", businesses)
	}
}

func TestNewStoreHydratesFromExistingSnapshot(t *testing.T) {
	db, conn := newStubDB()
	payload, err := json.Marshal([]domain.Business{{BusinessID: "b1", BusinessName: "Hydrated"}})
	if err != nil {
		t.Fatal(err)
	}
	conn.rows[bucket.DefaultPrefix+"_businesses"] = payload

	restore := OverrideSQLOpen(func(_, _ string) (*sql.DB, error) { return db, nil })
	defer restore()

	store, err := NewStore("ignored", "", domain.NewRulesEngine(), nil)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	biz, ok := store.GetBusiness("b1")
	if !ok || biz.BusinessName != "Hydrated" {
		t.Fatalf("expected hydrated business, got %+v ok=%v", biz, ok)
	}
}

func TestNewStoreDiscardsCorruptBucket(t *testing.T) {
	db, conn := newStubDB()
	conn.rows[bucket.DefaultPrefix+"_reports"] = []byte("{not json")
	good, err := json.Marshal([]domain.Investor{{InvestorID: "i1", FullName: "Intact Capital"}})
	if err != nil {
		t.Fatal(err)
	}
	conn.rows[bucket.DefaultPrefix+"_investors"] = good

	restore := OverrideSQLOpen(func(_, _ string) (*sql.DB, error) { return db, nil })
	defer restore()

	store, err := NewStore("ignored", "", domain.NewRulesEngine(), nil)
	if err != nil {
		t.Fatalf("corrupt payload must not fail open: %v", err)
	}
	if got := len(store.ListReports()); got != 0 {
		t.Fatalf("corrupt collection must degrade to empty, got %d reports", got)
	}
	if _, ok := store.GetInvestor("i1"); !ok {
		t.Fatal("intact collection lost alongside corrupt one")
	}
}

func TestRunInTransactionSurfacesPersistError(t *testing.T) {
	db, conn := newStubDB()
	restore := OverrideSQLOpen(func(_, _ string) (*sql.DB, error) { return db, nil })
	defer restore()

	store, err := NewStore("ignored", "", domain.NewRulesEngine(), nil)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	conn.mu.Lock()
	conn.failExec = true
	conn.mu.Unlock()
	if _, err := store.RunInTransaction(context.Background(), func(domain.Transaction) error { return nil }); err == nil {
		t.Fatal("expected persistence error when exec fails")
	}
}

func TestRunInTransactionStopsOnCallerError(t *testing.T) {
	db, conn := newStubDB()
	restore := OverrideSQLOpen(func(_, _ string) (*sql.DB, error) { return db, nil })
	defer restore()

	store, err := NewStore("ignored", "", domain.NewRulesEngine(), nil)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	callerErr := fmt.Errorf("caller fail")
	if _, err := store.RunInTransaction(context.Background(), func(domain.Transaction) error { return callerErr }); !errors.Is(err, callerErr) {
		t.Fatalf("expected caller error to propagate, got %v", err)
	}
	conn.mu.Lock()
	defer conn.mu.Unlock()
	if len(conn.rows) != 0 {
		t.Fatalf("expected no persistence when caller fn errors, got %v", conn.rows)
	}
}
