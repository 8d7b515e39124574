// Package core exposes the transactional application service for the investor
// assurance platform: creation flows with their workflow defaults, the report
// review path, evidence uploads, and instrumentation around every mutation.
package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"assurecore/internal/blob"
	"assurecore/internal/infra/persistence/memory"
	"assurecore/pkg/domain"
)

type (
	// Transaction aliases domain.Transaction.
	Transaction = domain.Transaction
	// TransactionView aliases domain.TransactionView.
	TransactionView = domain.TransactionView
	// PersistentStore aliases domain.PersistentStore.
	PersistentStore = domain.PersistentStore
	// RulesEngine aliases domain.RulesEngine.
	RulesEngine = domain.RulesEngine
	// Result aliases domain.Result.
	Result = domain.Result
	// DocumentStore aliases the evidence document storage interface.
	DocumentStore = blob.Store
)

// ErrThreadClosed rejects messages posted to a closed thread.
var ErrThreadClosed = errors.New("thread is closed")

// Service wraps a persistent store with workflow-level operations and
// instrumentation. Read queries go through Store(); every mutation passes
// through here so it is traced, measured, audited and logged uniformly.
type Service struct {
	store     PersistentStore
	documents DocumentStore
	logger    Logger
	metrics   MetricsRecorder
	tracer    Tracer
	audit     AuditRecorder
	latency   time.Duration
}

// NewService constructs a service backed by the supplied store.
func NewService(store PersistentStore, opts ...Option) *Service {
	s := &Service{
		store:   store,
		logger:  noopLogger{},
		metrics: noopMetrics{},
		tracer:  noopTracer{},
		audit:   noopAudit{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewInMemoryService creates a service over a fresh in-memory store.
func NewInMemoryService(engine *RulesEngine, opts ...Option) *Service {
	return NewService(memory.NewStore(engine), opts...)
}

// Store returns the underlying storage implementation for read queries.
func (s *Service) Store() PersistentStore { return s.store }

// runWrite executes one mutating operation inside a transaction, wrapped in a
// trace span, a metrics observation, an audit entry and a log line.
func (s *Service) runWrite(ctx context.Context, operation string, entity domain.EntityType, fn func(Transaction) error, entityID func() string) (Result, error) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, operation)
	if s.latency > 0 {
		time.Sleep(s.latency)
	}
	res, err := s.store.RunInTransaction(ctx, fn)
	duration := time.Since(start)
	span.End(err)
	s.metrics.Observe(ctx, operation, err == nil, duration)

	entry := AuditEntry{
		Operation:  operation,
		Entity:     string(entity),
		Status:     AuditStatusSuccess,
		Violations: len(res.Violations),
		OccurredAt: time.Now().UTC(),
	}
	if entityID != nil {
		entry.EntityID = entityID()
	}
	if err != nil {
		entry.Status = AuditStatusError
		entry.Error = err.Error()
	}
	s.audit.Record(ctx, entry)

	if err != nil {
		s.logger.Errorw("operation failed",
			"operation", operation,
			"entity", string(entity),
			"error", err)
	} else {
		s.logger.Debugw("operation complete",
			"operation", operation,
			"entity", string(entity),
			"entity_id", entry.EntityID,
			"duration_ms", float64(duration)/float64(time.Millisecond),
			"violations", entry.Violations)
	}
	return res, err
}

// CreateBusiness registers a new business.
func (s *Service) CreateBusiness(ctx context.Context, b domain.Business) (domain.Business, Result, error) {
	var created domain.Business
	res, err := s.runWrite(ctx, "create_business", domain.EntityBusiness, func(tx Transaction) error {
		var err error
		created, err = tx.CreateBusiness(b)
		return err
	}, func() string { return created.BusinessID })
	return created, res, err
}

// CreateInvestor registers a new investor profile.
func (s *Service) CreateInvestor(ctx context.Context, i domain.Investor) (domain.Investor, Result, error) {
	var created domain.Investor
	res, err := s.runWrite(ctx, "create_investor", domain.EntityInvestor, func(tx Transaction) error {
		var err error
		created, err = tx.CreateInvestor(i)
		return err
	}, func() string { return created.InvestorID })
	return created, res, err
}

// CreateLink establishes an investor-business relationship.
func (s *Service) CreateLink(ctx context.Context, l domain.InvestorBusinessLink) (domain.InvestorBusinessLink, Result, error) {
	var created domain.InvestorBusinessLink
	res, err := s.runWrite(ctx, "create_link", domain.EntityLink, func(tx Transaction) error {
		var err error
		created, err = tx.CreateLink(l)
		return err
	}, func() string { return created.LinkID })
	return created, res, err
}

// CreateReport files a new report, which always enters the workflow in draft.
func (s *Service) CreateReport(ctx context.Context, r domain.Report) (domain.Report, Result, error) {
	var created domain.Report
	res, err := s.runWrite(ctx, "create_report", domain.EntityReport, func(tx Transaction) error {
		var err error
		created, err = tx.CreateReport(r)
		return err
	}, func() string { return created.ReportID })
	return created, res, err
}

// UpdateReportStatus moves a report through the review workflow. An empty
// comment leaves any previously recorded comment in place.
func (s *Service) UpdateReportStatus(ctx context.Context, id string, status domain.ReportStatus, adminComments string) (domain.Report, Result, error) {
	var updated domain.Report
	res, err := s.runWrite(ctx, "update_report_status", domain.EntityReport, func(tx Transaction) error {
		var err error
		updated, err = tx.UpdateReportStatus(id, status, adminComments)
		return err
	}, func() string { return id })
	return updated, res, err
}

// CreateAudit files an immutable audit finding against a business.
func (s *Service) CreateAudit(ctx context.Context, a domain.AuditRecord) (domain.AuditRecord, Result, error) {
	var created domain.AuditRecord
	res, err := s.runWrite(ctx, "create_audit", domain.EntityAudit, func(tx Transaction) error {
		var err error
		created, err = tx.CreateAudit(a)
		return err
	}, func() string { return created.AuditID })
	return created, res, err
}

// CreateThread opens a new message thread.
func (s *Service) CreateThread(ctx context.Context, t domain.MessageThread) (domain.MessageThread, Result, error) {
	var created domain.MessageThread
	res, err := s.runWrite(ctx, "create_thread", domain.EntityThread, func(tx Transaction) error {
		var err error
		created, err = tx.CreateThread(t)
		return err
	}, func() string { return created.ThreadID })
	return created, res, err
}

// PostMessage appends a message to an open thread. Posting to a closed thread
// fails with ErrThreadClosed; a missing thread surfaces as not found.
func (s *Service) PostMessage(ctx context.Context, m domain.Message) (domain.Message, Result, error) {
	var created domain.Message
	res, err := s.runWrite(ctx, "post_message", domain.EntityMessage, func(tx Transaction) error {
		thread, ok := tx.Snapshot().FindThread(m.ThreadID)
		if !ok {
			return domain.NotFoundError{Entity: domain.EntityThread, ID: m.ThreadID}
		}
		if thread.Status == domain.ThreadStatusClosed {
			return fmt.Errorf("thread %s: %w", m.ThreadID, ErrThreadClosed)
		}
		var err error
		created, err = tx.CreateMessage(m)
		return err
	}, func() string { return created.MessageID })
	return created, res, err
}

// UploadEvidence records an evidence row, always entering review as pending.
// When a document store is configured and content is supplied, the document
// bytes are stored first and the row's file URL points at the stored object.
func (s *Service) UploadEvidence(ctx context.Context, e domain.Evidence, content io.Reader) (domain.Evidence, Result, error) {
	if content != nil && s.documents != nil {
		key := fmt.Sprintf("evidence/%s/%s", e.BusinessID, e.FileName)
		info, err := s.documents.Put(ctx, key, content, blob.PutOptions{
			ContentType: e.FileType,
			Metadata:    map[string]string{"business_id": e.BusinessID},
		})
		if err != nil {
			return domain.Evidence{}, Result{}, fmt.Errorf("store document: %w", err)
		}
		if info.URL != "" {
			e.FileURL = info.URL
		}
	}
	var created domain.Evidence
	res, err := s.runWrite(ctx, "upload_evidence", domain.EntityEvidence, func(tx Transaction) error {
		var err error
		created, err = tx.CreateEvidence(e)
		return err
	}, func() string { return created.EvidenceID })
	return created, res, err
}

// EvidenceDocumentURL returns a time-limited download URL for a stored
// evidence document, or the recorded file URL when no document store is
// configured.
func (s *Service) EvidenceDocumentURL(ctx context.Context, e domain.Evidence) (string, error) {
	if s.documents == nil {
		return e.FileURL, nil
	}
	key := fmt.Sprintf("evidence/%s/%s", e.BusinessID, e.FileName)
	url, err := s.documents.PresignURL(ctx, key, blob.SignedURLOptions{})
	if errors.Is(err, blob.ErrUnsupported) {
		return e.FileURL, nil
	}
	return url, err
}
