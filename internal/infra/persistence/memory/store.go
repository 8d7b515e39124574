// Package memory provides the authoritative in-memory implementation of the
// core persistence store. Durable backends embed it and snapshot its state
// after every successful transaction.
package memory

import (
	"context"
	"sync"
	"time"

	"assurecore/pkg/domain"

	"github.com/google/uuid"
)

// Compile-time contract assertion ensuring memory.Store adheres to the domain persistence interface.
var _ domain.PersistentStore = (*Store)(nil)

type (
	// Business aliases domain.Business for in-memory persistence operations.
	Business = domain.Business
	// Investor aliases domain.Investor.
	Investor = domain.Investor
	// InvestorBusinessLink aliases domain.InvestorBusinessLink.
	InvestorBusinessLink = domain.InvestorBusinessLink
	// Report aliases domain.Report.
	Report = domain.Report
	// AuditRecord aliases domain.AuditRecord.
	AuditRecord = domain.AuditRecord
	// MessageThread aliases domain.MessageThread.
	MessageThread = domain.MessageThread
	// Message aliases domain.Message.
	Message = domain.Message
	// Evidence aliases domain.Evidence.
	Evidence = domain.Evidence
	// Change aliases domain.Change captured in transactions.
	Change = domain.Change
	// Result aliases domain.Result summarizing rule evaluation.
	Result = domain.Result
	// RulesEngine aliases domain.RulesEngine used to evaluate reference rules.
	RulesEngine = domain.RulesEngine
	// Transaction aliases domain.Transaction representing a mutable unit of work.
	Transaction = domain.Transaction
	// TransactionView aliases domain.TransactionView providing read-only state.
	TransactionView = domain.TransactionView
	// PersistentStore aliases domain.PersistentStore abstraction.
	PersistentStore = domain.PersistentStore
)

// memoryState holds one slice per collection. Slices keep insertion order,
// which is the persisted order of the per-collection JSON arrays.
type memoryState struct {
	businesses []Business
	investors  []Investor
	links      []InvestorBusinessLink
	reports    []Report
	audits     []AuditRecord
	threads    []MessageThread
	messages   []Message
	evidence   []Evidence
}

// Snapshot captures a point-in-time clone of the store state. Field order and
// JSON names mirror the persisted bucket layout.
type Snapshot struct {
	Businesses []Business             `json:"businesses"`
	Investors  []Investor             `json:"investors"`
	Links      []InvestorBusinessLink `json:"links"`
	Reports    []Report               `json:"reports"`
	Audits     []AuditRecord          `json:"audits"`
	Threads    []MessageThread        `json:"threads"`
	Messages   []Message              `json:"messages"`
	Evidence   []Evidence             `json:"evidence"`
}

func cloneStringPtr(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneFloatPtr(p *float64) *float64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneTimePtr(p *time.Time) *time.Time {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneBusiness(b Business) Business {
	cp := b
	cp.Notes = cloneStringPtr(b.Notes)
	return cp
}

func cloneInvestor(i Investor) Investor {
	cp := i
	cp.ContactPhone = cloneStringPtr(i.ContactPhone)
	cp.Notes = cloneStringPtr(i.Notes)
	return cp
}

func cloneLink(l InvestorBusinessLink) InvestorBusinessLink { return l }

func cloneReport(r Report) Report {
	cp := r
	cp.RevenueAmount = cloneFloatPtr(r.RevenueAmount)
	cp.ExpenseAmount = cloneFloatPtr(r.ExpenseAmount)
	cp.NetResult = cloneFloatPtr(r.NetResult)
	cp.OperationalNotes = cloneStringPtr(r.OperationalNotes)
	cp.SubmittedDate = cloneStringPtr(r.SubmittedDate)
	cp.AdminComments = cloneStringPtr(r.AdminComments)
	return cp
}

func cloneAudit(a AuditRecord) AuditRecord {
	cp := a
	cp.ReportID = cloneStringPtr(a.ReportID)
	cp.Recommendations = cloneStringPtr(a.Recommendations)
	return cp
}

func cloneThread(t MessageThread) MessageThread {
	cp := t
	cp.RelatedID = cloneStringPtr(t.RelatedID)
	return cp
}

func cloneMessage(m Message) Message { return m }

func cloneEvidence(e Evidence) Evidence {
	cp := e
	cp.ReportID = cloneStringPtr(e.ReportID)
	cp.VerifiedBy = cloneStringPtr(e.VerifiedBy)
	cp.VerifiedDate = cloneTimePtr(e.VerifiedDate)
	return cp
}

func cloneSlice[T any](in []T, clone func(T) T) []T {
	out := make([]T, 0, len(in))
	for _, v := range in {
		out = append(out, clone(v))
	}
	return out
}

func (s memoryState) clone() memoryState {
	return memoryState{
		businesses: cloneSlice(s.businesses, cloneBusiness),
		investors:  cloneSlice(s.investors, cloneInvestor),
		links:      cloneSlice(s.links, cloneLink),
		reports:    cloneSlice(s.reports, cloneReport),
		audits:     cloneSlice(s.audits, cloneAudit),
		threads:    cloneSlice(s.threads, cloneThread),
		messages:   cloneSlice(s.messages, cloneMessage),
		evidence:   cloneSlice(s.evidence, cloneEvidence),
	}
}

func snapshotFromState(state memoryState) Snapshot {
	return Snapshot{
		Businesses: cloneSlice(state.businesses, cloneBusiness),
		Investors:  cloneSlice(state.investors, cloneInvestor),
		Links:      cloneSlice(state.links, cloneLink),
		Reports:    cloneSlice(state.reports, cloneReport),
		Audits:     cloneSlice(state.audits, cloneAudit),
		Threads:    cloneSlice(state.threads, cloneThread),
		Messages:   cloneSlice(state.messages, cloneMessage),
		Evidence:   cloneSlice(state.evidence, cloneEvidence),
	}
}

func stateFromSnapshot(s Snapshot) memoryState {
	return memoryState{
		businesses: cloneSlice(s.Businesses, cloneBusiness),
		investors:  cloneSlice(s.Investors, cloneInvestor),
		links:      cloneSlice(s.Links, cloneLink),
		reports:    cloneSlice(s.Reports, cloneReport),
		audits:     cloneSlice(s.Audits, cloneAudit),
		threads:    cloneSlice(s.Threads, cloneThread),
		messages:   cloneSlice(s.Messages, cloneMessage),
		evidence:   cloneSlice(s.Evidence, cloneEvidence),
	}
}

// Store provides the in-memory transactional store for the platform domain.
// A single store instance assumes one logical writer; the mutex enforces that
// discipline for callers sharing an instance. Two instances over the same
// durable medium still race last-write-wins at bucket granularity, a limit of
// the whole-collection-overwrite format.
type Store struct {
	mu     sync.RWMutex
	state  memoryState
	engine *RulesEngine
	nowFn  func() time.Time
	idFn   func() string
}

// NewStore constructs an in-memory store backed by the provided rules engine.
func NewStore(engine *RulesEngine) *Store {
	if engine == nil {
		engine = domain.NewRulesEngine()
	}
	return &Store{
		engine: engine,
		nowFn:  func() time.Time { return time.Now().UTC() },
		idFn:   uuid.NewString,
	}
}

// SetNowFunc overrides the time provider. Intended for deterministic tests.
func (s *Store) SetNowFunc(fn func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if fn != nil {
		s.nowFn = fn
	}
}

// SetIDFunc overrides the identifier generator. Intended for deterministic tests.
func (s *Store) SetIDFunc(fn func() string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if fn != nil {
		s.idFn = fn
	}
}

// ExportState clones the current store state for external persistence.
func (s *Store) ExportState() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return snapshotFromState(s.state)
}

// ImportState replaces the store state with the provided snapshot.
func (s *Store) ImportState(snapshot Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = stateFromSnapshot(snapshot)
}

// RulesEngine exposes the configured engine for integration points.
func (s *Store) RulesEngine() *RulesEngine {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.engine
}

// transaction represents a mutation set applied to the store state.
type transaction struct {
	store   *Store
	state   memoryState
	changes []Change
	now     time.Time
}

// transactionView exposes a read-only snapshot of the transactional state.
type transactionView struct {
	state *memoryState
}

func newTransactionView(state *memoryState) TransactionView {
	return transactionView{state: state}
}

func findBusiness(state *memoryState, id string) (Business, bool) {
	for _, b := range state.businesses {
		if b.BusinessID == id {
			return cloneBusiness(b), true
		}
	}
	return Business{}, false
}

func findInvestor(state *memoryState, id string) (Investor, bool) {
	for _, i := range state.investors {
		if i.InvestorID == id {
			return cloneInvestor(i), true
		}
	}
	return Investor{}, false
}

func findReport(state *memoryState, id string) (Report, bool) {
	for _, r := range state.reports {
		if r.ReportID == id {
			return cloneReport(r), true
		}
	}
	return Report{}, false
}

func findAudit(state *memoryState, id string) (AuditRecord, bool) {
	for _, a := range state.audits {
		if a.AuditID == id {
			return cloneAudit(a), true
		}
	}
	return AuditRecord{}, false
}

func findThread(state *memoryState, id string) (MessageThread, bool) {
	for _, t := range state.threads {
		if t.ThreadID == id {
			return cloneThread(t), true
		}
	}
	return MessageThread{}, false
}

func (v transactionView) FindBusiness(id string) (Business, bool)    { return findBusiness(v.state, id) }
func (v transactionView) FindInvestor(id string) (Investor, bool)    { return findInvestor(v.state, id) }
func (v transactionView) FindReport(id string) (Report, bool)        { return findReport(v.state, id) }
func (v transactionView) FindAudit(id string) (AuditRecord, bool)    { return findAudit(v.state, id) }
func (v transactionView) FindThread(id string) (MessageThread, bool) { return findThread(v.state, id) }

// ListBusinesses returns all businesses in insertion order.
func (v transactionView) ListBusinesses() []Business {
	return cloneSlice(v.state.businesses, cloneBusiness)
}

// ListInvestors returns all investors in insertion order.
func (v transactionView) ListInvestors() []Investor {
	return cloneSlice(v.state.investors, cloneInvestor)
}

// ListLinks returns all links in insertion order, without decoration.
func (v transactionView) ListLinks() []InvestorBusinessLink {
	return cloneSlice(v.state.links, cloneLink)
}

// ListReports returns all reports in insertion order.
func (v transactionView) ListReports() []Report {
	return cloneSlice(v.state.reports, cloneReport)
}

// ListAudits returns all audit records in insertion order.
func (v transactionView) ListAudits() []AuditRecord {
	return cloneSlice(v.state.audits, cloneAudit)
}

// ListThreads returns all threads in insertion order.
func (v transactionView) ListThreads() []MessageThread {
	return cloneSlice(v.state.threads, cloneThread)
}

// ListMessages returns all messages in insertion order.
func (v transactionView) ListMessages() []Message {
	return cloneSlice(v.state.messages, cloneMessage)
}

// ListEvidence returns all evidence in insertion order.
func (v transactionView) ListEvidence() []Evidence {
	return cloneSlice(v.state.evidence, cloneEvidence)
}

// RunInTransaction executes fn within a transactional copy of the store state.
// Reference rules are evaluated before commit; blocking violations abort.
func (s *Store) RunInTransaction(ctx context.Context, fn func(tx Transaction) error) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &transaction{
		store: s,
		state: s.state.clone(),
		now:   s.nowFn(),
	}

	if err := fn(tx); err != nil {
		return Result{}, err
	}

	var result Result
	if s.engine != nil {
		view := newTransactionView(&tx.state)
		res, err := s.engine.Evaluate(ctx, view, tx.changes)
		if err != nil {
			return Result{}, err
		}
		result = res
		if res.HasBlocking() {
			return res, domain.RuleViolationError{Result: res}
		}
	}

	s.state = tx.state
	return result, nil
}

// View executes fn against a read-only snapshot of the store state.
func (s *Store) View(_ context.Context, fn func(TransactionView) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshot := s.state.clone()
	view := newTransactionView(&snapshot)
	return fn(view)
}

func (tx *transaction) recordChange(change Change) {
	tx.changes = append(tx.changes, change)
}

// Snapshot returns a read-only view over the transactional state.
func (tx *transaction) Snapshot() TransactionView {
	return newTransactionView(&tx.state)
}

// CreateBusiness stores a new business within the transaction.
func (tx *transaction) CreateBusiness(b Business) (Business, error) {
	if b.BusinessID == "" {
		b.BusinessID = tx.store.idFn()
	}
	if _, exists := findBusiness(&tx.state, b.BusinessID); exists {
		return Business{}, duplicateError(domain.EntityBusiness, b.BusinessID)
	}
	b.CreatedAt = tx.now
	tx.state.businesses = append(tx.state.businesses, cloneBusiness(b))
	tx.recordChange(Change{Entity: domain.EntityBusiness, Action: domain.ActionCreate, After: cloneBusiness(b)})
	return cloneBusiness(b), nil
}

// CreateInvestor stores a new investor profile.
func (tx *transaction) CreateInvestor(i Investor) (Investor, error) {
	if i.InvestorID == "" {
		i.InvestorID = tx.store.idFn()
	}
	if _, exists := findInvestor(&tx.state, i.InvestorID); exists {
		return Investor{}, duplicateError(domain.EntityInvestor, i.InvestorID)
	}
	i.CreatedAt = tx.now
	tx.state.investors = append(tx.state.investors, cloneInvestor(i))
	tx.recordChange(Change{Entity: domain.EntityInvestor, Action: domain.ActionCreate, After: cloneInvestor(i)})
	return cloneInvestor(i), nil
}

// CreateLink stores a new investor-business link. Referenced parties are not
// required to exist unless the strict reference rule is installed.
func (tx *transaction) CreateLink(l InvestorBusinessLink) (InvestorBusinessLink, error) {
	if l.LinkID == "" {
		l.LinkID = tx.store.idFn()
	}
	for _, existing := range tx.state.links {
		if existing.LinkID == l.LinkID {
			return InvestorBusinessLink{}, duplicateError(domain.EntityLink, l.LinkID)
		}
	}
	l.CreatedAt = tx.now
	tx.state.links = append(tx.state.links, cloneLink(l))
	tx.recordChange(Change{Entity: domain.EntityLink, Action: domain.ActionCreate, After: cloneLink(l)})
	return cloneLink(l), nil
}

// CreateReport stores a new report. The status is always forced to draft
// regardless of the caller-supplied value; net_result is stored as given.
func (tx *transaction) CreateReport(r Report) (Report, error) {
	if r.ReportID == "" {
		r.ReportID = tx.store.idFn()
	}
	if _, exists := findReport(&tx.state, r.ReportID); exists {
		return Report{}, duplicateError(domain.EntityReport, r.ReportID)
	}
	r.Status = domain.ReportStatusDraft
	r.CreatedAt = tx.now
	tx.state.reports = append(tx.state.reports, cloneReport(r))
	tx.recordChange(Change{Entity: domain.EntityReport, Action: domain.ActionCreate, After: cloneReport(r)})
	return cloneReport(r), nil
}

// UpdateReportStatus assigns a new status to an existing report. The admin
// comment is overwritten only when non-empty; an empty comment preserves any
// previously stored one. No transition ordering is enforced.
func (tx *transaction) UpdateReportStatus(id string, status domain.ReportStatus, adminComments string) (Report, error) {
	for idx := range tx.state.reports {
		if tx.state.reports[idx].ReportID != id {
			continue
		}
		before := cloneReport(tx.state.reports[idx])
		tx.state.reports[idx].Status = status
		if adminComments != "" {
			tx.state.reports[idx].AdminComments = &adminComments
		}
		after := cloneReport(tx.state.reports[idx])
		tx.recordChange(Change{Entity: domain.EntityReport, Action: domain.ActionUpdate, Before: before, After: after})
		return cloneReport(tx.state.reports[idx]), nil
	}
	return Report{}, domain.NotFoundError{Entity: domain.EntityReport, ID: id}
}

// CreateAudit stores a new audit record. Audit records are immutable after
// creation; the newest record by creation time is the authoritative one.
func (tx *transaction) CreateAudit(a AuditRecord) (AuditRecord, error) {
	if a.AuditID == "" {
		a.AuditID = tx.store.idFn()
	}
	if _, exists := findAudit(&tx.state, a.AuditID); exists {
		return AuditRecord{}, duplicateError(domain.EntityAudit, a.AuditID)
	}
	a.CreatedAt = tx.now
	tx.state.audits = append(tx.state.audits, cloneAudit(a))
	tx.recordChange(Change{Entity: domain.EntityAudit, Action: domain.ActionCreate, After: cloneAudit(a)})
	return cloneAudit(a), nil
}

// CreateThread stores a new message thread, always opened.
func (tx *transaction) CreateThread(t MessageThread) (MessageThread, error) {
	if t.ThreadID == "" {
		t.ThreadID = tx.store.idFn()
	}
	if _, exists := findThread(&tx.state, t.ThreadID); exists {
		return MessageThread{}, duplicateError(domain.EntityThread, t.ThreadID)
	}
	t.Status = domain.ThreadStatusOpen
	t.CreatedAt = tx.now
	tx.state.threads = append(tx.state.threads, cloneThread(t))
	tx.recordChange(Change{Entity: domain.EntityThread, Action: domain.ActionCreate, After: cloneThread(t)})
	return cloneThread(t), nil
}

// CreateMessage appends a message to a thread. The store does not reject
// messages for closed threads; that gate belongs to the presentation layer.
func (tx *transaction) CreateMessage(m Message) (Message, error) {
	if m.MessageID == "" {
		m.MessageID = tx.store.idFn()
	}
	for _, existing := range tx.state.messages {
		if existing.MessageID == m.MessageID {
			return Message{}, duplicateError(domain.EntityMessage, m.MessageID)
		}
	}
	m.CreatedAt = tx.now
	tx.state.messages = append(tx.state.messages, cloneMessage(m))
	tx.recordChange(Change{Entity: domain.EntityMessage, Action: domain.ActionCreate, After: cloneMessage(m)})
	return cloneMessage(m), nil
}

// CreateEvidence stores a new evidence record, always pending review.
func (tx *transaction) CreateEvidence(e Evidence) (Evidence, error) {
	if e.EvidenceID == "" {
		e.EvidenceID = tx.store.idFn()
	}
	for _, existing := range tx.state.evidence {
		if existing.EvidenceID == e.EvidenceID {
			return Evidence{}, duplicateError(domain.EntityEvidence, e.EvidenceID)
		}
	}
	e.Status = domain.EvidencePendingReview
	e.UploadDate = tx.now
	tx.state.evidence = append(tx.state.evidence, cloneEvidence(e))
	tx.recordChange(Change{Entity: domain.EntityEvidence, Action: domain.ActionCreate, After: cloneEvidence(e)})
	return cloneEvidence(e), nil
}
