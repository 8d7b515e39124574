package domain

import "context"

// Transaction exposes the mutation operations that a persistence
// implementation must support within an atomic scope. The platform exposes no
// delete path and a single update path (report status review); every other
// entity is create-only once written.
type Transaction interface {
	Snapshot() TransactionView
	CreateBusiness(Business) (Business, error)
	CreateInvestor(Investor) (Investor, error)
	CreateLink(InvestorBusinessLink) (InvestorBusinessLink, error)
	CreateReport(Report) (Report, error)
	UpdateReportStatus(id string, status ReportStatus, adminComments string) (Report, error)
	CreateAudit(AuditRecord) (AuditRecord, error)
	CreateThread(MessageThread) (MessageThread, error)
	CreateMessage(Message) (Message, error)
	CreateEvidence(Evidence) (Evidence, error)
}

// TransactionView provides read-only access to snapshot data.
type TransactionView interface {
	RuleView
	ListBusinesses() []Business
	ListInvestors() []Investor
	ListLinks() []InvestorBusinessLink
	ListReports() []Report
	ListAudits() []AuditRecord
	ListThreads() []MessageThread
	ListMessages() []Message
	ListEvidence() []Evidence
}

// PersistentStore is the abstraction over durable backends: whole-collection
// listings, id lookups returning an absent signal instead of an error, and
// filtered, sorted, per-read decorated queries.
type PersistentStore interface {
	RunInTransaction(ctx context.Context, fn func(Transaction) error) (Result, error)
	View(ctx context.Context, fn func(TransactionView) error) error

	GetBusiness(id string) (Business, bool)
	ListBusinesses() []Business
	GetInvestor(id string) (Investor, bool)
	ListInvestors() []Investor
	GetReport(id string) (Report, bool)
	ListReports() []Report
	GetAudit(id string) (AuditRecord, bool)
	ListAudits() []AuditRecord
	GetThread(id string) (MessageThread, bool)

	Links() []LinkView
	LinksByBusiness(businessID string) []BusinessLinkView
	LinksByInvestor(investorID string) []InvestorLinkView
	ReportsByBusiness(businessID string) []Report
	AuditsByBusiness(businessID string) []AuditRecord
	LatestAuditByBusiness(businessID string) (AuditRecord, bool)
	ThreadsByBusiness(businessID string) []MessageThread
	MessagesByThread(threadID string) []Message
	EvidenceByBusiness(businessID string) []Evidence
	PortfolioByInvestor(investorID string) []PortfolioEntry
	Stats() DashboardStats
}
