// Package domain defines the persistent entities, enumerated value sets, and
// reference evaluation primitives used by assurecore.
package domain

import "time"

// EntityType identifies the type of record stored in the platform core.
type EntityType string

// Supported entity type identifiers used in Change records and persistence buckets.
const (
	// EntityBusiness identifies a registered business record.
	EntityBusiness EntityType = "business"
	// EntityInvestor identifies an investor profile record.
	EntityInvestor EntityType = "investor"
	// EntityLink identifies an investor-business link record.
	EntityLink EntityType = "link"
	// EntityReport identifies a periodic financial report record.
	EntityReport EntityType = "report"
	// EntityAudit identifies an audit finding record.
	EntityAudit EntityType = "audit"
	// EntityThread identifies a message thread record.
	EntityThread EntityType = "thread"
	// EntityMessage identifies a single message within a thread.
	EntityMessage EntityType = "message"
	// EntityEvidence identifies an uploaded evidence record.
	EntityEvidence EntityType = "evidence"
)

// BusinessStatus enumerates the operational states of a registered business.
type BusinessStatus string

// Canonical business statuses. Values are persisted verbatim.
const (
	BusinessStatusActive    BusinessStatus = "active"
	BusinessStatusSuspended BusinessStatus = "suspended"
	BusinessStatusClosed    BusinessStatus = "closed"
)

// LinkStatus enumerates the soft states of an investor-business link.
type LinkStatus string

// Link statuses. Ended links are retained but hidden from default queries.
const (
	LinkStatusActive LinkStatus = "active"
	LinkStatusEnded  LinkStatus = "ended"
)

// RelationshipType describes how an investor relates to a business.
type RelationshipType string

// Canonical relationship types.
const (
	RelationshipOwner    RelationshipType = "owner"
	RelationshipPartner  RelationshipType = "partner"
	RelationshipObserver RelationshipType = "observer"
)

// ReportType enumerates reporting cadences.
type ReportType string

// Canonical report types.
const (
	ReportTypeMonthly   ReportType = "monthly"
	ReportTypeQuarterly ReportType = "quarterly"
	ReportTypeCustom    ReportType = "custom"
)

// ReportStatus enumerates the review workflow states of a report.
type ReportStatus string

// Canonical report statuses. New reports always start in draft.
const (
	ReportStatusDraft     ReportStatus = "draft"
	ReportStatusSubmitted ReportStatus = "submitted"
	ReportStatusReviewed  ReportStatus = "reviewed"
)

// AuditType enumerates the kinds of audit events recorded against a business.
type AuditType string

// Canonical audit types.
const (
	AuditTypePeriodic AuditType = "periodic"
	AuditTypeReport   AuditType = "report"
	AuditTypeSpecial  AuditType = "special"
)

// AuditStatus enumerates audit outcome states.
type AuditStatus string

// Canonical audit statuses.
const (
	AuditStatusPending  AuditStatus = "pending"
	AuditStatusVerified AuditStatus = "verified"
	AuditStatusFlagged  AuditStatus = "flagged"
	AuditStatusRejected AuditStatus = "rejected"
)

// RiskLevel enumerates audit risk assessments.
type RiskLevel string

// Canonical risk levels.
const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// ThreadRelatedType describes what a message thread is attached to.
type ThreadRelatedType string

// Canonical thread relation types.
const (
	ThreadRelatedReport  ThreadRelatedType = "report"
	ThreadRelatedAudit   ThreadRelatedType = "audit"
	ThreadRelatedGeneral ThreadRelatedType = "general"
)

// ThreadStatus enumerates message thread states.
type ThreadStatus string

// Thread statuses. New threads always start open.
const (
	ThreadStatusOpen   ThreadStatus = "open"
	ThreadStatusClosed ThreadStatus = "closed"
)

// SenderLabel identifies the party that authored a message.
type SenderLabel string

// Canonical sender labels.
const (
	SenderAdmin    SenderLabel = "admin"
	SenderBusiness SenderLabel = "business"
	SenderInvestor SenderLabel = "investor"
)

// EvidenceStatus enumerates evidence review states.
type EvidenceStatus string

// Canonical evidence statuses. New evidence always starts pending review.
const (
	EvidencePendingReview EvidenceStatus = "pending_review"
	EvidenceVerified      EvidenceStatus = "verified"
	EvidenceRejected      EvidenceStatus = "rejected"
	EvidenceArchived      EvidenceStatus = "archived"
)

// Business represents a registered business tracked by the platform.
// JSON field names are part of the persisted format and must not change.
type Business struct {
	BusinessID       string         `json:"business_id"`
	BusinessName     string         `json:"business_name"`
	BusinessType     string         `json:"business_type"`
	PhysicalLocation string         `json:"physical_location"`
	County           string         `json:"county"`
	Description      string         `json:"description"`
	DateRegistered   string         `json:"date_registered"`
	Status           BusinessStatus `json:"status"`
	Notes            *string        `json:"notes,omitempty"`
	CreatedAt        time.Time      `json:"created_at"`
}

// Investor represents an investor profile. Immutable after creation.
type Investor struct {
	InvestorID   string    `json:"investor_id"`
	FullName     string    `json:"full_name"`
	Country      string    `json:"country"`
	ContactEmail string    `json:"contact_email"`
	ContactPhone *string   `json:"contact_phone,omitempty"`
	Notes        *string   `json:"notes,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// InvestorBusinessLink is the many-to-many join between investors and
// businesses. Ended links are never deleted; the status field hides them.
type InvestorBusinessLink struct {
	LinkID           string           `json:"link_id"`
	InvestorID       string           `json:"investor_id"`
	BusinessID       string           `json:"business_id"`
	RelationshipType RelationshipType `json:"relationship_type"`
	StartDate        string           `json:"start_date"`
	Status           LinkStatus       `json:"status"`
	CreatedAt        time.Time        `json:"created_at"`
}

// Report is a periodic financial report filed for a business.
// NetResult is computed by the caller at creation time and never recomputed.
type Report struct {
	ReportID             string       `json:"report_id"`
	BusinessID           string       `json:"business_id"`
	ReportingPeriodStart string       `json:"reporting_period_start"`
	ReportingPeriodEnd   string       `json:"reporting_period_end"`
	ReportType           ReportType   `json:"report_type"`
	SummaryText          string       `json:"summary_text"`
	RevenueAmount        *float64     `json:"revenue_amount,omitempty"`
	ExpenseAmount        *float64     `json:"expense_amount,omitempty"`
	NetResult            *float64     `json:"net_result,omitempty"`
	OperationalNotes     *string      `json:"operational_notes,omitempty"`
	SubmittedDate        *string      `json:"submitted_date,omitempty"`
	Status               ReportStatus `json:"status"`
	AdminComments        *string      `json:"admin_comments,omitempty"`
	CreatedAt            time.Time    `json:"created_at"`
}

// AuditRecord captures a single audit event for a business, optionally tied
// to a report. Immutable after creation; "latest" is by creation time.
type AuditRecord struct {
	AuditID         string      `json:"audit_id"`
	BusinessID      string      `json:"business_id"`
	ReportID        *string     `json:"report_id,omitempty"`
	AuditType       AuditType   `json:"audit_type"`
	AuditStatus     AuditStatus `json:"audit_status"`
	FindingsSummary string      `json:"findings_summary"`
	RiskLevel       RiskLevel   `json:"risk_level"`
	Recommendations *string     `json:"recommendations,omitempty"`
	AuditorLabel    string      `json:"auditor_label"`
	CreatedAt       time.Time   `json:"created_at"`
}

// MessageThread groups messages exchanged about a business.
type MessageThread struct {
	ThreadID    string            `json:"thread_id"`
	BusinessID  string            `json:"business_id"`
	RelatedType ThreadRelatedType `json:"related_type"`
	RelatedID   *string           `json:"related_id,omitempty"`
	Subject     string            `json:"subject"`
	Status      ThreadStatus      `json:"status"`
	CreatedAt   time.Time         `json:"created_at"`
}

// Message is a single append-only entry within a thread.
type Message struct {
	MessageID   string      `json:"message_id"`
	ThreadID    string      `json:"thread_id"`
	SenderLabel SenderLabel `json:"sender_label"`
	MessageBody string      `json:"message_body"`
	CreatedAt   time.Time   `json:"created_at"`
}

// Evidence is an uploaded supporting document for a business or report.
type Evidence struct {
	EvidenceID   string         `json:"evidence_id"`
	BusinessID   string         `json:"business_id"`
	ReportID     *string        `json:"report_id,omitempty"`
	FileName     string         `json:"file_name"`
	FileURL      string         `json:"file_url"`
	FileType     string         `json:"file_type"`
	Description  string         `json:"description"`
	UploadDate   time.Time      `json:"upload_date"`
	Status       EvidenceStatus `json:"status"`
	VerifiedBy   *string        `json:"verified_by,omitempty"`
	VerifiedDate *time.Time     `json:"verified_date,omitempty"`
}

// Severity captures reference rule outcomes.
type Severity string

// Rule evaluation severities determine commit behavior and logging.
const (
	// SeverityBlock blocks transaction commit.
	SeverityBlock Severity = "block"
	// SeverityWarn records the violation but allows commit.
	SeverityWarn Severity = "warn"
)

// Change describes a mutation applied to an entity during a transaction.
type Change struct {
	Entity EntityType
	Action Action
	Before any
	After  any
}

// Action indicates the type of modification performed.
type Action string

// Change actions enumerate the mutations captured for rule evaluation.
const (
	// ActionCreate indicates an entity was created.
	ActionCreate Action = "create"
	// ActionUpdate indicates an entity was updated.
	ActionUpdate Action = "update"
)

// Violation reports a failed reference check.
type Violation struct {
	Rule     string
	Severity Severity
	Message  string
	Entity   EntityType
	EntityID string
}

// Result aggregates violations from reference evaluation.
type Result struct {
	Violations []Violation
}

// Merge appends violations from another result.
func (r *Result) Merge(other Result) {
	if len(other.Violations) == 0 {
		return
	}
	r.Violations = append(r.Violations, other.Violations...)
}

// HasBlocking returns true if the result contains blocking violations.
func (r Result) HasBlocking() bool {
	for _, v := range r.Violations {
		if v.Severity == SeverityBlock {
			return true
		}
	}
	return false
}

// RuleViolationError is returned when blocking violations are present.
type RuleViolationError struct {
	Result Result
}

func (e RuleViolationError) Error() string {
	return "transaction blocked by reference rules"
}
