package domain

import (
	"context"
	"fmt"
)

// RuleView provides read-only access to domain entities for rule evaluation.
type RuleView interface {
	FindBusiness(id string) (Business, bool)
	FindInvestor(id string) (Investor, bool)
	FindReport(id string) (Report, bool)
	FindAudit(id string) (AuditRecord, bool)
	FindThread(id string) (MessageThread, bool)
}

// Rule defines an evaluation executed within a transaction boundary.
type Rule interface {
	Name() string
	Evaluate(ctx context.Context, view RuleView, changes []Change) (Result, error)
}

// RulesEngine orchestrates rule evaluation.
type RulesEngine struct {
	rules []Rule
}

// NewRulesEngine constructs an empty engine. The store commits unconditionally
// when no rules are registered.
func NewRulesEngine() *RulesEngine {
	return &RulesEngine{}
}

// Register appends a rule to the engine.
func (e *RulesEngine) Register(rule Rule) {
	e.rules = append(e.rules, rule)
}

// Evaluate executes all registered rules and aggregates their results.
func (e *RulesEngine) Evaluate(ctx context.Context, view RuleView, changes []Change) (Result, error) {
	var combined Result
	for _, rule := range e.rules {
		res, err := rule.Evaluate(ctx, view, changes)
		if err != nil {
			return Result{}, err
		}
		combined.Merge(res)
	}
	return combined, nil
}

// referenceIntegrityRule verifies that foreign keys on newly created records
// point at existing entities. In lenient mode missing targets are recorded as
// warnings and only surface at read time as absent decorations; strict mode
// escalates to block severity for referential-integrity testing.
type referenceIntegrityRule struct {
	severity Severity
}

// NewReferenceIntegrityRule returns the foreign-key rule. With strict=false
// violations are recorded as warnings; with strict=true they block commit.
func NewReferenceIntegrityRule(strict bool) Rule {
	severity := SeverityWarn
	if strict {
		severity = SeverityBlock
	}
	return referenceIntegrityRule{severity: severity}
}

func (r referenceIntegrityRule) Name() string { return "reference_integrity" }

func (r referenceIntegrityRule) Evaluate(_ context.Context, view RuleView, changes []Change) (Result, error) {
	var result Result
	add := func(entity EntityType, entityID, field, targetID string) {
		result.Violations = append(result.Violations, Violation{
			Rule:     r.Name(),
			Severity: r.severity,
			Message:  fmt.Sprintf("%s references missing %s %q", entity, field, targetID),
			Entity:   entity,
			EntityID: entityID,
		})
	}
	for _, change := range changes {
		if change.Action != ActionCreate {
			continue
		}
		switch record := change.After.(type) {
		case InvestorBusinessLink:
			if _, ok := view.FindInvestor(record.InvestorID); !ok {
				add(EntityLink, record.LinkID, "investor", record.InvestorID)
			}
			if _, ok := view.FindBusiness(record.BusinessID); !ok {
				add(EntityLink, record.LinkID, "business", record.BusinessID)
			}
		case Report:
			if _, ok := view.FindBusiness(record.BusinessID); !ok {
				add(EntityReport, record.ReportID, "business", record.BusinessID)
			}
		case AuditRecord:
			if _, ok := view.FindBusiness(record.BusinessID); !ok {
				add(EntityAudit, record.AuditID, "business", record.BusinessID)
			}
			if record.ReportID != nil {
				if _, ok := view.FindReport(*record.ReportID); !ok {
					add(EntityAudit, record.AuditID, "report", *record.ReportID)
				}
			}
		case MessageThread:
			if _, ok := view.FindBusiness(record.BusinessID); !ok {
				add(EntityThread, record.ThreadID, "business", record.BusinessID)
			}
			if record.RelatedID != nil {
				switch record.RelatedType {
				case ThreadRelatedReport:
					if _, ok := view.FindReport(*record.RelatedID); !ok {
						add(EntityThread, record.ThreadID, "report", *record.RelatedID)
					}
				case ThreadRelatedAudit:
					if _, ok := view.FindAudit(*record.RelatedID); !ok {
						add(EntityThread, record.ThreadID, "audit", *record.RelatedID)
					}
				}
			}
		case Message:
			if _, ok := view.FindThread(record.ThreadID); !ok {
				add(EntityMessage, record.MessageID, "thread", record.ThreadID)
			}
		case Evidence:
			if _, ok := view.FindBusiness(record.BusinessID); !ok {
				add(EntityEvidence, record.EvidenceID, "business", record.BusinessID)
			}
			if record.ReportID != nil {
				if _, ok := view.FindReport(*record.ReportID); !ok {
					add(EntityEvidence, record.EvidenceID, "report", *record.ReportID)
				}
			}
		}
	}
	return result, nil
}
