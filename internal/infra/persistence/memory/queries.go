package memory

import (
	"fmt"
	"sort"

	"assurecore/pkg/domain"
)

func duplicateError(entity domain.EntityType, id string) error {
	return fmt.Errorf("%s %q already exists", entity, id)
}

// GetBusiness returns the business with the given id, or absent.
func (s *Store) GetBusiness(id string) (Business, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return findBusiness(&s.state, id)
}

// ListBusinesses returns all businesses in insertion order.
func (s *Store) ListBusinesses() []Business {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneSlice(s.state.businesses, cloneBusiness)
}

// GetInvestor returns the investor with the given id, or absent.
func (s *Store) GetInvestor(id string) (Investor, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return findInvestor(&s.state, id)
}

// ListInvestors returns all investors in insertion order.
func (s *Store) ListInvestors() []Investor {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneSlice(s.state.investors, cloneInvestor)
}

// GetReport returns the report with the given id, or absent.
func (s *Store) GetReport(id string) (Report, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return findReport(&s.state, id)
}

// ListReports returns all reports in insertion order.
func (s *Store) ListReports() []Report {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneSlice(s.state.reports, cloneReport)
}

// GetAudit returns the audit record with the given id, or absent.
func (s *Store) GetAudit(id string) (AuditRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return findAudit(&s.state, id)
}

// ListAudits returns all audit records in insertion order.
func (s *Store) ListAudits() []AuditRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneSlice(s.state.audits, cloneAudit)
}

// GetThread returns the thread with the given id, or absent.
func (s *Store) GetThread(id string) (MessageThread, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return findThread(&s.state, id)
}

// Links returns every link, regardless of status, decorated with the names of
// both parties. Missing parties leave the decoration empty.
func (s *Store) Links() []domain.LinkView {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.LinkView, 0, len(s.state.links))
	for _, l := range s.state.links {
		view := domain.LinkView{InvestorBusinessLink: cloneLink(l)}
		if inv, ok := findInvestor(&s.state, l.InvestorID); ok {
			view.InvestorName = inv.FullName
		}
		if biz, ok := findBusiness(&s.state, l.BusinessID); ok {
			view.BusinessName = biz.BusinessName
		}
		out = append(out, view)
	}
	return out
}

// LinksByBusiness returns the active links for a business, decorated with
// each investor's display name.
func (s *Store) LinksByBusiness(businessID string) []domain.BusinessLinkView {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.BusinessLinkView
	for _, l := range s.state.links {
		if l.BusinessID != businessID || l.Status != domain.LinkStatusActive {
			continue
		}
		view := domain.BusinessLinkView{InvestorBusinessLink: cloneLink(l)}
		if inv, ok := findInvestor(&s.state, l.InvestorID); ok {
			view.InvestorName = inv.FullName
		}
		out = append(out, view)
	}
	return out
}

// LinksByInvestor returns the active links for an investor, decorated with
// each business's display name and physical location.
func (s *Store) LinksByInvestor(investorID string) []domain.InvestorLinkView {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return linksByInvestorLocked(&s.state, investorID)
}

func linksByInvestorLocked(state *memoryState, investorID string) []domain.InvestorLinkView {
	var out []domain.InvestorLinkView
	for _, l := range state.links {
		if l.InvestorID != investorID || l.Status != domain.LinkStatusActive {
			continue
		}
		view := domain.InvestorLinkView{InvestorBusinessLink: cloneLink(l)}
		if biz, ok := findBusiness(state, l.BusinessID); ok {
			view.BusinessName = biz.BusinessName
			view.Location = biz.PhysicalLocation
		}
		out = append(out, view)
	}
	return out
}

// ReportsByBusiness returns the reports filed for a business, newest first.
func (s *Store) ReportsByBusiness(businessID string) []Report {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Report
	for _, r := range s.state.reports {
		if r.BusinessID == businessID {
			out = append(out, cloneReport(r))
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

// AuditsByBusiness returns the audit history for a business, newest first.
func (s *Store) AuditsByBusiness(businessID string) []AuditRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return auditsByBusinessLocked(&s.state, businessID)
}

func auditsByBusinessLocked(state *memoryState, businessID string) []AuditRecord {
	var out []AuditRecord
	for _, a := range state.audits {
		if a.BusinessID == businessID {
			out = append(out, cloneAudit(a))
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

// LatestAuditByBusiness returns the most recently created audit record for a
// business, or absent when the business has never been audited.
func (s *Store) LatestAuditByBusiness(businessID string) (AuditRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	audits := auditsByBusinessLocked(&s.state, businessID)
	if len(audits) == 0 {
		return AuditRecord{}, false
	}
	return audits[0], true
}

// ThreadsByBusiness returns the message threads for a business, newest first.
func (s *Store) ThreadsByBusiness(businessID string) []MessageThread {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []MessageThread
	for _, t := range s.state.threads {
		if t.BusinessID == businessID {
			out = append(out, cloneThread(t))
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

// MessagesByThread returns a thread's messages in conversation order,
// oldest first.
func (s *Store) MessagesByThread(threadID string) []Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Message
	for _, m := range s.state.messages {
		if m.ThreadID == threadID {
			out = append(out, cloneMessage(m))
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// EvidenceByBusiness returns the evidence uploaded for a business, most
// recent upload first.
func (s *Store) EvidenceByBusiness(businessID string) []Evidence {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Evidence
	for _, e := range s.state.evidence {
		if e.BusinessID == businessID {
			out = append(out, cloneEvidence(e))
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].UploadDate.After(out[j].UploadDate)
	})
	return out
}

// PortfolioByInvestor joins an investor's active links with each linked
// business's latest audit. Entries without an audit carry a nil LatestAudit.
func (s *Store) PortfolioByInvestor(investorID string) []domain.PortfolioEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	links := linksByInvestorLocked(&s.state, investorID)
	out := make([]domain.PortfolioEntry, 0, len(links))
	for _, link := range links {
		entry := domain.PortfolioEntry{InvestorLinkView: link}
		if audits := auditsByBusinessLocked(&s.state, link.BusinessID); len(audits) > 0 {
			latest := audits[0]
			entry.LatestAudit = &latest
		}
		out = append(out, entry)
	}
	return out
}

// Stats returns platform-wide entity counts for the dashboard.
func (s *Store) Stats() domain.DashboardStats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return domain.DashboardStats{
		Businesses: len(s.state.businesses),
		Investors:  len(s.state.investors),
		Reports:    len(s.state.reports),
		Audits:     len(s.state.audits),
	}
}
