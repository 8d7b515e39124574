package domain

// Decorated view types returned by the query layer. Decorations are computed
// per read from the related collection and are never persisted; when the
// referenced entity is missing the decoration field is simply omitted.

// LinkView decorates a link with both party names for the relationship
// overview listing. No status filter is applied to this view.
type LinkView struct {
	InvestorBusinessLink
	InvestorName string `json:"investorName,omitempty"`
	BusinessName string `json:"businessName,omitempty"`
}

// BusinessLinkView decorates a link as seen from a business page: the
// investor's display name is attached.
type BusinessLinkView struct {
	InvestorBusinessLink
	InvestorName string `json:"investorName,omitempty"`
}

// InvestorLinkView decorates a link as seen from an investor page: the
// business's display name and location are attached.
type InvestorLinkView struct {
	InvestorBusinessLink
	BusinessName string `json:"businessName,omitempty"`
	Location     string `json:"location,omitempty"`
}

// PortfolioEntry is one row of an investor's portfolio: an active link joined
// with the linked business's latest audit. A nil LatestAudit means the
// business has not yet been assessed, which is a distinct display state from
// any explicit audit status.
type PortfolioEntry struct {
	InvestorLinkView
	LatestAudit *AuditRecord `json:"latestAudit,omitempty"`
}

// DashboardStats aggregates platform-wide counts for the overview page.
type DashboardStats struct {
	Businesses int `json:"businesses"`
	Investors  int `json:"investors"`
	Reports    int `json:"reports"`
	Audits     int `json:"audits"`
}
