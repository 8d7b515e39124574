package memory

import (
	"context"
	"testing"

	"assurecore/pkg/domain"
)

// seedQueryFixture loads two businesses, two investors, a mix of active and
// ended links, and time-ordered reports, audits, threads, messages and
// evidence. The deterministic clock in newTestStore advances one minute per
// transaction, so creation order is creation-time order.
func seedQueryFixture(t *testing.T, store *Store) {
	t.Helper()
	run := func(fn func(tx Transaction) error) {
		t.Helper()
		if _, err := store.RunInTransaction(context.Background(), fn); err != nil {
			t.Fatal(err)
		}
	}

	run(func(tx Transaction) error {
		if _, err := tx.CreateBusiness(Business{BusinessID: "b1", BusinessName: "Kilifi Grains", PhysicalLocation: "Kilifi Town", Status: domain.BusinessStatusActive}); err != nil {
			return err
		}
		if _, err := tx.CreateBusiness(Business{BusinessID: "b2", BusinessName: "Nairobi Textiles", PhysicalLocation: "Industrial Area", Status: domain.BusinessStatusActive}); err != nil {
			return err
		}
		if _, err := tx.CreateInvestor(Investor{InvestorID: "i1", FullName: "Global Ventures Ltd", Country: "UK"}); err != nil {
			return err
		}
		if _, err := tx.CreateInvestor(Investor{InvestorID: "i2", FullName: "Acacia Capital", Country: "Kenya"}); err != nil {
			return err
		}
		if _, err := tx.CreateLink(InvestorBusinessLink{LinkID: "l1", InvestorID: "i1", BusinessID: "b1", RelationshipType: domain.RelationshipPartner, Status: domain.LinkStatusActive}); err != nil {
			return err
		}
		if _, err := tx.CreateLink(InvestorBusinessLink{LinkID: "l2", InvestorID: "i1", BusinessID: "b2", RelationshipType: domain.RelationshipObserver, Status: domain.LinkStatusEnded}); err != nil {
			return err
		}
		if _, err := tx.CreateLink(InvestorBusinessLink{LinkID: "l3", InvestorID: "i2", BusinessID: "b1", RelationshipType: domain.RelationshipOwner, Status: domain.LinkStatusActive}); err != nil {
			return err
		}
		// Link to a business that does not exist; its decoration must be absent.
		if _, err := tx.CreateLink(InvestorBusinessLink{LinkID: "l4", InvestorID: "i2", BusinessID: "ghost", Status: domain.LinkStatusActive}); err != nil {
			return err
		}
		return nil
	})

	// Separate transactions so created_at strictly increases between rows.
	run(func(tx Transaction) error {
		_, err := tx.CreateReport(Report{ReportID: "r1", BusinessID: "b1", ReportType: domain.ReportTypeMonthly})
		return err
	})
	run(func(tx Transaction) error {
		_, err := tx.CreateReport(Report{ReportID: "r2", BusinessID: "b1", ReportType: domain.ReportTypeMonthly})
		return err
	})
	run(func(tx Transaction) error {
		_, err := tx.CreateAudit(AuditRecord{AuditID: "a1", BusinessID: "b1", AuditStatus: domain.AuditStatusPending, RiskLevel: domain.RiskMedium})
		return err
	})
	run(func(tx Transaction) error {
		_, err := tx.CreateAudit(AuditRecord{AuditID: "a2", BusinessID: "b1", AuditStatus: domain.AuditStatusVerified, RiskLevel: domain.RiskLow})
		return err
	})
	run(func(tx Transaction) error {
		_, err := tx.CreateThread(MessageThread{ThreadID: "t1", BusinessID: "b1", RelatedType: domain.ThreadRelatedGeneral, Subject: "old"})
		return err
	})
	run(func(tx Transaction) error {
		_, err := tx.CreateThread(MessageThread{ThreadID: "t2", BusinessID: "b1", RelatedType: domain.ThreadRelatedGeneral, Subject: "new"})
		return err
	})
	run(func(tx Transaction) error {
		_, err := tx.CreateMessage(Message{MessageID: "m1", ThreadID: "t1", SenderLabel: domain.SenderAdmin, MessageBody: "first"})
		return err
	})
	run(func(tx Transaction) error {
		_, err := tx.CreateMessage(Message{MessageID: "m2", ThreadID: "t1", SenderLabel: domain.SenderBusiness, MessageBody: "second"})
		return err
	})
	run(func(tx Transaction) error {
		_, err := tx.CreateEvidence(Evidence{EvidenceID: "e1", BusinessID: "b1", FileName: "old.pdf"})
		return err
	})
	run(func(tx Transaction) error {
		_, err := tx.CreateEvidence(Evidence{EvidenceID: "e2", BusinessID: "b1", FileName: "new.pdf"})
		return err
	})
}

func TestLinksDecoratesBothPartiesWithoutStatusFilter(t *testing.T) {
	store := newTestStore(t)
	seedQueryFixture(t, store)

	links := store.Links()
	if len(links) != 4 {
		t.Fatalf("expected all 4 links regardless of status, got %d", len(links))
	}
	byID := make(map[string]domain.LinkView, len(links))
	for _, l := range links {
		byID[l.LinkID] = l
	}
	if got := byID["l1"]; got.InvestorName != "Global Ventures Ltd" || got.BusinessName != "Kilifi Grains" {
		t.Fatalf("l1 decoration mismatch: %+v", got)
	}
	if got := byID["l2"]; got.Status != domain.LinkStatusEnded || got.BusinessName != "Nairobi Textiles" {
		t.Fatalf("ended link must still be listed and decorated: %+v", got)
	}
	if got := byID["l4"]; got.BusinessName != "" {
		t.Fatalf("missing business must leave decoration empty, got %q", got.BusinessName)
	}
}

func TestLinksByBusinessReturnsActiveOnly(t *testing.T) {
	store := newTestStore(t)
	seedQueryFixture(t, store)

	links := store.LinksByBusiness("b1")
	if len(links) != 2 {
		t.Fatalf("expected 2 active links for b1, got %d", len(links))
	}
	for _, l := range links {
		if l.Status != domain.LinkStatusActive {
			t.Fatalf("ended link leaked into business view: %+v", l)
		}
		if l.InvestorName == "" {
			t.Fatalf("expected investor name decoration on %q", l.LinkID)
		}
	}

	if got := store.LinksByBusiness("b2"); len(got) != 0 {
		t.Fatalf("b2's only link is ended, expected none, got %d", len(got))
	}
}

func TestLinksByInvestorDecoratesBusiness(t *testing.T) {
	store := newTestStore(t)
	seedQueryFixture(t, store)

	links := store.LinksByInvestor("i1")
	if len(links) != 1 {
		t.Fatalf("expected 1 active link for i1, got %d", len(links))
	}
	if links[0].BusinessName != "Kilifi Grains" || links[0].Location != "Kilifi Town" {
		t.Fatalf("business decoration mismatch: %+v", links[0])
	}
}

func TestReportsByBusinessNewestFirst(t *testing.T) {
	store := newTestStore(t)
	seedQueryFixture(t, store)

	reports := store.ReportsByBusiness("b1")
	if len(reports) != 2 {
		t.Fatalf("expected 2 reports, got %d", len(reports))
	}
	if reports[0].ReportID != "r2" || reports[1].ReportID != "r1" {
		t.Fatalf("expected newest first, got %q then %q", reports[0].ReportID, reports[1].ReportID)
	}
}

func TestAuditOrderingAndLatest(t *testing.T) {
	store := newTestStore(t)
	seedQueryFixture(t, store)

	audits := store.AuditsByBusiness("b1")
	if len(audits) != 2 || audits[0].AuditID != "a2" {
		t.Fatalf("expected newest audit first, got %+v", audits)
	}

	latest, ok := store.LatestAuditByBusiness("b1")
	if !ok || latest.AuditID != "a2" {
		t.Fatalf("expected a2 as latest audit, got %+v ok=%v", latest, ok)
	}
	if _, ok := store.LatestAuditByBusiness("b2"); ok {
		t.Fatal("unaudited business must report absent latest audit")
	}
}

func TestThreadsNewestFirstMessagesOldestFirst(t *testing.T) {
	store := newTestStore(t)
	seedQueryFixture(t, store)

	threads := store.ThreadsByBusiness("b1")
	if len(threads) != 2 || threads[0].ThreadID != "t2" {
		t.Fatalf("expected newest thread first, got %+v", threads)
	}

	messages := store.MessagesByThread("t1")
	if len(messages) != 2 || messages[0].MessageID != "m1" || messages[1].MessageID != "m2" {
		t.Fatalf("expected conversation order, got %+v", messages)
	}
}

func TestEvidenceByBusinessMostRecentUploadFirst(t *testing.T) {
	store := newTestStore(t)
	seedQueryFixture(t, store)

	evidence := store.EvidenceByBusiness("b1")
	if len(evidence) != 2 || evidence[0].EvidenceID != "e2" {
		t.Fatalf("expected most recent upload first, got %+v", evidence)
	}
}

func TestPortfolioJoinsLatestAudit(t *testing.T) {
	store := newTestStore(t)
	seedQueryFixture(t, store)

	portfolio := store.PortfolioByInvestor("i1")
	if len(portfolio) != 1 {
		t.Fatalf("expected 1 portfolio entry for i1, got %d", len(portfolio))
	}
	entry := portfolio[0]
	if entry.BusinessName != "Kilifi Grains" {
		t.Fatalf("portfolio decoration mismatch: %+v", entry)
	}
	if entry.LatestAudit == nil || entry.LatestAudit.AuditID != "a2" {
		t.Fatalf("expected latest audit a2 joined, got %+v", entry.LatestAudit)
	}

	// i2 holds an active link to a business with no audits.
	for _, e := range store.PortfolioByInvestor("i2") {
		if e.BusinessID == "ghost" && e.LatestAudit != nil {
			t.Fatalf("expected nil latest audit for unaudited business, got %+v", e.LatestAudit)
		}
	}
}

func TestDashboardStatsCounts(t *testing.T) {
	store := newTestStore(t)
	seedQueryFixture(t, store)

	stats := store.Stats()
	want := domain.DashboardStats{Businesses: 2, Investors: 2, Reports: 2, Audits: 2}
	if stats != want {
		t.Fatalf("stats mismatch: got %+v want %+v", stats, want)
	}
}
