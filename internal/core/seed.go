package core

import (
	"context"
	"fmt"

	"assurecore/pkg/domain"
)

// Seed loads the demo dataset. Each collection is seeded only when empty, so
// repeated runs against the same database are no-ops.
func Seed(ctx context.Context, svc *Service) error {
	store := svc.Store()

	if len(store.ListBusinesses()) == 0 {
		if _, _, err := svc.CreateBusiness(ctx, domain.Business{
			BusinessID:       "b1",
			BusinessName:     "Mwa-Mkhulu Kilifi Co",
			BusinessType:     "Agriculture",
			PhysicalLocation: "Kilifi",
			County:           "Kilifi",
			Description:      "Sustainable coconut processing plant.",
			DateRegistered:   "2025-01-01",
			Status:           domain.BusinessStatusActive,
		}); err != nil {
			return fmt.Errorf("seed businesses: %w", err)
		}
	}

	if len(store.ListInvestors()) == 0 {
		notes := "Primary seed investor."
		if _, _, err := svc.CreateInvestor(ctx, domain.Investor{
			InvestorID:   "i1",
			FullName:     "Global Ventures Ltd",
			Country:      "UK",
			ContactEmail: "contact@globalventures.test",
			Notes:        &notes,
		}); err != nil {
			return fmt.Errorf("seed investors: %w", err)
		}
	}

	if len(store.Links()) == 0 {
		if _, _, err := svc.CreateLink(ctx, domain.InvestorBusinessLink{
			LinkID:           "l1",
			InvestorID:       "i1",
			BusinessID:       "b1",
			RelationshipType: domain.RelationshipPartner,
			StartDate:        "2025-02-01",
			Status:           domain.LinkStatusActive,
		}); err != nil {
			return fmt.Errorf("seed links: %w", err)
		}
	}

	if len(store.ListReports()) == 0 {
		revenue, expense, net := 0.0, 50000.0, -50000.0
		report, _, err := svc.CreateReport(ctx, domain.Report{
			ReportID:             "r1",
			BusinessID:           "b1",
			ReportingPeriodStart: "2025-01-01",
			ReportingPeriodEnd:   "2025-01-31",
			ReportType:           domain.ReportTypeMonthly,
			SummaryText:          "Operations started smoothly. Land preparation complete.",
			RevenueAmount:        &revenue,
			ExpenseAmount:        &expense,
			NetResult:            &net,
		})
		if err != nil {
			return fmt.Errorf("seed reports: %w", err)
		}
		// The demo report ships already reviewed with a comment on file.
		if _, _, err := svc.UpdateReportStatus(ctx, report.ReportID, domain.ReportStatusReviewed, "Good initial progress."); err != nil {
			return fmt.Errorf("seed reports: %w", err)
		}
	}
	return nil
}
