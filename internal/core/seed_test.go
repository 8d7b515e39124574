package core

import (
	"context"
	"testing"

	"assurecore/pkg/domain"
)

func TestSeedLoadsDemoDataset(t *testing.T) {
	svc, store := newTestService(t)
	if err := Seed(context.Background(), svc); err != nil {
		t.Fatalf("Seed: %v", err)
	}

	b, ok := store.GetBusiness("b1")
	if !ok {
		t.Fatal("expected seeded business b1")
	}
	if b.BusinessName != "Mwa-Mkhulu Kilifi Co" || b.County != "Kilifi" {
		t.Fatalf("unexpected seeded business %+v", b)
	}
	if _, ok := store.GetInvestor("i1"); !ok {
		t.Fatal("expected seeded investor i1")
	}
	links := store.LinksByInvestor("i1")
	if len(links) != 1 || links[0].BusinessID != "b1" {
		t.Fatalf("unexpected seeded links %+v", links)
	}

	report, ok := store.GetReport("r1")
	if !ok {
		t.Fatal("expected seeded report r1")
	}
	if report.Status != domain.ReportStatusReviewed {
		t.Fatalf("expected seeded report to be reviewed, got %s", report.Status)
	}
	if report.AdminComments == nil || *report.AdminComments != "Good initial progress." {
		t.Fatalf("expected seeded admin comment, got %v", report.AdminComments)
	}
	if report.NetResult == nil || *report.NetResult != -50000 {
		t.Fatalf("expected seeded net result -50000, got %v", report.NetResult)
	}
}

func TestSeedIsIdempotent(t *testing.T) {
	svc, store := newTestService(t)
	for i := 0; i < 3; i++ {
		if err := Seed(context.Background(), svc); err != nil {
			t.Fatalf("Seed run %d: %v", i+1, err)
		}
	}

	stats := store.Stats()
	if stats.Businesses != 1 || stats.Investors != 1 || stats.Reports != 1 {
		t.Fatalf("repeated seeding duplicated rows: %+v", stats)
	}
	if links := store.Links(); len(links) != 1 {
		t.Fatalf("repeated seeding duplicated links: %d", len(links))
	}
}

func TestSeedSkipsPopulatedCollections(t *testing.T) {
	svc, store := newTestService(t)
	if _, _, err := svc.CreateBusiness(context.Background(), domain.Business{
		BusinessName:   "Existing Co",
		BusinessType:   "Retail",
		DateRegistered: "2025-05-01",
		Status:         domain.BusinessStatusActive,
	}); err != nil {
		t.Fatalf("CreateBusiness: %v", err)
	}

	if err := Seed(context.Background(), svc); err != nil {
		t.Fatalf("Seed: %v", err)
	}

	if _, ok := store.GetBusiness("b1"); ok {
		t.Fatal("seed must not add b1 when businesses already exist")
	}
	if _, ok := store.GetInvestor("i1"); !ok {
		t.Fatal("empty investor collection should still be seeded")
	}
}
