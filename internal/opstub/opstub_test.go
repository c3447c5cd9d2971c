package opstub

import (
	"context"
	"testing"

	"github.com/ignite/outreach-orchestrator/internal/apperror"
)

func TestStubs_ReturnPermanentFailure(t *testing.T) {
	ctx := context.Background()

	cases := []struct {
		name string
		err  error
	}{
		{"LeadDiscoverer", func() error { _, err := LeadDiscoverer{}.DiscoverLeads(ctx, "src", nil, "t1", 10); return err }()},
		{"ProposalGenerator", ProposalGenerator{}.GenerateProposal(ctx, "l1", "t1", "cold_outreach", "")},
		{"OfferGenerator", OfferGenerator{}.GenerateOffer(ctx, "l1", "t1", "p1", "lead@example.com")},
		{"Screenshotter", Screenshotter{}.TakeScreenshot(ctx, "l1")},
		{"CompanySyncer", CompanySyncer{}.SyncCompanyByICO(ctx, "12345678")},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if tc.err == nil {
				t.Fatal("expected a not-configured error, got nil")
			}
			if apperror.KindOf(tc.err) != apperror.PermanentFailure {
				t.Errorf("kind = %v, want PermanentFailure", apperror.KindOf(tc.err))
			}
		})
	}
}
