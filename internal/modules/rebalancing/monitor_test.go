package rebalancing

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tokenfund/rebalancer/internal/domain"
)

func TestCheckLimit(t *testing.T) {
	now := time.Now().UTC()

	tests := []struct {
		name       string
		current    string
		limit      string
		wantBreach bool
		wantDelta  string
	}{
		{"under limit", "400", "500", false, ""},
		{"exactly at limit", "500", "500", false, ""},
		{"over limit", "720", "500", true, "220"},
		{"zero limit with holding", "42", "0", true, "42"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			breach := CheckLimit("pf1", domain.AssetValuation{
				AssetRef:     "TOKA",
				CurrentValue: dec(tt.current),
				LimitValue:   dec(tt.limit),
			}, now)

			if !tt.wantBreach {
				if breach != nil {
					t.Fatalf("expected no breach, got %+v", breach)
				}
				return
			}
			if breach == nil {
				t.Fatal("expected a breach")
			}
			if !breach.ForcedSellDelta.Equal(dec(tt.wantDelta)) {
				t.Errorf("expected forced delta %s, got %s", tt.wantDelta, breach.ForcedSellDelta)
			}
			if breach.Violation.PortfolioID != "pf1" || breach.Violation.AssetRef != "TOKA" {
				t.Errorf("violation mislabeled: %+v", breach.Violation)
			}
		})
	}
}

func TestResolve_CompliancePrecedence(t *testing.T) {
	breach := func(delta string) *LimitBreach {
		return &LimitBreach{ForcedSellDelta: dec(delta)}
	}

	tests := []struct {
		name       string
		dev        Deviation
		breach     *LimitBreach
		wantClass  Classification
		wantDelta  string
		wantForced bool
	}{
		{
			name:      "no breach passes through",
			dev:       Deviation{Classification: ClassifyBuy, Delta: dec("120")},
			wantClass: ClassifyBuy, wantDelta: "120",
		},
		{
			name:      "forced sell larger than threshold sell",
			dev:       Deviation{Classification: ClassifySell, Delta: dec("120")},
			breach:    breach("220"),
			wantClass: ClassifySell, wantDelta: "220", wantForced: true,
		},
		{
			name:      "threshold sell larger than forced sell",
			dev:       Deviation{Classification: ClassifySell, Delta: dec("300")},
			breach:    breach("220"),
			wantClass: ClassifySell, wantDelta: "300", wantForced: true,
		},
		{
			name:      "breach overrides buy",
			dev:       Deviation{Classification: ClassifyBuy, Delta: dec("50")},
			breach:    breach("10"),
			wantClass: ClassifySell, wantDelta: "10", wantForced: true,
		},
		{
			name:      "breach overrides no action",
			dev:       Deviation{Classification: ClassifyNoAction, Delta: decimal.Zero},
			breach:    breach("75"),
			wantClass: ClassifySell, wantDelta: "75", wantForced: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			class, delta, forced := Resolve(tt.dev, tt.breach)
			if class != tt.wantClass {
				t.Errorf("expected %s, got %s", tt.wantClass, class)
			}
			if !delta.Equal(dec(tt.wantDelta)) {
				t.Errorf("expected delta %s, got %s", tt.wantDelta, delta)
			}
			if forced != tt.wantForced {
				t.Errorf("expected forced=%v, got %v", tt.wantForced, forced)
			}
		})
	}
}
