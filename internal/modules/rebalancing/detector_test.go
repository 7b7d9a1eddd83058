package rebalancing

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/tokenfund/rebalancer/internal/domain"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestClassify_BandBoundariesAreStrict(t *testing.T) {
	// target 600, threshold 500 bps -> band 30, bounds [570, 630]
	tests := []struct {
		name      string
		current   string
		wantClass Classification
		wantDelta string
	}{
		{"well above band", "720", ClassifySell, "120"},
		{"just above band", "630.000000000000000001", ClassifySell, "30.000000000000000001"},
		{"exactly upper bound", "630", ClassifyNoAction, "0"},
		{"inside band high", "629.999999999999999999", ClassifyNoAction, "0"},
		{"at target", "600", ClassifyNoAction, "0"},
		{"inside band low", "570.000000000000000001", ClassifyNoAction, "0"},
		{"exactly lower bound", "570", ClassifyNoAction, "0"},
		{"just below band", "569.999999999999999999", ClassifyBuy, "30.000000000000000001"},
		{"well below band", "280", ClassifyBuy, "320"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dev := Classify(domain.AssetValuation{
				AssetRef:     "TOKA",
				CurrentValue: dec(tt.current),
				TargetValue:  dec("600"),
			}, 500)

			if dev.Classification != tt.wantClass {
				t.Errorf("expected %s, got %s", tt.wantClass, dev.Classification)
			}
			if !dev.Delta.Equal(dec(tt.wantDelta)) {
				t.Errorf("expected delta %s, got %s", tt.wantDelta, dev.Delta)
			}
		})
	}
}

func TestClassify_ZeroThresholdStillStrict(t *testing.T) {
	// With a zero band, a value exactly at target is NoAction.
	dev := Classify(domain.AssetValuation{
		CurrentValue: dec("600"),
		TargetValue:  dec("600"),
	}, 0)
	if dev.Classification != ClassifyNoAction {
		t.Errorf("expected NoAction at exact target, got %s", dev.Classification)
	}

	dev = Classify(domain.AssetValuation{
		CurrentValue: dec("600.000000000000000001"),
		TargetValue:  dec("600"),
	}, 0)
	if dev.Classification != ClassifySell {
		t.Errorf("expected Sell just above target, got %s", dev.Classification)
	}
}

func TestClassify_ZeroTargetSellsEverything(t *testing.T) {
	// A retired asset (target 0) with any holding classifies as Sell for
	// its full current value.
	dev := Classify(domain.AssetValuation{
		CurrentValue: dec("42"),
		TargetValue:  decimal.Zero,
	}, 500)
	if dev.Classification != ClassifySell {
		t.Fatalf("expected Sell, got %s", dev.Classification)
	}
	if !dev.Delta.Equal(dec("42")) {
		t.Errorf("expected delta 42, got %s", dev.Delta)
	}
}
