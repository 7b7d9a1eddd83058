package valuation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/tokenfund/rebalancer/internal/domain"
	"github.com/tokenfund/rebalancer/internal/modules/oracle"
)

type stubLedger struct {
	balances map[string]decimal.Decimal // asset -> balance
	err      error
}

func (l stubLedger) BalanceOf(_ context.Context, _, asset string) (decimal.Decimal, error) {
	if l.err != nil {
		return decimal.Zero, l.err
	}
	return l.balances[asset], nil
}

func (l stubLedger) Transfer(_ context.Context, _, _, _ string, _ decimal.Decimal) error {
	return errors.New("not implemented")
}

type stubFeed struct {
	quotes map[string]domain.FeedQuote
}

func (f stubFeed) LatestQuote(_ context.Context, source string) (domain.FeedQuote, error) {
	q, ok := f.quotes[source]
	if !ok {
		return domain.FeedQuote{}, errors.New("unknown source")
	}
	return q, nil
}

func quote(price string) domain.FeedQuote {
	p, err := decimal.NewFromString(price)
	if err != nil {
		panic(err)
	}
	return domain.FeedQuote{Price: p, Decimals: 0, ObservedAt: time.Now().UTC()}
}

func testPortfolio() *domain.Portfolio {
	return &domain.Portfolio{
		ID:             "pf1",
		CustodyAccount: "custody:pf1",
		ThresholdBps:   500,
		Assets: []domain.AssetEntry{
			{AssetRef: "TOKA", TargetBps: 6000, LimitBps: 8000, PriceSource: "feed:a"},
			{AssetRef: "TOKB", TargetBps: 4000, LimitBps: 8000, PriceSource: "feed:b"},
		},
	}
}

func newTestEngine(ledger domain.Ledger, feed domain.PriceFeed) *Engine {
	adapter := oracle.NewAdapter(feed, 5*time.Minute, time.Second, zerolog.Nop())
	return NewEngine(ledger, adapter, zerolog.Nop())
}

func TestValuePortfolio_TargetsRelativeToObservedTotal(t *testing.T) {
	ledger := stubLedger{balances: map[string]decimal.Decimal{
		"TOKA": decimal.NewFromInt(300),
		"TOKB": decimal.NewFromInt(200),
	}}
	feed := stubFeed{quotes: map[string]domain.FeedQuote{
		"feed:a": quote("2"),   // TOKA worth 600
		"feed:b": quote("0.5"), // TOKB worth 100
	}}

	result, err := newTestEngine(ledger, feed).ValuePortfolio(context.Background(), testPortfolio())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := result.TotalValue.String(); got != "700" {
		t.Fatalf("total value = %s, want 700", got)
	}

	// Targets derive from the observed total, not any absolute figure:
	// 60% and 40% of 700.
	checks := []struct {
		idx     int
		current string
		target  string
		limit   string
	}{
		{0, "600", "420", "560"},
		{1, "100", "280", "560"},
	}
	for _, c := range checks {
		a := result.Assets[c.idx]
		if !a.CurrentValue.Equal(dec(c.current)) {
			t.Errorf("%s current = %s, want %s", a.AssetRef, a.CurrentValue, c.current)
		}
		if !a.TargetValue.Equal(dec(c.target)) {
			t.Errorf("%s target = %s, want %s", a.AssetRef, a.TargetValue, c.target)
		}
		if !a.LimitValue.Equal(dec(c.limit)) {
			t.Errorf("%s limit = %s, want %s", a.AssetRef, a.LimitValue, c.limit)
		}
	}
}

func TestValuePortfolio_FractionalPricesStayExact(t *testing.T) {
	ledger := stubLedger{balances: map[string]decimal.Decimal{
		"TOKA": dec("33.333333"),
		"TOKB": dec("66.666667"),
	}}
	feed := stubFeed{quotes: map[string]domain.FeedQuote{
		"feed:a": quote("1.000001"),
		"feed:b": quote("0.999999"),
	}}

	result, err := newTestEngine(ledger, feed).ValuePortfolio(context.Background(), testPortfolio())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// balance*price carries full precision, no binary float rounding.
	want := dec("33.333333").Mul(dec("1.000001")).Add(dec("66.666667").Mul(dec("0.999999")))
	if !result.TotalValue.Equal(want) {
		t.Fatalf("total value = %s, want %s", result.TotalValue, want)
	}
}

func TestValuePortfolio_MissingPriceFailsWholeValuation(t *testing.T) {
	ledger := stubLedger{balances: map[string]decimal.Decimal{
		"TOKA": decimal.NewFromInt(100),
		"TOKB": decimal.NewFromInt(100),
	}}
	feed := stubFeed{quotes: map[string]domain.FeedQuote{
		"feed:a": quote("1"),
		// feed:b missing
	}}

	_, err := newTestEngine(ledger, feed).ValuePortfolio(context.Background(), testPortfolio())
	if !errors.Is(err, domain.ErrPriceUnavailable) {
		t.Fatalf("expected ErrPriceUnavailable, got %v", err)
	}
}

func TestValuePortfolio_LedgerFailurePropagates(t *testing.T) {
	ledger := stubLedger{err: errors.New("ledger down")}
	feed := stubFeed{quotes: map[string]domain.FeedQuote{
		"feed:a": quote("1"),
		"feed:b": quote("1"),
	}}

	_, err := newTestEngine(ledger, feed).ValuePortfolio(context.Background(), testPortfolio())
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestDrift_Summary(t *testing.T) {
	result := domain.ValuationResult{
		PortfolioID: "pf1",
		TotalValue:  decimal.NewFromInt(1000),
		Assets: []domain.AssetValuation{
			{AssetRef: "TOKA", CurrentValue: dec("720"), TargetValue: dec("600")},
			{AssetRef: "TOKB", CurrentValue: dec("280"), TargetValue: dec("400")},
		},
	}

	summary := Drift(result)

	if summary.TrackedCount != 2 {
		t.Fatalf("tracked = %d, want 2", summary.TrackedCount)
	}
	// 720/1000 = 7200 bps actual vs 6000 target: +1200 drift.
	if got := summary.Assets[0].DriftBps; got != 1200 {
		t.Errorf("TOKA drift = %v, want 1200", got)
	}
	if got := summary.Assets[1].DriftBps; got != -1200 {
		t.Errorf("TOKB drift = %v, want -1200", got)
	}
	if summary.MaxAbsBps != 1200 {
		t.Errorf("max abs = %v, want 1200", summary.MaxAbsBps)
	}
	if summary.MeanAbsBps != 1200 {
		t.Errorf("mean abs = %v, want 1200", summary.MeanAbsBps)
	}
}

func TestDrift_ZeroTotal(t *testing.T) {
	summary := Drift(domain.ValuationResult{PortfolioID: "pf1", TotalValue: decimal.Zero})
	if summary.TrackedCount != 0 || len(summary.Assets) != 0 {
		t.Fatalf("expected empty summary, got %+v", summary)
	}
}

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}
