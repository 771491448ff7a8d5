package portfolio

import (
	"testing"
	"time"

	"github.com/pavank-hl/agentc-trading-go/internal/decision"
)

func TestLongUnrealizedPnL(t *testing.T) {
	p := Position{Side: decision.ActionLong, EntryPrice: 100, Quantity: 2, Margin: 50}
	if got := p.UnrealizedPnL(110); got != 20 {
		t.Errorf("want 20, got %v", got)
	}
	if got := p.UnrealizedPnLPct(110); got != 40 {
		t.Errorf("want 40, got %v", got)
	}
}

func TestShortUnrealizedPnL(t *testing.T) {
	p := Position{Side: decision.ActionShort, EntryPrice: 100, Quantity: 2, Margin: 50}
	if got := p.UnrealizedPnL(90); got != 20 {
		t.Errorf("want 20, got %v", got)
	}
	if got := p.UnrealizedPnL(110); got != -20 {
		t.Errorf("want -20, got %v", got)
	}
}

func TestStopLossTakeProfitTriggers(t *testing.T) {
	long := Position{Side: decision.ActionLong, StopLoss: 95, TakeProfit: 110}
	if !long.ShouldStopLoss(94) {
		t.Errorf("expected long SL trigger at 94")
	}
	if long.ShouldStopLoss(96) {
		t.Errorf("expected no long SL trigger at 96")
	}
	if !long.ShouldTakeProfit(111) {
		t.Errorf("expected long TP trigger at 111")
	}

	short := Position{Side: decision.ActionShort, StopLoss: 105, TakeProfit: 90}
	if !short.ShouldStopLoss(106) {
		t.Errorf("expected short SL trigger at 106")
	}
	if !short.ShouldTakeProfit(89) {
		t.Errorf("expected short TP trigger at 89")
	}
}

func TestClosePositionUpdatesEquityAndPeak(t *testing.T) {
	s := NewState(1000)
	pos := &Position{Symbol: "BTCUSDT", Side: decision.ActionLong, EntryPrice: 100, Quantity: 1, Margin: 20, OpenedAt: time.Now()}
	s.OpenPosition(pos)

	if s.TotalMarginInUse() != 20 {
		t.Fatalf("want margin 20, got %v", s.TotalMarginInUse())
	}

	trade := s.ClosePosition(pos, 120, "TP", time.Now())
	if trade.PnL != 20 {
		t.Errorf("want pnl 20, got %v", trade.PnL)
	}
	if s.CurrentBudget != 1020 {
		t.Errorf("want budget 1020, got %v", s.CurrentBudget)
	}
	if s.PeakBudget != 1020 {
		t.Errorf("want peak 1020, got %v", s.PeakBudget)
	}
	if len(s.OpenPositions) != 0 {
		t.Errorf("expected position removed, got %d remaining", len(s.OpenPositions))
	}
}

func TestDrawdownFromPeak(t *testing.T) {
	s := NewState(1000)
	s.PeakBudget = 1200
	s.CurrentBudget = 900
	want := (1200.0 - 900.0) / 1200.0
	if got := s.DrawdownFromPeak(); got != want {
		t.Errorf("want %v, got %v", want, got)
	}
}

func TestWinRateLastNAndLosingStreak(t *testing.T) {
	s := NewState(1000)
	results := []float64{10, -5, -3, 8, -2, -1}
	for _, pnl := range results {
		s.ClosedTrades = append(s.ClosedTrades, ClosedTrade{PnL: pnl})
	}

	if got := s.WinRateLastN(3); got != 1.0/3.0 {
		t.Errorf("want 1/3, got %v", got)
	}
	if got := s.LosingStreak(); got != 2 {
		t.Errorf("want losing streak 2, got %v", got)
	}
	if got := s.WinRate(); got != 2.0/6.0 {
		t.Errorf("want 2/6, got %v", got)
	}
}

func TestWinRateLastNWithFewerTradesThanN(t *testing.T) {
	s := NewState(1000)
	s.ClosedTrades = append(s.ClosedTrades, ClosedTrade{PnL: 5}, ClosedTrade{PnL: -5})
	if got := s.WinRateLastN(20); got != 0.5 {
		t.Errorf("want 0.5, got %v", got)
	}
}

func TestPositionsForSymbol(t *testing.T) {
	s := NewState(1000)
	s.OpenPosition(&Position{Symbol: "BTCUSDT"})
	s.OpenPosition(&Position{Symbol: "ETHUSDT"})
	s.OpenPosition(&Position{Symbol: "BTCUSDT"})

	got := s.PositionsForSymbol("BTCUSDT")
	if len(got) != 2 {
		t.Errorf("want 2 BTCUSDT positions, got %d", len(got))
	}
}
