// Package portfolio holds the paper-trading position and equity model:
// Position, ClosedTrade, and the PortfolioState that owns them.
package portfolio

import (
	"time"

	"github.com/pavank-hl/agentc-trading-go/internal/decision"
)

// Position is an open paper position. Never mutated in place — it is
// destroyed (moved into a ClosedTrade) when SL/TP hits or an approved
// CLOSE arrives.
type Position struct {
	ID         string
	Symbol     string
	Side       decision.Action // LONG or SHORT
	EntryPrice float64
	Quantity   float64
	Leverage   float64
	StopLoss   float64
	TakeProfit float64
	Margin     float64
	OpenedAt   time.Time
	Confidence float64
	Reasoning  string
}

// Notional is quantity * entry price.
func (p Position) Notional() float64 {
	return p.Quantity * p.EntryPrice
}

// UnrealizedPnL computes the mark-to-market PnL at currentPrice.
func (p Position) UnrealizedPnL(currentPrice float64) float64 {
	switch p.Side {
	case decision.ActionLong:
		return p.Quantity * (currentPrice - p.EntryPrice)
	case decision.ActionShort:
		return p.Quantity * (p.EntryPrice - currentPrice)
	default:
		return 0
	}
}

// UnrealizedPnLPct expresses UnrealizedPnL as a percentage of margin.
func (p Position) UnrealizedPnLPct(currentPrice float64) float64 {
	if p.Margin == 0 {
		return 0
	}
	return p.UnrealizedPnL(currentPrice) / p.Margin * 100
}

// ShouldStopLoss reports whether currentPrice has crossed the stop-loss.
func (p Position) ShouldStopLoss(currentPrice float64) bool {
	if p.StopLoss <= 0 {
		return false
	}
	switch p.Side {
	case decision.ActionLong:
		return currentPrice <= p.StopLoss
	case decision.ActionShort:
		return currentPrice >= p.StopLoss
	default:
		return false
	}
}

// ShouldTakeProfit reports whether currentPrice has crossed the
// take-profit.
func (p Position) ShouldTakeProfit(currentPrice float64) bool {
	if p.TakeProfit <= 0 {
		return false
	}
	switch p.Side {
	case decision.ActionLong:
		return currentPrice >= p.TakeProfit
	case decision.ActionShort:
		return currentPrice <= p.TakeProfit
	default:
		return false
	}
}

// ClosedTrade is a completed trade with realized PnL.
type ClosedTrade struct {
	Symbol      string
	Side        decision.Action
	EntryPrice  float64
	ExitPrice   float64
	Quantity    float64
	Leverage    float64
	Margin      float64
	PnL         float64
	PnLPct      float64
	OpenedAt    time.Time
	ClosedAt    time.Time
	CloseReason string // "SL", "TP", "LLM_CLOSE"
}

// IsWin reports whether the trade was profitable.
func (c ClosedTrade) IsWin() bool {
	return c.PnL > 0
}

// State is the full in-memory portfolio across all symbols.
type State struct {
	InitialBudget float64
	CurrentBudget float64 // equity, updated only by realized PnL
	PeakBudget    float64 // monotonic high-water mark of CurrentBudget

	OpenPositions []*Position
	ClosedTrades  []ClosedTrade
}

// NewState constructs a fresh portfolio with the given starting budget.
func NewState(initialBudget float64) *State {
	return &State{
		InitialBudget: initialBudget,
		CurrentBudget: initialBudget,
		PeakBudget:    initialBudget,
	}
}

// TotalMarginInUse sums margin across all open positions.
func (s *State) TotalMarginInUse() float64 {
	var sum float64
	for _, p := range s.OpenPositions {
		sum += p.Margin
	}
	return sum
}

// AvailableBudget is CurrentBudget minus margin currently in use.
func (s *State) AvailableBudget() float64 {
	return s.CurrentBudget - s.TotalMarginInUse()
}

// TotalUnrealizedPnL sums unrealized PnL across open positions given a
// symbol->price map; positions with no price default to their entry
// price (zero PnL contribution).
func (s *State) TotalUnrealizedPnL(prices map[string]float64) float64 {
	var sum float64
	for _, p := range s.OpenPositions {
		price, ok := prices[p.Symbol]
		if !ok {
			price = p.EntryPrice
		}
		sum += p.UnrealizedPnL(price)
	}
	return sum
}

// TotalTrades is the number of closed trades.
func (s *State) TotalTrades() int {
	return len(s.ClosedTrades)
}

// WinningTrades is the number of closed trades with positive PnL.
func (s *State) WinningTrades() int {
	n := 0
	for _, t := range s.ClosedTrades {
		if t.IsWin() {
			n++
		}
	}
	return n
}

// WinRate is WinningTrades / TotalTrades, 0 if no trades yet.
func (s *State) WinRate() float64 {
	if s.TotalTrades() == 0 {
		return 0
	}
	return float64(s.WinningTrades()) / float64(s.TotalTrades())
}

// WinRateLastN is the win rate over the most recent n closed trades (or
// all of them if fewer than n exist). 0 if there are none.
func (s *State) WinRateLastN(n int) float64 {
	recent := lastN(s.ClosedTrades, n)
	if len(recent) == 0 {
		return 0
	}
	wins := 0
	for _, t := range recent {
		if t.IsWin() {
			wins++
		}
	}
	return float64(wins) / float64(len(recent))
}

// LosingStreak is the count of consecutive non-winning closed trades
// from the tail.
func (s *State) LosingStreak() int {
	streak := 0
	for i := len(s.ClosedTrades) - 1; i >= 0; i-- {
		if !s.ClosedTrades[i].IsWin() {
			streak++
		} else {
			break
		}
	}
	return streak
}

// DrawdownFromPeak is (peak - current) / peak, 0 if peak is 0.
func (s *State) DrawdownFromPeak() float64 {
	if s.PeakBudget == 0 {
		return 0
	}
	return (s.PeakBudget - s.CurrentBudget) / s.PeakBudget
}

func (s *State) updatePeak() {
	if s.CurrentBudget > s.PeakBudget {
		s.PeakBudget = s.CurrentBudget
	}
}

// ClosePosition closes an open position at exitPrice with the given
// reason, records the resulting ClosedTrade, updates equity and the
// peak high-water mark, and removes the position from OpenPositions.
func (s *State) ClosePosition(pos *Position, exitPrice float64, reason string, closedAt time.Time) ClosedTrade {
	pnl := pos.UnrealizedPnL(exitPrice)
	pnlPct := pos.UnrealizedPnLPct(exitPrice)

	trade := ClosedTrade{
		Symbol:      pos.Symbol,
		Side:        pos.Side,
		EntryPrice:  pos.EntryPrice,
		ExitPrice:   exitPrice,
		Quantity:    pos.Quantity,
		Leverage:    pos.Leverage,
		Margin:      pos.Margin,
		PnL:         pnl,
		PnLPct:      pnlPct,
		OpenedAt:    pos.OpenedAt,
		ClosedAt:    closedAt,
		CloseReason: reason,
	}

	s.CurrentBudget += pnl
	s.ClosedTrades = append(s.ClosedTrades, trade)
	s.removePosition(pos)
	s.updatePeak()
	return trade
}

func (s *State) removePosition(pos *Position) {
	for i, p := range s.OpenPositions {
		if p == pos {
			s.OpenPositions = append(s.OpenPositions[:i], s.OpenPositions[i+1:]...)
			return
		}
	}
}

// OpenPosition adds a new position to the portfolio. Margin accounting
// for it lives in OpenPositions; CurrentBudget is untouched (it tracks
// realized equity only).
func (s *State) OpenPosition(pos *Position) {
	s.OpenPositions = append(s.OpenPositions, pos)
}

// PositionsForSymbol returns all open positions for the given symbol.
func (s *State) PositionsForSymbol(symbol string) []*Position {
	var out []*Position
	for _, p := range s.OpenPositions {
		if p.Symbol == symbol {
			out = append(out, p)
		}
	}
	return out
}

// Summary returns a JSON-friendly snapshot of portfolio state, used both
// for prompt-building and for the status API.
func (s *State) Summary(prices map[string]float64) map[string]any {
	openPositions := make([]map[string]any, 0, len(s.OpenPositions))
	for _, p := range s.OpenPositions {
		price, ok := prices[p.Symbol]
		if !ok {
			price = p.EntryPrice
		}
		openPositions = append(openPositions, map[string]any{
			"symbol":         p.Symbol,
			"side":           string(p.Side),
			"entry":          p.EntryPrice,
			"qty":            p.Quantity,
			"leverage":       p.Leverage,
			"sl":             p.StopLoss,
			"tp":             p.TakeProfit,
			"unrealized_pnl": p.UnrealizedPnL(price),
		})
	}

	recentTrades := make([]map[string]any, 0, 5)
	for _, t := range lastN(s.ClosedTrades, 5) {
		recentTrades = append(recentTrades, map[string]any{
			"symbol": t.Symbol,
			"side":   string(t.Side),
			"pnl":    t.PnL,
			"reason": t.CloseReason,
		})
	}

	return map[string]any{
		"initial_budget":     s.InitialBudget,
		"current_budget":     s.CurrentBudget,
		"available_budget":   s.AvailableBudget(),
		"margin_in_use":      s.TotalMarginInUse(),
		"unrealized_pnl":     s.TotalUnrealizedPnL(prices),
		"total_trades":       s.TotalTrades(),
		"win_rate":           s.WinRate(),
		"losing_streak":      s.LosingStreak(),
		"drawdown_from_peak": s.DrawdownFromPeak(),
		"open_positions":     openPositions,
		"recent_trades":      recentTrades,
	}
}

func lastN[T any](xs []T, n int) []T {
	if n <= 0 || len(xs) == 0 {
		return nil
	}
	if len(xs) <= n {
		return xs
	}
	return xs[len(xs)-n:]
}
