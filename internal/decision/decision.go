// Package decision holds the trading-decision value types exchanged
// between the LLM oracle, the risk manager, and the strategy
// orchestrator.
package decision

import "time"

// Action is one of the four moves the oracle may propose for a symbol.
type Action string

const (
	ActionLong  Action = "LONG"
	ActionShort Action = "SHORT"
	ActionHold  Action = "HOLD"
	ActionClose Action = "CLOSE"
)

// TradeDecision is a single per-symbol decision as proposed by the LLM
// oracle, before risk validation.
type TradeDecision struct {
	Symbol     string
	Action     Action
	Leverage   float64
	Quantity   float64
	StopLoss   float64
	TakeProfit float64
	Confidence float64
	Reasoning  string
}

// Hold builds a synthetic HOLD decision, used when the oracle's output
// is missing or unparseable for a symbol.
func Hold(symbol, reasoning string) TradeDecision {
	return TradeDecision{Symbol: symbol, Action: ActionHold, Reasoning: reasoning}
}

// MultiSymbolDecision is the full array of per-symbol decisions parsed
// from a single oracle response.
type MultiSymbolDecision struct {
	Decisions   []TradeDecision
	RawResponse string
	Timestamp   time.Time
}

// ValidatedDecision wraps an original TradeDecision with the risk
// manager's verdict: whether it was approved, and if so, the adjusted
// leverage/quantity actually allowed.
type ValidatedDecision struct {
	Original          TradeDecision
	Approved          bool
	AdjustedLeverage  float64
	AdjustedQuantity  float64
	RejectionReasons  []string
	MarginRequired    float64
	MaxLoss           float64
}

// FinalLeverage returns the leverage to apply, 0 if not approved.
func (v ValidatedDecision) FinalLeverage() float64 {
	if !v.Approved {
		return 0
	}
	return v.AdjustedLeverage
}

// FinalQuantity returns the quantity to apply, 0 if not approved.
func (v ValidatedDecision) FinalQuantity() float64 {
	if !v.Approved {
		return 0
	}
	return v.AdjustedQuantity
}

// AnalysisCycle is a full audit record for one orchestrator cycle: the
// oracle's raw output, every validated decision, and a before/after
// portfolio summary. Retained in memory only — persistence is an
// external collaborator's concern.
type AnalysisCycle struct {
	ID                 string
	Timestamp          time.Time
	LLMOutput          *MultiSymbolDecision
	ValidatedDecisions []ValidatedDecision
	PortfolioBefore    map[string]any
	PortfolioAfter     map[string]any
	Error              string
}
