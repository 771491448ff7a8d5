// Package orchestrator implements the strategy engine (C5): the
// component that owns the portfolio and risk manager, turns market
// snapshots into oracle prompts, and turns oracle output into validated,
// executed trades.
package orchestrator

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/pavank-hl/agentc-trading-go/config"
	"github.com/pavank-hl/agentc-trading-go/internal/decision"
	"github.com/pavank-hl/agentc-trading-go/internal/indicator"
	"github.com/pavank-hl/agentc-trading-go/internal/marketdata"
	"github.com/pavank-hl/agentc-trading-go/internal/oracle"
	"github.com/pavank-hl/agentc-trading-go/internal/portfolio"
	"github.com/pavank-hl/agentc-trading-go/internal/risk"
)

// Engine orchestrates one analysis cycle: snapshot → indicators →
// oracle → risk validation → execution.
//
// The portfolio is owned exclusively by the cycle driver's goroutine —
// only that goroutine touches it, here or through Portfolio(). Anything that
// needs portfolio state from another goroutine (the status API) reads
// statusSummary instead, a plain snapshot swapped in under statusMu at
// the end of every mutation, so a concurrent read never observes a
// torn slice or races an append.
type Engine struct {
	cfg       config.TradingConfig
	portfolio *portfolio.State
	risk      *risk.Manager
	oracle    oracle.Oracle
	logger    zerolog.Logger

	cycles []decision.AnalysisCycle

	pendingReports   map[string]indicator.Report
	pendingPrices    map[string]float64
	pendingOracleErr string

	statusMu      sync.RWMutex
	statusSummary map[string]any
}

// New constructs an Engine with its own portfolio and risk manager.
func New(cfg config.TradingConfig, o oracle.Oracle, logger zerolog.Logger) *Engine {
	e := &Engine{
		cfg:       cfg,
		portfolio: portfolio.NewState(cfg.InitialBudget),
		risk:      risk.New(cfg.Risk, cfg.LeverageScale),
		oracle:    o,
		logger:    logger.With().Str("component", "orchestrator").Logger(),
	}
	e.publishStatus(nil)
	return e
}

// Portfolio exposes the owned portfolio state. Only the cycle driver's
// goroutine may call through it; any other goroutine must use Status
// instead, which is safe to call concurrently with a running cycle.
func (e *Engine) Portfolio() *portfolio.State {
	return e.portfolio
}

// Cycles returns the full in-memory audit log of analysis cycles.
// Like Portfolio, this must only be called from the cycle driver's
// goroutine.
func (e *Engine) Cycles() []decision.AnalysisCycle {
	return e.cycles
}

// Status returns the most recently published portfolio summary, safe
// to call from any goroutine (e.g. the status API) while a cycle is in
// flight on the driver goroutine.
func (e *Engine) Status() map[string]any {
	e.statusMu.RLock()
	defer e.statusMu.RUnlock()
	return e.statusSummary
}

// publishStatus computes a fresh portfolio summary and atomically swaps
// it in as the value Status returns. Must be called by the cycle driver
// goroutine after every portfolio mutation (SL/TP sweep, cycle
// execution) so Status never lags behind by more than one mutation.
func (e *Engine) publishStatus(prices map[string]float64) {
	summary := e.portfolio.Summary(prices)
	summary["cycles_completed"] = len(e.cycles)

	e.statusMu.Lock()
	e.statusSummary = summary
	e.statusMu.Unlock()
}

// PrepareAnalysis computes indicator reports for every snapshot, stashes
// them for ProcessResponse, and returns the (system, user) prompt pair
// to send to the oracle.
func (e *Engine) PrepareAnalysis(snapshots map[string]*marketdata.MarketSnapshot, prices map[string]float64) (string, string) {
	reports := make(map[string]indicator.Report, len(snapshots))
	for symbol, snap := range snapshots {
		reports[symbol] = indicator.Compute(snap)
	}

	userPrompt := e.buildUserPrompt(reports, prices)

	e.pendingReports = reports
	e.pendingPrices = prices

	return systemPrompt, userPrompt
}

// RunCycle is the convenience entry point wiring PrepareAnalysis,
// the oracle call, and ProcessResponse together for one cycle.
func (e *Engine) RunCycle(ctx context.Context, snapshots map[string]*marketdata.MarketSnapshot, prices map[string]float64) []decision.ValidatedDecision {
	system, user := e.PrepareAnalysis(snapshots, prices)

	text, err := e.oracle.Complete(ctx, system, user)
	if err != nil {
		e.logger.Error().Err(err).Msg("oracle call failed, defaulting to HOLD")
		e.pendingOracleErr = err.Error()
		text = ""
	}
	return e.ProcessResponse(text)
}

// ProcessResponse parses the oracle's raw text, validates every decision
// through the risk manager, executes the approved ones, and records the
// resulting AnalysisCycle.
func (e *Engine) ProcessResponse(text string) []decision.ValidatedDecision {
	reports := e.pendingReports
	prices := e.pendingPrices

	oracleErr := e.pendingOracleErr
	e.pendingOracleErr = ""

	cycle := decision.AnalysisCycle{
		ID:              uuid.New().String(),
		Timestamp:       time.Now(),
		PortfolioBefore: e.portfolio.Summary(prices),
		Error:           oracleErr,
	}

	multi, parseErr := e.parseResponse(text)
	cycle.LLMOutput = &multi
	if parseErr != "" {
		if cycle.Error != "" {
			cycle.Error += "; " + parseErr
		} else {
			cycle.Error = parseErr
		}
	}

	validated := make([]decision.ValidatedDecision, 0, len(multi.Decisions))
	for _, d := range multi.Decisions {
		price, havePrice := prices[d.Symbol]
		report, haveReport := reports[d.Symbol]
		var v decision.ValidatedDecision
		if !havePrice || !haveReport || price <= 0 {
			v = decision.ValidatedDecision{Original: d, RejectionReasons: []string{"No price/indicator data"}}
		} else {
			v = e.risk.ValidateDecision(d, e.portfolio, report, price)
		}
		validated = append(validated, v)
		e.logger.Info().
			Str("symbol", d.Symbol).
			Str("action", string(d.Action)).
			Bool("approved", v.Approved).
			Float64("leverage", v.FinalLeverage()).
			Float64("quantity", v.FinalQuantity()).
			Strs("reasons", v.RejectionReasons).
			Msg("decision validated")
	}

	e.executeDecisions(validated, prices)

	cycle.ValidatedDecisions = validated
	cycle.PortfolioAfter = e.portfolio.Summary(prices)
	e.cycles = append(e.cycles, cycle)
	e.publishStatus(prices)

	return validated
}

// CheckStopLossTakeProfit sweeps every open position against the latest
// prices in insertion order and closes any that cross SL or TP. If both
// would fire in the same tick, SL wins. Returns human-readable messages
// for each close.
func (e *Engine) CheckStopLossTakeProfit(prices map[string]float64) []string {
	var messages []string

	type closeOrder struct {
		pos    *portfolio.Position
		price  float64
		reason string
	}
	var toClose []closeOrder

	for _, pos := range e.portfolio.OpenPositions {
		price, ok := prices[pos.Symbol]
		if !ok {
			continue
		}
		switch {
		case pos.ShouldStopLoss(price):
			toClose = append(toClose, closeOrder{pos, price, "SL"})
		case pos.ShouldTakeProfit(price):
			toClose = append(toClose, closeOrder{pos, price, "TP"})
		}
	}

	for _, c := range toClose {
		trade := e.portfolio.ClosePosition(c.pos, c.price, c.reason, time.Now())
		msg := fmt.Sprintf("Closed %s %s @ %.2f (%s) PnL: $%.2f", c.pos.Symbol, c.pos.Side, c.price, c.reason, trade.PnL)
		messages = append(messages, msg)
		e.logger.Info().Msg(msg)
	}

	if len(toClose) > 0 {
		e.publishStatus(prices)
	}

	return messages
}

func (e *Engine) executeDecisions(validated []decision.ValidatedDecision, prices map[string]float64) {
	for _, v := range validated {
		if !v.Approved {
			continue
		}
		d := v.Original

		switch d.Action {
		case decision.ActionClose:
			price := prices[d.Symbol]
			for _, pos := range e.portfolio.PositionsForSymbol(d.Symbol) {
				trade := e.portfolio.ClosePosition(pos, price, "LLM_CLOSE", time.Now())
				e.logger.Info().
					Str("symbol", pos.Symbol).
					Str("side", string(pos.Side)).
					Float64("price", price).
					Float64("pnl", trade.PnL).
					Msg("closed position")
			}

		case decision.ActionLong, decision.ActionShort:
			price, ok := prices[d.Symbol]
			if !ok || price <= 0 {
				continue
			}
			notional := v.AdjustedQuantity * price
			margin := notional
			if v.AdjustedLeverage > 0 {
				margin = notional / v.AdjustedLeverage
			}

			pos := &portfolio.Position{
				ID:         uuid.New().String(),
				Symbol:     d.Symbol,
				Side:       d.Action,
				EntryPrice: price,
				Quantity:   v.AdjustedQuantity,
				Leverage:   v.AdjustedLeverage,
				StopLoss:   d.StopLoss,
				TakeProfit: d.TakeProfit,
				Margin:     margin,
				OpenedAt:   time.Now(),
				Confidence: d.Confidence,
				Reasoning:  d.Reasoning,
			}
			e.portfolio.OpenPosition(pos)
			e.logger.Info().
				Str("symbol", d.Symbol).
				Str("side", string(d.Action)).
				Float64("price", price).
				Float64("qty", v.AdjustedQuantity).
				Float64("leverage", v.AdjustedLeverage).
				Float64("margin", margin).
				Msg("opened position")
		}
	}
}

// parseResponse turns the oracle's raw text into a MultiSymbolDecision,
// tolerant of markdown fences and text around the JSON payload, and
// guarantees exactly one decision per configured symbol. parseErr is
// non-empty when the text could not be parsed at all, for the caller to
// record on the cycle's audit trail.
func (e *Engine) parseResponse(text string) (multi decision.MultiSymbolDecision, parseErr string) {
	type wireDecision struct {
		Symbol     string  `json:"symbol"`
		Action     string  `json:"action"`
		Leverage   float64 `json:"leverage"`
		Quantity   float64 `json:"quantity"`
		StopLoss   float64 `json:"stop_loss"`
		TakeProfit float64 `json:"take_profit"`
		Confidence float64 `json:"confidence"`
		Reasoning  string  `json:"reasoning"`
	}
	var payload struct {
		Decisions []wireDecision `json:"decisions"`
	}

	if err := oracle.ExtractJSONObject(text, &payload); err != nil {
		e.logger.Error().Err(err).Str("response", truncate(text, 200)).Msg("failed to parse oracle response")
		decisions := make([]decision.TradeDecision, 0, len(e.cfg.Symbols))
		for _, s := range e.cfg.Symbols {
			decisions = append(decisions, decision.Hold(s, "Parse error — defaulting to HOLD"))
		}
		return decision.MultiSymbolDecision{Decisions: decisions, RawResponse: text, Timestamp: time.Now()}, err.Error()
	}

	configured := make(map[string]bool, len(e.cfg.Symbols))
	for _, s := range e.cfg.Symbols {
		configured[s] = true
	}

	seen := make(map[string]bool, len(payload.Decisions))
	decisions := make([]decision.TradeDecision, 0, len(payload.Decisions))
	for _, wd := range payload.Decisions {
		if !configured[wd.Symbol] {
			e.logger.Warn().Str("symbol", wd.Symbol).Msg("dropping decision for unknown symbol")
			continue
		}
		if seen[wd.Symbol] {
			continue
		}
		action := decision.Action(strings.ToUpper(wd.Action))
		switch action {
		case decision.ActionLong, decision.ActionShort, decision.ActionHold, decision.ActionClose:
		default:
			action = decision.ActionHold
		}
		decisions = append(decisions, decision.TradeDecision{
			Symbol:     wd.Symbol,
			Action:     action,
			Leverage:   wd.Leverage,
			Quantity:   wd.Quantity,
			StopLoss:   wd.StopLoss,
			TakeProfit: wd.TakeProfit,
			Confidence: wd.Confidence,
			Reasoning:  wd.Reasoning,
		})
		seen[wd.Symbol] = true
	}

	for _, s := range e.cfg.Symbols {
		if !seen[s] {
			decisions = append(decisions, decision.Hold(s, "No decision provided"))
		}
	}

	return decision.MultiSymbolDecision{Decisions: decisions, RawResponse: text, Timestamp: time.Now()}, ""
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
