// Package risk implements the graduated reserve budget system and the
// ordered validation pipeline that has final veto power over every
// trade decision the oracle proposes.
package risk

import (
	"fmt"
	"math"

	"github.com/pavank-hl/agentc-trading-go/config"
	"github.com/pavank-hl/agentc-trading-go/internal/decision"
	"github.com/pavank-hl/agentc-trading-go/internal/indicator"
	"github.com/pavank-hl/agentc-trading-go/internal/portfolio"
)

// BudgetZones is the computed split of current budget into free,
// guarded, floor, and lockout zones, plus the amount actually
// accessible right now given performance-gated unlocks.
type BudgetZones struct {
	Total      float64
	Free       float64
	Guarded    float64
	Floor      float64
	Lockout    float64
	Accessible float64
}

// Manager holds the risk configuration and runs budget-zone computation
// and decision validation against it. Stateless across calls — all
// state it reads lives in the portfolio.State and indicator.Report
// passed to it.
type Manager struct {
	cfg config.RiskConfig
	lev config.LeverageScale
}

// New constructs a Manager from risk and leverage-scale configuration.
func New(risk config.RiskConfig, leverageScale config.LeverageScale) *Manager {
	return &Manager{cfg: risk, lev: leverageScale}
}

// ComputeBudgetZones determines how much budget is accessible given the
// portfolio's current equity and trading track record.
func (m *Manager) ComputeBudgetZones(p *portfolio.State) BudgetZones {
	total := p.CurrentBudget
	r := m.cfg.Reserve

	zones := BudgetZones{
		Total:   total,
		Free:    total * r.FreePct,
		Guarded: total * r.GuardedPct,
		Floor:   total * r.FloorPct,
		Lockout: total * r.LockoutPct,
	}

	zones.Accessible = zones.Free
	if m.guardedUnlocked(p) {
		zones.Accessible += zones.Guarded
	}
	if m.floorUnlocked(p) {
		zones.Accessible += zones.Floor
	}

	zones.Accessible = math.Max(0, zones.Accessible-p.TotalMarginInUse())
	return zones
}

func (m *Manager) guardedUnlocked(p *portfolio.State) bool {
	r := m.cfg.Reserve
	if p.TotalTrades() < r.GuardedMinTrades {
		return false
	}
	if p.WinRateLastN(r.GuardedMinTrades) < r.GuardedWinRate {
		return false
	}
	if p.LosingStreak() >= r.GuardedMaxLosingStreak {
		return false
	}
	return true
}

func (m *Manager) floorUnlocked(p *portfolio.State) bool {
	r := m.cfg.Reserve
	if p.TotalTrades() < r.FloorMinTrades {
		return false
	}
	if p.WinRateLastN(r.FloorMinTrades) < r.FloorWinRate {
		return false
	}
	return true
}

// bestATR picks ATR14 from the best available timeframe, preferring
// 15m, falling back to 5m then 1h. Returns 0 if none have a positive
// value.
func bestATR(report indicator.Report) float64 {
	for _, tf := range []string{"15m", "5m", "1h"} {
		if ti, ok := report.Timeframes[tf]; ok && ti.ATR14 > 0 {
			return ti.ATR14
		}
	}
	return 0
}

// ValidateDecision runs every layer of the risk pipeline against one
// decision and returns the verdict. Each layer may reject outright
// (Approved=false, RejectionReasons explains why) or adjust leverage/
// quantity down to what the current budget zone allows.
func (m *Manager) ValidateDecision(
	d decision.TradeDecision,
	p *portfolio.State,
	report indicator.Report,
	currentPrice float64,
) decision.ValidatedDecision {
	result := decision.ValidatedDecision{Original: d}

	// Layer 0: HOLD/CLOSE pass straight through.
	if d.Action == decision.ActionHold || d.Action == decision.ActionClose {
		result.Approved = true
		result.AdjustedLeverage = d.Leverage
		result.AdjustedQuantity = d.Quantity
		return result
	}

	var reasons []string
	reject := func(reason string) decision.ValidatedDecision {
		reasons = append(reasons, reason)
		result.RejectionReasons = reasons
		return result
	}

	// Layer 1: drawdown circuit breaker.
	drawdown := p.DrawdownFromPeak()
	if drawdown >= m.cfg.DrawdownHaltPct {
		return reject(fmt.Sprintf("HALTED: drawdown %.1f%% >= %.0f%% halt threshold",
			drawdown*100, m.cfg.DrawdownHaltPct*100))
	}

	sizeMultiplier := 1.0
	if drawdown >= m.cfg.DrawdownReducePct {
		sizeMultiplier = 0.5
		reasons = append(reasons, fmt.Sprintf("Size halved: drawdown %.1f%% >= reduce threshold", drawdown*100))
	}

	// Layer 2: confidence floor.
	confidence := math.Max(0, math.Min(1, d.Confidence))
	if confidence < 0.1 {
		return reject(fmt.Sprintf("Confidence too low: %v", confidence))
	}

	// Layer 3: leverage cap by confidence.
	maxLev := m.lev.MaxLeverageFor(confidence)
	adjustedLeverage := math.Min(d.Leverage, maxLev)

	// Layer 4: budget-zone access.
	zones := m.ComputeBudgetZones(p)
	if p.AvailableBudget()-zones.Free > 0 {
		if confidence < m.cfg.Reserve.GuardedMinConfidence {
			zones.Accessible = math.Min(zones.Accessible, math.Max(0, zones.Free-p.TotalMarginInUse()))
			if adjustedLeverage > m.cfg.Reserve.GuardedMaxLeverage {
				adjustedLeverage = math.Min(adjustedLeverage, m.cfg.Reserve.GuardedMaxLeverage)
			}
		}
	}
	if zones.Accessible <= 0 {
		return reject("No accessible budget (all zones locked or in use)")
	}

	// Layer 5: stop-loss validity.
	if d.StopLoss <= 0 {
		return reject("No stop-loss provided")
	}

	slDistance := math.Abs(currentPrice - d.StopLoss)
	slPct := 0.0
	if currentPrice > 0 {
		slPct = slDistance / currentPrice
	}

	if d.Action == decision.ActionLong && d.StopLoss >= currentPrice {
		return reject("LONG stop-loss must be below current price")
	}
	if d.Action == decision.ActionShort && d.StopLoss <= currentPrice {
		return reject("SHORT stop-loss must be above current price")
	}

	if atr := bestATR(report); atr > 0 {
		slATRRatio := slDistance / atr
		if slATRRatio < m.cfg.MinSLATRMultiple {
			return reject(fmt.Sprintf("SL too tight: %.2fx ATR (min %vx)", slATRRatio, m.cfg.MinSLATRMultiple))
		}
		if slATRRatio > m.cfg.MaxSLATRMultiple {
			return reject(fmt.Sprintf("SL too wide: %.2fx ATR (max %vx)", slATRRatio, m.cfg.MaxSLATRMultiple))
		}
	}

	// Layer 6: risk/reward ratio.
	if d.TakeProfit > 0 {
		tpDistance := math.Abs(d.TakeProfit - currentPrice)
		rrRatio := 0.0
		if slDistance > 0 {
			rrRatio = tpDistance / slDistance
		}

		minRR := 1.5
		if zones.Accessible > zones.Free {
			minRR = math.Max(minRR, m.cfg.Reserve.GuardedMinRR)
		}
		if rrRatio < minRR {
			return reject(fmt.Sprintf("R:R ratio %.2f below minimum %v", rrRatio, minRR))
		}
	}

	// Layer 7: position sizing (max-loss-per-trade rule).
	maxLossBudget := zones.Accessible * m.cfg.MaxLossPerTradePct * sizeMultiplier

	maxQuantity := 0.0
	if slPct > 0 {
		maxQuantity = maxLossBudget / (currentPrice * slPct)
	}

	adjustedQuantity := 0.0
	if maxQuantity > 0 {
		adjustedQuantity = math.Min(d.Quantity, maxQuantity)
	}
	if adjustedQuantity <= 0 {
		return reject("Position size rounds to zero after risk limits")
	}

	// Layer 8: margin and total-exposure clamp.
	notional := adjustedQuantity * currentPrice
	marginNeeded := notional
	if adjustedLeverage > 0 {
		marginNeeded = notional / adjustedLeverage
	}

	if marginNeeded > zones.Accessible {
		marginNeeded = zones.Accessible
		notional = marginNeeded * adjustedLeverage
		if currentPrice > 0 {
			adjustedQuantity = notional / currentPrice
		} else {
			adjustedQuantity = 0
		}
	}

	totalExposure := p.TotalMarginInUse() + marginNeeded
	maxExposure := p.CurrentBudget * m.cfg.MaxTotalExposurePct
	if totalExposure > maxExposure {
		allowedMargin := math.Max(0, maxExposure-p.TotalMarginInUse())
		if allowedMargin <= 0 {
			return reject("Total exposure limit reached")
		}
		marginNeeded = allowedMargin
		notional = marginNeeded * adjustedLeverage
		if currentPrice > 0 {
			adjustedQuantity = notional / currentPrice
		} else {
			adjustedQuantity = 0
		}
	}

	// Layer 9: existing-position conflict.
	for _, pos := range p.PositionsForSymbol(d.Symbol) {
		if pos.Side == d.Action {
			return reject(fmt.Sprintf("already have %s position on %s", pos.Side, d.Symbol))
		}
		return reject(fmt.Sprintf("Have opposite %s position on %s — CLOSE it first", pos.Side, d.Symbol))
	}

	maxLoss := adjustedQuantity * slDistance

	result.Approved = true
	result.AdjustedLeverage = adjustedLeverage
	result.AdjustedQuantity = adjustedQuantity
	result.MarginRequired = marginNeeded
	result.MaxLoss = maxLoss
	result.RejectionReasons = reasons
	return result
}
