package orchestrator

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/pavank-hl/agentc-trading-go/internal/decision"
	"github.com/pavank-hl/agentc-trading-go/internal/indicator"
)

// buildUserPrompt renders every symbol's indicator report plus the
// current portfolio state (including per-position distance to SL/TP,
// progress toward TP, and minutes held) into the per-cycle user prompt.
func (e *Engine) buildUserPrompt(reports map[string]indicator.Report, prices map[string]float64) string {
	var b strings.Builder

	fmt.Fprintf(&b, "## Current Market Data — %s\n\n", time.Now().UTC().Format("2006-01-02 15:04 UTC"))

	symbols := make([]string, 0, len(reports))
	for s := range reports {
		symbols = append(symbols, s)
	}
	sort.Strings(symbols)

	for _, symbol := range symbols {
		report := reports[symbol]
		fmt.Fprintf(&b, "### %s\n", symbol)
		fmt.Fprintf(&b, "Mark Price: %.2f\n", report.MarkPrice)
		fmt.Fprintf(&b, "Index Price: %.2f\n", report.IndexPrice)
		fmt.Fprintf(&b, "24h Change: %.2f%%\n", report.TickerChange24h)
		fmt.Fprintf(&b, "24h Volume: %.0f\n\n", report.TickerVolume24h)

		tfNames := make([]string, 0, len(report.Timeframes))
		for tf := range report.Timeframes {
			tfNames = append(tfNames, tf)
		}
		sort.Strings(tfNames)

		for _, tfName := range tfNames {
			ti := report.Timeframes[tfName]
			fmt.Fprintf(&b, "**%s Timeframe:**\n", tfName)
			fmt.Fprintf(&b, "  Last Close: %.2f\n", ti.LastClose)
			fmt.Fprintf(&b, "  RSI(14): %.1f\n", ti.RSI14)
			fmt.Fprintf(&b, "  MACD: line=%.4f signal=%.4f hist=%.4f\n", ti.MACDLine, ti.MACDSignal, ti.MACDHistogram)
			fmt.Fprintf(&b, "  Bollinger: upper=%.2f mid=%.2f lower=%.2f %%B=%.3f\n", ti.BBUpper, ti.BBMiddle, ti.BBLower, ti.BBPctB)
			fmt.Fprintf(&b, "  EMA: 9=%.2f 21=%.2f 50=%.2f alignment=%s\n", ti.EMA9, ti.EMA21, ti.EMA50, ti.EMAAlignment)
			fmt.Fprintf(&b, "  VWAP: %.2f (price %s)\n", ti.VWAPValue, ti.PriceVsVWAP)
			fmt.Fprintf(&b, "  ATR(14): %.4f\n", ti.ATR14)
			fmt.Fprintf(&b, "  Recent: %+.2f%% last 3 candles, %d red / %d green streak, trend=%s\n\n",
				ti.RecentChangePct, ti.ConsecutiveRed, ti.ConsecutiveGreen, ti.CandleTrend)
		}

		ob := report.Orderbook
		fmt.Fprintf(&b, "**Orderbook:** imbalance=%.3f (%s) spread=%.1fbps bid_depth=%.2f ask_depth=%.2f\n",
			ob.Imbalance, ob.Interpretation, ob.SpreadBps, ob.BidDepth, ob.AskDepth)

		dv := report.Derivatives
		fmt.Fprintf(&b, "**Derivatives:** funding=%.6f (%s) OI=%.0f L/S=%.2f (%s)\n",
			dv.FundingRate, dv.FundingInterpretation, dv.OpenInterest, dv.LSRatio, dv.Sentiment)

		fmt.Fprintf(&b, "**Volume Delta:** %.2f (ratio=%.3f)\n\n", report.VolumeDelta, report.VolumeDeltaRatio)
	}

	summary := e.portfolio.Summary(prices)
	b.WriteString("## Portfolio State\n")
	fmt.Fprintf(&b, "Budget: $%.2f (initial: $%.2f)\n", summary["current_budget"], summary["initial_budget"])
	fmt.Fprintf(&b, "Available for trades: $%.2f\n", summary["available_budget"])
	fmt.Fprintf(&b, "Margin in use: $%.2f\n", summary["margin_in_use"])
	fmt.Fprintf(&b, "Unrealized PnL: $%.2f\n", summary["unrealized_pnl"])
	fmt.Fprintf(&b, "Win rate: %.1f%% (%v trades)\n", summary["win_rate"].(float64)*100, summary["total_trades"])
	fmt.Fprintf(&b, "Current losing streak: %v\n", summary["losing_streak"])
	fmt.Fprintf(&b, "Drawdown from peak: %.1f%%\n\n", summary["drawdown_from_peak"].(float64)*100)

	dd := e.portfolio.DrawdownFromPeak()
	switch {
	case dd >= e.cfg.Risk.DrawdownHaltPct:
		b.WriteString("**WARNING: TRADING HALTED — drawdown exceeds halt threshold. Output HOLD for all symbols.**\n")
	case dd >= e.cfg.Risk.DrawdownReducePct:
		fmt.Fprintf(&b, "**CAUTION: Position sizes reduced — drawdown at %.1f%%.**\n", dd*100)
	}

	if len(e.portfolio.OpenPositions) > 0 {
		b.WriteString("\n## Open Positions\n")
		b.WriteString("**Default action for open positions is HOLD.** Only CLOSE if the entry thesis is broken (see rules above).\n\n")

		for _, pos := range e.portfolio.OpenPositions {
			price, ok := prices[pos.Symbol]
			if !ok {
				price = pos.EntryPrice
			}
			upnl := pos.UnrealizedPnL(price)

			slDistPct, tpDistPct := 0.0, 0.0
			if price > 0 {
				slDistPct = absF(price-pos.StopLoss) / price * 100
				tpDistPct = absF(pos.TakeProfit-price) / price * 100
			}

			totalRange := absF(pos.TakeProfit - pos.EntryPrice)
			progress := 0.0
			if totalRange > 0 {
				if pos.Side == decision.ActionLong {
					progress = (price - pos.EntryPrice) / totalRange * 100
				} else {
					progress = (pos.EntryPrice - price) / totalRange * 100
				}
			}

			heldMin := int(time.Since(pos.OpenedAt).Minutes())

			fmt.Fprintf(&b, "- %s %s @ %.2f (qty=%.4f, lev=%.0fx, uPnL=$%.2f)\n", pos.Symbol, pos.Side, pos.EntryPrice, pos.Quantity, pos.Leverage, upnl)
			fmt.Fprintf(&b, "  SL=%.2f (%.1f%% away) | TP=%.2f (%.1f%% away) | Progress to TP: %.0f%% | Held: %dmin\n",
				pos.StopLoss, slDistPct, pos.TakeProfit, tpDistPct, progress, heldMin)
		}
	}

	if recent, ok := summary["recent_trades"].([]map[string]any); ok && len(recent) > 0 {
		b.WriteString("\n## Recent Closed Trades\n")
		for _, t := range recent {
			fmt.Fprintf(&b, "- %v %v PnL=$%.2f (%v)\n", t["symbol"], t["side"], t["pnl"], t["reason"])
		}
	}

	b.WriteString("\nAnalyze all symbols. Output your decisions as JSON.")
	return b.String()
}

func absF(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
