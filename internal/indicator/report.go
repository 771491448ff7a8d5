package indicator

import (
	"github.com/pavank-hl/agentc-trading-go/internal/kline"
	"github.com/pavank-hl/agentc-trading-go/internal/marketdata"
)

// TimeframeIndicators is the computed-indicator summary for one
// timeframe, with NaN already replaced by documented defaults.
type TimeframeIndicators struct {
	Timeframe string
	LastClose float64

	RSI14         float64
	MACDLine      float64
	MACDSignal    float64
	MACDHistogram float64

	BBUpper  float64
	BBMiddle float64
	BBLower  float64
	BBPctB   float64

	EMA9         float64
	EMA21        float64
	EMA50        float64
	EMAAlignment string // "bullish", "bearish", "mixed"

	VWAPValue   float64
	PriceVsVWAP string // "above", "below", "at"

	ATR14 float64

	RecentChangePct  float64
	ConsecutiveRed   int
	ConsecutiveGreen int
	CandleTrend      string // "dropping", "rising", "choppy"
}

// OrderbookAnalysis is the derived interpretation of a snapshot's
// orderbook.
type OrderbookAnalysis struct {
	BidDepth       float64
	AskDepth       float64
	Imbalance      float64
	SpreadBps      float64
	MidPrice       float64
	Interpretation string // "buy_pressure", "sell_pressure", "balanced"
}

// DerivativesAnalysis is the derived interpretation of funding and OI.
type DerivativesAnalysis struct {
	FundingRate           float64
	FundingInterpretation string // "longs_pay", "shorts_pay", "neutral"
	OpenInterest          float64
	LongRatio             float64
	ShortRatio            float64
	LSRatio               float64
	Sentiment             string // "crowded_longs", "crowded_shorts", "balanced"
}

// Report is the full indicator report for one symbol, the input to
// prompt-building in the strategy orchestrator.
type Report struct {
	Symbol     string
	MarkPrice  float64
	IndexPrice float64

	Timeframes map[string]TimeframeIndicators
	Orderbook  OrderbookAnalysis
	Derivatives DerivativesAnalysis

	VolumeDelta      float64
	VolumeDeltaRatio float64

	TickerChange24h float64
	TickerVolume24h float64
}

func computeTimeframe(buf *kline.Buffer, name string) TimeframeIndicators {
	ti := TimeframeIndicators{Timeframe: name}
	if buf == nil || buf.Size() < 2 {
		return ti
	}

	c := buf.Close
	ti.LastClose = last(c)

	rsiArr := RSI(c, 14)
	ti.RSI14 = orDefault(last(rsiArr), 50.0)

	ml, sl, hist := MACD(c, 12, 26, 9)
	ti.MACDLine = orDefault(last(ml), 0.0)
	ti.MACDSignal = orDefault(last(sl), 0.0)
	ti.MACDHistogram = orDefault(last(hist), 0.0)

	bbU, bbM, bbL := BollingerBands(c, 20, 2.0)
	ti.BBUpper = orDefault(last(bbU), 0.0)
	ti.BBMiddle = orDefault(last(bbM), 0.0)
	ti.BBLower = orDefault(last(bbL), 0.0)
	ti.BBPctB = orDefault(last(PercentB(c, 20, 2.0)), 0.5)

	e9 := EMA(c, 9)
	e21 := EMA(c, 21)
	e50 := EMA(c, 50)
	ti.EMA9 = orDefault(last(e9), 0.0)
	ti.EMA21 = orDefault(last(e21), 0.0)
	ti.EMA50 = orDefault(last(e50), 0.0)

	switch {
	case ti.EMA9 > ti.EMA21 && ti.EMA21 > ti.EMA50 && ti.EMA50 > 0:
		ti.EMAAlignment = "bullish"
	case ti.EMA50 > ti.EMA21 && ti.EMA21 > ti.EMA9 && ti.EMA9 > 0:
		ti.EMAAlignment = "bearish"
	default:
		ti.EMAAlignment = "mixed"
	}

	v := VWAP(buf.High, buf.Low, c, buf.Volume)
	ti.VWAPValue = orDefault(last(v), 0.0)
	if ti.VWAPValue > 0 {
		switch {
		case ti.LastClose > ti.VWAPValue*1.001:
			ti.PriceVsVWAP = "above"
		case ti.LastClose < ti.VWAPValue*0.999:
			ti.PriceVsVWAP = "below"
		default:
			ti.PriceVsVWAP = "at"
		}
	}

	a := ATR(buf.High, buf.Low, c, 14)
	ti.ATR14 = orDefault(last(a), 0.0)

	if buf.Size() >= 4 {
		n := buf.Size()
		refClose := c[n-4]
		if refClose > 0 {
			ti.RecentChangePct = (c[n-1] - refClose) / refClose * 100
		}

		red, green := 0, 0
	streakLoop:
		for i := n - 1; i > 0; i-- {
			switch {
			case c[i] < c[i-1]:
				if green > 0 {
					break streakLoop
				}
				red++
			case c[i] > c[i-1]:
				if red > 0 {
					break streakLoop
				}
				green++
			default:
				break streakLoop
			}
		}
		ti.ConsecutiveRed = red
		ti.ConsecutiveGreen = green

		switch {
		case red >= 3:
			ti.CandleTrend = "dropping"
		case green >= 3:
			ti.CandleTrend = "rising"
		default:
			ti.CandleTrend = "choppy"
		}
	}

	return ti
}

func analyzeOrderbook(snap *marketdata.MarketSnapshot) OrderbookAnalysis {
	ob := snap.Orderbook
	bbo := snap.BBO
	a := OrderbookAnalysis{
		BidDepth:  ob.BidDepth(),
		AskDepth:  ob.AskDepth(),
		Imbalance: ob.Imbalance(),
		SpreadBps: bbo.SpreadBps(),
		MidPrice:  bbo.MidPrice(),
	}
	switch {
	case a.Imbalance > 0.2:
		a.Interpretation = "buy_pressure"
	case a.Imbalance < -0.2:
		a.Interpretation = "sell_pressure"
	default:
		a.Interpretation = "balanced"
	}
	return a
}

func analyzeDerivatives(snap *marketdata.MarketSnapshot) DerivativesAnalysis {
	fr := snap.Funding
	oi := snap.OpenInterest
	toi := snap.TradersOI

	a := DerivativesAnalysis{
		FundingRate:  fr.EstFundingRate,
		OpenInterest: oi.OpenInterest,
		LongRatio:    toi.LongRatio,
		ShortRatio:   toi.ShortRatio,
		LSRatio:      toi.LSRatio(),
	}

	switch {
	case fr.EstFundingRate > 0.0001:
		a.FundingInterpretation = "longs_pay"
	case fr.EstFundingRate < -0.0001:
		a.FundingInterpretation = "shorts_pay"
	default:
		a.FundingInterpretation = "neutral"
	}

	switch {
	case a.LSRatio >= 1.49:
		a.Sentiment = "crowded_longs"
	case a.LSRatio <= 0.67:
		a.Sentiment = "crowded_shorts"
	default:
		a.Sentiment = "balanced"
	}

	return a
}

// Compute turns a MarketSnapshot into a full Report. This is the main
// entry point called by the strategy orchestrator.
func Compute(snap *marketdata.MarketSnapshot) Report {
	report := Report{
		Symbol:     snap.Symbol,
		MarkPrice:  snap.MarkPrice,
		IndexPrice: snap.IndexPrice,
		Timeframes: make(map[string]TimeframeIndicators, len(snap.Klines)),
	}

	for tf, buf := range snap.Klines {
		report.Timeframes[string(tf)] = computeTimeframe(buf, string(tf))
	}

	report.Orderbook = analyzeOrderbook(snap)
	report.Derivatives = analyzeDerivatives(snap)

	report.VolumeDelta = snap.VolumeDelta.Delta()
	report.VolumeDeltaRatio = snap.VolumeDelta.DeltaRatio()

	report.TickerChange24h = snap.Ticker.Change24h
	report.TickerVolume24h = snap.Ticker.Volume24h

	return report
}
