// Package marketdata holds the value types that make up a collector's
// observable state: orderbook, BBO, derivatives data, recent trades,
// ticker, and the composite MarketSnapshot handed to the indicator
// engine.
package marketdata

import "math"

// Timeframe is one of the three kline intervals this engine tracks.
type Timeframe string

const (
	Timeframe5m  Timeframe = "5m"
	Timeframe15m Timeframe = "15m"
	Timeframe1h  Timeframe = "1h"
)

// Timeframes lists all tracked timeframes in a stable order.
var Timeframes = []Timeframe{Timeframe5m, Timeframe15m, Timeframe1h}

// OrderbookLevel is a single bid or ask price level.
type OrderbookLevel struct {
	Price    float64
	Quantity float64
}

// OrderbookSnapshot is the current top-of-book state, capped at 20
// levels per side. Bids are sorted descending by price, asks ascending.
type OrderbookSnapshot struct {
	Bids      []OrderbookLevel
	Asks      []OrderbookLevel
	Timestamp float64
}

// BidDepth sums bid quantities across all retained levels.
func (o OrderbookSnapshot) BidDepth() float64 {
	var sum float64
	for _, l := range o.Bids {
		sum += l.Quantity
	}
	return sum
}

// AskDepth sums ask quantities across all retained levels.
func (o OrderbookSnapshot) AskDepth() float64 {
	var sum float64
	for _, l := range o.Asks {
		sum += l.Quantity
	}
	return sum
}

// Imbalance is (bid_depth - ask_depth) / (bid_depth + ask_depth), in
// [-1, +1]; 0 when both sides are empty.
func (o OrderbookSnapshot) Imbalance() float64 {
	bid, ask := o.BidDepth(), o.AskDepth()
	total := bid + ask
	if total == 0 {
		return 0
	}
	return (bid - ask) / total
}

// BBO is the best bid/offer for a symbol.
type BBO struct {
	BidPrice  float64
	BidQty    float64
	AskPrice  float64
	AskQty    float64
	Timestamp float64
}

// MidPrice is (bid+ask)/2, or 0 if either side is missing.
func (b BBO) MidPrice() float64 {
	if b.BidPrice == 0 || b.AskPrice == 0 {
		return 0
	}
	return (b.BidPrice + b.AskPrice) / 2
}

// Spread is ask - bid.
func (b BBO) Spread() float64 {
	return b.AskPrice - b.BidPrice
}

// SpreadBps is the spread expressed in basis points of the mid price.
func (b BBO) SpreadBps() float64 {
	mid := b.MidPrice()
	if mid == 0 {
		return 0
	}
	return (b.Spread() / mid) * 10000
}

// FundingRate is the latest funding-rate reading for a symbol.
type FundingRate struct {
	Symbol            string
	FundingRate       float64
	EstFundingRate    float64
	NextFundingTime   float64
	Timestamp         float64
}

// OpenInterest is the latest open-interest reading for a symbol.
type OpenInterest struct {
	Symbol        string
	OpenInterest  float64
	Timestamp     float64
}

// TradersOI is the long/short ratio derived from traders' open interest.
type TradersOI struct {
	Symbol     string
	LongRatio  float64
	ShortRatio float64
	Timestamp  float64
}

// LSRatio is LongRatio / ShortRatio; +Inf when ShortRatio is 0.
func (t TradersOI) LSRatio() float64 {
	if t.ShortRatio == 0 {
		return math.Inf(1)
	}
	return t.LongRatio / t.ShortRatio
}

// RecentTrade is a single executed trade, used to derive volume delta.
type RecentTrade struct {
	Price     float64
	Quantity  float64
	Side      string // "BUY" or "SELL"
	Timestamp float64
}

// MaxRecentTrades bounds the collector's recent-trades FIFO.
const MaxRecentTrades = 500

// VolumeDelta is the aggregated buy vs. sell volume over the collector's
// recent-trades FIFO.
//
// This is derived from a running window of the last MaxRecentTrades
// trades, not a time window — a very quiet symbol may therefore carry a
// stale delta if few trades have occurred recently. The behavior is
// preserved from the original implementation as specified.
type VolumeDelta struct {
	BuyVolume  float64
	SellVolume float64
	TradeCount int
}

// Delta is BuyVolume - SellVolume.
func (v VolumeDelta) Delta() float64 {
	return v.BuyVolume - v.SellVolume
}

// DeltaRatio is Delta / (BuyVolume + SellVolume); 0 if both are 0.
func (v VolumeDelta) DeltaRatio() float64 {
	total := v.BuyVolume + v.SellVolume
	if total == 0 {
		return 0
	}
	return v.Delta() / total
}

// TickerData is the latest 24h ticker summary for a symbol.
type TickerData struct {
	Symbol     string
	Open24h    float64
	High24h    float64
	Low24h     float64
	Close24h   float64
	Volume24h  float64
	Change24h  float64
	Timestamp  float64
}
