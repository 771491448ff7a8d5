package marketdata

import (
	"time"

	"github.com/pavank-hl/agentc-trading-go/internal/kline"
)

// MarketSnapshot is the immutable value a collector hands out at one
// instant: deep copies of every owned field for one symbol. Once
// produced, no concurrent mutation of the collector is visible through
// it.
type MarketSnapshot struct {
	Symbol       string
	SnapshotTime time.Time

	Klines map[Timeframe]*kline.Buffer

	Orderbook OrderbookSnapshot
	BBO       BBO

	Funding      FundingRate
	OpenInterest OpenInterest
	TradersOI    TradersOI

	VolumeDelta  VolumeDelta
	RecentTrades []RecentTrade

	Ticker TickerData

	MarkPrice  float64
	IndexPrice float64
}
