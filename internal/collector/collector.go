// Package collector implements the per-symbol market-data collector
// (C2): owns the kline buffers and latest market-data records for one
// symbol, ingests feed messages under a single mutex, and hands out
// independent MarketSnapshot copies to the strategy orchestrator.
//
// Grounded in original_source/src/collector.py's DataCollector, with
// the SDK-managed WebSocket thread replaced by an injected feed.Feed
// and the teacher's mutex-guarded-struct idiom
// (internal/binance/market_data_cache.go) for the concurrency model.
package collector

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/pavank-hl/agentc-trading-go/internal/feed"
	"github.com/pavank-hl/agentc-trading-go/internal/kline"
	"github.com/pavank-hl/agentc-trading-go/internal/marketdata"
)

// resolutionWindow maps a tracked timeframe to its backfill resolution
// code and lookback window, per spec.md §6.1:
// from = now - max_size * resolution_seconds * 60.
var resolutionWindow = map[marketdata.Timeframe]struct {
	resolution string
	lookback   time.Duration
}{
	marketdata.Timeframe5m:  {"5", time.Duration(kline.DefaultMaxSize) * 5 * time.Minute},
	marketdata.Timeframe15m: {"15", time.Duration(kline.DefaultMaxSize) * 15 * time.Minute},
	marketdata.Timeframe1h:  {"60", time.Duration(kline.DefaultMaxSize) * 60 * time.Minute},
}

// Collector owns all market-data state for one symbol. Every exported
// method is safe for concurrent use: ingest handlers (driven by the
// feed) and GetSnapshot/CurrentPrice (driven by the cycle loop) all
// take the same mutex.
type Collector struct {
	symbol     string
	spotSymbol string

	fetcher KlineFetcher
	feed    feed.Feed
	logger  zerolog.Logger

	mu           sync.Mutex
	klines       map[marketdata.Timeframe]*kline.Buffer
	orderbook    marketdata.OrderbookSnapshot
	bbo          marketdata.BBO
	funding      marketdata.FundingRate
	openInterest marketdata.OpenInterest
	tradersOI    marketdata.TradersOI
	ticker       marketdata.TickerData
	recentTrades []marketdata.RecentTrade
	markPrice    float64
	indexPrice   float64
	started      bool

	cancel context.CancelFunc
}

// New constructs a Collector for symbol, deriving its spot twin for
// index-price subscription and owning f as its feed.
func New(symbol string, f feed.Feed, fetcher KlineFetcher, logger zerolog.Logger) *Collector {
	spot := feed.SpotTwin(symbol)
	return &Collector{
		symbol:     symbol,
		spotSymbol: spot,
		fetcher:    fetcher,
		feed:       f,
		logger:     logger.With().Str("component", "collector").Str("symbol", symbol).Logger(),
		klines: map[marketdata.Timeframe]*kline.Buffer{
			marketdata.Timeframe5m:  kline.NewBuffer(kline.DefaultMaxSize),
			marketdata.Timeframe15m: kline.NewBuffer(kline.DefaultMaxSize),
			marketdata.Timeframe1h:  kline.NewBuffer(kline.DefaultMaxSize),
		},
		funding:      marketdata.FundingRate{Symbol: symbol},
		openInterest: marketdata.OpenInterest{Symbol: symbol},
		tradersOI:    marketdata.TradersOI{Symbol: symbol},
		ticker:       marketdata.TickerData{Symbol: symbol},
	}
}

// Start is idempotent: establishes subscriptions for every topic in
// feed.Topics and begins routing inbound messages to Ingest.
func (c *Collector) Start(ctx context.Context) {
	c.mu.Lock()
	if c.started {
		c.mu.Unlock()
		return
	}
	runCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.started = true
	c.mu.Unlock()

	topics := feed.Topics(c.symbol, c.spotSymbol)
	c.feed.Start(runCtx, c.Ingest)
	c.logger.Info().Int("topics", len(topics)).Msg("collector started")
}

// Stop is idempotent: tears down the feed subscription.
func (c *Collector) Stop() {
	c.mu.Lock()
	if !c.started {
		c.mu.Unlock()
		return
	}
	c.started = false
	cancel := c.cancel
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	c.feed.Stop()
	c.logger.Info().Msg("collector stopped")
}

// BackfillKlines synchronously fetches historical candles for each
// tracked timeframe, one after another. Failure per timeframe is
// logged and swallowed; the buffer for that timeframe simply stays
// empty.
func (c *Collector) BackfillKlines(ctx context.Context) {
	now := time.Now().Unix()
	for tf, w := range resolutionWindow {
		from := now - int64(w.lookback.Seconds())

		hist, err := c.fetcher.FetchKlines(ctx, c.symbol, w.resolution, from, now)
		if err != nil {
			c.logger.Warn().Err(err).Str("timeframe", string(tf)).Msg("backfill failed")
			continue
		}

		if len(hist.Times) == 0 {
			continue
		}

		c.mu.Lock()
		c.klines[tf].LoadBulk(hist.Opens, hist.Highs, hist.Lows, hist.Closes, hist.Volumes, hist.Times)
		c.mu.Unlock()

		c.logger.Info().Str("timeframe", string(tf)).Int("candles", len(hist.Times)).Msg("backfilled")
	}
}

// GetSnapshot returns a MarketSnapshot holding independent deep copies
// of every owned field, computed under the collector's lock.
func (c *Collector) GetSnapshot() *marketdata.MarketSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	klines := make(map[marketdata.Timeframe]*kline.Buffer, len(c.klines))
	for tf, buf := range c.klines {
		klines[tf] = buf.Clone()
	}

	var buyVol, sellVol float64
	for _, t := range c.recentTrades {
		if t.Side == "BUY" {
			buyVol += t.Quantity
		} else {
			sellVol += t.Quantity
		}
	}

	return &marketdata.MarketSnapshot{
		Symbol:       c.symbol,
		SnapshotTime: time.Now(),
		Klines:       klines,
		Orderbook: marketdata.OrderbookSnapshot{
			Bids:      append([]marketdata.OrderbookLevel(nil), c.orderbook.Bids...),
			Asks:      append([]marketdata.OrderbookLevel(nil), c.orderbook.Asks...),
			Timestamp: c.orderbook.Timestamp,
		},
		BBO:          c.bbo,
		Funding:      c.funding,
		OpenInterest: c.openInterest,
		TradersOI:    c.tradersOI,
		VolumeDelta: marketdata.VolumeDelta{
			BuyVolume:  buyVol,
			SellVolume: sellVol,
			TradeCount: len(c.recentTrades),
		},
		RecentTrades: append([]marketdata.RecentTrade(nil), c.recentTrades...),
		Ticker:       c.ticker,
		MarkPrice:    c.markPrice,
		IndexPrice:   c.indexPrice,
	}
}

// CurrentPrice returns the first positive of: mark price, BBO mid,
// last 5-minute close, or 0.
func (c *Collector) CurrentPrice() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.markPrice > 0 {
		return c.markPrice
	}
	if mid := c.bbo.MidPrice(); mid > 0 {
		return mid
	}
	if buf := c.klines[marketdata.Timeframe5m]; buf != nil && buf.Size() > 0 {
		return buf.Close[buf.Size()-1]
	}
	return 0
}

// Ingest routes one feed message to its handler by topic substring,
// matching the teacher's/original's topic-substring dispatch order.
// Malformed data and handler panics never reach the caller: each
// handler only reads expected fields with safe defaults.
func (c *Collector) Ingest(msg feed.Message) {
	topic, data := msg.Topic, msg.Data
	if data == nil {
		return
	}

	switch {
	case strings.Contains(topic, "@kline_5m"):
		c.handleKline(data, marketdata.Timeframe5m)
	case strings.Contains(topic, "@kline_15m"):
		c.handleKline(data, marketdata.Timeframe15m)
	case strings.Contains(topic, "@kline_1h"):
		c.handleKline(data, marketdata.Timeframe1h)
	case strings.Contains(topic, "@orderbook") && !strings.Contains(topic, "@orderbookupdate"):
		c.handleOrderbook(data)
	case strings.Contains(topic, "@bbo"):
		c.handleBBO(data)
	case strings.Contains(topic, "@trade"):
		c.handleTrade(data)
	case strings.Contains(topic, "@ticker"):
		c.handleTicker(data)
	case strings.Contains(topic, "@estfundingrate"):
		c.handleFunding(data)
	case strings.Contains(topic, "@openinterest"):
		c.handleOpenInterest(data)
	case strings.Contains(topic, "@markprice"):
		c.handleMarkPrice(data)
	case strings.Contains(topic, "@indexprice"):
		c.handleIndexPrice(data)
	}
}

func (c *Collector) handleKline(data map[string]any, tf marketdata.Timeframe) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.klines[tf].Append(
		asFloat(data["open"]),
		asFloat(data["high"]),
		asFloat(data["low"]),
		asFloat(data["close"]),
		asFloat(data["volume"]),
		asFloat(data["startTime"]),
	)
}

func (c *Collector) handleOrderbook(data map[string]any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.orderbook.Bids = levelsFrom(data["bids"])
	c.orderbook.Asks = levelsFrom(data["asks"])
	ts := asFloat(data["ts"])
	if ts == 0 {
		ts = float64(time.Now().Unix())
	}
	c.orderbook.Timestamp = ts
}

func levelsFrom(raw any) []marketdata.OrderbookLevel {
	arr, ok := raw.([]any)
	if !ok {
		return nil
	}
	if len(arr) > 20 {
		arr = arr[:20]
	}
	levels := make([]marketdata.OrderbookLevel, 0, len(arr))
	for _, e := range arr {
		pair, ok := e.([]any)
		if !ok || len(pair) < 2 {
			continue
		}
		levels = append(levels, marketdata.OrderbookLevel{
			Price:    asFloat(pair[0]),
			Quantity: asFloat(pair[1]),
		})
	}
	return levels
}

func (c *Collector) handleBBO(data map[string]any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.bbo.BidPrice = asFloat(data["bid"])
	c.bbo.BidQty = asFloat(data["bidSize"])
	c.bbo.AskPrice = asFloat(data["ask"])
	c.bbo.AskQty = asFloat(data["askSize"])
	ts := asFloat(data["timestamp"])
	if ts == 0 {
		ts = float64(time.Now().Unix())
	}
	c.bbo.Timestamp = ts
}

func (c *Collector) handleTrade(data map[string]any) {
	c.mu.Lock()
	defer c.mu.Unlock()

	side, _ := data["side"].(string)
	if side == "" {
		side = "BUY"
	}
	ts := asFloat(data["timestamp"])
	if ts == 0 {
		ts = float64(time.Now().Unix())
	}

	c.recentTrades = append(c.recentTrades, marketdata.RecentTrade{
		Price:     asFloat(data["price"]),
		Quantity:  asFloat(data["size"]),
		Side:      side,
		Timestamp: ts,
	})
	if over := len(c.recentTrades) - marketdata.MaxRecentTrades; over > 0 {
		c.recentTrades = c.recentTrades[over:]
	}
}

func (c *Collector) handleTicker(data map[string]any) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.ticker.Open24h = asFloat(data["open"])
	c.ticker.High24h = asFloat(data["high"])
	c.ticker.Low24h = asFloat(data["low"])
	c.ticker.Close24h = asFloat(data["close"])
	c.ticker.Volume24h = asFloat(data["volume"])
	if c.ticker.Open24h > 0 {
		c.ticker.Change24h = (c.ticker.Close24h - c.ticker.Open24h) / c.ticker.Open24h * 100
	}
	c.ticker.Timestamp = float64(time.Now().Unix())
}

func (c *Collector) handleFunding(data map[string]any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.funding.EstFundingRate = asFloat(data["estFundingRate"])
	c.funding.FundingRate = asFloat(data["lastFundingRate"])
	c.funding.NextFundingTime = asFloat(data["nextFundingTime"])
	c.funding.Timestamp = float64(time.Now().Unix())
}

func (c *Collector) handleOpenInterest(data map[string]any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.openInterest.OpenInterest = asFloat(data["openInterest"])
	c.openInterest.Timestamp = float64(time.Now().Unix())
}

func (c *Collector) handleMarkPrice(data map[string]any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.markPrice = asFloat(data["price"])
}

func (c *Collector) handleIndexPrice(data map[string]any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.indexPrice = asFloat(data["price"])
}

// asFloat tolerantly extracts a float64 from a JSON-decoded value:
// numbers decode to float64, but some feeds send numeric strings.
func asFloat(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case string:
		var f float64
		if _, err := fmt.Sscanf(n, "%g", &f); err == nil {
			return f
		}
		return 0
	default:
		return 0
	}
}
