package collector

import (
	"context"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"github.com/pavank-hl/agentc-trading-go/internal/feed"
	"github.com/pavank-hl/agentc-trading-go/internal/marketdata"
)

type fakeFeed struct {
	mu      sync.Mutex
	started bool
	stopped bool
}

func (f *fakeFeed) Start(ctx context.Context, handler func(feed.Message)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.started = true
}

func (f *fakeFeed) Stop() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopped = true
}

type fakeFetcher struct {
	hist KlineHistory
	err  error
}

func (f *fakeFetcher) FetchKlines(ctx context.Context, symbol, resolution string, from, to int64) (KlineHistory, error) {
	return f.hist, f.err
}

func newTestCollector() (*Collector, *fakeFeed) {
	ff := &fakeFeed{}
	c := New("PERP_ETH_USDC", ff, &fakeFetcher{}, zerolog.Nop())
	return c, ff
}

func TestIngestMarkPriceUpdatesCurrentPrice(t *testing.T) {
	c, _ := newTestCollector()
	c.Ingest(feed.Message{Topic: "PERP_ETH_USDC@markprice", Data: map[string]any{"price": 3000.5}})
	if got := c.CurrentPrice(); got != 3000.5 {
		t.Errorf("want current price 3000.5, got %v", got)
	}
}

func TestIngestNilDataIsIgnored(t *testing.T) {
	c, _ := newTestCollector()
	c.Ingest(feed.Message{Topic: "PERP_ETH_USDC@markprice", Data: nil})
	if got := c.CurrentPrice(); got != 0 {
		t.Errorf("want price untouched at 0, got %v", got)
	}
}

func TestIngestKlineAppendsToCorrectTimeframeOnly(t *testing.T) {
	c, _ := newTestCollector()
	c.Ingest(feed.Message{Topic: "PERP_ETH_USDC@kline_15m", Data: map[string]any{
		"open": 100.0, "high": 110.0, "low": 95.0, "close": 105.0, "volume": 10.0, "startTime": 1000.0,
	}})

	snap := c.GetSnapshot()
	if snap.Klines[marketdata.Timeframe15m].Size() != 1 {
		t.Fatalf("want 1 candle in 15m buffer, got %d", snap.Klines[marketdata.Timeframe15m].Size())
	}
	if snap.Klines[marketdata.Timeframe5m].Size() != 0 {
		t.Errorf("want 5m buffer untouched, got size %d", snap.Klines[marketdata.Timeframe5m].Size())
	}
}

func TestIngestOrderbookExcludesOrderbookUpdateTopic(t *testing.T) {
	c, _ := newTestCollector()
	c.Ingest(feed.Message{Topic: "PERP_ETH_USDC@orderbookupdate", Data: map[string]any{
		"bids": []any{[]any{99.0, 1.0}},
	}})
	snap := c.GetSnapshot()
	if len(snap.Orderbook.Bids) != 0 {
		t.Errorf("want @orderbookupdate topic not routed to orderbook handler, got %d bids", len(snap.Orderbook.Bids))
	}
}

func TestIngestOrderbookCapsAt20Levels(t *testing.T) {
	c, _ := newTestCollector()
	bids := make([]any, 0, 25)
	for i := 0; i < 25; i++ {
		bids = append(bids, []any{float64(100 - i), 1.0})
	}
	c.Ingest(feed.Message{Topic: "PERP_ETH_USDC@orderbook", Data: map[string]any{"bids": bids, "asks": []any{}}})

	snap := c.GetSnapshot()
	if len(snap.Orderbook.Bids) != 20 {
		t.Errorf("want 20 levels retained, got %d", len(snap.Orderbook.Bids))
	}
}

func TestIngestTradeVolumeDeltaSplitByside(t *testing.T) {
	c, _ := newTestCollector()
	c.Ingest(feed.Message{Topic: "PERP_ETH_USDC@trade", Data: map[string]any{"price": 100.0, "size": 5.0, "side": "BUY"}})
	c.Ingest(feed.Message{Topic: "PERP_ETH_USDC@trade", Data: map[string]any{"price": 100.0, "size": 2.0, "side": "SELL"}})

	snap := c.GetSnapshot()
	if snap.VolumeDelta.BuyVolume != 5.0 || snap.VolumeDelta.SellVolume != 2.0 {
		t.Errorf("want buy=5 sell=2, got %+v", snap.VolumeDelta)
	}
	if snap.VolumeDelta.TradeCount != 2 {
		t.Errorf("want trade count 2, got %d", snap.VolumeDelta.TradeCount)
	}
}

func TestIngestTickerComputesChange24h(t *testing.T) {
	c, _ := newTestCollector()
	c.Ingest(feed.Message{Topic: "PERP_ETH_USDC@ticker", Data: map[string]any{
		"open": 100.0, "high": 120.0, "low": 90.0, "close": 110.0, "volume": 500.0,
	}})
	snap := c.GetSnapshot()
	if snap.Ticker.Change24h != 10.0 {
		t.Errorf("want change24h 10.0, got %v", snap.Ticker.Change24h)
	}
}

func TestGetSnapshotIsIndependentOfSubsequentMutation(t *testing.T) {
	c, _ := newTestCollector()
	c.Ingest(feed.Message{Topic: "PERP_ETH_USDC@markprice", Data: map[string]any{"price": 100.0}})
	snap1 := c.GetSnapshot()

	c.Ingest(feed.Message{Topic: "PERP_ETH_USDC@markprice", Data: map[string]any{"price": 200.0}})
	c.Ingest(feed.Message{Topic: "PERP_ETH_USDC@kline_5m", Data: map[string]any{
		"open": 1.0, "high": 1.0, "low": 1.0, "close": 1.0, "volume": 1.0, "startTime": 1.0,
	}})

	if snap1.MarkPrice != 100.0 {
		t.Errorf("want snapshot frozen at mark price 100, got %v", snap1.MarkPrice)
	}
	if snap1.Klines[marketdata.Timeframe5m].Size() != 0 {
		t.Errorf("want snapshot's kline buffer unaffected by later ingest, got size %d", snap1.Klines[marketdata.Timeframe5m].Size())
	}
}

func TestBackfillKlinesSwallowsPerTimeframeErrors(t *testing.T) {
	ff := &fakeFeed{}
	fetcher := &fakeFetcher{err: context.DeadlineExceeded}
	c := New("PERP_ETH_USDC", ff, fetcher, zerolog.Nop())

	c.BackfillKlines(context.Background())

	snap := c.GetSnapshot()
	for tf, buf := range snap.Klines {
		if buf.Size() != 0 {
			t.Errorf("timeframe %s: want empty buffer after failed backfill, got size %d", tf, buf.Size())
		}
	}
}

func TestBackfillKlinesLoadsBulkOnSuccess(t *testing.T) {
	ff := &fakeFeed{}
	hist := KlineHistory{
		Times:   []float64{1, 2, 3},
		Opens:   []float64{1, 2, 3},
		Highs:   []float64{1, 2, 3},
		Lows:    []float64{1, 2, 3},
		Closes:  []float64{1, 2, 3},
		Volumes: []float64{1, 1, 1},
	}
	c := New("PERP_ETH_USDC", ff, &fakeFetcher{hist: hist}, zerolog.Nop())

	c.BackfillKlines(context.Background())

	snap := c.GetSnapshot()
	if snap.Klines[marketdata.Timeframe5m].Size() != 3 {
		t.Errorf("want 3 candles loaded, got %d", snap.Klines[marketdata.Timeframe5m].Size())
	}
}

func TestStartIsIdempotent(t *testing.T) {
	c, ff := newTestCollector()
	c.Start(context.Background())
	c.Start(context.Background())
	if !ff.started {
		t.Errorf("want feed started")
	}
}

func TestCurrentPriceFallsBackToBBOMidThenLastClose(t *testing.T) {
	c, _ := newTestCollector()
	c.Ingest(feed.Message{Topic: "PERP_ETH_USDC@bbo", Data: map[string]any{"bid": 99.0, "ask": 101.0}})
	if got := c.CurrentPrice(); got != 100.0 {
		t.Fatalf("want BBO mid 100.0, got %v", got)
	}

	c2, _ := newTestCollector()
	c2.Ingest(feed.Message{Topic: "PERP_ETH_USDC@kline_5m", Data: map[string]any{
		"open": 100.0, "high": 110.0, "low": 95.0, "close": 105.0, "volume": 10.0, "startTime": 1000.0,
	}})
	if got := c2.CurrentPrice(); got != 105.0 {
		t.Errorf("want last 5m close 105.0 with no mark price or BBO, got %v", got)
	}
}
