// Command engine runs the LLM-orchestrated perpetual-futures swing-
// trading loop: load config, backfill and start one collector per
// symbol, then run the analysis cycle on a fixed cadence until a
// shutdown signal arrives.
//
// Grounded in original_source/src/main.py's TradingSystem.start()/
// stop() sequence (load config → build collectors → backfill →
// start feeds → wait for stabilization → run cycles → on shutdown
// stop collectors and log a final summary), adapted from its
// LLM-callable API shape to Go's autonomous ticker-driven loop per
// spec.md §5's concurrency model (a single-threaded cooperative cycle
// driver with a cancellable cadence wait).
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/pavank-hl/agentc-trading-go/config"
	"github.com/pavank-hl/agentc-trading-go/internal/backfillcache"
	"github.com/pavank-hl/agentc-trading-go/internal/collector"
	"github.com/pavank-hl/agentc-trading-go/internal/feed"
	"github.com/pavank-hl/agentc-trading-go/internal/marketdata"
	"github.com/pavank-hl/agentc-trading-go/internal/oracle"
	"github.com/pavank-hl/agentc-trading-go/internal/orchestrator"
	"github.com/pavank-hl/agentc-trading-go/internal/statusapi"

	"github.com/redis/go-redis/v9"
)

// stabilizationWait mirrors TradingSystem.start()'s default
// stabilization_seconds=10: time given to collectors to receive a few
// messages on every stream before the first analysis cycle runs.
const stabilizationWait = 10 * time.Second

func main() {
	configPath := flag.String("config", "", "path to an optional JSON config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		panic(err)
	}

	logger := buildLogger(cfg.LogLevel)
	logger.Info().Strs("symbols", cfg.Symbols).Msg("loading engine")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info().Msg("shutdown signal received")
		cancel()
	}()

	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	}

	collectors := make(map[string]*collector.Collector, len(cfg.Symbols))
	for _, symbol := range cfg.Symbols {
		rest := collector.NewRESTFetcher(cfg.RESTBaseURL)
		fetcher := backfillcache.New(redisClient, rest, logger)

		wsURL := cfg.WSBaseURL
		topics := feed.Topics(symbol, feed.SpotTwin(symbol))
		f := feed.NewWSFeed(wsURL, topics, logger)

		collectors[symbol] = collector.New(symbol, f, fetcher, logger)
	}

	logger.Info().Msg("backfilling historical klines")
	for _, c := range collectors {
		c.BackfillKlines(ctx)
	}

	logger.Info().Msg("starting market data feeds")
	for _, c := range collectors {
		c.Start(ctx)
	}

	logger.Info().Dur("wait", stabilizationWait).Msg("waiting for feed data to stabilize")
	select {
	case <-time.After(stabilizationWait):
	case <-ctx.Done():
	}

	o := oracle.NewHTTPOracle(cfg.Oracle)
	engine := orchestrator.New(*cfg, o, logger)

	status := statusapi.New(&engineStatusSource{engine: engine}, logger)
	go func() {
		if err := status.Run(cfg.StatusAPIAddr); err != nil {
			logger.Warn().Err(err).Msg("status API stopped")
		}
	}()

	runCycles(ctx, engine, collectors, cfg.AnalysisIntervalSeconds, logger)

	logger.Info().Msg("stopping collectors")
	for _, c := range collectors {
		c.Stop()
	}

	summary := engine.Portfolio().Summary(currentPrices(collectors))
	logger.Info().
		Interface("summary", summary).
		Msg("trading system stopped")
}

// runCycles drives the cooperative cycle loop: check SL/TP, then run
// one full analyze-and-validate cycle, then wait on a cancellable
// cadence timer before repeating.
func runCycles(ctx context.Context, engine *orchestrator.Engine, collectors map[string]*collector.Collector, intervalSeconds int, logger zerolog.Logger) {
	interval := time.Duration(intervalSeconds) * time.Second
	if interval <= 0 {
		interval = 300 * time.Second
	}

	for {
		prices := currentPrices(collectors)

		for _, msg := range engine.CheckStopLossTakeProfit(prices) {
			logger.Info().Str("event", msg).Msg("sl/tp triggered")
		}

		snapshots := make(map[string]*marketdata.MarketSnapshot, len(collectors))
		for symbol, c := range collectors {
			snapshots[symbol] = c.GetSnapshot()
		}

		validated := engine.RunCycle(ctx, snapshots, prices)
		logger.Info().Int("decisions", len(validated)).Msg("cycle complete")

		select {
		case <-ctx.Done():
			return
		case <-time.After(interval):
		}
	}
}

func currentPrices(collectors map[string]*collector.Collector) map[string]float64 {
	prices := make(map[string]float64, len(collectors))
	for symbol, c := range collectors {
		prices[symbol] = c.CurrentPrice()
	}
	return prices
}

func buildLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(os.Stdout).Level(lvl).With().Timestamp().Logger()
}

// engineStatusSource adapts the orchestrator Engine into statusapi.StatusSource.
// It reads only Engine.Status(), never Portfolio() or Cycles() directly —
// those are owned exclusively by the cycle driver goroutine, and this
// adapter's Status method is called from the status API's own goroutine
// while a cycle may be in flight.
type engineStatusSource struct {
	engine *orchestrator.Engine
}

func (s *engineStatusSource) Status() map[string]any {
	return s.engine.Status()
}
