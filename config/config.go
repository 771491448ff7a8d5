// Package config loads and validates the trading engine's configuration:
// an optional JSON file merged with environment-variable overrides, the
// same two-stage pattern the rest of this codebase's ancestry uses.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
)

// OracleConfig configures the HTTP LLM oracle client.
type OracleConfig struct {
	APIKey          string  `json:"api_key"`
	BaseURL         string  `json:"base_url"`
	Model           string  `json:"model"`
	ReasoningEffort string  `json:"reasoning_effort"`
	MaxTokens       int     `json:"max_tokens"`
	Temperature     float64 `json:"temperature"`
	TimeoutSeconds  float64 `json:"timeout_seconds"`
}

// ReserveThresholds defines the graduated reserve's zone sizes and the
// performance gates that unlock the guarded and floor zones.
type ReserveThresholds struct {
	FreePct float64 `json:"free_pct"`

	GuardedPct             float64 `json:"guarded_pct"`
	GuardedWinRate         float64 `json:"guarded_win_rate"`
	GuardedMinTrades       int     `json:"guarded_min_trades"`
	GuardedMaxLosingStreak int     `json:"guarded_max_losing_streak"`
	GuardedMinConfidence   float64 `json:"guarded_min_confidence"`
	GuardedMinRR           float64 `json:"guarded_min_rr"`
	GuardedMaxLeverage     float64 `json:"guarded_max_leverage"`

	FloorPct         float64 `json:"floor_pct"`
	FloorWinRate     float64 `json:"floor_win_rate"`
	FloorMinTrades   int     `json:"floor_min_trades"`
	FloorMinConfidence float64 `json:"floor_min_confidence"`
	FloorMinRR       float64 `json:"floor_min_rr"`

	LockoutPct float64 `json:"lockout_pct"`
}

// DefaultReserveThresholds mirrors the prototype's defaults exactly.
func DefaultReserveThresholds() ReserveThresholds {
	return ReserveThresholds{
		FreePct: 0.70,

		GuardedPct:             0.20,
		GuardedWinRate:         0.45,
		GuardedMinTrades:       20,
		GuardedMaxLosingStreak: 3,
		GuardedMinConfidence:   0.75,
		GuardedMinRR:           2.0,
		GuardedMaxLeverage:     3.0,

		FloorPct:           0.05,
		FloorWinRate:       0.60,
		FloorMinTrades:     30,
		FloorMinConfidence: 0.9,
		FloorMinRR:         3.0,

		LockoutPct: 0.05,
	}
}

// RiskConfig holds the risk-validation pipeline's tunable thresholds.
type RiskConfig struct {
	Reserve                ReserveThresholds `json:"reserve"`
	MaxLossPerTradePct     float64           `json:"max_loss_per_trade_pct"`
	MaxTotalExposurePct    float64           `json:"max_total_exposure_pct"`
	MinSLATRMultiple       float64           `json:"min_sl_atr_multiple"`
	MaxSLATRMultiple       float64           `json:"max_sl_atr_multiple"`
	DrawdownReducePct      float64           `json:"drawdown_reduce_pct"`
	DrawdownHaltPct        float64           `json:"drawdown_halt_pct"`
}

// DefaultRiskConfig mirrors the prototype's defaults exactly.
func DefaultRiskConfig() RiskConfig {
	return RiskConfig{
		Reserve:             DefaultReserveThresholds(),
		MaxLossPerTradePct:  0.02,
		MaxTotalExposurePct: 0.80,
		MinSLATRMultiple:    0.5,
		MaxSLATRMultiple:    3.0,
		DrawdownReducePct:   0.10,
		DrawdownHaltPct:     0.20,
	}
}

// LeverageTier maps a confidence band to a maximum allowed leverage.
type LeverageTier struct {
	MinConfidence float64 `json:"min_confidence"`
	MaxConfidence float64 `json:"max_confidence"`
	MaxLeverage   float64 `json:"max_leverage"`
}

// LeverageScale is the confidence-to-leverage mapping.
type LeverageScale struct {
	Tiers []LeverageTier `json:"tiers"`
}

// MaxLeverageFor returns the max leverage for the first tier whose
// [MinConfidence, MaxConfidence) range contains confidence, or 1.0 if
// none matches.
func (s LeverageScale) MaxLeverageFor(confidence float64) float64 {
	for _, t := range s.Tiers {
		if confidence >= t.MinConfidence && confidence < t.MaxConfidence {
			return t.MaxLeverage
		}
	}
	return 1.0
}

// DefaultLeverageScale mirrors the prototype's default tier table.
func DefaultLeverageScale() LeverageScale {
	return LeverageScale{Tiers: []LeverageTier{
		{0.0, 0.3, 1.0},
		{0.3, 0.5, 2.0},
		{0.5, 0.7, 5.0},
		{0.7, 0.85, 7.0},
		{0.85, 1.01, 10.0},
	}}
}

// TradingConfig is the top-level configuration for the engine.
type TradingConfig struct {
	Symbols                 []string `json:"symbols"`
	AnalysisIntervalSeconds int      `json:"analysis_interval_seconds"`
	InitialBudget           float64  `json:"initial_budget"`
	PaperTrading            bool     `json:"paper_trading"`

	Oracle        OracleConfig  `json:"oracle"`
	Risk          RiskConfig    `json:"risk"`
	LeverageScale LeverageScale `json:"leverage_scale"`

	RESTBaseURL string `json:"rest_base_url"`
	WSBaseURL   string `json:"ws_base_url"`
	Testnet     bool   `json:"testnet"`

	LogLevel       string `json:"log_level"`
	StoreReasoning bool   `json:"store_reasoning"`

	StatusAPIAddr string `json:"status_api_addr"`

	RedisAddr string `json:"redis_addr"`
}

// Default returns the engine's default configuration, matching the
// original prototype's values.
func Default() TradingConfig {
	return TradingConfig{
		Symbols: []string{
			"PERP_ETH_USDC",
			"PERP_BTC_USDC",
			"PERP_SOL_USDC",
		},
		AnalysisIntervalSeconds: 300,
		InitialBudget:           1000.0,
		PaperTrading:            true,

		Oracle: OracleConfig{
			BaseURL:         "https://openrouter.ai/api/v1",
			Model:           "x-ai/grok-3-mini",
			ReasoningEffort: "high",
			MaxTokens:       4096,
			Temperature:     0.2,
			TimeoutSeconds:  60.0,
		},
		Risk:          DefaultRiskConfig(),
		LeverageScale: DefaultLeverageScale(),

		RESTBaseURL: "https://api-evm.orderly.org",
		WSBaseURL:   "wss://ws-evm.orderly.org/ws/stream",
		Testnet:     false,

		LogLevel:       "info",
		StoreReasoning: true,

		StatusAPIAddr: ":8090",
	}
}

// Load builds a TradingConfig by starting from Default(), merging an
// optional JSON file at path (if it exists), then applying environment
// variable overrides, which always take precedence.
func Load(path string) (*TradingConfig, error) {
	cfg := Default()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			data, err := os.ReadFile(path)
			if err != nil {
				return nil, fmt.Errorf("config: reading %s: %w", path, err)
			}
			if err := json.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("config: parsing %s: %w", path, err)
			}
		}
	}

	applyEnvOverrides(&cfg)
	return &cfg, nil
}

func applyEnvOverrides(cfg *TradingConfig) {
	cfg.Oracle.APIKey = getEnvOrDefault("OPENROUTER_API_KEY", cfg.Oracle.APIKey)
	cfg.Oracle.Model = getEnvOrDefault("ORACLE_MODEL", cfg.Oracle.Model)
	cfg.Oracle.BaseURL = getEnvOrDefault("ORACLE_BASE_URL", cfg.Oracle.BaseURL)

	cfg.InitialBudget = getEnvFloatOrDefault("INITIAL_BUDGET", cfg.InitialBudget)
	cfg.AnalysisIntervalSeconds = getEnvIntOrDefault("ANALYSIS_INTERVAL_SECONDS", cfg.AnalysisIntervalSeconds)
	cfg.PaperTrading = getEnvBoolOrDefault("PAPER_TRADING", cfg.PaperTrading)

	cfg.RESTBaseURL = getEnvOrDefault("REST_BASE_URL", cfg.RESTBaseURL)
	cfg.WSBaseURL = getEnvOrDefault("WS_BASE_URL", cfg.WSBaseURL)
	cfg.Testnet = getEnvBoolOrDefault("TESTNET", cfg.Testnet)

	cfg.LogLevel = getEnvOrDefault("LOG_LEVEL", cfg.LogLevel)
	cfg.StatusAPIAddr = getEnvOrDefault("STATUS_API_ADDR", cfg.StatusAPIAddr)
	cfg.RedisAddr = getEnvOrDefault("REDIS_ADDR", cfg.RedisAddr)
}

func getEnvOrDefault(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return defaultValue
}
