package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// KlineHistory is the parallel-array shape the REST backfill endpoint
// returns (spec.md §6.1): empty Times means "no data, skip this
// timeframe".
type KlineHistory struct {
	Times  []float64
	Opens  []float64
	Highs  []float64
	Lows   []float64
	Closes []float64
	Volumes []float64
}

// KlineFetcher fetches historical candles for one symbol/resolution
// window. Resolution is one of "5", "15", "60" per spec.md §6.1.
type KlineFetcher interface {
	FetchKlines(ctx context.Context, symbol, resolution string, from, to int64) (KlineHistory, error)
}

// RESTFetcher is the direct HTTP implementation, grounded in the
// teacher's internal/binance/client.go GET-and-unmarshal idiom (build
// URL, http.Client.Get, status check, json.Unmarshal, wrap errors).
type RESTFetcher struct {
	baseURL    string
	httpClient *http.Client
}

// NewRESTFetcher builds a fetcher against baseURL with a 15s timeout
// per spec.md §5's backfill timeout.
func NewRESTFetcher(baseURL string) *RESTFetcher {
	return &RESTFetcher{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

func (r *RESTFetcher) FetchKlines(ctx context.Context, symbol, resolution string, from, to int64) (KlineHistory, error) {
	url := fmt.Sprintf("%s/v1/tv/history?symbol=%s&resolution=%s&from=%d&to=%d",
		r.baseURL, symbol, resolution, from, to)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return KlineHistory{}, fmt.Errorf("collector: building backfill request: %w", err)
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return KlineHistory{}, fmt.Errorf("collector: backfill request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return KlineHistory{}, fmt.Errorf("collector: backfill: unexpected status %d", resp.StatusCode)
	}

	var raw struct {
		T []json.Number `json:"t"`
		O []json.Number `json:"o"`
		H []json.Number `json:"h"`
		L []json.Number `json:"l"`
		C []json.Number `json:"c"`
		V []json.Number `json:"v"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return KlineHistory{}, fmt.Errorf("collector: parsing backfill response: %w", err)
	}

	return KlineHistory{
		Times:   numbersToFloats(raw.T),
		Opens:   numbersToFloats(raw.O),
		Highs:   numbersToFloats(raw.H),
		Lows:    numbersToFloats(raw.L),
		Closes:  numbersToFloats(raw.C),
		Volumes: numbersToFloats(raw.V),
	}, nil
}

func numbersToFloats(ns []json.Number) []float64 {
	out := make([]float64, len(ns))
	for i, n := range ns {
		f, _ := strconv.ParseFloat(string(n), 64)
		out[i] = f
	}
	return out
}
