package feed

import (
	"reflect"
	"testing"

	"github.com/rs/zerolog"
)

func TestSpotTwinReplacesLeadingPerpPrefix(t *testing.T) {
	if got := SpotTwin("PERP_ETH_USDC"); got != "SPOT_ETH_USDC" {
		t.Errorf("want SPOT_ETH_USDC, got %s", got)
	}
}

func TestSpotTwinLeavesNonPerpSymbolsUnchanged(t *testing.T) {
	if got := SpotTwin("ETH_USDC"); got != "ETH_USDC" {
		t.Errorf("want unchanged symbol, got %s", got)
	}
}

func TestTopicsCoversEverySuffixFromSchema(t *testing.T) {
	got := Topics("PERP_ETH_USDC", "SPOT_ETH_USDC")
	want := []string{
		"PERP_ETH_USDC@kline_5m",
		"PERP_ETH_USDC@kline_15m",
		"PERP_ETH_USDC@kline_1h",
		"PERP_ETH_USDC@orderbook",
		"PERP_ETH_USDC@bbo",
		"PERP_ETH_USDC@trade",
		"PERP_ETH_USDC@ticker",
		"PERP_ETH_USDC@estfundingrate",
		"PERP_ETH_USDC@openinterest",
		"PERP_ETH_USDC@markprice",
		"SPOT_ETH_USDC@indexprice",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("topics mismatch:\n got  %v\n want %v", got, want)
	}
}

func TestDispatchDropsNullDataAndMalformedJSON(t *testing.T) {
	f := NewWSFeed("wss://example.invalid", nil, zerolog.Nop())

	var received []Message
	handler := func(m Message) { received = append(received, m) }

	f.dispatch([]byte(`not json`), handler)
	f.dispatch([]byte(`{"topic": "PERP_ETH_USDC@markprice", "data": null}`), handler)
	if len(received) != 0 {
		t.Fatalf("want no messages delivered for malformed/null payloads, got %d", len(received))
	}

	f.dispatch([]byte(`{"topic": "PERP_ETH_USDC@markprice", "data": {"price": "3000"}}`), handler)
	if len(received) != 1 {
		t.Fatalf("want 1 message delivered, got %d", len(received))
	}
	if received[0].Topic != "PERP_ETH_USDC@markprice" {
		t.Errorf("want topic PERP_ETH_USDC@markprice, got %s", received[0].Topic)
	}
	if received[0].Data["price"] != "3000" {
		t.Errorf("want price field preserved, got %v", received[0].Data["price"])
	}
}
