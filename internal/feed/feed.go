// Package feed implements the opaque exchange transport (C2's upstream
// collaborator): a connection that delivers {topic, data} messages for
// a set of subscribed topics. spec.md §1 treats the exchange's wire
// protocol as out of scope; this package only has to honor the shape
// in §6.2 and hand messages to a collector's ingest dispatch.
package feed

import (
	"context"
)

// Message is one inbound {topic, data} payload. Data is nil when the
// upstream sends a null data field, which callers must ignore.
type Message struct {
	Topic string
	Data  map[string]any
}

// Feed is a running subscription to a set of topics for one symbol
// pair (the perp symbol and its spot twin for index price). Handler is
// invoked once per inbound message, on whatever goroutine the feed
// uses internally; handlers must not block.
type Feed interface {
	// Start begins delivering messages to handler until ctx is
	// cancelled or Stop is called. Idempotent: a second Start before
	// Stop is a no-op.
	Start(ctx context.Context, handler func(Message))

	// Stop tears down the connection. Idempotent.
	Stop()
}

// Topics returns the full topic list for a perp symbol and its
// derived spot twin, in the exact suffix set spec.md §6.2 names.
func Topics(symbol, spotSymbol string) []string {
	return []string{
		symbol + "@kline_5m",
		symbol + "@kline_15m",
		symbol + "@kline_1h",
		symbol + "@orderbook",
		symbol + "@bbo",
		symbol + "@trade",
		symbol + "@ticker",
		symbol + "@estfundingrate",
		symbol + "@openinterest",
		symbol + "@markprice",
		spotSymbol + "@indexprice",
	}
}

// SpotTwin derives the spot symbol for index-price subscription by
// replacing a leading "PERP_" with "SPOT_". Symbols without that
// prefix are returned unchanged.
func SpotTwin(symbol string) string {
	const perpPrefix = "PERP_"
	const spotPrefix = "SPOT_"
	if len(symbol) >= len(perpPrefix) && symbol[:len(perpPrefix)] == perpPrefix {
		return spotPrefix + symbol[len(perpPrefix):]
	}
	return symbol
}
