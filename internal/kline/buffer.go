// Package kline implements the fixed-capacity OHLCV ring buffer (C1):
// six parallel numeric sequences with in-place update of the
// in-progress candle and FIFO eviction once the cap is exceeded.
package kline

// DefaultMaxSize is the default buffer capacity.
const DefaultMaxSize = 200

// Buffer is a fixed-capacity OHLCV store. All six sequences always have
// equal length. Not safe for concurrent use — callers (the collector)
// must hold their own lock around Append/LoadBulk and any read of the
// exported slices.
type Buffer struct {
	MaxSize int

	Open      []float64
	High      []float64
	Low       []float64
	Close     []float64
	Volume    []float64
	Timestamp []float64
}

// NewBuffer constructs an empty buffer with the given capacity. A
// maxSize <= 0 falls back to DefaultMaxSize.
func NewBuffer(maxSize int) *Buffer {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	return &Buffer{MaxSize: maxSize}
}

// Size is the current number of rows held.
func (b *Buffer) Size() int {
	return len(b.Close)
}

// Append adds a new candle. If the buffer is non-empty and the last
// stored timestamp equals ts, the last row is replaced in place
// (mid-candle update) rather than appended. After appending, if the
// length exceeds MaxSize, the oldest rows are dropped to restore the
// cap.
func (b *Buffer) Append(o, h, l, c, v, ts float64) {
	n := b.Size()
	if n > 0 && b.Timestamp[n-1] == ts {
		b.Open[n-1] = o
		b.High[n-1] = h
		b.Low[n-1] = l
		b.Close[n-1] = c
		b.Volume[n-1] = v
		return
	}

	b.Open = append(b.Open, o)
	b.High = append(b.High, h)
	b.Low = append(b.Low, l)
	b.Close = append(b.Close, c)
	b.Volume = append(b.Volume, v)
	b.Timestamp = append(b.Timestamp, ts)

	if b.Size() > b.MaxSize {
		drop := b.Size() - b.MaxSize
		b.Open = b.Open[drop:]
		b.High = b.High[drop:]
		b.Low = b.Low[drop:]
		b.Close = b.Close[drop:]
		b.Volume = b.Volume[drop:]
		b.Timestamp = b.Timestamp[drop:]
	}
}

// LoadBulk replaces all six sequences with the tail MaxSize of each
// input. The caller guarantees equal input lengths and monotonic
// timestamps.
func (b *Buffer) LoadBulk(opens, highs, lows, closes, volumes, timestamps []float64) {
	b.Open = tail(opens, b.MaxSize)
	b.High = tail(highs, b.MaxSize)
	b.Low = tail(lows, b.MaxSize)
	b.Close = tail(closes, b.MaxSize)
	b.Volume = tail(volumes, b.MaxSize)
	b.Timestamp = tail(timestamps, b.MaxSize)
}

func tail(xs []float64, n int) []float64 {
	if len(xs) <= n {
		out := make([]float64, len(xs))
		copy(out, xs)
		return out
	}
	out := make([]float64, n)
	copy(out, xs[len(xs)-n:])
	return out
}

// Clone returns an independent deep copy of the buffer, used by the
// collector when producing a MarketSnapshot.
func (b *Buffer) Clone() *Buffer {
	clone := &Buffer{MaxSize: b.MaxSize}
	clone.Open = append([]float64(nil), b.Open...)
	clone.High = append([]float64(nil), b.High...)
	clone.Low = append([]float64(nil), b.Low...)
	clone.Close = append([]float64(nil), b.Close...)
	clone.Volume = append([]float64(nil), b.Volume...)
	clone.Timestamp = append([]float64(nil), b.Timestamp...)
	return clone
}
