// Package indicator implements the pure numeric indicator engine (C3):
// plain functions over float64 sequences that return sequences of the
// same length, using NaN as the "undefined here" sentinel, plus the
// structured-report layer that turns a market snapshot into a Report.
package indicator

import "math"

// EMA computes the exponential moving average of data with period p.
// Leading NaN values are skipped; the seed value at index s+p-1 is the
// arithmetic mean of data[s:s+p] where s is the first non-NaN index.
// From there, NaN inputs carry the previous result forward; otherwise
// result[i] = alpha*data[i] + (1-alpha)*result[i-1] with alpha =
// 2/(p+1). Returns an all-NaN sequence if fewer than p valid values
// exist.
func EMA(data []float64, p int) []float64 {
	out := nanSlice(len(data))
	if len(data) < p || p <= 0 {
		return out
	}

	start := -1
	validCount := 0
	for i, v := range data {
		if !math.IsNaN(v) {
			if start < 0 {
				start = i
			}
			validCount++
		}
	}
	if start < 0 || validCount < p {
		return out
	}

	seedEnd := start + p
	if seedEnd > len(data) {
		return out
	}

	alpha := 2.0 / (float64(p) + 1.0)
	out[seedEnd-1] = mean(data[start:seedEnd])

	for i := seedEnd; i < len(data); i++ {
		if math.IsNaN(data[i]) {
			out[i] = out[i-1]
		} else {
			out[i] = alpha*data[i] + (1-alpha)*out[i-1]
		}
	}
	return out
}

// SMA computes the rolling simple moving average over window p. NaN
// until index p-1.
func SMA(data []float64, p int) []float64 {
	out := nanSlice(len(data))
	if len(data) < p || p <= 0 {
		return out
	}
	var sum float64
	for i, v := range data {
		sum += v
		if i >= p {
			sum -= data[i-p]
		}
		if i >= p-1 {
			out[i] = sum / float64(p)
		}
	}
	return out
}

// RSI computes the Relative Strength Index using Wilder's smoothing
// method over period p (default 14). Values are in [0, 100].
func RSI(close []float64, p int) []float64 {
	out := nanSlice(len(close))
	if p <= 0 || len(close) < p+1 {
		return out
	}

	deltas := make([]float64, len(close)-1)
	for i := 1; i < len(close); i++ {
		deltas[i-1] = close[i] - close[i-1]
	}

	var avgGain, avgLoss float64
	for i := 0; i < p; i++ {
		if deltas[i] > 0 {
			avgGain += deltas[i]
		} else {
			avgLoss += -deltas[i]
		}
	}
	avgGain /= float64(p)
	avgLoss /= float64(p)

	out[p] = rsiFromAvg(avgGain, avgLoss)

	for i := p; i < len(deltas); i++ {
		gain, loss := 0.0, 0.0
		if deltas[i] > 0 {
			gain = deltas[i]
		} else {
			loss = -deltas[i]
		}
		avgGain = (avgGain*float64(p-1) + gain) / float64(p)
		avgLoss = (avgLoss*float64(p-1) + loss) / float64(p)
		out[i+1] = rsiFromAvg(avgGain, avgLoss)
	}
	return out
}

func rsiFromAvg(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		return 100.0
	}
	rs := avgGain / avgLoss
	return 100.0 - (100.0 / (1.0 + rs))
}

// MACD returns the MACD line (EMA(fast) - EMA(slow)), its signal line
// (EMA of the MACD line over signalPeriod), and the histogram
// (line - signal).
func MACD(close []float64, fast, slow, signalPeriod int) (line, signal, histogram []float64) {
	emaFast := EMA(close, fast)
	emaSlow := EMA(close, slow)

	line = make([]float64, len(close))
	for i := range line {
		line[i] = emaFast[i] - emaSlow[i] // NaN - NaN or NaN - x propagates NaN
	}

	signal = EMA(line, signalPeriod)

	histogram = make([]float64, len(close))
	for i := range histogram {
		histogram[i] = line[i] - signal[i]
	}
	return line, signal, histogram
}

// BollingerBands returns upper, middle (SMA), and lower bands over
// period p with a k standard-deviation width. Standard deviation is the
// population (ddof=0) std over each trailing window.
func BollingerBands(close []float64, p int, k float64) (upper, middle, lower []float64) {
	middle = SMA(close, p)
	upper = nanSlice(len(close))
	lower = nanSlice(len(close))
	if len(close) < p || p <= 0 {
		return upper, middle, lower
	}

	for i := p - 1; i < len(close); i++ {
		window := close[i-p+1 : i+1]
		std := populationStd(window, middle[i])
		upper[i] = middle[i] + k*std
		lower[i] = middle[i] - k*std
	}
	return upper, middle, lower
}

// PercentB is (close - lower) / (upper - lower); 0.5 where the band
// width is 0.
func PercentB(close []float64, p int, k float64) []float64 {
	upper, _, lower := BollingerBands(close, p, k)
	out := make([]float64, len(close))
	for i := range close {
		width := upper[i] - lower[i]
		if math.IsNaN(width) {
			out[i] = math.NaN()
		} else if width == 0 {
			out[i] = 0.5
		} else {
			out[i] = (close[i] - lower[i]) / width
		}
	}
	return out
}

// VWAP computes the cumulative volume-weighted average price from the
// start of the buffer: typical = (h+l+c)/3, result =
// cumsum(typical*v)/cumsum(v); 0 where cumulative volume is 0.
func VWAP(high, low, close, volume []float64) []float64 {
	out := make([]float64, len(close))
	var cumTPVol, cumVol float64
	for i := range close {
		typical := (high[i] + low[i] + close[i]) / 3.0
		cumTPVol += typical * volume[i]
		cumVol += volume[i]
		if cumVol == 0 {
			out[i] = 0
		} else {
			out[i] = cumTPVol / cumVol
		}
	}
	return out
}

// ATR computes the Average True Range using Wilder's smoothing over
// period p.
func ATR(high, low, close []float64, p int) []float64 {
	out := nanSlice(len(close))
	if len(close) < 2 {
		return out
	}

	tr := make([]float64, len(close))
	tr[0] = high[0] - low[0]
	for i := 1; i < len(close); i++ {
		tr[i] = maxOf3(
			high[i]-low[i],
			math.Abs(high[i]-close[i-1]),
			math.Abs(low[i]-close[i-1]),
		)
	}

	if len(tr) < p || p <= 0 {
		return out
	}

	out[p-1] = mean(tr[:p])
	for i := p; i < len(tr); i++ {
		out[i] = (out[i-1]*float64(p-1) + tr[i]) / float64(p)
	}
	return out
}

func nanSlice(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}

func mean(xs []float64) float64 {
	var sum float64
	for _, v := range xs {
		sum += v
	}
	return sum / float64(len(xs))
}

func populationStd(xs []float64, m float64) float64 {
	var sumSq float64
	for _, v := range xs {
		d := v - m
		sumSq += d * d
	}
	return math.Sqrt(sumSq / float64(len(xs)))
}

func maxOf3(a, b, c float64) float64 {
	m := a
	if b > m {
		m = b
	}
	if c > m {
		m = c
	}
	return m
}

// last returns the final element of xs, or NaN if xs is empty.
func last(xs []float64) float64 {
	if len(xs) == 0 {
		return math.NaN()
	}
	return xs[len(xs)-1]
}

// orDefault returns v if it is not NaN, else def.
func orDefault(v, def float64) float64 {
	if math.IsNaN(v) {
		return def
	}
	return v
}
