package indicator

import (
	"math"
	"testing"
)

func TestSMAIsNaNBeforeWindow(t *testing.T) {
	data := []float64{1, 2, 3, 4, 5}
	out := SMA(data, 3)
	for i := 0; i < 2; i++ {
		if !math.IsNaN(out[i]) {
			t.Errorf("index %d: expected NaN before window fills, got %v", i, out[i])
		}
	}
	if out[2] != 2 { // mean(1,2,3)
		t.Errorf("index 2: want 2, got %v", out[2])
	}
	if out[4] != 4 { // mean(3,4,5)
		t.Errorf("index 4: want 4, got %v", out[4])
	}
}

func TestEMASeedsWithSMA(t *testing.T) {
	data := []float64{1, 2, 3, 4, 5, 6}
	out := EMA(data, 3)
	if math.IsNaN(out[1]) == false {
		t.Errorf("expected NaN before seed index")
	}
	if out[2] != 2 { // mean(1,2,3)
		t.Errorf("seed value: want 2, got %v", out[2])
	}
	alpha := 2.0 / 4.0
	want := alpha*data[3] + (1-alpha)*out[2]
	if math.Abs(out[3]-want) > 1e-9 {
		t.Errorf("index 3: want %v, got %v", want, out[3])
	}
}

func TestRSIRangeLaw(t *testing.T) {
	data := []float64{44, 44.5, 43.5, 45, 46, 45.5, 47, 48, 47.5, 49, 50, 49.5, 51, 52, 51.5, 53}
	out := RSI(data, 14)
	for i, v := range out {
		if math.IsNaN(v) {
			continue
		}
		if v < 0 || v > 100 {
			t.Errorf("index %d: RSI %v out of [0,100]", i, v)
		}
	}
}

func TestBollingerOrdering(t *testing.T) {
	data := []float64{10, 11, 9, 12, 8, 13, 10, 11, 9, 12, 8, 13, 10, 11, 9, 12, 8, 13, 10, 11, 14}
	upper, middle, lower := BollingerBands(data, 20, 2.0)
	for i := range data {
		if math.IsNaN(upper[i]) {
			continue
		}
		if !(upper[i] >= middle[i] && middle[i] >= lower[i]) {
			t.Errorf("index %d: bands not ordered: upper=%v middle=%v lower=%v", i, upper[i], middle[i], lower[i])
		}
	}
}

func TestMACDHistogramIsLineMinusSignal(t *testing.T) {
	data := make([]float64, 60)
	for i := range data {
		data[i] = 100 + float64(i)*0.5
	}
	line, signal, hist := MACD(data, 12, 26, 9)
	for i := range data {
		if math.IsNaN(line[i]) || math.IsNaN(signal[i]) {
			continue
		}
		want := line[i] - signal[i]
		if math.Abs(hist[i]-want) > 1e-9 {
			t.Errorf("index %d: histogram %v != line-signal %v", i, hist[i], want)
		}
	}
}

func TestATRSeedsWithMeanTrueRange(t *testing.T) {
	high := []float64{10, 11, 12, 11, 13, 14, 13, 15, 16, 15, 17, 18, 17, 19, 20}
	low := []float64{9, 10, 11, 10, 12, 13, 12, 14, 15, 14, 16, 17, 16, 18, 19}
	close := []float64{9.5, 10.5, 11.5, 10.5, 12.5, 13.5, 12.5, 14.5, 15.5, 14.5, 16.5, 17.5, 16.5, 18.5, 19.5}
	out := ATR(high, low, close, 14)
	if math.IsNaN(out[13]) {
		t.Fatalf("expected seeded ATR at index 13")
	}
	if out[13] <= 0 {
		t.Errorf("expected positive ATR, got %v", out[13])
	}
}

func TestPercentBDefaultsWhenBandsCollapse(t *testing.T) {
	data := make([]float64, 25)
	for i := range data {
		data[i] = 100 // zero variance -> zero width
	}
	out := PercentB(data, 20, 2.0)
	if out[24] != 0.5 {
		t.Errorf("expected 0.5 when band width is 0, got %v", out[24])
	}
}

func TestVWAPZeroVolumeYieldsZero(t *testing.T) {
	high := []float64{10, 10}
	low := []float64{9, 9}
	close := []float64{9.5, 9.5}
	volume := []float64{0, 0}
	out := VWAP(high, low, close, volume)
	if out[0] != 0 || out[1] != 0 {
		t.Errorf("expected zero VWAP with zero volume, got %v", out)
	}
}
