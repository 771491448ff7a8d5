package marketdata

import (
	"math"
	"testing"
)

func TestOrderbookImbalanceFavorsHeavierSide(t *testing.T) {
	ob := OrderbookSnapshot{
		Bids: []OrderbookLevel{{Price: 100, Quantity: 9}},
		Asks: []OrderbookLevel{{Price: 101, Quantity: 1}},
	}
	if imb := ob.Imbalance(); imb <= 0.7 {
		t.Errorf("want strongly bid-skewed imbalance, got %f", imb)
	}
}

func TestOrderbookImbalanceZeroWhenBothSidesEmpty(t *testing.T) {
	var ob OrderbookSnapshot
	if imb := ob.Imbalance(); imb != 0 {
		t.Errorf("want 0, got %f", imb)
	}
}

func TestBBOMidPriceZeroWhenOneSideMissing(t *testing.T) {
	b := BBO{BidPrice: 100, AskPrice: 0}
	if mid := b.MidPrice(); mid != 0 {
		t.Errorf("want 0, got %f", mid)
	}
}

func TestBBOSpreadBps(t *testing.T) {
	b := BBO{BidPrice: 100, AskPrice: 101}
	if bps := b.SpreadBps(); math.Abs(bps-99.5025) > 0.01 {
		t.Errorf("want ~99.5 bps, got %f", bps)
	}
}

func TestBBOSpreadBpsZeroWhenMidMissing(t *testing.T) {
	var b BBO
	if bps := b.SpreadBps(); bps != 0 {
		t.Errorf("want 0, got %f", bps)
	}
}

func TestTradersOILSRatioInfWhenShortRatioZero(t *testing.T) {
	tr := TradersOI{LongRatio: 0.6, ShortRatio: 0}
	if ratio := tr.LSRatio(); !math.IsInf(ratio, 1) {
		t.Errorf("want +Inf, got %f", ratio)
	}
}

func TestVolumeDeltaRatioZeroWhenNoVolume(t *testing.T) {
	var v VolumeDelta
	if r := v.DeltaRatio(); r != 0 {
		t.Errorf("want 0, got %f", r)
	}
}

func TestVolumeDeltaRatioReflectsBuySellSkew(t *testing.T) {
	v := VolumeDelta{BuyVolume: 80, SellVolume: 20}
	if r := v.DeltaRatio(); math.Abs(r-0.6) > 1e-9 {
		t.Errorf("want 0.6, got %f", r)
	}
}
