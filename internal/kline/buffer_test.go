package kline

import "testing"

func TestAppendGrowsUntilCap(t *testing.T) {
	b := NewBuffer(3)
	b.Append(1, 1, 1, 1, 10, 100)
	b.Append(2, 2, 2, 2, 10, 200)
	if b.Size() != 2 {
		t.Fatalf("expected size 2, got %d", b.Size())
	}
}

func TestAppendSameTimestampUpdatesInPlace(t *testing.T) {
	b := NewBuffer(3)
	b.Append(1, 2, 0.5, 1.5, 10, 100)
	b.Append(1, 3, 0.5, 2.0, 15, 100) // in-progress candle update, same ts

	if b.Size() != 1 {
		t.Fatalf("same-timestamp append should not grow buffer, got size %d", b.Size())
	}
	if b.Close[0] != 2.0 || b.Volume[0] != 15 || b.High[0] != 3 {
		t.Fatalf("last row not updated in place: %+v", b)
	}
}

func TestAppendDropsOldestWhenOverCap(t *testing.T) {
	b := NewBuffer(3)
	for i := 0; i < 5; i++ {
		ts := float64(100 + i)
		b.Append(float64(i), float64(i), float64(i), float64(i), 1, ts)
	}
	if b.Size() != 3 {
		t.Fatalf("expected capped size 3, got %d", b.Size())
	}
	// Most recent 3 candles should be timestamps 102, 103, 104.
	want := []float64{102, 103, 104}
	for i, ts := range want {
		if b.Timestamp[i] != ts {
			t.Errorf("index %d: want ts %v, got %v", i, ts, b.Timestamp[i])
		}
	}
	if b.Close[2] != 4 {
		t.Errorf("expected most recent close 4, got %v", b.Close[2])
	}
}

func TestLoadBulkTruncatesToMaxSize(t *testing.T) {
	b := NewBuffer(2)
	opens := []float64{1, 2, 3}
	highs := []float64{1, 2, 3}
	lows := []float64{1, 2, 3}
	closes := []float64{1, 2, 3}
	vols := []float64{1, 1, 1}
	ts := []float64{10, 20, 30}

	b.LoadBulk(opens, highs, lows, closes, vols, ts)

	if b.Size() != 2 {
		t.Fatalf("expected truncated size 2, got %d", b.Size())
	}
	if b.Timestamp[0] != 20 || b.Timestamp[1] != 30 {
		t.Fatalf("expected tail of input retained, got %+v", b.Timestamp)
	}
}

func TestCloneIsIndependent(t *testing.T) {
	b := NewBuffer(10)
	b.Append(1, 1, 1, 1, 1, 100)

	clone := b.Clone()
	b.Append(2, 2, 2, 2, 2, 200)

	if clone.Size() != 1 {
		t.Fatalf("clone should not see subsequent mutation to original, got size %d", clone.Size())
	}
}
