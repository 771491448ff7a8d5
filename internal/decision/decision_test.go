package decision

import "testing"

func TestFinalLeverageZeroWhenNotApproved(t *testing.T) {
	v := ValidatedDecision{Approved: false, AdjustedLeverage: 5}
	if got := v.FinalLeverage(); got != 0 {
		t.Errorf("want 0, got %f", got)
	}
}

func TestFinalQuantityReturnsAdjustedWhenApproved(t *testing.T) {
	v := ValidatedDecision{Approved: true, AdjustedQuantity: 1.5}
	if got := v.FinalQuantity(); got != 1.5 {
		t.Errorf("want 1.5, got %f", got)
	}
}

func TestHoldBuildsSyntheticHoldDecision(t *testing.T) {
	d := Hold("PERP_BTC_USDC", "no data")
	if d.Action != ActionHold || d.Symbol != "PERP_BTC_USDC" || d.Reasoning != "no data" {
		t.Errorf("unexpected hold decision: %+v", d)
	}
}
