package oracle

import "testing"

type decisionPayload struct {
	Decisions []struct {
		Symbol string `json:"symbol"`
		Action string `json:"action"`
	} `json:"decisions"`
}

func TestStripCodeFenceRemovesJSONFence(t *testing.T) {
	in := "```json\n{\"a\": 1}\n```"
	out := StripCodeFence(in)
	if out != `{"a": 1}` {
		t.Errorf("want stripped JSON, got %q", out)
	}
}

func TestStripCodeFenceLeavesPlainJSONUntouched(t *testing.T) {
	in := `{"a": 1}`
	if got := StripCodeFence(in); got != in {
		t.Errorf("want unchanged, got %q", got)
	}
}

func TestExtractJSONObjectParsesCleanResponse(t *testing.T) {
	var p decisionPayload
	err := ExtractJSONObject(`{"decisions": [{"symbol": "PERP_ETH_USDC", "action": "HOLD"}]}`, &p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(p.Decisions) != 1 || p.Decisions[0].Symbol != "PERP_ETH_USDC" {
		t.Errorf("unexpected payload: %+v", p)
	}
}

func TestExtractJSONObjectFallsBackToBraceSubstring(t *testing.T) {
	var p decisionPayload
	noisy := "Sure, here you go:\n{\"decisions\": [{\"symbol\": \"PERP_BTC_USDC\", \"action\": \"LONG\"}]}\nHope that helps!"
	err := ExtractJSONObject(noisy, &p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(p.Decisions) != 1 || p.Decisions[0].Action != "LONG" {
		t.Errorf("unexpected payload: %+v", p)
	}
}

func TestExtractJSONObjectErrorsOnNoJSON(t *testing.T) {
	var p decisionPayload
	if err := ExtractJSONObject("not json at all", &p); err == nil {
		t.Errorf("expected an error for non-JSON content")
	}
}
