package calc

import "testing"

func TestHashInputsIgnoresInsertionOrder(t *testing.T) {
	a := map[string]any{
		"potencia_kwp": 5.0,
		"custo_kit":    18000.0,
		"premises":     map[string]any{"inflacao": 0.05, "perda": 0.005},
	}
	b := map[string]any{
		"premises":     map[string]any{"perda": 0.005, "inflacao": 0.05},
		"custo_kit":    18000.0,
		"potencia_kwp": 5.0,
	}

	if HashInputs(a) != HashInputs(b) {
		t.Fatalf("structurally equal maps must hash identically")
	}
}

func TestHashInputsChangesWithAnyValue(t *testing.T) {
	a := map[string]any{"potencia_kwp": 5.0, "custo_kit": 18000.0}
	b := map[string]any{"potencia_kwp": 5.0, "custo_kit": 18000.01}

	if HashInputs(a) == HashInputs(b) {
		t.Fatalf("a changed value must change the hash")
	}
}

func TestHashInputsFormat(t *testing.T) {
	sum := HashInputs(map[string]any{"potencia_kwp": 5.0})
	if len(sum) != 64 {
		t.Fatalf("hash length = %d, want 64 hex characters", len(sum))
	}
	for _, r := range sum {
		if (r < '0' || r > '9') && (r < 'a' || r > 'f') {
			t.Fatalf("hash contains non lowercase-hex character %q", r)
		}
	}
}
