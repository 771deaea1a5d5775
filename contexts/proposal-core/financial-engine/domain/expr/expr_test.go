package expr

import "testing"

func evalOK(t *testing.T, expression string, context map[string]float64) float64 {
	t.Helper()
	value := Evaluate(expression, context)
	if value == nil {
		t.Fatalf("Evaluate(%q) = nil, want a value", expression)
	}
	return *value
}

func TestEvaluateSubstitutesTokens(t *testing.T) {
	context := map[string]float64{"a": 2, "b": 3}
	if got := evalOK(t, "[a] + [b]", context); got != 5 {
		t.Fatalf("[a] + [b] = %v, want 5", got)
	}
	if got := evalOK(t, "[valor_total] / [potencia_kwp]", map[string]float64{
		"valor_total":  21000,
		"potencia_kwp": 5.25,
	}); got != 4000 {
		t.Fatalf("valor_total / potencia_kwp = %v, want 4000", got)
	}
}

func TestEvaluateOperatorPrecedence(t *testing.T) {
	if got := evalOK(t, "2 + 3 * 4", nil); got != 14 {
		t.Fatalf("2 + 3 * 4 = %v, want 14", got)
	}
	if got := evalOK(t, "(2 + 3) * 4", nil); got != 20 {
		t.Fatalf("(2 + 3) * 4 = %v, want 20", got)
	}
	if got := evalOK(t, "-(2 + 3) * 2", nil); got != -10 {
		t.Fatalf("-(2 + 3) * 2 = %v, want -10", got)
	}
}

func TestEvaluateRoundsToFourDecimals(t *testing.T) {
	if got := evalOK(t, "10 / 3", nil); got != 3.3333 {
		t.Fatalf("10 / 3 = %v, want 3.3333", got)
	}
	// Decimal arithmetic avoids the binary-float artifact.
	if got := evalOK(t, "0.1 + 0.2", nil); got != 0.3 {
		t.Fatalf("0.1 + 0.2 = %v, want 0.3", got)
	}
}

func TestEvaluateMissingTokenSubstitutesZero(t *testing.T) {
	if got := evalOK(t, "[nao_existe] + 1", map[string]float64{}); got != 1 {
		t.Fatalf("missing token = %v, want 1", got)
	}
}

func TestEvaluateRejectsUnsafeInput(t *testing.T) {
	cases := []string{
		"[a] / [b]; DROP TABLE versions",
		"len(x)",
		"2 +",
		"",
		"1 / 0",
		"()",
		"1..2",
	}
	for _, expression := range cases {
		if Evaluate(expression, map[string]float64{"a": 1, "b": 1}) != nil {
			t.Fatalf("Evaluate(%q) must yield nil", expression)
		}
	}
}
