package engine

import (
	"reflect"
	"testing"
)

func TestTokens(t *testing.T) {
	tests := []struct {
		formula string
		want    []string
	}{
		{"", nil},
		{"10", nil},
		{"Line_A_A1 * 2 + #width", []string{"Line_A_A1", "#width"}},
		{"#a + #a", []string{"#a"}},
		{"sqrt(Spl_A_B) - AngleLine_A_B", []string{"Spl_A_B", "AngleLine_A_B"}},
	}
	for _, tt := range tests {
		got, err := Tokens(tt.formula)
		if err != nil {
			t.Fatalf("Tokens(%q) error: %v", tt.formula, err)
		}
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("Tokens(%q) = %v, want %v", tt.formula, got, tt.want)
		}
	}

	if _, err := Tokens("a $ b"); err == nil {
		t.Error("expected lex error")
	}
}

func TestCanonical(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"1+2", "1 + 2"},
		{"  #w/2 ", "#w / 2"},
		{"2*-3", "2 * -3"},
		{"( a + b )*2", "(a + b) * 2"},
		{"max( 1 ;2)", "max(1; 2)"},
		{"1,5", "1.5"},
		{"-(a)", "-(a)"},
		{"bad $ text ", "bad $ text"},
	}
	for _, tt := range tests {
		got := Canonical(tt.in)
		if got != tt.want {
			t.Errorf("Canonical(%q) = %q, want %q", tt.in, got, tt.want)
		}
		if again := Canonical(got); again != got {
			t.Errorf("Canonical not idempotent: %q -> %q", got, again)
		}
	}
}

func TestCompile(t *testing.T) {
	bind := func(name string) (string, error) { return "v_" + name, nil }
	tests := []struct {
		formula string
		want    string
	}{
		{"1", "1.0"},
		{"a - b - c", "(- (- v_a v_b) v_c)"},
		{"-a * b", "(* (- 0.0 v_a) v_b)"},
		{"-a ^ 2", "(- 0.0 (fx_pow v_a 2.0))"},
		{"+a", "v_a"},
		{"min(a; 2.5)", "(fx_min v_a 2.5)"},
	}
	for _, tt := range tests {
		got, err := compile(tt.formula, bind)
		if err != nil {
			t.Fatalf("compile(%q) error: %v", tt.formula, err)
		}
		if got != tt.want {
			t.Errorf("compile(%q) = %q, want %q", tt.formula, got, tt.want)
		}
	}
}

func TestFloatLiteral(t *testing.T) {
	if got := floatLiteral(2); got != "2.0" {
		t.Errorf("got %q, want 2.0", got)
	}
	if got := floatLiteral(-1.25); got != "(- 0.0 1.25)" {
		t.Errorf("got %q, want (- 0.0 1.25)", got)
	}
}
