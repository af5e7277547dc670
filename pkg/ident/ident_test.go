package ident

import "testing"

func TestParse(t *testing.T) {
	id, err := Parse("42")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != 42 {
		t.Errorf("got %d, want 42", id)
	}

	id, err = Parse("")
	if err != nil || !id.IsNull() {
		t.Errorf("empty string: got (%d, %v), want (0, nil)", id, err)
	}

	if _, err := Parse("-1"); err == nil {
		t.Error("expected error for negative id")
	}
}

func TestToolKindString(t *testing.T) {
	if got := ToolPiece.String(); got != "Piece" {
		t.Errorf("got %q, want %q", got, "Piece")
	}
	if got := ToolKind(999).String(); got != "Unknown" {
		t.Errorf("got %q, want %q", got, "Unknown")
	}
}
