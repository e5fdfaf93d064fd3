package ai

import (
	"errors"
	"testing"
)

func TestUnwrapFences(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "no fence",
			input: `{"a": 1}`,
			want:  `{"a": 1}`,
		},
		{
			name:  "plain fence",
			input: "```\n{\"a\": 1}\n```",
			want:  `{"a": 1}`,
		},
		{
			name:  "fence with language tag",
			input: "```json\n{\"a\": 1}\n```",
			want:  `{"a": 1}`,
		},
		{
			name:  "surrounding whitespace",
			input: "  \n```json\n{\"a\": 1}\n```\n  ",
			want:  `{"a": 1}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := UnwrapFences(tt.input)
			if got != tt.want {
				t.Fatalf("unexpected output: got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestUnmarshalFlexible_ValidJSON(t *testing.T) {
	var out map[string]int
	if err := UnmarshalFlexible(`{"a": 1, "b": 2}`, &out); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if out["a"] != 1 || out["b"] != 2 {
		t.Fatalf("unexpected result: %v", out)
	}
}

func TestUnmarshalFlexible_FencedJSON(t *testing.T) {
	var out map[string]int
	if err := UnmarshalFlexible("```json\n{\"a\": 1}\n```", &out); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if out["a"] != 1 {
		t.Fatalf("unexpected result: %v", out)
	}
}

func TestUnmarshalFlexible_DoubleEncoded(t *testing.T) {
	var out map[string]int
	if err := UnmarshalFlexible(`"{\"a\": 1}"`, &out); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if out["a"] != 1 {
		t.Fatalf("unexpected result: %v", out)
	}
}

func TestUnmarshalFlexible_RepairsTrailingComma(t *testing.T) {
	var out map[string]int
	if err := UnmarshalFlexible(`{"a": 1,}`, &out); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if out["a"] != 1 {
		t.Fatalf("unexpected result: %v", out)
	}
}

func TestUnmarshalFlexible_Malformed(t *testing.T) {
	var out map[string]int
	err := UnmarshalFlexible("not json at all, sorry", &out)
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if !errors.Is(err, ErrMalformedResponse) {
		t.Fatalf("expected ErrMalformedResponse, got %v", err)
	}
}
