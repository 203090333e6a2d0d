package service

import (
	"math"
	"testing"
)

func TestBuildTextMatch_NoExpectation(t *testing.T) {
	if match := buildTextMatch("", "P<UTOERIKSSON<<ANNA"); match != nil {
		t.Errorf("buildTextMatch() = %+v, want nil", match)
	}
}

func TestBuildTextMatch_ExactMatch(t *testing.T) {
	match := buildTextMatch("P<UTOERIKSSON<<ANNA", "p<utoeriksson<<anna")
	if match == nil {
		t.Fatal("buildTextMatch() = nil, want a match")
	}
	if match.Similarity != 1.0 {
		t.Errorf("Similarity = %v, want 1.0", match.Similarity)
	}
	if match.WordErrorRate != 0.0 {
		t.Errorf("WordErrorRate = %v, want 0.0", match.WordErrorRate)
	}
	if match.ExpectedText != "P<UTOERIKSSON<<ANNA" {
		t.Errorf("ExpectedText = %q, original expectation lost", match.ExpectedText)
	}
}

func TestTextSimilarity(t *testing.T) {
	tests := []struct {
		name       string
		expected   string
		recognized string
		want       float64
	}{
		{"identical", "ABCDE", "ABCDE", 1.0},
		{"both empty", "", "", 1.0},
		{"completely different", "AAAA", "BBBB", 0.0},
		{"one substitution", "ABCDE", "ABXDE", 0.8},
		{"recognized empty", "ABCD", "", 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := textSimilarity(tt.expected, tt.recognized)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("textSimilarity(%q, %q) = %v, want %v", tt.expected, tt.recognized, got, tt.want)
			}
		})
	}
}

func TestWordErrorRate(t *testing.T) {
	tests := []struct {
		name string
		ref  []string
		hyp  []string
		want float64
	}{
		{"identical", []string{"the", "quick", "fox"}, []string{"the", "quick", "fox"}, 0.0},
		{"one substitution", []string{"the", "quick", "fox"}, []string{"the", "slow", "fox"}, 1.0 / 3.0},
		{"one deletion", []string{"the", "quick", "fox"}, []string{"the", "fox"}, 1.0 / 3.0},
		{"one insertion", []string{"the", "fox"}, []string{"the", "quick", "fox"}, 0.5},
		{"empty reference and hypothesis", nil, nil, 0.0},
		{"empty reference", nil, []string{"noise"}, 1.0},
		{"empty hypothesis", []string{"a", "b"}, nil, 1.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := wordErrorRate(tt.ref, tt.hyp)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("wordErrorRate(%v, %v) = %v, want %v", tt.ref, tt.hyp, got, tt.want)
			}
		})
	}
}

func TestNormalizeText(t *testing.T) {
	got := normalizeText("  p<uto  eriksson\n<<anna\t")
	want := "P<UTO ERIKSSON <<ANNA"
	if got != want {
		t.Errorf("normalizeText() = %q, want %q", got, want)
	}
}
