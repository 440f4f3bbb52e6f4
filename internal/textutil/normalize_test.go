package textutil

import "testing"

func TestNormalizeTitle(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"  Heat  ", "heat"},
		{"Heat ", "heat"},
		{"Amélie", "amelie"},
		{"Schindler's List", "schindlers list"},
		{"Fast & Furious", "fast and furious"},
		{"Spider-Man: No Way Home", "spider man no way home"},
		{"Æon Flux", "aeon flux"},
		{"THE OFFICE", "the office"},
		{"ﬁve", "five"},
		{"...", ""},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := NormalizeTitle(tt.in); got != tt.want {
				t.Fatalf("NormalizeTitle(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNormalizeTitleKeepsNonLatinLetters(t *testing.T) {
	if got := NormalizeTitle("東京物語"); got == "" {
		t.Fatal("expected CJK title to survive normalization")
	}
}

func TestNormalizeTitleIdempotent(t *testing.T) {
	for _, in := range []string{"Amélie (2001)", "WALL·E", "Mission: Impossible – Fallout"} {
		once := NormalizeTitle(in)
		if twice := NormalizeTitle(once); twice != once {
			t.Fatalf("NormalizeTitle not idempotent for %q: %q then %q", in, once, twice)
		}
	}
}
