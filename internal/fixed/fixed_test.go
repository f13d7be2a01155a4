package fixed

import "testing"

func TestLeft(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"USGS", 5, "USGS "},
		{"USGS1", 5, "USGS1"},
		{"USGS12", 5, "USGS1"},
		{"", 3, "   "},
		{"abc", 0, ""},
	}
	for _, tt := range tests {
		if got := Left(tt.in, tt.n); got != tt.want {
			t.Errorf("Left(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
		}
	}
}

func TestRight(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"1", 4, "   1"},
		{"1234", 4, "1234"},
		{"12345", 4, "1234"},
	}
	for _, tt := range tests {
		if got := Right(tt.in, tt.n); got != tt.want {
			t.Errorf("Right(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
		}
	}
}

func TestZeroRight(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"3", 5, "00003"},
		{" 60 ", 5, "00060"},
		{"00060", 5, "00060"},
		{"1", 4, "0001"},
		{"", 4, "0000"},
	}
	for _, tt := range tests {
		if got := ZeroRight(tt.in, tt.n); got != tt.want {
			t.Errorf("ZeroRight(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
		}
	}
}

func TestBlankAndDigits(t *testing.T) {
	if !Blank(" ") || !Blank("") || Blank(" x ") {
		t.Error("Blank misclassified input")
	}
	if !Digits("0123") || Digits("") || Digits("12a") || Digits(" 1") {
		t.Error("Digits misclassified input")
	}
	if got := Truncate("abcdef", 4); got != "abcd" {
		t.Errorf("Truncate = %q, want abcd", got)
	}
	if got := ZeroFill("2005  15"); got != "20050015" {
		t.Errorf("ZeroFill = %q, want 20050015", got)
	}
}
