package cell

import "testing"

func TestTrim(t *testing.T) {
	if got := Trim("  abc  "); got != "abc" {
		t.Errorf("expected trimmed 'abc', got %q", got)
	}
}

func TestEquals(t *testing.T) {
	tests := []struct {
		name  string
		value string
		param any
		want  bool
	}{
		{"exact match", "abc", "abc", true},
		{"padded match", "abc   ", "abc", true},
		{"mismatch", "abc", "xyz", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Equals(tt.value, tt.param); got != tt.want {
				t.Errorf("Equals(%q, %v) = %v, want %v", tt.value, tt.param, got, tt.want)
			}
		})
	}
}

func TestLessThan(t *testing.T) {
	tests := []struct {
		name  string
		value string
		param any
		want  bool
	}{
		{"less", "5", 10.0, true},
		{"equal", "10", 10.0, false},
		{"greater", "20", 10.0, false},
		{"padded numeric", "  5  ", 10.0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := LessThan(tt.value, tt.param); got != tt.want {
				t.Errorf("LessThan(%q, %v) = %v, want %v", tt.value, tt.param, got, tt.want)
			}
		})
	}
}

func TestAnyOf(t *testing.T) {
	options := []string{"red", "green", "blue"}
	if !AnyOf("green", options) {
		t.Errorf("expected green to match")
	}
	if AnyOf("yellow", options) {
		t.Errorf("expected yellow not to match")
	}
}
