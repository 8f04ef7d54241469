package types

import "testing"

func TestParseAnalysisType(t *testing.T) {
	tests := []struct {
		input string
		valid bool
	}{
		{"analyze", true},
		{"logs", true},
		{"stacktrace", true},
		{"review", true},
		{"Analyze", false},
		{"explain", false},
		{"", false},
	}

	for _, tt := range tests {
		got, ok := ParseAnalysisType(tt.input)
		if ok != tt.valid {
			t.Errorf("ParseAnalysisType(%q) valid = %v, want %v", tt.input, ok, tt.valid)
		}
		if ok && string(got) != tt.input {
			t.Errorf("ParseAnalysisType(%q) = %q", tt.input, got)
		}
	}
}

func TestAnalysisTypes_AllParse(t *testing.T) {
	types := AnalysisTypes()
	if len(types) != 4 {
		t.Fatalf("expected 4 analysis types, got %d", len(types))
	}
	for _, at := range types {
		if _, ok := ParseAnalysisType(string(at)); !ok {
			t.Errorf("%s should parse", at)
		}
	}
}

func TestParseLanguage(t *testing.T) {
	tests := []struct {
		input string
		valid bool
	}{
		{"JavaScript", true},
		{"C++", true},
		{"C#", true},
		{"HTML/CSS", true},
		{"Shell/Bash", true},
		{"Other", true},
		{"javascript", false},
		{"Haskell", false},
		{"", false},
	}

	for _, tt := range tests {
		_, ok := ParseLanguage(tt.input)
		if ok != tt.valid {
			t.Errorf("ParseLanguage(%q) valid = %v, want %v", tt.input, ok, tt.valid)
		}
	}
}

func TestLanguages_Count(t *testing.T) {
	if got := len(Languages()); got != 16 {
		t.Errorf("expected 16 languages, got %d", got)
	}
}
