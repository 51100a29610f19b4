package money

import "testing"

func TestParseDecimal(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Cents
		wantErr bool
	}{
		{"Dot separator", "12.34", 1234, false},
		{"Comma separator", "12,34", 1234, false},
		{"Integer only", "1000", 100000, false},
		{"Single fractional digit", "12.3", 1230, false},
		{"Rounds down on third decimal", "12.344", 1234, false},
		{"Rounds up on third decimal", "12.346", 1235, false},
		{"Leading whitespace", "  5,00", 500, false},
		{"Empty", "", 0, true},
		{"Negative", "-10.00", 0, true},
		{"Explicit plus", "+10.00", 0, true},
		{"Zero", "0", 0, true},
		{"Garbage", "abc", 0, true},
		{"Two separators", "1.2.3", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDecimal(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %d", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("ParseDecimal(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

func TestCentsString(t *testing.T) {
	tests := []struct {
		amount Cents
		want   string
	}{
		{1234, "R$ 12,34"},
		{100000, "R$ 1000,00"},
		{5, "R$ 0,05"},
		{-30000, "-R$ 300,00"},
	}

	for _, tt := range tests {
		if got := tt.amount.String(); got != tt.want {
			t.Errorf("Cents(%d).String() = %q, want %q", tt.amount, got, tt.want)
		}
	}
}
