package provider

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestValidateAmount(t *testing.T) {
	tests := []struct {
		name     string
		amount   float64
		currency Currency
		valid    bool
	}{
		{"zero amount NPR", 0, CurrencyNPR, false},
		{"negative amount NPR", -5, CurrencyNPR, false},
		{"zero amount USD", 0, CurrencyUSD, false},
		{"negative amount USD", -0.01, CurrencyUSD, false},
		{"NPR just below floor", 9.99, CurrencyNPR, false},
		{"NPR at floor", 10.00, CurrencyNPR, true},
		{"NPR at ceiling", 1000000, CurrencyNPR, true},
		{"NPR above ceiling", 1000001, CurrencyNPR, false},
		{"USD just below floor", 0.99, CurrencyUSD, false},
		{"USD at floor", 1.00, CurrencyUSD, true},
		{"USD at ceiling", 10000, CurrencyUSD, true},
		{"USD above ceiling", 10001, CurrencyUSD, false},
		{"unknown currency", 50, Currency("EUR"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := ValidateAmount(tt.amount, tt.currency)
			if res.Valid != tt.valid {
				t.Errorf("ValidateAmount(%v, %s) = %v, want valid=%v (error: %s)",
					tt.amount, tt.currency, res.Valid, tt.valid, res.Error)
			}
			if !res.Valid && res.Error == "" {
				t.Error("invalid result should carry an error message")
			}
		})
	}
}

func TestValidateEmail(t *testing.T) {
	tests := []struct {
		name  string
		email string
		valid bool
	}{
		{"empty", "", false},
		{"plain", "donor@example.org", true},
		{"with plus tag", "donor+monthly@example.org", true},
		{"subdomain", "donor@mail.example.org", true},
		{"missing at", "donor.example.org", false},
		{"missing domain dot", "donor@example", false},
		{"double at", "donor@@example.org", false},
		{"spaces", "donor @example.org", false},
		{"too long", strings.Repeat("a", 250) + "@example.org", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := ValidateEmail(tt.email)
			if res.Valid != tt.valid {
				t.Errorf("ValidateEmail(%q) = %v, want %v", tt.email, res.Valid, tt.valid)
			}
		})
	}
}

func TestValidateName(t *testing.T) {
	tests := []struct {
		name  string
		input string
		valid bool
	}{
		{"empty", "", false},
		{"single char", "A", false},
		{"plain", "Asha Tamang", true},
		{"unicode", "सीता श्रेष्ठ", true},
		// Documented strictness: legitimate names containing forbidden
		// characters are rejected, not stripped.
		{"apostrophe rejected", "O'Brien", false},
		{"angle bracket rejected", "<script>", false},
		{"double quote rejected", `Jo "Bob" Smith`, false},
		{"too long", strings.Repeat("a", 256), false},
		{"at max length", strings.Repeat("a", 255), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := ValidateName(tt.input)
			if res.Valid != tt.valid {
				t.Errorf("ValidateName(%q) = %v, want %v", tt.input, res.Valid, tt.valid)
			}
		})
	}
}

func TestValidatePhone(t *testing.T) {
	tests := []struct {
		name  string
		phone string
		valid bool
	}{
		{"empty is valid", "", true},
		{"plain digits", "9841234567", true},
		{"with country code", "+977-9841234567", true},
		{"formatted", "(01) 442 2567", true},
		{"too short", "123456", false},
		{"too long", "1234567890123456", false},
		{"letters", "98412abc67", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := ValidatePhone(tt.phone)
			if res.Valid != tt.valid {
				t.Errorf("ValidatePhone(%q) = %v, want %v", tt.phone, res.Valid, tt.valid)
			}
		})
	}
}

func TestSanitizeString(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain", "hello world", "hello world"},
		{"strips markup chars", `<b>"hello"</b>`, "bhello/b"},
		{"strips apostrophe", "O'Brien", "OBrien"},
		{"trims", "  padded  ", "padded"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SanitizeString(tt.input); got != tt.want {
				t.Errorf("SanitizeString(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}

	t.Run("truncates long input", func(t *testing.T) {
		got := SanitizeString(strings.Repeat("x", 1500))
		if len(got) != 1000 {
			t.Errorf("sanitized length = %d, want 1000", len(got))
		}
	})

	// Truncation must not split a multibyte rune.
	t.Run("truncates on rune boundary", func(t *testing.T) {
		got := SanitizeString(strings.Repeat("सीता", 400))
		if !utf8.ValidString(got) {
			t.Error("sanitized output is not valid UTF-8")
		}
		if utf8.RuneCountInString(got) != 1000 {
			t.Errorf("sanitized rune count = %d, want 1000", utf8.RuneCountInString(got))
		}
	})
}

func TestVerifyAmountMatch(t *testing.T) {
	tests := []struct {
		name      string
		expected  float64
		actual    float64
		currency  Currency
		tolerance float64
		valid     bool
	}{
		{"exact match NPR", 500, 500, CurrencyNPR, 0, true},
		{"exact match USD", 25.00, 25.00, CurrencyUSD, 0, true},
		// NPR tolerance is in paisa: 1 paisa allows a 0.01 difference.
		{"within paisa tolerance", 500.00, 500.01, CurrencyNPR, 1, true},
		{"outside paisa tolerance", 500.00, 500.02, CurrencyNPR, 1, false},
		{"USD tolerance in major units", 25.00, 25.40, CurrencyUSD, 0.5, true},
		{"USD outside tolerance", 25.00, 25.60, CurrencyUSD, 0.5, false},
		{"unknown currency", 10, 10, Currency("EUR"), 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := VerifyAmountMatch(tt.expected, tt.actual, tt.currency, tt.tolerance)
			if res.Valid != tt.valid {
				t.Errorf("VerifyAmountMatch(%v, %v, %s, %v) = %v, want %v",
					tt.expected, tt.actual, tt.currency, tt.tolerance, res.Valid, tt.valid)
			}
		})
	}
}
