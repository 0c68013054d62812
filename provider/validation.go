package provider

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/sahayog/donorpay/infra/config"
)

// Amount bounds per currency, in major units. These are provider-realistic
// floor/ceiling guards applied uniformly before any provider is selected.
const (
	minAmountNPR = 10
	maxAmountNPR = 1_000_000
	minAmountUSD = 1
	maxAmountUSD = 10_000
)

const (
	maxEmailLength    = 255
	maxNameLength     = 255
	minNameLength     = 2
	maxSanitizeLength = 1000
	minPhoneDigits    = 7
	maxPhoneDigits    = 15
)

// forbiddenNameChars are rejected outright in names rather than stripped.
const forbiddenNameChars = `<>"'`

// emailPattern is deliberately conservative: one @, a dotted domain.
var emailPattern = regexp.MustCompile(`^[A-Za-z0-9._%+\-]+@[A-Za-z0-9\-]+(\.[A-Za-z0-9\-]+)*\.[A-Za-z]{2,}$`)

func valid() ValidationResult {
	return ValidationResult{Valid: true}
}

func invalid(format string, args ...any) ValidationResult {
	return ValidationResult{Valid: false, Error: fmt.Sprintf(format, args...)}
}

// ValidateAmount checks an amount against the per-currency bounds.
func ValidateAmount(amount float64, currency Currency) ValidationResult {
	if amount <= 0 {
		return invalid("amount must be greater than 0")
	}

	switch currency {
	case CurrencyNPR:
		if amount < minAmountNPR {
			return invalid("amount must be at least %d NPR", minAmountNPR)
		}
		if amount > maxAmountNPR {
			return invalid("amount must not exceed %d NPR", maxAmountNPR)
		}
	case CurrencyUSD:
		if amount < minAmountUSD {
			return invalid("amount must be at least %d USD", minAmountUSD)
		}
		if amount > maxAmountUSD {
			return invalid("amount must not exceed %d USD", maxAmountUSD)
		}
	default:
		return invalid("unsupported currency: %q", currency)
	}

	return valid()
}

// ValidateEmail checks a donor email address.
func ValidateEmail(email string) ValidationResult {
	if email == "" {
		return invalid("email is required")
	}
	if len(email) > maxEmailLength {
		return invalid("email must not exceed %d characters", maxEmailLength)
	}
	if !emailPattern.MatchString(email) {
		return invalid("email format is invalid")
	}
	if err := config.App().Validator.Var(email, "email"); err != nil {
		return invalid("email format is invalid")
	}
	return valid()
}

// ValidateName checks a donor name. Names containing markup-significant
// characters are rejected outright, not silently stripped; this is stricter
// than SanitizeString on purpose.
func ValidateName(name string) ValidationResult {
	if name == "" {
		return invalid("name is required")
	}
	if len(name) < minNameLength {
		return invalid("name must be at least %d characters", minNameLength)
	}
	if len(name) > maxNameLength {
		return invalid("name must not exceed %d characters", maxNameLength)
	}
	if strings.ContainsAny(name, forbiddenNameChars) {
		return invalid("name contains invalid characters")
	}
	return valid()
}

// ValidatePhone checks an optional donor phone number. Formatting characters
// are stripped before the digit check.
func ValidatePhone(phone string) ValidationResult {
	if phone == "" {
		return valid()
	}

	stripped := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '-', '(', ')', '+':
			return -1
		}
		return r
	}, phone)

	for _, r := range stripped {
		if r < '0' || r > '9' {
			return invalid("phone number must contain only digits")
		}
	}

	if len(stripped) < minPhoneDigits || len(stripped) > maxPhoneDigits {
		return invalid("phone number must be between %d and %d digits", minPhoneDigits, maxPhoneDigits)
	}

	return valid()
}

// SanitizeString strips markup-significant characters, trims whitespace and
// truncates. Used for free-text fields that may be auto-corrected rather
// than rejected.
func SanitizeString(input string) string {
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case '<', '>', '"', '\'':
			return -1
		}
		return r
	}, input)

	return truncateRunes(strings.TrimSpace(cleaned), maxSanitizeLength)
}

// truncateRunes cuts s to at most max runes. Cutting by byte could split a
// multibyte rune and emit invalid UTF-8.
func truncateRunes(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}

// VerifyAmountMatch reconciles a provider-reported amount against the
// original request. For NPR the tolerance is interpreted in minor units
// (paisa); for USD it is in major units.
func VerifyAmountMatch(expected, actual float64, currency Currency, tolerance float64) ValidationResult {
	diff := decimal.NewFromFloat(expected).Sub(decimal.NewFromFloat(actual)).Abs()

	var allowed decimal.Decimal
	switch currency {
	case CurrencyNPR:
		allowed = decimal.NewFromFloat(tolerance).Shift(-2)
	case CurrencyUSD:
		allowed = decimal.NewFromFloat(tolerance)
	default:
		return invalid("unsupported currency: %q", currency)
	}

	if diff.GreaterThan(allowed) {
		return invalid("amount mismatch: expected %s, got %s", FormatAmount(expected), FormatAmount(actual))
	}
	return valid()
}
