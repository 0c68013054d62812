package provider

import (
	"strings"

	"github.com/sahayog/donorpay/infra/logger"
)

// sensitiveKeySubstrings marks log field keys whose values must never reach
// persisted logs verbatim.
var sensitiveKeySubstrings = []string{
	"secret",
	"key",
	"password",
	"token",
	"authorization",
	"card",
	"cvv",
	"pin",
}

const maxLoggedValueLength = 100

// MaskSensitiveData masks a value for logging: short values disappear
// entirely, longer ones keep a two-character prefix and suffix for
// diagnostics.
func MaskSensitiveData(value string) string {
	if len(value) <= 4 {
		return "****"
	}
	return value[:2] + "****" + value[len(value)-2:]
}

// isSensitiveKey reports whether a field key matches the denylist.
func isSensitiveKey(key string) bool {
	lower := strings.ToLower(key)
	for _, s := range sensitiveKeySubstrings {
		if strings.Contains(lower, s) {
			return true
		}
	}
	return false
}

// maskEventFields returns a copy of data with sensitive values masked and
// long string values truncated. The input map is never modified.
func maskEventFields(data map[string]any) map[string]any {
	if data == nil {
		return nil
	}

	masked := make(map[string]any, len(data))
	for key, value := range data {
		if str, ok := value.(string); ok {
			if isSensitiveKey(key) {
				masked[key] = MaskSensitiveData(str)
				continue
			}
			if truncated := truncateRunes(str, maxLoggedValueLength); truncated != str {
				masked[key] = truncated + "..."
				continue
			}
			masked[key] = str
			continue
		}

		if isSensitiveKey(key) {
			masked[key] = "****"
			continue
		}
		masked[key] = value
	}
	return masked
}

// LogPaymentEvent logs a payment event with sensitive fields masked. This is
// the only place secret-bearing data may be observed, and it masks before
// anything reaches a sink, so secrets never land in persisted logs even when
// a caller passes them by mistake.
func LogPaymentEvent(event string, data map[string]any, level logger.LogLevel) {
	fields := maskEventFields(data)

	ctx := logger.LogContext{Fields: fields}
	if donationID, ok := fields["donationId"].(string); ok {
		ctx.DonationID = donationID
	}
	if p, ok := fields["provider"].(string); ok {
		ctx.Provider = p
	}

	switch level {
	case logger.LevelDebug:
		logger.Debug(event, ctx)
	case logger.LevelWarn:
		logger.Warn(event, ctx)
	case logger.LevelError:
		logger.Error(event, nil, ctx)
	default:
		logger.Info(event, ctx)
	}
}
