package opensearch

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

// A logger without a client is a no-op, not an error; logging must never
// break payment flows.
func TestLogEventWithoutClient(t *testing.T) {
	logger := NewLogger(nil)

	err := logger.LogEvent(context.Background(), map[string]string{"message": "event"})
	assert.NoError(t, err)
}
