package opensearch

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/opensearch-project/opensearch-go/v2/opensearchapi"
)

// Logger writes structured payment events to OpenSearch.
type Logger struct {
	client *Client
}

// NewLogger creates a new OpenSearch event logger
func NewLogger(client *Client) *Logger {
	return &Logger{client: client}
}

// LogEvent indexes a single event document. The event must be
// JSON-marshalable; the system logger passes its own entry type here.
func (l *Logger) LogEvent(ctx context.Context, event any) error {
	if l.client == nil || !l.client.IsEnabled() {
		return nil
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	req := opensearchapi.IndexRequest{
		Index: EventIndex,
		Body:  strings.NewReader(string(payload)),
	}

	res, err := req.Do(ctx, l.client.GetClient())
	if err != nil {
		return fmt.Errorf("failed to index event: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("event indexing error: %s", res.String())
	}

	return nil
}
