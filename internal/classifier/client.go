package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/campfirehq/campfire/pkg/config"
	"github.com/campfirehq/campfire/pkg/logging"
	"github.com/campfirehq/campfire/pkg/telemetry"
)

// Verdict is the classifier's judgement on a piece of content
type Verdict struct {
	Flagged bool   `json:"flagged"`
	Reason  string `json:"reason"`
}

// Classifier is the external content-classification capability consumed by
// the moderation pipeline. Calls are best-effort; a failure degrades to
// "not flagged" at the call site.
type Classifier interface {
	Classify(ctx context.Context, message string) (Verdict, error)
}

// Client is an HTTP Classifier posting JSON to a configured endpoint
type Client struct {
	url    string
	http   *http.Client
	logger *zap.Logger
}

// New creates a new classifier client, or nil when no endpoint is configured
func New(cfg *config.ClassifierConfig) *Client {
	if !cfg.Enabled {
		logging.GetLogger().Info("Content classifier disabled")
		return nil
	}

	logger := logging.GetLogger().With(zap.String("component", "classifier-client"))
	logger.Info("Classifier client initialized", zap.String("url", cfg.URL))

	return &Client{
		url:    cfg.URL,
		http:   &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}
}

// Classify submits a message for classification
func (c *Client) Classify(ctx context.Context, message string) (Verdict, error) {
	ctx, span := telemetry.StartSpan(ctx, "classifier.classify")
	defer span.End()

	body, err := json.Marshal(map[string]string{"message": message})
	if err != nil {
		return Verdict{}, fmt.Errorf("failed to marshal classify request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return Verdict{}, fmt.Errorf("failed to build classify request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return Verdict{}, fmt.Errorf("classify request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Verdict{}, fmt.Errorf("classifier returned status %d", resp.StatusCode)
	}

	var verdict Verdict
	if err := json.NewDecoder(resp.Body).Decode(&verdict); err != nil {
		return Verdict{}, fmt.Errorf("failed to decode classify response: %w", err)
	}

	return verdict, nil
}
