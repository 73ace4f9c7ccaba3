package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"agrimarket/internal/util"

	"go.uber.org/zap"
)

// Notifier dispatches a message to a recipient. Implementations must never
// panic into the caller; the caller treats every failure as best-effort.
type Notifier interface {
	Send(ctx context.Context, recipient, message string) error
}

// SMSGateway sends notifications through the external SMS gateway.
// Every outbound call is bounded by the configured timeout so a stuck
// gateway cannot pin a detached settlement task.
type SMSGateway struct {
	url     string
	client  *http.Client
	timeout time.Duration
	logger  *zap.Logger
}

// NewSMSGateway creates a gateway client
func NewSMSGateway(url string, timeout time.Duration) *SMSGateway {
	return &SMSGateway{
		url:     url,
		client:  &http.Client{Timeout: timeout},
		timeout: timeout,
		logger:  util.GetLogger(),
	}
}

type sendRequest struct {
	Recipient string `json:"recipient"`
	Message   string `json:"message"`
}

type sendResponse struct {
	Success bool `json:"success"`
}

// Send posts the message to the gateway
func (g *SMSGateway) Send(ctx context.Context, recipient, message string) error {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	body, err := json.Marshal(sendRequest{Recipient: recipient, Message: message})
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build gateway request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("gateway request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("gateway returned status %d", resp.StatusCode)
	}

	var out sendResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return fmt.Errorf("failed to decode gateway response: %w", err)
	}
	if !out.Success {
		return fmt.Errorf("gateway rejected message")
	}

	g.logger.Debug("Notification dispatched", zap.String("recipient", recipient))
	return nil
}
