// Package transport delivers text messages to an SMS gateway.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/rs/zerolog"
	"golang.org/x/oauth2/clientcredentials"
)

var ErrGatewayRejected = errors.New("gateway rejected message")

type Gateway interface {
	// Send delivers body to the mobile number and returns the gateway message id.
	Send(ctx context.Context, to, body string) (string, error)
}

type HTTPGatewayConfig struct {
	URL          string
	TokenURL     string
	ClientID     string
	ClientSecret string
	Sender       string
}

// HTTPGateway posts messages as JSON using an OAuth2 client credentials client.
type HTTPGateway struct {
	url    string
	sender string
	client *http.Client
}

func NewHTTPGateway(ctx context.Context, cfg HTTPGatewayConfig) *HTTPGateway {
	cc := clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     cfg.TokenURL,
	}
	return &HTTPGateway{
		url:    cfg.URL,
		sender: cfg.Sender,
		client: cc.Client(ctx),
	}
}

type sendRequest struct {
	From string `json:"from,omitempty"`
	To   string `json:"to"`
	Body string `json:"body"`
}

type sendResponse struct {
	ID    string `json:"id"`
	Error string `json:"error,omitempty"`
}

func (g *HTTPGateway) Send(ctx context.Context, to, body string) (string, error) {
	payload, err := json.Marshal(sendRequest{From: g.sender, To: to, Body: body})
	if err != nil {
		return "", fmt.Errorf("encode message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("send message: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	var out sendResponse
	_ = json.Unmarshal(data, &out)

	if resp.StatusCode >= 300 {
		reason := out.Error
		if reason == "" {
			reason = http.StatusText(resp.StatusCode)
		}
		return "", fmt.Errorf("%w: %d %s", ErrGatewayRejected, resp.StatusCode, reason)
	}
	return out.ID, nil
}

// LogGateway only logs messages. Used when no gateway is configured.
type LogGateway struct {
	logger zerolog.Logger
}

func NewLogGateway(logger zerolog.Logger) *LogGateway {
	return &LogGateway{logger: logger}
}

func (g *LogGateway) Send(_ context.Context, to, body string) (string, error) {
	g.logger.Info().Str("to", to).Int("length", len(body)).Msg("sms not delivered, gateway disabled")
	return "", nil
}
