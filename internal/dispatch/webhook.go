package dispatch

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// WebhookTransport posts actions to a channel provider endpoint.
// Headers: X-Trigger-Event-ID, X-Trigger-Execution-ID, X-Trigger-Signature
type WebhookTransport struct {
	url    string
	secret string
	client *http.Client
}

func NewWebhookTransport(url, secret string) *WebhookTransport {
	return &WebhookTransport{
		url:    url,
		secret: secret,
		client: &http.Client{},
	}
}

func (w *WebhookTransport) Send(ctx context.Context, msg Message) Result {
	start := time.Now()

	body, err := json.Marshal(msg)
	if err != nil {
		return Result{Error: fmt.Errorf("marshal: %w", err), Permanent: true, Duration: time.Since(start)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return Result{Error: fmt.Errorf("create request: %w", err), Permanent: true, Duration: time.Since(start)}
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Trigger-Event-ID", msg.EventID)
	req.Header.Set("X-Trigger-Execution-ID", msg.ExecutionID)
	if w.secret != "" {
		req.Header.Set("X-Trigger-Signature", computeSignature(w.secret, body))
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return Result{Error: fmt.Errorf("send: %w", err), Duration: time.Since(start)}
	}
	defer resp.Body.Close()

	return Result{StatusCode: resp.StatusCode, Duration: time.Since(start)}
}

func computeSignature(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature lets channel providers check an incoming action.
func VerifySignature(secret string, body []byte, signature string) bool {
	expected := computeSignature(secret, body)
	return hmac.Equal([]byte(expected), []byte(signature))
}
