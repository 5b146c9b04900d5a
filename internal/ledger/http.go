package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// HTTPGateway submits batches to the ledger relayer over JSON/HTTP. The
// relayer owns key management and on-chain transaction assembly; this
// client only speaks the batch contract.
type HTTPGateway struct {
	baseURL string
	apiKey  string
	client  *http.Client
	timeout time.Duration
}

func NewHTTPGateway(baseURL, apiKey string, timeout time.Duration) *HTTPGateway {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &HTTPGateway{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
		timeout: timeout,
	}
}

type submitResponse struct {
	TxHash string `json:"tx_hash"`
	Error  string `json:"error"`
}

// SubmitBatch posts the batch with the batch id as the idempotency key.
// The call is bounded by the configured timeout; the relayer may still
// commit after a timeout, which is why the key matters.
func (g *HTTPGateway) SubmitBatch(ctx context.Context, sub Submission) (Receipt, error) {
	body, err := json.Marshal(sub)
	if err != nil {
		return Receipt{}, &Error{Kind: ErrKindRejected, Err: err}
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/transactions/batch", bytes.NewReader(body))
	if err != nil {
		return Receipt{}, &Error{Kind: ErrKindNetwork, Err: err}
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Idempotency-Key", sub.BatchID.String())
	if g.apiKey != "" {
		req.Header.Set("X-API-Key", g.apiKey)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return Receipt{}, &Error{Kind: ErrKindTimeout, Err: err}
		}
		return Receipt{}, &Error{Kind: ErrKindNetwork, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Receipt{}, &Error{Kind: ErrKindNetwork, Err: err}
	}

	var parsed submitResponse
	if err := json.Unmarshal(data, &parsed); err != nil && resp.StatusCode < 300 {
		return Receipt{}, &Error{Kind: ErrKindRejected, Err: fmt.Errorf("unreadable relayer response: %w", err)}
	}

	if resp.StatusCode >= 300 {
		reason := parsed.Error
		if reason == "" {
			reason = string(data)
		}
		return Receipt{}, &Error{Kind: ErrKindRejected, Err: fmt.Errorf("relayer status %d: %s", resp.StatusCode, reason)}
	}

	if parsed.TxHash == "" {
		return Receipt{}, &Error{Kind: ErrKindRejected, Err: errors.New("relayer returned no tx hash")}
	}

	return Receipt{TxHash: parsed.TxHash, SubmittedAt: time.Now().UTC()}, nil
}
