// ABOUTME: Backend that forwards normalized requests to a remote answer service
// ABOUTME: POSTs {id, question, thread_id} as JSON and decodes {id, answer}

package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// maxAnswerBytes caps how much of a remote response is read.
const maxAnswerBytes = 4 << 20

// HTTP calls a remote answer service over HTTP.
type HTTP struct {
	url    string
	client *http.Client
}

// NewHTTP creates an HTTP backend posting to url. A nil client uses http.DefaultClient.
func NewHTTP(url string, client *http.Client) *HTTP {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTP{url: url, client: client}
}

// Answer implements Backend.
func (h *HTTP) Answer(ctx context.Context, req Request) (Answer, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return Answer{}, fmt.Errorf("marshaling request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, h.url, bytes.NewReader(body))
	if err != nil {
		return Answer{}, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := h.client.Do(httpReq)
	if err != nil {
		return Answer{}, fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxAnswerBytes))
	if err != nil {
		return Answer{}, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return Answer{}, fmt.Errorf("answer service returned status %d: %s", resp.StatusCode, bytes.TrimSpace(data))
	}

	var ans Answer
	if err := json.Unmarshal(data, &ans); err != nil {
		return Answer{}, fmt.Errorf("decoding response: %w", err)
	}
	return ans, nil
}
