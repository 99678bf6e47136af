// ABOUTME: HTTP client for the gateway's bot channel
// ABOUTME: Posts questions to /bot/chat?chat_id= and decodes the answer

package botclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

// maxErrorBody bounds how much of a failed response is kept for the error.
const maxErrorBody = 4 << 10

// StatusError is returned when the gateway answers with a non-200 status.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("gateway returned status %d: %s", e.StatusCode, e.Body)
}

type chatRequest struct {
	ID       string `json:"id"`
	Question string `json:"question"`
	ThreadID string `json:"thread_id"`
}

type chatResponse struct {
	ID     string `json:"id"`
	Answer string `json:"answer"`
}

// GatewayClient talks to the gateway on behalf of a bot frontend.
type GatewayClient struct {
	baseURL string
	client  *http.Client
}

// NewGatewayClient creates a client for the gateway at baseURL. A nil client
// gets a default with a two minute timeout.
func NewGatewayClient(baseURL string, client *http.Client) *GatewayClient {
	if client == nil {
		client = &http.Client{Timeout: 2 * time.Minute}
	}
	return &GatewayClient{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  client,
	}
}

// Ask sends question on the bot channel for chatID in threadID and returns the
// answer. Each call uses a fresh request id.
func (g *GatewayClient) Ask(ctx context.Context, chatID, threadID, question string) (string, error) {
	body, err := json.Marshal(chatRequest{
		ID:       uuid.New().String(),
		Question: question,
		ThreadID: threadID,
	})
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	endpoint := g.baseURL + "/bot/chat?" + url.Values{"chat_id": {chatID}}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return "", &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(data))}
	}

	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decoding response: %w", err)
	}
	return out.Answer, nil
}
