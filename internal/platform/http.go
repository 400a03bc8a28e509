package platform

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const maxErrorBody = 512

// DefaultTimeout bounds every outbound call when the caller supplies no client.
const DefaultTimeout = 30 * time.Second

// APIError describes a non-2xx answer from a network.
type APIError struct {
	Platform   string
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s API error (status %d): %s", e.Platform, e.StatusCode, e.Message)
}

func defaultClient(c *http.Client) *http.Client {
	if c != nil {
		return c
	}
	return &http.Client{Timeout: DefaultTimeout}
}

func doJSON(client *http.Client, platform string, req *http.Request, out any) error {
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("%s request failed: %w", platform, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("error reading %s response: %w", platform, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{Platform: platform, StatusCode: resp.StatusCode, Message: errorMessage(body)}
	}

	if out == nil || len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("error parsing %s response: %w", platform, err)
	}
	return nil
}

// errorMessage pulls the human-readable part out of the error shapes the
// supported networks use, falling back to the raw body.
func errorMessage(body []byte) string {
	var shaped struct {
		Error *struct {
			Message string `json:"message"`
		} `json:"error"`
		Message string `json:"message"`
		Detail  string `json:"detail"`
		Errors  []struct {
			Message string `json:"message"`
		} `json:"errors"`
	}
	if err := json.Unmarshal(body, &shaped); err == nil {
		switch {
		case shaped.Error != nil && shaped.Error.Message != "":
			return shaped.Error.Message
		case shaped.Detail != "":
			return shaped.Detail
		case shaped.Message != "":
			return shaped.Message
		case len(shaped.Errors) > 0 && shaped.Errors[0].Message != "":
			return shaped.Errors[0].Message
		}
	}
	if len(body) > maxErrorBody {
		body = body[:maxErrorBody]
	}
	return string(body)
}

func download(ctx context.Context, client *http.Client, mediaURL string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, mediaURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("error creating media request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("error downloading media %s: %w", mediaURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("unexpected status %d downloading media %s", resp.StatusCode, mediaURL)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("error reading media %s: %w", mediaURL, err)
	}
	return data, resp.Header.Get("Content-Type"), nil
}

func toInt64(v any) int64 {
	switch n := v.(type) {
	case float64:
		return int64(n)
	case int64:
		return n
	case int:
		return int64(n)
	case json.Number:
		i, _ := n.Int64()
		return i
	}
	return 0
}
