// Package marketplace is a client for the marketplace booking and bid API.
package marketplace

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// FallbackMessage is used when a failed response carries no message.
const FallbackMessage = "Something went wrong, please try again"

var (
	ErrMissingID      = errors.New("missing id")
	ErrReasonRequired = errors.New("reason is required")
	ErrInvalidRating  = errors.New("rating must be between 1 and 5")
)

// APIError is returned for every non-2xx response.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("marketplace api error: status=%d message=%s", e.StatusCode, e.Message)
}

type Client struct {
	HTTPClient *http.Client
	BaseURL    string
	Token      string
}

type envelope struct {
	Error   bool   `json:"error"`
	Message string `json:"message"`
}

func (c Client) doJSON(ctx context.Context, method, path string, reqBody any, respBody any) error {
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: 20 * time.Second}
	}
	if c.BaseURL == "" {
		return fmt.Errorf("missing base url")
	}

	var body io.Reader
	if reqBody != nil {
		var buf bytes.Buffer
		if err := json.NewEncoder(&buf).Encode(reqBody); err != nil {
			return err
		}
		body = &buf
	}

	req, err := http.NewRequestWithContext(ctx, method, strings.TrimRight(c.BaseURL, "/")+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if reqBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	b, readErr := io.ReadAll(resp.Body)
	if readErr != nil {
		return readErr
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode, Message: FallbackMessage}
		var env envelope
		if err := json.Unmarshal(b, &env); err == nil && strings.TrimSpace(env.Message) != "" {
			apiErr.Message = env.Message
		}
		return apiErr
	}

	if respBody != nil && len(b) > 0 {
		if err := json.Unmarshal(b, respBody); err != nil {
			return fmt.Errorf("decode marketplace response failed: %w body=%s", err, string(b))
		}
	}
	return nil
}

func escape(id string) string {
	return url.PathEscape(id)
}
