package refresh

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/jrsteele09/go-schooltracker-client/credentials"
	"github.com/jrsteele09/go-schooltracker-client/gateway"
	"github.com/jrsteele09/go-schooltracker-client/internal/errors"
)

// HTTPRefresher posts {"refresh": token} to the refresh endpoint and expects
// {"access": ..., "refresh": ...} back. It deliberately bypasses the gateway
// so a rejected refresh never recurses into another refresh.
type HTTPRefresher struct {
	url    string
	client *http.Client
}

var _ Refresher = (*HTTPRefresher)(nil)

func NewHTTPRefresher(url string, client *http.Client) *HTTPRefresher {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &HTTPRefresher{url: url, client: client}
}

func (h *HTTPRefresher) Refresh(ctx context.Context, refreshToken string) (credentials.TokenPair, error) {
	body, err := json.Marshal(map[string]string{"refresh": refreshToken})
	if err != nil {
		return credentials.TokenPair{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.url, bytes.NewReader(body))
	if err != nil {
		return credentials.TokenPair{}, fmt.Errorf("HTTPRefresher: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := h.client.Do(req)
	if err != nil {
		return credentials.TokenPair{}, fmt.Errorf("%w: refresh: %w", errors.ErrTransport, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return credentials.TokenPair{}, fmt.Errorf("%w: refresh: %w", errors.ErrTransport, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return credentials.TokenPair{}, &gateway.HTTPError{Status: resp.StatusCode, Body: data}
	}

	var pair credentials.TokenPair
	if err := json.Unmarshal(data, &pair); err != nil {
		return credentials.TokenPair{}, fmt.Errorf("%w: refresh: %w", errors.ErrInvalidResponse, err)
	}
	return pair, nil
}
