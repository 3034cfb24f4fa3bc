package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// --- Reporting (/metrics) ---
type PublishResp struct {
	Status string `json:"status"`
	ID     string `json:"id"`
}

// PublishReport posts payload as JSON. Any 2xx is accepted; an empty body
// yields a zero PublishResp.
func (h *HTTP) PublishReport(ctx context.Context, url string, payload any) (*PublishResp, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("reporting encode: %w", err)
	}
	r, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(url, "/")+"/metrics", bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	r.Header.Set("Content-Type", "application/json")
	resp, err := h.c.Do(r)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("reporting %s: %s", resp.Status, string(body))
	}

	var out PublishResp
	if len(bytes.TrimSpace(body)) == 0 {
		return &out, nil
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("reporting decode: %w", err)
	}
	return &out, nil
}
