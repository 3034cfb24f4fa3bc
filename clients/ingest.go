package clients

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/maastricht-university/calltimeline/timeline"
)

// --- Ingest (/calls) ---
type CallRecord struct {
	CallID       string                  `json:"call_id"`
	DurationMeta *float64                `json:"duration_sec_metadata,omitempty"`
	Utterances   []timeline.RawUtterance `json:"utterances"`
}
type CallsResp struct {
	Calls []CallRecord `json:"calls"`
}

func (h *HTTP) FetchBatch(ctx context.Context, url string) (*CallsResp, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimRight(url, "/")+"/calls", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := h.c.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("ingest %s: %s", resp.Status, string(body))
	}

	var out CallsResp
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("ingest decode: %w", err)
	}
	return &out, nil
}
