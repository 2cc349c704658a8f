package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"
)

// Payload is the create-request body for a sticker record. It is only
// constructed once per submission attempt, after validation and upload have
// both succeeded.
type Payload struct {
	CommunityID string  `json:"community_id"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	ImageURL    string  `json:"image_url"`
	Lat         float64 `json:"lat"`
	Long        float64 `json:"long"`
	AuthID      string  `json:"auth_id"`
}

// RecordAPI issues the backend create call and returns the server-assigned
// sticker id. Failures are classified: an HTTP 5xx response comes back as a
// server-kind error (retry-eligible), any other non-2xx response or a
// malformed body as a network-kind error, and transport failures as-is.
type RecordAPI interface {
	CreateSticker(ctx context.Context, p Payload) (string, error)
}

// StickerClient is the HTTP RecordAPI against the geostick backend.
type StickerClient struct {
	baseURL string
	http    *http.Client
}

func NewStickerClient(baseURL string) *StickerClient {
	return &StickerClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		// per-call deadlines come from ctx; this is a dangling-connection net
		http: &http.Client{Timeout: 2 * time.Minute},
	}
}

func (c *StickerClient) CreateSticker(ctx context.Context, p Payload) (string, error) {
	body, err := json.Marshal(p)
	if err != nil {
		return "", wrap(KindNetwork, "encode payload", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/stickers", bytes.NewReader(body))
	if err != nil {
		return "", wrap(KindNetwork, "build request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		// transport failure; keep context errors recognizable for the caller
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 500 {
		return "", failf(KindServer, "POST /stickers: status %d: %s", resp.StatusCode, bodySnippet(resp.Body))
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", failf(KindNetwork, "POST /stickers: status %d: %s", resp.StatusCode, bodySnippet(resp.Body))
	}
	var out struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", wrap(KindNetwork, "malformed create response", err)
	}
	if out.ID == "" {
		return "", failf(KindNetwork, "create response missing id")
	}
	return out.ID, nil
}

func bodySnippet(r io.Reader) string {
	b, _ := io.ReadAll(io.LimitReader(r, 256))
	return strings.TrimSpace(string(b))
}
