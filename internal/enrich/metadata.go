package enrich

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"
)

// offchainMetadata is the decoded token metadata JSON. All fields optional.
type offchainMetadata struct {
	Image       string `json:"image"`
	Description string `json:"description"`
	Twitter     string `json:"twitter"`
	Telegram    string `json:"telegram"`
	Website     string `json:"website"`
}

var imageExtensions = []string{".png", ".jpg", ".jpeg", ".gif", ".webp", ".svg"}

var imageCDNs = []string{
	"pump.mypinata.cloud", "ipfs.io", "cf-ipfs.com", "arweave.net",
}

// looksLikeImage reports whether a URI can be used directly as the image.
func looksLikeImage(uri string) bool {
	lower := strings.ToLower(uri)
	for _, ext := range imageExtensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	for _, cdn := range imageCDNs {
		if strings.Contains(lower, cdn) {
			return true
		}
	}
	return false
}

// fetchMetadata pulls the off-chain metadata JSON behind the token URI.
// Full mode only; capped at 3s. Nil on any failure.
func (o *Orchestrator) fetchMetadata(ctx context.Context, uri string) *offchainMetadata {
	if uri == "" || !strings.HasPrefix(uri, "http") {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return nil
	}
	resp, err := o.client.Do(req)
	if err != nil {
		return nil
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil
	}

	var meta offchainMetadata
	if err := json.Unmarshal(body, &meta); err != nil {
		return nil
	}
	return &meta
}
