package detect

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// maxDownloadBytes caps how much remote audio the service will pull in.
const maxDownloadBytes = 25 << 20

type fetcher struct {
	client   *http.Client
	maxBytes int64
}

func newFetcher() *fetcher {
	return &fetcher{
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
		maxBytes: maxDownloadBytes,
	}
}

// Fetch downloads the audio at rawURL and returns the bytes and the
// reported content type.
func (f *fetcher) Fetch(ctx context.Context, rawURL string) ([]byte, string, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil, "", fmt.Errorf("invalid audio url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, "", fmt.Errorf("audio url must use http or https, got %q", parsed.Scheme)
	}
	if parsed.Host == "" {
		return nil, "", fmt.Errorf("audio url has no host")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create request: %w", err)
	}
	// Some audio hosts refuse requests without a browser user agent.
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("audio download failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("audio download returned status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return nil, "", fmt.Errorf("failed to read audio download: %w", err)
	}
	if int64(len(data)) > f.maxBytes {
		return nil, "", fmt.Errorf("audio download exceeds the %d byte limit", f.maxBytes)
	}
	if len(data) == 0 {
		return nil, "", fmt.Errorf("audio download was empty")
	}

	return data, resp.Header.Get("Content-Type"), nil
}

func isAudioContentType(contentType string) bool {
	if contentType == "" {
		return false
	}
	contentType = strings.ToLower(contentType)
	return strings.HasPrefix(contentType, "audio/") ||
		strings.HasPrefix(contentType, "video/") ||
		strings.HasPrefix(contentType, "application/octet-stream")
}
