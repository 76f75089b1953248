package infra

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/disintegration/imaging"
)

// IconDownloader handles downloading and caching coin icons
type IconDownloader struct {
	basePath string
	size     int
	client   *http.Client
}

// NewIconDownloader creates a new IconDownloader storing icons of size x size pixels in dir
func NewIconDownloader(dir string, size int) (*IconDownloader, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create assets directory: %w", err)
	}
	if size <= 0 {
		size = 24
	}

	// Optimize HTTP Transport to prevent connection leaks
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.MaxIdleConns = 100
	transport.MaxConnsPerHost = 10
	transport.IdleConnTimeout = 30 * time.Second

	return &IconDownloader{
		basePath: dir,
		size:     size,
		client: &http.Client{
			Timeout:   10 * time.Second,
			Transport: transport,
		},
	}, nil
}

// DownloadIcon downloads the icon for a coin if it isn't cached yet.
// Returns the local file path on success.
func (d *IconDownloader) DownloadIcon(ctx context.Context, coinID, imageURL string) (string, error) {
	// Security: Sanitize id to prevent path traversal
	safeID := sanitizeID(coinID)
	if safeID == "" {
		return "", fmt.Errorf("invalid coin id: %q", coinID)
	}
	if imageURL == "" {
		return "", fmt.Errorf("no image url for %s", coinID)
	}

	filePath := d.GetIconPath(safeID)

	// Check if exists
	if _, err := os.Stat(filePath); err == nil {
		return filePath, nil // Cache Hit
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", DefaultUserAgent)

	resp, err := d.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("bad status: %s", resp.Status)
	}

	srcImg, err := imaging.Decode(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to decode image: %w", err)
	}

	// High-quality Lanczos filter for consistent UI display
	resizedImg := imaging.Resize(srcImg, d.size, d.size, imaging.Lanczos)

	if err := imaging.Save(resizedImg, filePath); err != nil {
		return "", fmt.Errorf("failed to save resized image: %w", err)
	}

	return filePath, nil
}

// GetIconPath returns the local path for a coin's icon
func (d *IconDownloader) GetIconPath(coinID string) string {
	return filepath.Join(d.basePath, strings.ToLower(sanitizeID(coinID))+".png")
}

// sanitizeID keeps letters, digits and dashes (CoinGecko ids look like "usd-coin")
func sanitizeID(id string) string {
	res := make([]rune, 0, len(id))
	for _, r := range id {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' {
			res = append(res, r)
		}
	}
	return string(res)
}
