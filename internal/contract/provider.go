package contract

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/covline/covline/internal/config"
)

// Downloader fetches signed contract bytes from the e-signature
// provider once it reports the documents downloadable.
type Downloader interface {
	DownloadSignedContract(ctx context.Context, requestID, fileName string) ([]byte, error)
}

type httpDownloader struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewHTTPDownloader(cfg config.Config) Downloader {
	return &httpDownloader{
		baseURL: cfg.Signature.BaseURL,
		apiKey:  cfg.Signature.APIKey,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

func (d *httpDownloader) DownloadSignedContract(ctx context.Context, requestID, fileName string) ([]byte, error) {
	endpoint := fmt.Sprintf("%s/signature_requests/%s/documents/%s",
		d.baseURL, url.PathEscape(requestID), url.PathEscape(fileName))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+d.apiKey)

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download signed contract %s: %w", fileName, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrSignedContractNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download signed contract %s: unexpected status %d", fileName, resp.StatusCode)
	}

	return io.ReadAll(resp.Body)
}
