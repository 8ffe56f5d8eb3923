// Package estimator provides the client for the external waste volume
// estimation service. The service's internals (detection model, 2D→3D
// reconstruction) are opaque to this API: image in, volume out.
package estimator

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"

	"github.com/binsight/api/internal/config"
)

// Client calls the volume estimation service over HTTP.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a new estimator client.
func NewClient(cfg config.EstimatorConfig) *Client {
	return &Client{
		baseURL:    cfg.URL,
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

type estimateResponse struct {
	VolumeCm3 float64 `json:"volume_cm3"`
}

// Estimate submits the image at imagePath and returns the estimated
// waste volume in cubic centimeters. Zero detections is a valid outcome
// with volume 0, not an error.
func (c *Client) Estimate(ctx context.Context, imagePath string) (float64, error) {
	f, err := os.Open(imagePath)
	if err != nil {
		return 0, fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	go func() {
		part, err := mw.CreateFormFile("image", filepath.Base(imagePath))
		if err != nil {
			_ = pw.CloseWithError(err)
			return
		}
		if _, err := io.Copy(part, f); err != nil {
			_ = pw.CloseWithError(err)
			return
		}
		_ = pw.CloseWithError(mw.Close())
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/estimate", pr)
	if err != nil {
		return 0, fmt.Errorf("failed to build estimator request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("estimator request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return 0, fmt.Errorf("estimator returned status %d: %s", resp.StatusCode, string(body))
	}

	var out estimateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return 0, fmt.Errorf("failed to decode estimator response: %w", err)
	}
	if out.VolumeCm3 < 0 {
		return 0, fmt.Errorf("estimator returned negative volume %f", out.VolumeCm3)
	}
	return out.VolumeCm3, nil
}
