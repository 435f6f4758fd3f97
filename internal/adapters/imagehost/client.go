// Package imagehost uploads avatars to an ImageKit-compatible image host.
package imagehost

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/samirrijal/placemap/internal/core/domain"
)

// MaxUploadBytes caps the size of a single upload.
const MaxUploadBytes = 5 << 20

// Config configures the client.
type Config struct {
	UploadURL  string // e.g. https://upload.imagekit.io/api/v1/files/upload
	APIURL     string // e.g. https://api.imagekit.io/v1
	PrivateKey string
	Folder     string
}

// Client implements ports.ImageHost.
type Client struct {
	cfg  Config
	http *http.Client
}

// New creates a Client. A nil httpClient uses a client with a 30s timeout.
func New(cfg Config, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{cfg: cfg, http: httpClient}
}

type uploadResponse struct {
	FileID  string `json:"fileId"`
	URL     string `json:"url"`
	Message string `json:"message"`
}

// Upload stores the image under a random name that keeps the original extension.
func (c *Client) Upload(ctx context.Context, name string, content io.Reader) (domain.Asset, error) {
	data, err := io.ReadAll(io.LimitReader(content, MaxUploadBytes+1))
	if err != nil {
		return domain.Asset{}, fmt.Errorf("read upload: %w", err)
	}
	if len(data) == 0 {
		return domain.Asset{}, fmt.Errorf("%w: empty file", domain.ErrInvalidInput)
	}
	if len(data) > MaxUploadBytes {
		return domain.Asset{}, fmt.Errorf("%w: file exceeds %d bytes", domain.ErrInvalidInput, MaxUploadBytes)
	}
	if ct := http.DetectContentType(data); !strings.HasPrefix(ct, "image/") {
		return domain.Asset{}, fmt.Errorf("%w: unsupported content type %s", domain.ErrInvalidInput, ct)
	}

	fileName := uuid.NewString() + strings.ToLower(path.Ext(name))

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("file", fileName)
	if err != nil {
		return domain.Asset{}, err
	}
	if _, err := part.Write(data); err != nil {
		return domain.Asset{}, err
	}
	_ = w.WriteField("fileName", fileName)
	_ = w.WriteField("useUniqueFileName", "false")
	if c.cfg.Folder != "" {
		_ = w.WriteField("folder", c.cfg.Folder)
	}
	if err := w.Close(); err != nil {
		return domain.Asset{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.UploadURL, &body)
	if err != nil {
		return domain.Asset{}, err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.SetBasicAuth(c.cfg.PrivateKey, "")

	resp, err := c.http.Do(req)
	if err != nil {
		return domain.Asset{}, domain.Infrastructure("imagehost.Upload", err)
	}
	defer resp.Body.Close()

	var out uploadResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&out); err != nil && resp.StatusCode < 300 {
		return domain.Asset{}, domain.Infrastructure("imagehost.Upload", fmt.Errorf("decode response: %w", err))
	}
	if resp.StatusCode >= 300 {
		return domain.Asset{}, domain.Infrastructure("imagehost.Upload", fmt.Errorf("status %d: %s", resp.StatusCode, out.Message))
	}
	if out.FileID == "" || out.URL == "" {
		return domain.Asset{}, domain.Infrastructure("imagehost.Upload", fmt.Errorf("response without file id or url"))
	}
	return domain.Asset{ID: out.FileID, URL: out.URL}, nil
}

// Delete removes an asset. Deleting an asset that is already gone succeeds.
func (c *Client) Delete(ctx context.Context, assetID string) error {
	endpoint := strings.TrimRight(c.cfg.APIURL, "/") + "/files/" + url.PathEscape(assetID)
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, endpoint, nil)
	if err != nil {
		return err
	}
	req.SetBasicAuth(c.cfg.PrivateKey, "")

	resp, err := c.http.Do(req)
	if err != nil {
		return domain.Infrastructure("imagehost.Delete", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<16))

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil
	case resp.StatusCode >= 300:
		return domain.Infrastructure("imagehost.Delete", fmt.Errorf("status %d", resp.StatusCode))
	}
	return nil
}

// InlineJanitor deletes replaced assets immediately, for deployments without Temporal.
type InlineJanitor struct {
	Images *Client
}

// ScheduleAssetCleanup implements ports.AssetJanitor. Failures are only logged.
func (j InlineJanitor) ScheduleAssetCleanup(ctx context.Context, userID int64, assetID string) error {
	go func() {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
		defer cancel()
		if err := j.Images.Delete(ctx, assetID); err != nil {
			slog.Warn("inline asset cleanup failed", "user_id", userID, "asset_id", assetID, "error", err)
		}
	}()
	return nil
}
