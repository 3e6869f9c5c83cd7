package blob

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/LhacenMed/admin-dashboard/config"
	"github.com/LhacenMed/admin-dashboard/internal/domain"
	"github.com/gabriel-vasile/mimetype"
)

const DefaultMaxBytes = 5 * 1024 * 1024

// Uploader posts images to the hosting endpoint.
type Uploader struct {
	endpoint  string
	preset    string
	cloudName string
	maxBytes  int64
	client    *http.Client
	now       func() time.Time
}

func NewUploader(cfg config.UploadConfig) *Uploader {
	maxBytes := cfg.MaxBytes
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return &Uploader{
		endpoint:  cfg.Endpoint,
		preset:    cfg.Preset,
		cloudName: cfg.CloudName,
		maxBytes:  maxBytes,
		client:    &http.Client{Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second},
		now:       time.Now,
	}
}

type uploadResponse struct {
	PublicID  string `json:"public_id"`
	SecureURL string `json:"secure_url"`
	Error     *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Upload checks size and content type locally, then sends the file. A declared size of
// zero or less means unknown.
func (u *Uploader) Upload(ctx context.Context, name string, size int64, r io.Reader) (domain.Asset, error) {
	if size > u.maxBytes {
		return domain.Asset{}, domain.Invalid("file", fmt.Sprintf("file size should be less than %d MB", u.maxBytes/(1024*1024)))
	}
	data, err := io.ReadAll(io.LimitReader(r, u.maxBytes+1))
	if err != nil {
		return domain.Asset{}, fmt.Errorf("read upload: %w", err)
	}
	if int64(len(data)) > u.maxBytes {
		return domain.Asset{}, domain.Invalid("file", fmt.Sprintf("file size should be less than %d MB", u.maxBytes/(1024*1024)))
	}
	if len(data) == 0 {
		return domain.Asset{}, domain.Invalid("file", "file is empty")
	}
	if mt := mimetype.Detect(data); !strings.HasPrefix(mt.String(), "image/") {
		return domain.Asset{}, domain.Invalid("file", "please upload an image file")
	}

	body, contentType, err := u.form(name, data)
	if err != nil {
		return domain.Asset{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.endpoint, body)
	if err != nil {
		return domain.Asset{}, fmt.Errorf("build upload request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := u.client.Do(req)
	if err != nil {
		return domain.Asset{}, fmt.Errorf("upload %s: %w", name, err)
	}
	defer resp.Body.Close()

	var out uploadResponse
	decodeErr := json.NewDecoder(resp.Body).Decode(&out)
	switch {
	case out.Error != nil && out.Error.Message != "":
		return domain.Asset{}, fmt.Errorf("%w: %s", domain.ErrUploadRejected, out.Error.Message)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return domain.Asset{}, fmt.Errorf("%w: upload failed: %s", domain.ErrUploadRejected, resp.Status)
	case decodeErr != nil:
		return domain.Asset{}, fmt.Errorf("%w: decode response: %v", domain.ErrUploadRejected, decodeErr)
	case out.PublicID == "" || out.SecureURL == "":
		return domain.Asset{}, fmt.Errorf("%w: response is missing public_id or secure_url", domain.ErrUploadRejected)
	}

	return domain.Asset{PublicID: out.PublicID, URL: out.SecureURL, UploadedAt: u.now().UTC()}, nil
}

func (u *Uploader) form(name string, data []byte) (*bytes.Buffer, string, error) {
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)

	part, err := w.CreateFormFile("file", name)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(data); err != nil {
		return nil, "", err
	}
	if err := w.WriteField("upload_preset", u.preset); err != nil {
		return nil, "", err
	}
	if err := w.WriteField("cloud_name", u.cloudName); err != nil {
		return nil, "", err
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return body, w.FormDataContentType(), nil
}
