package blob

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/LhacenMed/admin-dashboard/config"
	"github.com/LhacenMed/admin-dashboard/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Smallest valid PNG: signature plus IHDR chunk header is enough for sniffing.
var pngBytes = append([]byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), make([]byte, 32)...)

func newUploader(endpoint string, maxBytes int64) *Uploader {
	return NewUploader(config.UploadConfig{
		Endpoint:       endpoint,
		Preset:         "booking-app",
		CloudName:      "demo",
		MaxBytes:       maxBytes,
		TimeoutSeconds: 5,
	})
}

func TestUploader_Upload_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "booking-app", r.FormValue("upload_preset"))
		assert.Equal(t, "demo", r.FormValue("cloud_name"))

		file, header, err := r.FormFile("file")
		if !assert.NoError(t, err) {
			return
		}
		defer file.Close()
		data, _ := io.ReadAll(file)
		assert.Equal(t, "logo.png", header.Filename)
		assert.Equal(t, pngBytes, data)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"public_id":"logos/abc","secure_url":"https://cdn.example/logos/abc.png"}`))
	}))
	defer server.Close()

	asset, err := newUploader(server.URL, 0).Upload(context.Background(), "logo.png", int64(len(pngBytes)), bytes.NewReader(pngBytes))

	require.NoError(t, err)
	assert.Equal(t, "logos/abc", asset.PublicID)
	assert.Equal(t, "https://cdn.example/logos/abc.png", asset.URL)
	assert.False(t, asset.UploadedAt.IsZero())
}

func TestUploader_Upload_ValidationBeforeNetwork(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
	}))
	defer server.Close()

	testCases := []struct {
		name string
		size int64
		data []byte
	}{
		{name: "Declared size too large", size: 100, data: pngBytes},
		{name: "Actual size too large", size: 0, data: append(append([]byte{}, pngBytes...), make([]byte, 100)...)},
		{name: "Not an image", size: 0, data: []byte("%PDF-1.4\n%âãÏÓ\n")},
		{name: "Plain text", size: 0, data: []byte("hello world")},
		{name: "Empty", size: 0, data: nil},
	}

	uploader := newUploader(server.URL, 64)
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := uploader.Upload(context.Background(), "f", tc.size, bytes.NewReader(tc.data))
			assert.True(t, domain.IsValidation(err), "got %v", err)
		})
	}
	assert.Equal(t, int32(0), atomic.LoadInt32(&hits))
}

func TestUploader_Upload_RemoteFailures(t *testing.T) {
	testCases := []struct {
		name        string
		status      int
		body        string
		expectedMsg string
	}{
		{name: "Body error", status: http.StatusOK, body: `{"error":{"message":"Upload preset not found"}}`, expectedMsg: "Upload preset not found"},
		{name: "Non 2xx", status: http.StatusBadGateway, body: `oops`, expectedMsg: "502"},
		{name: "Missing url", status: http.StatusOK, body: `{"public_id":"x"}`, expectedMsg: "missing public_id or secure_url"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			}))
			defer server.Close()

			_, err := newUploader(server.URL, 0).Upload(context.Background(), "logo.png", 0, bytes.NewReader(pngBytes))

			assert.ErrorIs(t, err, domain.ErrUploadRejected)
			assert.True(t, strings.Contains(err.Error(), tc.expectedMsg), err.Error())
		})
	}
}
