package storage

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	apperrors "github.com/anime-shed/table-cropper-go/internal/errors"
)

// Valid minimal PNG data for a 1x1 transparent pixel
var pngData = []byte{
	0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A, // PNG signature
	0x00, 0x00, 0x00, 0x0D, 0x49, 0x48, 0x44, 0x52, // IHDR chunk
	0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01, // 1x1 dimensions
	0x08, 0x06, 0x00, 0x00, 0x00, 0x1F, 0x15, 0xC4, // bit depth, color type, etc.
	0x89, 0x00, 0x00, 0x00, 0x0A, 0x49, 0x44, 0x41, // IDAT chunk start
	0x54, 0x78, 0x9C, 0x63, 0x00, 0x01, 0x00, 0x00, // compressed data
	0x05, 0x00, 0x01, 0x0D, 0x0A, 0x2D, 0xB4, 0x00, // compressed data end
	0x00, 0x00, 0x00, 0x49, 0x45, 0x4E, 0x44, 0xAE, // IEND chunk
	0x42, 0x60, 0x82,
}

func TestHTTPImageFetcher_FetchImage(t *testing.T) {
	tests := []struct {
		name          string
		status        int
		expectError   bool
		errorContains string
	}{
		{name: "Success", status: 200},
		{name: "Not found", status: 404, expectError: true, errorContains: "Failed to download image: HTTP 404"},
		{name: "Server error is not retried", status: 503, expectError: true, errorContains: "Failed to download image: HTTP 503"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			requestCount := 0
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				requestCount++
				if tt.status == 200 {
					w.Header().Set("Content-Type", "image/png")
					w.Write(pngData)
					return
				}
				w.WriteHeader(tt.status)
			}))
			defer server.Close()

			fetcher := NewHTTPImageFetcher(5*time.Second, 1<<20)
			data, err := fetcher.FetchImage(context.Background(), server.URL+"/scan.png")

			if requestCount != 1 {
				t.Errorf("Expected exactly 1 request, got %d", requestCount)
			}

			if tt.expectError {
				if err == nil {
					t.Fatal("Expected error, but got none")
				}
				if !strings.Contains(apperrors.Detail(err), tt.errorContains) {
					t.Errorf("Expected error to contain '%s', got: %s", tt.errorContains, apperrors.Detail(err))
				}
				if !apperrors.IsType(err, apperrors.ErrorTypeDownload) {
					t.Errorf("Expected download error, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Expected no error, got: %s", err.Error())
			}
			if !bytes.Equal(data, pngData) {
				t.Error("Expected body bytes to be returned untouched")
			}
		})
	}
}

func TestHTTPImageFetcher_NetworkError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Simulate network error by closing connection
		hj, ok := w.(http.Hijacker)
		if ok {
			conn, _, _ := hj.Hijack()
			conn.Close()
		}
	}))
	defer server.Close()

	_, err := NewHTTPImageFetcher(5*time.Second, 1<<20).FetchImage(context.Background(), server.URL)
	if err == nil {
		t.Fatal("Expected error for dropped connection")
	}
	if !strings.HasPrefix(apperrors.Detail(err), "Failed to download image from URL: ") {
		t.Errorf("Unexpected detail: %s", apperrors.Detail(err))
	}
}

func TestHTTPImageFetcher_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
		w.Write(pngData)
	}))
	defer server.Close()

	start := time.Now()
	_, err := NewHTTPImageFetcher(100*time.Millisecond, 1<<20).FetchImage(context.Background(), server.URL)
	if err == nil {
		t.Fatal("Expected timeout error")
	}
	if time.Since(start) > 400*time.Millisecond {
		t.Errorf("Expected fetch to give up near the timeout, took %v", time.Since(start))
	}
}

func TestHTTPImageFetcher_TooLarge(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(pngData)
	}))
	defer server.Close()

	_, err := NewHTTPImageFetcher(5*time.Second, 10).FetchImage(context.Background(), server.URL)
	if err == nil || !strings.Contains(err.Error(), "exceeds 10 bytes") {
		t.Errorf("Expected size limit error, got %v", err)
	}
}
