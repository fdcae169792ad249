package fetcher

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

// TestHTTPFetcherFetch tests the HTTP fetch path against a local server.
func TestHTTPFetcherFetch(t *testing.T) {
	t.Parallel()

	t.Run("returns body and content type", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			_, _ = w.Write([]byte("<html><body>hello</body></html>"))
		}))
		defer server.Close()

		f := NewHTTPFetcher()
		result, err := f.Fetch(context.Background(), server.URL)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if result.StatusCode != http.StatusOK {
			t.Errorf("expected status 200, got %d", result.StatusCode)
		}
		if !result.IsHTML() {
			t.Error("expected result to report HTML")
		}
		if !strings.Contains(string(result.Body), "hello") {
			t.Errorf("expected body content, got %q", result.Body)
		}
	})

	t.Run("sends user agent", func(t *testing.T) {
		t.Parallel()

		var gotUA string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotUA = r.Header.Get("User-Agent")
			w.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		f := NewHTTPFetcher(WithUserAgent("custom-agent/2.0"))
		if _, err := f.Fetch(context.Background(), server.URL); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if gotUA != "custom-agent/2.0" {
			t.Errorf("expected custom user agent, got %q", gotUA)
		}
	})

	t.Run("sends configured extra headers", func(t *testing.T) {
		t.Parallel()

		var gotAuth string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotAuth = r.Header.Get("Authorization")
			w.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		f := NewHTTPFetcher(WithHeaders(map[string]string{"Authorization": "Bearer xyz"}))
		if _, err := f.Fetch(context.Background(), server.URL); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if gotAuth != "Bearer xyz" {
			t.Errorf("expected configured header, got %q", gotAuth)
		}
	})

	t.Run("non-2xx status is an error", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "not found", http.StatusNotFound)
		}))
		defer server.Close()

		f := NewHTTPFetcher()
		if _, err := f.Fetch(context.Background(), server.URL); !errors.Is(err, ErrHTTPStatus) {
			t.Errorf("expected ErrHTTPStatus, got %v", err)
		}
	})

	t.Run("parses last-modified header", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Last-Modified", "Wed, 21 Oct 2015 07:28:00 GMT")
			w.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		f := NewHTTPFetcher()
		result, err := f.Fetch(context.Background(), server.URL)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		want := time.Date(2015, 10, 21, 7, 28, 0, 0, time.UTC)
		if !result.LastModified.Equal(want) {
			t.Errorf("expected %v, got %v", want, result.LastModified)
		}
	})

	t.Run("unparseable last-modified yields zero time", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Last-Modified", "not a date")
			w.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		f := NewHTTPFetcher()
		result, err := f.Fetch(context.Background(), server.URL)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !result.LastModified.IsZero() {
			t.Errorf("expected zero time, got %v", result.LastModified)
		}
	})

	t.Run("caps body at configured size", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(strings.Repeat("x", 1024)))
		}))
		defer server.Close()

		f := NewHTTPFetcher(WithMaxBodySize(64))
		result, err := f.Fetch(context.Background(), server.URL)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(result.Body) != 64 {
			t.Errorf("expected 64 bytes, got %d", len(result.Body))
		}
	})

	t.Run("transcodes declared charset to utf-8", func(t *testing.T) {
		t.Parallel()

		// "café" with an ISO-8859-1 encoded é (0xE9).
		latin1 := []byte{'c', 'a', 'f', 0xE9}
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "text/html; charset=iso-8859-1")
			_, _ = w.Write(latin1)
		}))
		defer server.Close()

		f := NewHTTPFetcher()
		result, err := f.Fetch(context.Background(), server.URL)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if string(result.Body) != "café" {
			t.Errorf("expected transcoded body %q, got %q", "café", result.Body)
		}
	})

	t.Run("follows redirects to final response", func(t *testing.T) {
		t.Parallel()

		mux := http.NewServeMux()
		mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
			http.Redirect(w, r, "/final", http.StatusMovedPermanently)
		})
		mux.HandleFunc("/final", func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("landed"))
		})
		server := httptest.NewServer(mux)
		defer server.Close()

		f := NewHTTPFetcher()
		result, err := f.Fetch(context.Background(), server.URL)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if string(result.Body) != "landed" {
			t.Errorf("expected redirect target body, got %q", result.Body)
		}
	})

	t.Run("respects context cancellation", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			<-r.Context().Done()
		}))
		defer server.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()

		f := NewHTTPFetcher()
		if _, err := f.Fetch(ctx, server.URL); err == nil {
			t.Error("expected error from cancelled context")
		}
	})
}

// TestResultIsHTML tests content type detection.
func TestResultIsHTML(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		contentType string
		want        bool
	}{
		{"plain html", "text/html", true},
		{"html with charset", "text/html; charset=utf-8", true},
		{"xhtml", "application/xhtml+xml", true},
		{"json", "application/json", false},
		{"image", "image/png", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			r := &Result{ContentType: tt.contentType}
			if got := r.IsHTML(); got != tt.want {
				t.Errorf("IsHTML(%q) = %v, want %v", tt.contentType, got, tt.want)
			}
		})
	}
}

// TestDecodeToUTF8 tests charset handling edge cases.
func TestDecodeToUTF8(t *testing.T) {
	t.Parallel()

	t.Run("utf-8 passes through", func(t *testing.T) {
		t.Parallel()

		body := []byte("déjà vu")
		got := decodeToUTF8("text/html; charset=utf-8", body)
		if string(got) != "déjà vu" {
			t.Errorf("expected unchanged body, got %q", got)
		}
	})

	t.Run("missing charset passes through", func(t *testing.T) {
		t.Parallel()

		body := []byte{0xE9}
		got := decodeToUTF8("text/html", body)
		if len(got) != 1 || got[0] != 0xE9 {
			t.Errorf("expected unchanged body, got %v", got)
		}
	})

	t.Run("unknown charset passes through", func(t *testing.T) {
		t.Parallel()

		body := []byte("abc")
		got := decodeToUTF8("text/html; charset=klingon", body)
		if string(got) != "abc" {
			t.Errorf("expected unchanged body, got %q", got)
		}
	})
}

// TestExifTimestamp tests EXIF fallback behavior on non-EXIF data.
func TestExifTimestamp(t *testing.T) {
	t.Parallel()

	t.Run("no exif block", func(t *testing.T) {
		t.Parallel()

		if _, ok := exifTimestamp([]byte("not an image")); ok {
			t.Error("expected no timestamp from non-image data")
		}
	})

	t.Run("empty body", func(t *testing.T) {
		t.Parallel()

		if _, ok := exifTimestamp(nil); ok {
			t.Error("expected no timestamp from empty data")
		}
	})
}
