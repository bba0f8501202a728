package fetch

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testPayload = "water_year,apr1_swe_mm\n1991,200\n"

func TestHTTPSource(t *testing.T) {
	t.Run("fetches payload", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(testPayload))
		}))
		defer srv.Close()

		src := NewHTTPSource(srv.URL, 5*time.Second, slog.Default())
		payload, err := src.Fetch(context.Background())

		require.NoError(t, err)
		assert.Equal(t, testPayload, string(payload))
	})

	t.Run("non-200 status", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "nope", http.StatusNotFound)
		}))
		defer srv.Close()

		src := NewHTTPSource(srv.URL, 5*time.Second, slog.Default())
		_, err := src.Fetch(context.Background())

		require.Error(t, err)
		assert.Contains(t, err.Error(), "status 404")
	})

	t.Run("unreachable host", func(t *testing.T) {
		src := NewHTTPSource("http://127.0.0.1:1", time.Second, slog.Default())
		_, err := src.Fetch(context.Background())
		assert.Error(t, err)
	})

	t.Run("cancelled context", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			<-r.Context().Done()
		}))
		defer srv.Close()

		src := NewHTTPSource(srv.URL, 5*time.Second, slog.Default())
		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()

		_, err := src.Fetch(ctx)
		assert.Error(t, err)
	})
}

func TestFileSource(t *testing.T) {
	t.Run("reads file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "water_years.csv")
		require.NoError(t, os.WriteFile(path, []byte(testPayload), 0o644))

		payload, err := NewFileSource(path).Fetch(context.Background())

		require.NoError(t, err)
		assert.Equal(t, testPayload, string(payload))
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := NewFileSource(filepath.Join(t.TempDir(), "absent.csv")).Fetch(context.Background())
		assert.Error(t, err)
	})
}
