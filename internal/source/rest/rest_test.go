package rest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skimread/skim/internal/feed"
)

func newTestServer(t *testing.T, total int) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
		items := []feed.Item{}
		for i := offset; i < min(offset+limit, total); i++ {
			items = append(items, feed.Item{
				ID:      fmt.Sprintf("item-%d", i),
				Ordinal: int64(i),
				Title:   fmt.Sprintf("Entry %d", i),
			})
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(items)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestFetchPage(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, 25)
	c := New(srv.URL)
	ctx := t.Context()

	t.Run("full page", func(t *testing.T) {
		items, err := c.FetchPage(ctx, 10, 0)
		require.NoError(t, err)
		require.Len(t, items, 10)
		assert.EqualValues(t, 0, items[0].Ordinal)
		assert.Equal(t, "Entry 9", items[9].Title)
	})

	t.Run("short last page signals exhaustion", func(t *testing.T) {
		items, err := c.FetchPage(ctx, 10, 20)
		require.NoError(t, err)
		assert.Len(t, items, 5)
	})

	t.Run("empty past the end", func(t *testing.T) {
		items, err := c.FetchPage(ctx, 10, 40)
		require.NoError(t, err)
		assert.Empty(t, items)
	})
}

func TestFetchPageErrors(t *testing.T) {
	t.Parallel()

	t.Run("server failure", func(t *testing.T) {
		t.Parallel()
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "nope", http.StatusInternalServerError)
		}))
		t.Cleanup(srv.Close)

		_, err := New(srv.URL).FetchPage(t.Context(), 10, 0)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unexpected status")
	})

	t.Run("malformed body", func(t *testing.T) {
		t.Parallel()
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			fmt.Fprint(w, "{not json")
		}))
		t.Cleanup(srv.Close)

		_, err := New(srv.URL).FetchPage(t.Context(), 10, 0)
		require.Error(t, err)
	})
}
