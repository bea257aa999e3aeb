package facade

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWatchJournalFeed_ReportsItemsOnFirstCheck(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<?xml version="1.0"?><rss version="2.0"><channel><title>Journal TOC</title>
			<item><title>Article A</title><link>https://example.com/a</link><pubDate>Mon, 02 Jan 2026 10:00:00 GMT</pubDate></item>
		</channel></rss>`))
	}))
	defer srv.Close()

	f := newTestFacade(t)
	tool := &WatchJournalFeedTool{f}

	out, err := tool.Execute(context.Background(), map[string]any{"feed_url": srv.URL})
	require.NoError(t, err)

	result, ok := out.(map[string]any)
	require.True(t, ok)
	require.Equal(t, 1, result["count"])
}

func TestWatchJournalFeed_RequiresFeedURL(t *testing.T) {
	f := newTestFacade(t)
	tool := &WatchJournalFeedTool{f}

	_, err := tool.Execute(context.Background(), map[string]any{})
	require.Error(t, err)
}
