package sourcealert

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func rssItem(title, link, pubDate string) string {
	return `<item><title>` + title + `</title><link>` + link + `</link><pubDate>` + pubDate + `</pubDate></item>`
}

func TestWatcher_FirstCheckReportsAllItems(t *testing.T) {
	body := fmtFeed(rssItem("Article A", "https://example.com/a", "Mon, 02 Jan 2026 10:00:00 GMT"))
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(body))
	}))
	defer srv.Close()

	w := NewWatcher()
	result, err := w.Check(context.Background(), srv.URL)
	require.NoError(t, err)
	require.Len(t, result.New, 1)
}

func TestWatcher_SecondCheckOnlyReportsItemsNewerThanLastSeen(t *testing.T) {
	first := true
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if first {
			w.Write([]byte(fmtFeed(rssItem("Article A", "https://example.com/a", "Mon, 02 Jan 2026 10:00:00 GMT"))))
			return
		}
		w.Write([]byte(fmtFeed(
			rssItem("Article B", "https://example.com/b", "Tue, 03 Jan 2026 10:00:00 GMT") +
				rssItem("Article A", "https://example.com/a", "Mon, 02 Jan 2026 10:00:00 GMT"),
		)))
	}))
	defer srv.Close()

	w := NewWatcher()
	_, err := w.Check(context.Background(), srv.URL)
	require.NoError(t, err)
	first = false

	result, err := w.Check(context.Background(), srv.URL)
	require.NoError(t, err)
	require.Len(t, result.New, 1)
	require.Equal(t, "Article B", result.New[0].Title)
}

func TestWatcher_UpstreamFailureIsWrapped(t *testing.T) {
	w := NewWatcher()
	_, err := w.Check(context.Background(), "http://127.0.0.1:0/does-not-exist")
	require.Error(t, err)
}

func fmtFeed(items string) string {
	return "<?xml version=\"1.0\"?>\n<rss version=\"2.0\"><channel><title>Journal TOC</title>\n" + items + "\n</channel></rss>"
}
