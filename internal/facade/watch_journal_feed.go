package facade

import (
	"context"

	"github.com/soochol/litsearch-mcp/internal/litsearcherr"
)

// WatchJournalFeedTool is watch_journal_feed: polls a journal's
// table-of-contents RSS/Atom feed and reports items published since the
// last time this feed URL was checked.
type WatchJournalFeedTool struct{ f *Facade }

func (t *WatchJournalFeedTool) Name() string { return "watch_journal_feed" }

func (t *WatchJournalFeedTool) Description() string {
	return "Poll a journal table-of-contents feed (RSS/Atom) and report items published since the last check of this feed URL."
}

func (t *WatchJournalFeedTool) InputSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"feed_url": map[string]any{"type": "string", "description": "RSS/Atom feed URL for the journal's table of contents"},
		},
		"required": []any{"feed_url"},
	}
}

func (t *WatchJournalFeedTool) Execute(ctx context.Context, input any) (any, error) {
	args, err := asArgs(input)
	if err != nil {
		return nil, toolError(err)
	}
	feedURL := argString(args, "feed_url")
	if feedURL == "" {
		return nil, toolError(litsearcherr.New(litsearcherr.InvalidInput, "feed_url is required"))
	}

	result, err := t.f.Alerts.Check(ctx, feedURL)
	if err != nil {
		return nil, toolError(err)
	}

	return map[string]any{
		"feed_title": result.FeedTitle,
		"new_items":  result.New,
		"count":      len(result.New),
	}, nil
}
