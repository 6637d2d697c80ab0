package tracker

import (
	"context"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scrapewatch/scrapewatch/internal/errors"
)

func TestWrapRecordsSliceLength(t *testing.T) {
	tracker, buf, collector := newTestTracker()

	fetch := Wrap(tracker, "list_page", func(ctx context.Context, url string) ([]string, error) {
		return []string{"a", "b", "c"}, nil
	})

	result, err := fetch(context.Background(), "https://example.com/items")
	require.NoError(t, err)
	assert.Len(t, result, 3)

	assert.Equal(t, 3.0, counterValue(t, collector, "scraper_items_scraped_total", map[string]string{
		"operation": "list_page", "item_type": "item",
	}))

	events := logEvents(t, buf)
	assert.Equal(t, 1, countMessages(events, "items scraped"))
	assert.Equal(t, 1, countMessages(events, "scraping operation completed successfully"))
}

func TestWrapEmptySliceRecordsNothing(t *testing.T) {
	tracker, buf, collector := newTestTracker()

	fetch := Wrap(tracker, "list_page", func(ctx context.Context, url string) ([]string, error) {
		return nil, nil
	})

	_, err := fetch(context.Background(), "https://example.com")
	require.NoError(t, err)

	assert.Equal(t, 0.0, counterValue(t, collector, "scraper_items_scraped_total", map[string]string{
		"operation": "list_page",
	}))
	assert.Equal(t, 0, countMessages(logEvents(t, buf), "items scraped"))
}

func TestWrapNonCollectionCountsAsOne(t *testing.T) {
	tracker, _, collector := newTestTracker()

	type page struct{ Title string }
	fetch := Wrap(tracker, "detail_page", func(ctx context.Context, url string) (*page, error) {
		return &page{Title: "hello"}, nil
	}, WithItemType[*page]("page"))

	_, err := fetch(context.Background(), "https://example.com/p/1")
	require.NoError(t, err)

	assert.Equal(t, 1.0, counterValue(t, collector, "scraper_items_scraped_total", map[string]string{
		"operation": "detail_page", "item_type": "page",
	}))
}

func TestWrapCustomCounter(t *testing.T) {
	tracker, _, collector := newTestTracker()

	type batch struct{ Rows int }
	fetch := Wrap(tracker, "batch_page", func(ctx context.Context, url string) (batch, error) {
		return batch{Rows: 7}, nil
	}, WithItemCounter(func(b batch) int { return b.Rows }))

	_, err := fetch(context.Background(), "https://example.com")
	require.NoError(t, err)

	assert.Equal(t, 7.0, counterValue(t, collector, "scraper_items_scraped_total", map[string]string{
		"operation": "batch_page",
	}))
}

func TestWrapErrorPropagatesWithoutItems(t *testing.T) {
	tracker, _, collector := newTestTracker()
	failure := errors.ErrBlocked

	fetch := Wrap(tracker, "list_page", func(ctx context.Context, url string) ([]string, error) {
		return []string{"half", "done"}, failure
	})

	_, err := fetch(context.Background(), "https://example.com")
	assert.ErrorIs(t, err, failure)

	assert.Equal(t, 0.0, counterValue(t, collector, "scraper_items_scraped_total", map[string]string{
		"operation": "list_page",
	}))
	assert.Equal(t, 1.0, counterValue(t, collector, "scraper_requests_total", map[string]string{
		"operation": "list_page", "status": "failed",
	}))
}

func TestWrapInsideTrackedBlockTracksBothLayers(t *testing.T) {
	tracker, buf, _ := newTestTracker()

	fetch := Wrap(tracker, "inner_fetch", func(ctx context.Context, url string) (int, error) {
		return 1, nil
	})

	err := tracker.Track(Operation{Name: "outer_block", URL: "https://example.com"}, func(*Scope) error {
		_, err := fetch(context.Background(), "https://example.com/p")
		return err
	})
	require.NoError(t, err)

	events := logEvents(t, buf)
	assert.Equal(t, 2, countMessages(events, "scraping operation started"))
	assert.Equal(t, 2, countMessages(events, "scraping operation completed successfully"))
}

func TestCountItems(t *testing.T) {
	cases := []struct {
		name string
		in   interface{}
		want int
	}{
		{"nil", nil, 0},
		{"empty slice", []int{}, 0},
		{"slice", []int{1, 2, 3}, 3},
		{"array", [2]string{"a", "b"}, 2},
		{"map with items slice", map[string]interface{}{"items": []int{1, 2}, "next": "url"}, 2},
		{"map with items string", map[string]interface{}{"items": "abc"}, 3},
		{"map with nil items", map[string]interface{}{"items": nil}, 0},
		{"map without items key", map[string]interface{}{"count": 5}, 1},
		{"int-keyed map", map[int]string{1: "a", 2: "b"}, 1},
		{"nil string map", map[string]int(nil), 0},
		{"struct", struct{ X int }{X: 1}, 1},
		{"string", "hello", 1},
		{"int", 42, 1},
		{"nil pointer", (*int)(nil), 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, CountItems(tc.in))
		})
	}
}

func TestCountItemsProperties(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("slices count their length", prop.ForAll(
		func(values []int) bool {
			return CountItems(values) == len(values)
		},
		gen.SliceOf(gen.Int()),
	))

	properties.Property("count is never negative", prop.ForAll(
		func(s string) bool {
			return CountItems(s) >= 0 && CountItems(map[string]interface{}{"items": s}) >= 0
		},
		gen.AnyString(),
	))

	properties.TestingRun(t)
}
