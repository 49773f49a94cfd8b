package scrapeapi

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errs "igfunnel/pkg/errors"
	"igfunnel/pkg/logger"
	"igfunnel/pkg/record"
)

// fakeScrapeClient serves scripted response bodies in order.
type fakeScrapeClient struct {
	bodies   [][]byte
	errs     []error
	requests []Request
}

func (f *fakeScrapeClient) Scrape(ctx context.Context, req Request) ([]byte, error) {
	i := len(f.requests)
	f.requests = append(f.requests, req)
	if i < len(f.errs) && f.errs[i] != nil {
		return nil, f.errs[i]
	}
	if i >= len(f.bodies) {
		return nil, fmt.Errorf("unexpected request %d: %+v", i, req)
	}
	return f.bodies[i], nil
}

func newTestFetcher(client scrapeClient) (*Fetcher, *int) {
	sleeps := 0
	f := &Fetcher{
		client:   client,
		cooldown: time.Second,
		logger:   logger.GetLogger(),
		sleep: func(ctx context.Context, d time.Duration) error {
			sleeps++
			return nil
		},
	}
	return f, &sleeps
}

// postsPage builds a timeline page body with n posts and the given cursor.
func postsPage(startIdx, n int, cursor string) []byte {
	var edges []string
	for i := 0; i < n; i++ {
		edges = append(edges, fmt.Sprintf(
			`{"node":{"code":"post%d","like_count":%d,"comment_count":60,"user":{"username":"acct"},"caption":{"text":"caption"}}}`,
			startIdx+i, 1000+startIdx+i,
		))
	}
	return []byte(fmt.Sprintf(
		`{"results":[{"content":{"data":{%q:{"edges":[%s],"page_info":{"has_next_page":%t,"end_cursor":%q}}}}}]}`,
		keyTimelineConnection, strings.Join(edges, ","), cursor != "", cursor,
	))
}

// commentsPage builds a post comments page body.
func commentsPage(n int, cursor string) []byte {
	var edges []string
	for i := 0; i < n; i++ {
		edges = append(edges, fmt.Sprintf(
			`{"node":{"text":"comment %d","owner":{"username":"commenter%d"},"created_at":1700000000}}`, i, i,
		))
	}
	return []byte(fmt.Sprintf(
		`{"results":[{"content":{"data":{%q:{"edge_media_to_parent_comment":{"count":200,"edges":[%s],"page_info":{"has_next_page":%t,"end_cursor":%q}}}}}}]}`,
		keyShortcodeMedia, strings.Join(edges, ","), cursor != "", cursor,
	))
}

func TestPostsZeroDesiredMakesNoRequest(t *testing.T) {
	fake := &fakeScrapeClient{}
	f, _ := newTestFetcher(fake)

	items, err := f.Posts(context.Background(), "acct", 0)

	require.NoError(t, err)
	assert.Nil(t, items)
	assert.Empty(t, fake.requests)
}

func TestPostsSinglePage(t *testing.T) {
	fake := &fakeScrapeClient{bodies: [][]byte{postsPage(0, 12, "next")}}
	f, sleeps := newTestFetcher(fake)

	items, err := f.Posts(context.Background(), "acct", 12)

	require.NoError(t, err)
	assert.Len(t, items, 12)
	assert.Len(t, fake.requests, 1)
	assert.Equal(t, 0, *sleeps, "no cooldown after the final page")

	first := items[0]
	assert.Equal(t, "https://www.instagram.com/p/post0/", first.String(record.FieldURL))
	assert.Equal(t, "acct", first.String(record.FieldUsername))
	assert.Equal(t, 1000, first.Int(record.FieldLikes))
	assert.Equal(t, 60, first.Int(record.FieldComments))
	assert.Equal(t, "caption", first.String(record.FieldCaption))
}

func TestPostsPaginatesWithCursor(t *testing.T) {
	fake := &fakeScrapeClient{bodies: [][]byte{
		postsPage(0, 12, "cursor1"),
		postsPage(12, 12, "cursor2"),
	}}
	f, sleeps := newTestFetcher(fake)

	items, err := f.Posts(context.Background(), "acct", 24)

	require.NoError(t, err)
	assert.Len(t, items, 24)
	require.Len(t, fake.requests, 2)
	assert.Equal(t, "", fake.requests[0].Cursor)
	assert.Equal(t, "cursor1", fake.requests[1].Cursor)
	assert.Equal(t, 1, *sleeps, "one cooldown between two pages")
}

func TestPostsTruncatesOvershoot(t *testing.T) {
	fake := &fakeScrapeClient{bodies: [][]byte{
		postsPage(0, 12, "cursor1"),
		postsPage(12, 12, "cursor2"),
	}}
	f, _ := newTestFetcher(fake)

	items, err := f.Posts(context.Background(), "acct", 15)

	require.NoError(t, err)
	assert.Len(t, items, 15)
	assert.Len(t, fake.requests, 2)
}

func TestPostsClampedToCeiling(t *testing.T) {
	bodies := make([][]byte, 5)
	for i := range bodies {
		bodies[i] = postsPage(i*12, 12, fmt.Sprintf("cursor%d", i+1))
	}
	fake := &fakeScrapeClient{bodies: bodies}
	f, _ := newTestFetcher(fake)

	items, err := f.Posts(context.Background(), "acct", 500)

	require.NoError(t, err)
	assert.Len(t, items, maxPostsPerProfile)
	assert.Len(t, fake.requests, 5)
}

func TestPostsStopsWhenCursorAbsent(t *testing.T) {
	fake := &fakeScrapeClient{bodies: [][]byte{
		postsPage(0, 12, "cursor1"),
		postsPage(12, 5, ""),
	}}
	f, _ := newTestFetcher(fake)

	items, err := f.Posts(context.Background(), "acct", 60)

	require.NoError(t, err)
	// Fewer than desired is a valid outcome when the account runs dry.
	assert.Len(t, items, 17)
	assert.Len(t, fake.requests, 2)
}

func TestPostsEmptyFirstPage(t *testing.T) {
	fake := &fakeScrapeClient{bodies: [][]byte{postsPage(0, 0, "")}}
	f, _ := newTestFetcher(fake)

	items, err := f.Posts(context.Background(), "acct", 24)

	require.NoError(t, err)
	assert.Empty(t, items)
	assert.Len(t, fake.requests, 1)
}

func TestPostsMalformedPageKeepsCollected(t *testing.T) {
	fake := &fakeScrapeClient{bodies: [][]byte{
		postsPage(0, 12, "cursor1"),
		[]byte(`{"results":[{"content":{"data":{"unexpected_key":{}}}}]}`),
	}}
	f, _ := newTestFetcher(fake)

	items, err := f.Posts(context.Background(), "acct", 24)

	require.NoError(t, err)
	assert.Len(t, items, 12)
}

func TestPostsRequestErrorPropagates(t *testing.T) {
	fake := &fakeScrapeClient{errs: []error{errs.UpstreamRequest(500, "payload", "body")}}
	f, _ := newTestFetcher(fake)

	_, err := f.Posts(context.Background(), "acct", 12)

	require.Error(t, err)
	assert.True(t, errs.IsType(err, errs.ErrorTypeUpstream))
}

func TestCommentsCarryPostURL(t *testing.T) {
	fake := &fakeScrapeClient{bodies: [][]byte{commentsPage(10, "")}}
	f, _ := newTestFetcher(fake)

	postURL := "https://www.instagram.com/reel/abc/"
	comments, err := f.Comments(context.Background(), postURL, 10)

	require.NoError(t, err)
	require.Len(t, comments, 10)
	for _, c := range comments {
		assert.Equal(t, postURL, c.String(record.FieldPostURL))
	}
	assert.Equal(t, "commenter0", comments[0].String(record.FieldUsername))
	assert.Equal(t, "comment 0", comments[0].String("comment"))

	require.Len(t, fake.requests, 1)
	assert.Equal(t, TargetPost, fake.requests[0].Target)
	assert.Equal(t, postURL, fake.requests[0].URL)
}

func TestCommentsClampedToCeiling(t *testing.T) {
	bodies := make([][]byte, 20)
	for i := range bodies {
		bodies[i] = commentsPage(10, fmt.Sprintf("cursor%d", i+1))
	}
	fake := &fakeScrapeClient{bodies: bodies}
	f, _ := newTestFetcher(fake)

	comments, err := f.Comments(context.Background(), "https://www.instagram.com/p/x/", 1000)

	require.NoError(t, err)
	assert.Len(t, comments, maxCommentsPerPost)
	assert.Len(t, fake.requests, 20)
}

func TestProfile(t *testing.T) {
	profile := map[string]interface{}{
		"username":       "acct",
		"full_name":      "The Account",
		"follower_count": 25000,
		"is_private":     false,
	}
	raw, err := json.Marshal(profile)
	require.NoError(t, err)

	body := []byte(fmt.Sprintf(
		`{"results":[{"content":{"data":{%q:%s}}}]}`, keyProfileUser, raw,
	))
	fake := &fakeScrapeClient{bodies: [][]byte{body}}
	f, _ := newTestFetcher(fake)

	rec, err := f.Profile(context.Background(), "acct")

	require.NoError(t, err)
	assert.Equal(t, "acct", rec.String(record.FieldUsername))
	assert.Equal(t, 25000, rec.Int(record.FieldFollowers))
	assert.False(t, rec.Bool("private"))
}

func TestProfileMissingUsernameIsMalformed(t *testing.T) {
	body := []byte(fmt.Sprintf(
		`{"results":[{"content":{"data":{%q:{"follower_count":10}}}}]}`, keyProfileUser,
	))
	fake := &fakeScrapeClient{bodies: [][]byte{body}}
	f, _ := newTestFetcher(fake)

	_, err := f.Profile(context.Background(), "acct")

	require.Error(t, err)
	assert.True(t, errs.IsType(err, errs.ErrorTypeMalformed))
}

func TestReelsUseReelURLPrefix(t *testing.T) {
	body := []byte(fmt.Sprintf(
		`{"results":[{"content":{"data":{%q:{"edges":[{"node":{"media":{"code":"reel1","like_count":5000,"comment_count":120,"user":{"username":"acct"}}}}],"page_info":{"has_next_page":false,"end_cursor":""}}}}}]}`,
		keyClipsConnection,
	))
	fake := &fakeScrapeClient{bodies: [][]byte{body}}
	f, _ := newTestFetcher(fake)

	items, err := f.Reels(context.Background(), "acct", 12)

	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "https://www.instagram.com/reel/reel1/", items[0].String(record.FieldURL))
	assert.Equal(t, TargetUserReels, fake.requests[0].Target)
}
