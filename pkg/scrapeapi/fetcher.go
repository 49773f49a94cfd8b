package scrapeapi

import (
	"context"
	"time"

	"igfunnel/pkg/config"
	"igfunnel/pkg/logger"
	"igfunnel/pkg/record"
	"igfunnel/pkg/retry"
)

// Page sizes are fixed per upstream endpoint and never adapted at runtime.
const (
	postsPerPage    = 12
	reelsPerPage    = 12
	commentsPerPage = 10
)

// Hard platform ceilings, clamped before any request is issued.
const (
	maxPostsPerProfile = 60
	maxReelsPerProfile = 60
	maxCommentsPerPost = 200
)

// scrapeClient is the slice of Client the fetcher needs; tests substitute
// their own.
type scrapeClient interface {
	Scrape(ctx context.Context, req Request) ([]byte, error)
}

// Fetcher walks cursor-paginated listing targets, accumulating records up
// to a requested count. Each call starts a fresh pagination walk; cursors
// are never reused across calls.
type Fetcher struct {
	client   scrapeClient
	cooldown time.Duration
	logger   logger.Logger
	sleep    func(ctx context.Context, d time.Duration) error
}

// NewFetcher creates a Fetcher on top of a scrape client.
func NewFetcher(client *Client, cfg *config.APIConfig, log logger.Logger) *Fetcher {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Fetcher{
		client:   client,
		cooldown: cfg.PageCooldown,
		logger:   log,
		sleep:    retry.Wait,
	}
}

// walkSpec parameterizes one pagination walk.
type walkSpec struct {
	target  string
	desired int
	ceiling int
	perPage int
	request func(cursor string) Request
	extract extractFunc
}

// Posts fetches up to desired timeline posts for a username.
func (f *Fetcher) Posts(ctx context.Context, username string, desired int) ([]record.Record, error) {
	return f.walk(ctx, walkSpec{
		target:  TargetUserPosts,
		desired: desired,
		ceiling: maxPostsPerProfile,
		perPage: postsPerPage,
		request: func(cursor string) Request {
			return Request{Target: TargetUserPosts, Query: username, Count: postsPerPage, Cursor: cursor}
		},
		extract: extractPosts,
	})
}

// Reels fetches up to desired reels for a username.
func (f *Fetcher) Reels(ctx context.Context, username string, desired int) ([]record.Record, error) {
	return f.walk(ctx, walkSpec{
		target:  TargetUserReels,
		desired: desired,
		ceiling: maxReelsPerProfile,
		perPage: reelsPerPage,
		request: func(cursor string) Request {
			return Request{Target: TargetUserReels, Query: username, Count: reelsPerPage, Cursor: cursor}
		},
		extract: extractReels,
	})
}

// Comments fetches up to desired comments for a post URL. Every returned
// record carries a post_url back-reference to its parent.
func (f *Fetcher) Comments(ctx context.Context, postURL string, desired int) ([]record.Record, error) {
	comments, err := f.walk(ctx, walkSpec{
		target:  TargetPost,
		desired: desired,
		ceiling: maxCommentsPerPost,
		perPage: commentsPerPage,
		request: func(cursor string) Request {
			return Request{Target: TargetPost, URL: postURL, Count: commentsPerPage, Cursor: cursor}
		},
		extract: extractComments,
	})
	if err != nil {
		return nil, err
	}
	for _, c := range comments {
		c[record.FieldPostURL] = postURL
	}
	return comments, nil
}

// Profile fetches a single profile record: username, follower count and
// whether the profile is private.
func (f *Fetcher) Profile(ctx context.Context, username string) (record.Record, error) {
	body, err := f.client.Scrape(ctx, Request{Target: TargetProfile, Query: username})
	if err != nil {
		return nil, err
	}
	return extractProfile(body)
}

// walk performs the pagination loop. Two independent stopping conditions
// apply: enough records collected, or the upstream cursor is absent.
// Neither implies the other.
func (f *Fetcher) walk(ctx context.Context, spec walkSpec) ([]record.Record, error) {
	if spec.desired <= 0 {
		return nil, nil
	}

	desired := spec.desired
	if desired > spec.ceiling {
		f.logger.DebugWithFields("clamping request to platform ceiling", map[string]interface{}{
			"target":  spec.target,
			"desired": desired,
			"ceiling": spec.ceiling,
		})
		desired = spec.ceiling
	}

	pagesNeeded := (desired + spec.perPage - 1) / spec.perPage

	var items []record.Record
	cursor := ""
	for pageNum := 1; pageNum <= pagesNeeded; pageNum++ {
		body, err := f.client.Scrape(ctx, spec.request(cursor))
		if err != nil {
			return nil, err
		}

		pg, err := spec.extract(body)
		if err != nil {
			// A malformed page is skipped, but without its cursor the
			// walk cannot continue; keep what was collected so far.
			f.logger.WithError(err).WarnWithFields("skipping malformed page", map[string]interface{}{
				"target": spec.target,
				"page":   pageNum,
			})
			break
		}

		items = append(items, pg.Items...)

		f.logger.DebugWithFields("page fetched", map[string]interface{}{
			"target":    spec.target,
			"page":      pageNum,
			"items":     len(pg.Items),
			"collected": len(items),
		})

		if len(items) >= desired {
			break
		}
		if pg.EndCursor == "" {
			f.logger.DebugWithFields("reached end of pages", map[string]interface{}{
				"target": spec.target,
				"pages":  pageNum,
			})
			break
		}
		cursor = pg.EndCursor

		// Fixed cooldown between pages, even absent a 429 signal.
		if err := f.sleep(ctx, f.cooldown); err != nil {
			return nil, err
		}
	}

	// Callers never see more than they asked for, even when the last
	// page overshoots.
	if len(items) > desired {
		items = items[:desired]
	}
	return items, nil
}
