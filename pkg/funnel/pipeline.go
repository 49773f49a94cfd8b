// Package funnel chains the discovery, filtering, enrichment and
// extraction stages into one sequential lead-generation pipeline.
//
// The pipeline is strictly single-threaded: stages run in order, and
// within a stage remote calls run one at a time. Failures are contained
// at the smallest sensible unit (an account, a profile, a post); only a
// stage left with zero survivors ends the run early, and that early end
// is a valid outcome, not an error.
package funnel

import (
	"context"
	"time"

	"igfunnel/pkg/config"
	"igfunnel/pkg/engagement"
	"igfunnel/pkg/jobs"
	"igfunnel/pkg/logger"
	"igfunnel/pkg/record"
	"igfunnel/pkg/sink"
)

// Stage names, in execution order.
const (
	StageDiscover       = "discover"
	StageEngagement     = "engagement_filter"
	StageIdentity       = "identity_extraction"
	StageEnrichment     = "enrichment"
	StageFollowerFilter = "follower_filter"
	StageReels          = "reels_discovery"
	StageCommentExtract = "comment_extraction"
)

// Dataset names written to the sink.
const (
	datasetPosts    = "high_engagement_posts"
	datasetProfiles = "qualified_profiles"
	datasetReels    = "high_engagement_reels"
	datasetComments = "comments"
)

// Options wires a pipeline run.
type Options struct {
	Seeds    []string
	Cfg      config.FunnelConfig
	JobCfg   config.JobsConfig
	Fetcher  ContentFetcher
	Jobs     JobRunner
	Sink     sink.Sink
	Recorder StageRecorder
	RunID    string
	Logger   logger.Logger
}

// StageStats summarizes one executed stage.
type StageStats struct {
	Stage     string
	Input     int
	Survivors int
	Dropped   int
}

// Summary is the outcome of a full pipeline run.
type Summary struct {
	Stages   []StageStats
	Posts    []record.Record
	Profiles []record.Record
	Reels    []record.Record
	Comments []record.Record
	Stopped  string // first stage that produced zero survivors, if any
}

// Pipeline executes the seven-stage funnel.
type Pipeline struct {
	opts   Options
	logger logger.Logger
}

// New creates a Pipeline. Fetcher and Sink are required; Jobs is only
// needed when the comment mode is "job".
func New(opts Options) *Pipeline {
	log := opts.Logger
	if log == nil {
		log = logger.GetLogger()
	}
	return &Pipeline{opts: opts, logger: log}
}

// record logs one stage outcome and persists it when a recorder is set.
// Recorder failures are logged and otherwise ignored; run history never
// blocks the funnel itself.
func (p *Pipeline) record(summary *Summary, stage string, input, survivors int, started time.Time) {
	// Extraction stages can fan out (one post yields many comments), so
	// dropped never goes negative.
	dropped := input - survivors
	if dropped < 0 {
		dropped = 0
	}
	stats := StageStats{
		Stage:     stage,
		Input:     input,
		Survivors: survivors,
		Dropped:   dropped,
	}
	summary.Stages = append(summary.Stages, stats)

	p.logger.InfoWithFields("stage complete", map[string]interface{}{
		"stage":     stage,
		"input":     stats.Input,
		"survivors": stats.Survivors,
		"dropped":   stats.Dropped,
	})

	if p.opts.Recorder != nil {
		err := p.opts.Recorder.RecordStage(
			p.opts.RunID, stage, len(summary.Stages),
			stats.Input, stats.Survivors, stats.Dropped,
			time.Since(started),
		)
		if err != nil {
			p.logger.WithError(err).Warn("failed to persist stage record")
		}
	}
}

// stopEarly marks the run as ended by an empty stage.
func (p *Pipeline) stopEarly(summary *Summary, stage string) {
	summary.Stopped = stage
	p.logger.InfoWithFields("funnel stopped early", map[string]interface{}{
		"stage": stage,
	})
}

// Run executes every stage in order. The returned error covers only
// infrastructure failures (sink writes, context cancellation); upstream
// failures are absorbed per unit and reflected in the stage counts.
func (p *Pipeline) Run(ctx context.Context) (*Summary, error) {
	summary := &Summary{}
	cfg := p.opts.Cfg

	// Stage 1: discover posts from seed accounts. A seed whose fetch
	// fails is dropped, not fatal.
	started := time.Now()
	var posts []record.Record
	for _, username := range p.opts.Seeds {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		fetched, err := p.opts.Fetcher.Posts(ctx, username, cfg.PostsPerAccount)
		if err != nil {
			p.logger.WithError(err).WarnWithFields("skipping seed account", map[string]interface{}{
				"username": username,
			})
			continue
		}
		posts = append(posts, fetched...)
	}
	p.record(summary, StageDiscover, len(p.opts.Seeds)*cfg.PostsPerAccount, len(posts), started)
	if len(posts) == 0 {
		p.stopEarly(summary, StageDiscover)
		return summary, nil
	}

	// Stage 2: engagement filter.
	started = time.Now()
	criteria := engagement.Criteria{MinLikes: cfg.MinLikes, MinComments: cfg.MinComments}
	hot := engagement.Apply(posts, criteria)
	p.record(summary, StageEngagement, len(posts), len(hot), started)
	if len(hot) == 0 {
		p.stopEarly(summary, StageEngagement)
		return summary, nil
	}
	summary.Posts = hot
	if err := p.opts.Sink.Write(datasetPosts, hot); err != nil {
		return summary, err
	}

	// Stage 3: identity extraction. First occurrence wins, so ordering
	// downstream follows engagement discovery order.
	started = time.Now()
	seen := make(map[string]struct{})
	var usernames []string
	for _, r := range hot {
		name := r.String(record.FieldUsername)
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		usernames = append(usernames, name)
	}
	p.record(summary, StageIdentity, len(hot), len(usernames), started)
	if len(usernames) == 0 {
		p.stopEarly(summary, StageIdentity)
		return summary, nil
	}

	// Stage 4: enrichment. The cap applies before any remote call is
	// made. Private profiles and failed lookups are dropped.
	started = time.Now()
	candidates := usernames
	if cfg.MaxProfiles > 0 && len(candidates) > cfg.MaxProfiles {
		candidates = candidates[:cfg.MaxProfiles]
	}
	var profiles []record.Record
	for _, username := range candidates {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		profile, err := p.opts.Fetcher.Profile(ctx, username)
		if err != nil {
			p.logger.WithError(err).WarnWithFields("skipping profile", map[string]interface{}{
				"username": username,
			})
			continue
		}
		if profile.Bool("private") {
			p.logger.DebugWithFields("dropping private profile", map[string]interface{}{
				"username": username,
			})
			continue
		}
		profiles = append(profiles, profile)
	}
	p.record(summary, StageEnrichment, len(candidates), len(profiles), started)
	if len(profiles) == 0 {
		p.stopEarly(summary, StageEnrichment)
		return summary, nil
	}

	// Stage 5: follower filter.
	started = time.Now()
	followerCriteria := engagement.Criteria{MinFollowers: cfg.MinFollowers}
	qualified := engagement.Apply(profiles, followerCriteria)
	p.record(summary, StageFollowerFilter, len(profiles), len(qualified), started)
	if len(qualified) == 0 {
		p.stopEarly(summary, StageFollowerFilter)
		return summary, nil
	}
	summary.Profiles = qualified
	if err := p.opts.Sink.Write(datasetProfiles, qualified); err != nil {
		return summary, err
	}

	// Stage 6: reels re-discovery against qualified profiles, filtered
	// by the same engagement thresholds as timeline posts.
	started = time.Now()
	var reels []record.Record
	for _, profile := range qualified {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		username := profile.String(record.FieldUsername)
		fetched, err := p.opts.Fetcher.Reels(ctx, username, cfg.PostsPerAccount)
		if err != nil {
			p.logger.WithError(err).WarnWithFields("skipping reels for profile", map[string]interface{}{
				"username": username,
			})
			continue
		}
		reels = append(reels, fetched...)
	}
	hotReels := engagement.Apply(reels, criteria)
	p.record(summary, StageReels, len(reels), len(hotReels), started)
	if len(hotReels) == 0 {
		p.stopEarly(summary, StageReels)
		return summary, nil
	}
	summary.Reels = hotReels
	if err := p.opts.Sink.Write(datasetReels, hotReels); err != nil {
		return summary, err
	}

	// Stage 7: comment extraction from the surviving reels. The post cap
	// applies before any remote work starts.
	started = time.Now()
	targets := hotReels
	if cfg.MaxCommentPosts > 0 && len(targets) > cfg.MaxCommentPosts {
		targets = targets[:cfg.MaxCommentPosts]
	}
	comments, err := p.extractComments(ctx, targets)
	if err != nil {
		return summary, err
	}
	p.record(summary, StageCommentExtract, len(targets), len(comments), started)
	summary.Comments = comments
	if err := p.opts.Sink.Write(datasetComments, comments); err != nil {
		return summary, err
	}

	return summary, nil
}

// extractComments runs stage 7 in the configured mode. In api mode each
// post is paginated directly and a failed post is skipped; in job mode
// all posts go into a single remote job whose failure empties the stage.
func (p *Pipeline) extractComments(ctx context.Context, targets []record.Record) ([]record.Record, error) {
	urls := make([]string, 0, len(targets))
	for _, r := range targets {
		if u := r.String(record.FieldURL); u != "" {
			urls = append(urls, u)
		}
	}

	if p.opts.Cfg.CommentMode == config.CommentModeJob {
		if p.opts.Jobs == nil {
			p.logger.Warn("comment mode is job but no job runner is configured")
			return nil, nil
		}
		input := jobs.Input{URLs: urls, MaxComments: p.opts.Cfg.CommentsPerPost}
		comments, err := p.opts.Jobs.RunToCompletion(ctx, input, p.opts.JobCfg.Timeout)
		if err != nil {
			p.logger.WithError(err).Warn("comment extraction job failed")
			return nil, nil
		}
		return comments, nil
	}

	var comments []record.Record
	for _, u := range urls {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		fetched, err := p.opts.Fetcher.Comments(ctx, u, p.opts.Cfg.CommentsPerPost)
		if err != nil {
			p.logger.WithError(err).WarnWithFields("skipping comments for post", map[string]interface{}{
				"post_url": u,
			})
			continue
		}
		comments = append(comments, fetched...)
	}
	return comments, nil
}
