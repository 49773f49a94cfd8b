// Package jobs implements the client for the remote comment-extraction
// job service: submit, poll until terminal, download the result.
//
// Jobs run on infrastructure outside this system's control and may take
// minutes to hours; a coarse poll interval bounds both API load and
// responsiveness. There is no remote cancel call, so the wall-clock
// timeout is the only way to stop waiting.
package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"igfunnel/pkg/config"
	errs "igfunnel/pkg/errors"
	"igfunnel/pkg/logger"
	"igfunnel/pkg/record"
	"igfunnel/pkg/retry"
)

// Status is a remote job state. timed_out is synthesized by the client
// when the wall-clock budget elapses; the remote service never returns it.
type Status string

const (
	StatusPending  Status = "pending"
	StatusRunning  Status = "running"
	StatusDone     Status = "done"
	StatusError    Status = "error"
	StatusTimedOut Status = "timed_out"
)

// Terminal reports whether no further transition can occur. A terminal
// job is never re-polled.
func (s Status) Terminal() bool {
	switch s {
	case StatusDone, StatusError, StatusTimedOut:
		return true
	}
	return false
}

// Job is the client's view of a remote job.
type Job struct {
	ID        string
	Status    Status
	ResultURL string
}

// Input describes one comment-extraction job: the post URLs to process
// and the per-post comment cap.
type Input struct {
	URLs        []string `json:"urls"`
	MaxComments int      `json:"max_comments"`
}

// Client drives the three-call job protocol. Transitions happen purely by
// polling; there is no webhook path.
type Client struct {
	http         *resty.Client
	agentID      string
	pollInterval time.Duration
	logger       logger.Logger
	now          func() time.Time
	sleep        func(ctx context.Context, d time.Duration) error
}

// NewClient creates a job service client from configuration.
func NewClient(cfg *config.JobsConfig, log logger.Logger) *Client {
	if log == nil {
		log = logger.GetLogger()
	}

	httpClient := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetHeader("Accept", "application/json").
		SetHeader("X-Api-Key", cfg.APIKey)

	return &Client{
		http:         httpClient,
		agentID:      cfg.AgentID,
		pollInterval: cfg.PollInterval,
		logger:       log,
		now:          time.Now,
		sleep:        retry.Wait,
	}
}

type launchRequest struct {
	AgentID   string `json:"agent_id"`
	Arguments Input  `json:"arguments"`
}

type launchResponse struct {
	JobID string `json:"job_id"`
}

type statusResponse struct {
	Status    string `json:"status"`
	ResultURL string `json:"result_url"`
}

// Submit launches a job and returns its id. Submission is never retried:
// a launch that does not yield a job id fails fast.
func (c *Client) Submit(ctx context.Context, input Input) (string, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(launchRequest{AgentID: c.agentID, Arguments: input}).
		Post("/jobs/launch")
	if err != nil {
		return "", errs.SubmitFailed(fmt.Sprintf("launch request failed: %v", err))
	}
	if resp.StatusCode() != http.StatusOK {
		return "", errs.SubmitFailed(fmt.Sprintf("launch returned status %d: %s", resp.StatusCode(), resp.Body()))
	}

	var launched launchResponse
	if err := json.Unmarshal(resp.Body(), &launched); err != nil {
		return "", errs.SubmitFailed(fmt.Sprintf("undecodable launch response: %v", err))
	}
	if launched.JobID == "" {
		return "", errs.SubmitFailed("launch response missing job id")
	}

	c.logger.InfoWithFields("job submitted", map[string]interface{}{
		"job_id": launched.JobID,
		"urls":   len(input.URLs),
	})
	return launched.JobID, nil
}

// Poll fetches the current status of a job.
func (c *Client) Poll(ctx context.Context, jobID string) (Job, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("id", jobID).
		Get("/jobs/status")
	if err != nil {
		return Job{}, errs.Network(err)
	}
	if resp.StatusCode() != http.StatusOK {
		return Job{}, errs.UpstreamRequest(resp.StatusCode(), jobID, string(resp.Body()))
	}

	var status statusResponse
	if err := json.Unmarshal(resp.Body(), &status); err != nil {
		return Job{}, errs.Malformed("job_status", string(resp.Body()), err)
	}

	return Job{ID: jobID, Status: Status(status.Status), ResultURL: status.ResultURL}, nil
}

// resultItem is one comment row in a job result download.
type resultItem struct {
	PostURL   string `json:"post_url"`
	Username  string `json:"username"`
	Comment   string `json:"comment"`
	Timestamp string `json:"timestamp"`
}

// FetchResult downloads and flattens a finished job's output: one record
// per comment, each carrying the post_url back-reference.
func (c *Client) FetchResult(ctx context.Context, resultURL string) ([]record.Record, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		Get(resultURL)
	if err != nil {
		return nil, errs.Network(err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, errs.UpstreamRequest(resp.StatusCode(), resultURL, string(resp.Body()))
	}

	var items []resultItem
	if err := json.Unmarshal(resp.Body(), &items); err != nil {
		return nil, errs.Malformed("job_result", string(resp.Body()), err)
	}

	records := make([]record.Record, 0, len(items))
	for _, item := range items {
		records = append(records, record.Record{
			record.FieldPostURL:  item.PostURL,
			record.FieldUsername: item.Username,
			"comment":            item.Comment,
			"timestamp":          item.Timestamp,
		})
	}
	return records, nil
}

// RunToCompletion submits a job and polls it on a fixed interval until it
// is done, failed, or the wall-clock budget elapses. Transport-level poll
// failures are logged and tolerated; only the timeout aborts polling. A
// job reporting done exactly at the deadline still returns its result,
// since the budget check happens after each poll.
func (c *Client) RunToCompletion(ctx context.Context, input Input, timeout time.Duration) ([]record.Record, error) {
	jobID, err := c.Submit(ctx, input)
	if err != nil {
		return nil, err
	}

	start := c.now()
	for {
		if err := c.sleep(ctx, c.pollInterval); err != nil {
			return nil, err
		}

		job, err := c.Poll(ctx, jobID)
		if err != nil {
			// Transient miss: keep polling unless the budget is gone.
			c.logger.WithError(err).WarnWithFields("job poll failed", map[string]interface{}{
				"job_id": jobID,
			})
		} else {
			c.logger.DebugWithFields("job polled", map[string]interface{}{
				"job_id": jobID,
				"status": string(job.Status),
			})
			switch job.Status {
			case StatusDone:
				return c.FetchResult(ctx, job.ResultURL)
			case StatusError:
				return nil, errs.RemoteJobFailed(jobID)
			}
		}

		if c.now().Sub(start) > timeout {
			c.logger.ErrorWithFields("job timed out", map[string]interface{}{
				"job_id":  jobID,
				"timeout": timeout,
			})
			return nil, errs.JobTimedOut(jobID, timeout)
		}
	}
}
