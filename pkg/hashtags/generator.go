// Package hashtags generates niche hashtag lists through an
// OpenAI-compatible chat completions endpoint.
package hashtags

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"github.com/go-resty/resty/v2"

	"igfunnel/pkg/config"
	errs "igfunnel/pkg/errors"
	"igfunnel/pkg/logger"
)

const systemPrompt = "You are a social media strategist. When asked for hashtags, " +
	"reply with hashtags only, one per line, each starting with #. No commentary."

// Generator calls the completion service and parses hashtags out of the
// reply.
type Generator struct {
	http   *resty.Client
	model  string
	logger logger.Logger
}

// NewGenerator creates a Generator from configuration.
func NewGenerator(cfg *config.HashtagsConfig, log logger.Logger) *Generator {
	if log == nil {
		log = logger.GetLogger()
	}

	httpClient := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetHeader("Content-Type", "application/json").
		SetAuthToken(cfg.APIKey)

	return &Generator{
		http:   httpClient,
		model:  cfg.Model,
		logger: log,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

var hashtagPattern = regexp.MustCompile(`#[\p{L}\p{N}_]+`)

// Generate returns up to count hashtags for a topic. Duplicates in the
// model's reply are collapsed, keeping first occurrence order.
func (g *Generator) Generate(ctx context.Context, topic string, count int) ([]string, error) {
	prompt := fmt.Sprintf("Give me %d popular Instagram hashtags for the %q niche.", count, topic)

	resp, err := g.http.R().
		SetContext(ctx).
		SetBody(chatRequest{
			Model: g.model,
			Messages: []chatMessage{
				{Role: "system", Content: systemPrompt},
				{Role: "user", Content: prompt},
			},
			Temperature: 0.7,
		}).
		Post("/chat/completions")
	if err != nil {
		return nil, errs.Network(err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, errs.UpstreamRequest(resp.StatusCode(), prompt, string(resp.Body()))
	}

	var completion chatResponse
	if err := json.Unmarshal(resp.Body(), &completion); err != nil {
		return nil, errs.Malformed("chat_completion", string(resp.Body()), err)
	}
	if len(completion.Choices) == 0 {
		return nil, errs.Malformed("chat_completion", string(resp.Body()), fmt.Errorf("no choices in response"))
	}

	tags := parseHashtags(completion.Choices[0].Message.Content)
	if count > 0 && len(tags) > count {
		tags = tags[:count]
	}

	g.logger.DebugWithFields("hashtags generated", map[string]interface{}{
		"topic": topic,
		"count": len(tags),
	})
	return tags, nil
}

// parseHashtags pulls #tags from free-form model output, lowercased and
// deduplicated.
func parseHashtags(content string) []string {
	seen := make(map[string]struct{})
	var tags []string
	for _, match := range hashtagPattern.FindAllString(content, -1) {
		tag := strings.ToLower(match)
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		tags = append(tags, tag)
	}
	return tags
}
