package scrapeapi

import (
	"encoding/json"
	"fmt"

	errs "igfunnel/pkg/errors"
	"igfunnel/pkg/record"
)

// page is one decoded page of a listing target: the flattened records
// plus the cursor to resume from. An empty cursor means no further pages.
type page struct {
	Items     []record.Record
	EndCursor string
}

// extractFunc decodes one raw response body for a specific target.
type extractFunc func(body []byte) (page, error)

// decodeEnvelope unwraps results[].content.data and returns the raw
// payloads keyed under the given data key, one per result batch.
func decodeEnvelope(target string, body []byte, key string) ([]json.RawMessage, error) {
	var resp scrapeResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, errs.Malformed(target, string(body), err)
	}

	var payloads []json.RawMessage
	for _, batch := range resp.Results {
		raw, ok := batch.Content.Data[key]
		if !ok {
			return nil, errs.Malformed(target, string(body), fmt.Errorf("missing %q in response data", key))
		}
		payloads = append(payloads, raw)
	}
	return payloads, nil
}

// postRecord flattens a post node into the funnel's record shape. The
// counters and caption have flat and legacy nested variants upstream;
// whichever is present wins.
func postRecord(n postNode, urlPrefix string) record.Record {
	likes := n.LikeCount
	if likes == 0 {
		likes = n.EdgeLikedBy.Count
	}
	comments := n.CommentCount
	if comments == 0 {
		comments = n.EdgeMediaToComment.Count
	}
	caption := ""
	if n.Caption != nil {
		caption = n.Caption.Text
	}
	if caption == "" && len(n.EdgeMediaToCaption.Edges) > 0 {
		caption = n.EdgeMediaToCaption.Edges[0].Node.Text
	}
	username := n.User.Username
	if username == "" {
		username = n.Owner.Username
	}

	return record.Record{
		record.FieldURL:      fmt.Sprintf("https://www.instagram.com/%s/%s/", urlPrefix, n.Code),
		record.FieldUsername: username,
		record.FieldLikes:    likes,
		record.FieldComments: comments,
		record.FieldCaption:  caption,
	}
}

// extractPosts decodes a user-timeline page.
func extractPosts(body []byte) (page, error) {
	payloads, err := decodeEnvelope(TargetUserPosts, body, keyTimelineConnection)
	if err != nil {
		return page{}, err
	}

	var pg page
	for _, raw := range payloads {
		var conn timelineConnection
		if err := json.Unmarshal(raw, &conn); err != nil {
			return page{}, errs.Malformed(TargetUserPosts, string(raw), err)
		}
		for _, edge := range conn.Edges {
			pg.Items = append(pg.Items, postRecord(edge.Node, "p"))
		}
		pg.EndCursor = conn.PageInfo.EndCursor
	}
	return pg, nil
}

// extractReels decodes a user-clips page.
func extractReels(body []byte) (page, error) {
	payloads, err := decodeEnvelope(TargetUserReels, body, keyClipsConnection)
	if err != nil {
		return page{}, err
	}

	var pg page
	for _, raw := range payloads {
		var conn clipsConnection
		if err := json.Unmarshal(raw, &conn); err != nil {
			return page{}, errs.Malformed(TargetUserReels, string(raw), err)
		}
		for _, edge := range conn.Edges {
			pg.Items = append(pg.Items, postRecord(edge.Node.Media, "reel"))
		}
		pg.EndCursor = conn.PageInfo.EndCursor
	}
	return pg, nil
}

// extractComments decodes one page of a post's parent comments.
func extractComments(body []byte) (page, error) {
	payloads, err := decodeEnvelope(TargetPost, body, keyShortcodeMedia)
	if err != nil {
		return page{}, err
	}

	var pg page
	for _, raw := range payloads {
		var media shortcodeMedia
		if err := json.Unmarshal(raw, &media); err != nil {
			return page{}, errs.Malformed(TargetPost, string(raw), err)
		}
		block := media.EdgeMediaToParentComment
		for _, edge := range block.Edges {
			pg.Items = append(pg.Items, record.Record{
				record.FieldUsername: edge.Node.Owner.Username,
				"comment":            edge.Node.Text,
				"created_at":         edge.Node.CreatedAt,
			})
		}
		pg.EndCursor = block.PageInfo.EndCursor
	}
	return pg, nil
}

// extractProfile decodes a profile lookup.
func extractProfile(body []byte) (record.Record, error) {
	payloads, err := decodeEnvelope(TargetProfile, body, keyProfileUser)
	if err != nil {
		return nil, err
	}
	if len(payloads) == 0 {
		return nil, errs.Malformed(TargetProfile, string(body), fmt.Errorf("empty results"))
	}

	var user profileUser
	if err := json.Unmarshal(payloads[0], &user); err != nil {
		return nil, errs.Malformed(TargetProfile, string(payloads[0]), err)
	}
	if user.Username == "" {
		return nil, errs.Malformed(TargetProfile, string(payloads[0]), fmt.Errorf("missing username"))
	}

	return record.Record{
		record.FieldUsername:  user.Username,
		"full_name":           user.FullName,
		record.FieldFollowers: user.FollowerCount,
		"private":             user.IsPrivate,
	}, nil
}
