package scrapeapi

import "encoding/json"

// Scrape targets understood by the upstream API. Each target has its own
// response nesting, handled by a matching extraction function.
const (
	TargetUserPosts = "instagram_graphql_user_posts"
	TargetUserReels = "instagram_graphql_user_reels"
	TargetPost      = "instagram_graphql_post"
	TargetProfile   = "instagram_graphql_profile"
)

// Request is the scrape API request payload. Query and URL are mutually
// exclusive: listing targets take a query, single-item targets take a URL.
type Request struct {
	Target string `json:"target"`
	Query  string `json:"query,omitempty"`
	URL    string `json:"url,omitempty"`
	Count  int    `json:"count,omitempty"`
	Cursor string `json:"cursor,omitempty"`
}

// scrapeResponse is the response envelope shared by every target. The
// per-target payload lives under results[].content.data and is decoded
// lazily by the extraction functions.
type scrapeResponse struct {
	Results []resultBatch `json:"results"`
}

type resultBatch struct {
	Content struct {
		Data map[string]json.RawMessage `json:"data"`
	} `json:"content"`
}

// pageInfo carries the continuation cursor. An absent or empty end_cursor
// is the sole authoritative "no further pages" signal.
type pageInfo struct {
	HasNextPage bool   `json:"has_next_page"`
	EndCursor   string `json:"end_cursor"`
}

// Data keys per target. These paths are the most fragile part of the
// upstream contract.
const (
	keyTimelineConnection = "xdt_api__v1__feed__user_timeline_graphql_connection"
	keyClipsConnection    = "xdt_api__v1__clips__user_connection_v2"
	keyShortcodeMedia     = "xdt_shortcode_media"
	keyProfileUser        = "user"
)

// timelineConnection is the posts listing payload.
type timelineConnection struct {
	Edges    []postEdge `json:"edges"`
	PageInfo pageInfo   `json:"page_info"`
}

type postEdge struct {
	Node postNode `json:"node"`
}

// postNode carries both the flat counters and the legacy edge_* variants;
// upstream serves either depending on the account.
type postNode struct {
	Code         string `json:"code"`
	LikeCount    int    `json:"like_count"`
	CommentCount int    `json:"comment_count"`
	Caption      *struct {
		Text string `json:"text"`
	} `json:"caption"`
	User struct {
		Username string `json:"username"`
	} `json:"user"`
	Owner struct {
		Username string `json:"username"`
	} `json:"owner"`
	EdgeLikedBy struct {
		Count int `json:"count"`
	} `json:"edge_liked_by"`
	EdgeMediaToComment struct {
		Count int `json:"count"`
	} `json:"edge_media_to_comment"`
	EdgeMediaToCaption struct {
		Edges []struct {
			Node struct {
				Text string `json:"text"`
			} `json:"node"`
		} `json:"edges"`
	} `json:"edge_media_to_caption"`
}

// clipsConnection is the reels listing payload.
type clipsConnection struct {
	Edges []struct {
		Node struct {
			Media postNode `json:"media"`
		} `json:"node"`
	} `json:"edges"`
	PageInfo pageInfo `json:"page_info"`
}

// shortcodeMedia is the single-post payload carrying the paginated
// comment connection.
type shortcodeMedia struct {
	EdgeMediaToParentComment struct {
		Count int `json:"count"`
		Edges []struct {
			Node struct {
				Text  string `json:"text"`
				Owner struct {
					Username string `json:"username"`
				} `json:"owner"`
				CreatedAt int64 `json:"created_at"`
			} `json:"node"`
		} `json:"edges"`
		PageInfo pageInfo `json:"page_info"`
	} `json:"edge_media_to_parent_comment"`
}

// profileUser is the profile lookup payload.
type profileUser struct {
	Username      string `json:"username"`
	FullName      string `json:"full_name"`
	FollowerCount int    `json:"follower_count"`
	IsPrivate     bool   `json:"is_private"`
}
