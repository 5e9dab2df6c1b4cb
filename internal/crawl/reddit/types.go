package reddit

import "encoding/json"

// Reddit's public JSON endpoints wrap everything in kind-tagged
// "things". Only the fields the crawler consumes are declared.

const (
	kindComment = "t1"

	deletedAuthor = "[deleted]"
	removedAuthor = "[removed]"
)

type listingEnvelope struct {
	Data struct {
		Children []thing `json:"children"`
	} `json:"data"`
}

type thing struct {
	Kind string          `json:"kind"`
	Data json.RawMessage `json:"data"`
}

type postData struct {
	ID          string  `json:"id"`
	Subreddit   string  `json:"subreddit"`
	Title       string  `json:"title"`
	Selftext    string  `json:"selftext"`
	Author      string  `json:"author"`
	Score       int     `json:"score"`
	UpvoteRatio float64 `json:"upvote_ratio"`
	NumComments int     `json:"num_comments"`
	CreatedUTC  float64 `json:"created_utc"`
	URL         string  `json:"url"`
	Permalink   string  `json:"permalink"`
}

type commentData struct {
	ID         string  `json:"id"`
	Author     string  `json:"author"`
	Body       string  `json:"body"`
	Score      int     `json:"score"`
	CreatedUTC float64 `json:"created_utc"`
	ParentID   string  `json:"parent_id"`
	// Replies is a nested listing when present, or the empty string.
	Replies json.RawMessage `json:"replies"`
}
