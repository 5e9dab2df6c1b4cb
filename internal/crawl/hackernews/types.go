package hackernews

// Algolia full-text search response, trimmed to the consumed fields.
type algoliaResponse struct {
	Hits []algoliaHit `json:"hits"`
}

type algoliaHit struct {
	ObjectID    string `json:"objectID"`
	Title       string `json:"title"`
	URL         string `json:"url"`
	Author      string `json:"author"`
	Points      int    `json:"points"`
	NumComments int    `json:"num_comments"`
	CreatedAtI  int64  `json:"created_at_i"` //nolint:tagliatelle
	StoryText   string `json:"story_text"`

	Tags []string `json:"_tags"` //nolint:tagliatelle
}

// Firebase item API record, used for walking comment trees.
type firebaseItem struct {
	ID      int64   `json:"id"`
	Type    string  `json:"type"`
	By      string  `json:"by"`
	Text    string  `json:"text"`
	Time    int64   `json:"time"`
	Parent  int64   `json:"parent"`
	Kids    []int64 `json:"kids"`
	Deleted bool    `json:"deleted"`
	Dead    bool    `json:"dead"`
}
