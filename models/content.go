package models

import "time"

// ContentKind classifies a normalized content item.
type ContentKind string

const (
	KindImage    ContentKind = "image"
	KindCarousel ContentKind = "carousel"
	KindVideo    ContentKind = "video"
	KindArticle  ContentKind = "article"
)

// ProfileSummary is the account-level slice of a social export.
type ProfileSummary struct {
	Username  string `bson:"username" json:"username"`
	FullName  string `bson:"full_name" json:"full_name"`
	Biography string `bson:"biography" json:"biography"`
	Followers int64  `bson:"followers" json:"followers"`
	Following int64  `bson:"following" json:"following"`
	PostCount int64  `bson:"post_count" json:"post_count"`
}

// EngagementMetrics are the per-item engagement figures from the export.
type EngagementMetrics struct {
	Likes    int64 `bson:"likes" json:"likes"`
	Comments int64 `bson:"comments" json:"comments"`
	Shares   int64 `bson:"shares" json:"shares"`
	Views    int64 `bson:"views" json:"views"`
}

// ContentItem is one normalized content record produced by an adapter.
type ContentItem struct {
	ItemID   string            `bson:"item_id" json:"item_id"`
	Kind     ContentKind       `bson:"kind" json:"kind"`
	Text     string            `bson:"text" json:"text"`
	Tags     []string          `bson:"tags" json:"tags"`
	Metrics  EngagementMetrics `bson:"metrics" json:"metrics"`
	PostedAt time.Time         `bson:"posted_at" json:"posted_at"`
}

// BlogPostData is one extracted article from a crawl.
type BlogPostData struct {
	URL       string    `bson:"url" json:"url"`
	Title     string    `bson:"title" json:"title"`
	Content   string    `bson:"content" json:"content"`
	WordCount int       `bson:"word_count" json:"word_count"`
	FetchedAt time.Time `bson:"fetched_at" json:"fetched_at"`
}
