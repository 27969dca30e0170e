package models

import (
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SourceType selects which adapter, prompt and result schema apply.
type SourceType string

const (
	SourceSocial SourceType = "social"
	SourceBlog   SourceType = "blog"
)

func (s SourceType) Valid() bool {
	return s == SourceSocial || s == SourceBlog
}

// IngestionMethod records how raw content entered the pipeline.
type IngestionMethod string

const (
	IngestUpload IngestionMethod = "upload"
	IngestCrawl  IngestionMethod = "crawl"
)

func (m IngestionMethod) Valid() bool {
	return m == IngestUpload || m == IngestCrawl
}

// AnalysisStatus is the pollable lifecycle state of one analysis job.
// Transitions are strictly pending -> analyzing -> {completed, failed};
// a new ingestion resets a terminal record back to pending.
type AnalysisStatus string

const (
	StatusPending   AnalysisStatus = "pending"
	StatusAnalyzing AnalysisStatus = "analyzing"
	StatusCompleted AnalysisStatus = "completed"
	StatusFailed    AnalysisStatus = "failed"
)

// Analysis represents one competitor-analysis job.
// Collection: analyses
type Analysis struct {
	ID                primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID            string             `bson:"user_id" json:"user_id"`
	SourceType        SourceType         `bson:"source_type" json:"source_type"`
	SourceIdentifier  string             `bson:"source_identifier" json:"source_identifier"`
	SourceDisplayName string             `bson:"source_display_name" json:"source_display_name"`
	IngestionMethod   IngestionMethod    `bson:"ingestion_method" json:"ingestion_method"`
	Status            AnalysisStatus     `bson:"status" json:"status"`
	RawData           *RawData           `bson:"raw_data,omitempty" json:"raw_data,omitempty"`
	AnalysisResult    *AnalysisResult    `bson:"analysis_result,omitempty" json:"analysis_result,omitempty"`
	ItemCount         int                `bson:"item_count" json:"item_count"`
	ErrorMessage      string             `bson:"error_message,omitempty" json:"error_message,omitempty"`
	CreatedAt         time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt         time.Time          `bson:"updated_at" json:"updated_at"`
}

// RawData is the normalized adapter output, a tagged union keyed by the
// record's source_type. Exactly one variant is set. Items are never mutated
// after ingestion.
type RawData struct {
	Social *SocialRawData `bson:"social,omitempty" json:"social,omitempty"`
	Blog   *BlogRawData   `bson:"blog,omitempty" json:"blog,omitempty"`
}

// SocialRawData is the upload adapter output.
type SocialRawData struct {
	Profile *ProfileSummary `bson:"profile,omitempty" json:"profile,omitempty"`
	Items   []ContentItem   `bson:"items" json:"items"`
}

// BlogRawData is the crawl adapter output.
type BlogRawData struct {
	Posts      []BlogPostData `bson:"posts" json:"posts"`
	Strategy   string         `bson:"strategy" json:"strategy"`
	TotalFound int            `bson:"total_found" json:"total_found"`
}

// Validate checks that the variant matching sourceType is present and
// non-empty. Called on write from the adapters and on read before analysis.
func (r *RawData) Validate(sourceType SourceType) error {
	if r == nil {
		return fmt.Errorf("raw data is missing")
	}
	switch sourceType {
	case SourceSocial:
		if r.Social == nil {
			return fmt.Errorf("raw data has no social payload")
		}
		if len(r.Social.Items) == 0 {
			return fmt.Errorf("social payload has no content items")
		}
	case SourceBlog:
		if r.Blog == nil {
			return fmt.Errorf("raw data has no blog payload")
		}
		if len(r.Blog.Posts) == 0 {
			return fmt.Errorf("blog payload has no posts")
		}
	default:
		return fmt.Errorf("unknown source type: %s", sourceType)
	}
	return nil
}

// Count returns the number of normalized content items in the union.
func (r *RawData) Count() int {
	if r == nil {
		return 0
	}
	if r.Social != nil {
		return len(r.Social.Items)
	}
	if r.Blog != nil {
		return len(r.Blog.Posts)
	}
	return 0
}
