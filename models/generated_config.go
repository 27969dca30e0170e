package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ConfigStatus is the lifecycle state of a generated config. The pipeline
// only ever produces drafts; promotion to active happens elsewhere.
type ConfigStatus string

const (
	ConfigDraft ConfigStatus = "draft"
)

// GeneratedConfig is the content-generation configuration derived from one
// completed analysis. At most one draft exists per analysis at any time.
// Collection: generated_configs
type GeneratedConfig struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID     string             `bson:"user_id" json:"user_id"`
	AnalysisID primitive.ObjectID `bson:"analysis_id" json:"analysis_id"`
	Status     ConfigStatus       `bson:"status" json:"status"`
	Config     GenerationPayload  `bson:"config" json:"config"`
	CreatedAt  time.Time          `bson:"created_at" json:"created_at"`
}

// GenerationPayload bundles the persona profile with its post-type templates.
type GenerationPayload struct {
	Profile   PersonaProfile     `bson:"profile" json:"profile"`
	PostTypes []PostTypeTemplate `bson:"post_types" json:"post_types"`
}

// PersonaProfile steers later content generation: tone, audience and the
// required-hashtag list (capped at the configured maximum after generation).
type PersonaProfile struct {
	Name             string   `bson:"name" json:"name"`
	Description      string   `bson:"description" json:"description"`
	Tone             string   `bson:"tone" json:"tone"`
	TargetAudience   string   `bson:"target_audience" json:"target_audience"`
	WritingStyle     string   `bson:"writing_style" json:"writing_style"`
	RequiredHashtags []string `bson:"required_hashtags" json:"required_hashtags"`
	SamplePhrases    []string `bson:"sample_phrases" json:"sample_phrases"`
}

// PostTypeTemplate is one reusable content template derived from analysis
// insight.
type PostTypeTemplate struct {
	Name           string   `bson:"name" json:"name"`
	Description    string   `bson:"description" json:"description"`
	PromptTemplate string   `bson:"prompt_template" json:"prompt_template"`
	Structure      string   `bson:"structure" json:"structure"`
	SampleOutput   string   `bson:"sample_output" json:"sample_output"`
	Tags           []string `bson:"tags" json:"tags"`
}
