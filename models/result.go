package models

import "fmt"

// AnalysisResult is the structured insight report, a tagged union keyed by
// the record's source_type. Present iff status == completed.
type AnalysisResult struct {
	Social *SocialAnalysis `bson:"social,omitempty" json:"social,omitempty"`
	Blog   *BlogAnalysis   `bson:"blog,omitempty" json:"blog,omitempty"`
}

// SocialAnalysis is the strict response schema for social-source analysis.
type SocialAnalysis struct {
	ContentCategories map[string]float64 `bson:"content_categories" json:"content_categories"`
	ToneAnalysis      *ToneAnalysis      `bson:"tone_analysis" json:"tone_analysis"`
	HashtagStrategy   *HashtagStrategy   `bson:"hashtag_strategy" json:"hashtag_strategy"`
	PostingCadence    string             `bson:"posting_cadence" json:"posting_cadence"`
	Summary           string             `bson:"summary" json:"summary"`
	KeySuccessFactors []string           `bson:"key_success_factors" json:"key_success_factors"`
}

type ToneAnalysis struct {
	PrimaryTone       string   `bson:"primary_tone" json:"primary_tone"`
	FormalityScore    float64  `bson:"formality_score" json:"formality_score"`
	SentenceStyle     string   `bson:"sentence_style" json:"sentence_style"`
	FirstPersonForm   string   `bson:"first_person_form" json:"first_person_form"`
	CallToActionStyle string   `bson:"call_to_action_style" json:"call_to_action_style"`
	SamplePhrases     []string `bson:"sample_phrases" json:"sample_phrases"`
}

type HashtagStrategy struct {
	AvgPerPost    float64  `bson:"avg_per_post" json:"avg_per_post"`
	TopPerforming []string `bson:"top_performing" json:"top_performing"`
	Recommended   []string `bson:"recommended" json:"recommended"`
}

// BlogAnalysis is the strict response schema for blog-source analysis.
type BlogAnalysis struct {
	ContentStrengths    *ContentStrengths   `bson:"content_strengths" json:"content_strengths"`
	ReusableSuggestions []ReusableContent   `bson:"reusable_suggestions" json:"reusable_suggestions"`
	ProfileMaterial     *ProfileMaterial    `bson:"profile_material" json:"profile_material"`
	Summary             string              `bson:"summary" json:"summary"`
}

type ContentStrengths struct {
	Topics         string `bson:"topics" json:"topics"`
	UniqueValue    string `bson:"unique_value" json:"unique_value"`
	TargetAudience string `bson:"target_audience" json:"target_audience"`
	Style          string `bson:"style" json:"style"`
}

// ReusableContent maps one original article to a reusable post suggestion.
type ReusableContent struct {
	OriginalTitle     string   `bson:"original_title" json:"original_title"`
	OriginalURL       string   `bson:"original_url" json:"original_url"`
	SuggestedPostType string   `bson:"suggested_post_type" json:"suggested_post_type"`
	Outline           string   `bson:"outline" json:"outline"`
	Tags              []string `bson:"tags" json:"tags"`
}

type ProfileMaterial struct {
	ExpertiseAreas []string `bson:"expertise_areas" json:"expertise_areas"`
	ToneKeywords   []string `bson:"tone_keywords" json:"tone_keywords"`
	BrandMessage   string   `bson:"brand_message" json:"brand_message"`
}

// Validate enforces the tagged-union shape: the variant for sourceType is
// present and carries every required section. A response that fails here is
// an analysis failure, never partially accepted.
func (r *AnalysisResult) Validate(sourceType SourceType) error {
	if r == nil {
		return fmt.Errorf("analysis result is missing")
	}
	switch sourceType {
	case SourceSocial:
		return r.Social.validate()
	case SourceBlog:
		return r.Blog.validate()
	default:
		return fmt.Errorf("unknown source type: %s", sourceType)
	}
}

func (s *SocialAnalysis) validate() error {
	if s == nil {
		return fmt.Errorf("response has no social analysis")
	}
	if len(s.ContentCategories) == 0 {
		return fmt.Errorf("response is missing content_categories")
	}
	if s.ToneAnalysis == nil {
		return fmt.Errorf("response is missing tone_analysis")
	}
	if s.HashtagStrategy == nil {
		return fmt.Errorf("response is missing hashtag_strategy")
	}
	if s.PostingCadence == "" {
		return fmt.Errorf("response is missing posting_cadence")
	}
	if s.Summary == "" {
		return fmt.Errorf("response is missing summary")
	}
	return nil
}

func (b *BlogAnalysis) validate() error {
	if b == nil {
		return fmt.Errorf("response has no blog analysis")
	}
	if b.ContentStrengths == nil {
		return fmt.Errorf("response is missing content_strengths")
	}
	if len(b.ReusableSuggestions) == 0 {
		return fmt.Errorf("response is missing reusable_suggestions")
	}
	if b.ProfileMaterial == nil {
		return fmt.Errorf("response is missing profile_material")
	}
	if b.Summary == "" {
		return fmt.Errorf("response is missing summary")
	}
	return nil
}
