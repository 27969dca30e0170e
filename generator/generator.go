// Package generator turns a completed analysis into reusable
// content-generation configuration: a persona profile plus post-type
// templates, persisted as a single replaceable draft.
package generator

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"postpilot/llm"
	"postpilot/logger"
	"postpilot/models"
)

// ConfigStore is the slice of the generated-config repository the stage
// needs. ReplaceDraft must guarantee at most one draft per analysis.
type ConfigStore interface {
	ReplaceDraft(ctx context.Context, cfg *models.GeneratedConfig) (primitive.ObjectID, error)
}

// ErrNotReady is returned when generation is requested before the analysis
// has completed.
var ErrNotReady = fmt.Errorf("analysis is not completed yet")

type Stage struct {
	client      llm.Client
	configs     ConfigStore
	maxHashtags int
	timeout     time.Duration
}

func New(client llm.Client, configs ConfigStore, maxHashtags int, timeout time.Duration) *Stage {
	if maxHashtags <= 0 {
		maxHashtags = 4
	}
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &Stage{client: client, configs: configs, maxHashtags: maxHashtags, timeout: timeout}
}

// Output is the combined generation result plus the persisted draft id.
type Output struct {
	ConfigID  primitive.ObjectID        `json:"config_id"`
	Profile   models.PersonaProfile     `json:"profile"`
	PostTypes []models.PostTypeTemplate `json:"post_types"`
}

// Generate runs persona and post-type generation concurrently over the
// record's analysis result, then atomically replaces the draft for this
// analysis. Either generator failing fails the whole call; nothing is
// written in that case.
func (s *Stage) Generate(ctx context.Context, record *models.Analysis, displayName string) (*Output, error) {
	if record.Status != models.StatusCompleted {
		return nil, ErrNotReady
	}
	if err := record.AnalysisResult.Validate(record.SourceType); err != nil {
		return nil, fmt.Errorf("generation failed: %w", err)
	}
	if displayName == "" {
		displayName = record.SourceDisplayName
	}

	insight, err := marshalInsight(record)
	if err != nil {
		return nil, fmt.Errorf("generation failed: %w", err)
	}

	// Both LLM calls run under one bounded deadline so a hung provider
	// cannot pin the request.
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	type profileOutcome struct {
		profile *models.PersonaProfile
		err     error
	}
	type postTypesOutcome struct {
		postTypes []models.PostTypeTemplate
		err       error
	}

	profileCh := make(chan profileOutcome, 1)
	postTypesCh := make(chan postTypesOutcome, 1)

	go func() {
		p, err := s.generateProfile(ctx, insight, displayName)
		profileCh <- profileOutcome{profile: p, err: err}
	}()
	go func() {
		pt, err := s.generatePostTypes(ctx, insight, displayName)
		postTypesCh <- postTypesOutcome{postTypes: pt, err: err}
	}()

	profileRes := <-profileCh
	postTypesRes := <-postTypesCh

	if profileRes.err != nil {
		return nil, fmt.Errorf("generation failed: profile: %w", profileRes.err)
	}
	if postTypesRes.err != nil {
		return nil, fmt.Errorf("generation failed: post types: %w", postTypesRes.err)
	}

	profile := *profileRes.profile
	// Deterministic prefix truncation, never resampling.
	if len(profile.RequiredHashtags) > s.maxHashtags {
		profile.RequiredHashtags = profile.RequiredHashtags[:s.maxHashtags]
	}

	cfg := &models.GeneratedConfig{
		UserID:     record.UserID,
		AnalysisID: record.ID,
		Config: models.GenerationPayload{
			Profile:   profile,
			PostTypes: postTypesRes.postTypes,
		},
	}
	configID, err := s.configs.ReplaceDraft(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("generation failed: saving draft: %w", err)
	}

	logger.Log.Infof("generation completed analysis=%s config=%s post_types=%d",
		record.ID.Hex(), configID.Hex(), len(postTypesRes.postTypes))
	return &Output{
		ConfigID:  configID,
		Profile:   profile,
		PostTypes: postTypesRes.postTypes,
	}, nil
}

// marshalInsight renders the source-specific analysis variant as JSON for
// embedding into the generation prompts.
func marshalInsight(record *models.Analysis) (string, error) {
	var v any
	switch record.SourceType {
	case models.SourceSocial:
		v = record.AnalysisResult.Social
	case models.SourceBlog:
		v = record.AnalysisResult.Blog
	default:
		return "", fmt.Errorf("unknown source type: %s", record.SourceType)
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (s *Stage) generateProfile(ctx context.Context, insight, displayName string) (*models.PersonaProfile, error) {
	prompt := fmt.Sprintf("Competitor display name: %s\n\nAnalysis insight:\n%s\n", displayName, insight)
	raw, err := s.client.GenerateJSON(ctx, PROFILE_SYSTEM_INSTRUCTION, prompt)
	if err != nil {
		return nil, err
	}
	var profile models.PersonaProfile
	if err := json.Unmarshal([]byte(raw), &profile); err != nil {
		return nil, fmt.Errorf("profile response is not valid JSON: %v", err)
	}
	if profile.Name == "" || profile.Tone == "" {
		return nil, fmt.Errorf("profile response is missing required fields")
	}
	return &profile, nil
}

func (s *Stage) generatePostTypes(ctx context.Context, insight, displayName string) ([]models.PostTypeTemplate, error) {
	prompt := fmt.Sprintf("Competitor display name: %s\n\nAnalysis insight:\n%s\n", displayName, insight)
	raw, err := s.client.GenerateJSON(ctx, POST_TYPES_SYSTEM_INSTRUCTION, prompt)
	if err != nil {
		return nil, err
	}
	var parsed struct {
		PostTypes []models.PostTypeTemplate `json:"post_types"`
	}
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return nil, fmt.Errorf("post types response is not valid JSON: %v", err)
	}
	if len(parsed.PostTypes) == 0 {
		return nil, fmt.Errorf("post types response is missing post_types")
	}
	for i, pt := range parsed.PostTypes {
		if pt.Name == "" || pt.PromptTemplate == "" {
			return nil, fmt.Errorf("post type %d is missing required fields", i+1)
		}
	}
	return parsed.PostTypes, nil
}
