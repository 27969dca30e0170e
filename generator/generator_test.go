package generator_test

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"postpilot/generator"
	"postpilot/llm"
	"postpilot/models"
	"postpilot/storetest"
)

const profileResponse = `{
  "name": "The Practical Cook",
  "description": "A persona for approachable weeknight cooking content.",
  "tone": "warm and practical",
  "target_audience": "busy home cooks",
  "writing_style": "short imperative sentences",
  "required_hashtags": ["#dinner", "#easyrecipes", "#mealprep", "#weeknight", "#cooking", "#foodie"],
  "sample_phrases": ["actually works", "weeknight win"]
}`

const postTypesResponse = `{
  "post_types": [
    {
      "name": "Recipe walkthrough",
      "description": "Step-by-step single recipe",
      "prompt_template": "Write a step-by-step post about {topic}",
      "structure": "hook / steps / closing tip",
      "sample_output": "One-pan lemon pasta in 20 minutes...",
      "tags": ["#dinner", "#recipe"]
    },
    {
      "name": "Myth-buster",
      "description": "Debunk a cooking myth",
      "prompt_template": "Debunk the myth that {topic}",
      "structure": "myth / truth / takeaway",
      "sample_output": "No, you don't need to rinse pasta...",
      "tags": ["#cookingtips"]
    }
  ]
}`

// routingClient answers the profile or post-type prompt by system
// instruction.
func routingClient(profileBody, postTypesBody string) llm.Client {
	return llm.ClientFunc(func(ctx context.Context, system, prompt string) (string, error) {
		if strings.Contains(system, "persona") {
			return profileBody, nil
		}
		return postTypesBody, nil
	})
}

func completedRecord() *models.Analysis {
	rec := &models.Analysis{
		UserID:            "user-1",
		SourceType:        models.SourceSocial,
		SourceDisplayName: "Rival Kitchen",
		Status:            models.StatusCompleted,
		AnalysisResult: &models.AnalysisResult{Social: &models.SocialAnalysis{
			ContentCategories: map[string]float64{"educational": 1},
			ToneAnalysis:      &models.ToneAnalysis{PrimaryTone: "warm"},
			HashtagStrategy:   &models.HashtagStrategy{AvgPerPost: 2},
			PostingCadence:    "daily",
			Summary:           "ok",
		}},
	}
	return rec
}

func TestGenerate(t *testing.T) {
	configs := storetest.NewConfigStore()
	stage := generator.New(routingClient(profileResponse, postTypesResponse), configs, 4, 0)
	rec := completedRecord()
	rec.ID = primitive.NewObjectID()

	out, err := stage.Generate(context.Background(), rec, "")

	require.NoError(t, err)
	assert.False(t, out.ConfigID.IsZero())
	assert.Equal(t, "The Practical Cook", out.Profile.Name)
	assert.Len(t, out.PostTypes, 2)
	assert.Equal(t, 1, configs.DraftCount(rec.ID))
}

func TestGenerateBoundsLLMCalls(t *testing.T) {
	configs := storetest.NewConfigStore()
	var deadlines atomic.Int32
	client := llm.ClientFunc(func(ctx context.Context, system, prompt string) (string, error) {
		if _, ok := ctx.Deadline(); ok {
			deadlines.Add(1)
		}
		if strings.Contains(system, "persona") {
			return profileResponse, nil
		}
		return postTypesResponse, nil
	})
	stage := generator.New(client, configs, 4, 30*time.Second)
	rec := completedRecord()
	rec.ID = primitive.NewObjectID()

	_, err := stage.Generate(context.Background(), rec, "")

	require.NoError(t, err)
	// Both the profile and the post-type call run under a deadline.
	assert.Equal(t, int32(2), deadlines.Load())
}

func TestGenerateTruncatesRequiredHashtags(t *testing.T) {
	configs := storetest.NewConfigStore()
	stage := generator.New(routingClient(profileResponse, postTypesResponse), configs, 4, 0)
	rec := completedRecord()
	rec.ID = primitive.NewObjectID()

	out, err := stage.Generate(context.Background(), rec, "")

	require.NoError(t, err)
	// 6 proposed, first 4 kept in generation order.
	assert.Equal(t, []string{"#dinner", "#easyrecipes", "#mealprep", "#weeknight"}, out.Profile.RequiredHashtags)
}

func TestGenerateTwiceLeavesOneDraft(t *testing.T) {
	configs := storetest.NewConfigStore()
	stage := generator.New(routingClient(profileResponse, postTypesResponse), configs, 4, 0)
	rec := completedRecord()
	rec.ID = primitive.NewObjectID()

	first, err := stage.Generate(context.Background(), rec, "")
	require.NoError(t, err)
	second, err := stage.Generate(context.Background(), rec, "")
	require.NoError(t, err)

	assert.NotEqual(t, first.ConfigID, second.ConfigID)
	assert.Equal(t, 1, configs.DraftCount(rec.ID))
}

func TestGenerateRejectsNonCompleted(t *testing.T) {
	configs := storetest.NewConfigStore()
	stage := generator.New(routingClient(profileResponse, postTypesResponse), configs, 4, 0)
	rec := completedRecord()
	rec.Status = models.StatusPending
	rec.AnalysisResult = nil
	rec.ID = primitive.NewObjectID()

	_, err := stage.Generate(context.Background(), rec, "")

	require.ErrorIs(t, err, generator.ErrNotReady)
	assert.Equal(t, 0, configs.DraftCount(rec.ID))
}

func TestGenerateFailsAtomically(t *testing.T) {
	// Post-type generation fails: no draft may be written.
	client := llm.ClientFunc(func(ctx context.Context, system, prompt string) (string, error) {
		if strings.Contains(system, "persona") {
			return profileResponse, nil
		}
		return "", fmt.Errorf("upstream unavailable")
	})
	configs := storetest.NewConfigStore()
	stage := generator.New(client, configs, 4, 0)
	rec := completedRecord()
	rec.ID = primitive.NewObjectID()

	_, err := stage.Generate(context.Background(), rec, "")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "generation failed")
	assert.Equal(t, 0, configs.DraftCount(rec.ID))
}

func TestGenerateFailsOnInvalidProfileSchema(t *testing.T) {
	configs := storetest.NewConfigStore()
	stage := generator.New(routingClient(`{"description": "missing name and tone"}`, postTypesResponse), configs, 4, 0)
	rec := completedRecord()
	rec.ID = primitive.NewObjectID()

	_, err := stage.Generate(context.Background(), rec, "")

	require.Error(t, err)
	assert.Equal(t, 0, configs.DraftCount(rec.ID))
}
