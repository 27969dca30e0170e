package analyzer

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"postpilot/llm"
	"postpilot/models"
)

const SOCIAL_SYSTEM_INSTRUCTION = `
You are a social-media competitive analyst.
You will receive a competitor account profile and a list of its posts with
engagement figures. Analyze them and respond with a single raw JSON object
with exactly these top-level keys:

1. content_categories: an object mapping category names (e.g. "educational",
   "behind_the_scenes", "promotional", "entertainment") to the fraction of
   posts in that category. Fractions are numbers between 0 and 1.
2. tone_analysis: an object with keys:
   - primary_tone: one short phrase (e.g. "warm and practical")
   - formality_score: a number from 0 (casual) to 1 (formal)
   - sentence_style: short description of typical sentence construction
   - first_person_form: how the account refers to itself ("I", "we", brand name)
   - call_to_action_style: how posts ask readers to act
   - sample_phrases: 3-5 short verbatim phrases typical for the account
3. hashtag_strategy: an object with keys:
   - avg_per_post: average number of hashtags per post (number)
   - top_performing: hashtags appearing on the highest-engagement posts
   - recommended: 5-10 hashtags a competitor in this niche should adopt
4. posting_cadence: one phrase describing posting frequency and timing.
5. summary: a free-text summary of the account's content strategy,
   at most 600 characters.
6. key_success_factors: a list of 3-5 short statements on why this account
   performs well.

Constraints:
- The response MUST be only the raw JSON object, no markdown code fence.
- Every key listed above is required. Do not add other top-level keys.
`

type socialAnalyzer struct {
	client llm.Client
}

func (s *socialAnalyzer) Analyze(ctx context.Context, a *models.Analysis) (*models.AnalysisResult, error) {
	if err := a.RawData.Validate(models.SourceSocial); err != nil {
		return nil, fmt.Errorf("social analysis input: %w", err)
	}

	prompt := buildSocialPrompt(a.RawData.Social, a.SourceDisplayName)
	raw, err := s.client.GenerateJSON(ctx, SOCIAL_SYSTEM_INSTRUCTION, prompt)
	if err != nil {
		return nil, err
	}

	var parsed models.SocialAnalysis
	if err := json.Unmarshal([]byte(stripCodeFence(raw)), &parsed); err != nil {
		return nil, fmt.Errorf("social analysis response is not valid JSON: %v", err)
	}
	result := &models.AnalysisResult{Social: &parsed}
	if err := result.Validate(models.SourceSocial); err != nil {
		return nil, fmt.Errorf("social analysis: %w", err)
	}
	return result, nil
}

// buildSocialPrompt embeds the normalized export into a plain-text prompt.
// Item texts are truncated so a large export cannot blow the context window.
func buildSocialPrompt(raw *models.SocialRawData, displayName string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Competitor account: %s\n", displayName)
	if p := raw.Profile; p != nil {
		fmt.Fprintf(&b, "Username: @%s\nName: %s\nBio: %s\nFollowers: %d, Following: %d, Posts: %d\n",
			p.Username, p.FullName, p.Biography, p.Followers, p.Following, p.PostCount)
	}

	fmt.Fprintf(&b, "\nPosts (%d):\n", len(raw.Items))
	for i, item := range raw.Items {
		fmt.Fprintf(&b, "--- post %d ---\n", i+1)
		fmt.Fprintf(&b, "kind: %s\n", item.Kind)
		if !item.PostedAt.IsZero() {
			fmt.Fprintf(&b, "posted_at: %s\n", item.PostedAt.Format("2006-01-02 15:04"))
		}
		fmt.Fprintf(&b, "likes: %d, comments: %d, shares: %d, views: %d\n",
			item.Metrics.Likes, item.Metrics.Comments, item.Metrics.Shares, item.Metrics.Views)
		if len(item.Tags) > 0 {
			fmt.Fprintf(&b, "hashtags: %s\n", strings.Join(item.Tags, " "))
		}
		fmt.Fprintf(&b, "caption: %s\n", truncate(item.Text, 600))
	}

	return b.String()
}
