package analyzer

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"postpilot/llm"
	"postpilot/models"
)

const BLOG_SYSTEM_INSTRUCTION = `
You are a content strategist analyzing a competitor's blog.
You will receive extracted article texts. Analyze them and respond with a
single raw JSON object with exactly these top-level keys:

1. content_strengths: an object with keys:
   - topics: the topics the blog covers well (one phrase)
   - unique_value: what differentiates this blog (one phrase)
   - target_audience: who the blog is written for
   - style: the writing style in one phrase
2. reusable_suggestions: a list where each entry maps one original article to
   a reusable social post idea, with keys:
   - original_title: the article title
   - original_url: the article URL
   - suggested_post_type: short name for the post format (e.g. "how-to carousel")
   - outline: a 2-4 sentence outline for the derived post
   - tags: 3-6 hashtags for the derived post
   Produce one entry per article, up to 10 entries.
3. profile_material: an object with keys:
   - expertise_areas: 3-6 expertise areas demonstrated by the blog
   - tone_keywords: 3-6 adjectives describing the voice
   - brand_message: the blog's core message in one sentence
4. summary: a free-text summary of the blog's content strategy,
   at most 600 characters.

Constraints:
- The response MUST be only the raw JSON object, no markdown code fence.
- Every key listed above is required. Do not add other top-level keys.
`

type blogAnalyzer struct {
	client llm.Client
}

func (b *blogAnalyzer) Analyze(ctx context.Context, a *models.Analysis) (*models.AnalysisResult, error) {
	if err := a.RawData.Validate(models.SourceBlog); err != nil {
		return nil, fmt.Errorf("blog analysis input: %w", err)
	}

	prompt := buildBlogPrompt(a.RawData.Blog, a.SourceDisplayName)
	raw, err := b.client.GenerateJSON(ctx, BLOG_SYSTEM_INSTRUCTION, prompt)
	if err != nil {
		return nil, err
	}

	var parsed models.BlogAnalysis
	if err := json.Unmarshal([]byte(stripCodeFence(raw)), &parsed); err != nil {
		return nil, fmt.Errorf("blog analysis response is not valid JSON: %v", err)
	}
	result := &models.AnalysisResult{Blog: &parsed}
	if err := result.Validate(models.SourceBlog); err != nil {
		return nil, fmt.Errorf("blog analysis: %w", err)
	}
	return result, nil
}

func buildBlogPrompt(raw *models.BlogRawData, displayName string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Competitor blog: %s\n", displayName)
	fmt.Fprintf(&b, "Discovered via: %s, articles analyzed: %d of %d found\n",
		raw.Strategy, len(raw.Posts), raw.TotalFound)

	for i, post := range raw.Posts {
		fmt.Fprintf(&b, "\n--- article %d ---\ntitle: %s\nurl: %s\n", i+1, post.Title, post.URL)
		fmt.Fprintf(&b, "text: %s\n", truncate(post.Content, 4000))
	}

	return b.String()
}
