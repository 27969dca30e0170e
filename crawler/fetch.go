package crawler

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"postpilot/logger"
	"postpilot/models"
)

// CrawlResult is the adapter output. Zero extracted posts is the only
// condition that constitutes failure; per-URL problems accumulate in Errors.
type CrawlResult struct {
	Posts      []models.BlogPostData
	Errors     []string
	TotalFound int
	Strategy   string
}

// Failed reports whether the crawl produced nothing usable.
func (r *CrawlResult) Failed() bool {
	return len(r.Posts) == 0
}

// Crawl runs discovery then fetch+extract over the candidates. The whole
// operation is bounded by the global budget: when it expires, in-flight and
// unstarted fetches are abandoned but already-extracted articles are kept.
func (c *Crawler) Crawl(ctx context.Context, baseURL, hintURL string) (*CrawlResult, error) {
	budgetCtx, cancel := context.WithTimeout(ctx, c.budget)
	defer cancel()

	discovery, err := c.Discover(budgetCtx, baseURL, hintURL)
	if err != nil {
		return &CrawlResult{Errors: []string{err.Error()}}, nil
	}

	result := &CrawlResult{
		TotalFound: discovery.TotalFound,
		Strategy:   discovery.Strategy,
	}

	type fetchOutcome struct {
		post *models.BlogPostData
		err  error
	}

	jobs := make(chan string)
	outcomes := make(chan fetchOutcome)

	var wg sync.WaitGroup
	for i := 0; i < c.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for u := range jobs {
				post, err := c.fetchArticle(budgetCtx, u)
				select {
				case outcomes <- fetchOutcome{post: post, err: err}:
				case <-budgetCtx.Done():
					return
				}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, u := range discovery.URLs {
			select {
			case jobs <- u:
			case <-budgetCtx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(outcomes)
	}()

	for outcome := range outcomes {
		if outcome.err != nil {
			result.Errors = append(result.Errors, outcome.err.Error())
			continue
		}
		result.Posts = append(result.Posts, *outcome.post)
	}

	if budgetCtx.Err() != nil {
		result.Errors = append(result.Errors,
			fmt.Sprintf("crawl budget of %s exceeded, %d of %d articles kept", c.budget, len(result.Posts), result.TotalFound))
	}
	if result.Failed() && len(result.Errors) == 0 {
		result.Errors = append(result.Errors, "no articles could be extracted")
	}

	logger.Log.Infof("crawl finished base=%s strategy=%s found=%d extracted=%d errors=%d",
		baseURL, result.Strategy, result.TotalFound, len(result.Posts), len(result.Errors))
	return result, nil
}

// fetchArticle fetches one URL and extracts its readable content. When the
// plain fetch yields nothing readable and a renderer is configured, the page
// is rendered once and extraction retried.
func (c *Crawler) fetchArticle(ctx context.Context, pageURL string) (*models.BlogPostData, error) {
	body, err := c.get(ctx, pageURL)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %v", pageURL, err)
	}

	article, err := ExtractArticle(string(body))
	if err != nil && c.renderer != nil {
		if rendered, rerr := c.renderer.RenderHTML(pageURL); rerr == nil {
			article, err = ExtractArticle(rendered)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("extract %s: %v", pageURL, err)
	}

	text := strings.TrimSpace(article.Text)
	return &models.BlogPostData{
		URL:       pageURL,
		Title:     article.Title,
		Content:   text,
		WordCount: len(strings.Fields(text)),
		FetchedAt: time.Now(),
	}, nil
}
