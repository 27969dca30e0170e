// Package crawler discovers a blog's article index and extracts readable
// article text, bounded by a fixed worker count and a global time budget.
package crawler

import (
	"crypto/tls"
	"net/http"
	"time"

	"postpilot/config"
)

// Renderer produces fully rendered HTML for client-rendered pages. Wired to
// the chromedp renderer in production; nil disables the fallback.
type Renderer interface {
	RenderHTML(url string) (string, error)
}

type Crawler struct {
	httpClient     *http.Client
	renderer       Renderer
	workers        int
	requestTimeout time.Duration
	budget         time.Duration
	maxArticles    int
}

// New builds a crawler from config. renderer may be nil.
func New(cfg config.CrawlerConfig, renderer Renderer) *Crawler {
	httpClient := &http.Client{
		Timeout: time.Duration(cfg.RequestTimeoutSeconds) * time.Second,
		Transport: &http.Transport{
			// some company blogs serve broken certificate chains
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		},
	}
	if !cfg.EnableRendering {
		renderer = nil
	}
	return &Crawler{
		httpClient:     httpClient,
		renderer:       renderer,
		workers:        cfg.Workers,
		requestTimeout: time.Duration(cfg.RequestTimeoutSeconds) * time.Second,
		budget:         time.Duration(cfg.BudgetSeconds) * time.Second,
		maxArticles:    cfg.MaxArticles,
	}
}
