package crawler

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"postpilot/config"
)

func testConfig() config.CrawlerConfig {
	return config.CrawlerConfig{
		Workers:               2,
		RequestTimeoutSeconds: 5,
		BudgetSeconds:         30,
		MaxArticles:           25,
	}
}

func articleHTML(title string) string {
	para := strings.Repeat("This paragraph carries enough prose to satisfy the readability extractor and look like a real article body. ", 8)
	return fmt.Sprintf(`<!DOCTYPE html><html><head><title>%s</title></head>
<body><nav><a href="/about">About</a></nav>
<article><h1>%s</h1><p>%s</p><p>%s</p></article></body></html>`, title, title, para, para)
}

func newBlogServer(t *testing.T, articleCount, brokenCount int) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()

	var locs []string
	for i := 1; i <= articleCount+brokenCount; i++ {
		locs = append(locs, fmt.Sprintf("<url><loc>BASE/posts/entry-%d</loc></url>", i))
	}
	mux.HandleFunc("/sitemap.xml", func(w http.ResponseWriter, r *http.Request) {
		base := "http://" + r.Host
		body := `<?xml version="1.0"?><urlset>` + strings.ReplaceAll(strings.Join(locs, ""), "BASE", base) + `</urlset>`
		w.Header().Set("Content-Type", "application/xml")
		fmt.Fprint(w, body)
	})
	for i := 1; i <= articleCount; i++ {
		i := i
		mux.HandleFunc(fmt.Sprintf("/posts/entry-%d", i), func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, articleHTML(fmt.Sprintf("Entry %d", i)))
		})
	}
	for i := articleCount + 1; i <= articleCount+brokenCount; i++ {
		mux.HandleFunc(fmt.Sprintf("/posts/entry-%d", i), func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "gone", http.StatusInternalServerError)
		})
	}
	return httptest.NewServer(mux)
}

func TestDiscoverViaSitemap(t *testing.T) {
	srv := newBlogServer(t, 3, 0)
	defer srv.Close()

	c := New(testConfig(), nil)
	res, err := c.Discover(context.Background(), srv.URL, "")

	require.NoError(t, err)
	assert.Equal(t, StrategySitemap, res.Strategy)
	assert.Len(t, res.URLs, 3)
}

func TestDiscoverReportsUncappedTotal(t *testing.T) {
	// 8 candidates with a cap of 5: the crawl list is capped but the
	// archive size is still reported in full.
	srv := newBlogServer(t, 8, 0)
	defer srv.Close()

	cfg := testConfig()
	cfg.MaxArticles = 5

	c := New(cfg, nil)
	res, err := c.Discover(context.Background(), srv.URL, "")

	require.NoError(t, err)
	assert.Len(t, res.URLs, 5)
	assert.Equal(t, 8, res.TotalFound)
}

func TestDiscoverViaSitemapIndex(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/sitemap.xml", func(w http.ResponseWriter, r *http.Request) {
		base := "http://" + r.Host
		fmt.Fprintf(w, `<?xml version="1.0"?><sitemapindex><sitemap><loc>%s/post-sitemap.xml</loc></sitemap></sitemapindex>`, base)
	})
	mux.HandleFunc("/post-sitemap.xml", func(w http.ResponseWriter, r *http.Request) {
		base := "http://" + r.Host
		fmt.Fprintf(w, `<?xml version="1.0"?><urlset><url><loc>%s/posts/a</loc></url><url><loc>%s/posts/b</loc></url></urlset>`, base, base)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := New(testConfig(), nil)
	res, err := c.Discover(context.Background(), srv.URL, "")

	require.NoError(t, err)
	assert.Equal(t, StrategySitemap, res.Strategy)
	assert.Len(t, res.URLs, 2)
}

func TestDiscoverViaFeedFallback(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/feed", func(w http.ResponseWriter, r *http.Request) {
		base := "http://" + r.Host
		w.Header().Set("Content-Type", "application/rss+xml")
		fmt.Fprintf(w, `<?xml version="1.0"?><rss version="2.0"><channel><title>Blog</title>
<item><title>A</title><link>%s/posts/a</link></item>
<item><title>B</title><link>%s/posts/b</link></item>
</channel></rss>`, base, base)
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := New(testConfig(), nil)
	res, err := c.Discover(context.Background(), srv.URL, "")

	require.NoError(t, err)
	assert.Equal(t, StrategyFeed, res.Strategy)
	assert.Len(t, res.URLs, 2)
}

func TestDiscoverViaPaginatedIndex(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, `<html><body>
<a href="/blog/how-we-scaled-search">How we scaled search</a>
<a href="/blog/why-we-left-the-monolith">Why we left the monolith</a>
<a href="/about">About</a>
<a href="/tag/go">Go posts</a>
</body></html>`)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := New(testConfig(), nil)
	res, err := c.Discover(context.Background(), srv.URL, "")

	require.NoError(t, err)
	assert.Equal(t, StrategyPaginated, res.Strategy)
	require.Len(t, res.URLs, 2)
	for _, u := range res.URLs {
		assert.Contains(t, u, "/blog/")
	}
}

func TestDiscoverExplicitHintSkipsOtherStrategies(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/custom-map.xml", func(w http.ResponseWriter, r *http.Request) {
		base := "http://" + r.Host
		fmt.Fprintf(w, `<?xml version="1.0"?><urlset><url><loc>%s/posts/only</loc></url></urlset>`, base)
	})
	mux.HandleFunc("/sitemap.xml", func(w http.ResponseWriter, r *http.Request) {
		t.Error("default sitemap should not be probed when the hint succeeds")
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := New(testConfig(), nil)
	res, err := c.Discover(context.Background(), srv.URL, srv.URL+"/custom-map.xml")

	require.NoError(t, err)
	assert.Equal(t, StrategyExplicit, res.Strategy)
	assert.Len(t, res.URLs, 1)
}

func TestCrawlPartialSuccess(t *testing.T) {
	// 10 discovered, 7 extractable: still a success with 3 accumulated errors.
	srv := newBlogServer(t, 7, 3)
	defer srv.Close()

	c := New(testConfig(), nil)
	res, err := c.Crawl(context.Background(), srv.URL, "")

	require.NoError(t, err)
	assert.False(t, res.Failed())
	assert.Equal(t, 10, res.TotalFound)
	assert.Len(t, res.Posts, 7)
	assert.Len(t, res.Errors, 3)
	for _, p := range res.Posts {
		assert.NotEmpty(t, p.Content)
		assert.Greater(t, p.WordCount, 0)
	}
}

func TestCrawlBudgetExpiryKeepsPartialResults(t *testing.T) {
	// 2 fast articles, 4 that outlive the 1s budget: the fast ones are
	// kept and the budget overrun is reported as an error.
	mux := http.NewServeMux()
	mux.HandleFunc("/sitemap.xml", func(w http.ResponseWriter, r *http.Request) {
		base := "http://" + r.Host
		var locs []string
		for i := 1; i <= 6; i++ {
			locs = append(locs, fmt.Sprintf("<url><loc>%s/posts/entry-%d</loc></url>", base, i))
		}
		w.Header().Set("Content-Type", "application/xml")
		fmt.Fprint(w, `<?xml version="1.0"?><urlset>`+strings.Join(locs, "")+`</urlset>`)
	})
	for i := 1; i <= 2; i++ {
		i := i
		mux.HandleFunc(fmt.Sprintf("/posts/entry-%d", i), func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, articleHTML(fmt.Sprintf("Entry %d", i)))
		})
	}
	for i := 3; i <= 6; i++ {
		i := i
		mux.HandleFunc(fmt.Sprintf("/posts/entry-%d", i), func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-time.After(10 * time.Second):
			case <-r.Context().Done():
				return
			}
			fmt.Fprint(w, articleHTML(fmt.Sprintf("Entry %d", i)))
		})
	}
	srv := httptest.NewServer(mux)
	defer srv.Close()

	cfg := testConfig()
	cfg.BudgetSeconds = 1

	c := New(cfg, nil)
	res, err := c.Crawl(context.Background(), srv.URL, "")

	require.NoError(t, err)
	assert.Equal(t, 6, res.TotalFound)
	assert.NotEmpty(t, res.Posts)
	assert.Less(t, len(res.Posts), 6)

	var budgetReported bool
	for _, e := range res.Errors {
		if strings.Contains(e, "budget") {
			budgetReported = true
		}
	}
	assert.True(t, budgetReported, "expected a budget-exceeded error, got %v", res.Errors)
}

func TestCrawlZeroArticlesIsFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	c := New(testConfig(), nil)
	res, err := c.Crawl(context.Background(), srv.URL, "")

	require.NoError(t, err)
	assert.True(t, res.Failed())
	assert.Empty(t, res.Posts)
	assert.NotEmpty(t, res.Errors)
}

func TestExtractArticleDiscardsBoilerplate(t *testing.T) {
	article, err := ExtractArticle(articleHTML("Boilerplate Check"))

	require.NoError(t, err)
	assert.Contains(t, article.Text, "readability extractor")
}

func TestExtractArticleEmptyPage(t *testing.T) {
	_, err := ExtractArticle(`<html><body></body></html>`)
	assert.Error(t, err)
}

func TestLooksLikeArticle(t *testing.T) {
	assert.True(t, looksLikeArticle("/posts/some-entry"))
	assert.True(t, looksLikeArticle("/blog/how-we-scaled-search"))
	assert.True(t, looksLikeArticle("/2026/05/a-dated-permalink"))
	assert.True(t, looksLikeArticle("/how-we-scaled-our-search"))
	assert.False(t, looksLikeArticle("/"))
	assert.False(t, looksLikeArticle("/about"))
	assert.False(t, looksLikeArticle("/tag/go"))
	assert.False(t, looksLikeArticle("/page/2"))
}
