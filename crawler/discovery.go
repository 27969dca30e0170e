package crawler

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/mmcdole/gofeed"
	"golang.org/x/net/html"
)

// Discovery strategy names, reported back to the client.
const (
	StrategyExplicit  = "explicit"
	StrategySitemap   = "sitemap"
	StrategyPaginated = "paginated_index"
	StrategyFeed      = "feed"
)

// DiscoveryResult lists candidate article URLs and which strategy found
// them. TotalFound counts candidates before the max-articles cap, so a
// capped crawl still reports the real size of the archive.
type DiscoveryResult struct {
	URLs       []string
	TotalFound int
	Strategy   string
}

func (c *Crawler) found(urls []string, strategy string) *DiscoveryResult {
	return &DiscoveryResult{URLs: c.cap(urls), TotalFound: len(urls), Strategy: strategy}
}

var sitemapPaths = []string{
	"/sitemap.xml",
	"/sitemap_index.xml",
	"/wp-sitemap.xml",
	"/post-sitemap.xml",
}

var feedPaths = []string{
	"/feed",
	"/rss",
	"/rss.xml",
	"/atom.xml",
	"/index.xml",
}

// Discover enumerates a blog's articles. Strategies are tried in priority
// order; the first one returning any URLs wins. An explicit hint URL is
// tried first and, when it yields results, the rest are skipped.
func (c *Crawler) Discover(ctx context.Context, baseURL, hintURL string) (*DiscoveryResult, error) {
	base, err := url.Parse(strings.TrimSuffix(baseURL, "/"))
	if err != nil || base.Host == "" {
		return nil, fmt.Errorf("invalid base url %q", baseURL)
	}

	if hintURL != "" {
		if urls := c.tryDiscoveryURL(ctx, base, hintURL); len(urls) > 0 {
			return c.found(urls, StrategyExplicit), nil
		}
	}

	for _, p := range sitemapPaths {
		if urls := c.trySitemap(ctx, base.String()+p, 0); len(urls) > 0 {
			return c.found(urls, StrategySitemap), nil
		}
	}

	if urls := c.tryPaginatedIndex(ctx, base); len(urls) > 0 {
		return c.found(urls, StrategyPaginated), nil
	}

	for _, p := range feedPaths {
		if urls := c.tryFeed(ctx, base.String()+p); len(urls) > 0 {
			return c.found(urls, StrategyFeed), nil
		}
	}

	return nil, fmt.Errorf("no discovery strategy found articles for %s", baseURL)
}

// tryDiscoveryURL probes a caller-supplied URL, sniffing whether it is a
// sitemap, a feed or a plain index page.
func (c *Crawler) tryDiscoveryURL(ctx context.Context, base *url.URL, hint string) []string {
	if urls := c.trySitemap(ctx, hint, 0); len(urls) > 0 {
		return c.cap(urls)
	}
	if urls := c.tryFeed(ctx, hint); len(urls) > 0 {
		return c.cap(urls)
	}
	body, err := c.get(ctx, hint)
	if err != nil {
		return nil
	}
	return c.cap(harvestArticleLinks(body, base))
}

// sitemapDoc covers both <urlset> and <sitemapindex> documents.
type sitemapDoc struct {
	XMLName  xml.Name `xml:""`
	URLs     []loc    `xml:"url"`
	Sitemaps []loc    `xml:"sitemap"`
}

type loc struct {
	Loc string `xml:"loc"`
}

// trySitemap fetches a sitemap URL. Sitemap-index documents recurse one
// level into their child sitemaps.
func (c *Crawler) trySitemap(ctx context.Context, sitemapURL string, depth int) []string {
	if depth > 1 {
		return nil
	}
	body, err := c.get(ctx, sitemapURL)
	if err != nil {
		return nil
	}
	var doc sitemapDoc
	if err := xml.Unmarshal(body, &doc); err != nil {
		return nil
	}

	var urls []string
	for _, u := range doc.URLs {
		if v := strings.TrimSpace(u.Loc); v != "" {
			urls = append(urls, v)
		}
	}
	for _, child := range doc.Sitemaps {
		if v := strings.TrimSpace(child.Loc); v != "" {
			urls = append(urls, c.trySitemap(ctx, v, depth+1)...)
		}
	}
	return urls
}

// tryPaginatedIndex harvests article-looking anchors from the base page and
// /page/N continuations until a page stops yielding new links.
func (c *Crawler) tryPaginatedIndex(ctx context.Context, base *url.URL) []string {
	seen := map[string]bool{}
	var urls []string

	for page := 1; page <= 5; page++ {
		pageURL := base.String()
		if page > 1 {
			pageURL = fmt.Sprintf("%s/page/%d", base.String(), page)
		}
		body, err := c.get(ctx, pageURL)
		if err != nil {
			break
		}
		added := 0
		for _, link := range harvestArticleLinks(body, base) {
			if !seen[link] {
				seen[link] = true
				urls = append(urls, link)
				added++
			}
		}
		if added == 0 {
			break
		}
	}
	return urls
}

func (c *Crawler) tryFeed(ctx context.Context, feedURL string) []string {
	fp := gofeed.NewParser()
	fp.Client = c.httpClient

	fetchCtx, cancel := context.WithTimeout(ctx, c.requestTimeout)
	defer cancel()
	feed, err := fp.ParseURLWithContext(feedURL, fetchCtx)
	if err != nil {
		return nil
	}
	var urls []string
	for _, item := range feed.Items {
		if item.Link != "" {
			urls = append(urls, item.Link)
		}
	}
	return urls
}

// harvestArticleLinks walks an HTML document and keeps same-host anchors
// whose paths look like article permalinks rather than navigation.
func harvestArticleLinks(body []byte, base *url.URL) []string {
	doc, err := html.Parse(strings.NewReader(string(body)))
	if err != nil {
		return nil
	}

	seen := map[string]bool{}
	var links []string

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "a" {
			for _, attr := range n.Attr {
				if attr.Key != "href" {
					continue
				}
				ref, err := url.Parse(strings.TrimSpace(attr.Val))
				if err != nil {
					continue
				}
				abs := base.ResolveReference(ref)
				if abs.Host != base.Host {
					continue
				}
				abs.Fragment = ""
				abs.RawQuery = ""
				link := abs.String()
				if looksLikeArticle(abs.Path) && !seen[link] {
					seen[link] = true
					links = append(links, link)
				}
			}
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(doc)

	sort.Strings(links)
	return links
}

// looksLikeArticle filters out navigation targets: article permalinks have
// either a dated path, a /posts|blog|articles prefix with a slug, or a
// multi-segment slug path.
func looksLikeArticle(path string) bool {
	path = strings.Trim(path, "/")
	if path == "" {
		return false
	}
	segments := strings.Split(path, "/")
	last := segments[len(segments)-1]

	switch strings.ToLower(segments[0]) {
	case "tag", "tags", "category", "categories", "author", "page", "about", "contact", "search", "feed", "rss":
		return false
	}
	switch strings.ToLower(segments[0]) {
	case "posts", "post", "blog", "articles", "article", "p":
		return len(segments) >= 2
	}
	// dated permalink, e.g. /2026/05/slug
	if len(segments) >= 3 && len(segments[0]) == 4 && strings.Trim(segments[0], "0123456789") == "" {
		return true
	}
	// long hyphenated slug
	return strings.Count(last, "-") >= 2
}

func (c *Crawler) get(ctx context.Context, rawURL string) ([]byte, error) {
	reqCtx, cancel := context.WithTimeout(ctx, c.requestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GET %s: status %d", rawURL, resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
}

func (c *Crawler) cap(urls []string) []string {
	if c.maxArticles > 0 && len(urls) > c.maxArticles {
		return urls[:c.maxArticles]
	}
	return urls
}

const userAgent = "postpilot-crawler/1.0"
const maxBodyBytes = 4 << 20
