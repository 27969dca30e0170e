package crawler

import (
	"fmt"
	"strings"

	"github.com/advancedlogic/GoOse/pkg/goose"
	"github.com/go-shiori/go-readability"
	"github.com/markusmobius/go-trafilatura"
	"golang.org/x/net/html"
)

// ExtractedArticle is the readable slice of one fetched page.
type ExtractedArticle struct {
	Title string
	Text  string
}

// ExtractArticle pulls the primary readable content out of raw HTML,
// discarding navigation and boilerplate. Readability is the main extractor;
// trafilatura and goose are fallbacks for layouts it cannot handle.
func ExtractArticle(htmlStr string) (*ExtractedArticle, error) {
	if a, err := extractWithReadability(htmlStr); err == nil && strings.TrimSpace(a.Text) != "" {
		return a, nil
	}
	if a, err := extractWithTrafilatura(htmlStr); err == nil && strings.TrimSpace(a.Text) != "" {
		return a, nil
	}
	if a, err := extractWithGoose(htmlStr); err == nil && strings.TrimSpace(a.Text) != "" {
		return a, nil
	}
	return nil, fmt.Errorf("no readable content found")
}

func extractWithReadability(htmlStr string) (*ExtractedArticle, error) {
	doc, err := html.Parse(strings.NewReader(htmlStr))
	if err != nil {
		return nil, err
	}
	article, err := readability.FromDocument(doc, nil)
	if err != nil {
		return nil, err
	}
	return &ExtractedArticle{
		Title: article.Title,
		Text:  article.TextContent,
	}, nil
}

func extractWithTrafilatura(htmlStr string) (*ExtractedArticle, error) {
	article, err := trafilatura.Extract(strings.NewReader(htmlStr), trafilatura.Options{})
	if err != nil {
		return nil, err
	}
	return &ExtractedArticle{
		Title: article.Metadata.Title,
		Text:  article.ContentText,
	}, nil
}

func extractWithGoose(htmlStr string) (*ExtractedArticle, error) {
	g := goose.New()
	article, err := g.ExtractFromRawHTML(htmlStr, "")
	if err != nil {
		return nil, err
	}
	return &ExtractedArticle{
		Title: article.Title,
		Text:  article.CleanedText,
	}, nil
}
