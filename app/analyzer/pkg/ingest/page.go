package ingest

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-shiori/go-readability"
)

// Page 网页正文
type Page struct {
	Title string
	Text  string
}

// FetchPage 抓取网页并提取正文，用于分析贴在网页上的对话记录
func FetchPage(url string, timeout time.Duration) (Page, error) {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	article, err := readability.FromURL(url, timeout)
	if err != nil {
		return Page{}, fmt.Errorf("fetch %s: %w", url, err)
	}
	text := strings.TrimSpace(article.TextContent)
	if text == "" {
		return Page{}, fmt.Errorf("fetch %s: page has no readable text", url)
	}
	return Page{Title: article.Title, Text: text}, nil
}
