package rss

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
	ext "github.com/mmcdole/gofeed/extensions"
)

const (
	userAgent     = "ytwatch/1.0 Feed Reader"
	videoIDPrefix = "yt:video:"
)

var (
	// ErrNoEntries 订阅源解析成功但没有任何条目。
	ErrNoEntries = errors.New("订阅源没有条目")
	// ErrMissingID 最新条目缺少视频 ID。
	ErrMissingID = errors.New("条目缺少视频 ID")
)

// Fetcher 抓取单个订阅源。
type Fetcher struct {
	url    string
	parser *gofeed.Parser
	client *http.Client
}

// NewFetcher 创建订阅源抓取器。timeout 为 0 表示不设超时。
func NewFetcher(feedURL string, timeout time.Duration) *Fetcher {
	return &Fetcher{
		url:    feedURL,
		parser: gofeed.NewParser(),
		client: &http.Client{Timeout: timeout},
	}
}

// URL 返回订阅源地址。
func (f *Fetcher) URL() string {
	return f.url
}

// Latest 返回订阅源中最新的条目（第一条）。
func (f *Fetcher) Latest(ctx context.Context) (*Entry, error) {
	entries, err := f.Entries(ctx)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, ErrNoEntries
	}
	latest := entries[0]
	if latest.ID == "" {
		return nil, fmt.Errorf("%w: %s", ErrMissingID, latest.Link)
	}
	return &latest, nil
}

// Entries 抓取并解析订阅源，按订阅源原有顺序（最新在前）返回条目。
func (f *Fetcher) Entries(ctx context.Context) ([]Entry, error) {
	feed, err := f.parseFeed(ctx)
	if err != nil {
		return nil, err
	}
	return convertItems(feed), nil
}

// parseFeed 请求订阅源地址并解析。
func (f *Fetcher) parseFeed(ctx context.Context) (*gofeed.Feed, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("请求订阅源失败: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("请求订阅源失败: HTTP %d", resp.StatusCode)
	}

	feed, err := f.parser.Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("解析订阅源失败: %w", err)
	}
	return feed, nil
}

// convertItems 将 gofeed 条目转换为 Entry。
func convertItems(feed *gofeed.Feed) []Entry {
	entries := make([]Entry, 0, len(feed.Items))
	for _, item := range feed.Items {
		if item == nil {
			continue
		}

		var published time.Time
		if item.PublishedParsed != nil {
			published = *item.PublishedParsed
		} else if item.UpdatedParsed != nil {
			published = *item.UpdatedParsed
		}

		entries = append(entries, Entry{
			ID:        videoID(item),
			Title:     strings.TrimSpace(item.Title),
			Link:      item.Link,
			Author:    authorName(item, feed),
			Published: published,
			Thumbnail: thumbnailURL(item),
		})
	}
	return entries
}

// videoID 优先取 <yt:videoId>，没有时退回 Atom <id> 并去掉 "yt:video:" 前缀。
func videoID(item *gofeed.Item) string {
	if v := extensionValue(item.Extensions, "yt", "videoId"); v != "" {
		return v
	}
	return strings.TrimPrefix(strings.TrimSpace(item.GUID), videoIDPrefix)
}

func authorName(item *gofeed.Item, feed *gofeed.Feed) string {
	for _, p := range item.Authors {
		if p != nil && p.Name != "" {
			return p.Name
		}
	}
	for _, p := range feed.Authors {
		if p != nil && p.Name != "" {
			return p.Name
		}
	}
	return feed.Title
}

// thumbnailURL 返回第一张缩略图。YouTube 将其放在 <media:group><media:thumbnail> 中。
func thumbnailURL(item *gofeed.Item) string {
	media := item.Extensions["media"]
	for _, group := range media["group"] {
		for _, thumb := range group.Children["thumbnail"] {
			if u := thumb.Attrs["url"]; u != "" {
				return u
			}
		}
	}
	for _, thumb := range media["thumbnail"] {
		if u := thumb.Attrs["url"]; u != "" {
			return u
		}
	}
	if item.Image != nil {
		return item.Image.URL
	}
	return ""
}

func extensionValue(exts ext.Extensions, prefix, name string) string {
	for _, e := range exts[prefix][name] {
		if v := strings.TrimSpace(e.Value); v != "" {
			return v
		}
	}
	return ""
}
