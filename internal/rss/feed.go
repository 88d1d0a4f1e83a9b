// Package rss 抓取并解析 YouTube 频道的 Atom 订阅源。
package rss

import (
	"net/url"
	"strings"
	"time"
)

// Entry 订阅源中的一个视频条目，每次轮询重新构造，不做持久化。
type Entry struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Link      string    `json:"link"`
	Author    string    `json:"author"`
	Published time.Time `json:"published"`
	Thumbnail string    `json:"thumbnail,omitempty"`
}

// FeedURL 根据频道 ID 构造订阅源地址。
func FeedURL(base, channelID string) string {
	return strings.TrimRight(base, "/") + "/feeds/videos.xml?channel_id=" + url.QueryEscape(channelID)
}
