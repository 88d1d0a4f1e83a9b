// Package notifier 比较最新条目与已通知状态，有新视频时发送 Discord 通知。
package notifier

import (
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/iabetor/ytwatch/internal/logger"
	"github.com/iabetor/ytwatch/internal/rss"
)

const (
	titlePrefix = "🎬 "
	footerText  = "YouTube Watcher Bot"
	// ColorRed 与 Discord 客户端的 red 调色一致。
	ColorRed = 0xE74C3C
)

var (
	// ErrChannelUnavailable 目标频道无法解析。
	ErrChannelUnavailable = errors.New("通知频道不可用")
	// ErrDispatch 消息发送失败。
	ErrDispatch = errors.New("通知发送失败")
	// ErrPersist 消息已发送但状态写入失败，下次轮询可能重复通知。
	ErrPersist = errors.New("通知状态写入失败")
)

// Messenger 是消息平台客户端需要提供的能力。
type Messenger interface {
	ResolveChannel(channelID string) (*discordgo.Channel, error)
	SendEmbed(channelID string, embed *discordgo.MessageEmbed) error
}

// Store 是已通知状态的读写接口。
type Store interface {
	Load() (string, bool)
	Save(id string) error
}

// Notifier 对单个频道发送新视频通知。
type Notifier struct {
	store     Store
	messenger Messenger
	channelID string
	now       func() time.Time
}

// New 创建通知器。
func New(store Store, messenger Messenger, channelID string) *Notifier {
	return &Notifier{
		store:     store,
		messenger: messenger,
		channelID: channelID,
		now:       time.Now,
	}
}

// Notify 处理一次轮询得到的最新条目。
//
// 条目 ID 与已保存的 ID 相同时什么都不做。否则解析频道、发送 embed，
// 发送成功后才写入状态；频道解析或发送失败时状态保持不变，下次轮询会重试。
// announced 表示消息是否已发出。
func (n *Notifier) Notify(entry *rss.Entry) (announced bool, err error) {
	if last, ok := n.store.Load(); ok && last == entry.ID {
		logger.Debugf("[notifier] 没有新视频 (last=%s)", last)
		return false, nil
	}

	if _, err := n.messenger.ResolveChannel(n.channelID); err != nil {
		return false, fmt.Errorf("%w: %s: %w", ErrChannelUnavailable, n.channelID, err)
	}

	if err := n.messenger.SendEmbed(n.channelID, BuildEmbed(entry, n.now())); err != nil {
		return false, fmt.Errorf("%w: %s: %w", ErrDispatch, entry.ID, err)
	}
	logger.Infof("[notifier] 新视频已通知: %s", entry.Link)

	if err := n.store.Save(entry.ID); err != nil {
		return true, fmt.Errorf("%w: %s: %w", ErrPersist, entry.ID, err)
	}
	return true, nil
}

// BuildEmbed 组装新视频通知。
func BuildEmbed(entry *rss.Entry, now time.Time) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title:       titlePrefix + entry.Title,
		URL:         entry.Link,
		Description: fmt.Sprintf("New video posted by **%s**!", entry.Author),
		Color:       ColorRed,
		Timestamp:   now.UTC().Format(time.RFC3339),
		Footer:      &discordgo.MessageEmbedFooter{Text: footerText},
	}
	if entry.Thumbnail != "" {
		embed.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: entry.Thumbnail}
	}
	return embed
}
