// Package discord 封装 discordgo 会话：登录、就绪信号、频道解析和 embed 发送。
package discord

import (
	"errors"
	"fmt"
	"sync"

	"github.com/bwmarrin/discordgo"
	"github.com/iabetor/ytwatch/internal/logger"
)

// ErrChannelNotFound 频道在缓存和 REST 接口中都不存在或不可访问。
var ErrChannelNotFound = errors.New("discord 频道不存在")

// Client 机器人客户端。
type Client struct {
	session *discordgo.Session
	ready   chan struct{}
	once    sync.Once
}

// New 使用 bot token 创建客户端，此时尚未连接。
func New(token string) (*Client, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("创建 discord 会话失败: %w", err)
	}
	session.Identify.Intents = discordgo.IntentsGuilds

	c := &Client{
		session: session,
		ready:   make(chan struct{}),
	}
	session.AddHandler(c.onReady)
	return c, nil
}

// onReady 在每次 READY 事件时调用，只有第一次会关闭 ready。
func (c *Client) onReady(_ *discordgo.Session, r *discordgo.Ready) {
	if r.User != nil {
		logger.Infof("[discord] 已登录为 %s (ID: %s)", r.User.String(), r.User.ID)
	}
	c.once.Do(func() { close(c.ready) })
}

// Open 建立网关连接并完成鉴权。
func (c *Client) Open() error {
	if err := c.session.Open(); err != nil {
		return fmt.Errorf("连接 discord 失败: %w", err)
	}
	return nil
}

// Ready 返回一个只关闭一次的通道，客户端就绪后关闭。
func (c *Client) Ready() <-chan struct{} {
	return c.ready
}

// ResolveChannel 先查本地缓存，再走 REST 接口。
func (c *Client) ResolveChannel(channelID string) (*discordgo.Channel, error) {
	if ch, err := c.session.State.Channel(channelID); err == nil && ch != nil {
		return ch, nil
	}
	ch, err := c.session.Channel(channelID)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrChannelNotFound, channelID, err)
	}
	return ch, nil
}

// SendEmbed 向频道发送一条 embed 消息。
func (c *Client) SendEmbed(channelID string, embed *discordgo.MessageEmbed) error {
	if _, err := c.session.ChannelMessageSendEmbed(channelID, embed); err != nil {
		return fmt.Errorf("发送消息失败: %w", err)
	}
	return nil
}

// Close 断开网关连接。
func (c *Client) Close() error {
	return c.session.Close()
}
