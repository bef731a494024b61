package notifications

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/PatrickWalther/unfollow-watch-go/internal/constants"
)

// Discord notification embed colors
const (
	ColorUnfollower   = 0xD73A49 // GitHub red
	ColorAutoUnfollow = 0xF66A0A // Orange
	ColorTest         = 0x0366D6 // Accent blue
)

var errDiscordNotConnected = errors.New("discord not connected")

// discordSession is the part of *discordgo.Session the provider uses.
type discordSession interface {
	Channel(channelID string, options ...discordgo.RequestOption) (*discordgo.Channel, error)
	ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error)
	Close() error
}

// DiscordProvider posts an embed per notification to one channel.
type DiscordProvider struct {
	botToken  string
	channelID string
	session   discordSession

	newSession func(token string) (discordSession, error)

	mu sync.RWMutex
}

func NewDiscordProvider(botToken, channelID string) *DiscordProvider {
	return &DiscordProvider{
		botToken:  botToken,
		channelID: channelID,
		newSession: func(token string) (discordSession, error) {
			return discordgo.New(token)
		},
	}
}

func (d *DiscordProvider) Name() string {
	return "discord"
}

func (d *DiscordProvider) IsConfigured() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.botToken != "" && d.channelID != ""
}

// Connect creates the REST session and checks the bot can see the channel.
func (d *DiscordProvider) Connect(ctx context.Context) error {
	if !d.IsConfigured() {
		return fmt.Errorf("discord not configured: missing bot token or channel ID")
	}

	d.mu.RLock()
	token, channelID := d.botToken, d.channelID
	d.mu.RUnlock()

	session, err := d.newSession("Bot " + token)
	if err != nil {
		return fmt.Errorf("failed to create Discord session: %w", err)
	}

	if _, err := session.Channel(channelID, discordgo.WithContext(ctx)); err != nil {
		session.Close()
		return fmt.Errorf("cannot access channel (check bot permissions): %w", err)
	}

	d.mu.Lock()
	d.session = session
	d.mu.Unlock()

	slog.Info("Discord notification provider connected", "channelID", channelID)
	return nil
}

func (d *DiscordProvider) Disconnect() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.session != nil {
		if err := d.session.Close(); err != nil {
			return err
		}
		d.session = nil
	}
	return nil
}

func (d *DiscordProvider) Send(ctx context.Context, notification Notification) error {
	d.mu.RLock()
	session := d.session
	channelID := d.channelID
	d.mu.RUnlock()

	if session == nil {
		return errDiscordNotConnected
	}

	_, err := session.ChannelMessageSendEmbed(channelID, buildEmbed(notification, time.Now()), discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("failed to send Discord message: %w", err)
	}

	slog.Debug("Discord notification sent",
		"channel", channelID,
		"type", notification.Type,
		"login", notification.Login,
	)
	return nil
}

func buildEmbed(notification Notification, at time.Time) *discordgo.MessageEmbed {
	color := notification.Color
	if color == 0 {
		switch notification.Type {
		case NotificationTypeUnfollower:
			color = ColorUnfollower
		case NotificationTypeAutoUnfollow:
			color = ColorAutoUnfollow
		default:
			color = ColorTest
		}
	}

	embed := &discordgo.MessageEmbed{
		Title:       notification.Title,
		Description: notification.Message,
		Color:       color,
		Timestamp:   at.Format(time.RFC3339),
		Footer: &discordgo.MessageEmbedFooter{
			Text: constants.AppTitle,
		},
	}

	if notification.Login != "" {
		embed.Author = &discordgo.MessageEmbedAuthor{
			Name: notification.Login,
			URL:  notification.ProfileURL,
		}
	}
	if notification.AvatarURL != "" {
		embed.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: notification.AvatarURL}
	}

	return embed
}
