package notify

import (
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/x-xyz/auctionproxy/base/ctx"
	"github.com/x-xyz/auctionproxy/base/log"
)

const (
	colorOk   = 0x2ecc71
	colorFail = 0xe74c3c
)

type DiscordConfig struct {
	BotToken  string
	ChannelId string
}

type embedSender interface {
	ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed) (*discordgo.Message, error)
}

type discordNotifier struct {
	channelId string
	session   embedSender
	fallback  Notifier
}

// NewDiscord posts reports to a channel and also logs them.
func NewDiscord(cfg DiscordConfig) (Notifier, error) {
	session, err := discordgo.New(fmt.Sprintf("Bot %s", cfg.BotToken))
	if err != nil {
		return nil, err
	}
	return &discordNotifier{channelId: cfg.ChannelId, session: session, fallback: NewLog()}, nil
}

func (n *discordNotifier) Notify(c ctx.Ctx, r Report) {
	n.fallback.Notify(c, r)

	if _, err := n.session.ChannelMessageSendEmbed(n.channelId, toEmbed(r)); err != nil {
		c.WithFields(log.Fields{"err": err, "channelId": n.channelId}).Warn("discord notify failed")
	}
}

func toEmbed(r Report) *discordgo.MessageEmbed {
	fields := []*discordgo.MessageEmbedField{
		{Name: "Chain", Value: fmt.Sprint(r.ChainId), Inline: true},
		{Name: "Version", Value: orDash(r.Version), Inline: true},
		{Name: "Proxy", Value: orDash(r.ProxyAddress.String())},
		{Name: "Implementation", Value: orDash(r.Implementation.String())},
	}
	if r.Feed != nil {
		fields = append(fields, &discordgo.MessageEmbedField{Name: "Price feed", Value: r.Feed.String()})
	}

	embed := &discordgo.MessageEmbed{
		Title:     fmt.Sprintf("NftAuction %s", r.Action),
		Color:     colorOk,
		Fields:    fields,
		Timestamp: r.At.UTC().Format("2006-01-02T15:04:05Z07:00"),
	}
	if r.Err != nil {
		embed.Color = colorFail
		embed.Description = r.Err.Error()
	}
	return embed
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
