// Package gateway handles events that arrive over the Discord gateway
// websocket rather than the interactions endpoint.
package gateway

import (
	"strings"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

const pingTrigger = "!ping"

// Replier is the part of *discordgo.Session used to answer a message.
type Replier interface {
	ChannelMessageSendReply(channelID string, content string, reference *discordgo.MessageReference, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

type PingResponder struct {
	log *zap.Logger
}

func NewPingResponder(log *zap.Logger) *PingResponder {
	return &PingResponder{log: log.Named("gateway")}
}

// OnMessageCreate answers "!ping" with "Pong!". selfID is the bot's own user id.
func (p *PingResponder) OnMessageCreate(r Replier, selfID string, m *discordgo.MessageCreate) {
	if m == nil || m.Message == nil || m.Author == nil {
		return
	}
	if m.Author.ID == selfID || m.Author.Bot {
		return
	}
	if strings.TrimSpace(m.Content) != pingTrigger {
		return
	}

	if _, err := r.ChannelMessageSendReply(m.ChannelID, "Pong!", m.Reference()); err != nil {
		p.log.Warn("reply to !ping", zap.String("channel_id", m.ChannelID), zap.Error(err))
	}
}

// Handler adapts OnMessageCreate to discordgo's AddHandler signature.
func (p *PingResponder) Handler() func(*discordgo.Session, *discordgo.MessageCreate) {
	return func(s *discordgo.Session, m *discordgo.MessageCreate) {
		selfID := ""
		if s.State != nil && s.State.User != nil {
			selfID = s.State.User.ID
		}
		p.OnMessageCreate(s, selfID, m)
	}
}

// Intents needed to see message content in guilds and DMs.
const Intents = discordgo.IntentsGuildMessages | discordgo.IntentsDirectMessages | discordgo.IntentsMessageContent
