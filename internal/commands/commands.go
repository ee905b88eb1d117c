// Package commands declares the slash commands the bot answers and registers
// them with Discord.
package commands

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"

	"github.com/DoyleJ11/rps-bot/internal/engine"
)

type Name string

const (
	Test          Name = "test"
	Ping          Name = "ping"
	Challenge     Name = "challenge"
	ChallengeUser Name = "challenge_user"
	Invite        Name = "invite"
	Emoji         Name = "emoji"
)

// Option names.
const (
	OptionObject = "object"
	OptionUser   = "user"
)

var names = []Name{Test, Ping, Challenge, ChallengeUser, Invite, Emoji}

// Parse maps a command name from an interaction to a known Name.
func Parse(name string) (Name, bool) {
	for _, n := range names {
		if string(n) == name {
			return n, true
		}
	}
	return "", false
}

func Definitions() []*discordgo.ApplicationCommand {
	objectChoices := make([]*discordgo.ApplicationCommandOptionChoice, 0, len(engine.Choices))
	for _, c := range engine.Choices {
		objectChoices = append(objectChoices, &discordgo.ApplicationCommandOptionChoice{
			Name:  c.Label(),
			Value: string(c),
		})
	}

	return []*discordgo.ApplicationCommand{
		{
			Name:        string(Test),
			Description: "Just your average command",
			Type:        discordgo.ChatApplicationCommand,
		},
		{
			Name:        string(Ping),
			Description: "Responds with Pong!",
			Type:        discordgo.ChatApplicationCommand,
		},
		{
			Name:        string(Challenge),
			Description: "Challenge someone to a game of rock paper scissors",
			Type:        discordgo.ChatApplicationCommand,
			Options: []*discordgo.ApplicationCommandOption{
				{
					Name:        OptionObject,
					Description: "Your object choice",
					Type:        discordgo.ApplicationCommandOptionString,
					Required:    true,
					Choices:     objectChoices,
				},
			},
		},
		{
			Name:        string(ChallengeUser),
			Description: "Challenge a user to a game of rock paper scissors",
			Type:        discordgo.ChatApplicationCommand,
			Options: []*discordgo.ApplicationCommandOption{
				{
					Name:        OptionUser,
					Description: "The user you want to challenge",
					Type:        discordgo.ApplicationCommandOptionUser,
					Required:    true,
				},
			},
		},
		{
			Name:        string(Invite),
			Description: "Get the invite link for the bot",
			Type:        discordgo.ChatApplicationCommand,
		},
		{
			Name:        string(Emoji),
			Description: "Get a random emoji",
			Type:        discordgo.ChatApplicationCommand,
		},
	}
}

// Registrar is the part of *discordgo.Session used to install commands.
type Registrar interface {
	ApplicationCommandBulkOverwrite(appID string, guildID string, commands []*discordgo.ApplicationCommand, options ...discordgo.RequestOption) ([]*discordgo.ApplicationCommand, error)
}

// Register replaces the application's commands with Definitions. An empty
// guildID installs them globally.
func Register(ctx context.Context, r Registrar, appID, guildID string) ([]*discordgo.ApplicationCommand, error) {
	if appID == "" {
		return nil, fmt.Errorf("register commands: missing application id")
	}
	created, err := r.ApplicationCommandBulkOverwrite(appID, guildID, Definitions(), discordgo.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("register commands: %w", err)
	}
	return created, nil
}
