package interactions

import (
	"fmt"

	"github.com/bwmarrin/discordgo"

	"github.com/DoyleJ11/rps-bot/internal/engine"
	"github.com/DoyleJ11/rps-bot/internal/hub"
)

// User-facing text. None of it carries internal ids or error details.
const (
	msgWildMessage        = "A wild message appeared"
	msgPong               = "Pong!"
	msgUnknownCommand     = "Unknown command"
	msgUnrecognizedAction = "Unrecognized action."
	msgInvalidChoice      = "Invalid choice. Please choose rock, paper, or scissors."
	msgMissingUser        = "Please pick a user to challenge."
	msgChallengeSelf      = "You can't challenge yourself."
	msgChallengeBot       = "Bots don't play rock paper scissors."
	msgNoActor            = "Could not tell who sent this. Please try again."
	msgAcceptOwn          = "You can't accept your own challenge."
	msgNotYourChallenge   = "This challenge is for someone else."
	msgWithdrawNotOwner   = "Only the challenger can withdraw this challenge."
	msgWithdrawn          = "Challenge withdrawn."
	msgPickMove           = "What is your object of choice?"
	msgPlaceholder        = "Choose your move"
	msgSessionGone        = "This challenge is no longer available."
	msgDuplicateSession   = "That challenge already exists."
	msgUnknownParty       = "You're not part of this game."
	msgSelfPlay           = "You can't play against yourself."
	msgAlreadyChosen      = "You already made your choice."
	msgInternal           = "Something went wrong. Please try again."
)

// originalMessage addresses the interaction's own reply in webhook edits.
const originalMessage = "@original"

func msgUndeliverable(userID string) string {
	return "Couldn't deliver the challenge to " + mention(userID) + ". They may have DMs disabled."
}

func message(content string) *discordgo.InteractionResponse {
	return &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Content: content},
	}
}

// ephemeral replies only to the user who triggered the interaction.
func ephemeral(content string, components ...discordgo.MessageComponent) *discordgo.InteractionResponse {
	return &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content:    content,
			Components: components,
			Flags:      discordgo.MessageFlagsEphemeral,
		},
	}
}

// updateMessage rewrites the message the component was attached to and drops its components.
func updateMessage(content string) *discordgo.InteractionResponse {
	return &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseUpdateMessage,
		Data: &discordgo.InteractionResponseData{
			Content:    content,
			Components: []discordgo.MessageComponent{},
		},
	}
}

func mention(userID string) string {
	return "<@" + userID + ">"
}

func challengeButtons(sessionID string) discordgo.MessageComponent {
	return discordgo.ActionsRow{
		Components: []discordgo.MessageComponent{
			discordgo.Button{
				Label:    "Accept",
				Style:    discordgo.PrimaryButton,
				CustomID: ComponentID{Kind: ComponentAccept, SessionID: sessionID}.String(),
			},
			discordgo.Button{
				Label:    "Withdraw",
				Style:    discordgo.SecondaryButton,
				CustomID: ComponentID{Kind: ComponentCancel, SessionID: sessionID}.String(),
			},
		},
	}
}

func choiceMenu(sessionID string) discordgo.MessageComponent {
	choices := engine.ShuffledChoices()
	options := make([]discordgo.SelectMenuOption, 0, len(choices))
	for _, c := range choices {
		options = append(options, discordgo.SelectMenuOption{Label: c.Label(), Value: string(c)})
	}

	return discordgo.ActionsRow{
		Components: []discordgo.MessageComponent{
			discordgo.SelectMenu{
				MenuType:    discordgo.StringSelectMenu,
				CustomID:    ComponentID{Kind: ComponentSelect, SessionID: sessionID}.String(),
				Placeholder: msgPlaceholder,
				Options:     options,
			},
		},
	}
}

func resultMessage(s hub.Session, outcome engine.Outcome) string {
	summary := fmt.Sprintf("%s chose %s, %s chose %s.",
		mention(s.ChallengerID), s.ChallengerChoice,
		mention(s.ChallengedID), s.ChallengedChoice)

	switch outcome {
	case engine.FirstWins:
		return summary + " " + mention(s.ChallengerID) + " wins!"
	case engine.SecondWins:
		return summary + " " + mention(s.ChallengedID) + " wins!"
	default:
		return summary + " It's a tie!"
	}
}
