// Package interactions turns Discord interactions into responses: it routes
// slash commands and component actions, keeps challenge sessions in the hub,
// and resolves a game once both players have chosen.
package interactions

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"github.com/DoyleJ11/rps-bot/internal/commands"
	"github.com/DoyleJ11/rps-bot/internal/discord"
	"github.com/DoyleJ11/rps-bot/internal/engine"
	"github.com/DoyleJ11/rps-bot/internal/hub"
)

var (
	ErrMissingOption = errors.New("missing command option")
	ErrMissingActor  = errors.New("interaction has no user")
)

// SessionStore is satisfied by *hub.Hub.
type SessionStore interface {
	Create(ctx context.Context, id, challengerID, challengedID string) error
	Get(ctx context.Context, id string) (hub.Session, error)
	SetChoice(ctx context.Context, id, partyID string, choice engine.Choice) (hub.Session, bool, error)
	Remove(ctx context.Context, id string) error
	Withdraw(ctx context.Context, id, partyID string) error
}

// Notifier sends follow-up requests outside the interaction response.
// Satisfied by *discord.Client.
type Notifier interface {
	EditMessage(ctx context.Context, token, messageID, content string) error
	DeleteMessage(ctx context.Context, token, messageID string) error
	SendDirect(ctx context.Context, userID string, msg *discordgo.MessageSend) error
}

type Config struct {
	AppID             string
	InvitePermissions string
	FollowUpTimeout   time.Duration
}

type Router struct {
	store     SessionStore
	notifier  Notifier
	log       *zap.Logger
	cfg       Config
	followUps sync.WaitGroup
}

func NewRouter(store SessionStore, notifier Notifier, log *zap.Logger, cfg Config) *Router {
	if cfg.FollowUpTimeout <= 0 {
		cfg.FollowUpTimeout = 10 * time.Second
	}
	if cfg.InvitePermissions == "" {
		cfg.InvitePermissions = "2048"
	}
	return &Router{
		store:    store,
		notifier: notifier,
		log:      log.Named("interactions"),
		cfg:      cfg,
	}
}

// Handle always produces a response. Failures are reported to the user as a
// short message and logged; nothing propagates to the caller.
func (r *Router) Handle(ctx context.Context, i *discordgo.Interaction) (resp *discordgo.InteractionResponse) {
	if i == nil {
		return ephemeral(msgUnrecognizedAction)
	}
	defer func() {
		if p := recover(); p != nil {
			r.log.Error("interaction handler panicked", zap.String("interaction_id", i.ID), zap.Any("panic", p))
			resp = ephemeral(msgInternal)
		}
	}()

	switch i.Type {
	case discordgo.InteractionPing:
		return &discordgo.InteractionResponse{Type: discordgo.InteractionResponsePong}
	case discordgo.InteractionApplicationCommand:
		return r.handleCommand(ctx, i)
	case discordgo.InteractionMessageComponent:
		return r.handleComponent(ctx, i)
	default:
		r.log.Debug("unhandled interaction type", zap.Stringer("type", i.Type))
		return ephemeral(msgUnrecognizedAction)
	}
}

// Wait blocks until every follow-up request started so far has finished.
func (r *Router) Wait() {
	r.followUps.Wait()
}

func (r *Router) handleCommand(ctx context.Context, i *discordgo.Interaction) *discordgo.InteractionResponse {
	data, ok := i.Data.(discordgo.ApplicationCommandInteractionData)
	if !ok {
		return message(msgUnknownCommand)
	}

	name, ok := commands.Parse(data.Name)
	if !ok {
		r.log.Debug("unknown command", zap.String("command", data.Name))
		return message(msgUnknownCommand)
	}

	switch name {
	case commands.Test:
		return message(msgWildMessage)
	case commands.Ping:
		return message(msgPong)
	case commands.Challenge:
		return r.challenge(ctx, i, data)
	case commands.ChallengeUser:
		return r.challengeUser(ctx, i, data)
	case commands.Invite:
		return message("You can invite the bot using this link: " + r.inviteURL())
	case commands.Emoji:
		return message("Here is a random emoji: " + randomEmoji())
	}
	return message(msgUnknownCommand)
}

func (r *Router) handleComponent(ctx context.Context, i *discordgo.Interaction) *discordgo.InteractionResponse {
	data, ok := i.Data.(discordgo.MessageComponentInteractionData)
	if !ok {
		return ephemeral(msgUnrecognizedAction)
	}

	id, err := ParseComponentID(data.CustomID)
	if err != nil {
		r.log.Debug("unrecognized component", zap.String("custom_id", data.CustomID))
		return ephemeral(msgUnrecognizedAction)
	}

	switch id.Kind {
	case ComponentAccept:
		return r.accept(ctx, i, id.SessionID)
	case ComponentSelect:
		return r.selectChoice(ctx, i, id.SessionID, data.Values)
	case ComponentCancel:
		return r.withdraw(ctx, i, id.SessionID)
	}
	return ephemeral(msgUnrecognizedAction)
}

// challenge opens a game anyone can accept. The challenger's move is taken
// from the command option up front.
func (r *Router) challenge(ctx context.Context, i *discordgo.Interaction, data discordgo.ApplicationCommandInteractionData) *discordgo.InteractionResponse {
	challenger, err := actorID(i)
	if err != nil {
		return ephemeral(msgNoActor)
	}

	raw, err := optionValue(data.Options, commands.OptionObject)
	if err != nil {
		return ephemeral(msgInvalidChoice)
	}
	choice, err := engine.ParseChoice(raw)
	if err != nil {
		return ephemeral(msgInvalidChoice)
	}

	if err := r.store.Create(ctx, i.ID, challenger, ""); err != nil {
		return r.storeFailure(i, err)
	}
	if _, _, err := r.store.SetChoice(ctx, i.ID, challenger, choice); err != nil {
		_ = r.store.Remove(ctx, i.ID)
		return r.storeFailure(i, err)
	}

	r.log.Info("challenge opened", zap.String("session_id", i.ID), zap.String("challenger_id", challenger))
	return &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content:    "Rock paper scissors challenge from " + mention(challenger),
			Components: []discordgo.MessageComponent{challengeButtons(i.ID)},
		},
	}
}

// challengeUser targets one user. Both players pick from a menu: the
// challenger in the ephemeral reply, the target in a direct message.
func (r *Router) challengeUser(ctx context.Context, i *discordgo.Interaction, data discordgo.ApplicationCommandInteractionData) *discordgo.InteractionResponse {
	challenger, err := actorID(i)
	if err != nil {
		return ephemeral(msgNoActor)
	}

	target, err := optionValue(data.Options, commands.OptionUser)
	if err != nil {
		return ephemeral(msgMissingUser)
	}
	if target == challenger {
		return ephemeral(msgChallengeSelf)
	}
	if data.Resolved != nil {
		if u := data.Resolved.Users[target]; u != nil && u.Bot {
			return ephemeral(msgChallengeBot)
		}
	}

	if err := r.store.Create(ctx, i.ID, challenger, target); err != nil {
		return r.storeFailure(i, err)
	}

	sessionID, token := i.ID, i.Token
	dm := &discordgo.MessageSend{
		Content:    fmt.Sprintf("You have been challenged to a game of Rock, Paper, Scissors by %s! Please choose your move:", mention(challenger)),
		Components: []discordgo.MessageComponent{choiceMenu(sessionID)},
	}
	r.followUp(ctx, "send challenge dm", []zap.Field{zap.String("session_id", sessionID), zap.String("user_id", target)},
		func(ctx context.Context) error {
			if err := r.notifier.SendDirect(ctx, target, dm); err != nil {
				// The target can never answer, so the game is dead.
				_ = r.store.Remove(ctx, sessionID)
				if editErr := r.notifier.EditMessage(ctx, token, originalMessage, msgUndeliverable(target)); editErr != nil {
					r.log.Warn("tell challenger dm failed", zap.String("session_id", sessionID), zap.Error(editErr))
				}
				return err
			}
			return nil
		})

	r.log.Info("user challenged", zap.String("session_id", sessionID),
		zap.String("challenger_id", challenger), zap.String("challenged_id", target))
	return ephemeral(fmt.Sprintf("Challenge sent to %s! Pick your move:", mention(target)), choiceMenu(sessionID))
}

func (r *Router) accept(ctx context.Context, i *discordgo.Interaction, sessionID string) *discordgo.InteractionResponse {
	actor, err := actorID(i)
	if err != nil {
		return ephemeral(msgNoActor)
	}

	s, err := r.store.Get(ctx, sessionID)
	if err != nil {
		return r.storeFailure(i, err)
	}
	if actor == s.ChallengerID {
		return ephemeral(msgAcceptOwn)
	}
	if s.Targeted && actor != s.ChallengedID {
		return ephemeral(msgNotYourChallenge)
	}

	if i.Message != nil {
		token, messageID := i.Token, i.Message.ID
		r.followUp(ctx, "delete challenge message", []zap.Field{zap.String("session_id", sessionID), zap.String("message_id", messageID)},
			func(ctx context.Context) error {
				return r.notifier.DeleteMessage(ctx, token, messageID)
			})
	}

	return ephemeral(msgPickMove, choiceMenu(sessionID))
}

func (r *Router) selectChoice(ctx context.Context, i *discordgo.Interaction, sessionID string, values []string) *discordgo.InteractionResponse {
	actor, err := actorID(i)
	if err != nil {
		return ephemeral(msgNoActor)
	}
	if len(values) == 0 {
		return ephemeral(msgInvalidChoice)
	}
	choice, err := engine.ParseChoice(values[0])
	if err != nil {
		return ephemeral(msgInvalidChoice)
	}

	s, resolved, err := r.store.SetChoice(ctx, sessionID, actor, choice)
	if err != nil {
		return r.storeFailure(i, err)
	}
	if !resolved {
		return updateMessage(fmt.Sprintf("Your choice has been recorded. Waiting for %s.", mention(s.Opponent(actor))))
	}

	outcome, err := engine.Evaluate(s.ChallengerChoice, s.ChallengedChoice)
	if err != nil {
		r.log.Error("evaluate resolved session", zap.String("session_id", sessionID), zap.Error(err))
		return ephemeral(msgInternal)
	}
	result := resultMessage(s, outcome)
	r.log.Info("game resolved", zap.String("session_id", sessionID), zap.Stringer("outcome", outcome),
		zap.String("challenger_id", s.ChallengerID), zap.String("challenged_id", s.ChallengedID))

	if i.Message != nil && i.Message.Flags&discordgo.MessageFlagsEphemeral != 0 {
		token, messageID := i.Token, i.Message.ID
		r.followUp(ctx, "edit choice menu", []zap.Field{zap.String("session_id", sessionID), zap.String("message_id", messageID)},
			func(ctx context.Context) error {
				return r.notifier.EditMessage(ctx, token, messageID, "Nice choice "+randomEmoji())
			})
	}
	if s.Targeted {
		other := s.Opponent(actor)
		r.followUp(ctx, "send result dm", []zap.Field{zap.String("session_id", sessionID), zap.String("user_id", other)},
			func(ctx context.Context) error {
				return r.notifier.SendDirect(ctx, other, &discordgo.MessageSend{Content: result})
			})
	}

	return message(result)
}

func (r *Router) withdraw(ctx context.Context, i *discordgo.Interaction, sessionID string) *discordgo.InteractionResponse {
	actor, err := actorID(i)
	if err != nil {
		return ephemeral(msgNoActor)
	}

	// Owner check and removal happen in one hub step.
	if err := r.store.Withdraw(ctx, sessionID, actor); err != nil {
		if errors.Is(err, hub.ErrUnknownParty) {
			return ephemeral(msgWithdrawNotOwner)
		}
		return r.storeFailure(i, err)
	}

	r.log.Info("challenge withdrawn", zap.String("session_id", sessionID))
	return updateMessage(msgWithdrawn)
}

// storeFailure converts a session store error into a user-facing reply.
func (r *Router) storeFailure(i *discordgo.Interaction, err error) *discordgo.InteractionResponse {
	switch {
	case errors.Is(err, hub.ErrSessionNotFound):
		return ephemeral(msgSessionGone)
	case errors.Is(err, hub.ErrDuplicateSession):
		return ephemeral(msgDuplicateSession)
	case errors.Is(err, hub.ErrUnknownParty):
		return ephemeral(msgUnknownParty)
	case errors.Is(err, hub.ErrSelfChallenge):
		return ephemeral(msgSelfPlay)
	case errors.Is(err, hub.ErrChoiceAlreadyMade):
		return ephemeral(msgAlreadyChosen)
	case errors.Is(err, engine.ErrInvalidChoice):
		return ephemeral(msgInvalidChoice)
	default:
		r.log.Error("session store failure", zap.String("interaction_id", i.ID), zap.Error(err))
		return ephemeral(msgInternal)
	}
}

// followUp runs fn in the background, detached from the request's
// cancellation but bounded by FollowUpTimeout. Failures are logged, never returned.
func (r *Router) followUp(ctx context.Context, op string, fields []zap.Field, fn func(ctx context.Context) error) {
	r.followUps.Add(1)
	go func() {
		defer r.followUps.Done()
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.cfg.FollowUpTimeout)
		defer cancel()

		if err := fn(ctx); err != nil {
			fields = append(fields, zap.String("op", op), zap.Error(err))
			var ue *discord.UpstreamError
			if errors.As(err, &ue) && ue.Status != 0 {
				fields = append(fields, zap.Int("status", ue.Status))
			}
			r.log.Warn("follow-up request failed", fields...)
		}
	}()
}

func (r *Router) inviteURL() string {
	q := url.Values{}
	q.Set("client_id", r.cfg.AppID)
	q.Set("permissions", r.cfg.InvitePermissions)
	q.Set("scope", "bot applications.commands")
	return "https://discord.com/api/oauth2/authorize?" + q.Encode()
}

// actorID is the user behind the interaction: Member.User inside a guild,
// User in a direct message.
func actorID(i *discordgo.Interaction) (string, error) {
	if i.Member != nil && i.Member.User != nil && i.Member.User.ID != "" {
		return i.Member.User.ID, nil
	}
	if i.User != nil && i.User.ID != "" {
		return i.User.ID, nil
	}
	return "", ErrMissingActor
}

func optionValue(opts []*discordgo.ApplicationCommandInteractionDataOption, name string) (string, error) {
	for _, o := range opts {
		if o == nil || o.Name != name {
			continue
		}
		v, ok := o.Value.(string)
		if !ok || v == "" {
			break
		}
		return v, nil
	}
	return "", fmt.Errorf("%w: %s", ErrMissingOption, name)
}
