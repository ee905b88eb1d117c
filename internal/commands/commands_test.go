package commands

import (
	"context"
	"errors"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRegistrar struct {
	appID    string
	guildID  string
	commands []*discordgo.ApplicationCommand
	err      error
}

func (f *fakeRegistrar) ApplicationCommandBulkOverwrite(appID string, guildID string, cmds []*discordgo.ApplicationCommand, _ ...discordgo.RequestOption) ([]*discordgo.ApplicationCommand, error) {
	f.appID, f.guildID, f.commands = appID, guildID, cmds
	if f.err != nil {
		return nil, f.err
	}
	return cmds, nil
}

func TestParse(t *testing.T) {
	cases := []struct {
		in     string
		want   Name
		wantOK bool
	}{
		{in: "test", want: Test, wantOK: true},
		{in: "ping", want: Ping, wantOK: true},
		{in: "challenge", want: Challenge, wantOK: true},
		{in: "challenge_user", want: ChallengeUser, wantOK: true},
		{in: "invite", want: Invite, wantOK: true},
		{in: "emoji", want: Emoji, wantOK: true},
		{in: "Challenge", wantOK: false},
		{in: "dance", wantOK: false},
	}

	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			got, ok := Parse(tc.in)
			assert.Equal(t, tc.wantOK, ok)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestDefinitions_CoverEveryName(t *testing.T) {
	defs := Definitions()
	require.Len(t, defs, len(names))
	for _, def := range defs {
		_, ok := Parse(def.Name)
		assert.True(t, ok, "definition %q has no Name", def.Name)
	}
}

func TestDefinitions_ChallengeOptions(t *testing.T) {
	var challenge, challengeUser *discordgo.ApplicationCommand
	for _, def := range Definitions() {
		switch def.Name {
		case string(Challenge):
			challenge = def
		case string(ChallengeUser):
			challengeUser = def
		}
	}
	require.NotNil(t, challenge)
	require.NotNil(t, challengeUser)

	require.Len(t, challenge.Options, 1)
	opt := challenge.Options[0]
	assert.Equal(t, OptionObject, opt.Name)
	assert.True(t, opt.Required)
	assert.Equal(t, discordgo.ApplicationCommandOptionString, opt.Type)
	values := []any{}
	for _, c := range opt.Choices {
		values = append(values, c.Value)
	}
	assert.Equal(t, []any{"rock", "paper", "scissors"}, values)

	require.Len(t, challengeUser.Options, 1)
	assert.Equal(t, discordgo.ApplicationCommandOptionUser, challengeUser.Options[0].Type)
}

func TestRegister(t *testing.T) {
	f := &fakeRegistrar{}
	created, err := Register(context.Background(), f, "app-1", "guild-1")
	require.NoError(t, err)
	assert.Equal(t, "app-1", f.appID)
	assert.Equal(t, "guild-1", f.guildID)
	assert.Len(t, created, len(names))
}

func TestRegister_Errors(t *testing.T) {
	_, err := Register(context.Background(), &fakeRegistrar{}, "", "")
	assert.Error(t, err)

	boom := errors.New("boom")
	_, err = Register(context.Background(), &fakeRegistrar{err: boom}, "app-1", "")
	assert.ErrorIs(t, err, boom)
}
