package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/DoyleJ11/rps-bot/internal/commands"
	"github.com/DoyleJ11/rps-bot/internal/discord"
)

func registerCmd() *cobra.Command {
	var guildID string
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Install the bot's slash commands and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			if guildID == "" {
				guildID = cfg.GuildID
			}
			session, err := discord.NewSession(cfg.BotToken)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()
			created, err := commands.Register(ctx, session, cfg.AppID, guildID)
			if err != nil {
				return err
			}

			for _, c := range created {
				log.Info("registered command", zap.String("name", c.Name), zap.String("id", c.ID))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "registered %d commands\n", len(created))
			return nil
		},
	}
	cmd.Flags().StringVar(&guildID, "guild", "", "register in one guild instead of globally (defaults to GUILD_ID)")
	return cmd
}
