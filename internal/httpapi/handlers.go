package httpapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

const maxInteractionBytes = 1 << 20

// InteractionHandler is satisfied by *interactions.Router.
type InteractionHandler interface {
	Handle(ctx context.Context, i *discordgo.Interaction) *discordgo.InteractionResponse
}

func Interactions(h InteractionHandler, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxInteractionBytes))
		if err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}

		var i discordgo.Interaction
		if err := json.Unmarshal(body, &i); err != nil {
			log.Warn("unparseable interaction", zap.Error(err))
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}

		resp := h.Handle(r.Context(), &i)

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			log.Error("write interaction response", zap.String("interaction_id", i.ID), zap.Error(err))
		}
	}
}

func Root(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, "RPS bot is running! Use Discord to interact with the bot.")
}

func Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}
