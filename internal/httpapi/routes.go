package httpapi

import (
	"crypto/ed25519"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

type Deps struct {
	Interactions InteractionHandler
	PublicKey    ed25519.PublicKey
	Log          *zap.Logger
}

func SetupRoutes(d Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(d.Log))
	r.Use(middleware.Recoverer)

	// Public routes
	r.Get("/", Root)
	r.Get("/healthz", Healthz)

	// Discord signs every interaction; nothing unsigned reaches the router.
	r.With(VerifySignature(d.PublicKey)).Post("/interactions", Interactions(d.Interactions, d.Log))
	return r
}
