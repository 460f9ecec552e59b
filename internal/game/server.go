package game

import (
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"example.com/ms-mvp/internal/auth"
	"example.com/ms-mvp/internal/metrics"
)

type Config struct {
	// HostGracePeriod keeps a waiting room alive after its host drops.
	HostGracePeriod time.Duration
	// RoomIdleTTL is how long a room with nobody connected survives the sweeper.
	RoomIdleTTL time.Duration
}

// TokenIssuer mints reconnect tokens for fresh player ids. auth.Service
// implements both this and auth.Verifier.
type TokenIssuer interface {
	Issue(playerID, displayName string) (string, error)
}

type Server struct {
	cfg      Config
	log      zerolog.Logger
	rooms    *Registry
	verifier auth.Verifier
	issuer   TokenIssuer
	mets     *metrics.Metrics
}

func NewServer(cfg Config, log zerolog.Logger, rooms *Registry, verifier auth.Verifier, issuer TokenIssuer, mets *metrics.Metrics) *Server {
	return &Server{
		cfg:      cfg,
		log:      log,
		rooms:    rooms,
		verifier: verifier,
		issuer:   issuer,
		mets:     mets,
	}
}

func (s *Server) RegisterRoutes(r chi.Router) {
	r.Get("/ws", s.handleWS)
}
