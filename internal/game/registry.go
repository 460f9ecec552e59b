package game

import (
	"context"
	"crypto/rand"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"example.com/ms-mvp/internal/engine"
	"example.com/ms-mvp/internal/metrics"
)

const (
	roomCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	roomCodeLength   = 6
)

// Registry owns the code -> Room mapping. It is an explicit service object
// handed to the protocol handler, not a package-level singleton.
type Registry struct {
	mu    sync.Mutex
	rooms map[string]*Room

	cfg  Config
	log  zerolog.Logger
	mets *metrics.Metrics
}

func NewRegistry(cfg Config, log zerolog.Logger, mets *metrics.Metrics) *Registry {
	return &Registry{
		rooms: make(map[string]*Room),
		cfg:   cfg,
		log:   log,
		mets:  mets,
	}
}

// Create generates a unique code and stores a waiting room with the host as
// its only player. Codes are regenerated on collision.
func (g *Registry) Create(cfg engine.GameConfig, hostID, hostName string, cc *ClientConn) (*Room, *ProtocolError) {
	if err := cfg.Validate(); err != nil {
		return nil, errBadInput(err.Error())
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	var code string
	for {
		code = randomRoomCode()
		if _, taken := g.rooms[code]; !taken {
			break
		}
	}

	room := newRoom(code, cfg, g.cfg.HostGracePeriod, hostID, hostName, cc)
	room.onEmpty = g.Delete
	g.rooms[code] = room

	g.mets.IncRoomsCreated()
	g.mets.SetRoomsActive(len(g.rooms))
	g.log.Info().Str("room", code).Str("host", hostID).Msg("room created")

	return room, nil
}

func (g *Registry) Get(code string) (*Room, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	room, ok := g.rooms[code]
	return room, ok
}

func (g *Registry) Delete(code string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.rooms[code]; !ok {
		return
	}
	delete(g.rooms, code)
	g.mets.SetRoomsActive(len(g.rooms))
	g.log.Info().Str("room", code).Msg("room deleted")
}

func (g *Registry) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.rooms)
}

// RunSweeper deletes rooms with no connected players once they have been
// idle past RoomIdleTTL. Blocks until ctx is done.
func (g *Registry) RunSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			g.sweep(now)
		}
	}
}

func (g *Registry) sweep(now time.Time) {
	// collect candidates without holding both locks at once
	g.mu.Lock()
	candidates := make([]*Room, 0, len(g.rooms))
	for _, room := range g.rooms {
		candidates = append(candidates, room)
	}
	g.mu.Unlock()

	for _, room := range candidates {
		if room.Expired(now, g.cfg.RoomIdleTTL) {
			g.log.Info().Str("room", room.Code()).Msg("sweeping idle room")
			g.Delete(room.Code())
		}
	}
}

func randomRoomCode() string {
	b := make([]byte, roomCodeLength)
	_, _ = rand.Read(b)
	for i := range b {
		b[i] = roomCodeAlphabet[int(b[i])%len(roomCodeAlphabet)]
	}
	return string(b)
}
