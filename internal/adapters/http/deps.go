package http

import (
	"context"

	"github.com/nats-io/nats.go"

	"github.com/samirrijal/placemap/internal/core/usecases"
)

// Pinger is a backing service that can report its reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Dependencies holds all services needed by HTTP handlers.
// NATS, DB and Cache are optional; nil means not configured.
type Dependencies struct {
	Places *usecases.PlaceService
	Users  *usecases.UserService
	Auth   *usecases.AuthService
	NATS   *nats.Conn
	DB     Pinger
	Cache  Pinger
}
