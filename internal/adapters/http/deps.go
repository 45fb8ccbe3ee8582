package http

import (
	"github.com/nats-io/nats.go"

	"github.com/jcroft/spots/internal/adapters/postgres"
	"github.com/jcroft/spots/internal/adapters/valkey"
	"github.com/jcroft/spots/internal/core/usecases"
)

// Dependencies holds all services needed by HTTP handlers.
type Dependencies struct {
	Spots     *usecases.SpotService
	Cities    *usecases.CityService
	Proximity *usecases.ProximityService
	NATS      *nats.Conn
	DB        *postgres.DB
	Cache     *valkey.Cache
}
