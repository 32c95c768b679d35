// Package api exposes the listing core over HTTP. It is a thin
// adapter: every operation it serves is one of the core operations, and
// every failure it reports comes from the core's error taxonomy.
package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"kejani/asset"
	"kejani/identity"
	"kejani/listing"
	"kejani/metrics"
)

// RouterDeps bundles everything the router needs.
type RouterDeps struct {
	Log       *slog.Logger
	Identity  *identity.Service
	Sessions  *identity.Sessions
	Listings  *listing.Service
	Assets    asset.Store
	Collector *metrics.Collector
	FeedLimit int
}

// NewRouter wires all endpoints and middleware.
func NewRouter(deps RouterDeps) http.Handler {
	authH := NewAuthHandler(deps.Identity, deps.Sessions)
	listH := NewListingHandler(deps.Listings, deps.Sessions, deps.Assets, deps.Collector, deps.FeedLimit)

	r := chi.NewRouter()
	r.Use(recoverer(deps.Log))
	r.Use(requestLogger(deps.Log))

	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", authH.Register)
		r.Post("/login", authH.SignIn)
		r.Post("/logout", authH.SignOut)
		r.Get("/me", authH.Me)
	})

	r.Get("/listings", listH.PublicFeed)
	r.Get("/listings/{id}", listH.GetByID)
	r.Get("/assets/*", listH.ServeAsset)

	r.Group(func(r chi.Router) {
		r.Use(requireOwner(deps.Sessions))
		r.Get("/my/listings", listH.MyListings)
		r.Post("/listings", listH.Create)
		r.Patch("/my/listings/{id}/status", listH.SetStatus)
	})

	r.Method(http.MethodGet, "/metrics", deps.Collector.Handler())

	return r
}
