// Package api exposes the WitnessChain REST surface: evidence CRUD over the
// persistence layer and file upload/retrieval through the storage boundary.
// Handlers are thin; all storage invariants are enforced in pkg/storage.
//
// Authentication is reduced to an X-Wallet-Address header. Verifying the
// wallet signature behind that address happens upstream and is out of scope
// here.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/witnesschain/witnesschain-go/pkg/storage"
	"github.com/witnesschain/witnesschain-go/pkg/store"
)

// Server bundles the handlers' dependencies.
type Server struct {
	store   *store.Store
	storage *storage.Service
}

// NewServer wires the REST handlers to the given store and storage boundary.
func NewServer(st *store.Store, svc *storage.Service) *Server {
	return &Server{store: st, storage: svc}
}

// Routes builds the chi router for the REST API.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Route("/evidence", func(r chi.Router) {
			r.Post("/", s.handleUploadEvidence)
			r.Get("/", s.handleListEvidence)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetEvidence)
				r.Get("/file", s.handleDownloadEvidence)
				r.Post("/verifications", s.handleCreateVerification)
				r.Get("/verifications", s.handleListVerifications)
				r.Get("/access-log", s.handleListAccessLog)
			})
		})
		r.Get("/storage/{cid}/status", s.handleStorageStatus)
	})
	return r
}
