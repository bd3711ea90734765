package web

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/streamjoy/streamjoy/internal/auth"
	"github.com/streamjoy/streamjoy/internal/catalog"
	"github.com/streamjoy/streamjoy/internal/playback"
	"github.com/streamjoy/streamjoy/internal/web/handlers"
	"github.com/streamjoy/streamjoy/internal/web/middleware"
	"github.com/streamjoy/streamjoy/internal/web/sse"
)

// Server represents the web server
type Server struct {
	store       *catalog.Store
	port        int
	bind        string
	allowedNet  *net.IPNet
	router      *chi.Mux
	authService *auth.Service
	sseBroker   *sse.Broker
	playbackMgr *playback.Manager
	handlers    *handlers.Handlers
}

// NewServer creates a new web server
func NewServer(store *catalog.Store, authService *auth.Service, playbackMgr *playback.Manager, port int, bind string, allowedNet *net.IPNet, isDev bool) *Server {
	s := &Server{
		store:       store,
		port:        port,
		bind:        bind,
		allowedNet:  allowedNet,
		router:      chi.NewRouter(),
		authService: authService,
		sseBroker:   sse.NewBroker(),
		playbackMgr: playbackMgr,
	}

	// Every catalog change, whatever its origin, reaches SSE clients.
	store.SetOnChange(func(snap catalog.Snapshot) {
		s.sseBroker.Broadcast(sse.Event{Type: sse.EventCatalogUpdated, Data: snap.Sorted()})
	})
	playbackMgr.SetOnState(func(clientID string, state playback.State) {
		s.sseBroker.Broadcast(sse.Event{Type: sse.EventPlaybackState, Data: map[string]any{
			"client_id": clientID,
			"state":     state,
		}})
	})

	s.setupRoutes(isDev)
	return s
}

// SSEBroker returns the SSE broker for broadcasting events
func (s *Server) SSEBroker() *sse.Broker {
	return s.sseBroker
}

func (s *Server) setupRoutes(isDev bool) {
	r := s.router

	// Global middleware (applied to all routes, except timeout which is per-group)
	r.Use(chimiddleware.RequestID)
	// AllowSubnet must come BEFORE RealIP so we check the actual connection source
	r.Use(middleware.AllowSubnet(s.allowedNet))
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(chimiddleware.Recoverer)

	h := handlers.New(s.store, s.authService, s.playbackMgr, s.sseBroker, isDev)
	s.handlers = h

	// Public routes (no auth required)
	r.Group(func(r chi.Router) {
		r.Use(chimiddleware.Timeout(60 * time.Second))
		r.Post("/login", h.Login)
		r.Get("/logout", h.Logout)
		r.Get("/api/status", h.Status)
		r.Get("/api/catalog", h.Catalog)
	})

	// Long-lived connections - no timeout
	r.Group(func(r chi.Router) {
		r.Get("/api/events", s.sseBroker.ServeHTTP)
		r.Get("/api/playback/ws", h.PlaybackWS)
	})

	// Playback controls (presentation clients, no admin session needed)
	r.Route("/api/playback", func(r chi.Router) {
		r.Use(chimiddleware.Timeout(60 * time.Second))
		r.Post("/open", h.PlaybackOpen)
		r.Post("/audio", h.PlaybackSelectAudio)
		r.Post("/subtitle", h.PlaybackSelectSubtitle)
		r.Get("/state", h.PlaybackState)
		r.Post("/close", h.PlaybackClose)
	})

	// Admin routes (session auth required)
	r.Group(func(r chi.Router) {
		r.Use(chimiddleware.Timeout(60 * time.Second))
		r.Use(middleware.SessionAuth(s.authService))

		r.Route("/api/series", func(r chi.Router) {
			r.Post("/", h.SeriesCreate)
			r.Patch("/{seriesID}", h.SeriesUpdate)
			r.Delete("/{seriesID}", h.SeriesDelete)
			r.Post("/{seriesID}/seasons", h.SeasonCreate)
			r.Route("/{seriesID}/seasons/{seasonID}/episodes", func(r chi.Router) {
				r.Post("/", h.EpisodeCreate)
				r.Patch("/{episodeID}", h.EpisodeUpdate)
				r.Delete("/{episodeID}", h.EpisodeDelete)
			})
		})

		r.Post("/api/subtitles/probe", h.SubtitlesProbe)
	})
}

// Start starts the web server
func (s *Server) Start(ctx context.Context) error {
	var addr string
	if s.bind != "" {
		addr = fmt.Sprintf("%s:%d", s.bind, s.port)
	} else {
		addr = fmt.Sprintf(":%d", s.port)
	}

	server := &http.Server{
		Addr:    addr,
		Handler: s.router,
		// ReadTimeout is for reading request body
		ReadTimeout: 15 * time.Second,
		// WriteTimeout disabled (0) to allow SSE and websocket connections
		// Chi middleware timeout (60s) protects regular requests
		WriteTimeout: 0,
		// IdleTimeout for keep-alive connections between requests
		IdleTimeout: 120 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msg("Starting HTTP server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("Shutting down HTTP server")
		// Stop playback first so no corrective command races a closing socket,
		// then the SSE broker to end client streams gracefully.
		s.playbackMgr.Stop()
		s.sseBroker.Stop()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	case err := <-errChan:
		return err
	}
}
