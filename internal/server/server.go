// Package server wires the router, middleware and handlers together and owns
// the HTTP lifecycle. It is the composition root: every service gets its
// repository interfaces here and nowhere else.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"

	"github.com/tribu-app/tribu/internal/auth"
	"github.com/tribu-app/tribu/internal/config"
	"github.com/tribu-app/tribu/internal/handler"
	"github.com/tribu-app/tribu/internal/middleware"
	sqliteRepo "github.com/tribu-app/tribu/internal/repository/sqlite"
	"github.com/tribu-app/tribu/internal/service"
)

// Server holds the router and the resources it must release on shutdown.
type Server struct {
	router *chi.Mux
	config config.Config
	logger *slog.Logger
	db     *sqliteRepo.DB
}

// New opens the database, builds every service and handler, and registers
// all routes.
func New(cfg config.Config, logger *slog.Logger) (*Server, error) {
	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		db:     db,
	}
	if err := s.setupRoutes(); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}
	return s, nil
}

func (s *Server) setupRoutes() error {
	tokens, err := auth.NewTokenService(s.config.JWTSecret)
	if err != nil {
		return fmt.Errorf("creating token service: %w", err)
	}
	passwords := auth.NewPasswordService(s.config.BcryptCost)

	// One sqlite.DB implements every repository interface; each service only
	// sees the interfaces it asks for.
	authService := service.NewAuthService(s.db, tokens, passwords, s.logger)
	groupService := service.NewGroupService(s.db, s.db, s.logger)
	eventService := service.NewEventService(s.db, s.db, s.db, s.logger)
	discussionService := service.NewDiscussionService(s.db, s.db, s.db, s.logger)
	albumService := service.NewAlbumService(s.db, s.db, s.logger)
	pollService := service.NewPollService(s.db, s.db, s.logger)
	ticketService := service.NewTicketService(s.db, s.db, s.logger)
	shoppingService := service.NewShoppingService(s.db, s.db, s.logger)

	authHandler := handler.NewAuthHandler(authService, s.logger)
	groupHandler := handler.NewGroupHandler(groupService, s.logger)
	eventHandler := handler.NewEventHandler(eventService, s.logger)
	discussionHandler := handler.NewDiscussionHandler(discussionService, s.logger)
	albumHandler := handler.NewAlbumHandler(albumService, s.logger)
	pollHandler := handler.NewPollHandler(pollService, s.logger)
	ticketHandler := handler.NewTicketHandler(ticketService, s.logger)
	shoppingHandler := handler.NewShoppingHandler(shoppingService, s.logger)

	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(cors.New(cors.Options{
		AllowedOrigins:   s.config.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	}).Handler)

	s.router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	s.router.Route("/auth", func(r chi.Router) {
		r.Post("/register", authHandler.HandleRegister)
		r.Post("/login", authHandler.HandleLogin)
		r.With(auth.RequireAuth(tokens)).Get("/me", authHandler.HandleMe)
	})

	s.router.Route("/api", func(r chi.Router) {
		// Read routes take OptionalAuth: anonymous callers see public
		// entities, authenticated ones additionally see their own.
		optional := auth.OptionalAuth(tokens)
		required := auth.RequireAuth(tokens)

		r.Group(func(r chi.Router) {
			r.Use(optional)

			r.Get("/groups", groupHandler.HandleList)
			r.Get("/groups/{id}", groupHandler.HandleGet)
			r.Get("/groups/{id}/members", groupHandler.HandleListMembers)
			r.Get("/groups/{id}/admins", groupHandler.HandleListAdmins)

			r.Get("/events", eventHandler.HandleList)
			r.Get("/events/{id}", eventHandler.HandleGet)
			r.Get("/events/{id}/participants", eventHandler.HandleListParticipants)
			r.Get("/events/{id}/organizers", eventHandler.HandleListOrganizers)

			r.Get("/discussions/{id}", discussionHandler.HandleGet)
			r.Get("/discussions/by-group/{groupID}", discussionHandler.HandleGetByGroup)
			r.Get("/discussions/by-event/{eventID}", discussionHandler.HandleGetByEvent)
			r.Get("/discussions/{id}/messages", discussionHandler.HandleListMessages)
			r.Get("/discussions/{id}/messages/{messageID}/replies", discussionHandler.HandleListReplies)

			r.Get("/albums/{id}", albumHandler.HandleGet)
			r.Get("/albums/by-event/{eventID}", albumHandler.HandleListByEvent)
			r.Get("/albums/{id}/photos", albumHandler.HandleListPhotos)
			r.Get("/photos/{id}/comments", albumHandler.HandleListPhotoComments)

			r.Get("/polls/{id}", pollHandler.HandleGet)
			r.Get("/polls/by-event/{eventID}", pollHandler.HandleListByEvent)
			r.Get("/polls/{id}/results", pollHandler.HandleResults)

			r.Get("/events/{id}/tickets/types", ticketHandler.HandleListTypes)
			// Purchasing needs no account; buyers are identified by email.
			r.Post("/events/{id}/tickets/purchase", ticketHandler.HandlePurchase)
		})

		r.Group(func(r chi.Router) {
			r.Use(required)

			r.Post("/groups", groupHandler.HandleCreate)
			r.Patch("/groups/{id}", groupHandler.HandleUpdate)
			r.Post("/groups/{id}/members/{userID}", groupHandler.HandleAddMember)
			r.Delete("/groups/{id}/members/{userID}", groupHandler.HandleRemoveMember)
			r.Post("/groups/{id}/admins/{userID}", groupHandler.HandleAddAdmin)
			r.Delete("/groups/{id}/admins/{userID}", groupHandler.HandleRemoveAdmin)

			r.Post("/events", eventHandler.HandleCreate)
			r.Patch("/events/{id}", eventHandler.HandleUpdate)
			r.Post("/events/{id}/join", eventHandler.HandleJoin)
			r.Delete("/events/{id}/participants/me", eventHandler.HandleLeave)
			r.Post("/events/{id}/organizers/{userID}", eventHandler.HandleAddOrganizer)
			r.Delete("/events/{id}/organizers/{userID}", eventHandler.HandleRemoveOrganizer)
			r.Post("/events/{id}/invite-group-members", eventHandler.HandleInviteGroupMembers)

			r.Post("/discussions", discussionHandler.HandleCreate)
			r.Post("/discussions/{id}/messages", discussionHandler.HandlePostMessage)
			r.Delete("/discussions/{id}/messages/{messageID}", discussionHandler.HandleDeleteMessage)

			r.Post("/albums", albumHandler.HandleCreate)
			r.Post("/albums/{id}/photos", albumHandler.HandleAddPhoto)
			r.Post("/photos/{id}/comments", albumHandler.HandleCommentPhoto)

			r.Post("/polls", pollHandler.HandleCreate)
			r.Post("/polls/questions/{questionID}/vote", pollHandler.HandleVote)

			r.Post("/events/{id}/tickets/types", ticketHandler.HandleCreateType)
			r.Get("/events/{id}/tickets/purchases", ticketHandler.HandleListPurchases)

			r.Post("/events/{id}/shopping-items", shoppingHandler.HandleCreateItem)
			r.Get("/events/{id}/shopping-items", shoppingHandler.HandleListItems)
			r.Patch("/events/{id}/shopping-items/{itemID}", shoppingHandler.HandleUpdateItem)
			r.Delete("/events/{id}/shopping-items/{itemID}", shoppingHandler.HandleDeleteItem)
		})
	})

	return nil
}

// Start runs the server until SIGINT/SIGTERM, then shuts down gracefully
// and closes the database.
func (s *Server) Start() error {
	defer s.db.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("database", s.config.DBPath),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
