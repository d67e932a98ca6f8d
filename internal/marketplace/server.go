package marketplace

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/suspectuso/mc-currency/internal/domain/models"
)

// Deduper remembers event IDs that were already accepted.
// ForgetEvent undoes a mark when the event could not be queued.
type Deduper interface {
	MarkEventProcessed(ctx context.Context, eventID string) (bool, error)
	ForgetEvent(ctx context.Context, eventID string) error
}

// Server receives marketplace webhooks and feeds them into the queue
type Server struct {
	queue    *Queue
	dedup    Deduper
	secret   string
	validate *validator.Validate
	log      *slog.Logger

	server *http.Server
}

// NewServer creates a new webhook server. dedup may be nil.
func NewServer(queue *Queue, dedup Deduper, secret string, log *slog.Logger) *Server {
	return &Server{
		queue:    queue,
		dedup:    dedup,
		secret:   secret,
		validate: validator.New(),
		log:      log,
	}
}

// Routes builds the HTTP handler
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(requestLogger(s.log))
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)
	r.Group(func(r chi.Router) {
		r.Use(JWTAuth(s.secret))
		r.Post("/webhook/message", s.handleMessage)
		r.Post("/webhook/order", s.handleOrder)
	})

	return r
}

// Start starts the webhook server and shuts it down when ctx is done
func (s *Server) Start(ctx context.Context, port int) error {
	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      s.Routes(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	s.log.Info("starting webhook server", "port", port, "auth", s.secret != "")

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.server.Shutdown(shutdownCtx)
	}()

	return s.server.ListenAndServe()
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
		"queued": s.queue.Len(),
	})
}

func (s *Server) handleMessage(w http.ResponseWriter, r *http.Request) {
	const op = "marketplace.handleMessage"
	log := s.log.With("op", op, "request_id", middleware.GetReqID(r.Context()))

	var ev models.MessageEvent
	if !s.decode(w, r, log, &ev) {
		return
	}
	if s.duplicate(r.Context(), log, ev.EventID) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "duplicate"})
		return
	}

	if err := s.queue.PushMessage(ev); err != nil {
		log.Error("enqueue message", "error", err)
		s.forget(r.Context(), log, ev.EventID)
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}

	log.Debug("message queued", "event_id", ev.EventID, "chat_id", ev.ChatID)
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "queued"})
}

func (s *Server) handleOrder(w http.ResponseWriter, r *http.Request) {
	const op = "marketplace.handleOrder"
	log := s.log.With("op", op, "request_id", middleware.GetReqID(r.Context()))

	var ev models.OrderEvent
	if !s.decode(w, r, log, &ev) {
		return
	}
	if s.duplicate(r.Context(), log, ev.EventID) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "duplicate"})
		return
	}

	if err := s.queue.PushOrder(ev); err != nil {
		log.Error("enqueue order", "error", err)
		s.forget(r.Context(), log, ev.EventID)
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}

	log.Info("order queued", "event_id", ev.EventID, "order_id", ev.OrderID)
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "queued"})
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, log *slog.Logger, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		log.Warn("invalid webhook payload", "error", err)
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return false
	}

	if err := s.validate.Struct(v); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			log.Warn("webhook payload failed validation", "fields", verrs.Error())
		}
		http.Error(w, "invalid payload: "+err.Error(), http.StatusBadRequest)
		return false
	}

	return true
}

// duplicate reports whether eventID was seen before. Events without an ID are never duplicates.
func (s *Server) duplicate(ctx context.Context, log *slog.Logger, eventID string) bool {
	if s.dedup == nil || eventID == "" {
		return false
	}

	isNew, err := s.dedup.MarkEventProcessed(ctx, eventID)
	if err != nil {
		log.Error("mark event processed", "event_id", eventID, "error", err)
		return false
	}
	if !isNew {
		log.Debug("event already processed", "event_id", eventID)
	}
	return !isNew
}

// forget releases the mark taken by duplicate so a retry of the event is accepted
func (s *Server) forget(ctx context.Context, log *slog.Logger, eventID string) {
	if s.dedup == nil || eventID == "" {
		return
	}
	if err := s.dedup.ForgetEvent(ctx, eventID); err != nil {
		log.Error("forget event", "event_id", eventID, "error", err)
	}
}

func requestLogger(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			log.Debug("request received",
				slog.String("method", r.Method),
				slog.String("url", r.URL.String()),
			)
			next.ServeHTTP(w, r)
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
