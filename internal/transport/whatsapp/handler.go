// Package whatsapp is the inbound messaging transport: it verifies Twilio
// webhook signatures, feeds inbound messages through the session manager,
// and renders the resulting prompt back as TwiML.
package whatsapp

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/maitre-bot/maitre/internal/logging"
	"github.com/maitre-bot/maitre/pkg/ports"
	"github.com/maitre-bot/maitre/pkg/session"
)

// Server handles the Twilio WhatsApp webhook.
type Server struct {
	sessions   *session.Manager
	dispatcher ports.ActionDispatcher
	authToken  string
	payState   string
	logger     *slog.Logger
}

// Option configures the Server.
type Option func(*Server)

// WithAuthToken enables signature verification with the Twilio account's
// auth token. Without it requests are accepted unverified (local dev
// only).
func WithAuthToken(token string) Option {
	return func(s *Server) { s.authToken = token }
}

// WithDispatcher sets the executor for emitted actions.
func WithDispatcher(d ports.ActionDispatcher) Option {
	return func(s *Server) { s.dispatcher = d }
}

// WithPaymentState sets the state a conversation is forced onto when the
// payment provider confirms payment.
func WithPaymentState(stateID string) Option {
	return func(s *Server) { s.payState = stateID }
}

// WithLogger sets a structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewServer creates the webhook server.
func NewServer(sessions *session.Manager, opts ...Option) *Server {
	s := &Server{
		sessions: sessions,
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler builds the HTTP routes.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Post("/webhook", s.handleInbound)
	r.Post("/payments/{conversationID}/confirm", s.handlePaymentConfirmed)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())
	return r
}

// handleInbound processes one user message and answers with TwiML.
func (s *Server) handleInbound(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form body", http.StatusBadRequest)
		return
	}

	if s.authToken != "" {
		sig := r.Header.Get(SignatureHeader)
		if !ValidateSignature(s.authToken, requestURL(r), r.PostForm, sig) {
			s.logger.Warn("rejected webhook with bad signature", "remote", r.RemoteAddr)
			http.Error(w, "invalid signature", http.StatusForbidden)
			return
		}
	}

	from := r.PostFormValue("From")
	body := r.PostFormValue("Body")
	if from == "" {
		http.Error(w, "missing From", http.StatusBadRequest)
		return
	}

	result, err := s.sessions.Handle(r.Context(), from, body)
	if err != nil {
		// Configuration errors are operator problems; the user gets a 500
		// and Twilio's default error message, never a broken prompt.
		s.logger.Error("turn failed", "conversation", from, "err", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	if result.Action != nil && s.dispatcher != nil {
		if err := s.dispatcher.Dispatch(r.Context(), result.Action); err != nil {
			// The state machine has already advanced; reconciliation is a
			// host concern. Log and keep the conversation moving.
			s.logger.Error("action dispatch failed",
				"conversation", from,
				"action", result.Action.Name,
				"idempotency_key", result.Action.IdempotencyKey,
				"err", err)
		}
	}

	writeTwiML(w, result.Prompt)
}

// handlePaymentConfirmed is the payment provider's callback: it moves the
// held conversation forward.
func (s *Server) handlePaymentConfirmed(w http.ResponseWriter, r *http.Request) {
	if s.payState == "" {
		http.Error(w, "payment flow not configured", http.StatusNotFound)
		return
	}

	convID := chi.URLParam(r, "conversationID")
	result, err := s.sessions.Override(r.Context(), convID, s.payState)
	if err != nil {
		s.logger.Error("payment override failed", "conversation", convID, "err", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	s.logger.Info("payment confirmed, conversation advanced",
		"conversation", convID, "state", result.Conversation.Current)
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}
