package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/maitre-bot/maitre"
	"github.com/maitre-bot/maitre/internal/transport/whatsapp"
	"github.com/maitre-bot/maitre/pkg/adapters/gemini"
	"github.com/maitre-bot/maitre/pkg/adapters/memory"
	redisAdapter "github.com/maitre-bot/maitre/pkg/adapters/redis"
	"github.com/maitre-bot/maitre/pkg/domain"
	"github.com/maitre-bot/maitre/pkg/flows/onboarding"
	"github.com/maitre-bot/maitre/pkg/observability"
	"github.com/maitre-bot/maitre/pkg/ports"
	"github.com/maitre-bot/maitre/pkg/session"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the WhatsApp webhook server",
	Long: `Starts the engine in server mode, receiving Twilio WhatsApp webhooks
and persisting conversations in Redis.

Environment:
  REDIS_ADDR         Redis address (empty: in-memory store, single replica only)
  REDIS_PASSWORD     Redis password
  REDIS_DB           Redis database number
  TWILIO_AUTH_TOKEN  Enables webhook signature verification
  GEMINI_API_KEY     Enables AI-assisted extraction
  GEMINI_MODEL       Overrides the extraction model`,
	Run: func(cmd *cobra.Command, args []string) {
		port, _ := cmd.Flags().GetString("port")
		logger := buildLogger(cmd)

		metrics := observability.NewMetrics(prometheus.DefaultRegisterer)

		engineOpts := []maitre.Option{maitre.WithMetrics(metrics)}
		if os.Getenv("GEMINI_API_KEY") != "" || os.Getenv("GOOGLE_API_KEY") != "" {
			extractor, err := gemini.New(cmd.Context(),
				gemini.WithModel(os.Getenv("GEMINI_MODEL")),
				gemini.WithLogger(logger),
			)
			if err != nil {
				fmt.Printf("Error initializing extractor: %v\n", err)
				os.Exit(1)
			}
			engineOpts = append(engineOpts, maitre.WithExtractor(extractor))
		} else {
			logger.Warn("no Gemini API key configured, AI-assisted extraction disabled")
		}

		engine, err := buildEngine(cmd, logger, engineOpts...)
		if err != nil {
			fmt.Printf("Error initializing engine: %v\n", err)
			os.Exit(1)
		}

		var store ports.ConversationStore
		sessionOpts := []session.Option{session.WithLogger(logger)}
		if addr := os.Getenv("REDIS_ADDR"); addr != "" {
			db, _ := strconv.Atoi(envOr("REDIS_DB", "0"))
			redisStore := redisAdapter.New(addr, os.Getenv("REDIS_PASSWORD"), db)
			defer redisStore.Close()
			store = redisStore
			sessionOpts = append(sessionOpts,
				session.WithLocker(redisAdapter.NewLocker(redisStore.Client(), "maitre:lock:")))
		} else {
			logger.Warn("REDIS_ADDR not set, using in-memory store (conversations lost on restart)")
			store = memory.NewStore()
		}

		sessions := session.NewManager(engine, store, sessionOpts...)

		serverOpts := []whatsapp.Option{
			whatsapp.WithLogger(logger),
			whatsapp.WithPaymentState(onboarding.SetupStart),
			whatsapp.WithDispatcher(loggingDispatcher(logger)),
		}
		if token := os.Getenv("TWILIO_AUTH_TOKEN"); token != "" {
			serverOpts = append(serverOpts, whatsapp.WithAuthToken(token))
		} else {
			logger.Warn("TWILIO_AUTH_TOKEN not set, webhook signature verification disabled")
		}

		srv := &http.Server{
			Addr:    ":" + port,
			Handler: whatsapp.NewServer(sessions, serverOpts...).Handler(),
		}

		serverErrors := make(chan error, 1)
		go func() {
			logger.Info("server listening", "addr", srv.Addr)
			serverErrors <- srv.ListenAndServe()
		}()

		shutdown := make(chan os.Signal, 1)
		signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

		select {
		case err := <-serverErrors:
			fmt.Printf("Server error: %v\n", err)
			os.Exit(1)

		case sig := <-shutdown:
			logger.Info("shutting down", "signal", sig.String())

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			if err := srv.Shutdown(ctx); err != nil {
				logger.Error("graceful shutdown did not complete", "err", err)
				if err := srv.Close(); err != nil {
					logger.Error("error killing server", "err", err)
				}
			}
			logger.Info("server stopped")
		}
	},
}

// loggingDispatcher records emitted actions. Production hosts replace it
// with a dispatcher that calls their backoffice API.
func loggingDispatcher(logger *slog.Logger) ports.ActionDispatcher {
	return ports.DispatcherFunc(func(ctx context.Context, req *domain.ActionRequest) error {
		logger.Info("action emitted",
			"action", req.Name,
			"idempotency_key", req.IdempotencyKey)
		return nil
	})
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("port", "p", "8080", "Port to listen on")
}
