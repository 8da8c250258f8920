package main

import (
	"context"
	"errors"
	"expvar"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"bqm/dashboard-service/internal/broadcast"
	"bqm/dashboard-service/internal/config"
	"bqm/dashboard-service/internal/httpapi"
	"bqm/dashboard-service/internal/hub"
	"bqm/dashboard-service/internal/store"
	"bqm/dashboard-service/internal/store/memory"
	"bqm/dashboard-service/internal/store/postgres"
	"bqm/dashboard-service/internal/telemetry"

	"github.com/google/uuid"
	"github.com/igm/sockjs-go/sockjs"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func main() {
	cfg := config.Load()
	shutdownTelemetry := telemetry.Setup("dashboard-service")
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTelemetry(ctx)
	}()

	st, cleanup, err := openStore(cfg)
	if err != nil {
		log.Fatalf("store init: %v", err)
	}
	defer cleanup()

	h := hub.New()
	handler := httpapi.NewHandler(st)
	limiter := httpapi.NewRateLimiter(httpapi.RateLimitConfig{
		PerMinute: cfg.RateLimitPerMinute,
		Burst:     cfg.RateLimitBurst,
	})

	mux := http.NewServeMux()
	mux.Handle("/metrics", expvar.Handler())
	mux.Handle("/realtime/", sockjs.NewHandler("/realtime", sockjs.DefaultOptions, channelSession(cfg, st, h)))
	mux.Handle("/", handler.Routes())

	wrapped := httpapi.AuthMiddleware(st, cfg.AuthTokenRequired, mux)
	wrapped = limiter.Middleware(wrapped)
	wrapped = httpapi.LoggingMiddleware(wrapped)
	otelHandler := otelhttp.NewHandler(wrapped, "dashboard-service")

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      otelHandler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	broadcastCtx, stopBroadcast := context.WithCancel(context.Background())
	defer stopBroadcast()
	interval := cfg.BroadcastInterval
	if interval <= 0 {
		interval = time.Second
	}
	go broadcast.Start(broadcastCtx, interval, broadcast.New(st, h, cfg.BroadcastBatchSize))

	go func() {
		log.Printf("dashboard-service listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("shutdown error: %v", err)
	}
}

func openStore(cfg config.Config) (store.Store, func(), error) {
	if cfg.DatabaseURL != "" {
		pool, err := pgxpool.New(context.Background(), cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		return postgres.NewStore(pool), pool.Close, nil
	}
	st := memory.NewStore()
	st.LoadFixtures(cfg.FixturesDir)
	return st, func() {}, nil
}

// channelSession speaks the subscribe/unsubscribe frame protocol over a
// sockjs session and pipes hub broadcasts back to it.
func channelSession(cfg config.Config, st store.Store, h *hub.Hub) func(sockjs.Session) {
	return func(session sockjs.Session) {
		if cfg.AuthTokenRequired {
			token := tokenFromRequest(session.Request())
			if token == "" {
				_ = session.Close(4001, "missing token")
				return
			}
			if _, err := st.GetUserByToken(context.Background(), token); err != nil {
				_ = session.Close(4002, "invalid token")
				return
			}
		}

		client := hub.NewClient(uuid.NewString(), 16)
		h.Register(client)
		defer h.Unregister(client)

		go func() {
			for msg := range client.Send {
				_ = session.Send(string(msg))
			}
		}()

		for {
			msg, err := session.Recv()
			if err != nil {
				return
			}
			frame, ok := hub.ParseFrame([]byte(msg))
			if !ok {
				continue
			}
			if frame.Action == "unsubscribe" {
				h.Unsubscribe(client, frame.Channel)
				continue
			}
			h.Subscribe(client, frame.Channel)
		}
	}
}

func tokenFromRequest(r *http.Request) string {
	if r == nil {
		return ""
	}
	if token := bearerToken(r.Header.Get("Authorization")); token != "" {
		return token
	}
	return strings.TrimSpace(r.URL.Query().Get("token"))
}

func bearerToken(header string) string {
	if header == "" {
		return ""
	}
	parts := strings.Fields(header)
	if len(parts) != 2 {
		return ""
	}
	if strings.ToLower(parts[0]) != "bearer" {
		return ""
	}
	return parts[1]
}
