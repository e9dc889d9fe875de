package app

import (
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"besocial/cmd/internal/auth"
	"besocial/cmd/internal/chat"
	"besocial/cmd/internal/realtime"
	"besocial/cmd/internal/social"
	"besocial/cmd/internal/suggest"
)

func registerHTTP(
	mux *http.ServeMux,
	log Logger,
	cfg Config,
	dbPool *pgxpool.Pool,
	ws *realtime.Gateway,
	authH *auth.Handler,
	chatH *chat.Handler,
	socialH *social.Handler,
	assistantH *suggest.AssistantHandler,
) {
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})

	mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if cfg.ReadinessRequireDB && dbPool == nil {
			http.Error(w, "db not configured", http.StatusServiceUnavailable)
			return
		}

		if dbPool != nil {
			if err := PingDB(r.Context(), dbPool, 2*time.Second); err != nil {
				http.Error(w, "db not ready", http.StatusServiceUnavailable)
				log.Info("readyz.db.not_ready", "err", err)
				return
			}
		}

		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready\n"))
	})

	mux.Handle("/metrics", promhttp.Handler())

	if authH != nil {
		authH.Register(mux)
	}
	if chatH != nil {
		chatH.Register(mux)
	}
	if socialH != nil {
		socialH.Register(mux)
	}
	if assistantH != nil {
		assistantH.Register(mux)
	}

	mux.HandleFunc("/ws", ws.HandleWS)
}
