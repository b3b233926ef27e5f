// Package ops serves the operational HTTP listener for each consumer
// binary: liveness, readiness, and Prometheus metrics. It is the only HTTP
// surface in this repository; the business API lives in other services.
package ops

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
)

type Router struct {
	db    *pgxpool.Pool
	redis redis.Cmdable
	rps   int
}

func NewRouter(db *pgxpool.Pool, rdb redis.Cmdable, rps int) *Router {
	return &Router{db: db, redis: rdb, rps: rps}
}

func (o *Router) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(chiMiddleware.Recoverer)
	r.Use(httprate.LimitByIP(o.rps, time.Second))

	r.Get("/healthz", o.live)
	r.Get("/readyz", o.ready)
	r.Handle("/metrics", promhttp.Handler())

	return r
}

// live always reports OK; if the process is up, it's live.
func (o *Router) live(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// ready checks the dependencies this binary actually uses.
func (o *Router) ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), time.Second)
	defer cancel()

	if o.db != nil {
		if err := o.db.Ping(ctx); err != nil {
			http.Error(w, "database unavailable", http.StatusServiceUnavailable)
			return
		}
	}
	if o.redis != nil {
		if err := o.redis.Ping(ctx).Err(); err != nil {
			http.Error(w, "redis unavailable", http.StatusServiceUnavailable)
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
