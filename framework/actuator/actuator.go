// Package actuator serves read-only introspection of an application context
// over HTTP:
//
//	GET /actuator/health         {"status": "UP", ...} or 503 when inactive
//	GET /actuator/beans          every bean, in registration order
//	GET /actuator/beans/{name}   one bean, 404 when unknown
//	GET /actuator/metrics        Prometheus exposition, when metrics are enabled
package actuator

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/km-arc/go-spring/framework/app"
	gohttp "github.com/km-arc/go-spring/http"
	"github.com/km-arc/go-spring/routing"
)

// Health is the body of /actuator/health.
type Health struct {
	Status    string    `json:"status"`
	Context   string    `json:"context"`
	Env       string    `json:"env"`
	Beans     int       `json:"beans"`
	StartedAt time.Time `json:"startedAt"`
}

// Actuator exposes one application context.
type Actuator struct {
	ctx             *app.Context
	router          *routing.Router
	logger          *zap.Logger
	shutdownTimeout time.Duration
}

const defaultShutdownTimeout = 5 * time.Second

// New builds the actuator routes for c.
func New(c *app.Context) *Actuator {
	a := &Actuator{
		ctx:             c,
		router:          routing.New(c.Logger()),
		logger:          c.Logger(),
		shutdownTimeout: defaultShutdownTimeout,
	}
	if cfg := c.Config(); cfg != nil && cfg.Actuator.ShutdownTimeout > 0 {
		a.shutdownTimeout = cfg.Actuator.ShutdownTimeout
	}
	a.router.Prefix("/actuator", func(r *routing.Router) {
		r.Group(func(g *routing.Router) {
			g.Middleware(middleware.NoCache)
			g.Get("/health", a.health)
			g.Get("/beans", a.beans)
			g.Get("/beans/{name}", a.bean)
		})
		if m := c.Metrics(); m != nil {
			r.Mount("/metrics", m.Handler())
		}
	})
	return a
}

// Handler returns the actuator's http.Handler.
func (a *Actuator) Handler() http.Handler { return a.router }

// ListenAndServe serves on addr until ctx is done, then shuts down gracefully.
func (a *Actuator) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           a.router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		a.logger.Info("actuator listening", zap.String("addr", addr))
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// ── Handlers ─────────────────────────────────────────────────────────────────

func (a *Actuator) health(w http.ResponseWriter, _ *http.Request) {
	res := gohttp.NewResponse(w)
	h := Health{
		Status:    "UP",
		Context:   a.ctx.ID(),
		Env:       a.ctx.Environment(),
		Beans:     a.ctx.Factory().Len(),
		StartedAt: a.ctx.StartupDate(),
	}
	if !a.ctx.IsActive() {
		h.Status = "DOWN"
		res.ServiceUnavailable(h)
		return
	}
	res.JSON(http.StatusOK, h)
}

func (a *Actuator) beans(w http.ResponseWriter, _ *http.Request) {
	gohttp.NewResponse(w).Success(a.ctx.Beans())
}

func (a *Actuator) bean(w http.ResponseWriter, r *http.Request) {
	res := gohttp.NewResponse(w)
	name := routing.Param(r, "name")
	info, ok := a.ctx.Factory().Describe(name)
	if !ok {
		res.NotFound("no bean named " + name)
		return
	}
	res.Success(info)
}
