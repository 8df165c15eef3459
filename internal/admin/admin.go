// Package admin serves the operator HTTP surface: health, metrics, the
// procedure table and the current TRP map.
package admin

import (
	"context"
	"encoding/hex"
	"errors"
	"net/http"
	"time"

	"github.com/danmuck/nrppa/internal/nrppa"
	"github.com/danmuck/nrppa/internal/observability"
	"github.com/danmuck/nrppa/internal/protocol/messages"
	"github.com/danmuck/nrppa/internal/protocol/procedure"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

const component = "admin"

// Deps is the shared state the admin routes read.
type Deps struct {
	Registry  *procedure.Registry
	TRPs      *nrppa.TRPMap
	Notifiers *nrppa.NotifierRegistry
}

type Server struct {
	deps     Deps
	router   *gin.Engine
	appeared time.Time
	logger   zerolog.Logger
}

func New(deps Deps, corsOrigins []string, logger zerolog.Logger) *Server {
	observability.RegisterMetrics()
	gin.SetMode(gin.ReleaseMode)
	logger = logger.With().Str("component", component).Logger()

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(observability.RequestObserver(component, logger))
	if len(corsOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins: corsOrigins,
			AllowMethods: []string{"GET"},
			AllowHeaders: []string{"Origin", "Content-Type"},
			MaxAge:       12 * time.Hour,
		}))
	}
	_ = r.SetTrustedProxies([]string{"127.0.0.1", "::1"})

	s := &Server{deps: deps, router: r, appeared: time.Now(), logger: logger}
	s.registerRoutes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves on addr until ctx is cancelled.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.router, ReadHeaderTimeout: 5 * time.Second}
	errs := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", addr).Msg("admin listening")
		errs <- srv.ListenAndServe()
	}()

	select {
	case err := <-errs:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errs; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

func (s *Server) registerRoutes() {
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"uptime":  time.Since(s.appeared).String(),
			"service": "nrppa",
		})
	})

	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	s.router.GET("/procedures", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"procedures": procedureViews(s.deps.Registry)})
	})

	s.router.GET("/trps", func(c *gin.Context) {
		entries := s.deps.TRPs.Snapshot()
		out := make([]trpView, 0, len(entries))
		for _, e := range entries {
			out = append(out, newTRPView(e))
		}
		c.JSON(http.StatusOK, gin.H{"trps": out})
	})

	s.router.GET("/dus", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"dus": s.deps.Notifiers.Snapshot()})
	})
}

type procedureView struct {
	Code         uint8  `json:"code"`
	Name         string `json:"name"`
	Class        int    `json:"class"`
	Criticality  string `json:"criticality"`
	Initiating   string `json:"initiating"`
	Successful   string `json:"successful,omitempty"`
	Unsuccessful string `json:"unsuccessful,omitempty"`
}

func procedureViews(reg *procedure.Registry) []procedureView {
	descs := reg.Descriptors()
	out := make([]procedureView, 0, len(descs))
	for _, d := range descs {
		v := procedureView{
			Code:        uint8(d.Code),
			Name:        d.Name,
			Class:       int(d.Class),
			Criticality: d.Criticality.String(),
			Initiating:  d.Initiating.String(),
		}
		if d.Successful != nil {
			v.Successful = d.Successful.Name
		}
		if d.Unsuccessful != nil {
			v.Unsuccessful = d.Unsuccessful.Name
		}
		out = append(out, v)
	}
	return out
}

type trpView struct {
	ID    uint32         `json:"id"`
	DU    uint32         `json:"du"`
	Items map[string]any `json:"items"`
}

func newTRPView(e nrppa.TRPEntry) trpView {
	v := trpView{ID: uint32(e.ID), DU: uint32(e.DU), Items: make(map[string]any, len(e.Info.Items))}
	for i := range e.Info.Items {
		item := &e.Info.Items[i]
		switch val := item.Value().(type) {
		case *messages.NRPCI:
			v.Items[item.Name()] = *val
		case *messages.NRARFCN:
			v.Items[item.Name()] = *val
		case *messages.NRCGI:
			v.Items[item.Name()] = gin.H{"plmn": hex.EncodeToString(val.PLMN[:]), "nr_cell_id": val.CellID}
		default:
			v.Items[item.Name()] = nil
		}
	}
	return v
}
