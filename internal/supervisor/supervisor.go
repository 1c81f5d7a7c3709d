// Package supervisor implements C5: it starts C1 (store), C2 (remote
// client), and C3 (executor) in dependency order, publishes C3 into
// internal/registry, passes the same executor directly to the HTTP surface
// and chat dispatcher, and owns the shutdown sequence, mirroring the
// teacher's cmd/server/main.go
// startup/shutdown choreography.
package supervisor

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/doumanash/roseline/internal/config"
	"github.com/doumanash/roseline/internal/dispatcher"
	"github.com/doumanash/roseline/internal/executor"
	"github.com/doumanash/roseline/internal/httpapi"
	"github.com/doumanash/roseline/internal/metrics"
	"github.com/doumanash/roseline/internal/registry"
	"github.com/doumanash/roseline/internal/store"
	"github.com/doumanash/roseline/internal/vndbclient"
)

// Supervisor owns every long-lived component's lifecycle.
type Supervisor struct {
	cfg config.Config
	log zerolog.Logger

	storeClient  *store.Client
	remoteClient *vndbclient.Client
	exec         *executor.Executor
	dispatcher   *dispatcher.Dispatcher
	metrics      *metrics.Registry
	httpServer   *http.Server
	done         chan struct{}
}

// New builds a Supervisor from cfg without starting anything yet.
func New(cfg config.Config, log zerolog.Logger) *Supervisor {
	return &Supervisor{cfg: cfg, log: log, done: make(chan struct{})}
}

// Dispatcher returns C4, valid only after Start succeeds. Chat transport
// shims (out of scope here) call Handle on the returned value.
func (s *Supervisor) Dispatcher() *dispatcher.Dispatcher { return s.dispatcher }

// Start brings up C1, C2, C3 in order, publishes C3 into the registry, and
// starts the HTTP admin server in the background.
func (s *Supervisor) Start() error {
	storeClient, err := store.Open(s.cfg.Store.Path, s.cfg.Workers)
	if err != nil {
		return fmt.Errorf("starting store worker pool: %w", err)
	}
	s.storeClient = storeClient

	addr := fmt.Sprintf("%s:%d", s.cfg.Remote.Host, s.cfg.Remote.Port)
	s.remoteClient = vndbclient.New(vndbclient.TLSDialer(addr), s.log.With().Str("component", "vndbclient").Logger())

	s.metrics = metrics.New()
	s.exec = executor.New(s.storeClient, s.remoteClient, s.metrics)
	registry.SetExecutor(s.exec)

	s.dispatcher = dispatcher.New(s.exec, s.log.With().Str("component", "dispatcher").Logger(), s.metrics)

	httpSrv := &httpapi.Server{
		Exec: s.exec,
		M:    s.metrics,
		JWT:  httpapi.JWTCfg{Secret: s.cfg.HTTP.JWTSecret},
		Log:  s.log.With().Str("component", "httpapi").Logger(),
	}
	s.httpServer = &http.Server{
		Addr:         s.cfg.HTTP.Addr,
		Handler:      httpSrv.Routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		s.log.Info().Str("addr", s.cfg.HTTP.Addr).Msg("supervisor: starting http admin server")
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.log.Error().Err(err).Msg("supervisor: http server failed")
		}
	}()

	go s.pollConnectionMetrics()

	return nil
}

// pollConnectionMetrics periodically copies C1/C2 runtime state into the
// Prometheus registry, since neither actor pushes metrics on its own hot
// path.
func (s *Supervisor) pollConnectionMetrics() {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	var lastReconnects int64
	for {
		select {
		case <-ticker.C:
			s.metrics.StoreQueueDepth.Set(float64(s.storeClient.QueueDepth()))
			s.metrics.StoreInFlight.Set(float64(s.storeClient.InFlight()))

			remoteStats := s.remoteClient.Stats()
			connected := 0.0
			if remoteStats.Connected {
				connected = 1.0
			}
			s.metrics.RemoteConnected.Set(connected)
			s.metrics.RemotePending.Set(float64(remoteStats.Pending))
			s.metrics.RemoteBackoffSeconds.Set(remoteStats.BackoffSeconds)
			if delta := remoteStats.Reconnects - lastReconnects; delta > 0 {
				s.metrics.RemoteReconnects.Add(float64(delta))
			}
			lastReconnects = remoteStats.Reconnects
		case <-s.done:
			return
		}
	}
}

// Stop shuts down the HTTP server gracefully, then C2 and C1 in reverse
// start order.
func (s *Supervisor) Stop(ctx context.Context) error {
	registry.Reset()
	close(s.done)

	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			s.log.Error().Err(err).Msg("supervisor: http server shutdown error")
		}
	}
	if s.remoteClient != nil {
		s.remoteClient.Close()
	}
	if s.storeClient != nil {
		return s.storeClient.Close()
	}
	return nil
}
