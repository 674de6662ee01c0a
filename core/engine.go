package core

import (
	"context"
	"errors"
	"log"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/net/netutil"

	"github.com/searchktools/docroot-server/config"
	"github.com/searchktools/docroot-server/core/middleware"
	"github.com/searchktools/docroot-server/core/observability"
	"github.com/searchktools/docroot-server/core/pools"
)

// Engine accepts connections and serves each one on a bounded worker pool.
// At most cfg.MaxThreads connections are accepted and in service at once.
type Engine struct {
	cfg     *config.Config
	handler *Handler
	monitor *observability.Monitor
	pool    *pools.WorkerPool
	serve   middleware.ConnHandler

	mu       sync.Mutex
	listener net.Listener
	closed   atomic.Bool
}

// NewEngine creates a new engine instance
func NewEngine(cfg *config.Config) (*Engine, error) {
	monitor := observability.NewMonitor()

	handler, err := NewHandler(cfg, monitor)
	if err != nil {
		return nil, err
	}

	e := &Engine{
		cfg:     cfg,
		handler: handler,
		monitor: monitor,
		pool:    pools.NewWorkerPool(cfg.MaxThreads),
	}

	pipeline := middleware.NewPipeline().
		Use(middleware.Recovery()).
		Use(middleware.Deadline(cfg.ReadTimeoutDuration(), cfg.WriteTimeoutDuration()))
	if !cfg.Quiet {
		pipeline.Use(middleware.Logger())
	}
	e.serve = pipeline.Then(e.serveConn)

	log.Printf("📊 Worker pool: %d workers", cfg.MaxThreads)
	log.Printf("   - Document root: %s (default page %s)", handler.resolver.Root(), cfg.DefaultPage)
	log.Printf("   - Chunk size: %d bytes", cfg.ChunkSize)

	return e, nil
}

// Monitor returns the request metrics
func (e *Engine) Monitor() *observability.Monitor {
	return e.monitor
}

// Run listens on addr and serves until Shutdown
func (e *Engine) Run(addr string) error {
	lc := listenConfig(e.cfg.ReusePort)
	ln, err := lc.Listen(context.Background(), "tcp", addr)
	if err != nil {
		return err
	}

	log.Printf("🚀 Server listening on %s", ln.Addr())
	return e.Serve(ln)
}

// Serve accepts connections on ln until Shutdown. It returns
// ErrServerClosed after a shutdown, or the accept error that stopped it.
func (e *Engine) Serve(ln net.Listener) error {
	ln = netutil.LimitListener(ln, e.cfg.MaxThreads)

	e.mu.Lock()
	if e.closed.Load() {
		e.mu.Unlock()
		ln.Close()
		return ErrServerClosed
	}
	e.listener = ln
	e.mu.Unlock()
	defer ln.Close()

	var backoff time.Duration
	for {
		conn, err := ln.Accept()
		if err != nil {
			if e.closed.Load() || errors.Is(err, net.ErrClosed) {
				if e.closed.Load() {
					return ErrServerClosed
				}
				return err
			}

			if backoff == 0 {
				backoff = 5 * time.Millisecond
			} else if backoff *= 2; backoff > time.Second {
				backoff = time.Second
			}
			log.Printf("Accept error: %v; retrying in %v", err, backoff)
			time.Sleep(backoff)
			continue
		}
		backoff = 0

		if err := e.pool.Submit(context.Background(), func() { e.serve(conn) }); err != nil {
			conn.Close()
			if errors.Is(err, pools.ErrPoolClosed) {
				return ErrServerClosed
			}
			log.Printf("Submit error: %v", err)
		}
	}
}

// serveConn runs one connection to completion and always closes it
func (e *Engine) serveConn(conn net.Conn) {
	defer conn.Close()

	if err := e.handler.Handle(conn); err != nil {
		log.Printf("Connection %s: %v", conn.RemoteAddr(), err)
	}
}

// Addr returns the listening address, or nil before Serve
func (e *Engine) Addr() net.Addr {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.listener == nil {
		return nil
	}
	return e.listener.Addr()
}

// Shutdown stops accepting connections and waits for in-flight ones,
// bounded by ctx
func (e *Engine) Shutdown(ctx context.Context) error {
	e.mu.Lock()
	e.closed.Store(true)
	ln := e.listener
	e.mu.Unlock()

	if ln != nil {
		ln.Close()
	}

	err := e.pool.CloseContext(ctx)
	e.logStats()
	return err
}

func (e *Engine) logStats() {
	log.Printf("📊 Shutdown statistics\n%s", e.GetStatsText())

	for _, b := range e.monitor.Bottlenecks() {
		log.Printf("   ! [%s] %s: %s", b.Type, b.Location, b.Details)
	}
}
