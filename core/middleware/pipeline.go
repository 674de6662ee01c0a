package middleware

import (
	"log"
	"net"
	"runtime/debug"
	"time"
)

// ConnHandler serves one accepted connection to completion
type ConnHandler func(conn net.Conn)

// Middleware wraps a ConnHandler
type Middleware func(next ConnHandler) ConnHandler

// Pipeline is an ordered middleware chain
type Pipeline struct {
	middlewares []Middleware
}

// NewPipeline creates a new middleware pipeline
func NewPipeline() *Pipeline {
	return &Pipeline{
		middlewares: make([]Middleware, 0, 4),
	}
}

// Use appends a middleware. The first one added runs outermost.
func (p *Pipeline) Use(mw Middleware) *Pipeline {
	p.middlewares = append(p.middlewares, mw)
	return p
}

// Then composes the chain around final
func (p *Pipeline) Then(final ConnHandler) ConnHandler {
	h := final
	for i := len(p.middlewares) - 1; i >= 0; i-- {
		h = p.middlewares[i](h)
	}
	return h
}

// Recovery recovers from panics so a failing connection never reaches the
// listener. The connection is closed.
func Recovery() Middleware {
	return func(next ConnHandler) ConnHandler {
		return func(conn net.Conn) {
			defer func() {
				if err := recover(); err != nil {
					log.Printf("Panic recovered: %v\n%s", err, debug.Stack())
					conn.Close()
				}
			}()
			next(conn)
		}
	}
}

// Deadline bounds the time spent reading the request and writing the
// response. A zero duration leaves that side unbounded.
func Deadline(read, write time.Duration) Middleware {
	return func(next ConnHandler) ConnHandler {
		if read <= 0 && write <= 0 {
			return next
		}
		return func(conn net.Conn) {
			now := time.Now()
			if read > 0 {
				conn.SetReadDeadline(now.Add(read))
			}
			if write > 0 {
				conn.SetWriteDeadline(now.Add(read + write))
			}
			next(conn)
		}
	}
}

// Logger logs connection arrival and service time
func Logger() Middleware {
	return func(next ConnHandler) ConnHandler {
		return func(conn net.Conn) {
			start := time.Now()
			log.Printf("New client connected: %s", conn.RemoteAddr())
			next(conn)
			log.Printf("Client %s served in %v", conn.RemoteAddr(), time.Since(start))
		}
	}
}
