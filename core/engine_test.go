package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"sync"
	"testing"
	"time"
)

func startEngine(t *testing.T, maxThreads int) (*Engine, net.Addr, chan error) {
	t.Helper()

	cfg := testConfig(t)
	cfg.MaxThreads = maxThreads
	cfg.ReadTimeout = 5

	e, err := NewEngine(cfg)
	if err != nil {
		t.Fatal(err)
	}

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}

	done := make(chan error, 1)
	go func() {
		done <- e.Serve(ln)
	}()
	return e, ln.Addr(), done
}

func fetch(addr net.Addr, raw string) (string, error) {
	conn, err := net.DialTimeout("tcp", addr.String(), 5*time.Second)
	if err != nil {
		return "", err
	}
	defer conn.Close()
	conn.SetDeadline(time.Now().Add(5 * time.Second))

	if _, err := io.WriteString(conn, raw); err != nil {
		return "", err
	}
	resp, err := io.ReadAll(conn)
	return string(resp), err
}

func TestEngineServe(t *testing.T) {
	e, addr, done := startEngine(t, 4)

	resp, err := fetch(addr, "GET / HTTP/1.1\r\nHost: localhost\r\n\r\n")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(resp, "HTTP/1.1 200 OK\r\n") || !strings.HasSuffix(resp, indexHTML) {
		t.Errorf("Unexpected response %q", resp)
	}

	if err := e.Shutdown(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := <-done; !errors.Is(err, ErrServerClosed) {
		t.Errorf("Expected ErrServerClosed, got %v", err)
	}

	if s := e.Monitor().Snapshot(); s.TotalRequests != 1 {
		t.Errorf("Expected 1 recorded request, got %d", s.TotalRequests)
	}
}

func TestEngineConcurrentClients(t *testing.T) {
	e, addr, done := startEngine(t, 3)

	const clients = 24
	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		failed []string
	)

	for i := 0; i < clients; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()

			target := "/notes.txt"
			want := "HTTP/1.1 200 OK\r\n"
			if i%3 == 0 {
				target = fmt.Sprintf("/missing-%d.html", i)
				want = "HTTP/1.1 404 Not Found\r\n"
			}

			resp, err := fetch(addr, "GET "+target+" HTTP/1.1\r\n\r\n")
			if err != nil || !strings.HasPrefix(resp, want) {
				mu.Lock()
				failed = append(failed, fmt.Sprintf("client %d: %q %v", i, resp, err))
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()

	for _, f := range failed {
		t.Error(f)
	}

	if err := e.Shutdown(context.Background()); err != nil {
		t.Fatal(err)
	}
	<-done

	if s := e.Monitor().Snapshot(); s.TotalRequests != clients {
		t.Errorf("Expected %d recorded requests, got %d", clients, s.TotalRequests)
	}
}

func TestEngineShutdownWaitsForInFlight(t *testing.T) {
	e, addr, done := startEngine(t, 2)

	// a client that sends a partial head keeps its worker busy
	conn, err := net.Dial("tcp", addr.String())
	if err != nil {
		t.Fatal(err)
	}
	io.WriteString(conn, "GET /notes.txt HTTP/1.1\r\n")
	time.Sleep(50 * time.Millisecond)

	shutdown := make(chan error, 1)
	go func() {
		shutdown <- e.Shutdown(context.Background())
	}()

	select {
	case err := <-shutdown:
		t.Fatalf("Shutdown returned before the in-flight request finished: %v", err)
	case <-time.After(50 * time.Millisecond):
	}

	io.WriteString(conn, "\r\n")
	resp, _ := io.ReadAll(conn)
	conn.Close()
	if !strings.HasPrefix(string(resp), "HTTP/1.1 200 OK\r\n") {
		t.Errorf("In-flight request not completed: %q", resp)
	}

	if err := <-shutdown; err != nil {
		t.Errorf("Shutdown: %v", err)
	}
	<-done
}

func TestEngineShutdownDeadline(t *testing.T) {
	e, addr, done := startEngine(t, 1)

	conn, err := net.Dial("tcp", addr.String())
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()
	io.WriteString(conn, "GET / HTTP/1.1\r\n")
	time.Sleep(50 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if err := e.Shutdown(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Expected DeadlineExceeded, got %v", err)
	}
	<-done
}

func TestEngineServeAfterShutdown(t *testing.T) {
	cfg := testConfig(t)
	e, err := NewEngine(cfg)
	if err != nil {
		t.Fatal(err)
	}
	e.Shutdown(context.Background())

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	if err := e.Serve(ln); !errors.Is(err, ErrServerClosed) {
		t.Errorf("Expected ErrServerClosed, got %v", err)
	}
}

func TestEngineRun(t *testing.T) {
	cfg := testConfig(t)
	cfg.Port = 0
	cfg.ReusePort = true

	e, err := NewEngine(cfg)
	if err != nil {
		t.Fatal(err)
	}

	done := make(chan error, 1)
	go func() {
		done <- e.Run("127.0.0.1:0")
	}()

	var addr net.Addr
	for i := 0; i < 100 && addr == nil; i++ {
		time.Sleep(10 * time.Millisecond)
		addr = e.Addr()
	}
	if addr == nil {
		t.Fatal("engine did not start listening")
	}

	resp, err := fetch(addr, "HEAD /notes.txt HTTP/1.1\r\n\r\n")
	if err != nil {
		t.Fatal(err)
	}
	want := "HTTP/1.1 200 OK\r\nContent-Type: text/plain\r\nContent-Length: 11\r\nConnection: close\r\n\r\n"
	if resp != want {
		t.Errorf("Expected %q, got %q", want, resp)
	}

	e.Shutdown(context.Background())
	if err := <-done; !errors.Is(err, ErrServerClosed) {
		t.Errorf("Expected ErrServerClosed, got %v", err)
	}
}

func TestEngineStats(t *testing.T) {
	e, addr, done := startEngine(t, 2)

	if _, err := fetch(addr, "GET /notes.txt HTTP/1.1\r\nchunked: yes\r\n\r\n"); err != nil {
		t.Fatal(err)
	}
	e.Shutdown(context.Background())
	<-done

	stats := e.GetStats()
	if stats.Workers.Workers != 2 || stats.Workers.Completed != 1 {
		t.Errorf("Unexpected worker stats %+v", stats.Workers)
	}
	if stats.Buffers.Gets == 0 {
		t.Error("Expected the chunked response to use the buffer pool")
	}
	if len(stats.Requests) != 1 || stats.Requests[0].Route != "GET 200" {
		t.Errorf("Unexpected request stats %+v", stats.Requests)
	}

	if js := e.GetStatsJSON(); !strings.Contains(js, `"route": "GET 200"`) {
		t.Errorf("Route missing from JSON stats: %s", js)
	}
	if text := e.GetStatsText(); !strings.Contains(text, "GET 200") {
		t.Errorf("Route missing from text stats: %s", text)
	}
}
