package proxy

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// ContextDialer abstracts the origin connection step, the proxy's only
// outbound dependency, so tests can substitute an in-process listener
// instead of a real TCP dial. Modelled on the context-aware dialer pattern
// used elsewhere in this codebase's ancestry for exactly this purpose.
type ContextDialer func(ctx context.Context, network, addr string) (net.Conn, error)

// Config configures a Server. The zero Config selects the reference
// defaults for every limit.
type Config struct {
	Addr          string
	MaxObjectSize int
	MaxCacheSize  int
	Verbose       bool
}

// Server is a proxy context: the acceptor loop, the shared cache, and the
// dependencies a connection goroutine needs, bundled into one value
// instead of scattered across package globals.
type Server struct {
	cfg   Config
	cache *Cache
	log   *logrus.Logger
	dial  ContextDialer

	draining atomic.Bool
}

// NewServer builds a Server ready to Serve. dial may be nil to use a
// plain net.Dialer.
func NewServer(cfg Config, dial ContextDialer) *Server {
	if dial == nil {
		var d net.Dialer
		dial = d.DialContext
	}
	return &Server{
		cfg:   cfg,
		cache: NewCache(cfg.MaxObjectSize, cfg.MaxCacheSize),
		log:   newLogger(cfg.Verbose),
		dial:  dial,
	}
}

// Cache exposes the server's object cache, mainly for tests and for the
// CLI's stats reporting.
func (s *Server) Cache() *Cache { return s.cache }

// Serve runs the acceptor loop on ln until ctx is cancelled; any other
// Accept error is logged and the loop keeps accepting. Each accepted
// connection is handed to its own detached goroutine; Serve never waits
// for them.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	// SIGPIPE on a socket write surfaces in Go as an EPIPE error return,
	// not as process-terminating signal delivery, but the ignore is kept
	// explicit here rather than relying on that runtime behaviour being
	// obvious to the reader.
	signal.Ignore(syscall.SIGPIPE)

	go func() {
		<-ctx.Done()
		s.draining.Store(true)
		ln.Close()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if s.draining.Load() {
				return nil
			}
			s.log.WithError(err).Warn("accept failed, continuing")
			continue
		}
		go s.handleConn(ctx, conn)
	}
}

// ListenAndServe is the CLI entry point: it binds cfg.Addr, installs a
// SIGINT handler that drains the acceptor loop (the handler only flips a
// flag; the actual cleanup happens on the main goroutine, not inside
// signal delivery), and serves until shutdown.
func (s *Server) ListenAndServe() error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return errors.Wrapf(err, "listen on %s", s.cfg.Addr)
	}

	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT)
	go func() {
		<-sigCh
		s.log.Info("SIGINT received, draining")
		cancel()
	}()

	return s.Serve(ctx, ln)
}

func (s *Server) handleConn(ctx context.Context, conn net.Conn) {
	defer conn.Close()
	entry := s.log.WithField("remote", conn.RemoteAddr())

	reader := bufio.NewReader(conn)
	line, err := reader.ReadString('\n')
	if err != nil {
		s.writeError(conn, badRequest("no request line"))
		return
	}

	req, err := ParseRequestLine(line)
	if err != nil {
		s.writeError(conn, err)
		return
	}
	entry = entry.WithFields(logrus.Fields{"host": req.Host, "path": req.Path, "port": req.Port})

	if body, ok, err := s.cache.Lookup(ctx, req.Fingerprint()); err == nil && ok {
		entry.Debug("cache hit")
		drainHeaders(reader)
		if _, err := conn.Write(body); err != nil {
			entry.WithError(err).Debug("client write failed")
		}
		return
	}

	origin, err := s.dial(ctx, "tcp", net.JoinHostPort(req.Host, req.Port))
	if err != nil {
		s.writeError(conn, badGateway(errors.Wrap(err, "dial origin").Error()))
		return
	}
	defer origin.Close()

	if err := forwardOrigin(ctx, origin, conn, req, reader, s.cache); err != nil {
		entry.WithError(err).Debug("forward failed")
		if _, partial := err.(*partialResponseError); partial {
			return
		}
		s.writeError(conn, err)
	}
}

// drainHeaders discards the remainder of the client's header block on a
// cache hit: the proxy still must read past it, even though it serves the
// cached bytes without ever looking at the headers' contents.
func drainHeaders(r *bufio.Reader) {
	for {
		line, err := r.ReadString('\n')
		if err != nil || isBlankHeaderLine(line) {
			return
		}
	}
}

func (s *Server) writeError(w io.Writer, err error) {
	se, ok := err.(*StatusError)
	if !ok {
		se = &StatusError{Code: 502, Reason: "Bad Gateway", Detail: err.Error()}
	}
	io.WriteString(w, fmt.Sprintf("HTTP/1.0 %d %s\r\n", se.Code, se.Reason))
	io.WriteString(w, "Content-Type: text/html\r\n\r\n")
	io.WriteString(w, se.htmlBody())
}
