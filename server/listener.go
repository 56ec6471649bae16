package server

import (
	"context"
	"net"

	gokitlog "github.com/go-kit/log"
	"github.com/go-kit/log/level"
	metrics "github.com/rcrowley/go-metrics"
	"golang.org/x/net/netutil"
	"golang.org/x/sync/errgroup"

	"github.com/vonnegut/vonnegut/protocol"
)

// Config holds the listener's own knobs; the per-partition log_dirs /
// segment_bytes / etc. configuration belongs to log.Config (spec §6
// explicitly scopes those two concerns separately).
type Config struct {
	ListenAddr string
	// MaxConnections caps concurrently accepted connections via
	// golang.org/x/net/netutil.LimitListener; 0 means unbounded. The
	// acceptor and connection pool are themselves out of scope for the
	// engine (spec §1) — this is deliberately the thinnest possible
	// wrapper around net.Listen plus that one library call.
	MaxConnections int
}

// Listener is the TCP front door: accept connections, frame requests in
// (spec §4.1), dispatch them, frame responses out. It holds no partition
// state itself.
type Listener struct {
	cfg        *Config
	dispatcher *Dispatcher
	logger     gokitlog.Logger
	metrics    metrics.Registry
}

// NewListener wires a Listener. metricRegistry is the same registry
// Dispatcher's per-topic meters and per-partition histograms are
// registered against (SPEC_FULL §2) — EncodeResponse below is handed
// this registry rather than nil, so its wire-level meter hooks observe
// real outgoing response traffic. Pass nil to get a private, unread
// registry.
func NewListener(cfg *Config, dispatcher *Dispatcher, logger gokitlog.Logger, metricRegistry metrics.Registry) *Listener {
	if logger == nil {
		logger = gokitlog.NewNopLogger()
	}
	if metricRegistry == nil {
		metricRegistry = metrics.NewRegistry()
	}
	return &Listener{cfg: cfg, dispatcher: dispatcher, logger: logger, metrics: metricRegistry}
}

// ListenAndServe accepts connections until ctx is cancelled or Accept
// fails, serving each on its own goroutine tracked by an errgroup. When
// ctx is cancelled it waits for every connection goroutine to return;
// connection-handling errors are logged by serve, never returned.
func (l *Listener) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", l.cfg.ListenAddr)
	if err != nil {
		return err
	}
	if l.cfg.MaxConnections > 0 {
		ln = netutil.LimitListener(ln, l.cfg.MaxConnections)
	}

	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	g, gctx := errgroup.WithContext(ctx)
	level.Info(l.logger).Log("msg", "listening", "addr", ln.Addr().String())
	for {
		conn, err := ln.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return g.Wait()
			default:
				return err
			}
		}
		g.Go(func() error {
			l.serve(gctx, conn)
			return nil
		})
	}
}

// serve reads length-prefixed request frames from conn, dispatches each,
// and writes the length-prefixed response frame back, until the
// connection closes or a frame fails to decode (spec §8 seed scenario 6:
// a corrupt/truncated frame closes the connection without mutating any
// partition state).
func (l *Listener) serve(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	buf := make([]byte, 0, 4096)
	chunk := make([]byte, 4096)

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		status, payload, needed, err := protocol.ParseFrame(buf)
		if err != nil {
			level.Warn(l.logger).Log("msg", "corrupt frame, closing connection", "err", err)
			return
		}
		if status == protocol.FrameReady {
			if !l.handleFrame(conn, payload) {
				return
			}
			buf = append(buf[:0], buf[needed:]...)
			continue
		}

		if needed > protocol.MaxFrameSize+4 {
			level.Warn(l.logger).Log("msg", "frame too large, closing connection")
			return
		}

		n, err := conn.Read(chunk)
		if n > 0 {
			buf = append(buf, chunk[:n]...)
		}
		if err != nil {
			return
		}
	}
}

// handleFrame decodes and dispatches one already-framed request, writing
// its response back on conn. It returns false when the connection should
// be closed instead of waiting for another frame: a structurally-framed
// but undecodable payload has no request shape to reply to (no known api
// key/correlation_id to address a response to), so per spec §7 the
// connection is dropped rather than leaving the client waiting forever
// for a reply that will never come.
func (l *Listener) handleFrame(conn net.Conn, payload []byte) bool {
	req, _, err := protocol.DecodeRequest(payload)
	if err != nil {
		level.Warn(l.logger).Log("msg", "corrupt request payload, closing connection", "err", err)
		return false
	}

	body, err := l.dispatcher.Dispatch(req)
	if err != nil {
		level.Error(l.logger).Log("msg", "dispatch failed", "correlation_id", req.CorrelationID, "err", err)
		return true
	}

	var encoded []byte
	switch respBody := body.(type) {
	case *protocol.ProduceResponse:
		encoded, err = protocol.EncodeResponse(req.CorrelationID, respBody, l.metrics)
	case *protocol.FetchResponse:
		encoded, err = protocol.EncodeResponse(req.CorrelationID, respBody, l.metrics)
	case *protocol.MetadataResponse:
		encoded, err = protocol.EncodeResponse(req.CorrelationID, respBody, l.metrics)
	case *protocol.TopicsResponse:
		encoded, err = protocol.EncodeResponse(req.CorrelationID, respBody, l.metrics)
	default:
		level.Error(l.logger).Log("msg", "dispatcher returned unencodable response type")
		return true
	}
	if err != nil {
		level.Error(l.logger).Log("msg", "failed to encode response", "err", err)
		return true
	}

	if _, err := conn.Write(protocol.EncodeFrame(encoded)); err != nil {
		level.Warn(l.logger).Log("msg", "failed to write response", "err", err)
	}
	return true
}
