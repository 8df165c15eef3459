// Package server carries framed NRPPa PDUs over TCP. It feeds inbound PDUs to a
// Handler and routes outbound PDUs back to the connection their route key last
// arrived on.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/danmuck/nrppa/internal/nrppa"
	"github.com/danmuck/nrppa/internal/protocol/frame"
	"github.com/rs/zerolog"
)

var (
	ErrNoRoute = errors.New("server: no connection for route key")
	ErrClosed  = errors.New("server: connection closed")
)

// Handler consumes one inbound PDU.
type Handler interface {
	HandleMessage(ctx context.Context, pdu []byte, key nrppa.RouteKey) error
}

type peer struct {
	id     uint64
	conn   net.Conn
	wmu    sync.Mutex
	closed atomic.Bool
}

// Server is the framed transport and the upward notifier for the entity.
type Server struct {
	limits frame.Limits
	logger zerolog.Logger

	mu     sync.RWMutex
	routes map[nrppa.RouteKey]*peer
	peers  map[uint64]*peer
	nextID atomic.Uint64
	active atomic.Int64
	wg     sync.WaitGroup
}

var _ nrppa.Notifier = (*Server)(nil)

func New(limits frame.Limits, logger zerolog.Logger) *Server {
	return &Server{
		limits: limits,
		logger: logger.With().Str("component", "server").Logger(),
		routes: make(map[nrppa.RouteKey]*peer),
		peers:  make(map[uint64]*peer),
	}
}

// Serve accepts connections on ln until ctx is cancelled, then closes every
// connection and waits for their readers to exit.
func (s *Server) Serve(ctx context.Context, ln net.Listener, h Handler) error {
	defer ln.Close()
	go func() {
		<-ctx.Done()
		_ = ln.Close()
		s.closeAll()
	}()
	s.logger.Info().Str("addr", ln.Addr().String()).Msg("nrppa transport listening")

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				s.wg.Wait()
				return nil
			}
			return err
		}
		p := s.track(conn)
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.handleConn(ctx, p, h)
		}()
	}
}

// Send frames pdu back toward the peer that owns key.
func (s *Server) Send(ctx context.Context, pdu []byte, key nrppa.RouteKey) error {
	s.mu.RLock()
	p, ok := s.routes[key]
	s.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %d", ErrNoRoute, key)
	}
	if p.closed.Load() {
		return ErrClosed
	}

	p.wmu.Lock()
	defer p.wmu.Unlock()
	deadline := time.Time{}
	if d, ok := ctx.Deadline(); ok {
		deadline = d
	}
	_ = p.conn.SetWriteDeadline(deadline)
	return frame.WriteFrame(p.conn, frame.New(uint64(key), frame.FlagIsResponse, pdu), s.limits)
}

// Active is the number of open connections.
func (s *Server) Active() int64 {
	return s.active.Load()
}

func (s *Server) handleConn(ctx context.Context, p *peer, h Handler) {
	defer s.untrack(p)
	remote := p.conn.RemoteAddr().String()
	logger := s.logger.With().Str("remote", remote).Uint64("conn", p.id).Logger()
	logger.Info().Int64("active", s.active.Load()).Msg("peer connected")

	for {
		f, err := frame.ReadFrame(p.conn, s.limits)
		if err != nil {
			switch {
			case errors.Is(err, io.EOF), errors.Is(err, net.ErrClosed), ctx.Err() != nil:
				logger.Info().Msg("peer disconnected")
			default:
				logger.Warn().Err(err).Msg("frame read failed, closing connection")
			}
			return
		}
		key := nrppa.RouteKey(f.Header.RouteKey)
		s.route(key, p)
		if err := h.HandleMessage(ctx, f.Payload, key); err != nil {
			logger.Debug().Err(err).Uint64("route", uint64(key)).Msg("pdu rejected")
		}
	}
}

func (s *Server) track(conn net.Conn) *peer {
	p := &peer{id: s.nextID.Add(1), conn: conn}
	s.mu.Lock()
	s.peers[p.id] = p
	s.mu.Unlock()
	s.active.Add(1)
	return p
}

func (s *Server) untrack(p *peer) {
	p.closed.Store(true)
	_ = p.conn.Close()
	s.mu.Lock()
	delete(s.peers, p.id)
	for key, owner := range s.routes {
		if owner == p {
			delete(s.routes, key)
		}
	}
	s.mu.Unlock()
	s.active.Add(-1)
}

func (s *Server) route(key nrppa.RouteKey, p *peer) {
	s.mu.Lock()
	s.routes[key] = p
	s.mu.Unlock()
}

func (s *Server) closeAll() {
	s.mu.RLock()
	peers := make([]*peer, 0, len(s.peers))
	for _, p := range s.peers {
		peers = append(peers, p)
	}
	s.mu.RUnlock()
	for _, p := range peers {
		p.closed.Store(true)
		_ = p.conn.Close()
	}
}
