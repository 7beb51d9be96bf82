package conn

import (
	"context"
	"fmt"
	"net"
	"sync"
	"sync/atomic"

	"clob/internal/wire"

	"github.com/rs/zerolog/log"
	tomb "gopkg.in/tomb.v2"
)

// Handler receives decoded frames and lifecycle events from the connection
// layer. The engine implements this; the connection layer knows nothing of
// wire payload semantics beyond the frame header.
type Handler interface {
	OnConnect(s *Session)
	OnMessage(s *Session, f Frame)
	OnDisconnect(clientID uint32)
}

// inboundQueueDepth bounds the channel feeding the single dispatch
// goroutine; a burst beyond this briefly blocks the sessions' pump
// goroutines rather than growing memory unboundedly (a session whose own
// inbound ring then fills is closed by its readLoop).
const inboundQueueDepth = 65536

// Server accepts TCP connections, frames their bytes, and hands decoded
// frames to a single-threaded Handler. One reader and one writer goroutine
// run per session; a single dispatch goroutine serializes delivery to the
// handler, matching the spec's single-writer-to-the-book design.
//
// The handler is wired via SetHandler rather than a constructor parameter:
// the engine and the server have a genuine construction cycle (the server
// needs a Handler to exist, the engine's Broadcaster needs a *Server to
// exist), unlike the book's Sink, which the spec explicitly requires fixed
// at construction. SetHandler must be called exactly once, before Run.
type Server struct {
	address string
	port    int
	handler Handler

	mu      sync.Mutex
	clients map[uint32]*Session
	nextID  atomic.Uint32

	frames chan sessionFrame
	cancel context.CancelFunc
}

func NewServer(address string, port int) *Server {
	return &Server{
		address: address,
		port:    port,
		clients: make(map[uint32]*Session),
		frames:  make(chan sessionFrame, inboundQueueDepth),
	}
}

// SetHandler wires the message handler. Must be called before Run.
func (s *Server) SetHandler(h Handler) {
	s.handler = h
}

// Run blocks until ctx is cancelled or the listener fails, accepting
// connections and driving the dispatch loop. Grounded on
// saiputravu-Exchange/internal/net/server.go's Run, generalized to the
// frame-accumulating session model instead of a fixed single-read buffer.
func (s *Server) Run(ctx context.Context) error {
	ctx, s.cancel = context.WithCancel(ctx)
	t, ctx := tomb.WithContext(ctx)

	var lc net.ListenConfig
	listener, err := lc.Listen(ctx, "tcp", fmt.Sprintf("%s:%d", s.address, s.port))
	if err != nil {
		return fmt.Errorf("conn: listen: %w", err)
	}
	defer func() {
		if err := listener.Close(); err != nil {
			log.Error().Err(err).Msg("conn: error closing listener")
		}
	}()

	t.Go(func() error {
		s.dispatchLoop(t)
		return nil
	})

	log.Info().Str("address", listener.Addr().String()).Msg("conn: listening")

	t.Go(func() error {
		<-t.Dying()
		return listener.Close()
	})

	for {
		c, err := listener.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return t.Wait()
			default:
				log.Error().Err(err).Msg("conn: accept error")
				continue
			}
		}
		s.acceptSession(t, c)
	}
}

func (s *Server) acceptSession(t *tomb.Tomb, c net.Conn) {
	id := s.nextID.Add(1)
	session := newSession(id, c)

	s.mu.Lock()
	s.clients[id] = session
	s.mu.Unlock()

	log.Info().Uint32("client_id", id).Str("remote", c.RemoteAddr().String()).Msg("conn: client connected")
	s.handler.OnConnect(session)

	t.Go(func() error {
		session.writeLoop()
		return nil
	})
	t.Go(func() error {
		session.pump(s.frames)
		return nil
	})
	t.Go(func() error {
		session.readLoop()
		s.removeSession(id)
		return nil
	})
}

func (s *Server) removeSession(id uint32) {
	s.mu.Lock()
	delete(s.clients, id)
	s.mu.Unlock()
	log.Info().Uint32("client_id", id).Msg("conn: client disconnected")
	s.handler.OnDisconnect(id)
}

func (s *Server) dispatchLoop(t *tomb.Tomb) {
	for {
		select {
		case <-t.Dying():
			return
		case sf := <-s.frames:
			s.handler.OnMessage(sf.session, sf.frame)
		}
	}
}

// Shutdown cancels the accept loop and every session.
func (s *Server) Shutdown() {
	if s.cancel != nil {
		s.cancel()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, session := range s.clients {
		session.Close()
	}
}

// Broadcast sends the same message to every listed client, used for
// market-data fan-out (trade/level/book events) to subscribers. Per-session
// send failures are non-fatal; a message to a backpressured session is
// dropped and the session stays connected.
func (s *Server) Broadcast(clientIDs []uint32, t wire.MessageType, payload []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range clientIDs {
		if session, ok := s.clients[id]; ok {
			_ = session.Send(t, payload)
		}
	}
}

// SessionByID returns the live session for a client id, if connected.
func (s *Server) SessionByID(id uint32) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.clients[id]
	return session, ok
}
