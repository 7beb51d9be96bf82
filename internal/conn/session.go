// Package conn implements the exchange's per-client connection I/O layer:
// frame accumulation off a raw net.Conn into a per-session SPSC inbound
// ring, and a per-session SPSC outbound ring drained by a dedicated writer
// goroutine, so a slow or malicious client can never block the engine's
// single dispatch goroutine or another client's session.
//
// Grounded on original_source/saiputravu-Exchange/internal/net/server.go's
// session/worker-pool pattern (tomb-supervised accept loop, per-connection
// read buffer sized MAX_RECV_SIZE) generalized from a single fixed read
// buffer and ad hoc message channel to an accumulating frame reader over
// internal/queue.Ring, per the lock-free-fast-path requirement.
package conn

import (
	"errors"
	"fmt"
	"net"
	"sync"

	"clob/internal/queue"
	"clob/internal/wire"
)

// ErrSessionClosed is returned once a session has been torn down.
var ErrSessionClosed = errors.New("conn: session closed")

// ErrNoBufferSpace is returned by Send when the session's outbound ring is
// full: the message is dropped rather than growing memory or blocking the
// producer.
var ErrNoBufferSpace = errors.New("conn: no buffer space")

const (
	inboundRingCapacity  = 1024
	outboundRingCapacity = 1024
	readScratchSize      = 4096
)

// Frame is one decoded message ready for payload-specific decoding.
type Frame struct {
	Type    wire.MessageType
	Payload []byte
}

// Session wraps one accepted TCP connection. Its inbound ring is written
// only by readLoop and drained only by pump; its outbound ring is written
// only by the engine (via Send) and drained only by writeLoop — each ring
// therefore has exactly one producer and one consumer, as required.
type Session struct {
	ID   uint32
	conn net.Conn

	inbound  *queue.Ring[InboundMessage]
	outbound *queue.Ring[OutboundMessage]

	inboundReady  chan struct{} // size-1, coalesced wake for pump
	outboundReady chan struct{} // size-1, coalesced wake for writeLoop

	closeMu sync.Mutex
	closed  bool
	done    chan struct{}
}

func newSession(id uint32, c net.Conn) *Session {
	return &Session{
		ID:            id,
		conn:          c,
		inbound:       queue.NewRing[InboundMessage](inboundRingCapacity),
		outbound:      queue.NewRing[OutboundMessage](outboundRingCapacity),
		inboundReady:  make(chan struct{}, 1),
		outboundReady: make(chan struct{}, 1),
		done:          make(chan struct{}),
	}
}

func wake(ch chan struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}

// Send enqueues a reply or market-data event for the writer goroutine.
// Non-blocking: a full outbound ring drops the message and returns
// ErrNoBufferSpace; the session stays open.
func (s *Session) Send(t wire.MessageType, payload []byte) error {
	var msg OutboundMessage
	msg.Type = t
	msg.Size = uint16(len(payload))
	if len(payload) > len(msg.Payload) {
		return fmt.Errorf("conn: payload too large for buffered path: %d", len(payload))
	}
	copy(msg.Payload[:], payload)
	if !s.outbound.TryPush(msg) {
		return ErrNoBufferSpace
	}
	wake(s.outboundReady)
	return nil
}

// SendLarge writes a frame directly on the connection, bypassing the
// bounded outbound ring, for the one oversized payload the spec carves out
// an unbuffered path for (the order-book snapshot on subscribe): dropping
// it under backpressure would leave a new subscriber without a baseline
// view, so it must never be silently discarded.
func (s *Session) SendLarge(t wire.MessageType, payload []byte) error {
	s.closeMu.Lock()
	defer s.closeMu.Unlock()
	if s.closed {
		return ErrSessionClosed
	}
	frame := make([]byte, wire.HeaderSize+len(payload))
	wire.EncodeHeader(frame, t, uint16(len(payload)))
	copy(frame[wire.HeaderSize:], payload)
	if _, err := s.conn.Write(frame); err != nil {
		return fmt.Errorf("conn: send large: %w", err)
	}
	return nil
}

func (s *Session) Close() {
	s.closeMu.Lock()
	defer s.closeMu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	close(s.done)
	_ = s.conn.Close()
}

// writeLoop drains the outbound ring in batches whenever woken, coalescing
// consecutive already-queued frames into one net.Conn.Write.
func (s *Session) writeLoop() {
	var scratch []byte
	for {
		select {
		case <-s.done:
			return
		case <-s.outboundReady:
			scratch = scratch[:0]
			for {
				msg, ok := s.outbound.TryPop()
				if !ok {
					break
				}
				header := [wire.HeaderSize]byte{}
				wire.EncodeHeader(header[:], msg.Type, msg.Size)
				scratch = append(scratch, header[:]...)
				scratch = append(scratch, msg.Payload[:msg.Size]...)
			}
			if len(scratch) == 0 {
				continue
			}
			if _, err := s.conn.Write(scratch); err != nil {
				s.Close()
				return
			}
		}
	}
}

// pump drains the inbound ring whenever readLoop signals new data, handing
// each decoded frame to the server's shared dispatch queue for the
// engine's single consumer goroutine. This is the bridge between the
// per-session SPSC boundary and the engine's one logical inbound stream.
func (s *Session) pump(dispatch chan<- sessionFrame) {
	for {
		select {
		case <-s.done:
			return
		case <-s.inboundReady:
			for {
				msg, ok := s.inbound.TryPop()
				if !ok {
					break
				}
				payload := make([]byte, msg.Size)
				copy(payload, msg.Payload[:msg.Size])
				select {
				case dispatch <- sessionFrame{session: s, frame: Frame{Type: msg.Type, Payload: payload}}:
				case <-s.done:
					return
				}
			}
		}
	}
}

// readLoop accumulates bytes off the connection into whole frames and
// pushes them onto the session's own inbound ring, grounded on the
// teacher's fixed MAX_RECV_SIZE scratch buffer generalized to a growable
// accumulator so frames may span multiple reads.
func (s *Session) readLoop() {
	scratch := make([]byte, readScratchSize)
	var acc []byte

	for {
		n, err := s.conn.Read(scratch)
		if err != nil {
			s.Close()
			return
		}
		acc = append(acc, scratch[:n]...)

		for len(acc) >= wire.HeaderSize {
			t, size := wire.DecodeHeader(acc)
			if err := wire.ValidateFrame(t, size); err != nil {
				s.Close()
				return
			}
			if int(size) > wire.MaxPayloadSizeBuffer {
				s.Close()
				return
			}
			total := wire.HeaderSize + int(size)
			if len(acc) < total {
				break
			}

			var msg InboundMessage
			msg.SessionID = s.ID
			msg.Type = t
			msg.Size = size
			copy(msg.Payload[:], acc[wire.HeaderSize:total])

			if !s.inbound.TryPush(msg) {
				s.Close()
				return
			}
			wake(s.inboundReady)

			acc = acc[total:]
		}

		// Compact: avoid retaining an ever-growing backing array once the
		// accumulator has drained below one header's worth of residue.
		if len(acc) == 0 && cap(scratch) > 0 {
			acc = acc[:0]
		}
	}
}

type sessionFrame struct {
	session *Session
	frame   Frame
}
