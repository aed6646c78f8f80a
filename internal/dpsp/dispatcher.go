// Package dpsp implements the DPSP command dispatcher: it consumes
// decoded DPSP headers and routes by command to handlers that mutate
// Session state and emit reply messages over TCP or through
// ReliableTransport.
package dpsp

import (
	"encoding/binary"

	"go.uber.org/zap"

	"github.com/dplayhost/dplayhost/internal/metrics"
	"github.com/dplayhost/dplayhost/internal/session"
	"github.com/dplayhost/dplayhost/internal/wire"
)

// Outcome is the result of attempting to parse one DPSP message from a
// byte buffer.
type Outcome int

const (
	// Complete indicates one message of Consumed bytes was parsed (and,
	// where applicable, dispatched); the remaining buffer may hold
	// further messages.
	Complete Outcome = iota
	// Incomplete indicates the caller must read at least Wanted bytes
	// total before retrying.
	Incomplete
	// Rejected indicates a signature or version mismatch.
	Rejected
)

// Result carries the outcome of a single parse attempt.
type Result struct {
	Outcome  Outcome
	Consumed int // valid when Outcome == Complete
	Wanted   int // valid when Outcome == Incomplete
}

// Outgoing abstracts the per-client sockets a command handler may need
// to reply over, so this package can be tested without real sockets.
type Outgoing interface {
	// EnsureTCP opens the outbound TCP connection to the client if it
	// isn't already open.
	EnsureTCP() error
	// SendTCP writes data over the (already-open) outbound TCP
	// connection.
	SendTCP(data []byte) error
	// ConnectUDP connects the per-client UDP socket to the client's
	// address at the server's outgoing port.
	ConnectUDP() error
	// OutgoingPort is the server-side port advertised in reply headers
	// and used to reach this client's well-known inbound port.
	OutgoingPort() uint16
}

// ClientState is the DPSP-relevant subset of a client connection's
// state: the system-player-id it has been assigned (if any) and the
// sockets used to reply to it.
type ClientState struct {
	HasSystemPlayer bool
	SystemPlayerID  uint32

	Out Outgoing
}

// Dispatcher routes decoded DPSP messages to handlers.
type Dispatcher struct {
	Session *session.Session
	Log     *zap.SugaredLogger
	Met     *metrics.Metrics
}

// New creates a Dispatcher over the given Session.
func New(s *session.Session, log *zap.SugaredLogger, met *metrics.Metrics) *Dispatcher {
	return &Dispatcher{Session: s, Log: log, Met: met}
}

// HandleTCP parses and dispatches exactly one message from the front of
// buf, which carries the optional sizeToken/sockaddr prefix. TCP
// readers must buffer partial messages and re-invoke once Wanted bytes
// are available.
func (d *Dispatcher) HandleTCP(client *ClientState, buf []byte) Result {
	return d.handle(client, buf, true)
}

// HandleUDP parses and dispatches exactly one message from a discovery
// UDP datagram, which also carries the optional prefix.
func (d *Dispatcher) HandleUDP(client *ClientState, buf []byte) Result {
	return d.handle(client, buf, true)
}

// DispatchBody implements dprp.Dispatcher: bodies delivered by
// ReliableTransport omit the optional prefix.
func (d *Dispatcher) DispatchBody(body []byte) {
	d.handle(nil, body, false)
}

// DispatchBodyFor is like DispatchBody but with client context, used by
// the per-client wiring so DPRP-delivered commands (that is, just about
// all post-join traffic) still see the issuing client's state.
func (d *Dispatcher) DispatchBodyFor(client *ClientState, body []byte) {
	d.handle(client, body, false)
}

func (d *Dispatcher) handle(client *ClientState, buf []byte, withPrefix bool) Result {
	var total int
	var header wire.Header
	var off int
	var err error

	if withPrefix {
		// The sizeToken is the first 4 bytes; once those have arrived the
		// full message length is known even though the rest of the
		// prefix/header hasn't, so a short buffer can still name exactly
		// how many bytes the caller should wait for.
		const sizeTokenLen = 4
		if len(buf) < sizeTokenLen {
			return Result{Outcome: Incomplete, Wanted: sizeTokenLen}
		}
		total = int(binary.LittleEndian.Uint32(buf[0:4]) & 0xFFFFF)
		if len(buf) < total {
			return Result{Outcome: Incomplete, Wanted: total}
		}
		header, off, err = wire.DecodeHeader(buf[:total], true)
	} else {
		if len(buf) < wire.HeaderShortSize {
			return Result{Outcome: Incomplete, Wanted: wire.HeaderShortSize}
		}
		total = len(buf)
		header, off, err = wire.DecodeHeader(buf, false)
	}

	if err != nil {
		switch err.(type) {
		case wire.ErrBadSignature, wire.ErrUnsupportedVersion:
			if d.Met != nil {
				d.Met.DpspRejected.Add(1)
			}
			return Result{Outcome: Rejected}
		default:
			minHeader := wire.HeaderShortSize
			if withPrefix {
				minHeader = wire.HeaderFullSize
			}
			return Result{Outcome: Incomplete, Wanted: minHeader}
		}
	}

	if d.Met != nil {
		d.Met.DpspDispatched.Add(1)
	}

	d.dispatchCommand(client, header, buf[off:total])

	return Result{Outcome: Complete, Consumed: total}
}
