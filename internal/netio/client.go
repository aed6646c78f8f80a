// Package netio is the socket plumbing: TCP accept/read loops, the UDP
// discovery listener, and the per-client connection registry that
// drives Transport and Dispatcher. None of the wire-format or
// protocol-state logic lives here.
package netio

import (
	"fmt"
	"net"
	"sync"

	"go.uber.org/zap"

	"github.com/dplayhost/dplayhost/internal/dprp"
	"github.com/dplayhost/dplayhost/internal/dpsp"
	"github.com/dplayhost/dplayhost/internal/metrics"
)

// Client is the per-remote-address connection record: an inbound TCP
// socket, a lazily-opened outbound TCP socket, a UDP endpoint that
// becomes connected once the client reaches CreatePlayer, and the
// reliable-transport/dispatcher state threaded through them.
type Client struct {
	addr net.IP

	// port is the single well-known port shared by client and server for
	// both the outbound TCP dial-back and the per-client UDP connect:
	// this class of legacy LAN session host uses one symmetric
	// configured port for both directions rather than negotiating one.
	port uint16

	mu      sync.Mutex
	tcpIn   net.Conn
	tcpOut  net.Conn
	udpConn *net.UDPConn

	udpListener *net.UDPConn // the shared discovery/gameplay socket, used before ConnectUDP

	State     *dpsp.ClientState
	Transport *dprp.Transport

	log *zap.SugaredLogger
	met *metrics.Metrics
}

// NewClient wires a Client's DPRP transport and DPSP client state
// together. ticks supplies the session tick count for acks.
func NewClient(addr net.IP, tcpIn net.Conn, port uint16, sharedUDP *net.UDPConn, ticks dprp.TickSource, dispatcher *dpsp.Dispatcher, log *zap.SugaredLogger, met *metrics.Metrics) *Client {
	c := &Client{
		addr:        addr,
		tcpIn:       tcpIn,
		port:        port,
		udpListener: sharedUDP,
		log:         log,
		met:         met,
	}
	c.State = &dpsp.ClientState{Out: c}
	c.Transport = dprp.New(c, dispatcherAdapter{dispatcher: dispatcher, client: c}, ticks, log, met)
	return c
}

// dispatcherAdapter binds a DPRP-delivered body back to the client
// state that received it, so DpspDispatcher's handlers see the right
// ClientState even though dprp.Transport only knows about raw bodies.
type dispatcherAdapter struct {
	dispatcher *dpsp.Dispatcher
	client     *Client
}

func (a dispatcherAdapter) DispatchBody(body []byte) {
	a.dispatcher.DispatchBodyFor(a.client.State, body)
}

// EnsureTCP implements dpsp.Outgoing.
func (c *Client) EnsureTCP() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.tcpOut != nil {
		return nil
	}
	conn, err := net.Dial("tcp", fmt.Sprintf("%s:%d", c.addr, c.port))
	if err != nil {
		return fmt.Errorf("netio: outbound tcp dial: %w", err)
	}
	c.tcpOut = conn
	return nil
}

// SendTCP implements dpsp.Outgoing.
func (c *Client) SendTCP(data []byte) error {
	c.mu.Lock()
	conn := c.tcpOut
	c.mu.Unlock()

	if conn == nil {
		return fmt.Errorf("netio: outbound tcp not open")
	}

	for len(data) > 0 {
		n, err := conn.Write(data)
		if err != nil {
			return fmt.Errorf("netio: tcp write: %w", err)
		}
		data = data[n:]
	}
	return nil
}

// ConnectUDP implements dpsp.Outgoing: it connects the client's UDP
// endpoint, which from this point on is used for every DPRP send
// instead of the shared discovery/gameplay socket, and starts the
// read loop that feeds inbound DPRP frames on that socket to the
// transport.
func (c *Client) ConnectUDP() error {
	c.mu.Lock()
	if c.udpConn != nil {
		c.mu.Unlock()
		return nil
	}
	conn, err := net.DialUDP("udp", nil, &net.UDPAddr{IP: c.addr, Port: int(c.port)})
	if err != nil {
		c.mu.Unlock()
		return fmt.Errorf("netio: connect client udp: %w", err)
	}
	c.udpConn = conn
	c.mu.Unlock()

	go c.serveDPRP(conn)
	return nil
}

// serveDPRP reads DPRP frames off the client's connected UDP socket
// for as long as it stays open. It stops silently once the socket is
// closed (Close or a read error).
func (c *Client) serveDPRP(conn *net.UDPConn) {
	buf := make([]byte, 65536)
	for {
		n, err := conn.Read(buf)
		if err != nil {
			return
		}
		frame := append([]byte(nil), buf[:n]...)
		if err := c.Transport.HandleFrame(frame); err != nil && c.log != nil {
			c.log.Debugw("malformed dprp frame", "client", c.addr, "error", err)
		}
	}
}

// OutgoingPort implements dpsp.Outgoing.
func (c *Client) OutgoingPort() uint16 { return c.port }

// SendFrame implements dprp.Sender: frames are sent over the connected
// per-client UDP socket once available, falling back to the shared
// listener socket addressed explicitly beforehand.
func (c *Client) SendFrame(frame []byte) error {
	c.mu.Lock()
	conn := c.udpConn
	c.mu.Unlock()

	if conn != nil {
		_, err := conn.Write(frame)
		return err
	}
	if c.udpListener == nil {
		return fmt.Errorf("netio: no udp socket available for %s", c.addr)
	}
	_, err := c.udpListener.WriteToUDP(frame, &net.UDPAddr{IP: c.addr, Port: int(c.port)})
	return err
}

// Close releases every socket owned by the client. Cascade deletion of
// its system player is the caller's responsibility (it owns the
// Session).
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.tcpIn != nil {
		c.tcpIn.Close()
	}
	if c.tcpOut != nil {
		c.tcpOut.Close()
	}
	if c.udpConn != nil {
		c.udpConn.Close()
	}
}
