package netio

import (
	"fmt"
	"net"

	"go.uber.org/zap"

	"github.com/dplayhost/dplayhost/internal/dpsp"
	"github.com/dplayhost/dplayhost/internal/metrics"
	"github.com/dplayhost/dplayhost/internal/session"
)

// DiscoveryPort is the well-known DirectPlay discovery UDP port.
const DiscoveryPort = 47624

// Server owns the listening sockets and the client registry, and runs
// one goroutine per accepted TCP connection and one per connected
// per-client UDP socket, rather than multiplexing every socket through
// a single readiness loop.
type Server struct {
	Addr string
	Port uint16

	Session    *session.Session
	Dispatcher *dpsp.Dispatcher
	Registry   *Registry

	Log *zap.SugaredLogger
	Met *metrics.Metrics

	tcpListener net.Listener
	udpConn     *net.UDPConn
}

// New creates a Server bound to the given address; it does not listen
// until Serve is called.
func New(addr string, port uint16, s *session.Session, d *dpsp.Dispatcher, log *zap.SugaredLogger, met *metrics.Metrics) *Server {
	return &Server{
		Addr:       addr,
		Port:       port,
		Session:    s,
		Dispatcher: d,
		Registry:   NewRegistry(),
		Log:        log,
		Met:        met,
	}
}

// Serve binds the TCP listener and the UDP discovery socket and blocks,
// driving both accept loops. It returns only on a listener error.
func (srv *Server) Serve() error {
	tcpAddr := fmt.Sprintf("[%s]:%d", srv.Addr, srv.Port)
	ln, err := net.Listen("tcp", tcpAddr)
	if err != nil {
		return fmt.Errorf("netio: tcp listen: %w", err)
	}
	srv.tcpListener = ln

	udpAddr := fmt.Sprintf("[%s]:%d", srv.Addr, DiscoveryPort)
	pc, err := net.ListenPacket("udp", udpAddr)
	if err != nil {
		ln.Close()
		return fmt.Errorf("netio: udp listen: %w", err)
	}
	srv.udpConn = pc.(*net.UDPConn)

	go srv.serveUDP()
	return srv.serveTCP()
}

func (srv *Server) serveTCP() error {
	for {
		conn, err := srv.tcpListener.Accept()
		if err != nil {
			return fmt.Errorf("netio: accept: %w", err)
		}
		go srv.handleTCPClient(conn)
	}
}

func (srv *Server) handleTCPClient(conn net.Conn) {
	host, _, err := net.SplitHostPort(conn.RemoteAddr().String())
	if err != nil {
		conn.Close()
		return
	}
	addr := net.ParseIP(host)

	client, ok := srv.Registry.Get(addr)
	if !ok {
		client = NewClient(addr, conn, srv.Port, srv.udpConn, srv.Session, srv.Dispatcher, srv.Log, srv.Met)
		srv.Registry.Put(client)
	} else {
		client.mu.Lock()
		client.tcpIn = conn
		client.mu.Unlock()
	}
	defer srv.dropClient(addr, client)

	buf := make([]byte, 0, 4096)
	tmp := make([]byte, 4096)
	for {
		n, err := conn.Read(tmp)
		if err != nil {
			return
		}
		buf = append(buf, tmp[:n]...)

		for {
			res := srv.Dispatcher.HandleTCP(client.State, buf)
			switch res.Outcome {
			case dpsp.Complete:
				buf = buf[res.Consumed:]
			case dpsp.Rejected:
				if srv.Log != nil {
					srv.Log.Warnw("rejected tcp message", "client", addr)
				}
				buf = buf[:0]
			case dpsp.Incomplete:
				goto needMore
			}
			if len(buf) == 0 {
				break
			}
		}
	needMore:
	}
}

func (srv *Server) serveUDP() {
	buf := make([]byte, 65536)
	for {
		n, raddr, err := srv.udpConn.ReadFromUDP(buf)
		if err != nil {
			return
		}
		datagram := append([]byte(nil), buf[:n]...)

		client, ok := srv.Registry.Get(raddr.IP)
		if !ok {
			client = NewClient(raddr.IP, nil, srv.Port, srv.udpConn, srv.Session, srv.Dispatcher, srv.Log, srv.Met)
			srv.Registry.Put(client)
		}

		// The shared socket is bound to the discovery port: every
		// datagram arriving here is a top-level DPSP message
		// (EnumSessions in practice). Gameplay DPRP frames arrive on
		// each client's own connected UDP socket, read by
		// Client.serveDPRP once ConnectUDP has run.
		srv.Dispatcher.HandleUDP(client.State, datagram)
	}
}

func (srv *Server) dropClient(addr net.IP, c *Client) {
	srv.Registry.Remove(addr)
	c.Close()
	if c.State.HasSystemPlayer {
		srv.Session.DeletePlayer(c.State.SystemPlayerID)
	}
}
