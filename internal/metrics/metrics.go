// Package metrics tracks atomic counters for the DirectPlay host,
// grounded on the retrieved CharGiway-miniarena server's RoomMetrics:
// plain int64 counters bumped with sync/atomic and exposed as a
// snapshot map rather than wired to an external exporter.
package metrics

import "sync/atomic"

// Metrics holds the counters this server tracks. The zero value is
// ready to use.
type Metrics struct {
	SessionsEnumerated  Counter
	SessionsAppMismatch Counter
	PlayersCreated      Counter
	PlayersDeleted      Counter

	DpspDispatched Counter
	DpspRejected   Counter
	DpspUnknownCmd Counter

	DprpFramesReceived Counter
	DprpFramesDropped  Counter
	DprpFramesAcked    Counter
	DprpBytesReceived  Counter
}

// Counter is an atomically-updated int64 counter.
type Counter struct {
	v int64
}

func (c *Counter) Add(n int64) { atomic.AddInt64(&c.v, n) }
func (c *Counter) Load() int64 { return atomic.LoadInt64(&c.v) }

// Snapshot returns a point-in-time copy of every counter, suitable for
// logging or a future admin surface.
func (m *Metrics) Snapshot() map[string]int64 {
	return map[string]int64{
		"sessions_enumerated":   m.SessionsEnumerated.Load(),
		"sessions_app_mismatch": m.SessionsAppMismatch.Load(),
		"players_created":       m.PlayersCreated.Load(),
		"players_deleted":       m.PlayersDeleted.Load(),
		"dpsp_dispatched":       m.DpspDispatched.Load(),
		"dpsp_rejected":         m.DpspRejected.Load(),
		"dpsp_unknown_cmd":      m.DpspUnknownCmd.Load(),
		"dprp_frames_received":  m.DprpFramesReceived.Load(),
		"dprp_frames_dropped":   m.DprpFramesDropped.Load(),
		"dprp_frames_acked":     m.DprpFramesAcked.Load(),
		"dprp_bytes_received":   m.DprpBytesReceived.Load(),
	}
}
