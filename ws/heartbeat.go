package ws

import "time"

// PingInterval is how often Sweep should run.
func (h *Hub) PingInterval() time.Duration { return h.opts.PingInterval }

// Sweep is one liveness round. Connections that never answered the previous
// ping are terminated, every other one is pinged and marked as waiting.
// Termination goes through the normal read loop exit, so disconnect cleanup
// happens exactly once. Returns the number of terminated connections.
func (h *Hub) Sweep() int {
	terminated := 0
	for _, c := range h.connections() {
		if !c.IsAlive() {
			continue
		}
		if c.awaitingPong.Load() {
			h.log.Info("terminating unresponsive connection", "conn_id", c.id)
			h.metrics.LivenessTermination()
			c.Terminate()
			terminated++
			continue
		}

		c.awaitingPong.Store(true)
		if err := c.ping(); err != nil {
			h.log.Debug("ping failed", "conn_id", c.id, "error", err)
			c.Terminate()
			terminated++
		}
	}
	return terminated
}
