package server

import (
	"maps"
	"net/http"
	"sync"
	"time"

	"github.com/allyourbase/smspool/internal/httputil"
	"github.com/allyourbase/smspool/internal/sms"
)

// deliveryCounts holds attempt outcomes for one provider or for all messages.
type deliveryCounts struct {
	Sent        int     `json:"sent"`
	Failed      int     `json:"failed"`
	SuccessRate float64 `json:"success_rate"`
}

// deliveryStats tallies delivery outcomes since the server started.
type deliveryStats struct {
	mu        sync.Mutex
	started   time.Time
	messages  deliveryCounts
	providers map[string]deliveryCounts
}

func newDeliveryStats() *deliveryStats {
	return &deliveryStats{started: time.Now(), providers: map[string]deliveryCounts{}}
}

// record counts a finished batch: one success for the provider that sent
// each message and one failure per rejected attempt.
func (d *deliveryStats) record(messages []*sms.Message, failures []*sms.ProviderError) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, msg := range messages {
		switch msg.Status() {
		case sms.StatusSent:
			d.messages.Sent++
			if p := msg.Provider(); p != nil {
				c := d.providers[p.Name()]
				c.Sent++
				d.providers[p.Name()] = c
			}
		case sms.StatusFailed:
			d.messages.Failed++
		}
	}
	for _, f := range failures {
		c := d.providers[f.Provider]
		c.Failed++
		d.providers[f.Provider] = c
	}
}

func (d *deliveryStats) snapshot() (deliveryCounts, map[string]deliveryCounts, time.Duration) {
	d.mu.Lock()
	defer d.mu.Unlock()
	total := d.messages
	total.SuccessRate = successRate(total.Sent, total.Failed)
	providers := maps.Clone(d.providers)
	for name, c := range providers {
		c.SuccessRate = successRate(c.Sent, c.Failed)
		providers[name] = c
	}
	return total, providers, time.Since(d.started)
}

// successRate returns sent as a percentage of all attempts.
func successRate(sent, failed int) float64 {
	if sent+failed == 0 {
		return 0
	}
	return float64(sent) / float64(sent+failed) * 100
}

// handleDeliveryStats returns message and per-provider delivery counts since startup.
func (s *Server) handleDeliveryStats(w http.ResponseWriter, r *http.Request) {
	total, providers, uptime := s.stats.snapshot()

	resp := map[string]any{
		"uptime_seconds": int(uptime.Seconds()),
		"messages":       total,
		"providers":      providers,
	}

	// Warn when fewer than half of the messages got through with meaningful volume.
	if total.Sent+total.Failed >= 10 && total.SuccessRate < 50 {
		resp["warning"] = "low delivery rate"
	}

	httputil.WriteJSON(w, http.StatusOK, resp)
}
