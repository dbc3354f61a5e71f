// Package liveactivity pushes recording snapshots to an ambient display
// surface (an OS widget, a dashboard, anything that renders a timer ring
// outside the app itself). Pushes are best-effort: failures are logged and
// swallowed, never surfaced to the recorder state machine.
package liveactivity

import (
	"bytes"
	"encoding/json"
	"log"
	"net/http"
	"time"
)

// Snapshot is the display-ready state of an in-progress recording.
// It is transient and never persisted.
type Snapshot struct {
	ElapsedSeconds    float64   `json:"elapsed_seconds"`
	DailyGoalProgress float64   `json:"daily_goal_progress"`
	StartDate         time.Time `json:"start_date"`
	IsTimerRunning    bool      `json:"is_timer_running"`
}

// Publisher receives recording lifecycle events. Implementations must not
// block the caller; the 1Hz tick cannot wait on the network.
type Publisher interface {
	Start(s Snapshot)
	Update(s Snapshot)
	End(s Snapshot)
}

// NopPublisher discards all snapshots. Used when no ambient surface is
// configured.
type NopPublisher struct{}

func (NopPublisher) Start(Snapshot)  {}
func (NopPublisher) Update(Snapshot) {}
func (NopPublisher) End(Snapshot)    {}

// WebhookPublisher POSTs snapshots as JSON to a configured endpoint.
type WebhookPublisher struct {
	url        string
	httpClient *http.Client
}

// NewWebhookPublisher creates a publisher targeting the given URL.
func NewWebhookPublisher(url string) *WebhookPublisher {
	return &WebhookPublisher{
		url: url,
		httpClient: &http.Client{
			Timeout: 5 * time.Second,
		},
	}
}

func (p *WebhookPublisher) Start(s Snapshot)  { p.push("start", s) }
func (p *WebhookPublisher) Update(s Snapshot) { p.push("update", s) }
func (p *WebhookPublisher) End(s Snapshot)    { p.push("end", s) }

type webhookEvent struct {
	Event    string   `json:"event"`
	Snapshot Snapshot `json:"snapshot"`
}

// push fires the request in a goroutine so a slow or dead endpoint never
// stalls the recorder tick.
func (p *WebhookPublisher) push(event string, s Snapshot) {
	body, err := json.Marshal(webhookEvent{Event: event, Snapshot: s})
	if err != nil {
		log.Printf("live activity: marshal %s snapshot: %v", event, err)
		return
	}

	go func() {
		resp, err := p.httpClient.Post(p.url, "application/json", bytes.NewReader(body))
		if err != nil {
			log.Printf("live activity: push %s failed: %v", event, err)
			return
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 300 {
			log.Printf("live activity: push %s returned status %d", event, resp.StatusCode)
		}
	}()
}
