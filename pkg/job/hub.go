// Package job implements the job manager: it tracks simulation, ingestion,
// and remediation jobs through internal/store and fans progress events out
// to WebSocket subscribers through a per-job broadcast hub.
package job

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"

	"netval/pkg/model"
	"netval/pkg/util"
)

// EventKind distinguishes the progress events a job emits.
type EventKind string

const (
	EventCheckStart         EventKind = "check_start"
	EventCheckComplete      EventKind = "check_complete"
	EventPushLine           EventKind = "push_line"
	EventPushDeviceComplete EventKind = "push_device_complete"
	EventComplete           EventKind = "complete"
	EventFailed             EventKind = "failed"
)

// Event is one progress notification for a single job, serialized onto
// WebSocket subscribers and, optionally, a Redis pub/sub channel.
type Event struct {
	JobID   string          `json:"job_id"`
	Kind    EventKind       `json:"kind"`
	Detail  string          `json:"detail,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

func redisChannel(jobID string) string { return "netval:job:" + jobID }

// jobHub fans out events for one job id to every currently-subscribed
// channel. A late subscriber never sees events published before it
// subscribed; callers needing the final result after the fact should read
// the persisted job row instead.
type jobHub struct {
	mu   sync.Mutex
	subs map[chan Event]struct{}
}

func newJobHub() *jobHub {
	return &jobHub{subs: make(map[chan Event]struct{})}
}

func (h *jobHub) subscribe() chan Event {
	ch := make(chan Event, 32)
	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()
	return ch
}

func (h *jobHub) unsubscribe(ch chan Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.subs[ch]; ok {
		delete(h.subs, ch)
		close(ch)
	}
}

func (h *jobHub) publish(evt Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs {
		select {
		case ch <- evt:
		default:
			// slow subscriber; drop rather than block the publisher.
		}
	}
}

// Hub coordinates per-job event fan-out across the whole process, with an
// optional Redis pub/sub mirror so a second process could subscribe.
// Redis is never required: if redisClient is nil, or a publish
// fails, the Hub silently falls back to in-process-only delivery after
// logging once.
type Hub struct {
	mu          sync.Mutex
	hubs        map[string]*jobHub
	redisClient *redis.Client
	redisWarned bool
}

// NewHub builds a Hub. redisAddr may be empty, in which case cross-process
// mirroring is disabled outright and Redis is never dialed.
func NewHub(redisAddr string) *Hub {
	h := &Hub{hubs: make(map[string]*jobHub)}
	if redisAddr != "" {
		h.redisClient = redis.NewClient(&redis.Options{Addr: redisAddr})
	}
	return h
}

func (h *Hub) hubFor(jobID string) *jobHub {
	h.mu.Lock()
	defer h.mu.Unlock()
	jh, ok := h.hubs[jobID]
	if !ok {
		jh = newJobHub()
		h.hubs[jobID] = jh
	}
	return jh
}

// Subscribe returns a channel of events for jobID and an unsubscribe
// function the caller must invoke when done (typically on WebSocket close).
func (h *Hub) Subscribe(jobID string) (<-chan Event, func()) {
	jh := h.hubFor(jobID)
	ch := jh.subscribe()
	return ch, func() { jh.unsubscribe(ch) }
}

// Publish fans evt out to in-process subscribers and, best-effort, mirrors
// it onto Redis.
func (h *Hub) Publish(evt Event) {
	h.hubFor(evt.JobID).publish(evt)
	h.mirrorToRedis(evt)
}

func (h *Hub) mirrorToRedis(evt Event) {
	if h.redisClient == nil {
		return
	}
	data, err := json.Marshal(evt)
	if err != nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := h.redisClient.Publish(ctx, redisChannel(evt.JobID), data).Err(); err != nil {
		h.mu.Lock()
		warned := h.redisWarned
		h.redisWarned = true
		h.mu.Unlock()
		if !warned {
			util.WithField("job_id", evt.JobID).Warnf("redis mirror unavailable, continuing in-process-only: %v", err)
		}
	}
}

// Forget releases the in-process hub for a completed job, bounding memory
// for long-lived processes. It drops the hub at once without waiting for
// subscribers to drain; a later Subscribe or Publish for jobID starts a
// fresh hub.
func (h *Hub) Forget(jobID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.hubs, jobID)
}

// Status is a minimal projection of model.SimulationJob used by Manager's
// callers that don't need the full result payload.
type Status struct {
	ID     string
	Kind   model.JobKind
	Status model.JobStatus
}
