package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"netval/pkg/job"
	"netval/pkg/model"
	"netval/pkg/util"
)

// wsWriteTimeout bounds how long a single frame write may block before the
// subscriber is dropped, so one stalled client never pins a job goroutine's
// publisher.
const wsWriteTimeout = 10 * time.Second

var upgrader = websocket.Upgrader{
	// Local loopback UI only. Every origin is accepted here: the chi/cors
	// middleware in front of the REST surface sets CORS headers but does
	// not reject a cross-origin WebSocket upgrade.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// wsFrame is the wire shape for one streamed event.
type wsFrame struct {
	Event  job.EventKind `json:"event"`
	Detail string        `json:"detail,omitempty"`
	Result interface{}   `json:"result,omitempty"`
}

// handleWSJob upgrades the request and streams job.Hub events for the
// {job_id} path param until the job reaches a terminal state or the client
// disconnects. A late subscriber that connects after the job already
// finished gets the persisted job row's terminal event immediately instead
// of hanging forever.
func (s *Server) handleWSJob(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "job_id")

	existing, err := s.store.GetJob(jobID)
	if err != nil {
		writeError(w, err)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		util.WithField("job_id", jobID).Warnf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	if existing.Status.Terminal() {
		sendTerminalFrame(conn, existing)
		return
	}

	events, unsubscribe := s.hub.Subscribe(jobID)
	defer unsubscribe()

	for evt := range events {
		frame := wsFrame{Event: evt.Kind, Detail: evt.Detail}
		if evt.Kind == job.EventComplete {
			frame.Result = evt.Payload
		}
		conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
		if err := conn.WriteJSON(frame); err != nil {
			return
		}
		if evt.Kind == job.EventComplete || evt.Kind == job.EventFailed {
			return
		}
	}
}

// sendTerminalFrame serves a job that had already finished before the
// subscriber connected, reading its terminal state from the persisted row
// rather than a Hub that no longer has any events buffered for it.
func sendTerminalFrame(conn *websocket.Conn, j *model.SimulationJob) {
	frame := wsFrame{Event: job.EventComplete}
	if j.Status == model.JobFailed {
		frame.Event = job.EventFailed
	} else {
		frame.Result = j.Result
	}
	conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	conn.WriteJSON(frame)
}
