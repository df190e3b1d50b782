// Package playback coalesces animation playback requests against a
// renderer that initializes asynchronously. At most one request waits at a
// time; a newer request replaces an unserved older one rather than queueing
// behind it.
package playback

import (
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

// Request is one "play this trace" ask. After, when set, runs after the
// play finishes.
type Request struct {
	PlayID   string
	AgentID  string
	Trace    json.RawMessage
	Subtitle string
	After    func()
}

// RenderFunc hands a request to the rendering surface. It returns when the
// play has finished.
type RenderFunc func(Request)

// Queue is the single-slot pending-request holder in front of one renderer
// surface. Completed plays are remembered per agent so a re-opened panel
// can replay the last animation without re-deriving it.
type Queue struct {
	logger *slog.Logger

	mu            sync.Mutex
	render        RenderFunc
	agentID       string
	ready         bool
	pending       *Request
	lastCompleted map[string]Request
}

// NewQueue creates an unbound queue. Bind attaches it to an agent surface.
func NewQueue(logger *slog.Logger) *Queue {
	return &Queue{
		logger:        logger.With("module", "playback"),
		lastCompleted: make(map[string]Request),
	}
}

// SetRenderer installs the rendering sink.
func (q *Queue) SetRenderer(render RenderFunc) {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.render = render
}

// Bind points the queue at an agent's surface. Binding to a different agent
// drops any pending request: a stale request must never play against the
// new agent's surface. Last-completed history survives, keyed per agent.
func (q *Queue) Bind(agentID string) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.agentID != agentID {
		q.pending = nil
	}

	q.agentID = agentID
	q.ready = false
}

// RendererReady signals that the surface finished initializing. A pending
// request, if any, plays immediately and the slot is cleared.
func (q *Queue) RendererReady() {
	q.mu.Lock()

	q.ready = true

	request := q.pending
	q.pending = nil

	q.mu.Unlock()

	if request != nil {
		q.play(*request)
	}
}

// RequestPlay asks for a trace to be played. While the renderer is still
// initializing the request is parked in the single pending slot, latest
// wins. Once the renderer is ready requests play straight through.
func (q *Queue) RequestPlay(agentID string, trace json.RawMessage, subtitle string, after func()) {
	request := Request{
		PlayID:   uuid.New().String(),
		AgentID:  agentID,
		Trace:    trace,
		Subtitle: subtitle,
		After:    after,
	}

	q.mu.Lock()

	if !q.ready {
		if q.pending != nil {
			q.logger.Debug("Superseding pending playback request",
				"old_play_id", q.pending.PlayID, "new_play_id", request.PlayID)
		}

		q.pending = &request
		q.mu.Unlock()

		return
	}

	q.mu.Unlock()
	q.play(request)
}

// Pending returns the parked request, if any.
func (q *Queue) Pending() (Request, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.pending == nil {
		return Request{}, false
	}

	return *q.pending, true
}

// LastCompleted returns the most recently finished play for an agent.
func (q *Queue) LastCompleted(agentID string) (Request, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	request, ok := q.lastCompleted[agentID]

	return request, ok
}

// Replay plays an agent's last completed request again, e.g. when a closed
// panel is reopened. It reports whether there was anything to replay.
func (q *Queue) Replay(agentID string) bool {
	q.mu.Lock()
	request, ok := q.lastCompleted[agentID]
	q.mu.Unlock()

	if !ok {
		return false
	}

	q.play(request)

	return true
}

func (q *Queue) play(request Request) {
	q.mu.Lock()
	render := q.render
	q.mu.Unlock()

	if render != nil {
		render(request)
	}

	q.mu.Lock()
	q.lastCompleted[request.AgentID] = request
	q.mu.Unlock()

	if request.After != nil {
		request.After()
	}
}
