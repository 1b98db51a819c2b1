// Package presence keeps the roster of live explorer sessions.
//
// Explorer sessions publish litgraph.explorer.* events tagged with their
// session ID. The server feeds those events into a Tracker, either directly
// through Record or by following a bus subscription. A background reaper
// marks sessions idle after a threshold and later evicts them.
package presence

import (
	"context"
	"encoding/json"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/alfredjeanlab/litgraph/internal/events"
)

// ActionClosed is the activity action sent when an explorer shuts down.
const ActionClosed = "closed"

// Entry is a snapshot of one explorer session.
type Entry struct {
	SessionID           string    `json:"session_id"`
	FirstSeen           time.Time `json:"first_seen"`
	LastSeen            time.Time `json:"last_seen"`
	LastAction          string    `json:"last_action"`
	Mode                string    `json:"mode,omitempty"`
	Query               string    `json:"query,omitempty"`
	NodeID              string    `json:"node_id,omitempty"`
	Nodes               int       `json:"nodes"`
	Edges               int       `json:"edges"`
	IdleSecs            float64   `json:"idle_secs"`
	EventCount          int64     `json:"event_count"`
	SessionDurationSecs float64   `json:"session_duration_secs"`
	Idle                bool      `json:"idle,omitempty"`
	IdleSince           time.Time `json:"idle_since,omitzero"`
}

// ReaperConfig configures the background idle-session reaper.
type ReaperConfig struct {
	// IdleThreshold is how long a session must be silent before it is
	// marked idle. Default: 15 minutes.
	IdleThreshold time.Duration

	// EvictAfter is how long a session stays idle before it is removed.
	// Default: 30 minutes.
	EvictAfter time.Duration

	// SweepInterval is how often the reaper scans. Default: 60 seconds.
	SweepInterval time.Duration

	// OnIdle is called outside the lock for each session newly marked idle.
	OnIdle func(sessionID string)

	// OnSweep is called after every sweep with the active and idle counts.
	OnSweep func(active, idle int)
}

// Tracker maintains an in-memory roster of explorer sessions.
type Tracker struct {
	mu       sync.RWMutex
	sessions map[string]*sessionState

	reaperStop chan struct{}
	reaperDone chan struct{}
}

type sessionState struct {
	firstSeen  time.Time
	lastSeen   time.Time
	lastAction string
	mode       string
	query      string
	nodeID     string
	nodes      int
	edges      int
	eventCount int64
	idle       bool
	idleSince  time.Time
}

// New creates an empty tracker.
func New() *Tracker {
	return &Tracker{sessions: make(map[string]*sessionState)}
}

// Record updates a session from one activity event. Events without a session
// ID are ignored. A closed session is marked idle at once.
func (t *Tracker) Record(ev events.ExplorerActivity) {
	if ev.SessionID == "" {
		return
	}
	now := time.Now()

	t.mu.Lock()
	defer t.mu.Unlock()

	state, ok := t.sessions[ev.SessionID]
	if !ok {
		state = &sessionState{firstSeen: now}
		t.sessions[ev.SessionID] = state
	}
	if state.idle && ev.Action != ActionClosed {
		slog.Info("presence: session resumed", "session_id", ev.SessionID)
		state.idle = false
		state.idleSince = time.Time{}
	}

	state.lastSeen = now
	state.lastAction = ev.Action
	state.eventCount++
	state.nodes = ev.Nodes
	state.edges = ev.Edges
	if ev.Mode != "" {
		state.mode = ev.Mode
		state.query = ev.Query
	}
	state.nodeID = ev.NodeID

	if ev.Action == ActionClosed && !state.idle {
		state.idle = true
		state.idleSince = now
	}
}

// Follow records every explorer event delivered by sub until ctx is done or
// the subscription closes.
func (t *Tracker) Follow(ctx context.Context, sub events.Subscriber) error {
	ch, cancel, err := sub.Subscribe(events.ExplorerPrefix + ">")
	if err != nil {
		return err
	}
	go func() {
		defer cancel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var ev events.ExplorerActivity
				if err := json.Unmarshal(msg.Data, &ev); err != nil {
					slog.Warn("presence: undecodable explorer event", "topic", msg.Topic, "err", err)
					continue
				}
				t.Record(ev)
			}
		}
	}()
	return nil
}

// Roster returns a snapshot of tracked sessions, most recently active first.
// Sessions silent for longer than staleThreshold are left out; pass 0 to
// include all.
func (t *Tracker) Roster(staleThreshold time.Duration) []Entry {
	t.mu.RLock()
	defer t.mu.RUnlock()

	now := time.Now()
	entries := make([]Entry, 0, len(t.sessions))
	for id, s := range t.sessions {
		idle := now.Sub(s.lastSeen)
		if staleThreshold > 0 && idle > staleThreshold {
			continue
		}
		entries = append(entries, Entry{
			SessionID:           id,
			FirstSeen:           s.firstSeen,
			LastSeen:            s.lastSeen,
			LastAction:          s.lastAction,
			Mode:                s.mode,
			Query:               s.query,
			NodeID:              s.nodeID,
			Nodes:               s.nodes,
			Edges:               s.edges,
			IdleSecs:            idle.Seconds(),
			EventCount:          s.eventCount,
			SessionDurationSecs: now.Sub(s.firstSeen).Seconds(),
			Idle:                s.idle,
			IdleSince:           s.idleSince,
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].LastSeen.After(entries[j].LastSeen)
	})
	return entries
}

// Counts returns the number of active and idle sessions.
func (t *Tracker) Counts() (active, idle int) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for _, s := range t.sessions {
		if s.idle {
			idle++
		} else {
			active++
		}
	}
	return active, idle
}

// StartReaper launches a background goroutine that periodically marks silent
// sessions idle. Call Stop to shut it down.
func (t *Tracker) StartReaper(cfg *ReaperConfig) {
	if cfg == nil {
		cfg = &ReaperConfig{}
	}
	if cfg.IdleThreshold == 0 {
		cfg.IdleThreshold = 15 * time.Minute
	}
	if cfg.EvictAfter == 0 {
		cfg.EvictAfter = 30 * time.Minute
	}
	if cfg.SweepInterval == 0 {
		cfg.SweepInterval = 60 * time.Second
	}

	t.reaperStop = make(chan struct{})
	t.reaperDone = make(chan struct{})

	go t.reapLoop(cfg)
	slog.Info("presence: reaper started",
		"idle_threshold", cfg.IdleThreshold,
		"sweep_interval", cfg.SweepInterval)
}

// Stop shuts down the reaper goroutine.
func (t *Tracker) Stop() {
	if t.reaperStop != nil {
		close(t.reaperStop)
		<-t.reaperDone
		t.reaperStop = nil
		t.reaperDone = nil
	}
}

func (t *Tracker) reapLoop(cfg *ReaperConfig) {
	defer close(t.reaperDone)

	ticker := time.NewTicker(cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-t.reaperStop:
			return
		case <-ticker.C:
			t.sweep(cfg)
		}
	}
}

func (t *Tracker) sweep(cfg *ReaperConfig) {
	now := time.Now()
	var newlyIdle []string

	t.mu.Lock()
	for id, s := range t.sessions {
		if s.idle {
			// Sessions that never got past a couple of events go sooner.
			evict := cfg.EvictAfter
			if s.eventCount < 3 {
				evict = min(evict, 5*time.Minute)
			}
			if now.Sub(s.idleSince) > evict {
				delete(t.sessions, id)
			}
			continue
		}
		if now.Sub(s.lastSeen) > cfg.IdleThreshold {
			s.idle = true
			s.idleSince = now
			newlyIdle = append(newlyIdle, id)
		}
	}
	t.mu.Unlock()

	for _, id := range newlyIdle {
		slog.Info("presence: session marked idle",
			"session_id", id,
			"threshold", cfg.IdleThreshold)
		if cfg.OnIdle != nil {
			cfg.OnIdle(id)
		}
	}
	if cfg.OnSweep != nil {
		cfg.OnSweep(t.Counts())
	}
}
