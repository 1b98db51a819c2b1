// Package tui is the terminal front end of the graph explorer.
package tui

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/alfredjeanlab/litgraph/internal/explorer"
	"github.com/alfredjeanlab/litgraph/internal/model"
)

// Messages posted by the Bridge.
type (
	bindMsg struct {
		router *explorer.Router
		layout explorer.Layout
	}
	snapshotMsg explorer.Snapshot
	fitMsg      string
	detailMsg   struct {
		meta    model.Payload
		visible bool
	}
	toastMsg struct {
		level explorer.Level
		text  string
	}
	inspectMsg explorer.Node
)

// Bridge implements the explorer's Renderer, DetailView, Notifier and
// LinkOpener by forwarding everything to a running program. Messages sent
// before Attach are queued.
//
// Engine calls that reach the Bridge must not run inside Update: Send
// blocks until the program loop reads the message.
type Bridge struct {
	mu      sync.Mutex
	send    func(tea.Msg)
	pending []tea.Msg
	opener  func(url string) error
}

// NewBridge creates a bridge. open handles double-clicked links; when nil
// the link is shown as a notification instead.
func NewBridge(open func(url string) error) *Bridge {
	return &Bridge{opener: open}
}

// Attach starts delivering messages to p, flushing anything queued.
func (b *Bridge) Attach(p *tea.Program) {
	b.SetSend(p.Send)
}

// SetSend starts delivering messages to send.
func (b *Bridge) SetSend(send func(tea.Msg)) {
	b.mu.Lock()
	b.send = send
	pending := b.pending
	b.pending = nil
	b.mu.Unlock()
	for _, msg := range pending {
		send(msg)
	}
}

func (b *Bridge) post(msg tea.Msg) {
	b.mu.Lock()
	send := b.send
	if send == nil {
		b.pending = append(b.pending, msg)
		b.mu.Unlock()
		return
	}
	b.mu.Unlock()
	send(msg)
}

func (b *Bridge) Bind(r *explorer.Router, layout explorer.Layout) {
	b.post(bindMsg{router: r, layout: layout})
}

func (b *Bridge) Render(s explorer.Snapshot) { b.post(snapshotMsg(s)) }

func (b *Bridge) Fit(focus string) { b.post(fitMsg(focus)) }

func (b *Bridge) Show(meta model.Payload) { b.post(detailMsg{meta: meta, visible: true}) }

func (b *Bridge) Hide() { b.post(detailMsg{}) }

func (b *Bridge) Notify(level explorer.Level, msg string) {
	b.post(toastMsg{level: level, text: msg})
}

// Inspect shows an author or keyword node; pass it as Options.Inspect.
func (b *Bridge) Inspect(n explorer.Node) { b.post(inspectMsg(n)) }

func (b *Bridge) Open(url string) error {
	if b.opener == nil {
		b.Notify(explorer.LevelInfo, url)
		return nil
	}
	return b.opener(url)
}
