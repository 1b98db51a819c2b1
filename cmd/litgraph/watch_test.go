package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/alfredjeanlab/litgraph/internal/events"
	"github.com/alfredjeanlab/litgraph/internal/ui"
)

func TestFormatEvent(t *testing.T) {
	ui.ForceNoColor()
	at := time.Date(2026, 3, 1, 14, 5, 9, 0, time.UTC)

	msg := events.Message{
		Topic: events.TopicExplorerRootLoaded,
		Data:  []byte(`{"session_id":"s1","action":"root_loaded","nodes":12,"query":"","mode":"author"}`),
	}
	got := formatEvent(msg, at)
	assert.Equal(t, `14:05:09 explorer.root_loaded action="root_loaded" mode="author" nodes=12 session_id="s1"`, got)
}

func TestFormatEvent_NonJSON(t *testing.T) {
	ui.ForceNoColor()
	at := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

	got := formatEvent(events.Message{Topic: "litgraph.catalog.refreshed", Data: []byte(" plain text \n")}, at)
	assert.Equal(t, "08:00:00 catalog.refreshed plain text", got)
}

func TestFromSession(t *testing.T) {
	msg := func(data string) events.Message {
		return events.Message{Topic: events.TopicExplorerExpanded, Data: []byte(data)}
	}
	assert.True(t, fromSession(msg(`{"session_id":"ex-abcd1234","nodes":3}`), "ex-abcd1234"))
	assert.False(t, fromSession(msg(`{"session_id":"ex-zzzz9999"}`), "ex-abcd1234"))
	assert.False(t, fromSession(msg(`{"articles":4}`), "ex-abcd1234"))
	assert.False(t, fromSession(msg(`not json`), "ex-abcd1234"))
}
