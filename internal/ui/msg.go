package ui

import (
	"github.com/rovshanmuradov/bundler-console/internal/arbiter"
	"github.com/rovshanmuradov/bundler-console/internal/events"
)

// refreshTickMsg redraws the dashboard from a fresh model snapshot.
type refreshTickMsg struct{}

// noticeMsg carries one bus event into the update loop.
type noticeMsg struct {
	event events.Event
}

// actionDoneMsg delivers a settled control action outcome.
type actionDoneMsg struct {
	outcome arbiter.Outcome
}
