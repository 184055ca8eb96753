package mocks

import (
	"context"
	"sync"

	"chat-client/internal/models"
)

// Recorder stands in for the front end: it collects alerts, answers
// confirmations with Reply and remembers navigations.
type Recorder struct {
	mu      sync.Mutex
	Reply   bool
	alerts  []string
	prompts []string
	visited []models.Room
}

func (r *Recorder) Alert(message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.alerts = append(r.alerts, message)
}

func (r *Recorder) Confirm(prompt string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.prompts = append(r.prompts, prompt)
	return r.Reply
}

func (r *Recorder) Navigate(_ context.Context, room models.Room) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.visited = append(r.visited, room)
}

func (r *Recorder) Alerts() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.alerts...)
}

func (r *Recorder) Prompts() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.prompts...)
}

func (r *Recorder) Visited() []models.Room {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.Room(nil), r.visited...)
}
