// Package page carries the user-visible side effects of access decisions.
package page

import "sync"

// Presenter shows notices to the user and moves them between pages
type Presenter interface {
	Notify(message string)
	Navigate(page string)
}

// Recorder is a Presenter that remembers what was shown.
// The HTTP layer renders a Recorder's contents into the response.
type Recorder struct {
	mu         sync.Mutex
	notices    []string
	navigation string
}

// NewRecorder creates an empty recorder
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Notify records a notice
func (r *Recorder) Notify(message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = append(r.notices, message)
}

// Navigate records the navigation target; the last call wins
func (r *Recorder) Navigate(page string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.navigation = page
}

// Notices returns the recorded notices in order
func (r *Recorder) Notices() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.notices...)
}

// Navigation returns the navigation target and whether one was requested
func (r *Recorder) Navigation() (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.navigation, r.navigation != ""
}
