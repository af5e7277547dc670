// Package notify carries presentation events out of the pattern engine.
package notify

import (
	"context"
	"log/slog"
	"sync"

	"github.com/wailsapp/wails/v2/pkg/runtime"
)

// Event is a presentation notification.
type Event int

const (
	PreParse Event = iota
	DependencyGraphCompleted
	FullUpdateFromFile
	SceneBoundsChanged
	CheckLayout
	EditingEnabled
	EditingDisabled
	CancelLabelRendering
	MadeProgress
	DocumentModified
)

var eventNames = [...]string{
	PreParse:                 "pre_parse",
	DependencyGraphCompleted: "dependency_graph_completed",
	FullUpdateFromFile:       "full_update_from_file",
	SceneBoundsChanged:       "scene_bounds_changed",
	CheckLayout:              "check_layout",
	EditingEnabled:           "editing_enabled",
	EditingDisabled:          "editing_disabled",
	CancelLabelRendering:     "cancel_label_rendering",
	MadeProgress:             "made_progress",
	DocumentModified:         "document_modified",
}

func (e Event) String() string {
	if e >= 0 && int(e) < len(eventNames) {
		return eventNames[e]
	}
	return "unknown"
}

// Notification is one event with its optional payload.
type Notification struct {
	Event Event
	// Payload is event specific: a kernel.Box for SceneBoundsChanged, a
	// Progress for MadeProgress, nil otherwise.
	Payload any
}

// Progress reports parse progress.
type Progress struct {
	Done  int `json:"done"`
	Total int `json:"total"`
}

// Notifier receives notifications.
type Notifier interface {
	Notify(Notification)
}

// Func adapts a function to Notifier.
type Func func(Notification)

func (f Func) Notify(n Notification) { f(n) }

// Nop discards every notification.
type Nop struct{}

func (Nop) Notify(Notification) {}

// Bus fans notifications out to its subscribers in subscription order.
type Bus struct {
	mu   sync.RWMutex
	subs []Notifier
}

// NewBus returns a bus with the given initial subscribers.
func NewBus(subs ...Notifier) *Bus {
	return &Bus{subs: subs}
}

// Subscribe adds n.
func (b *Bus) Subscribe(n Notifier) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs = append(b.subs, n)
}

func (b *Bus) Notify(n Notification) {
	b.mu.RLock()
	subs := b.subs
	b.mu.RUnlock()
	for _, s := range subs {
		s.Notify(n)
	}
}

// Recorder keeps every notification it receives. Tests use it to assert
// on emission order.
type Recorder struct {
	mu     sync.Mutex
	events []Notification
}

func (r *Recorder) Notify(n Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, n)
}

// Events returns the recorded event kinds in order.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	for i, n := range r.events {
		out[i] = n.Event
	}
	return out
}

// Last returns the most recent notification of kind e.
func (r *Recorder) Last(e Event) (Notification, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.events) - 1; i >= 0; i-- {
		if r.events[i].Event == e {
			return r.events[i], true
		}
	}
	return Notification{}, false
}

// Reset forgets everything recorded.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}

// EventPrefix namespaces the frontend event names.
const EventPrefix = "selvage:"

// WailsEmitter forwards notifications to the desktop frontend.
type WailsEmitter struct {
	ctx  context.Context
	emit func(ctx context.Context, name string, data ...interface{})
}

// NewWailsEmitter returns an emitter bound to the Wails app context.
func NewWailsEmitter(ctx context.Context) *WailsEmitter {
	return &WailsEmitter{ctx: ctx, emit: runtime.EventsEmit}
}

func (w *WailsEmitter) Notify(n Notification) {
	if w.ctx == nil {
		slog.Debug("dropping notification before startup", "event", n.Event.String())
		return
	}
	if n.Payload != nil {
		w.emit(w.ctx, EventPrefix+n.Event.String(), n.Payload)
		return
	}
	w.emit(w.ctx, EventPrefix+n.Event.String())
}
