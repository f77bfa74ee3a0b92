package tools

import "sync"

// Notification is a queued message for the focus dock.
type Notification struct {
	Title string
	Body  string
}

// TimerState is a snapshot of the dock timer.
type TimerState struct {
	Running          bool
	RemainingSeconds int
}

// UITools tracks the focus-dock side effects the coach triggers: focus
// mode, the countdown timer, and queued notifications. The real dock
// polls these; in tests they are inspected directly.
type UITools struct {
	mu            sync.Mutex
	focusMode     bool
	timer         TimerState
	notifications []Notification
}

func NewUITools() *UITools {
	return &UITools{}
}

// SetFocusMode switches focus mode on or off.
func (t *UITools) SetFocusMode(active bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.focusMode = active
}

// FocusModeActive reports whether focus mode is on.
func (t *UITools) FocusModeActive() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.focusMode
}

// StartTimer starts the countdown with the given remaining seconds.
func (t *UITools) StartTimer(seconds int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.timer = TimerState{Running: true, RemainingSeconds: seconds}
}

// StopTimer halts the countdown, keeping the remaining time.
func (t *UITools) StopTimer() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.timer.Running = false
}

// Timer returns the current timer snapshot.
func (t *UITools) Timer() TimerState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.timer
}

// Notify queues a notification for the dock.
func (t *UITools) Notify(title, body string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.notifications = append(t.notifications, Notification{Title: title, Body: body})
}

// DrainNotifications returns and clears the queue.
func (t *UITools) DrainNotifications() []Notification {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := t.notifications
	t.notifications = nil
	return out
}
