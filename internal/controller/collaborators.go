package controller

import (
	"context"
	"sync"
	"time"
)

// Severity selects how a notice is presented.
type Severity string

const (
	SeveritySuccess Severity = "success"
	SeverityError   Severity = "error"
	SeverityInfo    Severity = "info"
)

// DefaultNoticeDuration is how long a notice stays up before it dismisses itself.
const DefaultNoticeDuration = 3000 * time.Millisecond

// Notifier shows a short, self-dismissing message to the user.
type Notifier interface {
	Notify(message string, severity Severity, duration time.Duration)
}

// Notifiers fans a notice out to every member.
type Notifiers []Notifier

func (ns Notifiers) Notify(message string, severity Severity, duration time.Duration) {
	for _, n := range ns {
		if n != nil {
			n.Notify(message, severity, duration)
		}
	}
}

// TextInput turns a confirmation into a text prompt.
type TextInput struct {
	Placeholder string `json:"placeholder"`
	Value       string `json:"value"`
}

// Prompt describes one confirmation step.
type Prompt struct {
	Title        string     `json:"title"`
	Message      string     `json:"message"`
	ConfirmLabel string     `json:"confirmLabel"`
	CancelLabel  string     `json:"cancelLabel"`
	Icon         string     `json:"icon"`
	Input        *TextInput `json:"input,omitempty"`
}

// Confirmer asks the user one Prompt and reports exactly one outcome: accepted
// with the entered value (empty without Input), or cancelled.
type Confirmer interface {
	Confirm(ctx context.Context, p Prompt) (value string, accepted bool, err error)
}

// Notice is one message passed to NoticeLog.
type Notice struct {
	Message  string        `json:"message"`
	Severity Severity      `json:"severity"`
	Duration time.Duration `json:"-"`
	At       time.Time     `json:"at"`
}

// Expired reports whether the notice has dismissed itself by now.
func (n Notice) Expired(now time.Time) bool {
	return !now.Before(n.At.Add(n.Duration))
}

// NoticeLog keeps the most recent notices in a fixed-size ring.
type NoticeLog struct {
	mu    sync.Mutex
	buf   []Notice
	start int
	n     int
	now   func() time.Time
}

func NewNoticeLog(capacity int) *NoticeLog {
	if capacity <= 0 {
		capacity = 50
	}
	return &NoticeLog{buf: make([]Notice, capacity), now: time.Now}
}

func (l *NoticeLog) Notify(message string, severity Severity, duration time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := Notice{Message: message, Severity: severity, Duration: duration, At: l.now()}
	if l.n < len(l.buf) {
		l.buf[(l.start+l.n)%len(l.buf)] = n
		l.n++
		return
	}
	l.buf[l.start] = n
	l.start = (l.start + 1) % len(l.buf)
}

// Recent returns the retained notices, oldest first.
func (l *NoticeLog) Recent() []Notice {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Notice, 0, l.n)
	for i := 0; i < l.n; i++ {
		out = append(out, l.buf[(l.start+i)%len(l.buf)])
	}
	return out
}

// Active returns the notices that have not dismissed themselves yet, oldest first.
func (l *NoticeLog) Active() []Notice {
	now := l.now()
	all := l.Recent()
	out := all[:0]
	for _, n := range all {
		if !n.Expired(now) {
			out = append(out, n)
		}
	}
	return out
}
