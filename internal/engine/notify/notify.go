// Package notify implements the notification sink (spec component C14):
// three independent channels for footer messages, status icons, and the
// breadcrumb trail, all fed by non-blocking sends so that no producer
// (an observer, the executor, the app loop) ever stalls waiting for the
// UI to drain its mailbox.
//
// Grounded on original_source/b4n-common/notifications.rs, whose
// NotificationSink clones three tokio mpsc::UnboundedSender handles and
// exposes show_info/show_error/show_hint/set_icon/set_text/reset/
// set_breadcrumb_trail as fire-and-forget sends. Go channels are
// capacity-bounded (there is no unbounded channel in the standard
// library), so each channel here is given a generous buffer and sends
// use select-with-default: a full mailbox drops the newest notification
// rather than blocking the producer, which is the Go-idiomatic reading of
// "non-blocking; send-errors are silently dropped" from spec.md §4.9.
package notify

import "go.uber.org/zap"

// Default durations, in milliseconds, per spec.md §4.9.
const (
	DefaultMessageDuration = 5000
	DefaultErrorDuration   = 10000
)

// Kind classifies a Message.
type Kind int

const (
	Info Kind = iota
	Error
	Hint
)

// Message is one footer notification.
type Message struct {
	Text       string
	Kind       Kind
	DurationMS int
}

// IconKind classifies an Icon's visual treatment.
type IconKind int

const (
	IconDefault IconKind = iota
	IconSuccess
	IconError
)

// Icon is a status-bar icon or text label, identified by a stable id so
// later updates replace rather than accumulate.
type Icon struct {
	ID   string
	Rune rune   // zero value means "no glyph, text only"
	Text string // empty means "no text, glyph only"
	Kind IconKind
}

// IconActionKind distinguishes adding/updating an icon from removing one.
type IconActionKind int

const (
	IconAdd IconActionKind = iota
	IconRemove
)

// IconAction is one mutation of the icon set.
type IconAction struct {
	Kind IconActionKind
	Icon Icon   // valid when Kind == IconAdd
	ID   string // valid when Kind == IconRemove
}

const mailboxCapacity = 64

// Sink is a notification sink: a handle producers clone-by-reference
// (it is a pointer to three channels, mirroring the Rust type's
// Clone-of-three-senders shape).
type Sink struct {
	messages chan Message
	icons    chan IconAction
	trail    chan []string
	log      *zap.Logger
}

// New creates a Sink with its own buffered channels.
func New(log *zap.Logger) *Sink {
	if log == nil {
		log = zap.NewNop()
	}
	return &Sink{
		messages: make(chan Message, mailboxCapacity),
		icons:    make(chan IconAction, mailboxCapacity),
		trail:    make(chan []string, mailboxCapacity),
		log:      log,
	}
}

// Messages exposes the receive side for the application loop to drain.
func (s *Sink) Messages() <-chan Message { return s.messages }

// Icons exposes the receive side for the application loop to drain.
func (s *Sink) Icons() <-chan IconAction { return s.icons }

// Trail exposes the receive side for the application loop to drain.
func (s *Sink) Trail() <-chan []string { return s.trail }

func (s *Sink) sendMessage(m Message) {
	select {
	case s.messages <- m:
	default:
		s.log.Debug("notify: message mailbox full, dropping", zap.String("text", m.Text))
	}
}

// ShowInfo displays an informational message for durationMS.
func (s *Sink) ShowInfo(text string, durationMS int) {
	s.sendMessage(Message{Text: text, Kind: Info, DurationMS: durationMS})
}

// ShowError displays an error message for durationMS.
func (s *Sink) ShowError(text string, durationMS int) {
	s.sendMessage(Message{Text: text, Kind: Error, DurationMS: durationMS})
}

// ShowHint starts displaying a hint message, persisting until replaced.
func (s *Sink) ShowHint(text string) {
	s.sendMessage(Message{Text: text, Kind: Hint})
}

// HideHint clears any displayed hint.
func (s *Sink) HideHint() {
	s.sendMessage(Message{Text: "", Kind: Hint})
}

func (s *Sink) sendIcon(a IconAction) {
	select {
	case s.icons <- a:
	default:
		s.log.Debug("notify: icon mailbox full, dropping", zap.String("id", a.ID))
	}
}

// SetIcon adds, updates, or (if r == 0) removes a glyph icon by id.
func (s *Sink) SetIcon(id string, r rune, kind IconKind) {
	if r == 0 {
		s.sendIcon(IconAction{Kind: IconRemove, ID: id})
		return
	}
	s.sendIcon(IconAction{Kind: IconAdd, Icon: Icon{ID: id, Rune: r, Kind: kind}})
}

// SetText adds, updates, or (if text == "") removes a text label by id.
func (s *Sink) SetText(id string, text string, kind IconKind) {
	if text == "" {
		s.sendIcon(IconAction{Kind: IconRemove, ID: id})
		return
	}
	s.sendIcon(IconAction{Kind: IconAdd, Icon: Icon{ID: id, Text: text, Kind: kind}})
}

// Reset removes an icon or text label by id.
func (s *Sink) Reset(id string) {
	s.sendIcon(IconAction{Kind: IconRemove, ID: id})
}

// SetBreadcrumbTrail replaces the breadcrumb trail.
func (s *Sink) SetBreadcrumbTrail(trail []string) {
	select {
	case s.trail <- trail:
	default:
		s.log.Debug("notify: breadcrumb mailbox full, dropping")
	}
}
