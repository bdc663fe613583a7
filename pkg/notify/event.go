package notify

import "time"

// Event types for visitor notifications.
const (
	EventTypeCheckin  = "checkin"
	EventTypeCheckout = "checkout"
)

// VisitorDetails carries the already-sanitized visitor fields embedded in
// outbound messages. Callers must run every field through CleanText before
// constructing an Event.
type VisitorDetails struct {
	BadgeID   string
	Name      string
	Company   string
	Email     string
	Phone     string
	HostName  string
	HostEmail string
	Purpose   string
}

// Event is one visitor check-in or check-out to be fanned out to all
// matching notification targets.
type Event struct {
	Type       string
	Visitor    VisitorDetails
	OccurredAt time.Time
}

// Title returns a human-readable headline for the event.
func (e *Event) Title() string {
	if e.Type == EventTypeCheckout {
		return "Visitor Checked Out"
	}
	return "Visitor Checked In"
}
