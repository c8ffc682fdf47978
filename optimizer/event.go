package optimizer

import (
	"time"

	"github.com/gofrs/uuid"
)

// EventType identifies a tier transition.
type EventType int

const (
	EventPromoted EventType = iota + 1
	EventPinned
	EventDeoptimized
	EventOverloaded
)

func (t EventType) String() string {
	switch t {
	case EventPromoted:
		return "promoted"
	case EventPinned:
		return "pinned"
	case EventDeoptimized:
		return "deoptimized"
	case EventOverloaded:
		return "overloaded"
	}
	return "unknown"
}

// Event describes a change of a site's active form, or of the controller.
type Event struct {
	ID    uuid.UUID
	Type  EventType
	Path  string
	Epoch uint64
	Cause string
	Time  time.Time
}

func (c *Controller) emit(t EventType, path string, cause string) {
	ev := Event{
		ID:    uuid.Must(uuid.NewV4()),
		Type:  t,
		Path:  path,
		Epoch: c.epoch.Load(),
		Cause: cause,
		Time:  time.Now(),
	}
	c.logger.Debug().
		Str("event", t.String()).
		Str("id", ev.ID.String()).
		Str("path", path).
		Uint64("epoch", ev.Epoch).
		Str("cause", cause).
		Msg("accessor tier change")
	if c.onEvent != nil {
		c.onEvent(ev)
	}
}
