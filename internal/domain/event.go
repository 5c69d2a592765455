package domain

const (
	EventNameSessionCompleted = "session.completed"
	EventNameBadgesAwarded    = "badges.awarded"
)

// EventSessionCompleted is published once per finished session, after badges
// have been folded in.
type EventSessionCompleted struct {
	Result SessionResult
}

func (EventSessionCompleted) Name() string { return EventNameSessionCompleted }

type EventBadgesAwarded struct {
	UserID string
	Badges []Badge
}

func (EventBadgesAwarded) Name() string { return EventNameBadgesAwarded }
