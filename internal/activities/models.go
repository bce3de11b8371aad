package activities

import "errors"

var (
	ErrActivityNotFound  = errors.New("ACTIVITY_NOT_FOUND")
	ErrAlreadyRegistered = errors.New("ALREADY_REGISTERED")
	ErrNotRegistered     = errors.New("NOT_REGISTERED")
	ErrActivityFull      = errors.New("ACTIVITY_FULL")
	ErrInvalidSeed       = errors.New("INVALID_SEED")
)

// Activity is one extracurricular offering and its current roster.
// Name is the registry key and is left out of the listing payload.
type Activity struct {
	Name            string   `json:"-"`
	Description     string   `json:"description"`
	Schedule        string   `json:"schedule"`
	MaxParticipants int      `json:"max_participants"`
	Participants    []string `json:"participants"`
}

// Options tune registry behavior.
type Options struct {
	// EnforceCapacity makes MaxParticipants a hard cap on Signup.
	EnforceCapacity bool
}

type entry struct {
	activity Activity
	members  map[string]struct{}
}

func (a Activity) clone() Activity {
	out := a
	out.Participants = make([]string, len(a.Participants))
	copy(out.Participants, a.Participants)
	return out
}
