package domain

import (
	"time"

	"github.com/google/uuid"
)

// Event is the notification emitted after a successful transition. Kind is
// the state the item entered.
type Event struct {
	ID         uuid.UUID `json:"id"`
	Kind       State     `json:"kind"`
	Sku        uint64    `json:"sku"`
	Actor      Address   `json:"actor"`
	OccurredAt time.Time `json:"occurred_at"`
}

func NewEvent(kind State, sku uint64, actor Address, at time.Time) Event {
	return Event{
		ID:         uuid.New(),
		Kind:       kind,
		Sku:        sku,
		Actor:      actor,
		OccurredAt: at,
	}
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *State) UnmarshalText(text []byte) error {
	parsed, err := ParseState(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
