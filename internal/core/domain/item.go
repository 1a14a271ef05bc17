package domain

import "fmt"

// Address identifies a caller. The zero value is the unset sentinel and never
// names a real party.
type Address string

func (a Address) IsZero() bool {
	return a == ""
}

type State uint8

const (
	StateForSale State = iota
	StateSold
	StateShipped
	StateReceived
)

var stateNames = [...]string{"ForSale", "Sold", "Shipped", "Received"}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("State(%d)", uint8(s))
}

// Next returns the state one step forward. Received has no successor.
func (s State) Next() (State, bool) {
	if s >= StateReceived {
		return s, false
	}
	return s + 1, true
}

func ParseState(name string) (State, error) {
	for i, n := range stateNames {
		if n == name {
			return State(i), nil
		}
	}
	return 0, fmt.Errorf("unknown state %q", name)
}

type Item struct {
	Name   string
	Sku    uint64
	Price  uint64
	State  State
	Seller Address
	Buyer  Address
}

// Sold returns a copy of the item purchased by buyer.
func (i Item) Sold(buyer Address) Item {
	i.Buyer = buyer
	i.State = StateSold
	return i
}

// Advanced returns a copy of the item moved one state forward.
func (i Item) Advanced() Item {
	i.State, _ = i.State.Next()
	return i
}
