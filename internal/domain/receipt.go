package domain

import "time"

// Receipt confirms a completed ticket purchase.
type Receipt struct {
	ID         string
	Buyer      Account
	Value      uint64
	Seats      []string
	AmountPaid uint64
	CreatedAt  time.Time
}
