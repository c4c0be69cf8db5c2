package domain

// Seat is one entry of the fixed catalog supplied at construction. Taken
// transitions false to true exactly once and never reverts.
type Seat struct {
	ID    string
	Taken bool
}
