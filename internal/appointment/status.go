package appointment

var transitions = map[Status][]Status{
	StatusAwaiting:  {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusCancelled},
	StatusCancelled: nil,
}

// CanTransition reports whether an appointment may go from one status to
// another. Cancelled is terminal.
func CanTransition(from, to Status) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}
