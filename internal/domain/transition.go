package domain

// transitions lists the legal forward moves of the rental lifecycle.
// cancelada is reachable from every non-terminal state.
var transitions = map[RentalStatus][]RentalStatus{
	RentalStatusPending:         {RentalStatusScheduled, RentalStatusCancelled},
	RentalStatusScheduled:       {RentalStatusOnRoute, RentalStatusPending, RentalStatusCancelled},
	RentalStatusOnRoute:         {RentalStatusDelivered, RentalStatusScheduled, RentalStatusCancelled},
	RentalStatusDelivered:       {RentalStatusPickupScheduled, RentalStatusPickedUp, RentalStatusCancelled},
	RentalStatusPickupScheduled: {RentalStatusPickedUp, RentalStatusDelivered, RentalStatusCancelled},
	RentalStatusPickedUp:        {RentalStatusCompleted, RentalStatusCancelled},
	RentalStatusCompleted:       {},
	RentalStatusCancelled:       {},
}

// CanTransition reports whether moving a rental from one status to another is allowed.
func CanTransition(from, to RentalStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// NextStatuses returns the statuses reachable from s.
func NextStatuses(s RentalStatus) []RentalStatus {
	next := transitions[s]
	out := make([]RentalStatus, len(next))
	copy(out, next)
	return out
}

// ValidateTransition returns a *TransitionError when the move is not in the table.
func ValidateTransition(from, to RentalStatus) error {
	if !to.IsKnown() {
		return &TransitionError{From: from, To: to, Reason: "unknown status"}
	}
	if from == to {
		return &TransitionError{From: from, To: to, Reason: "rental already in this status"}
	}
	if from.IsTerminal() {
		return &TransitionError{From: from, To: to, Reason: "rental is closed"}
	}
	if !CanTransition(from, to) {
		return &TransitionError{From: from, To: to, Reason: "transition not allowed"}
	}
	return nil
}
