package booking

// Status represents the lifecycle state of a booking request. The wire values
// keep the Indonesian labels used throughout the lab information system.
type Status string

const (
	// StatusPending is the initial state of every submitted request.
	StatusPending Status = "pending"
	// StatusApproved marks a request granted by an administrator.
	StatusApproved Status = "disetujui"
	// StatusRejected marks a request declined by an administrator.
	StatusRejected Status = "ditolak"
	// StatusCompleted marks an approved request whose loan has concluded.
	StatusCompleted Status = "selesai"
	// StatusCancelled marks a request withdrawn by its requester.
	StatusCancelled Status = "dibatalkan"
	// StatusExpired marks a pending request whose start time passed undecided.
	StatusExpired Status = "kedaluwarsa"
)

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected, StatusCompleted, StatusCancelled, StatusExpired:
		return true
	}
	return false
}

// Active reports whether a request in this status still occupies its room
// interval. Only active requests participate in conflict detection and
// calendar projection.
func (s Status) Active() bool {
	return s == StatusPending || s == StatusApproved
}

// Terminal reports whether no further transition is defined from s.
func (s Status) Terminal() bool {
	switch s {
	case StatusRejected, StatusCompleted, StatusCancelled, StatusExpired:
		return true
	}
	return false
}

var transitions = map[Status][]Status{
	StatusPending:  {StatusApproved, StatusRejected, StatusCancelled, StatusExpired},
	StatusApproved: {StatusCompleted, StatusCancelled},
}

// CanTransition reports whether the state machine permits moving a request
// from one status to another. Terminal statuses permit nothing.
func CanTransition(from, to Status) bool {
	for _, allowed := range transitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}
