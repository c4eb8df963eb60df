package goals

import "errors"

var (
	// ErrNotFound is returned when a goal or node does not exist.
	ErrNotFound = errors.New("not found")

	// ErrGoalNotArchived is returned when deleting a goal that is still
	// active.
	ErrGoalNotArchived = errors.New("only archived goals can be deleted")

	// ErrInvalidStatus is returned for an unknown goal or node status.
	ErrInvalidStatus = errors.New("invalid status")

	// ErrMissingTitle is returned when creating a goal without a title.
	ErrMissingTitle = errors.New("goal title is required")
)
