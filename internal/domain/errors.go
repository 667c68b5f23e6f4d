package domain

import "errors"

// ErrNotFound is returned when an entity is not found in the store.
var ErrNotFound = errors.New("entity not found")

// ErrAlreadyExists is returned on a uniqueness violation.
var ErrAlreadyExists = errors.New("entity already exists")

// ErrScanInProgress is returned when a coordinated scan is requested
// while another run holds the single-flight token.
var ErrScanInProgress = errors.New("coordinated scan already in progress")

// ErrContentNotAvailable is returned by the posting transaction manager
// when the content row does not match the postable predicate. The message
// is part of the operator-facing contract.
var ErrContentNotAvailable = errors.New("Content not found or not available for posting")

// ErrNoDueSlot is returned by ProcessScheduledPost when no pending slot
// has reached its scheduled time.
var ErrNoDueSlot = errors.New("no scheduled slot is due")
