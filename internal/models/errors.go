package models

import "errors"

var (
	// ErrUnsortedInput is returned by BuildChart when the event list
	// violates the ascending-timestamp precondition.
	ErrUnsortedInput = errors.New("events not sorted by timestampMs")

	// ErrMalformedRecord is returned when a record is missing required
	// fields or carries an unknown type.
	ErrMalformedRecord = errors.New("malformed record")

	// ErrOrphanedReply is returned by Threader.Ingest when a reply
	// references a parent that is not in the seen-set. The reply is
	// deferred, not dropped: a later batch containing the parent may
	// re-deliver it.
	ErrOrphanedReply = errors.New("reply references unknown parent")
)
