package domain

import "errors"

var (
	ErrNotificationNotFound = errors.New("notification not found")
	ErrInvalidNotification  = errors.New("invalid notification")

	// ErrConnection is a push handshake or transport failure. The connection
	// manager retries it and only surfaces it after repeated failures.
	ErrConnection = errors.New("push connection failed")
	// ErrFetch is a query failure; the visible page keeps its last good content.
	ErrFetch = errors.New("failed to load notifications")
	// ErrAck is a mark-as-read failure; no local mutation is applied.
	ErrAck = errors.New("failed to mark notification as read")
	// ErrMalformedMessage marks a push payload that is dropped without
	// touching view state.
	ErrMalformedMessage = errors.New("malformed push message")

	ErrInvalidPage   = errors.New("page must be >= 1")
	ErrAckInFlight   = errors.New("mark as read already in progress")
	ErrSessionClosed = errors.New("session closed")
	ErrStreamClosed  = errors.New("push stream closed")
)
