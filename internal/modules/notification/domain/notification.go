package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

type ReadStatus string

const (
	ReadStatusUnread ReadStatus = "UNREAD"
	ReadStatusRead   ReadStatus = "READ"
)

func (s ReadStatus) Valid() bool {
	return s == ReadStatusUnread || s == ReadStatusRead
}

// Notification is the wire and storage shape of a single notification.
// Only ReadStatus ever changes after creation, and only UNREAD -> READ.
type Notification struct {
	ID               uuid.UUID  `json:"id" db:"id"`
	UserID           uuid.UUID  `json:"userId,omitempty" db:"user_id"`
	Title            string     `json:"title" db:"title"`
	Content          string     `json:"content" db:"content"`
	NotificationType string     `json:"notificationType" db:"notification_type"`
	SourceService    string     `json:"sourceService" db:"source_service"`
	CreatedAt        time.Time  `json:"createdAt" db:"created_at"`
	ReadStatus       ReadStatus `json:"readStatus" db:"read_status"`
}

// Validate reports whether a pushed payload carries the fields the
// reconciler depends on.
func (n Notification) Validate() error {
	if n.ID == uuid.Nil {
		return fmt.Errorf("%w: missing id", ErrMalformedMessage)
	}
	if !n.ReadStatus.Valid() {
		return fmt.Errorf("%w: invalid readStatus %q", ErrMalformedMessage, n.ReadStatus)
	}
	return nil
}

func (n Notification) IsUnread() bool {
	return n.ReadStatus == ReadStatusUnread
}

// MatchesTerm is a case-insensitive substring match over content or title.
// The postgres search query uses the same rule (ILIKE on both columns).
func (n Notification) MatchesTerm(term string) bool {
	needle := strings.ToLower(term)
	return strings.Contains(strings.ToLower(n.Content), needle) ||
		strings.Contains(strings.ToLower(n.Title), needle)
}

// Page is one page of a paged query.
type Page struct {
	Content       []Notification `json:"content"`
	TotalPages    int            `json:"totalPages"`
	TotalElements int            `json:"totalElements"`
}

// TotalPagesFor returns the page count for total items split into pages of size.
func TotalPagesFor(total, size int) int {
	if size <= 0 || total <= 0 {
		return 0
	}
	return (total + size - 1) / size
}
