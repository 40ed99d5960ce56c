package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/saransh1220/notification-sync/internal/modules/notification/domain"
	"github.com/saransh1220/notification-sync/internal/modules/viewsync"
)

const timeLayout = "2006-01-02 15:04"

func writeNotification(w io.Writer, n domain.Notification, marking bool) {
	marker := " "
	switch {
	case marking:
		marker = "~"
	case n.IsUnread():
		marker = "*"
	}
	text := n.Title
	if n.Content != "" {
		if text != "" {
			text += ": "
		}
		text += n.Content
	}
	fmt.Fprintf(w, "%s %s  %-12s %s  (%s)\n", marker, n.CreatedAt.Local().Format(timeLayout), n.NotificationType, text, n.ID)
}

func describeView(v domain.ViewState) string {
	if v.SearchTerm != "" {
		return fmt.Sprintf("search %q", v.SearchTerm)
	}
	return "filter " + string(v.Filter)
}

func writePage(w io.Writer, view domain.ViewState, page domain.Page) {
	fmt.Fprintf(w, "%s  page %d/%d  (%d total)\n", describeView(view), view.Page, max(page.TotalPages, 1), page.TotalElements)
	if len(page.Content) == 0 {
		fmt.Fprintln(w, "  no notifications")
		return
	}
	for _, n := range page.Content {
		writeNotification(w, n, false)
	}
}

func writeSnapshot(w io.Writer, s viewsync.Snapshot) {
	fmt.Fprintf(w, "\n%s  page %d/%d  unread %d\n", describeView(s.View), s.View.Page, max(s.TotalPages, 1), s.UnreadCount)
	if s.ConnectionErr != nil {
		fmt.Fprintf(w, "! %v\n", s.ConnectionErr)
	}
	if s.Err != nil {
		fmt.Fprintf(w, "! %v\n", s.Err)
	}
	if len(s.Items) == 0 {
		fmt.Fprintln(w, "  no notifications")
	}
	for _, n := range s.Items {
		writeNotification(w, n, s.IsMarking(n.ID))
	}
	if len(s.Types) > 0 {
		fmt.Fprintf(w, "types: %s\n", strings.Join(s.Types, ", "))
	}
}
