package main

import (
	"github.com/saransh1220/notification-sync/internal/modules/notification/domain"
	"github.com/saransh1220/notification-sync/internal/modules/viewsync"
	"github.com/spf13/cobra"
)

func newListCmd(a *app) *cobra.Command {
	var (
		user   string
		filter string
		search string
		page   int
		size   int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Print one page of notifications",
		Long: `Print one page of notifications.

A search term overrides the filter. Pages start at 1.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := parseUser(user)
			if err != nil {
				return err
			}
			view, err := domain.NewViewState(size).
				WithFilter(domain.ParseFilter(filter)).
				WithSearchTerm(search).
				WithPage(page)
			if err != nil {
				return err
			}

			result, err := viewsync.ListPage(cmd.Context(), a.newClient(a), userID, view)
			if err != nil {
				return err
			}
			writePage(cmd.OutOrStdout(), view, result)
			return nil
		},
	}

	userFlag(cmd, &user)
	cmd.Flags().StringVar(&filter, "filter", "all", "all, unread or a notification type")
	cmd.Flags().StringVar(&search, "search", "", "case-insensitive match on title or content")
	cmd.Flags().IntVar(&page, "page", 1, "page number, starting at 1")
	cmd.Flags().IntVar(&size, "size", a.cfg.Client.PageSize, "page size")
	return cmd
}
