package main

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func newReadCmd(a *app) *cobra.Command {
	var (
		user string
		all  bool
	)

	cmd := &cobra.Command{
		Use:   "read [id]",
		Short: "Mark a notification, or with --all every notification, as read",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := parseUser(user)
			if err != nil {
				return err
			}
			client := a.newClient(a)
			out := cmd.OutOrStdout()

			if all {
				if len(args) > 0 {
					return errors.New("read: pass an id or --all, not both")
				}
				if err := client.MarkAllAsRead(cmd.Context(), userID); err != nil {
					return fmt.Errorf("read: %w", err)
				}
				fmt.Fprintln(out, "All notifications marked as read")
				return nil
			}

			if len(args) == 0 {
				return errors.New("read: notification id required")
			}
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("read: invalid notification id %q: %w", args[0], err)
			}
			if err := client.AcknowledgeRead(cmd.Context(), id, userID); err != nil {
				return fmt.Errorf("read: %w", err)
			}
			fmt.Fprintf(out, "Notification %s marked as read\n", id)
			return nil
		},
	}

	userFlag(cmd, &user)
	cmd.Flags().BoolVar(&all, "all", false, "mark every notification of the user as read")
	return cmd
}
