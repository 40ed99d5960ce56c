package main

import (
	"fmt"

	"github.com/saransh1220/notification-sync/internal/modules/notification/infrastructure/httpapi"
	"github.com/spf13/cobra"
)

func newSendCmd(a *app) *cobra.Command {
	var (
		user string
		req  httpapi.CreateRequest
	)

	cmd := &cobra.Command{
		Use:   "send",
		Short: "Create a notification and push it to its user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := parseUser(user)
			if err != nil {
				return err
			}
			req.UserID = userID

			n, err := a.newClient(a).Create(cmd.Context(), req)
			if err != nil {
				return fmt.Errorf("send: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Notification %s created\n", n.ID)
			return nil
		},
	}

	userFlag(cmd, &user)
	cmd.Flags().StringVar(&req.NotificationType, "type", "", "notification type")
	cmd.Flags().StringVar(&req.Title, "title", "", "title")
	cmd.Flags().StringVar(&req.Content, "content", "", "content")
	cmd.Flags().StringVar(&req.SourceService, "source", "notifyctl", "source service")
	_ = cmd.MarkFlagRequired("type")
	return cmd
}
