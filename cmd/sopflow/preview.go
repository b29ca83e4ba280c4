package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/aretw0/sopflow"
	"github.com/aretw0/sopflow/pkg/domain"
	"github.com/aretw0/sopflow/pkg/notify"
	"github.com/spf13/cobra"
)

var previewCmd = &cobra.Command{
	Use:   "preview <template>",
	Short: "Preview a notification template",
	Long: `Renders a notification the way it would be sent on each channel.
Template tokens: {objectName} {fromStatus} {toStatus} {action} {actor} {timestamp}.`,
	Example: `  sopflow preview "{objectName} moved to {toStatus}" --channel email --channel sms --var objectName=PO-17 --var toStatus=Approved`,
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		channels, _ := cmd.Flags().GetStringSlice("channel")
		recipient, _ := cmd.Flags().GetString("recipient")
		pairs, _ := cmd.Flags().GetStringArray("var")

		vars := map[string]string{notify.VarTimestamp: time.Now().UTC().Format(time.RFC3339)}
		for _, pair := range pairs {
			k, v, ok := strings.Cut(pair, "=")
			if !ok {
				return fmt.Errorf("invalid variable %q, expected name=value", pair)
			}
			vars[k] = v
		}

		spec := domain.NotificationSpec{
			Enabled:   true,
			Recipient: domain.Recipient(recipient),
			Template:  args[0],
		}
		for _, ch := range channels {
			spec.Channels = append(spec.Channels, domain.Channel(ch))
		}

		for _, p := range sopflow.Preview(spec, vars) {
			fmt.Fprintln(cmd.OutOrStdout(), p.Formatted)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(previewCmd)
	previewCmd.Flags().StringSlice("channel", []string{string(domain.ChannelInApp)}, "Channels: email, sms, webhook, in_app")
	previewCmd.Flags().String("recipient", string(domain.RecipientOwner), "Recipient: owner, assignee, admin, custom")
	previewCmd.Flags().StringArray("var", nil, "Template variable as name=value (repeatable)")
}
