package notify_test

import (
	"testing"

	"github.com/aretw0/sopflow/pkg/domain"
	"github.com/aretw0/sopflow/pkg/notify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormat(t *testing.T) {
	spec := domain.NotificationSpec{
		Enabled:   true,
		Channels:  []domain.Channel{domain.ChannelEmail, domain.ChannelSMS, domain.ChannelWebhook, domain.ChannelInApp},
		Recipient: domain.RecipientAssignee,
		Template:  "{actor} moved {objectName} from {fromStatus} to {toStatus} via {action} at {timestamp}",
	}
	vars := map[string]string{
		"objectName": "Invoice 42",
		"fromStatus": "Draft",
		"toStatus":   "Review",
		"action":     "Submit",
		"actor":      "ana",
		"timestamp":  "2026-03-01T09:30:00Z",
	}

	previews := notify.Format(spec, vars)
	require.Len(t, previews, 4)

	body := "ana moved Invoice 42 from Draft to Review via Submit at 2026-03-01T09:30:00Z"
	assert.Equal(t, notify.Preview{
		Icon:      "📧",
		Channel:   "Email",
		Recipient: "Assignee",
		Subject:   "Status update: Invoice 42",
		Body:      body,
		Formatted: "📧 [Email] To: Assignee | Status update: Invoice 42 | " + body,
	}, previews[0])

	assert.Equal(t, []string{"Email", "SMS", "Webhook", "In-App"}, []string{
		previews[0].Channel, previews[1].Channel, previews[2].Channel, previews[3].Channel,
	})
	assert.Equal(t, "🔔", previews[3].Icon)
	for _, p := range previews {
		assert.Equal(t, body, p.Body)
	}
}

func TestFormat_MissingVariables(t *testing.T) {
	spec := domain.NotificationSpec{
		Channels:  []domain.Channel{domain.ChannelEmail},
		Recipient: domain.RecipientOwner,
		Template:  "{objectName}|{fromStatus}|{toStatus}|{action}|{actor}|{timestamp}|{other}",
	}

	for _, vars := range []map[string]string{nil, {}, {"actor": "  "}} {
		previews := notify.Format(spec, vars)
		require.Len(t, previews, 1)
		assert.Equal(t, "N/A|N/A|N/A|N/A|Unknown|N/A|{other}", previews[0].Body)
		assert.Equal(t, "Status update: N/A", previews[0].Subject)
		assert.Equal(t, "Object Owner", previews[0].Recipient)
	}
}

func TestFormat_RepeatedTokens(t *testing.T) {
	spec := domain.NotificationSpec{Channels: []domain.Channel{domain.ChannelSMS}, Template: "{action}! {action}!"}
	previews := notify.Format(spec, map[string]string{"action": "Go"})
	assert.Equal(t, "Go! Go!", previews[0].Body)
	assert.Equal(t, "N/A", previews[0].Recipient)
}

func TestFormat_NoChannels(t *testing.T) {
	assert.Empty(t, notify.Format(domain.NotificationSpec{Template: "hi"}, nil))
}

func TestFormat_MultilineBodyFormattedOnOneLine(t *testing.T) {
	spec := domain.NotificationSpec{Channels: []domain.Channel{domain.ChannelWebhook}, Recipient: domain.RecipientAdmin, Template: "line one\n  line two"}
	p := notify.Format(spec, map[string]string{"objectName": "X"})[0]
	assert.Equal(t, "line one\n  line two", p.Body)
	assert.Equal(t, "🔗 [Webhook] To: Administrator | Status update: X | line one line two", p.Formatted)
}

func TestPreviewEvent(t *testing.T) {
	spec := &domain.NotificationSpec{
		Enabled:   true,
		Channels:  []domain.Channel{domain.ChannelInApp},
		Recipient: domain.RecipientCustom,
		Template:  "{objectName}: {fromStatus} -> {toStatus}",
	}

	t.Run("Action", func(t *testing.T) {
		evt := domain.NewNotificationEvent(domain.NotificationAction, "onTrigger", spec, map[string]string{
			"action": "Submit", "fromStatus": "Draft", "toStatus": "Review",
		})
		p := notify.PreviewEvent(evt, map[string]string{"objectName": "Case 7"})
		require.Len(t, p, 1)
		assert.Equal(t, "Case 7: Draft -> Review", p[0].Body)
		assert.Equal(t, "Custom Recipient", p[0].Recipient)
	})

	t.Run("Node Exit", func(t *testing.T) {
		evt := domain.NewNotificationEvent(domain.NotificationNodeExit, "onExit", spec, map[string]string{"nodeLabel": "Draft"})
		p := notify.PreviewEvent(evt, nil)
		assert.Equal(t, "N/A: Draft -> N/A", p[0].Body)
	})

	t.Run("Node Enter", func(t *testing.T) {
		evt := domain.NewNotificationEvent(domain.NotificationNodeEnter, "onEnter", spec, map[string]string{"nodeLabel": "Review"})
		p := notify.PreviewEvent(evt, map[string]string{"objectName": "Case 7", "fromStatus": "Draft"})
		assert.Equal(t, "Case 7: Draft -> Review", p[0].Body)
	})
}
