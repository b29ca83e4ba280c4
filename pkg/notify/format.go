package notify

import (
	"fmt"
	"strings"

	"github.com/aretw0/sopflow/pkg/domain"
)

// Template variables understood by Format.
const (
	VarObjectName = "objectName"
	VarFromStatus = "fromStatus"
	VarToStatus   = "toStatus"
	VarAction     = "action"
	VarActor      = "actor"
	VarTimestamp  = "timestamp"
)

const (
	missingValue = "N/A"
	missingActor = "Unknown"
)

// Preview is what one channel would have sent.
type Preview struct {
	Icon      string `json:"icon"`
	Channel   string `json:"channel"`
	Recipient string `json:"recipient"`
	Subject   string `json:"subject"`
	Body      string `json:"body"`
	Formatted string `json:"formatted"`
}

var channelIcons = map[domain.Channel]string{
	domain.ChannelEmail:   "📧",
	domain.ChannelSMS:     "📱",
	domain.ChannelWebhook: "🔗",
	domain.ChannelInApp:   "🔔",
}

var channelNames = map[domain.Channel]string{
	domain.ChannelEmail:   "Email",
	domain.ChannelSMS:     "SMS",
	domain.ChannelWebhook: "Webhook",
	domain.ChannelInApp:   "In-App",
}

var recipientNames = map[domain.Recipient]string{
	domain.RecipientOwner:    "Object Owner",
	domain.RecipientAssignee: "Assignee",
	domain.RecipientAdmin:    "Administrator",
	domain.RecipientCustom:   "Custom Recipient",
}

// ChannelName returns the display name of a channel.
func ChannelName(c domain.Channel) string {
	if name, ok := channelNames[c]; ok {
		return name
	}
	return string(c)
}

// ChannelIcon returns the glyph shown next to a channel.
func ChannelIcon(c domain.Channel) string {
	if icon, ok := channelIcons[c]; ok {
		return icon
	}
	return "✉️"
}

// RecipientName returns the display name of a recipient.
func RecipientName(r domain.Recipient) string {
	if name, ok := recipientNames[r]; ok {
		return name
	}
	if r == "" {
		return missingValue
	}
	return string(r)
}

// Format renders one Preview per channel in spec. Missing variables are
// substituted with placeholders; Format never fails.
func Format(spec domain.NotificationSpec, vars map[string]string) []Preview {
	body := Render(spec.Template, vars)
	subject := "Status update: " + lookup(vars, VarObjectName, missingValue)
	recipient := RecipientName(spec.Recipient)

	previews := make([]Preview, 0, len(spec.Channels))
	for _, ch := range spec.Channels {
		p := Preview{
			Icon:      ChannelIcon(ch),
			Channel:   ChannelName(ch),
			Recipient: recipient,
			Subject:   subject,
			Body:      body,
		}
		p.Formatted = fmt.Sprintf("%s [%s] To: %s | %s | %s", p.Icon, p.Channel, p.Recipient, p.Subject, oneLine(p.Body))
		previews = append(previews, p)
	}
	return previews
}

// Render substitutes the known {tokens} in template. Unknown tokens are left as is.
func Render(template string, vars map[string]string) string {
	r := strings.NewReplacer(
		"{"+VarObjectName+"}", lookup(vars, VarObjectName, missingValue),
		"{"+VarFromStatus+"}", lookup(vars, VarFromStatus, missingValue),
		"{"+VarToStatus+"}", lookup(vars, VarToStatus, missingValue),
		"{"+VarAction+"}", lookup(vars, VarAction, missingValue),
		"{"+VarActor+"}", lookup(vars, VarActor, missingActor),
		"{"+VarTimestamp+"}", lookup(vars, VarTimestamp, missingValue),
	)
	return r.Replace(template)
}

// PreviewEvent renders an event recorded on an audit entry. The event's own
// captured context fills the status variables; vars supplies the rest and
// wins on conflicts.
func PreviewEvent(evt domain.NotificationEvent, vars map[string]string) []Preview {
	merged := make(map[string]string, len(evt.Context)+len(vars))
	for k, v := range evt.Context {
		merged[k] = v
	}
	if label, ok := evt.Context[domain.ContextKeyNodeLabel]; ok {
		switch evt.Kind {
		case domain.NotificationNodeExit:
			merged[VarFromStatus] = label
		case domain.NotificationNodeEnter:
			merged[VarToStatus] = label
		}
	}
	for k, v := range vars {
		merged[k] = v
	}
	return Format(evt.Spec(), merged)
}

func lookup(vars map[string]string, key, fallback string) string {
	if v := strings.TrimSpace(vars[key]); v != "" {
		return vars[key]
	}
	return fallback
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
