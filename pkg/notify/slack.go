package notify

// SlackMessage represents a Slack webhook message
type SlackMessage struct {
	Text        string            `json:"text,omitempty"`
	Attachments []SlackAttachment `json:"attachments,omitempty"`
}

// SlackAttachment represents a Slack attachment
type SlackAttachment struct {
	Color  string       `json:"color,omitempty"`
	Title  string       `json:"title,omitempty"`
	Text   string       `json:"text,omitempty"`
	Fields []SlackField `json:"fields,omitempty"`
}

// SlackField represents a field in a Slack attachment
type SlackField struct {
	Title string `json:"title"`
	Value string `json:"value"`
	Short bool   `json:"short"`
}

// FormatSlackMessage formats a visitor event as a Slack message
func FormatSlackMessage(event *Event) SlackMessage {
	fields := []SlackField{
		{Title: "Visitor", Value: event.Visitor.Name, Short: true},
		{Title: "Badge", Value: event.Visitor.BadgeID, Short: true},
		{Title: "Host", Value: event.Visitor.HostName, Short: true},
		{Title: "Time", Value: event.OccurredAt.Format("2006-01-02 15:04:05"), Short: true},
	}
	if event.Visitor.Company != "" {
		fields = append(fields, SlackField{Title: "Company", Value: event.Visitor.Company, Short: true})
	}
	if event.Visitor.Purpose != "" {
		fields = append(fields, SlackField{Title: "Purpose", Value: event.Visitor.Purpose, Short: false})
	}

	return SlackMessage{
		Attachments: []SlackAttachment{
			{
				Color:  getEventColor(event.Type),
				Title:  event.Title(),
				Fields: fields,
			},
		},
	}
}

// getEventColor returns the Slack color for an event type
func getEventColor(eventType string) string {
	switch eventType {
	case EventTypeCheckin:
		return "good" // Green
	case EventTypeCheckout:
		return "#439FE0" // Blue
	default:
		return "warning" // Yellow
	}
}
