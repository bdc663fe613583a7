package notify

// TeamsMessage represents a Microsoft Teams webhook message
type TeamsMessage struct {
	Type       string         `json:"@type"`
	Context    string         `json:"@context"`
	Summary    string         `json:"summary,omitempty"`
	Title      string         `json:"title,omitempty"`
	Text       string         `json:"text,omitempty"`
	ThemeColor string         `json:"themeColor,omitempty"`
	Sections   []TeamsSection `json:"sections,omitempty"`
}

// TeamsSection represents a section in a Teams message
type TeamsSection struct {
	ActivityTitle string      `json:"activityTitle,omitempty"`
	Facts         []TeamsFact `json:"facts,omitempty"`
	Text          string      `json:"text,omitempty"`
}

// TeamsFact represents a fact in a Teams section
type TeamsFact struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// FormatTeamsMessage formats a visitor event as a Microsoft Teams message
func FormatTeamsMessage(event *Event) TeamsMessage {
	facts := []TeamsFact{
		{Name: "Visitor", Value: event.Visitor.Name},
		{Name: "Badge", Value: event.Visitor.BadgeID},
		{Name: "Host", Value: event.Visitor.HostName},
		{Name: "Time", Value: event.OccurredAt.Format("2006-01-02 15:04:05")},
	}
	if event.Visitor.Company != "" {
		facts = append(facts, TeamsFact{Name: "Company", Value: event.Visitor.Company})
	}

	return TeamsMessage{
		Type:       "MessageCard",
		Context:    "http://schema.org/extensions",
		Summary:    event.Title(),
		Title:      event.Title(),
		ThemeColor: getEventThemeColor(event.Type),
		Sections: []TeamsSection{
			{
				Facts: facts,
				Text:  event.Visitor.Purpose,
			},
		},
	}
}

// getEventThemeColor returns the Teams theme color for an event type
func getEventThemeColor(eventType string) string {
	switch eventType {
	case EventTypeCheckin:
		return "28a745" // Green
	case EventTypeCheckout:
		return "007bff" // Blue
	default:
		return "ffc107" // Yellow
	}
}
