package events

// ClickRecorded is emitted when a redirect is served for an alias.
type ClickRecorded struct {
	EventID    string `json:"eventId"`
	Alias      string `json:"alias"`
	OccurredAt string `json:"occurredAt"`
}
