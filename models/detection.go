package models

// Detection represents an announcement that was accepted and amplified.
type Detection struct {
	MessageID      string `json:"message_id"`
	GuildID        string `json:"guild_id"`
	ChannelID      string `json:"channel_id"`
	AuthorID       string `json:"author_id"`
	AuthorName     string `json:"author_name"`
	StructureScore int    `json:"structure_score"`
	ContentScore   int    `json:"content_score"`
	Escalated      bool   `json:"escalated"` // staff role was mentioned
	Sent           bool   `json:"sent"`      // false when the channel send failed
	Timestamp      int64  `json:"timestamp"`
}
