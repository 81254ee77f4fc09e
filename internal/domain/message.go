package domain

import "time"

// Channel is a monitored chat channel after resolution
type Channel struct {
	ID    int64
	Ref   string
	Title string
}

// Message is a chat message delivered by the transport
type Message struct {
	ChannelID  int64
	ChannelRef string
	Text       string
	Date       time.Time
}
