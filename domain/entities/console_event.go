package entities

import "time"

// ConsoleSource tells where a page event came from
type ConsoleSource string

const (
	SourceConsole   ConsoleSource = "console"
	SourcePageError ConsoleSource = "pageerror"
)

// ConsoleEvent is a console message or an uncaught page error
type ConsoleEvent struct {
	Source ConsoleSource `json:"source"`
	Type   string        `json:"type,omitempty"`
	Text   string        `json:"text"`
	At     time.Time     `json:"at"`
}
