package model

import "time"

// Message is a single post on the board.
//
// The JSON names match what existing guest book clients already read:
//
//	{"id":"cv37rs3pp9olc6atsptg","message":"hello there","like":0,"createdAt":"..."}
type Message struct {
	ID        string    `json:"id"        db:"id"`
	Text      string    `json:"message"   db:"message"`
	Likes     int       `json:"like"      db:"likes"` // only changed by an increment
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}
