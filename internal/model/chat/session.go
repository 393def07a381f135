package chat

import "time"

// Session identifies one browser visit. UserID outlives the session and
// keys the persisted history document.
type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	CreatedAt time.Time `json:"createdAt"`
}
