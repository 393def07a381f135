package chat

import "github.com/eshu30/AI-Stockbot/internal/model/market"

// View is the render state handed to the frontend after every command.
// Messages excludes the system instruction; Snapshot is nil until the
// user pins a stock.
type View struct {
	SessionID     string           `json:"sessionId"`
	UserID        string           `json:"userId"`
	Messages      []Message        `json:"messages"`
	Snapshot      *market.Snapshot `json:"snapshot,omitempty"`
	PicksAnalysis string           `json:"picksAnalysis"`
}
