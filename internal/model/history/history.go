// Package history persists per-user chat transcripts as whole documents
// keyed by a hierarchical path.
package history

import (
	"context"
	"fmt"
	"time"

	"github.com/eshu30/AI-Stockbot/internal/model/chat"
)

// Document is the durable form of one user's conversation. Save always
// writes the full document, so LastUpdated moves on every completed turn.
type Document struct {
	Messages    []chat.Message `json:"messages"`
	LastUpdated time.Time      `json:"lastUpdated"`
}

// DocPath builds the storage key for a user's history document,
// grouping documents by application then user.
func DocPath(appID, userID string) string {
	return fmt.Sprintf("artifacts/%s/users/%s/stockbot_history/chat_doc", appID, userID)
}

// Store reads and writes whole history documents. Load reports
// ok=false when no document exists yet; Save overwrites.
type Store interface {
	Load(ctx context.Context, path string) (Document, bool, error)
	Save(ctx context.Context, path string, doc Document) error
	Close() error
}
