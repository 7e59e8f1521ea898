package publishers

import (
	"time"

	"github.com/google/uuid"

	"github.com/Adda-Baaj/onefootball-harvester/internal/domain"
)

// Event represents the payload published downstream.
type Event struct {
	ID           string            `json:"id"`
	ProviderID   string            `json:"provider_id"`
	ProviderName string            `json:"provider_name"`
	Record       domain.NewsRecord `json:"article"`
	CollectedAt  time.Time         `json:"collected_at"`
}

// NewEvent constructs an Event for the given provider + record.
func NewEvent(providerID, providerName string, rec domain.NewsRecord) Event {
	return Event{
		ID:           uuid.NewString(),
		ProviderID:   providerID,
		ProviderName: providerName,
		Record:       rec,
		CollectedAt:  time.Now().UTC(),
	}
}

// attributes returns the routing metadata attached to queue and topic messages.
func (e Event) attributes() map[string]string {
	return map[string]string{
		"event_id":    e.ID,
		"provider_id": e.ProviderID,
		"article_id":  e.Record.ID,
		"source":      e.Record.Source,
	}
}
