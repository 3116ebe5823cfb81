package remapper

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/feral-file/ff-marketplace-indexer/internal/domain"
	"github.com/feral-file/ff-marketplace-indexer/internal/jsonpath"
	"github.com/feral-file/ff-marketplace-indexer/internal/logger"
	"github.com/feral-file/ff-marketplace-indexer/internal/registry"
)

// RemapStats counts what happened to the events of one transaction
type RemapStats struct {
	Matched   int
	Unmatched int
	Malformed int
}

// EventRemapper defines the interface for turning transaction events into activity drafts
//
//go:generate mockgen -source=event_remapper.go -destination=../mocks/event_remapper.go -package=mocks -mock_names=EventRemapper=MockEventRemapper
type EventRemapper interface {
	// Remap matches each event of the transaction against the marketplace registry and
	// extracts the configured event fields into one draft per matched event
	Remap(tx *domain.Transaction) (*Arena, RemapStats)
}

type eventRemapper struct {
	registry registry.MarketplaceRegistry
}

// NewEventRemapper creates a new event remapper
func NewEventRemapper(registry registry.MarketplaceRegistry) EventRemapper {
	return &eventRemapper{registry: registry}
}

// Remap matches each event of the transaction against the marketplace registry and
// extracts the configured event fields into one draft per matched event
func (r *eventRemapper) Remap(tx *domain.Transaction) (*Arena, RemapStats) {
	arena := NewArena()
	var stats RemapStats

	for i := range tx.Events {
		event := &tx.Events[i]

		contract, ok := domain.MoveTypeAddress(event.Type)
		if !ok {
			// primitive events such as a bare u64 carry no module address
			stats.Unmatched++
			continue
		}

		mapping, ok := r.registry.Resolve(contract, event.Type, tx.Version)
		if !ok {
			stats.Unmatched++
			continue
		}

		root, err := jsonpath.Decode(event.Data)
		if err != nil {
			stats.Malformed++
			logger.Error(fmt.Errorf("%w: %v", domain.ErrMalformedPayload, err),
				zap.String("marketplace", mapping.Marketplace),
				zap.String("event_type", event.Type),
				zap.Uint64("tx_version", tx.Version),
				zap.Int("event_index", i))
			continue
		}

		draft := newDraft(tx, i, event, mapping)
		for _, source := range mapping.EventFields {
			value, ok := extract(root, source)
			if !ok {
				continue
			}
			if !draft.Set(source.Field, value) {
				logger.Debug("Rejected extracted value",
					zap.String("field", string(source.Field)),
					zap.String("path", source.Path.String()),
					zap.String("value", value),
					zap.Uint64("tx_version", tx.Version))
			}
		}

		draft.detectStandard()
		draft.deriveIDs()

		arena.Add(draft)
		stats.Matched++
	}

	return arena, stats
}
