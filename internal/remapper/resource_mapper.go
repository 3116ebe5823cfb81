package remapper

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/feral-file/ff-marketplace-indexer/internal/domain"
	"github.com/feral-file/ff-marketplace-indexer/internal/jsonpath"
	"github.com/feral-file/ff-marketplace-indexer/internal/logger"
	"github.com/feral-file/ff-marketplace-indexer/internal/registry"
)

// ResourceMapper defines the interface for completing drafts from the write-set of their transaction
//
//go:generate mockgen -source=resource_mapper.go -destination=../mocks/resource_mapper.go -package=mocks -mock_names=ResourceMapper=MockResourceMapper
type ResourceMapper interface {
	// Resolve fills the write-set sourced columns of every draft in the arena using only the
	// changes of the same transaction
	Resolve(arena *Arena, changes []domain.WriteSetChange)
}

type resourceMapper struct{}

// NewResourceMapper creates a new resource mapper
func NewResourceMapper() ResourceMapper {
	return &resourceMapper{}
}

// resource is a write-set change decoded on first use
type resource struct {
	change       *domain.WriteSetChange
	address      string
	resourceType string
	root         any
	decoded      bool
	malformed    bool
}

func (r *resource) payload() (any, bool) {
	if !r.decoded {
		r.decoded = true
		root, err := jsonpath.Decode(r.change.Data)
		if err != nil {
			r.malformed = true
			logger.Error(fmt.Errorf("%w: %v", domain.ErrMalformedPayload, err),
				zap.String("resource_type", r.change.ResourceType),
				zap.String("address", r.address))
			return nil, false
		}
		r.root = root
	}
	return r.root, !r.malformed
}

// resourceIndex groups upserted resources by normalized type
type resourceIndex map[string][]*resource

func newResourceIndex(changes []domain.WriteSetChange) resourceIndex {
	index := make(resourceIndex)
	for i := range changes {
		change := &changes[i]
		if !change.IsWrite() {
			continue
		}
		resourceType, ok := domain.NormalizeMoveType(change.ResourceType)
		if !ok {
			continue
		}
		index[resourceType] = append(index[resourceType], &resource{
			change:       change,
			address:      domain.StandardizeAddress(change.Address),
			resourceType: resourceType,
		})
	}
	return index
}

// Resolve fills the write-set sourced columns of every draft in the arena using only the
// changes of the same transaction
func (m *resourceMapper) Resolve(arena *Arena, changes []domain.WriteSetChange) {
	var index resourceIndex

	for _, draft := range arena.Drafts() {
		pending := draft.Pending()
		if len(pending) == 0 {
			continue
		}
		if index == nil {
			index = newResourceIndex(changes)
		}

		for _, source := range pending {
			if draft.Has(source.Field) {
				continue
			}

			candidate, err := selectCandidate(draft, index[source.ResourceType])
			if err != nil {
				if errors.Is(err, domain.ErrCorrelationAmbiguous) {
					logger.Warn("Write-set field left unresolved",
						zap.Error(err),
						zap.String("field", string(source.Field)),
						zap.String("resource_type", source.ResourceType),
						zap.Uint64("tx_version", draft.Key.TxVersion),
						zap.Int("event_index", draft.Key.EventIndex))
				}
				continue
			}

			root, ok := candidate.payload()
			if !ok {
				continue
			}

			if standard, ok := domain.ResourceStandard(candidate.resourceType); ok {
				draft.confirmStandard(standard)
			}

			value, ok := extract(root, source)
			if !ok {
				continue
			}
			if !draft.Set(source.Field, value) {
				logger.Debug("Rejected resource value",
					zap.String("field", string(source.Field)),
					zap.String("path", source.Path.String()),
					zap.String("value", value),
					zap.Uint64("tx_version", draft.Key.TxVersion))
			}
		}

		draft.deriveIDs()
	}
}

// errNoCandidate means no resource of the required type lives at the draft's addresses
var errNoCandidate = errors.New("no matching resource")

// selectCandidate joins on the token or collection address the draft already knows. Without
// any address it only accepts a sole candidate
func selectCandidate(draft *ActivityDraft, candidates []*resource) (*resource, error) {
	if len(candidates) == 0 {
		return nil, errNoCandidate
	}

	var addresses []string
	if token, ok := draft.Get(registry.FieldTokenAddr); ok {
		addresses = append(addresses, token)
	}
	if collection, ok := draft.Get(registry.FieldCollectionAddr); ok {
		addresses = append(addresses, collection)
	}

	if len(addresses) > 0 {
		for _, candidate := range candidates {
			for _, address := range addresses {
				if candidate.address == address {
					return candidate, nil
				}
			}
		}
		return nil, errNoCandidate
	}

	if len(candidates) == 1 {
		return candidates[0], nil
	}

	return nil, fmt.Errorf("%w: %d candidates of %s", domain.ErrCorrelationAmbiguous, len(candidates), candidates[0].resourceType)
}
