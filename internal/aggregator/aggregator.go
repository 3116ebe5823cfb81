package aggregator

import (
	"context"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/feral-file/ff-marketplace-indexer/internal/logger"
	"github.com/feral-file/ff-marketplace-indexer/internal/store"
)

//go:generate mockgen -source=aggregator.go -destination=../mocks/aggregator.go -package=mocks -mock_names=Maintainer=MockMaintainer

// Delta is what one database transaction changed that collection aggregates depend on
type Delta struct {
	// Sales of newly inserted sale activities, per collection
	Sales map[string]store.SalesIncrement
	// ListingCollections had a listing change state
	ListingCollections map[string]struct{}
	// OwnerCollections had a token change owner or burn
	OwnerCollections map[string]struct{}
	// Attributes are the (type, value) pairs inserted per collection
	Attributes map[string]map[store.AttributePair]struct{}
}

// NewDelta creates an empty delta
func NewDelta() *Delta {
	return &Delta{
		Sales:              make(map[string]store.SalesIncrement),
		ListingCollections: make(map[string]struct{}),
		OwnerCollections:   make(map[string]struct{}),
		Attributes:         make(map[string]map[store.AttributePair]struct{}),
	}
}

// AddSale records one sale. A nil USD value adds nothing to the USD volume
func (d *Delta) AddSale(collectionID string, price, usdPrice *decimal.Decimal) {
	inc := d.Sales[collectionID]
	inc.Count++
	if price != nil {
		inc.Volume = inc.Volume.Add(*price)
	}
	if usdPrice != nil {
		inc.VolumeUSD = inc.VolumeUSD.Add(*usdPrice)
	}
	d.Sales[collectionID] = inc
}

// TouchListing marks the collection's floor and listed count as stale
func (d *Delta) TouchListing(collectionID string) {
	d.ListingCollections[collectionID] = struct{}{}
}

// TouchOwner marks the collection's supply and owner count as stale
func (d *Delta) TouchOwner(collectionID string) {
	d.OwnerCollections[collectionID] = struct{}{}
}

// AddAttributes records attribute pairs inserted for the collection
func (d *Delta) AddAttributes(collectionID string, pairs ...store.AttributePair) {
	if len(pairs) == 0 {
		return
	}
	set, ok := d.Attributes[collectionID]
	if !ok {
		set = make(map[store.AttributePair]struct{})
		d.Attributes[collectionID] = set
	}
	for _, pair := range pairs {
		set[pair] = struct{}{}
	}
}

// CollectionIDs returns every collection the delta touches, sorted
func (d *Delta) CollectionIDs() []string {
	ids := make([]string, 0, len(d.Sales)+len(d.ListingCollections)+len(d.OwnerCollections)+len(d.Attributes))
	for id := range d.Sales {
		ids = append(ids, id)
	}
	for id := range d.ListingCollections {
		ids = append(ids, id)
	}
	for id := range d.OwnerCollections {
		ids = append(ids, id)
	}
	for id := range d.Attributes {
		ids = append(ids, id)
	}
	return uniqueSorted(ids)
}

// IsEmpty reports whether applying the delta would change nothing
func (d *Delta) IsEmpty() bool {
	return len(d.CollectionIDs()) == 0
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for key := range set {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func sortedPairs(set map[store.AttributePair]struct{}) []store.AttributePair {
	pairs := make([]store.AttributePair, 0, len(set))
	for pair := range set {
		pairs = append(pairs, pair)
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].AttrType != pairs[j].AttrType {
			return pairs[i].AttrType < pairs[j].AttrType
		}
		return pairs[i].Value < pairs[j].Value
	})
	return pairs
}

// Maintainer keeps the derived collection and attribute statistics in step with entity writes
type Maintainer interface {
	// Apply updates the aggregates touched by the delta. st must be bound to the
	// transaction that wrote the entities so that both commit together
	Apply(ctx context.Context, st store.Store, delta *Delta) error
}

type maintainer struct{}

// NewMaintainer creates a new aggregate maintainer
func NewMaintainer() Maintainer {
	return &maintainer{}
}

// Apply locks the touched collection rows in id order, then applies the sales increments
// and recomputes the listing, owner and rarity statistics
func (m *maintainer) Apply(ctx context.Context, st store.Store, delta *Delta) error {
	if delta == nil {
		return nil
	}
	ids := delta.CollectionIDs()
	if len(ids) == 0 {
		return nil
	}

	if err := st.LockCollections(ctx, ids); err != nil {
		return fmt.Errorf("failed to lock collections: %w", err)
	}

	for _, id := range ids {
		inc, ok := delta.Sales[id]
		if !ok || inc.Count == 0 {
			continue
		}
		if err := st.IncrementCollectionSales(ctx, id, inc); err != nil {
			return err
		}
	}

	if listing := sortedKeys(delta.ListingCollections); len(listing) > 0 {
		if err := st.RefreshCollectionListingStats(ctx, listing); err != nil {
			return err
		}
	}

	if owners := sortedKeys(delta.OwnerCollections); len(owners) > 0 {
		if err := st.RefreshCollectionOwnerStats(ctx, owners); err != nil {
			return err
		}
	}

	for _, id := range ids {
		set, ok := delta.Attributes[id]
		if !ok || len(set) == 0 {
			continue
		}
		if err := st.RefreshAttributeRarities(ctx, id, sortedPairs(set)); err != nil {
			return err
		}
	}

	logger.DebugCtx(ctx, "Applied aggregate delta",
		zap.Int("collections", len(ids)),
		zap.Int("sales_collections", len(delta.Sales)),
		zap.Int("attribute_collections", len(delta.Attributes)))

	return nil
}
