package remapper

import (
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/feral-file/ff-marketplace-indexer/internal/domain"
	"github.com/feral-file/ff-marketplace-indexer/internal/jsonpath"
	"github.com/feral-file/ff-marketplace-indexer/internal/logger"
	"github.com/feral-file/ff-marketplace-indexer/internal/registry"
)

// extract reads a column value from a decoded payload. A royalty column may point at a
// numerator and denominator pair, which is reduced to a fraction. The legacy token data
// names the pair royalty_points_numerator and royalty_points_denominator
func extract(root any, source registry.FieldSource) (string, bool) {
	if !source.Field.IsFraction() {
		return jsonpath.LookupString(root, source.Path)
	}

	value, ok := jsonpath.Lookup(root, source.Path)
	if !ok {
		return "", false
	}
	pair, ok := value.(map[string]any)
	if !ok {
		return jsonpath.LookupString(value, nil)
	}

	numerator, ok := pairValue(pair, "numerator")
	if !ok {
		return "", false
	}
	denominator, ok := pairValue(pair, "denominator")
	if !ok {
		return "", false
	}
	n, err := decimal.NewFromString(numerator)
	if err != nil {
		return "", false
	}
	d, err := decimal.NewFromString(denominator)
	if err != nil {
		return "", false
	}
	if d.IsZero() {
		return "0", true
	}
	return n.Div(d).String(), true
}

func pairValue(pair map[string]any, key string) (string, bool) {
	if value, ok := jsonpath.LookupString(pair, jsonpath.Path{jsonpath.Key(key)}); ok {
		return value, true
	}
	return jsonpath.LookupString(pair, jsonpath.Path{jsonpath.Key("royalty_points_" + key)})
}

// DraftKey addresses a draft by the position of its event in the stream
type DraftKey struct {
	TxVersion  uint64
	EventIndex int
}

// ActivityDraft is a partially filled activity owned by the processing of one transaction
type ActivityDraft struct {
	Key             DraftKey
	Marketplace     string
	ContractAddress string
	EventType       string
	TxType          domain.MarketplaceEventType
	TxHash          string
	TxIndex         int64
	BlockHeight     uint64
	BlockTime       time.Time
	TokenStandard   domain.TokenStandard
	Payload         []byte

	fields map[registry.Field]string
	// write-set sourced columns not resolved yet
	pending []registry.FieldSource
}

func newDraft(tx *domain.Transaction, eventIndex int, event *domain.Event, mapping *registry.EventModelMapping) *ActivityDraft {
	return &ActivityDraft{
		Key:             DraftKey{TxVersion: tx.Version, EventIndex: eventIndex},
		Marketplace:     mapping.Marketplace,
		ContractAddress: mapping.ContractAddress,
		EventType:       mapping.EventType,
		TxType:          mapping.TxType,
		TxHash:          tx.Hash,
		TxIndex:         domain.TxIndex(tx.Version, eventIndex),
		BlockHeight:     tx.BlockHeight,
		BlockTime:       tx.Timestamp,
		Payload:         event.Data,
		fields:          make(map[registry.Field]string),
		pending:         append([]registry.FieldSource(nil), mapping.ResourceFields...),
	}
}

// Get returns the extracted value of the field
func (d *ActivityDraft) Get(field registry.Field) (string, bool) {
	value, ok := d.fields[field]
	return value, ok
}

// Has reports whether the field has been extracted
func (d *ActivityDraft) Has(field registry.Field) bool {
	_, ok := d.fields[field]
	return ok
}

// Set coerces and stores the value. Values that do not fit the field kind are rejected
// and the field stays unset
func (d *ActivityDraft) Set(field registry.Field, value string) bool {
	switch {
	case value == "":
		return false
	case field.IsAddress():
		if !domain.IsAddress(value) {
			return false
		}
		value = domain.StandardizeAddress(value)
	case field.IsInteger():
		n, err := decimal.NewFromString(value)
		if err != nil || !n.IsInteger() {
			return false
		}
		value = n.String()
	case field.IsFraction():
		n, err := decimal.NewFromString(value)
		if err != nil || n.IsNegative() {
			return false
		}
		value = n.String()
	}

	d.fields[field] = value
	return true
}

// String returns the field as a pointer, nil when unset
func (d *ActivityDraft) String(field registry.Field) *string {
	value, ok := d.fields[field]
	if !ok {
		return nil
	}
	return &value
}

// Decimal returns a numeric field as a decimal, nil when unset
func (d *ActivityDraft) Decimal(field registry.Field) *decimal.Decimal {
	value, ok := d.fields[field]
	if !ok {
		return nil
	}
	n, err := decimal.NewFromString(value)
	if err != nil {
		return nil
	}
	return &n
}

// Int64 returns an integer field, nil when unset or out of range
func (d *ActivityDraft) Int64(field registry.Field) *int64 {
	value, ok := d.fields[field]
	if !ok {
		return nil
	}
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return nil
	}
	return &n
}

// NFTID returns the token address the activity is about
func (d *ActivityDraft) NFTID() string {
	return d.fields[registry.FieldTokenAddr]
}

// CollectionID returns the collection address the activity is about
func (d *ActivityDraft) CollectionID() string {
	return d.fields[registry.FieldCollectionAddr]
}

// Pending returns the write-set sourced columns that are still unset
func (d *ActivityDraft) Pending() []registry.FieldSource {
	var pending []registry.FieldSource
	for _, source := range d.pending {
		if !d.Has(source.Field) {
			pending = append(pending, source)
		}
	}
	return pending
}

func (d *ActivityDraft) hasV1Triple() bool {
	return d.Has(registry.FieldCreatorAddress) && d.Has(registry.FieldCollectionName) && d.Has(registry.FieldTokenName)
}

// detectStandard guesses the token model from event fields alone
func (d *ActivityDraft) detectStandard() {
	if d.hasV1Triple() && !d.Has(registry.FieldTokenAddr) && !d.Has(registry.FieldCollectionAddr) {
		d.TokenStandard = domain.TokenStandardV1
		return
	}
	d.TokenStandard = domain.TokenStandardV2
}

// confirmStandard records resource evidence, which wins over the event-side guess
func (d *ActivityDraft) confirmStandard(standard domain.TokenStandard) {
	d.TokenStandard = standard
}

// deriveIDs fills token and collection addresses that can be computed from other fields
func (d *ActivityDraft) deriveIDs() {
	creator, hasCreator := d.Get(registry.FieldCreatorAddress)
	collection, hasCollection := d.Get(registry.FieldCollectionName)
	name, hasName := d.Get(registry.FieldTokenName)

	switch d.TokenStandard {
	case domain.TokenStandardV1:
		if !d.Has(registry.FieldTokenAddr) && hasCreator && hasCollection && hasName {
			d.fields[registry.FieldTokenAddr] = domain.V1TokenAddress(creator, collection, name)
		}
		if !d.Has(registry.FieldCollectionAddr) && hasCreator && hasCollection {
			d.fields[registry.FieldCollectionAddr] = domain.V1CollectionAddress(creator, collection)
		}
	case domain.TokenStandardV2:
		if !d.Has(registry.FieldCollectionAddr) && hasCreator && hasCollection {
			if address, ok := domain.V2CollectionAddress(creator, collection); ok {
				d.fields[registry.FieldCollectionAddr] = address
			}
		}
	}
}

// checkIdentity verifies the fields an activity row cannot exist without
func (d *ActivityDraft) checkIdentity() error {
	if !d.Has(registry.FieldCollectionAddr) {
		return fmt.Errorf("%w: %s", domain.ErrExtractionFailure, registry.FieldCollectionAddr)
	}
	if !d.Has(registry.FieldTokenAddr) && !d.TxType.IsCollectionLevel() {
		return fmt.Errorf("%w: %s", domain.ErrExtractionFailure, registry.FieldTokenAddr)
	}
	return nil
}

// Arena collects the drafts of one transaction, lets them be resolved in place and then
// drains them into the persistence write
type Arena struct {
	drafts []*ActivityDraft
	index  map[DraftKey]int
}

// NewArena creates an empty arena
func NewArena() *Arena {
	return &Arena{index: make(map[DraftKey]int)}
}

// Add appends a draft. A draft with the same key replaces the previous one
func (a *Arena) Add(draft *ActivityDraft) {
	if i, ok := a.index[draft.Key]; ok {
		a.drafts[i] = draft
		return
	}
	a.index[draft.Key] = len(a.drafts)
	a.drafts = append(a.drafts, draft)
}

// Get returns the draft stored under the key
func (a *Arena) Get(key DraftKey) (*ActivityDraft, bool) {
	i, ok := a.index[key]
	if !ok {
		return nil, false
	}
	return a.drafts[i], true
}

// Len returns the number of drafts in the arena
func (a *Arena) Len() int {
	return len(a.drafts)
}

// Drafts returns the drafts in event order
func (a *Arena) Drafts() []*ActivityDraft {
	return a.drafts
}

// Drain empties the arena and returns the drafts that carry their identity fields.
// Drafts without a collection or token are dropped and logged
func (a *Arena) Drain() []*ActivityDraft {
	complete := make([]*ActivityDraft, 0, len(a.drafts))
	for _, draft := range a.drafts {
		if err := draft.checkIdentity(); err != nil {
			logger.Warn("Dropping activity draft without identity",
				zap.Error(err),
				zap.String("marketplace", draft.Marketplace),
				zap.String("event_type", draft.EventType),
				zap.Uint64("tx_version", draft.Key.TxVersion),
				zap.Int("event_index", draft.Key.EventIndex))
			continue
		}
		complete = append(complete, draft)
	}

	a.drafts = nil
	a.index = make(map[DraftKey]int)
	return complete
}
