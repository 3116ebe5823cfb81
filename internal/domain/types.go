package domain

import (
	"encoding/json"
	"time"
)

// TokenStandard represents the on-chain token model
type TokenStandard string

const (
	// TokenStandardV1 identifies tokens by a (creator, collection, name) triple
	TokenStandardV1 TokenStandard = "v1"
	// TokenStandardV2 identifies tokens by an object address
	TokenStandardV2 TokenStandard = "v2"
)

// MarketplaceEventType is the normalized marketplace action an event maps to
type MarketplaceEventType string

const (
	// Token events
	EventTypeMint     MarketplaceEventType = "mint"
	EventTypeBurn     MarketplaceEventType = "burn"
	EventTypeTransfer MarketplaceEventType = "transfer"
	EventTypeDeposit  MarketplaceEventType = "deposit"

	// Listing events
	EventTypeList   MarketplaceEventType = "list"
	EventTypeUnlist MarketplaceEventType = "unlist"
	EventTypeRelist MarketplaceEventType = "relist"
	EventTypeBuy    MarketplaceEventType = "buy"

	// Token bid events
	EventTypeSoloBid   MarketplaceEventType = "solo-bid"
	EventTypeUnlistBid MarketplaceEventType = "unlist-bid"
	EventTypeAcceptBid MarketplaceEventType = "accept-bid"

	// Collection bid events
	EventTypeCollectionBid       MarketplaceEventType = "collection-bid"
	EventTypeCancelCollectionBid MarketplaceEventType = "cancel-collection-bid"
	EventTypeAcceptCollectionBid MarketplaceEventType = "accept-collection-bid"
)

// BidStatus is the lifecycle state of a bid
type BidStatus string

const (
	BidStatusActive    BidStatus = "active"
	BidStatusMatched   BidStatus = "matched"
	BidStatusCancelled BidStatus = "cancelled"
)

// BidType tells whether a bid targets one token or any token of a collection
type BidType string

const (
	BidTypeSolo       BidType = "solo"
	BidTypeCollection BidType = "collection"
)

// Valid checks if the marketplace event type is known
func (t MarketplaceEventType) Valid() bool {
	switch t {
	case EventTypeMint, EventTypeBurn, EventTypeTransfer, EventTypeDeposit,
		EventTypeList, EventTypeUnlist, EventTypeRelist, EventTypeBuy,
		EventTypeSoloBid, EventTypeUnlistBid, EventTypeAcceptBid,
		EventTypeCollectionBid, EventTypeCancelCollectionBid, EventTypeAcceptCollectionBid:
		return true
	default:
		return false
	}
}

// IsSale reports whether the event transfers a token for a price and counts toward volume
func (t MarketplaceEventType) IsSale() bool {
	return t == EventTypeBuy || t == EventTypeAcceptBid || t == EventTypeAcceptCollectionBid
}

// ListingStatus returns the listed flag the event sets on its listing, if it affects one
func (t MarketplaceEventType) ListingStatus() (bool, bool) {
	switch t {
	case EventTypeList, EventTypeRelist:
		return true, true
	case EventTypeUnlist, EventTypeBuy:
		return false, true
	default:
		return false, false
	}
}

// BidStatus returns the bid status the event moves its bid to, if it affects one
func (t MarketplaceEventType) BidStatus() (BidStatus, bool) {
	switch t {
	case EventTypeSoloBid, EventTypeCollectionBid:
		return BidStatusActive, true
	case EventTypeAcceptBid, EventTypeAcceptCollectionBid:
		return BidStatusMatched, true
	case EventTypeUnlistBid, EventTypeCancelCollectionBid:
		return BidStatusCancelled, true
	default:
		return "", false
	}
}

// BidType returns the kind of bid the event belongs to, if any
func (t MarketplaceEventType) BidType() (BidType, bool) {
	switch t {
	case EventTypeSoloBid, EventTypeAcceptBid, EventTypeUnlistBid:
		return BidTypeSolo, true
	case EventTypeCollectionBid, EventTypeAcceptCollectionBid, EventTypeCancelCollectionBid:
		return BidTypeCollection, true
	default:
		return "", false
	}
}

// IsCollectionLevel reports whether the event may legitimately carry no token
func (t MarketplaceEventType) IsCollectionLevel() bool {
	return t == EventTypeCollectionBid || t == EventTypeCancelCollectionBid
}

// ChangesOwner reports whether the buyer field of the event becomes the token owner
func (t MarketplaceEventType) ChangesOwner() bool {
	switch t {
	case EventTypeBuy, EventTypeAcceptBid, EventTypeAcceptCollectionBid,
		EventTypeTransfer, EventTypeDeposit, EventTypeMint:
		return true
	default:
		return false
	}
}

// ChangeKind is the kind of a write-set change
type ChangeKind string

const (
	ChangeKindWriteResource  ChangeKind = "write_resource"
	ChangeKindDeleteResource ChangeKind = "delete_resource"
)

// Transaction is one decoded transaction of the upstream stream
// This is the format published to NATS
type Transaction struct {
	Version     uint64           `json:"version"`
	Hash        string           `json:"hash"`
	BlockHeight uint64           `json:"block_height"`
	Timestamp   time.Time        `json:"timestamp"`
	Events      []Event          `json:"events"`
	Changes     []WriteSetChange `json:"changes"`
}

// Event is a chain-emitted record. Its index is its position in Transaction.Events
type Event struct {
	Type string          `json:"type"` // fully qualified Move type, e.g. 0x1::module::Struct
	Data json.RawMessage `json:"data"`
}

// WriteSetChange is a resource mutation recorded by the transaction
type WriteSetChange struct {
	Kind         ChangeKind      `json:"type"`
	Address      string          `json:"address"`
	ResourceType string          `json:"resource_type"`
	Data         json.RawMessage `json:"data,omitempty"`
}

// IsWrite reports whether the change upserts a resource
func (c *WriteSetChange) IsWrite() bool {
	return c.Kind == ChangeKindWriteResource
}

// TxIndex returns the stable ordering key of an event within the whole stream
func TxIndex(version uint64, eventIndex int) int64 {
	return int64(version)*TxIndexMultiplier + int64(eventIndex) //nolint:gosec,G115
}
