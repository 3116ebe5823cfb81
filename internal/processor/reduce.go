package processor

import (
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/feral-file/ff-marketplace-indexer/internal/adapter"
	"github.com/feral-file/ff-marketplace-indexer/internal/aggregator"
	"github.com/feral-file/ff-marketplace-indexer/internal/domain"
	"github.com/feral-file/ff-marketplace-indexer/internal/logger"
	"github.com/feral-file/ff-marketplace-indexer/internal/registry"
	"github.com/feral-file/ff-marketplace-indexer/internal/remapper"
	"github.com/feral-file/ff-marketplace-indexer/internal/store/schema"
)

// Marketplaces whose expiration_time is not in milliseconds
const (
	marketplaceTopaz   = "topaz"
	marketplaceRarible = "rarible"
)

var octasPerAPT = decimal.NewFromInt(domain.APTDecimals)

// Reduction holds the rows one transaction writes, in event order
type Reduction struct {
	Collections []schema.Collection
	NFTs        []schema.NFT
	Activities  []schema.Activity
	Listings    []schema.Listing
	Bids        []schema.Bid
}

// CollectionIDs returns the collections the reduction writes to
func (r *Reduction) CollectionIDs() []string {
	ids := make([]string, 0, len(r.Collections))
	for _, collection := range r.Collections {
		ids = append(ids, collection.ID)
	}
	return ids
}

// Delta builds the aggregate delta of the reduction. Sales only count the activities
// that were inserted, so a replayed transaction adds nothing
func (r *Reduction) Delta(inserted []schema.Activity) *aggregator.Delta {
	delta := aggregator.NewDelta()
	for _, activity := range inserted {
		if domain.MarketplaceEventType(activity.TxType).IsSale() {
			delta.AddSale(activity.CollectionID, activity.Price, activity.USDPrice)
		}
	}
	for _, listing := range r.Listings {
		if listing.CollectionID != nil {
			delta.TouchListing(*listing.CollectionID)
		}
	}
	for _, nft := range r.NFTs {
		delta.TouchOwner(nft.CollectionID)
	}
	return delta
}

// IsEmpty reports whether the reduction writes nothing
func (r *Reduction) IsEmpty() bool {
	return len(r.Activities) == 0
}

type reducer struct {
	jcs adapter.JCS
}

// reduce turns the complete drafts of one transaction into rows. usdRate is the USD price
// of one APT at the block time, nil when unknown
func (r *reducer) reduce(drafts []*remapper.ActivityDraft, usdRate *decimal.Decimal) *Reduction {
	reduction := &Reduction{}
	collections := make(map[string]int)
	receivers := depositReceivers(drafts)

	for _, draft := range drafts {
		if draft.TxType == domain.EventTypeMint && !draft.Has(registry.FieldBuyer) {
			if receiver, ok := receivers[draft.NFTID()]; ok {
				draft.Set(registry.FieldBuyer, receiver)
			}
		}

		r.addCollection(reduction, collections, draft)
		reduction.Activities = append(reduction.Activities, r.activity(draft, usdRate))

		if nft, ok := nftFromDraft(draft); ok {
			reduction.NFTs = append(reduction.NFTs, nft)
		}
		if listing, ok := listingFromDraft(draft); ok {
			reduction.Listings = append(reduction.Listings, listing)
		}
		if bid, ok := bidFromDraft(draft); ok {
			reduction.Bids = append(reduction.Bids, bid)
		}
	}

	return reduction
}

// depositReceivers maps each token deposited in the transaction to the account it was
// deposited to. Mints that do not name a receiver take it from here, the last deposit wins
func depositReceivers(drafts []*remapper.ActivityDraft) map[string]string {
	receivers := make(map[string]string)
	for _, draft := range drafts {
		if draft.TxType != domain.EventTypeDeposit || draft.NFTID() == "" {
			continue
		}
		if receiver, ok := draft.Get(registry.FieldBuyer); ok {
			receivers[draft.NFTID()] = receiver
		}
	}
	return receivers
}

// addCollection ensures one row per collection, merging the descriptive fields of its drafts
func (r *reducer) addCollection(reduction *Reduction, seen map[string]int, draft *remapper.ActivityDraft) {
	id := draft.CollectionID()
	title := draft.String(registry.FieldCollectionName)
	creator := draft.String(registry.FieldCreatorAddress)

	if i, ok := seen[id]; ok {
		existing := &reduction.Collections[i]
		if existing.Title == nil {
			existing.Title = title
		}
		if existing.CreatorAddress == nil {
			existing.CreatorAddress = creator
		}
		return
	}

	seen[id] = len(reduction.Collections)
	reduction.Collections = append(reduction.Collections, schema.Collection{
		ID:             id,
		Title:          title,
		CreatorAddress: creator,
	})
}

func (r *reducer) activity(draft *remapper.ActivityDraft, usdRate *decimal.Decimal) schema.Activity {
	id := domain.ActivityID(draft.TxIndex)
	if activityID, ok := draft.Get(registry.FieldActivityID); ok {
		id = domain.MarketplaceActivityID(draft.ContractAddress, activityID)
	}

	price := draft.Decimal(registry.FieldPrice)

	return schema.Activity{
		ID:               id,
		TxIndex:          draft.TxIndex,
		TxVersion:        int64(draft.Key.TxVersion), //nolint:gosec,G115
		TxID:             draft.TxHash,
		TxType:           string(draft.TxType),
		Sender:           draft.String(registry.FieldSeller),
		Receiver:         draft.String(registry.FieldBuyer),
		Price:            price,
		USDPrice:         usdValue(price, usdRate),
		Amount:           draft.Int64(registry.FieldTokenAmount),
		NFTID:            optional(draft.NFTID()),
		CollectionID:     draft.CollectionID(),
		TokenStandard:    string(draft.TokenStandard),
		MarketName:       draft.Marketplace,
		MarketContractID: draft.ContractAddress,
		BlockHeight:      int64(draft.BlockHeight), //nolint:gosec,G115
		BlockTime:        draft.BlockTime,
		Raw:              r.canonical(draft),
	}
}

// canonical returns the RFC 8785 form of the event payload, the payload as is when it
// cannot be canonicalized
func (r *reducer) canonical(draft *remapper.ActivityDraft) datatypes.JSON {
	if len(draft.Payload) == 0 {
		return nil
	}

	data, err := r.jcs.Transform(draft.Payload)
	if err != nil {
		logger.Warn("Failed to canonicalize event payload",
			zap.Error(err),
			zap.Int64("tx_index", draft.TxIndex))
		return datatypes.JSON(draft.Payload)
	}

	return datatypes.JSON(data)
}

func nftFromDraft(draft *remapper.ActivityDraft) (schema.NFT, bool) {
	id := draft.NFTID()
	if id == "" {
		return schema.NFT{}, false
	}

	nft := schema.NFT{
		ID:            id,
		CollectionID:  draft.CollectionID(),
		Name:          draft.String(registry.FieldTokenName),
		URI:           draft.String(registry.FieldTokenURI),
		TokenStandard: string(draft.TokenStandard),
		Royalty:       draft.Decimal(registry.FieldRoyalty),
	}

	txIndex := draft.TxIndex
	switch {
	case draft.TxType == domain.EventTypeBurn:
		nft.Burned = true
		nft.OwnerTxIndex = &txIndex
	case draft.TxType.ChangesOwner():
		if buyer := draft.String(registry.FieldBuyer); buyer != nil {
			nft.Owner = buyer
			nft.OwnerTxIndex = &txIndex
		}
	}

	return nft, true
}

func listingFromDraft(draft *remapper.ActivityDraft) (schema.Listing, bool) {
	listed, ok := draft.TxType.ListingStatus()
	if !ok || draft.NFTID() == "" {
		return schema.Listing{}, false
	}

	return schema.Listing{
		ID:               domain.ListingID(draft.ContractAddress, draft.NFTID()),
		MarketContractID: draft.ContractAddress,
		MarketName:       draft.Marketplace,
		CollectionID:     optional(draft.CollectionID()),
		NFTID:            draft.NFTID(),
		Nonce:            draft.String(registry.FieldListingID),
		Price:            draft.Decimal(registry.FieldPrice),
		Seller:           draft.String(registry.FieldSeller),
		Listed:           listed,
		TxIndex:          draft.TxIndex,
		BlockHeight:      int64(draft.BlockHeight), //nolint:gosec,G115
		BlockTime:        draft.BlockTime,
		ExpiredAt:        expiration(draft),
	}, true
}

func bidFromDraft(draft *remapper.ActivityDraft) (schema.Bid, bool) {
	bidType, ok := draft.TxType.BidType()
	if !ok {
		return schema.Bid{}, false
	}
	status, _ := draft.TxType.BidStatus()

	bidder, ok := draft.Get(registry.FieldBuyer)
	if !ok {
		return schema.Bid{}, false
	}

	target := draft.CollectionID()
	if bidType == domain.BidTypeSolo {
		target = draft.NFTID()
	}
	if target == "" {
		return schema.Bid{}, false
	}

	bid := schema.Bid{
		ID:               domain.BidID(draft.ContractAddress, target, bidder),
		MarketContractID: draft.ContractAddress,
		MarketName:       draft.Marketplace,
		Bidder:           bidder,
		Receiver:         draft.String(registry.FieldSeller),
		CollectionID:     draft.CollectionID(),
		NFTID:            optional(draft.NFTID()),
		Nonce:            draft.String(registry.FieldOfferID),
		Price:            draft.Decimal(registry.FieldPrice),
		Status:           string(status),
		BidType:          string(bidType),
		RemainingCount:   draft.Int64(registry.FieldTokenAmount),
		ExpiredAt:        expiration(draft),
		TxIndex:          draft.TxIndex,
	}

	txID := draft.TxHash
	switch status {
	case domain.BidStatusActive:
		bid.CreatedTxID = &txID
	case domain.BidStatusMatched:
		bid.AcceptedTxID = &txID
	case domain.BidStatusCancelled:
		bid.CancelledTxID = &txID
	}

	return bid, true
}

// expiration converts the marketplace specific expiration to a time. Topaz emits
// microseconds and Rarible seconds, the others a start time and duration in milliseconds
func expiration(draft *remapper.ActivityDraft) *time.Time {
	if value := draft.Int64(registry.FieldExpirationTime); value != nil {
		switch draft.Marketplace {
		case marketplaceTopaz:
			t := time.UnixMicro(*value).UTC()
			return &t
		case marketplaceRarible:
			t := time.Unix(*value, 0).UTC()
			return &t
		}
	}

	start := draft.Int64(registry.FieldStartTime)
	duration := draft.Int64(registry.FieldDuration)
	if start == nil || duration == nil {
		return nil
	}

	t := time.UnixMilli(*start + *duration).UTC()
	return &t
}

// usdValue converts a price in octas to USD
func usdValue(price, usdRate *decimal.Decimal) *decimal.Decimal {
	if price == nil || usdRate == nil {
		return nil
	}
	value := price.Div(octasPerAPT).Mul(*usdRate)
	return &value
}

func optional(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}
