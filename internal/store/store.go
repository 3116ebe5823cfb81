package store

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/feral-file/ff-marketplace-indexer/internal/store/schema"
)

//go:generate mockgen -source=store.go -destination=../mocks/store.go -package=mocks -mock_names=Store=MockStore

// AttributePair is a (type, value) trait pair of a collection
type AttributePair struct {
	AttrType string
	Value    string
}

// SalesIncrement is what newly inserted sale activities add to a collection
type SalesIncrement struct {
	Count     int64
	Volume    decimal.Decimal
	VolumeUSD decimal.Decimal
}

// SaveNFTMetadataInput represents the data written once a token's metadata has been fetched
type SaveNFTMetadataInput struct {
	NFTID      string
	CheckedAt  time.Time
	Metadata   schema.NFTMetadata
	Attributes []schema.Attribute
}

// Store defines the interface for database operations
type Store interface {
	// RunInTx runs fn with a store bound to a single database transaction.
	// The transaction commits when fn returns nil and rolls back otherwise
	RunInTx(ctx context.Context, fn func(Store) error) error

	// UpsertMarketplaces inserts the configured marketplaces, existing rows are left untouched
	UpsertMarketplaces(ctx context.Context, marketplaces []schema.Marketplace) error
	// EnsureCollections inserts missing collections and fills unknown title and creator
	EnsureCollections(ctx context.Context, collections []schema.Collection) error
	// UpsertNFTs inserts or updates tokens in order. Owner and burned only move forward in tx_index
	UpsertNFTs(ctx context.Context, nfts []schema.NFT) error
	// InsertActivities inserts activities and returns those that did not exist yet
	InsertActivities(ctx context.Context, activities []schema.Activity) ([]schema.Activity, error)
	// UpsertListings inserts or updates listings, older activities never overwrite newer state
	UpsertListings(ctx context.Context, listings []schema.Listing) error
	// UpsertBids inserts or updates bids, older activities never overwrite newer state
	UpsertBids(ctx context.Context, bids []schema.Bid) error

	// LockCollections takes row locks on the collections in id order until the transaction ends
	LockCollections(ctx context.Context, collectionIDs []string) error
	// IncrementCollectionSales adds sales, volume and USD volume to a collection
	IncrementCollectionSales(ctx context.Context, collectionID string, inc SalesIncrement) error
	// RefreshCollectionListingStats recomputes floor and listed count of the collections
	RefreshCollectionListingStats(ctx context.Context, collectionIDs []string) error
	// RefreshCollectionOwnerStats recomputes supply and distinct owners of the collections
	RefreshCollectionOwnerStats(ctx context.Context, collectionIDs []string) error
	// RefreshAttributeRarities recomputes rarity and score of the pairs and the rarity of the tokens carrying them
	RefreshAttributeRarities(ctx context.Context, collectionID string, pairs []AttributePair) error

	// GetLatestTokenPrice returns the latest USD price of the token at or before at, nil when unknown
	GetLatestTokenPrice(ctx context.Context, tokenAddress string, at time.Time) (*schema.TokenPrice, error)
	// InsertTokenPrices stores price observations, duplicates are ignored
	InsertTokenPrices(ctx context.Context, prices []schema.TokenPrice) error

	// GetNFTsPendingMetadata returns tokens with a uri that the metadata worker has not processed yet
	GetNFTsPendingMetadata(ctx context.Context, limit int) ([]schema.NFT, error)
	// SaveNFTMetadata stores the fetched document and attributes and marks the token as checked
	SaveNFTMetadata(ctx context.Context, input SaveNFTMetadataInput) error
	// MarkNFTMetadataChecked marks the token as processed without metadata
	MarkNFTMetadataChecked(ctx context.Context, nftID string, at time.Time) error

	GetCollection(ctx context.Context, id string) (*schema.Collection, error)
	GetNFT(ctx context.Context, id string) (*schema.NFT, error)
	GetActivity(ctx context.Context, id string) (*schema.Activity, error)
	GetListing(ctx context.Context, id string) (*schema.Listing, error)
	GetBid(ctx context.Context, id string) (*schema.Bid, error)
	GetAttributesByNFTID(ctx context.Context, nftID string) ([]schema.Attribute, error)
	GetAttributeRarity(ctx context.Context, collectionID string, pair AttributePair) (*schema.AttributeRarity, error)
}
