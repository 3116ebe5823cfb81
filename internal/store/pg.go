package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/plugin/dbresolver"

	"github.com/feral-file/ff-marketplace-indexer/internal/store/schema"
)

type pgStore struct {
	db *gorm.DB
}

func hasDBResolver(db *gorm.DB) bool {
	return db != nil && db.Callback().Query().Get("gorm:db_resolver") != nil
}

// NewPGStore creates a new PostgreSQL store instance
func NewPGStore(db *gorm.DB) Store {
	return &pgStore{db: db}
}

// ConfigureConnectionPool configures the connection pool settings for a GORM database connection.
// If any of the pool settings are 0, the defaults of NormalizeConnectionPoolSettings are used
func ConfigureConnectionPool(db *gorm.DB, maxOpenConns, maxIdleConns int, connMaxLifetime, connMaxIdleTime time.Duration) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	maxOpenConns, maxIdleConns, connMaxLifetime, connMaxIdleTime =
		NormalizeConnectionPoolSettings(maxOpenConns, maxIdleConns, connMaxLifetime, connMaxIdleTime)

	sqlDB.SetMaxOpenConns(maxOpenConns)
	sqlDB.SetMaxIdleConns(maxIdleConns)
	sqlDB.SetConnMaxLifetime(connMaxLifetime)
	sqlDB.SetConnMaxIdleTime(connMaxIdleTime)

	return nil
}

// NormalizeConnectionPoolSettings applies defaults and clamps pool settings into safe values.
//
// Defaults (when zero):
//   - MaxOpenConns: 20
//   - MaxIdleConns: 5
//   - ConnMaxLifetime: 5 minutes
//   - ConnMaxIdleTime: 10 minutes
//
// The processor holds one connection per in-flight transaction, so MaxOpenConns should be
// at least worker.pool_size plus the metadata worker pool.
func NormalizeConnectionPoolSettings(maxOpenConns, maxIdleConns int, connMaxLifetime, connMaxIdleTime time.Duration) (int, int, time.Duration, time.Duration) {
	if maxOpenConns == 0 {
		maxOpenConns = 20
	}
	if maxIdleConns == 0 {
		maxIdleConns = 5
	}
	if connMaxLifetime == 0 {
		connMaxLifetime = 5 * time.Minute
	}
	if connMaxIdleTime == 0 {
		connMaxIdleTime = 10 * time.Minute
	}

	if maxIdleConns > maxOpenConns {
		maxIdleConns = maxOpenConns
	}

	return maxOpenConns, maxIdleConns, connMaxLifetime, connMaxIdleTime
}

// calculateSafeBatchSize computes the batch size for bulk inserts that stays below
// PostgreSQL's limit of 65535 parameters per statement, with headroom for the
// ON CONFLICT clause and gorm managed columns.
func calculateSafeBatchSize(totalRecords int, fieldsPerRecord int) int {
	const maxParams = 65535
	const totalHeadroom = 1000

	availableParams := maxParams - totalHeadroom
	safeBatchSize := max(availableParams/fieldsPerRecord, 1)

	if safeBatchSize > totalRecords {
		return totalRecords
	}

	return safeBatchSize
}

// RunInTx runs fn inside a database transaction. Nested calls use savepoints
func (s *pgStore) RunInTx(ctx context.Context, fn func(Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&pgStore{db: tx})
	})
}

// UpsertMarketplaces inserts the configured marketplaces
func (s *pgStore) UpsertMarketplaces(ctx context.Context, marketplaces []schema.Marketplace) error {
	if len(marketplaces) == 0 {
		return nil
	}

	batchSize := calculateSafeBatchSize(len(marketplaces), 6)
	if err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		CreateInBatches(&marketplaces, batchSize).Error; err != nil {
		return fmt.Errorf("failed to upsert marketplaces: %w", err)
	}

	return nil
}

// EnsureCollections inserts missing collections, title and creator are only filled when unknown
func (s *pgStore) EnsureCollections(ctx context.Context, collections []schema.Collection) error {
	for i := range collections {
		collection := collections[i]
		if err := s.db.WithContext(ctx).
			Clauses(clause.OnConflict{
				Columns: []clause.Column{{Name: "id"}},
				DoUpdates: clause.Assignments(map[string]any{
					"title":           gorm.Expr("COALESCE(collections.title, EXCLUDED.title)"),
					"creator_address": gorm.Expr("COALESCE(collections.creator_address, EXCLUDED.creator_address)"),
				}),
			}).
			Create(&collection).Error; err != nil {
			return fmt.Errorf("failed to ensure collection %s: %w", collection.ID, err)
		}
	}

	return nil
}

// UpsertNFTs inserts or updates tokens one by one, in the given order.
// Owner and burned are ownership state and only change when the incoming row carries
// a newer owner_tx_index. Descriptive fields are filled when unknown and royalty follows
// the latest known value
func (s *pgStore) UpsertNFTs(ctx context.Context, nfts []schema.NFT) error {
	const newerOwner = "EXCLUDED.owner_tx_index IS NOT NULL AND (nfts.owner_tx_index IS NULL OR nfts.owner_tx_index < EXCLUDED.owner_tx_index)"

	for i := range nfts {
		nft := nfts[i]
		if err := s.db.WithContext(ctx).
			Clauses(clause.OnConflict{
				Columns: []clause.Column{{Name: "id"}},
				DoUpdates: clause.Assignments(map[string]any{
					"name":           gorm.Expr("COALESCE(nfts.name, EXCLUDED.name)"),
					"uri":            gorm.Expr("COALESCE(nfts.uri, EXCLUDED.uri)"),
					"royalty":        gorm.Expr("COALESCE(EXCLUDED.royalty, nfts.royalty)"),
					"owner":          gorm.Expr("CASE WHEN " + newerOwner + " THEN EXCLUDED.owner ELSE nfts.owner END"),
					"burned":         gorm.Expr("CASE WHEN " + newerOwner + " THEN EXCLUDED.burned ELSE nfts.burned END"),
					"owner_tx_index": gorm.Expr("CASE WHEN " + newerOwner + " THEN EXCLUDED.owner_tx_index ELSE nfts.owner_tx_index END"),
					"updated_at":     gorm.Expr("now()"),
				}),
			}).
			Create(&nft).Error; err != nil {
			return fmt.Errorf("failed to upsert nft %s: %w", nft.ID, err)
		}
	}

	return nil
}

// InsertActivities inserts each activity with ON CONFLICT DO NOTHING and returns the
// activities that were actually inserted, in input order
func (s *pgStore) InsertActivities(ctx context.Context, activities []schema.Activity) ([]schema.Activity, error) {
	inserted := make([]schema.Activity, 0, len(activities))
	for i := range activities {
		activity := activities[i]
		result := s.db.WithContext(ctx).
			Clauses(clause.OnConflict{DoNothing: true}).
			Create(&activity)
		if result.Error != nil {
			return nil, fmt.Errorf("failed to insert activity %s: %w", activity.ID, result.Error)
		}
		if result.RowsAffected == 1 {
			inserted = append(inserted, activity)
		}
	}

	return inserted, nil
}

// UpsertListings inserts or updates listings. An update only applies when the incoming
// tx_index is newer than the stored one. A known collection is backfilled regardless
func (s *pgStore) UpsertListings(ctx context.Context, listings []schema.Listing) error {
	for i := range listings {
		listing := listings[i]
		if err := s.db.WithContext(ctx).
			Clauses(clause.OnConflict{
				Columns: []clause.Column{{Name: "id"}},
				DoUpdates: clause.Assignments(map[string]any{
					"collection_id": gorm.Expr("COALESCE(EXCLUDED.collection_id, listings.collection_id)"),
					"nonce":         gorm.Expr("COALESCE(EXCLUDED.nonce, listings.nonce)"),
					"price":         gorm.Expr("COALESCE(EXCLUDED.price, listings.price)"),
					"seller":        gorm.Expr("COALESCE(EXCLUDED.seller, listings.seller)"),
					"expired_at":    gorm.Expr("EXCLUDED.expired_at"),
					"listed":        gorm.Expr("EXCLUDED.listed"),
					"tx_index":      gorm.Expr("EXCLUDED.tx_index"),
					"block_height":  gorm.Expr("EXCLUDED.block_height"),
					"block_time":    gorm.Expr("EXCLUDED.block_time"),
				}),
				Where: clause.Where{Exprs: []clause.Expression{
					clause.Expr{SQL: "listings.tx_index < EXCLUDED.tx_index"},
				}},
			}).
			Create(&listing).Error; err != nil {
			return fmt.Errorf("failed to upsert listing %s: %w", listing.ID, err)
		}

		if listing.CollectionID != nil {
			if err := s.db.WithContext(ctx).
				Model(&schema.Listing{}).
				Where("id = ? AND collection_id IS NULL", listing.ID).
				Update("collection_id", *listing.CollectionID).Error; err != nil {
				return fmt.Errorf("failed to backfill listing collection %s: %w", listing.ID, err)
			}
		}
	}

	return nil
}

// newerBid picks the incoming value when the incoming bid event is newer than the stored one
func newerBid(column string) clause.Expr {
	return gorm.Expr(fmt.Sprintf(
		"CASE WHEN bids.tx_index < EXCLUDED.tx_index THEN COALESCE(EXCLUDED.%[1]s, bids.%[1]s) ELSE COALESCE(bids.%[1]s, EXCLUDED.%[1]s) END",
		column))
}

// UpsertBids inserts or updates bids. State columns follow the newest event,
// the created, accepted and cancelled transaction ids are kept once known
func (s *pgStore) UpsertBids(ctx context.Context, bids []schema.Bid) error {
	for i := range bids {
		bid := bids[i]
		if err := s.db.WithContext(ctx).
			Clauses(clause.OnConflict{
				Columns: []clause.Column{{Name: "id"}},
				DoUpdates: clause.Assignments(map[string]any{
					"status":          gorm.Expr("CASE WHEN bids.tx_index < EXCLUDED.tx_index THEN EXCLUDED.status ELSE bids.status END"),
					"receiver":        newerBid("receiver"),
					"nft_id":          newerBid("nft_id"),
					"nonce":           newerBid("nonce"),
					"price":           newerBid("price"),
					"remaining_count": newerBid("remaining_count"),
					"expired_at":      newerBid("expired_at"),
					"created_tx_id":   gorm.Expr("COALESCE(bids.created_tx_id, EXCLUDED.created_tx_id)"),
					"accepted_tx_id":  gorm.Expr("COALESCE(bids.accepted_tx_id, EXCLUDED.accepted_tx_id)"),
					"cancelled_tx_id": gorm.Expr("COALESCE(bids.cancelled_tx_id, EXCLUDED.cancelled_tx_id)"),
					"tx_index":        gorm.Expr("GREATEST(bids.tx_index, EXCLUDED.tx_index)"),
				}),
			}).
			Create(&bid).Error; err != nil {
			return fmt.Errorf("failed to upsert bid %s: %w", bid.ID, err)
		}
	}

	return nil
}

// LockCollections locks the collection rows in id order
func (s *pgStore) LockCollections(ctx context.Context, collectionIDs []string) error {
	if len(collectionIDs) == 0 {
		return nil
	}

	ids := append([]string(nil), collectionIDs...)
	sort.Strings(ids)

	var locked []string
	if err := s.db.WithContext(ctx).
		Model(&schema.Collection{}).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id IN ?", ids).
		Order("id").
		Pluck("id", &locked).Error; err != nil {
		return fmt.Errorf("failed to lock collections: %w", err)
	}

	return nil
}

// IncrementCollectionSales adds the increment to the sales counters of a collection
func (s *pgStore) IncrementCollectionSales(ctx context.Context, collectionID string, inc SalesIncrement) error {
	if err := s.db.WithContext(ctx).
		Model(&schema.Collection{}).
		Where("id = ?", collectionID).
		Updates(map[string]any{
			"sales":      gorm.Expr("sales + ?", inc.Count),
			"volume":     gorm.Expr("volume + ?::numeric", inc.Volume.String()),
			"volume_usd": gorm.Expr("volume_usd + ?::numeric", inc.VolumeUSD.String()),
			"updated_at": gorm.Expr("now()"),
		}).Error; err != nil {
		return fmt.Errorf("failed to increment sales of collection %s: %w", collectionID, err)
	}

	return nil
}

// RefreshCollectionListingStats recomputes floor and listed from the active listings
func (s *pgStore) RefreshCollectionListingStats(ctx context.Context, collectionIDs []string) error {
	if len(collectionIDs) == 0 {
		return nil
	}

	if err := s.db.WithContext(ctx).Exec(`
		UPDATE collections c SET
			floor = (SELECT MIN(l.price) FROM listings l WHERE l.collection_id = c.id AND l.listed),
			listed = (SELECT COUNT(*) FROM listings l WHERE l.collection_id = c.id AND l.listed),
			updated_at = now()
		WHERE c.id IN ?`, collectionIDs).Error; err != nil {
		return fmt.Errorf("failed to refresh collection listing stats: %w", err)
	}

	return nil
}

// RefreshCollectionOwnerStats recomputes supply and distinct owners over non-burned tokens
func (s *pgStore) RefreshCollectionOwnerStats(ctx context.Context, collectionIDs []string) error {
	if len(collectionIDs) == 0 {
		return nil
	}

	if err := s.db.WithContext(ctx).Exec(`
		UPDATE collections c SET
			supply = (SELECT COUNT(*) FROM nfts n WHERE n.collection_id = c.id AND NOT n.burned),
			owners = (SELECT COUNT(DISTINCT n.owner) FROM nfts n
				WHERE n.collection_id = c.id AND NOT n.burned AND n.owner IS NOT NULL),
			updated_at = now()
		WHERE c.id IN ?`, collectionIDs).Error; err != nil {
		return fmt.Errorf("failed to refresh collection owner stats: %w", err)
	}

	return nil
}

// RefreshAttributeRarities recomputes the statistics of each pair from the current attribute rows.
// The total is the number of non-burned tokens of the collection, never less than the occurrences,
// so rarity = occurrences / total and score = total / occurrences
func (s *pgStore) RefreshAttributeRarities(ctx context.Context, collectionID string, pairs []AttributePair) error {
	if len(pairs) == 0 {
		return nil
	}

	db := s.db.WithContext(ctx)
	touched := make(map[string]struct{})

	for _, pair := range pairs {
		if err := db.Exec(`
			WITH total AS (
				SELECT COUNT(*) AS n FROM nfts WHERE collection_id = ? AND NOT burned
			), counts AS (
				SELECT COUNT(DISTINCT nft_id) AS occ FROM attributes
				WHERE collection_id = ? AND attr_type = ? AND value = ?
			)
			INSERT INTO attribute_rarities (collection_id, attr_type, value, occurrences, total, rarity, score, updated_at)
			SELECT ?, ?, ?, c.occ, GREATEST(t.n, c.occ),
				c.occ::float8 / GREATEST(t.n, c.occ),
				GREATEST(t.n, c.occ)::float8 / c.occ,
				now()
			FROM counts c CROSS JOIN total t
			WHERE c.occ > 0
			ON CONFLICT (collection_id, attr_type, value) DO UPDATE SET
				occurrences = EXCLUDED.occurrences,
				total = EXCLUDED.total,
				rarity = EXCLUDED.rarity,
				score = EXCLUDED.score,
				updated_at = EXCLUDED.updated_at`,
			collectionID,
			collectionID, pair.AttrType, pair.Value,
			collectionID, pair.AttrType, pair.Value).Error; err != nil {
			return fmt.Errorf("failed to upsert attribute rarity %s=%s: %w", pair.AttrType, pair.Value, err)
		}

		if err := db.Exec(`
			UPDATE attributes a SET rarity = r.rarity, score = r.score
			FROM attribute_rarities r
			WHERE r.collection_id = ? AND r.attr_type = ? AND r.value = ?
				AND a.collection_id = r.collection_id AND a.attr_type = r.attr_type AND a.value = r.value`,
			collectionID, pair.AttrType, pair.Value).Error; err != nil {
			return fmt.Errorf("failed to mirror attribute rarity %s=%s: %w", pair.AttrType, pair.Value, err)
		}

		var nftIDs []string
		if err := db.Model(&schema.Attribute{}).
			Where("collection_id = ? AND attr_type = ? AND value = ?", collectionID, pair.AttrType, pair.Value).
			Distinct().
			Pluck("nft_id", &nftIDs).Error; err != nil {
			return fmt.Errorf("failed to get tokens of attribute %s=%s: %w", pair.AttrType, pair.Value, err)
		}
		for _, id := range nftIDs {
			touched[id] = struct{}{}
		}
	}

	if len(touched) == 0 {
		return nil
	}

	nftIDs := make([]string, 0, len(touched))
	for id := range touched {
		nftIDs = append(nftIDs, id)
	}
	sort.Strings(nftIDs)

	if err := db.Exec(`
		UPDATE nfts n SET
			rarity = (SELECT SUM(a.score) FROM attributes a WHERE a.nft_id = n.id AND a.collection_id = n.collection_id),
			updated_at = now()
		WHERE n.id IN ?`, nftIDs).Error; err != nil {
		return fmt.Errorf("failed to refresh nft rarity: %w", err)
	}

	return nil
}

// GetLatestTokenPrice returns the latest price observed at or before at
func (s *pgStore) GetLatestTokenPrice(ctx context.Context, tokenAddress string, at time.Time) (*schema.TokenPrice, error) {
	var price schema.TokenPrice
	err := s.db.WithContext(ctx).
		Where("token_address = ? AND created_at <= ?", tokenAddress, at).
		Order("created_at DESC").
		First(&price).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get token price: %w", err)
	}

	return &price, nil
}

// InsertTokenPrices stores price observations
func (s *pgStore) InsertTokenPrices(ctx context.Context, prices []schema.TokenPrice) error {
	if len(prices) == 0 {
		return nil
	}

	batchSize := calculateSafeBatchSize(len(prices), 3)
	if err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		CreateInBatches(&prices, batchSize).Error; err != nil {
		return fmt.Errorf("failed to insert token prices: %w", err)
	}

	return nil
}

// GetNFTsPendingMetadata returns the oldest tokens that have a uri and no metadata check yet.
// It always reads from the primary: a lagging replica would hand out tokens that were just marked
func (s *pgStore) GetNFTsPendingMetadata(ctx context.Context, limit int) ([]schema.NFT, error) {
	db := s.db
	if hasDBResolver(db) {
		db = db.Clauses(dbresolver.Write)
	}

	var nfts []schema.NFT
	if err := db.WithContext(ctx).
		Where("uri IS NOT NULL AND metadata_checked_at IS NULL").
		Order("created_at ASC").
		Limit(limit).
		Find(&nfts).Error; err != nil {
		return nil, fmt.Errorf("failed to get nfts pending metadata: %w", err)
	}

	return nfts, nil
}

// SaveNFTMetadata stores the document, the token attributes and the descriptive token fields
func (s *pgStore) SaveNFTMetadata(ctx context.Context, input SaveNFTMetadataInput) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		metadata := input.Metadata
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&metadata).Error; err != nil {
			return fmt.Errorf("failed to create nft metadata: %w", err)
		}

		if len(input.Attributes) > 0 {
			batchSize := calculateSafeBatchSize(len(input.Attributes), 7)
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).
				CreateInBatches(input.Attributes, batchSize).Error; err != nil {
				return fmt.Errorf("failed to create attributes: %w", err)
			}
		}

		updates := map[string]any{
			"name":                gorm.Expr("COALESCE(name, ?)", metadata.Name),
			"description":         metadata.Description,
			"image_url":           metadata.Image,
			"animation_url":       metadata.AnimationURL,
			"external_url":        metadata.ExternalURL,
			"properties":          metadata.Attributes,
			"metadata_checked_at": input.CheckedAt,
			"updated_at":          gorm.Expr("now()"),
		}
		if err := tx.Model(&schema.NFT{}).Where("id = ?", input.NFTID).Updates(updates).Error; err != nil {
			return fmt.Errorf("failed to update nft metadata fields: %w", err)
		}

		return nil
	})
}

// MarkNFTMetadataChecked records that the token was processed
func (s *pgStore) MarkNFTMetadataChecked(ctx context.Context, nftID string, at time.Time) error {
	if err := s.db.WithContext(ctx).
		Model(&schema.NFT{}).
		Where("id = ?", nftID).
		Update("metadata_checked_at", at).Error; err != nil {
		return fmt.Errorf("failed to mark nft metadata checked: %w", err)
	}

	return nil
}

// first loads a single row, nil when not found. Reads that miss on a replica are retried on the primary
func first[T any](ctx context.Context, db *gorm.DB, query string, args ...any) (*T, error) {
	var row T
	err := db.WithContext(ctx).Where(query, args...).First(&row).Error
	if err == nil {
		return &row, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if !hasDBResolver(db) {
		return nil, nil
	}

	// Replica can lag behind primary; retry on primary before returning not found.
	err = db.WithContext(ctx).Clauses(dbresolver.Write).Where(query, args...).First(&row).Error
	if err == nil {
		return &row, nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return nil, err
}

// GetCollection retrieves a collection by id
func (s *pgStore) GetCollection(ctx context.Context, id string) (*schema.Collection, error) {
	collection, err := first[schema.Collection](ctx, s.db, "id = ?", id)
	if err != nil {
		return nil, fmt.Errorf("failed to get collection: %w", err)
	}
	return collection, nil
}

// GetNFT retrieves a token by id
func (s *pgStore) GetNFT(ctx context.Context, id string) (*schema.NFT, error) {
	nft, err := first[schema.NFT](ctx, s.db, "id = ?", id)
	if err != nil {
		return nil, fmt.Errorf("failed to get nft: %w", err)
	}
	return nft, nil
}

// GetActivity retrieves an activity by id
func (s *pgStore) GetActivity(ctx context.Context, id string) (*schema.Activity, error) {
	activity, err := first[schema.Activity](ctx, s.db, "id = ?", id)
	if err != nil {
		return nil, fmt.Errorf("failed to get activity: %w", err)
	}
	return activity, nil
}

// GetListing retrieves a listing by id
func (s *pgStore) GetListing(ctx context.Context, id string) (*schema.Listing, error) {
	listing, err := first[schema.Listing](ctx, s.db, "id = ?", id)
	if err != nil {
		return nil, fmt.Errorf("failed to get listing: %w", err)
	}
	return listing, nil
}

// GetBid retrieves a bid by id
func (s *pgStore) GetBid(ctx context.Context, id string) (*schema.Bid, error) {
	bid, err := first[schema.Bid](ctx, s.db, "id = ?", id)
	if err != nil {
		return nil, fmt.Errorf("failed to get bid: %w", err)
	}
	return bid, nil
}

// GetAttributesByNFTID retrieves the attributes of a token ordered by type and value
func (s *pgStore) GetAttributesByNFTID(ctx context.Context, nftID string) ([]schema.Attribute, error) {
	var attributes []schema.Attribute
	if err := s.db.WithContext(ctx).
		Where("nft_id = ?", nftID).
		Order("attr_type, value").
		Find(&attributes).Error; err != nil {
		return nil, fmt.Errorf("failed to get attributes: %w", err)
	}
	return attributes, nil
}

// GetAttributeRarity retrieves the statistics of a pair
func (s *pgStore) GetAttributeRarity(ctx context.Context, collectionID string, pair AttributePair) (*schema.AttributeRarity, error) {
	rarity, err := first[schema.AttributeRarity](ctx, s.db,
		"collection_id = ? AND attr_type = ? AND value = ?", collectionID, pair.AttrType, pair.Value)
	if err != nil {
		return nil, fmt.Errorf("failed to get attribute rarity: %w", err)
	}
	return rarity, nil
}
