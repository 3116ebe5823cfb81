package schema

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// NFT represents the nfts table - the canonical record of one token
type NFT struct {
	// ID is the token address: the object address for V2 tokens, the token data id for V1 tokens
	ID           string `gorm:"column:id;primaryKey;type:text"`
	CollectionID string `gorm:"column:collection_id;not null;type:text;index"`
	Name         *string `gorm:"column:name;type:text"`
	// Owner is nil when unknown or burned
	Owner  *string `gorm:"column:owner;type:text"`
	Burned bool    `gorm:"column:burned;not null;default:false"`
	// OwnerTxIndex is the tx_index of the activity that last set owner or burned
	OwnerTxIndex  *int64         `gorm:"column:owner_tx_index"`
	URI           *string        `gorm:"column:uri;type:text"`
	TokenStandard string         `gorm:"column:token_standard;not null;type:text"`
	Description   *string        `gorm:"column:description;type:text"`
	ImageURL      *string        `gorm:"column:image_url;type:text"`
	AnimationURL  *string        `gorm:"column:animation_url;type:text"`
	ExternalURL   *string        `gorm:"column:external_url;type:text"`
	Properties    datatypes.JSON `gorm:"column:properties;type:jsonb"`
	// Royalty is the creator royalty as a fraction of the sale price
	Royalty *decimal.Decimal `gorm:"column:royalty;type:numeric"`
	// Rarity is the sum of the scores of the token's attributes
	Rarity *float64 `gorm:"column:rarity"`
	// MetadataCheckedAt is set once the metadata worker has processed the uri, successfully or not
	MetadataCheckedAt *time.Time `gorm:"column:metadata_checked_at;type:timestamptz"`
	CreatedAt         time.Time  `gorm:"column:created_at;not null;default:now();type:timestamptz"`
	UpdatedAt         time.Time  `gorm:"column:updated_at;not null;default:now();type:timestamptz"`
}

// TableName specifies the table name for the NFT model
func (NFT) TableName() string {
	return "nfts"
}
