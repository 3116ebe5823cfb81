package schema

import (
	"time"

	"gorm.io/datatypes"
)

// NFTMetadata represents the nft_metadata table - the off-chain JSON document a token uri points to
type NFTMetadata struct {
	URI          string         `gorm:"column:uri;primaryKey;type:text"`
	CollectionID string         `gorm:"column:collection_id;primaryKey;type:text"`
	Name         *string        `gorm:"column:name;type:text"`
	Description  *string        `gorm:"column:description;type:text"`
	Image        *string        `gorm:"column:image;type:text"`
	AnimationURL *string        `gorm:"column:animation_url;type:text"`
	ExternalURL  *string        `gorm:"column:external_url;type:text"`
	Attributes   datatypes.JSON `gorm:"column:attributes;type:jsonb"`
	// Raw is the RFC 8785 canonical form of the fetched document
	Raw       datatypes.JSON `gorm:"column:raw;type:jsonb"`
	CreatedAt time.Time      `gorm:"column:created_at;not null;default:now();type:timestamptz"`
}

// TableName specifies the table name for the NFTMetadata model
func (NFTMetadata) TableName() string {
	return "nft_metadata"
}
