package schema

import "time"

// Attribute represents the attributes table - one trait of one token
type Attribute struct {
	// ID is a name based UUID of collection, token, type and value
	ID           string `gorm:"column:id;primaryKey;type:uuid"`
	CollectionID string `gorm:"column:collection_id;not null;type:text;index:idx_attributes_pair,priority:1"`
	NFTID        string `gorm:"column:nft_id;not null;type:text;index"`
	AttrType     string `gorm:"column:attr_type;not null;type:text;index:idx_attributes_pair,priority:2"`
	Value        string `gorm:"column:value;not null;type:text;index:idx_attributes_pair,priority:3"`
	// Rarity and Score mirror attribute_rarities for the pair
	Rarity *float64 `gorm:"column:rarity"`
	Score  *float64 `gorm:"column:score"`
}

// TableName specifies the table name for the Attribute model
func (Attribute) TableName() string {
	return "attributes"
}

// AttributeRarity represents the attribute_rarities table - derived statistics of one (type, value) pair
type AttributeRarity struct {
	CollectionID string `gorm:"column:collection_id;primaryKey;type:text"`
	AttrType     string `gorm:"column:attr_type;primaryKey;type:text"`
	Value        string `gorm:"column:value;primaryKey;type:text"`
	// Occurrences is the number of tokens carrying the pair
	Occurrences int64 `gorm:"column:occurrences;not null"`
	// Total is the number of tokens the ratio is computed against
	Total     int64     `gorm:"column:total;not null"`
	Rarity    float64   `gorm:"column:rarity;not null"`
	Score     float64   `gorm:"column:score;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null;default:now();type:timestamptz"`
}

// TableName specifies the table name for the AttributeRarity model
func (AttributeRarity) TableName() string {
	return "attribute_rarities"
}
