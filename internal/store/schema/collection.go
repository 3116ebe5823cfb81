package schema

import (
	"time"

	"github.com/shopspring/decimal"
)

// Collection represents the collections table.
// Everything below CreatorAddress is derived and only written by the aggregate maintainer
type Collection struct {
	// ID is the collection address
	ID             string  `gorm:"column:id;primaryKey;type:text"`
	Title          *string `gorm:"column:title;type:text"`
	CreatorAddress *string `gorm:"column:creator_address;type:text"`

	Supply    int64            `gorm:"column:supply;not null;default:0"`
	Owners    int64            `gorm:"column:owners;not null;default:0"`
	Listed    int64            `gorm:"column:listed;not null;default:0"`
	Floor     *decimal.Decimal `gorm:"column:floor;type:numeric"`
	Sales     int64            `gorm:"column:sales;not null;default:0"`
	Volume    decimal.Decimal  `gorm:"column:volume;type:numeric;not null;default:0"`
	VolumeUSD decimal.Decimal  `gorm:"column:volume_usd;type:numeric;not null;default:0"`

	CreatedAt time.Time `gorm:"column:created_at;not null;default:now();type:timestamptz"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null;default:now();type:timestamptz"`
}

// TableName specifies the table name for the Collection model
func (Collection) TableName() string {
	return "collections"
}
