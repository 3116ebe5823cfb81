package schema

import (
	"time"

	"github.com/shopspring/decimal"
)

// Listing represents the listings table - the latest known state of a token listing on a marketplace
type Listing struct {
	// ID is a name based UUID of marketplace contract and token address
	ID               string `gorm:"column:id;primaryKey;type:uuid"`
	MarketContractID string `gorm:"column:market_contract_id;not null;type:text"`
	MarketName       string `gorm:"column:market_name;not null;type:text"`
	// CollectionID may be backfilled by a later event of the same listing
	CollectionID *string `gorm:"column:collection_id;type:text;index"`
	NFTID        string  `gorm:"column:nft_id;not null;type:text"`
	// Nonce is the marketplace listing identifier when the contract emits one
	Nonce  *string          `gorm:"column:nonce;type:text"`
	Price  *decimal.Decimal `gorm:"column:price;type:numeric"`
	Seller *string          `gorm:"column:seller;type:text"`
	Listed bool             `gorm:"column:listed;not null;default:false"`
	// TxIndex of the activity that produced this state, older activities never overwrite newer ones
	TxIndex     int64      `gorm:"column:tx_index;not null"`
	BlockHeight int64      `gorm:"column:block_height;not null"`
	BlockTime   time.Time  `gorm:"column:block_time;not null;type:timestamptz"`
	ExpiredAt   *time.Time `gorm:"column:expired_at;type:timestamptz"`
}

// TableName specifies the table name for the Listing model
func (Listing) TableName() string {
	return "listings"
}
