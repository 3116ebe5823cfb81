package schema

import (
	"time"

	"github.com/shopspring/decimal"
)

// Bid represents the bids table - offers made on a token (solo) or on any token of a collection
type Bid struct {
	// ID is a name based UUID of marketplace contract, target and bidder
	ID               string  `gorm:"column:id;primaryKey;type:uuid"`
	MarketContractID string  `gorm:"column:market_contract_id;not null;type:text"`
	MarketName       string  `gorm:"column:market_name;not null;type:text"`
	Bidder           string  `gorm:"column:bidder;not null;type:text"`
	Receiver         *string `gorm:"column:receiver;type:text"`
	CollectionID     string  `gorm:"column:collection_id;not null;type:text;index"`
	// NFTID is nil for collection bids until one is accepted
	NFTID *string          `gorm:"column:nft_id;type:text"`
	Nonce *string          `gorm:"column:nonce;type:text"`
	Price *decimal.Decimal `gorm:"column:price;type:numeric"`
	// Status is active, matched or cancelled
	Status string `gorm:"column:status;not null;type:text"`
	// BidType is solo or collection
	BidType        string     `gorm:"column:bid_type;not null;type:text"`
	RemainingCount *int64     `gorm:"column:remaining_count"`
	CreatedTxID    *string    `gorm:"column:created_tx_id;type:text"`
	AcceptedTxID   *string    `gorm:"column:accepted_tx_id;type:text"`
	CancelledTxID  *string    `gorm:"column:cancelled_tx_id;type:text"`
	ExpiredAt      *time.Time `gorm:"column:expired_at;type:timestamptz"`
	TxIndex        int64      `gorm:"column:tx_index;not null"`
}

// TableName specifies the table name for the Bid model
func (Bid) TableName() string {
	return "bids"
}
