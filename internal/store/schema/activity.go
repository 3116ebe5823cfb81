package schema

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// Activity represents the activities table - one row per marketplace event
type Activity struct {
	// ID is the marketplace assigned identifier or a name based UUID of the stream position
	ID string `gorm:"column:id;primaryKey;type:uuid"`
	// TxIndex is tx_version * 100000 + event_index, the total order of activities
	TxIndex int64 `gorm:"column:tx_index;not null;uniqueIndex"`
	// TxVersion is the transaction version that emitted the event
	TxVersion int64 `gorm:"column:tx_version;not null"`
	// TxID is the transaction hash
	TxID string `gorm:"column:tx_id;not null;type:text"`
	// TxType is the marketplace event type (list, buy, solo-bid, ...)
	TxType string `gorm:"column:tx_type;not null;type:text"`
	// Sender is the seller or the address giving up the token
	Sender *string `gorm:"column:sender;type:text"`
	// Receiver is the buyer, bidder or the address receiving the token
	Receiver *string `gorm:"column:receiver;type:text"`
	// Price is in octas
	Price    *decimal.Decimal `gorm:"column:price;type:numeric"`
	USDPrice *decimal.Decimal `gorm:"column:usd_price;type:numeric"`
	// Amount is the number of tokens moved
	Amount           *int64    `gorm:"column:amount"`
	NFTID            *string   `gorm:"column:nft_id;type:text;index"`
	CollectionID     string    `gorm:"column:collection_id;not null;type:text;index"`
	TokenStandard    string    `gorm:"column:token_standard;not null;type:text"`
	MarketName       string    `gorm:"column:market_name;not null;type:text"`
	MarketContractID string    `gorm:"column:market_contract_id;not null;type:text"`
	BlockHeight      int64     `gorm:"column:block_height;not null"`
	BlockTime        time.Time `gorm:"column:block_time;not null;type:timestamptz"`
	// Raw is the RFC 8785 canonical form of the event payload
	Raw       datatypes.JSON `gorm:"column:raw;type:jsonb"`
	CreatedAt time.Time      `gorm:"column:created_at;not null;default:now();type:timestamptz"`
}

// TableName specifies the table name for the Activity model
func (Activity) TableName() string {
	return "activities"
}
