package schema

import (
	"time"

	"github.com/shopspring/decimal"
)

// TokenPrice represents the token_prices table - USD price observations of a coin
type TokenPrice struct {
	TokenAddress string          `gorm:"column:token_address;primaryKey;type:text"`
	CreatedAt    time.Time       `gorm:"column:created_at;primaryKey;type:timestamptz"`
	Price        decimal.Decimal `gorm:"column:price;type:numeric;not null"`
}

// TableName specifies the table name for the TokenPrice model
func (TokenPrice) TableName() string {
	return "token_prices"
}
