package schema

import "time"

// Marketplace represents the marketplaces table - one row per configured marketplace contract
type Marketplace struct {
	// ID is a name based UUID of contract address and name
	ID string `gorm:"column:id;primaryKey;type:uuid"`
	// Name is the marketplace name as configured, e.g. "topaz"
	Name string `gorm:"column:name;not null;type:text"`
	// ContractAddress is the standardized address of the marketplace module
	ContractAddress string `gorm:"column:contract_address;not null;type:text"`
	// StartingVersion is the first transaction version the marketplace is active at
	StartingVersion int64 `gorm:"column:starting_version;not null"`
	// EndingVersion is the last active transaction version, nil when open ended
	EndingVersion *int64 `gorm:"column:ending_version"`
	CreatedAt     time.Time `gorm:"column:created_at;not null;default:now();type:timestamptz"`
}

// TableName specifies the table name for the Marketplace model
func (Marketplace) TableName() string {
	return "marketplaces"
}
