package schema

import "time"

// ProcessorStatus represents the processor_status table - the resume point of a processor
type ProcessorStatus struct {
	Processor          string `gorm:"column:processor;primaryKey;type:text"`
	LastSuccessVersion int64  `gorm:"column:last_success_version;not null"`
	// LastTransactionTimestamp is the block time of the last successful version
	LastTransactionTimestamp *time.Time `gorm:"column:last_transaction_timestamp;type:timestamptz"`
	UpdatedAt                time.Time  `gorm:"column:updated_at;not null;default:now();type:timestamptz"`
}

// TableName specifies the table name for the ProcessorStatus model
func (ProcessorStatus) TableName() string {
	return "processor_status"
}
