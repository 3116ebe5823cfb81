package domain

const (
	// APTDecimals is the number of octas in one APT
	APTDecimals = 100_000_000

	// APTTokenAddress is the fungible asset address of the native coin, used as the key for USD prices
	APTTokenAddress = "0x000000000000000000000000000000000000000000000000000000000000000a"

	// TxIndexMultiplier spaces event indexes within one transaction version
	TxIndexMultiplier = 100_000

	// Resource type address prefixes of the two token models
	TokenObjectModuleAddress = "0x4"
	TokenLegacyModuleAddress = "0x3"
)
