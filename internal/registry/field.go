package registry

// Field is a destination column an event or resource value can be mapped to
type Field string

const (
	FieldCollectionAddr Field = "collection_addr"
	FieldTokenAddr      Field = "token_addr"
	FieldTokenName      Field = "token_name"
	FieldCreatorAddress Field = "creator_address"
	FieldCollectionName Field = "collection_name"
	FieldTokenURI       Field = "token_uri"
	FieldPrice          Field = "price"
	FieldBuyer          Field = "buyer"
	FieldSeller         Field = "seller"
	FieldTokenAmount    Field = "token_amount"
	FieldListingID      Field = "listing_id"
	FieldOfferID        Field = "offer_id"
	FieldActivityID     Field = "activity_id"
	FieldExpirationTime Field = "expiration_time"
	FieldStartTime      Field = "start_time"
	FieldDuration       Field = "duration"
	// FieldRoyalty is the creator royalty as a fraction of the price
	FieldRoyalty Field = "royalty"
)

// Valid checks if the field is a known destination column
func (f Field) Valid() bool {
	switch f {
	case FieldCollectionAddr, FieldTokenAddr, FieldTokenName, FieldCreatorAddress,
		FieldCollectionName, FieldTokenURI, FieldPrice, FieldBuyer, FieldSeller,
		FieldTokenAmount, FieldListingID, FieldOfferID, FieldActivityID,
		FieldExpirationTime, FieldStartTime, FieldDuration, FieldRoyalty:
		return true
	default:
		return false
	}
}

// IsAddress reports whether values of the field are account or object addresses
func (f Field) IsAddress() bool {
	switch f {
	case FieldCollectionAddr, FieldTokenAddr, FieldCreatorAddress, FieldBuyer, FieldSeller:
		return true
	default:
		return false
	}
}

// IsInteger reports whether values of the field must parse as integers
func (f Field) IsInteger() bool {
	switch f {
	case FieldPrice, FieldTokenAmount, FieldExpirationTime, FieldStartTime, FieldDuration:
		return true
	default:
		return false
	}
}

// IsFraction reports whether values of the field are non-negative decimals
func (f Field) IsFraction() bool {
	return f == FieldRoyalty
}
