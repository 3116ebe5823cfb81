package domain

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/sha3"
)

const addressHexLength = 64

// StandardizeAddress returns the address as 0x followed by 64 lowercase hex characters
func StandardizeAddress(address string) string {
	address = strings.ToLower(strings.TrimSpace(address))
	address = strings.TrimPrefix(address, "0x")
	if address == "" {
		return ""
	}
	if len(address) >= addressHexLength {
		return "0x" + address
	}
	return "0x" + strings.Repeat("0", addressHexLength-len(address)) + address
}

// IsAddress checks if the value is a 0x-prefixed account address of at most 32 bytes
func IsAddress(value string) bool {
	body, ok := strings.CutPrefix(strings.TrimSpace(value), "0x")
	if !ok || body == "" || len(body) > addressHexLength {
		return false
	}
	for _, c := range body {
		if !isHexChar(c) {
			return false
		}
	}
	return true
}

func isHexChar(c rune) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

// NormalizeMoveType standardizes the address part of a fully qualified Move type
// e.g. 0x4::token::Token becomes 0x00..04::token::Token
// It returns false when the type has fewer than three parts
func NormalizeMoveType(moveType string) (string, bool) {
	parts := strings.Split(strings.TrimSpace(moveType), "::")
	if len(parts) < 3 || !IsAddress(parts[0]) {
		return moveType, false
	}
	parts[0] = StandardizeAddress(parts[0])
	return strings.Join(parts, "::"), true
}

// MoveTypeAddress returns the standardized account address that declares the Move type
func MoveTypeAddress(moveType string) (string, bool) {
	normalized, ok := NormalizeMoveType(moveType)
	if !ok {
		return "", false
	}
	return normalized[:2+addressHexLength], true
}

// ResourceStandard tells which token model a resource type belongs to
func ResourceStandard(resourceType string) (TokenStandard, bool) {
	address, ok := MoveTypeAddress(resourceType)
	if !ok {
		return "", false
	}
	switch address {
	case StandardizeAddress(TokenObjectModuleAddress):
		return TokenStandardV2, true
	case StandardizeAddress(TokenLegacyModuleAddress):
		return TokenStandardV1, true
	default:
		return "", false
	}
}

// hashToAddress hashes the value with SHA3-256 the way the chain derives legacy token ids
func hashToAddress(value string) string {
	sum := sha3.Sum256([]byte(value))
	return StandardizeAddress(hex.EncodeToString(sum[:]))
}

// V1TokenAddress derives the token data id of a legacy token
func V1TokenAddress(creator, collection, name string) string {
	return hashToAddress(fmt.Sprintf("%s::%s::%s", StandardizeAddress(creator), collection, name))
}

// V1CollectionAddress derives the collection data id of a legacy collection
func V1CollectionAddress(creator, collection string) string {
	return hashToAddress(fmt.Sprintf("%s::%s", StandardizeAddress(creator), collection))
}

// objectFromSeedScheme is the domain separator of named object addresses
const objectFromSeedScheme = 0xFE

// V2CollectionAddress derives the object address of a collection created by the creator under the name
func V2CollectionAddress(creator, collection string) (string, bool) {
	creatorBytes, err := hex.DecodeString(strings.TrimPrefix(StandardizeAddress(creator), "0x"))
	if err != nil || len(creatorBytes) != addressHexLength/2 {
		return "", false
	}

	h := sha3.New256()
	h.Write(creatorBytes)
	h.Write([]byte(collection))
	h.Write([]byte{objectFromSeedScheme})
	return "0x" + hex.EncodeToString(h.Sum(nil)), true
}

// deterministicID returns a name-based UUID so that replays produce the same keys
func deterministicID(name string) string {
	return uuid.NewSHA1(uuid.NameSpaceDNS, []byte(name)).String()
}

// ActivityID returns the id of the activity emitted at the given stream position
func ActivityID(txIndex int64) string {
	return deterministicID(strconv.FormatInt(txIndex, 10))
}

// MarketplaceActivityID returns the id of an activity that carries its own marketplace identifier
func MarketplaceActivityID(contractAddress, activityID string) string {
	return deterministicID(fmt.Sprintf("%s::%s", contractAddress, activityID))
}

// ListingID returns the id of the listing of a token on a marketplace contract
func ListingID(contractAddress, tokenAddress string) string {
	return deterministicID(fmt.Sprintf("%s::%s", contractAddress, tokenAddress))
}

// BidID returns the id of a bid placed by the bidder on a token or a collection
func BidID(contractAddress, targetAddress, bidder string) string {
	return deterministicID(fmt.Sprintf("%s::%s::%s", contractAddress, targetAddress, bidder))
}

// MarketplaceID returns the id of a configured marketplace
func MarketplaceID(contractAddress, name string) string {
	return deterministicID(fmt.Sprintf("%s::%s", contractAddress, name))
}

// AttributeID returns the id of one trait of one token
func AttributeID(collectionID, nftID, attrType, value string) string {
	return deterministicID(fmt.Sprintf("%s::%s::%s::%s", collectionID, nftID, attrType, value))
}
