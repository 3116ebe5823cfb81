package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStandardizeAddress(t *testing.T) {
	tests := []struct {
		name     string
		address  string
		expected string
	}{
		{
			name:     "short address is left padded",
			address:  "0x1",
			expected: "0x0000000000000000000000000000000000000000000000000000000000000001",
		},
		{
			name:     "upper case is lowered",
			address:  "0xAbC",
			expected: "0x0000000000000000000000000000000000000000000000000000000000000abc",
		},
		{
			name:     "missing prefix",
			address:  "a",
			expected: "0x000000000000000000000000000000000000000000000000000000000000000a",
		},
		{
			name:     "full length address is kept",
			address:  "0xee823650039470ea376af70538d734e26220b3070ca9b385047ba5e16b267cba",
			expected: "0xee823650039470ea376af70538d734e26220b3070ca9b385047ba5e16b267cba",
		},
		{
			name:     "empty",
			address:  "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, StandardizeAddress(tt.address))
		})
	}
}

func TestIsAddress(t *testing.T) {
	assert.True(t, IsAddress("0x1"))
	assert.True(t, IsAddress("0xE11C"))
	assert.False(t, IsAddress("e11c"))
	assert.False(t, IsAddress("0x"))
	assert.False(t, IsAddress("0xzz"))
	assert.False(t, IsAddress("0x"+"0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef0")) // 65 chars
}

func TestNormalizeMoveType(t *testing.T) {
	normalized, ok := NormalizeMoveType("0x4::token::Token")
	assert.True(t, ok)
	assert.Equal(t, "0x0000000000000000000000000000000000000000000000000000000000000004::token::Token", normalized)

	normalized, ok = NormalizeMoveType("0xE11C::listing::Wrapped<0x1::aptos_coin::AptosCoin>")
	assert.True(t, ok)
	assert.Equal(t, "0x000000000000000000000000000000000000000000000000000000000000e11c::listing::Wrapped<0x1::aptos_coin::AptosCoin>", normalized)

	_, ok = NormalizeMoveType("u64")
	assert.False(t, ok)
	_, ok = NormalizeMoveType("not_an_address::a::b")
	assert.False(t, ok)
}

func TestResourceStandard(t *testing.T) {
	standard, ok := ResourceStandard("0x4::token::Token")
	assert.True(t, ok)
	assert.Equal(t, TokenStandardV2, standard)

	standard, ok = ResourceStandard("0x0000000000000000000000000000000000000000000000000000000000000004::collection::Collection")
	assert.True(t, ok)
	assert.Equal(t, TokenStandardV2, standard)

	standard, ok = ResourceStandard("0x3::token::TokenStore")
	assert.True(t, ok)
	assert.Equal(t, TokenStandardV1, standard)

	_, ok = ResourceStandard("0x1::object::ObjectCore")
	assert.False(t, ok)
}

func TestV1Addresses(t *testing.T) {
	assert.Equal(t,
		"0xee823650039470ea376af70538d734e26220b3070ca9b385047ba5e16b267cba",
		V1TokenAddress("0xA", "Foo", "Bar#1"))
	assert.Equal(t,
		"0x10ec4c88bd487e4bc53d6613569a64ebfae554b70f6914313bcfc553960b345e",
		V1CollectionAddress("0xa", "Foo"))
	// creator is standardized before hashing
	assert.Equal(t, V1TokenAddress("0xa", "Foo", "Bar#1"), V1TokenAddress("0x000A", "Foo", "Bar#1"))
}

func TestV2CollectionAddress(t *testing.T) {
	address, ok := V2CollectionAddress("0xa", "Foo")
	assert.True(t, ok)
	assert.Equal(t, "0xbb57c387da0ccddf5fd6d924eacbe34f64b413bb1f5d980b96153ff02200ac10", address)

	_, ok = V2CollectionAddress("0xnothex", "Foo")
	assert.False(t, ok)
}

func TestDeterministicIDs(t *testing.T) {
	assert.Equal(t, "9416eabb-4e99-56f7-bce7-4ca5aed2514b", ActivityID(10000000003))
	assert.Equal(t, ListingID("0x1", "0x2"), ListingID("0x1", "0x2"))
	assert.NotEqual(t, ListingID("0x1", "0x2"), ListingID("0x2", "0x1"))
	assert.NotEqual(t, BidID("0x1", "0x2", "0x3"), BidID("0x1", "0x2", "0x4"))
	assert.Equal(t, AttributeID("c", "n", "eyes", "blue"), AttributeID("c", "n", "eyes", "blue"))
	assert.NotEqual(t, MarketplaceID("0x1", "a"), MarketplaceID("0x1", "b"))
}
