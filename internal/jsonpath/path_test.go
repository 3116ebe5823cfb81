package jsonpath

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

const listingPayload = `{
	"price": "1000",
	"amount": 1,
	"token": {"inner": "0xabc"},
	"royalty": {"vec": []},
	"fee": {"vec": [{"numerator": 25}]},
	"zero": 0,
	"empty": "",
	"flag": false,
	"big": 18446744073709551615
}`

func TestLookup(t *testing.T) {
	root, err := Decode([]byte(listingPayload))
	require.NoError(t, err)

	tests := []struct {
		name     string
		path     Path
		expected string
		found    bool
	}{
		{name: "top level string", path: Path{Key("price")}, expected: "1000", found: true},
		{name: "top level number", path: Path{Key("amount")}, expected: "1", found: true},
		{name: "nested key", path: Path{Key("token"), Key("inner")}, expected: "0xabc", found: true},
		{name: "array index", path: Path{Key("fee"), Key("vec"), Index(0), Key("numerator")}, expected: "25", found: true},
		{name: "zero is a real value", path: Path{Key("zero")}, expected: "0", found: true},
		{name: "false is a real value", path: Path{Key("flag")}, expected: "false", found: true},
		{name: "large integer keeps precision", path: Path{Key("big")}, expected: "18446744073709551615", found: true},
		{name: "missing key", path: Path{Key("seller")}, found: false},
		{name: "index out of range", path: Path{Key("royalty"), Key("vec"), Index(0)}, found: false},
		{name: "index into object", path: Path{Key("token"), Index(0)}, found: false},
		{name: "key into scalar", path: Path{Key("price"), Key("value")}, found: false},
		{name: "object result is not a scalar", path: Path{Key("token")}, found: false},
		{name: "empty string counts as absent", path: Path{Key("empty")}, found: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			value, ok := LookupString(root, tt.path)
			assert.Equal(t, tt.found, ok)
			assert.Equal(t, tt.expected, value)
		})
	}
}

func TestLookup_EmptyPathReturnsRoot(t *testing.T) {
	root, err := Decode([]byte(`"0x1"`))
	require.NoError(t, err)

	value, ok := LookupString(root, Path{})
	assert.True(t, ok)
	assert.Equal(t, "0x1", value)
}

func TestDecode_Malformed(t *testing.T) {
	_, err := Decode([]byte(`{"price": `))
	assert.Error(t, err)

	_, err = Decode([]byte(`{} {}`))
	assert.Error(t, err)
}

func TestPath_UnmarshalYAML(t *testing.T) {
	var doc struct {
		Path Path `yaml:"path"`
	}

	err := yaml.Unmarshal([]byte(`path: [fee, vec, 0, "1", numerator]`), &doc)
	require.NoError(t, err)
	assert.Equal(t, Path{Key("fee"), Key("vec"), Index(0), Key("1"), Key("numerator")}, doc.Path)
	assert.Equal(t, "$.fee.vec[0].1.numerator", doc.Path.String())

	err = yaml.Unmarshal([]byte(`path: price`), &doc)
	assert.Error(t, err)

	err = yaml.Unmarshal([]byte(`path: [a, -1]`), &doc)
	assert.Error(t, err)

	err = yaml.Unmarshal([]byte(`path: [a, {b: c}]`), &doc)
	assert.Error(t, err)
}
