package metadata

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/feral-file/ff-marketplace-indexer/internal/adapter"
	"github.com/feral-file/ff-marketplace-indexer/internal/domain"
	"github.com/feral-file/ff-marketplace-indexer/internal/store"
)

// Attribute is a lowercased trait of a token
type Attribute struct {
	TraitType string `json:"trait_type"`
	Value     string `json:"value"`
}

// Document is the normalized metadata of a token
type Document struct {
	Name         *string
	Description  *string
	Image        *string
	AnimationURL *string
	ExternalURL  *string
	Attributes   []Attribute
	// Raw is the canonical form of the fetched document, nil for media uris
	Raw []byte
}

// Pairs returns the attribute pairs of the document
func (d *Document) Pairs() []store.AttributePair {
	pairs := make([]store.AttributePair, 0, len(d.Attributes))
	for _, attribute := range d.Attributes {
		pairs = append(pairs, store.AttributePair{AttrType: attribute.TraitType, Value: attribute.Value})
	}
	return pairs
}

// rawDocument follows the OpenSea metadata standard. Values are decoded loosely since
// collections put numbers and booleans where strings are expected
type rawDocument struct {
	Name         any            `json:"name"`
	Description  any            `json:"description"`
	Image        any            `json:"image"`
	ImageURL     any            `json:"image_url"`
	AnimationURL any            `json:"animation_url"`
	ExternalURL  any            `json:"external_url"`
	Attributes   []rawAttribute `json:"attributes"`
}

type rawAttribute struct {
	TraitType any `json:"trait_type"`
	Value     any `json:"value"`
}

// parseDocument decodes a metadata document. Attributes are lowercased and deduplicated,
// those without a type or value are skipped
func parseDocument(data []byte, jcs adapter.JCS) (*Document, error) {
	var raw rawDocument
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMalformedPayload, err)
	}

	doc := &Document{
		Name:         text(raw.Name),
		Description:  text(raw.Description),
		Image:        text(raw.Image),
		AnimationURL: text(raw.AnimationURL),
		ExternalURL:  text(raw.ExternalURL),
	}
	if doc.Image == nil {
		doc.Image = text(raw.ImageURL)
	}

	seen := make(map[Attribute]struct{}, len(raw.Attributes))
	for _, attr := range raw.Attributes {
		traitType, value := text(attr.TraitType), text(attr.Value)
		if traitType == nil || value == nil {
			continue
		}
		attribute := Attribute{
			TraitType: strings.ToLower(*traitType),
			Value:     strings.ToLower(*value),
		}
		if _, ok := seen[attribute]; ok {
			continue
		}
		seen[attribute] = struct{}{}
		doc.Attributes = append(doc.Attributes, attribute)
	}

	canonical, err := jcs.Transform(data)
	if err != nil {
		// e.g. duplicate keys
		return nil, fmt.Errorf("%w: %v", domain.ErrMalformedPayload, err)
	}
	doc.Raw = canonical

	return doc, nil
}

// text renders a scalar JSON value as a trimmed string, nil when absent or empty
func text(value any) *string {
	var s string
	switch v := value.(type) {
	case string:
		s = strings.TrimSpace(v)
	case float64:
		s = strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		s = strconv.FormatBool(v)
	default:
		return nil
	}
	if s == "" {
		return nil
	}
	return &s
}
