package registry

import (
	"fmt"
	"math"
	"sort"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/feral-file/ff-marketplace-indexer/internal/adapter"
	"github.com/feral-file/ff-marketplace-indexer/internal/domain"
	"github.com/feral-file/ff-marketplace-indexer/internal/jsonpath"
	"github.com/feral-file/ff-marketplace-indexer/internal/logger"
)

// MarketplaceRegistry defines the interface for resolving on-chain events to marketplace mappings
//
//go:generate mockgen -source=marketplace.go -destination=../mocks/marketplace_registry.go -package=mocks -mock_names=MarketplaceRegistry=MockMarketplaceRegistry,MarketplaceRegistryLoader=MockMarketplaceRegistryLoader
type MarketplaceRegistry interface {
	// Resolve returns the first declared mapping for the event emitted by the contract at the given version.
	// Events declared under a module other than the marketplace contract, such as the token
	// framework's deposit or mint events, resolve by their type alone
	Resolve(contractAddress string, eventType string, txVersion uint64) (*EventModelMapping, bool)

	// Marketplaces returns the configured marketplaces in declaration order
	Marketplaces() []MarketplaceConfig

	// MinStartingVersion returns the earliest version any marketplace is active from
	MinStartingVersion() uint64
}

// Source tells where a column value is read from
type Source string

const (
	SourceEvents          Source = "events"
	SourceWriteSetChanges Source = "write_set_changes"
)

// ColumnConfig is one destination column of an event mapping as written in the document
type ColumnConfig struct {
	Column       Field                       `yaml:"column"`
	Path         jsonpath.Path               `yaml:"path"`
	Source       Source                      `yaml:"source"`
	ResourceType string                      `yaml:"resource_type"`
	EventType    domain.MarketplaceEventType `yaml:"event_type"`
}

// EventConfig maps a raw Move event type to a marketplace action
type EventConfig struct {
	EventType string                      `yaml:"event_type"`
	TxType    domain.MarketplaceEventType `yaml:"tx_type"`
	Columns   []ColumnConfig              `yaml:"columns"`
}

// MarketplaceConfig is one marketplace entry of the document
type MarketplaceConfig struct {
	Name            string        `yaml:"name"`
	ContractAddress string        `yaml:"contract_address"`
	StartingVersion uint64        `yaml:"starting_version"`
	EndingVersion   *uint64       `yaml:"ending_version"`
	Events          []EventConfig `yaml:"events"`
}

// MarketplaceDocument is the root of the marketplace definitions file
type MarketplaceDocument struct {
	Marketplaces []MarketplaceConfig `yaml:"marketplaces"`
}

// Contains reports whether the version lies in the inclusive active window
func (m *MarketplaceConfig) Contains(version uint64) bool {
	if version < m.StartingVersion {
		return false
	}
	return m.EndingVersion == nil || version <= *m.EndingVersion
}

func (m *MarketplaceConfig) endingVersion() uint64 {
	if m.EndingVersion == nil {
		return math.MaxUint64
	}
	return *m.EndingVersion
}

// FieldSource is a resolved column: where to read it and how to descend into the payload
type FieldSource struct {
	Field        Field
	Source       Source
	Path         jsonpath.Path
	ResourceType string // normalized, only set for write-set sources
}

// EventModelMapping is the resolved mapping of one raw event type for one marketplace
type EventModelMapping struct {
	Marketplace     string
	ContractAddress string
	EventType       string
	TxType          domain.MarketplaceEventType
	EventFields     []FieldSource
	ResourceFields  []FieldSource
}

// marketplaceEntry is the lookup form of one marketplace config
type marketplaceEntry struct {
	config   *MarketplaceConfig
	mappings map[string][]*EventModelMapping // normalized event type -> mappings in declaration order
}

// marketplaceRegistry is the internal implementation of MarketplaceRegistry interface
type marketplaceRegistry struct {
	marketplaces []MarketplaceConfig
	// contract address -> marketplaces in declaration order
	byContract map[string][]*marketplaceEntry
	// normalized event type -> marketplaces declaring it under a foreign module, in declaration order
	byForeignType map[string][]*marketplaceEntry
	minVersion    uint64
}

// MarketplaceRegistryLoader defines the interface for loading marketplace registries from files
type MarketplaceRegistryLoader interface {
	// Load loads and validates the marketplace definitions from a YAML file
	Load(filePath string) (MarketplaceRegistry, error)
}

// marketplaceRegistryLoader is the internal implementation of MarketplaceRegistryLoader interface
type marketplaceRegistryLoader struct {
	fs adapter.FileSystem
}

// NewMarketplaceRegistryLoader creates a new MarketplaceRegistryLoader with injected dependencies
func NewMarketplaceRegistryLoader(fs adapter.FileSystem) MarketplaceRegistryLoader {
	return &marketplaceRegistryLoader{fs: fs}
}

// Load loads and validates the marketplace definitions from a YAML file
func (l *marketplaceRegistryLoader) Load(filePath string) (MarketplaceRegistry, error) {
	data, err := l.fs.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read marketplace file: %w", err)
	}

	var doc MarketplaceDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: failed to parse marketplace YAML: %v", domain.ErrFatalConfig, err)
	}

	return NewMarketplaceRegistry(doc)
}

// NewMarketplaceRegistry validates the document and builds the lookup tables
func NewMarketplaceRegistry(doc MarketplaceDocument) (MarketplaceRegistry, error) {
	if len(doc.Marketplaces) == 0 {
		return nil, fmt.Errorf("%w: no marketplaces configured", domain.ErrFatalConfig)
	}

	r := &marketplaceRegistry{
		marketplaces:  doc.Marketplaces,
		byContract:    make(map[string][]*marketplaceEntry),
		byForeignType: make(map[string][]*marketplaceEntry),
		minVersion:    math.MaxUint64,
	}

	seen := make(map[string]bool)
	for i := range doc.Marketplaces {
		config := &doc.Marketplaces[i]
		if err := validateMarketplace(config); err != nil {
			return nil, fmt.Errorf("%w: marketplace %q: %v", domain.ErrFatalConfig, config.Name, err)
		}

		contract := domain.StandardizeAddress(config.ContractAddress)
		key := contract + "::" + config.Name
		if seen[key] {
			return nil, fmt.Errorf("%w: marketplace %q declared twice for contract %s", domain.ErrFatalConfig, config.Name, contract)
		}
		seen[key] = true

		entry := &marketplaceEntry{
			config:   config,
			mappings: make(map[string][]*EventModelMapping),
		}
		for _, event := range config.Events {
			mapping := buildMapping(config.Name, contract, event)
			if len(mapping.EventFields)+len(mapping.ResourceFields) == 0 {
				logger.Warn("Event mapping has no column applicable to its tx_type, it will never match",
					zap.String("marketplace", config.Name),
					zap.String("event_type", mapping.EventType),
					zap.String("tx_type", string(mapping.TxType)))
				continue
			}
			if module, _ := domain.MoveTypeAddress(mapping.EventType); module != contract && len(entry.mappings[mapping.EventType]) == 0 {
				r.byForeignType[mapping.EventType] = append(r.byForeignType[mapping.EventType], entry)
			}
			entry.mappings[mapping.EventType] = append(entry.mappings[mapping.EventType], mapping)
		}

		r.byContract[contract] = append(r.byContract[contract], entry)
		r.minVersion = min(r.minVersion, config.StartingVersion)
	}

	r.warnOverlaps()

	return r, nil
}

func validateMarketplace(config *MarketplaceConfig) error {
	if config.Name == "" {
		return fmt.Errorf("name is required")
	}
	if !domain.IsAddress(config.ContractAddress) {
		return fmt.Errorf("invalid contract_address %q", config.ContractAddress)
	}
	if config.EndingVersion != nil && *config.EndingVersion < config.StartingVersion {
		return fmt.Errorf("ending_version %d is lower than starting_version %d", *config.EndingVersion, config.StartingVersion)
	}
	if len(config.Events) == 0 {
		return fmt.Errorf("no events configured")
	}

	for _, event := range config.Events {
		if _, ok := domain.NormalizeMoveType(event.EventType); !ok {
			return fmt.Errorf("invalid event_type %q, expected address::module::struct", event.EventType)
		}
		if !event.TxType.Valid() {
			return fmt.Errorf("event %s: unknown tx_type %q", event.EventType, event.TxType)
		}
		if len(event.Columns) == 0 {
			return fmt.Errorf("event %s: no columns configured", event.EventType)
		}
		for _, column := range event.Columns {
			if err := validateColumn(column); err != nil {
				return fmt.Errorf("event %s: column %s: %w", event.EventType, column.Column, err)
			}
		}
	}

	return nil
}

func validateColumn(column ColumnConfig) error {
	if !column.Column.Valid() {
		return fmt.Errorf("unknown column")
	}
	// a royalty column may read a whole resource such as 0x4::royalty::Royalty
	if len(column.Path) == 0 && !column.Column.IsFraction() {
		return fmt.Errorf("path is required")
	}
	switch column.Source {
	case "", SourceEvents:
		if column.ResourceType != "" {
			return fmt.Errorf("resource_type is only allowed with source %s", SourceWriteSetChanges)
		}
	case SourceWriteSetChanges:
		if _, ok := domain.NormalizeMoveType(column.ResourceType); !ok {
			return fmt.Errorf("resource_type %q is required and must be address::module::struct", column.ResourceType)
		}
	default:
		return fmt.Errorf("unknown source %q", column.Source)
	}
	if column.EventType != "" && !column.EventType.Valid() {
		return fmt.Errorf("unknown event_type filter %q", column.EventType)
	}
	return nil
}

func buildMapping(marketplace, contract string, event EventConfig) *EventModelMapping {
	eventType, _ := domain.NormalizeMoveType(event.EventType)
	mapping := &EventModelMapping{
		Marketplace:     marketplace,
		ContractAddress: contract,
		EventType:       eventType,
		TxType:          event.TxType,
	}

	for _, column := range event.Columns {
		// The filter restricts a column to mappings of one marketplace action
		if column.EventType != "" && column.EventType != event.TxType {
			continue
		}

		source := FieldSource{
			Field:  column.Column,
			Source: SourceEvents,
			Path:   column.Path,
		}
		if column.Source == SourceWriteSetChanges {
			source.Source = SourceWriteSetChanges
			source.ResourceType, _ = domain.NormalizeMoveType(column.ResourceType)
			mapping.ResourceFields = append(mapping.ResourceFields, source)
			continue
		}
		mapping.EventFields = append(mapping.EventFields, source)
	}

	return mapping
}

// warnOverlaps logs mappings of the same contract and event type whose windows intersect,
// and framework events claimed by several marketplaces at once. Resolution still picks the
// first declared one
func (r *marketplaceRegistry) warnOverlaps() {
	contracts := make([]string, 0, len(r.byContract))
	for contract := range r.byContract {
		contracts = append(contracts, contract)
	}
	sort.Strings(contracts)

	for _, contract := range contracts {
		entries := r.byContract[contract]
		for i := 0; i < len(entries); i++ {
			for j := i + 1; j < len(entries); j++ {
				a, b := entries[i].config, entries[j].config
				if a.StartingVersion > b.endingVersion() || b.StartingVersion > a.endingVersion() {
					continue
				}
				for eventType := range entries[j].mappings {
					if _, ok := entries[i].mappings[eventType]; !ok {
						continue
					}
					logger.Warn("Overlapping marketplace windows, first declared wins",
						zap.String("contract_address", contract),
						zap.String("event_type", eventType),
						zap.String("first", a.Name),
						zap.String("shadowed", b.Name))
				}
			}
		}
	}

	eventTypes := make([]string, 0, len(r.byForeignType))
	for eventType := range r.byForeignType {
		eventTypes = append(eventTypes, eventType)
	}
	sort.Strings(eventTypes)

	for _, eventType := range eventTypes {
		entries := r.byForeignType[eventType]
		for i := 0; i < len(entries); i++ {
			for j := i + 1; j < len(entries); j++ {
				a, b := entries[i].config, entries[j].config
				if a.StartingVersion > b.endingVersion() || b.StartingVersion > a.endingVersion() {
					continue
				}
				logger.Warn("Framework event claimed by overlapping marketplaces, first declared wins",
					zap.String("event_type", eventType),
					zap.String("first", a.Name),
					zap.String("shadowed", b.Name))
			}
		}
	}
}

// Resolve returns the first declared mapping for the event emitted by the contract at the given version.
// A miss on the contract falls back to the marketplaces that declare the event type under a foreign module
func (r *marketplaceRegistry) Resolve(contractAddress string, eventType string, txVersion uint64) (*EventModelMapping, bool) {
	if r == nil {
		return nil, false
	}

	normalized, ok := domain.NormalizeMoveType(eventType)
	if !ok {
		return nil, false
	}

	if mapping, ok := firstMapping(r.byContract[domain.StandardizeAddress(contractAddress)], normalized, txVersion); ok {
		return mapping, true
	}

	// the mapping keeps the declaring marketplace's contract for attribution
	return firstMapping(r.byForeignType[normalized], normalized, txVersion)
}

func firstMapping(entries []*marketplaceEntry, eventType string, txVersion uint64) (*EventModelMapping, bool) {
	for _, entry := range entries {
		if !entry.config.Contains(txVersion) {
			continue
		}
		if mappings := entry.mappings[eventType]; len(mappings) > 0 {
			return mappings[0], true
		}
	}
	return nil, false
}

// Marketplaces returns the configured marketplaces in declaration order
func (r *marketplaceRegistry) Marketplaces() []MarketplaceConfig {
	if r == nil {
		return nil
	}
	return r.marketplaces
}

// MinStartingVersion returns the earliest version any marketplace is active from
func (r *marketplaceRegistry) MinStartingVersion() uint64 {
	if r == nil || len(r.marketplaces) == 0 {
		return 0
	}
	return r.minVersion
}
