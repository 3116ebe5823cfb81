package processor

import (
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/feral-file/ff-marketplace-indexer/internal/adapter"
	"github.com/feral-file/ff-marketplace-indexer/internal/domain"
	"github.com/feral-file/ff-marketplace-indexer/internal/logger"
	"github.com/feral-file/ff-marketplace-indexer/internal/registry"
	"github.com/feral-file/ff-marketplace-indexer/internal/remapper"
)

func TestMain(m *testing.M) {
	if err := logger.Initialize(logger.Config{Debug: false}); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

const testMarketplaces = `
marketplaces:
  - name: topaz
    contract_address: "0x2c7b"
    starting_version: 10
    events:
      - event_type: "0x2c7b::events::BuyEvent"
        tx_type: buy
        columns:
          - {column: token_addr, path: [token]}
          - {column: collection_addr, path: [collection]}
          - {column: collection_name, path: [collection_name]}
          - {column: price, path: [price]}
          - {column: buyer, path: [buyer]}
          - {column: seller, path: [seller]}
      - event_type: "0x2c7b::events::ListEvent"
        tx_type: list
        columns:
          - {column: token_addr, path: [token]}
          - {column: collection_addr, path: [collection]}
          - {column: price, path: [price]}
          - {column: seller, path: [seller]}
          - {column: listing_id, path: [listing_id]}
          - {column: expiration_time, path: [expires]}
      - event_type: "0x2c7b::events::BidEvent"
        tx_type: solo-bid
        columns:
          - {column: token_addr, path: [token]}
          - {column: collection_addr, path: [collection]}
          - {column: price, path: [price]}
          - {column: buyer, path: [bidder]}
          - {column: offer_id, path: [offer_id]}
      - event_type: "0x2c7b::events::AcceptBidEvent"
        tx_type: accept-bid
        columns:
          - {column: token_addr, path: [token]}
          - {column: collection_addr, path: [collection]}
          - {column: price, path: [price]}
          - {column: buyer, path: [bidder]}
          - {column: seller, path: [seller]}
      - event_type: "0x2c7b::events::CollectionBidEvent"
        tx_type: collection-bid
        columns:
          - {column: collection_addr, path: [collection]}
          - {column: price, path: [price]}
          - {column: buyer, path: [bidder]}
          - {column: token_amount, path: [amount]}
          - {column: start_time, path: [start]}
          - {column: duration, path: [duration]}
  - name: rarible
    contract_address: "0x7a7a"
    starting_version: 10
    events:
      - event_type: "0x7a7a::events::ListEvent"
        tx_type: list
        columns:
          - {column: token_addr, path: [token]}
          - {column: collection_addr, path: [collection]}
          - {column: price, path: [price]}
          - {column: seller, path: [seller]}
          - {column: expiration_time, path: [expires]}
  - name: wapal
    contract_address: "0x9a9a"
    starting_version: 10
    events:
      - event_type: "0x9a9a::events::MintEvent"
        tx_type: mint
        columns:
          - {column: token_addr, path: [token]}
          - {column: collection_addr, path: [collection]}
          - {column: token_name, path: [name]}
          - {column: token_uri, path: [uri]}
          - {column: buyer, path: [receiver]}
      - event_type: "0x9a9a::events::BurnEvent"
        tx_type: burn
        columns:
          - {column: token_addr, path: [token]}
          - {column: collection_addr, path: [collection]}
      - event_type: "0x9a9a::events::LaunchpadMintEvent"
        tx_type: mint
        columns:
          - {column: token_addr, path: [token]}
          - {column: collection_addr, path: [collection]}
          - column: royalty
            source: write_set_changes
            resource_type: "0x4::royalty::Royalty"
            path: []
      - event_type: "0x3::token::TokenDeposit"
        tx_type: deposit
        columns:
          - {column: token_addr, path: [token]}
          - {column: collection_addr, path: [collection]}
          - {column: buyer, path: [account]}
`

var (
	testToken      = domain.StandardizeAddress("0x70")
	testCollection = domain.StandardizeAddress("0xc0")
	testBuyer      = domain.StandardizeAddress("0xb1")
	testSeller     = domain.StandardizeAddress("0x5e")
	topazContract  = domain.StandardizeAddress("0x2c7b")
)

func newTestRegistry(t *testing.T) registry.MarketplaceRegistry {
	t.Helper()

	var doc registry.MarketplaceDocument
	require.NoError(t, yaml.Unmarshal([]byte(testMarketplaces), &doc))
	reg, err := registry.NewMarketplaceRegistry(doc)
	require.NoError(t, err)
	return reg
}

func event(t *testing.T, eventType string, data map[string]any) domain.Event {
	t.Helper()
	payload, err := json.Marshal(data)
	require.NoError(t, err)
	return domain.Event{Type: eventType, Data: payload}
}

func testTx(version uint64, events ...domain.Event) *domain.Transaction {
	return &domain.Transaction{
		Version:     version,
		Hash:        "0xhash",
		BlockHeight: 5,
		Timestamp:   time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
		Events:      events,
	}
}

func draftsOf(t *testing.T, tx *domain.Transaction) []*remapper.ActivityDraft {
	t.Helper()
	arena, _ := remapper.NewEventRemapper(newTestRegistry(t)).Remap(tx)
	remapper.NewResourceMapper().Resolve(arena, tx.Changes)
	return arena.Drain()
}

func buyEvent(t *testing.T) domain.Event {
	return event(t, "0x2c7b::events::BuyEvent", map[string]any{
		"token":           "0x70",
		"collection":      "0xc0",
		"collection_name": "Apes",
		"price":           "250000000",
		"buyer":           "0xb1",
		"seller":          "0x5e",
	})
}

func TestReduce_Buy(t *testing.T) {
	r := reducer{jcs: adapter.NewJCS()}
	rate := decimal.RequireFromString("8")

	reduction := r.reduce(draftsOf(t, testTx(100, buyEvent(t))), &rate)

	require.Len(t, reduction.Collections, 1)
	assert.Equal(t, testCollection, reduction.Collections[0].ID)
	require.NotNil(t, reduction.Collections[0].Title)
	assert.Equal(t, "Apes", *reduction.Collections[0].Title)

	require.Len(t, reduction.Activities, 1)
	activity := reduction.Activities[0]
	assert.Equal(t, domain.ActivityID(10000000), activity.ID)
	assert.Equal(t, int64(10000000), activity.TxIndex)
	assert.Equal(t, "buy", activity.TxType)
	assert.Equal(t, testBuyer, *activity.Receiver)
	assert.Equal(t, testSeller, *activity.Sender)
	assert.Equal(t, testToken, *activity.NFTID)
	assert.Equal(t, topazContract, activity.MarketContractID)
	assert.True(t, activity.USDPrice.Equal(decimal.NewFromInt(20)), "2.5 APT at 8 USD")
	assert.JSONEq(t, `{"buyer":"0xb1","collection":"0xc0","collection_name":"Apes","price":"250000000","seller":"0x5e","token":"0x70"}`, string(activity.Raw))

	require.Len(t, reduction.NFTs, 1)
	nft := reduction.NFTs[0]
	assert.Equal(t, testBuyer, *nft.Owner)
	assert.Equal(t, int64(10000000), *nft.OwnerTxIndex)
	assert.False(t, nft.Burned)

	require.Len(t, reduction.Listings, 1)
	listing := reduction.Listings[0]
	assert.Equal(t, domain.ListingID(topazContract, testToken), listing.ID)
	assert.False(t, listing.Listed)

	assert.Empty(t, reduction.Bids)

	delta := reduction.Delta(reduction.Activities)
	assert.Equal(t, int64(1), delta.Sales[testCollection].Count)
	assert.True(t, delta.Sales[testCollection].Volume.Equal(decimal.NewFromInt(250000000)))
	assert.Contains(t, delta.ListingCollections, testCollection)
	assert.Contains(t, delta.OwnerCollections, testCollection)

	// a replay inserts nothing and adds no sales
	assert.Empty(t, reduction.Delta(nil).Sales)
}

func TestReduce_UnknownUSDRate(t *testing.T) {
	r := reducer{jcs: adapter.NewJCS()}
	reduction := r.reduce(draftsOf(t, testTx(100, buyEvent(t))), nil)

	require.Len(t, reduction.Activities, 1)
	assert.Nil(t, reduction.Activities[0].USDPrice)
	assert.NotNil(t, reduction.Activities[0].Price)
}

func TestReduce_Expiration(t *testing.T) {
	tests := []struct {
		name     string
		event    domain.Event
		expected *time.Time
	}{
		{
			name: "topaz expiration is in microseconds",
			event: domain.Event{Type: "0x2c7b::events::ListEvent", Data: json.RawMessage(
				`{"token":"0x70","collection":"0xc0","price":"1","seller":"0x5e","expires":"1709294400000000"}`)},
			expected: ptrTime(time.Unix(1709294400, 0).UTC()),
		},
		{
			name: "rarible expiration is in seconds",
			event: domain.Event{Type: "0x7a7a::events::ListEvent", Data: json.RawMessage(
				`{"token":"0x70","collection":"0xc0","price":"1","seller":"0x5e","expires":"1709294400"}`)},
			expected: ptrTime(time.Unix(1709294400, 0).UTC()),
		},
		{
			name: "start time plus duration in milliseconds",
			event: domain.Event{Type: "0x2c7b::events::CollectionBidEvent", Data: json.RawMessage(
				`{"collection":"0xc0","price":"1","bidder":"0xb1","amount":"3","start":"1709294400000","duration":"60000"}`)},
			expected: ptrTime(time.Unix(1709294460, 0).UTC()),
		},
		{
			name: "no expiration",
			event: domain.Event{Type: "0x2c7b::events::ListEvent", Data: json.RawMessage(
				`{"token":"0x70","collection":"0xc0","price":"1","seller":"0x5e"}`)},
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			drafts := draftsOf(t, testTx(100, tt.event))
			require.Len(t, drafts, 1)

			got := expiration(drafts[0])
			if tt.expected == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.True(t, tt.expected.Equal(*got), "expected %s, got %s", tt.expected, got)
		})
	}
}

func TestReduce_Bids(t *testing.T) {
	r := reducer{jcs: adapter.NewJCS()}

	tx := testTx(200,
		event(t, "0x2c7b::events::BidEvent", map[string]any{
			"token": "0x70", "collection": "0xc0", "price": "100", "bidder": "0xb1", "offer_id": "42",
		}),
		event(t, "0x2c7b::events::AcceptBidEvent", map[string]any{
			"token": "0x70", "collection": "0xc0", "price": "100", "bidder": "0xb1", "seller": "0x5e",
		}),
		event(t, "0x2c7b::events::CollectionBidEvent", map[string]any{
			"collection": "0xc0", "price": "90", "bidder": "0xb1", "amount": "5",
		}),
	)

	reduction := r.reduce(draftsOf(t, tx), nil)
	require.Len(t, reduction.Bids, 3)

	solo := reduction.Bids[0]
	assert.Equal(t, domain.BidID(topazContract, testToken, testBuyer), solo.ID)
	assert.Equal(t, string(domain.BidTypeSolo), solo.BidType)
	assert.Equal(t, string(domain.BidStatusActive), solo.Status)
	assert.Equal(t, "42", *solo.Nonce)
	assert.Equal(t, "0xhash", *solo.CreatedTxID)
	assert.Nil(t, solo.AcceptedTxID)

	accepted := reduction.Bids[1]
	assert.Equal(t, solo.ID, accepted.ID)
	assert.Equal(t, string(domain.BidStatusMatched), accepted.Status)
	assert.Equal(t, testSeller, *accepted.Receiver)
	assert.Equal(t, "0xhash", *accepted.AcceptedTxID)
	assert.Greater(t, accepted.TxIndex, solo.TxIndex)

	collection := reduction.Bids[2]
	assert.Equal(t, domain.BidID(topazContract, testCollection, testBuyer), collection.ID)
	assert.Equal(t, string(domain.BidTypeCollection), collection.BidType)
	assert.Nil(t, collection.NFTID)
	assert.Equal(t, int64(5), *collection.RemainingCount)

	// only the accepted bid is a sale
	delta := reduction.Delta(reduction.Activities)
	assert.Equal(t, int64(1), delta.Sales[testCollection].Count)
	assert.Empty(t, reduction.Listings)
}

func TestReduce_MintAndBurn(t *testing.T) {
	r := reducer{jcs: adapter.NewJCS()}

	tx := testTx(300,
		event(t, "0x9a9a::events::MintEvent", map[string]any{
			"token": "0x70", "collection": "0xc0", "name": "Ape #1", "uri": "ipfs://bafy/1.json", "receiver": "0xb1",
		}),
		event(t, "0x9a9a::events::BurnEvent", map[string]any{
			"token": "0x70", "collection": "0xc0",
		}),
	)

	reduction := r.reduce(draftsOf(t, tx), nil)
	require.Len(t, reduction.NFTs, 2)

	mint := reduction.NFTs[0]
	assert.Equal(t, "Ape #1", *mint.Name)
	assert.Equal(t, "ipfs://bafy/1.json", *mint.URI)
	assert.Equal(t, testBuyer, *mint.Owner)

	burn := reduction.NFTs[1]
	assert.True(t, burn.Burned)
	assert.Nil(t, burn.Owner)
	assert.Greater(t, *burn.OwnerTxIndex, *mint.OwnerTxIndex)

	assert.Len(t, reduction.Collections, 1)
	assert.Empty(t, reduction.Listings)
	assert.Empty(t, reduction.Bids)
	assert.Empty(t, reduction.Delta(reduction.Activities).Sales)
}

func TestReduce_MintTakesReceiverFromDeposit(t *testing.T) {
	r := reducer{jcs: adapter.NewJCS()}

	tx := testTx(310,
		event(t, "0x9a9a::events::LaunchpadMintEvent", map[string]any{"token": "0x70", "collection": "0xc0"}),
		event(t, "0x3::token::TokenDeposit", map[string]any{"token": "0x70", "collection": "0xc0", "account": "0xb1"}),
		event(t, "0x3::token::TokenDeposit", map[string]any{"token": "0x71", "collection": "0xc0", "account": "0x5e"}),
	)
	tx.Changes = []domain.WriteSetChange{
		{
			Kind:         domain.ChangeKindWriteResource,
			Address:      "0x70",
			ResourceType: "0x4::royalty::Royalty",
			Data:         json.RawMessage(`{"numerator":"5","denominator":"100","payee_address":"0xa"}`),
		},
	}

	reduction := r.reduce(draftsOf(t, tx), nil)
	require.Len(t, reduction.Activities, 3)

	mint := reduction.Activities[0]
	assert.Equal(t, string(domain.EventTypeMint), mint.TxType)
	require.NotNil(t, mint.Receiver)
	assert.Equal(t, testBuyer, *mint.Receiver)
	// the deposit is attributed to the marketplace that declared it
	assert.Equal(t, domain.StandardizeAddress("0x9a9a"), reduction.Activities[1].MarketContractID)

	require.Len(t, reduction.NFTs, 3)
	minted := reduction.NFTs[0]
	require.NotNil(t, minted.Owner)
	assert.Equal(t, testBuyer, *minted.Owner)
	require.NotNil(t, minted.Royalty)
	assert.True(t, minted.Royalty.Equal(decimal.RequireFromString("0.05")))
	assert.Nil(t, reduction.NFTs[2].Royalty)
}

func TestReduce_MintKeepsItsOwnReceiver(t *testing.T) {
	r := reducer{jcs: adapter.NewJCS()}

	tx := testTx(320,
		event(t, "0x9a9a::events::MintEvent", map[string]any{"token": "0x70", "collection": "0xc0", "receiver": "0xb1"}),
		event(t, "0x3::token::TokenDeposit", map[string]any{"token": "0x70", "collection": "0xc0", "account": "0x5e"}),
	)

	reduction := r.reduce(draftsOf(t, tx), nil)
	require.Len(t, reduction.Activities, 2)
	assert.Equal(t, testBuyer, *reduction.Activities[0].Receiver)
}

func TestReduce_MarketplaceActivityID(t *testing.T) {
	r := reducer{jcs: adapter.NewJCS()}
	drafts := draftsOf(t, testTx(100, buyEvent(t)))
	require.Len(t, drafts, 1)
	require.True(t, drafts[0].Set(registry.FieldActivityID, "offer-7"))

	reduction := r.reduce(drafts, nil)
	assert.Equal(t, domain.MarketplaceActivityID(topazContract, "offer-7"), reduction.Activities[0].ID)
}

func TestUSDValue(t *testing.T) {
	price := decimal.NewFromInt(150_000_000)
	rate := decimal.RequireFromString("6.5")

	got := usdValue(&price, &rate)
	require.NotNil(t, got)
	assert.True(t, got.Equal(decimal.RequireFromString("9.75")))
	assert.Nil(t, usdValue(nil, &rate))
	assert.Nil(t, usdValue(&price, nil))
}

func ptrTime(t time.Time) *time.Time {
	return &t
}
