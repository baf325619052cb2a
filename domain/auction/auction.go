package auction

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/x-xyz/auctionproxy/base/ctx"
	"github.com/x-xyz/auctionproxy/domain"
)

type State string

const (
	StateCreated State = "created"
	StateActive  State = "active"
	StateEnded   State = "ended"
)

// CurrencyMode tells which comparison path produced the current highest bid.
// CurrencyNative is the zero value so records written before oracle bidding
// existed read as native bids.
type CurrencyMode int8

const (
	CurrencyNative CurrencyMode = iota
	CurrencyOracle
)

var currencyModeNames = map[CurrencyMode]string{
	CurrencyNative: "native",
	CurrencyOracle: "oracle",
}

func (m CurrencyMode) String() string {
	if s, ok := currencyModeNames[m]; ok {
		return s
	}
	return fmt.Sprintf("CurrencyMode(%d)", int8(m))
}

func ParseCurrencyMode(s string) (CurrencyMode, error) {
	for m, name := range currencyModeNames {
		if strings.EqualFold(name, s) {
			return m, nil
		}
	}
	return 0, fmt.Errorf("unknown currency %q: %w", s, domain.ErrBadParamInput)
}

func (m CurrencyMode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *CurrencyMode) UnmarshalText(b []byte) error {
	v, err := ParseCurrencyMode(string(b))
	if err != nil {
		return err
	}
	*m = v
	return nil
}

// Schema identifies the layout that last wrote a record.
const (
	SchemaV1 uint8 = 1
	SchemaV2 uint8 = 2
)

type AssetRef struct {
	Collection domain.Address `json:"collection"`
	TokenId    domain.TokenId `json:"tokenId"`
}

func (a AssetRef) String() string {
	return a.Collection.ToLowerStr() + "/" + a.TokenId.String()
}

func (a AssetRef) Equals(b AssetRef) bool {
	return a.Collection.Equals(b.Collection) && a.TokenId == b.TokenId
}

// LayoutV1 is the record layout written by the first implementation.
// Fields may never be removed, reordered or retyped; later versions append
// their fields after it in Auction.
type LayoutV1 struct {
	Id            uint64           `json:"id"`
	Seller        domain.Address   `json:"seller"`
	Asset         AssetRef         `json:"asset"`
	StartPrice    decimal.Decimal  `json:"startPrice"`
	Duration      time.Duration    `json:"duration"`
	StartTime     time.Time        `json:"startTime"`
	HighestBid    *decimal.Decimal `json:"highestBid,omitempty"`
	HighestBidder *domain.Address  `json:"highestBidder,omitempty"`
	Ended         bool             `json:"ended"`
}

type Auction struct {
	LayoutV1

	// appended by V2
	BidCurrencyMode CurrencyMode `json:"bidCurrencyMode"`
	Schema          uint8        `json:"schema"`
	// HighestBidAmount is the native amount escrowed for the highest bid.
	// Absent on records written by V1, where it equals HighestBid.
	HighestBidAmount *decimal.Decimal `json:"highestBidAmount,omitempty"`

	// Revision is bumped on every write, compare-and-swap relies on it
	Revision uint64 `json:"revision"`
}

func (a *Auction) State() State {
	switch {
	case a.Ended:
		return StateEnded
	case a.HighestBid != nil:
		return StateActive
	default:
		return StateCreated
	}
}

// Threshold is the value a new bid has to strictly exceed.
func (a *Auction) Threshold() decimal.Decimal {
	if a.HighestBid != nil && a.HighestBid.GreaterThan(a.StartPrice) {
		return *a.HighestBid
	}
	return a.StartPrice
}

// EndsAt is advisory, nothing ends an auction except an explicit End call.
func (a *Auction) EndsAt() time.Time {
	return a.StartTime.Add(a.Duration)
}

func (a *Auction) Clone() *Auction {
	cp := *a
	if a.HighestBid != nil {
		bid := *a.HighestBid
		cp.HighestBid = &bid
	}
	if a.HighestBidder != nil {
		bidder := *a.HighestBidder
		cp.HighestBidder = &bidder
	}
	if a.HighestBidAmount != nil {
		amount := *a.HighestBidAmount
		cp.HighestBidAmount = &amount
	}
	return &cp
}

// Escrowed is what the current highest bidder paid in native units.
func (a *Auction) Escrowed() (decimal.Decimal, bool) {
	switch {
	case a.HighestBidAmount != nil:
		return *a.HighestBidAmount, true
	case a.HighestBid != nil:
		return *a.HighestBid, true
	default:
		return decimal.Zero, false
	}
}

type CreateParams struct {
	Seller     domain.Address
	Asset      AssetRef
	Duration   time.Duration
	StartPrice decimal.Decimal
}

type BidParams struct {
	AuctionId uint64
	Bidder    domain.Address
	Amount    decimal.Decimal
	Currency  CurrencyMode
}

// Mutation changes a copy of the stored record. Returning an error aborts
// the update without writing anything.
type Mutation func(*Auction) error

// Repo is the auction ledger, the only owner of auction state.
type Repo interface {
	// Create stores a and returns its newly assigned sequential id.
	// An asset is listed in at most one open auction, a second listing
	// fails with domain.ErrAlreadyExists.
	Create(c ctx.Ctx, a *Auction) (uint64, error)
	// Get returns domain.ErrNotFound for unknown ids
	Get(c ctx.Ctx, id uint64) (*Auction, error)
	// FindOpen returns the auction holding asset that has not ended yet,
	// domain.ErrNotFound if there is none
	FindOpen(c ctx.Ctx, asset AssetRef) (*Auction, error)
	// Update applies mutate and writes only if nobody else wrote the record
	// in between, otherwise domain.ErrConflict
	Update(c ctx.Ctx, id uint64, mutate Mutation) (*Auction, error)
}

// Usecase is the surface callers reach through the proxy address.
type Usecase interface {
	CreateAuction(c ctx.Ctx, p CreateParams) (*Auction, error)
	Bid(c ctx.Ctx, p BidParams) (*Auction, error)
	End(c ctx.Ctx, caller domain.Address, id uint64) (*Auction, error)
	Auction(c ctx.Ctx, id uint64) (*Auction, error)
}

// Logic is one installable implementation version.
type Logic interface {
	Usecase
	SupportsOracle() bool
}
