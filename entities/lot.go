package entities

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

var ErrInconsistentSale = errors.New("sell price and sell date must be set together")

type LotStatus string

const (
	LotStatusOpen   LotStatus = "open"
	LotStatusClosed LotStatus = "closed"
)

func ParseLotStatus(s string) (LotStatus, error) {
	switch LotStatus(strings.ToLower(strings.TrimSpace(s))) {
	case "", LotStatusOpen:
		return LotStatusOpen, nil
	case LotStatusClosed:
		return LotStatusClosed, nil
	default:
		return "", fmt.Errorf("unknown lot status %q", s)
	}
}

// Sale is the disposal of a lot. Price and date only exist together.
type Sale struct {
	Price float64   `json:"sellPrice"`
	Date  time.Time `json:"sellDate"`
}

// Lot is one acquisition of a quantity of a ticker, possibly sold since.
type Lot struct {
	ID       int64     `json:"id"`
	UserID   int64     `json:"userId"`
	Ticker   string    `json:"ticker"`
	Quantity float64   `json:"quantity"`
	BuyPrice float64   `json:"buyPrice"`
	BuyDate  time.Time `json:"buyDate"`
	Sale     *Sale     `json:"-"`
}

// lotJSON is the wire form of a Lot: sale fields are flat and null while the
// lot is open.
type lotJSON struct {
	ID        int64      `json:"id"`
	UserID    int64      `json:"userId"`
	Ticker    string     `json:"ticker"`
	Quantity  float64    `json:"quantity"`
	BuyPrice  float64    `json:"buyPrice"`
	BuyDate   time.Time  `json:"buyDate"`
	SellPrice *float64   `json:"sellPrice"`
	SellDate  *time.Time `json:"sellDate"`
}

func (l Lot) MarshalJSON() ([]byte, error) {
	out := lotJSON{
		ID:       l.ID,
		UserID:   l.UserID,
		Ticker:   l.Ticker,
		Quantity: l.Quantity,
		BuyPrice: l.BuyPrice,
		BuyDate:  l.BuyDate,
	}
	if l.Sale != nil {
		out.SellPrice = &l.Sale.Price
		out.SellDate = &l.Sale.Date
	}

	return json.Marshal(out)
}

func (l *Lot) UnmarshalJSON(data []byte) error {
	var in lotJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}

	sale, err := NewSale(in.SellPrice, in.SellDate)
	if err != nil {
		return err
	}

	*l = Lot{
		ID:       in.ID,
		UserID:   in.UserID,
		Ticker:   in.Ticker,
		Quantity: in.Quantity,
		BuyPrice: in.BuyPrice,
		BuyDate:  in.BuyDate,
		Sale:     sale,
	}
	return nil
}

func (l Lot) Closed() bool { return l.Sale != nil }

// SoldBy reports whether the lot was sold on or before t.
func (l Lot) SoldBy(t time.Time) bool {
	return l.Sale != nil && !l.Sale.Date.After(t)
}

// NewSale builds the optional sale of a stored row. Rows carrying only one
// of the two columns are rejected.
func NewSale(price *float64, date *time.Time) (*Sale, error) {
	switch {
	case price == nil && date == nil:
		return nil, nil
	case price == nil || date == nil:
		return nil, ErrInconsistentSale
	}

	return &Sale{Price: *price, Date: *date}, nil
}

// PartitionLots splits lots into open and closed ones, keeping their order.
func PartitionLots(lots []Lot) (open, closed []Lot) {
	for _, l := range lots {
		if l.Closed() {
			closed = append(closed, l)
		} else {
			open = append(open, l)
		}
	}

	return open, closed
}

// Tickers returns the distinct tickers of lots, sorted.
func Tickers(lots []Lot) []string {
	seen := make(map[string]struct{}, len(lots))
	tickers := make([]string, 0, len(lots))
	for _, l := range lots {
		if _, ok := seen[l.Ticker]; ok {
			continue
		}
		seen[l.Ticker] = struct{}{}
		tickers = append(tickers, l.Ticker)
	}
	sort.Strings(tickers)

	return tickers
}
