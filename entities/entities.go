package entities

import "time"

const DateLayout = "2006-01-02"

type Quote struct {
	Symbol             string  `json:"symbol"`
	CurrentPrice       float64 `json:"currentPrice"`
	PreviousClose      float64 `json:"previousClose"`
	DailyChange        float64 `json:"dailyChange"`
	DailyChangePercent float64 `json:"dailyChangePercent"`
}

// PriceUpdate is the slim quote pushed to subscribers of a user's open lots.
type PriceUpdate struct {
	Symbol             string  `json:"symbol"`
	CurrentPrice       float64 `json:"currentPrice"`
	DailyChangePercent float64 `json:"dailyChangePercent"`
}

type Summary struct {
	Invested       float64 `json:"invested"`
	TotalPL        float64 `json:"totalPL"`
	TotalPLPercent float64 `json:"totalPLPercent"`
	OpenCount      int     `json:"openCount"`
	ClosedCount    int     `json:"closedCount"`
}

type HistoryItem struct {
	Date  string  `json:"date"`
	Value float64 `json:"value"`
}

type Article struct {
	Title       string `json:"title"`
	Source      string `json:"source"`
	URL         string `json:"url"`
	PublishedAt string `json:"publishedAt"`
}

// HistoryRequest is the body of an asynchronous history calculation.
type HistoryRequest struct {
	UserID int64 `json:"userId"`
	Months int   `json:"months"`
}

type HistoryReply struct {
	Items []HistoryItem `json:"items"`
	Error string        `json:"error,omitempty"`
}

type Health struct {
	Status string `json:"status"`
	Origin string `json:"origin"`
}

// QuoteUpdates projects full quotes to the fields pushed by the price poller.
func QuoteUpdates(quotes []Quote) []PriceUpdate {
	updates := make([]PriceUpdate, 0, len(quotes))
	for _, q := range quotes {
		updates = append(updates, PriceUpdate{
			Symbol:             q.Symbol,
			CurrentPrice:       q.CurrentPrice,
			DailyChangePercent: q.DailyChangePercent,
		})
	}

	return updates
}

func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}
