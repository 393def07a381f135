package market

// Unavailable marks quote fields the data source did not provide.
const Unavailable = "N/A"

// NoSummary stands in when a company has no business summary on file.
const NoSummary = "No business summary available."

// Snapshot pins a chat session's market context to one stock. Numeric
// fields are carried as display strings so missing data keeps its
// sentinel all the way to the frontend.
type Snapshot struct {
	Symbol           string `json:"symbol"`
	DisplayName      string `json:"displayName"`
	Sector           string `json:"sector"`
	CurrentPrice     string `json:"currentPrice"`
	FiftyTwoWeekLow  string `json:"fiftyTwoWeekLow"`
	FiftyTwoWeekHigh string `json:"fiftyTwoWeekHigh"`
	BusinessSummary  string `json:"businessSummary"`
	MarketCap        string `json:"marketCap"`
}

// New returns a snapshot for symbol with every data field set to its
// sentinel.
func New(symbol string) Snapshot {
	return Snapshot{
		Symbol:           symbol,
		DisplayName:      symbol,
		Sector:           Unavailable,
		CurrentPrice:     Unavailable,
		FiftyTwoWeekLow:  Unavailable,
		FiftyTwoWeekHigh: Unavailable,
		BusinessSummary:  NoSummary,
		MarketCap:        Unavailable,
	}
}
