package market

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/eshu30/AI-Stockbot/internal/config"
	"github.com/eshu30/AI-Stockbot/internal/model/market"
)

// ErrSymbolNotFound reports a ticker the data source knows nothing
// useful about.
var ErrSymbolNotFound = errors.New("symbol not found or data unavailable")

const quoteModules = "price,summaryProfile,summaryDetail,financialData"

// Client fetches stock snapshots from a Yahoo-compatible quoteSummary
// endpoint.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient builds a lookup client for the configured data source.
func NewClient(cfg config.MarketConfig) *Client {
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// decimalValue is the {"raw": ...} wrapper quote fields arrive in. A
// nil Raw means the source omitted the field.
type decimalValue struct {
	Raw *decimal.Decimal `json:"raw"`
}

func (v decimalValue) display() string {
	if v.Raw == nil {
		return market.Unavailable
	}
	return v.Raw.String()
}

type quoteSummaryResponse struct {
	QuoteSummary struct {
		Result []quoteResult `json:"result"`
		Error  *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"quoteSummary"`
}

type quoteResult struct {
	Price struct {
		ShortName          string       `json:"shortName"`
		RegularMarketPrice decimalValue `json:"regularMarketPrice"`
		MarketCap          decimalValue `json:"marketCap"`
	} `json:"price"`
	SummaryProfile struct {
		Sector              string `json:"sector"`
		LongBusinessSummary string `json:"longBusinessSummary"`
	} `json:"summaryProfile"`
	SummaryDetail struct {
		FiftyTwoWeekLow  decimalValue `json:"fiftyTwoWeekLow"`
		FiftyTwoWeekHigh decimalValue `json:"fiftyTwoWeekHigh"`
	} `json:"summaryDetail"`
	FinancialData struct {
		CurrentPrice decimalValue `json:"currentPrice"`
	} `json:"financialData"`
}

// Lookup fetches a snapshot for symbol. Symbols are case-insensitive.
// Missing optional fields come back as sentinels, but a quote carrying
// no price at all counts as not found.
func (c *Client) Lookup(ctx context.Context, symbol string) (market.Snapshot, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return market.Snapshot{}, fmt.Errorf("lookup: %w", ErrSymbolNotFound)
	}

	endpoint := fmt.Sprintf("%s/v10/finance/quoteSummary/%s?modules=%s",
		c.baseURL, url.PathEscape(symbol), quoteModules)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return market.Snapshot{}, fmt.Errorf("build quote request: %w", err)
	}
	// The public endpoint rejects requests without a browser-ish agent.
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; stockbot/1.0)")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return market.Snapshot{}, fmt.Errorf("fetch quote for %s: %w", symbol, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return market.Snapshot{}, fmt.Errorf("read quote response: %w", err)
	}

	if resp.StatusCode == http.StatusNotFound {
		return market.Snapshot{}, fmt.Errorf("lookup %s: %w", symbol, ErrSymbolNotFound)
	}
	if resp.StatusCode != http.StatusOK {
		return market.Snapshot{}, fmt.Errorf("quote request for %s failed: status %d", symbol, resp.StatusCode)
	}

	var parsed quoteSummaryResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return market.Snapshot{}, fmt.Errorf("decode quote response: %w", err)
	}
	if parsed.QuoteSummary.Error != nil || len(parsed.QuoteSummary.Result) == 0 {
		return market.Snapshot{}, fmt.Errorf("lookup %s: %w", symbol, ErrSymbolNotFound)
	}

	result := parsed.QuoteSummary.Result[0]
	if result.Price.RegularMarketPrice.Raw == nil && result.FinancialData.CurrentPrice.Raw == nil {
		return market.Snapshot{}, fmt.Errorf("lookup %s: %w", symbol, ErrSymbolNotFound)
	}

	snap := market.New(symbol)
	if result.Price.ShortName != "" {
		snap.DisplayName = result.Price.ShortName
	}
	if result.FinancialData.CurrentPrice.Raw != nil {
		snap.CurrentPrice = result.FinancialData.CurrentPrice.Raw.String()
	} else {
		snap.CurrentPrice = result.Price.RegularMarketPrice.Raw.String()
	}
	if result.SummaryProfile.Sector != "" {
		snap.Sector = result.SummaryProfile.Sector
	}
	if result.SummaryProfile.LongBusinessSummary != "" {
		snap.BusinessSummary = result.SummaryProfile.LongBusinessSummary
	}
	snap.FiftyTwoWeekLow = result.SummaryDetail.FiftyTwoWeekLow.display()
	snap.FiftyTwoWeekHigh = result.SummaryDetail.FiftyTwoWeekHigh.display()
	snap.MarketCap = result.Price.MarketCap.display()

	return snap, nil
}
