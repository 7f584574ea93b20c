package tools

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/scttfrdmn/econflux/econflux-go/econflux"
	"github.com/scttfrdmn/econflux/econflux-go/synth"
)

// Mock market data constants.
const (
	DefaultCurrency = "USD"
	DefaultExchange = "NASDAQ"
	DefaultPeriod   = "5d"
	DefaultInterval = "1d"

	historyLength = 5
	isoUTCFormat  = "2006-01-02T15:04:05.000000Z"
)

// MarketData serves synthetic quotes, price history and earnings. Values
// change on every call and are unsuitable for trading or analysis.
type MarketData struct {
	rng *synth.Rand
	now func() time.Time
}

// MarketOption configures MarketData.
type MarketOption func(*MarketData)

// WithMarketRand sets the random source.
func WithMarketRand(r *synth.Rand) MarketOption {
	return func(m *MarketData) { m.rng = r }
}

// WithMarketClock sets the clock used for timestamps and calendar dates.
func WithMarketClock(now func() time.Time) MarketOption {
	return func(m *MarketData) { m.now = now }
}

// NewMarketData creates a mock market data source.
func NewMarketData(opts ...MarketOption) *MarketData {
	m := &MarketData{
		rng: synth.NewRand(0),
		now: time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Quote is a latest stock quote.
type Quote struct {
	Ticker        string  `json:"ticker"`
	Price         float64 `json:"price"`
	Currency      string  `json:"currency"`
	PreviousClose float64 `json:"previous_close"`
	Exchange      string  `json:"exchange"`
	Timestamp     string  `json:"timestamp"`
}

// Candle is one OHLCV entry.
type Candle struct {
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume int     `json:"volume"`
}

// PriceHistory is a fixed-length OHLCV series keyed day_1..day_5.
type PriceHistory struct {
	Ticker   string            `json:"ticker"`
	Period   string            `json:"period"`
	Interval string            `json:"interval"`
	History  map[string]Candle `json:"history"`
}

// EarningsFigures holds reported and estimated results.
type EarningsFigures struct {
	EPSActual       float64 `json:"eps_actual"`
	EPSEstimate     float64 `json:"eps_estimate"`
	RevenueActual   int64   `json:"revenue_actual"`
	RevenueEstimate int64   `json:"revenue_estimate"`
}

// EarningsCalendar holds the next reporting date.
type EarningsCalendar struct {
	NextEarningsDate string `json:"next_earnings_date"`
}

// Earnings is an earnings snapshot.
type Earnings struct {
	Ticker   string           `json:"ticker"`
	Calendar EarningsCalendar `json:"calendar"`
	Earnings EarningsFigures  `json:"earnings"`
}

// ReportSummary condenses the quote inside a stock report.
type ReportSummary struct {
	LatestPrice   float64 `json:"latest_price"`
	PreviousClose float64 `json:"previous_close"`
	Currency      string  `json:"currency"`
	Exchange      string  `json:"exchange"`
}

// StockReport combines a quote, history and earnings.
type StockReport struct {
	Ticker      string            `json:"ticker"`
	Summary     ReportSummary     `json:"summary"`
	History     map[string]Candle `json:"history"`
	Earnings    EarningsFigures   `json:"earnings"`
	Calendar    EarningsCalendar  `json:"calendar"`
	GeneratedAt string            `json:"generated_at"`
}

// NormalizeTicker trims and upper-cases a symbol. An empty symbol is a
// validation error.
func NormalizeTicker(ticker string) (string, error) {
	t := strings.ToUpper(strings.TrimSpace(ticker))
	if t == "" {
		return "", econflux.NewValidationError("ticker", "must not be empty")
	}
	return t, nil
}

func (m *MarketData) timestamp() string {
	return m.now().UTC().Format(isoUTCFormat)
}

// Quote returns a mock latest quote. The previous close is always below
// the price.
func (m *MarketData) Quote(ticker string) (Quote, error) {
	t, err := NormalizeTicker(ticker)
	if err != nil {
		return Quote{}, err
	}
	price := synth.Round(m.rng.Uniform(50, 500), 2)
	previous := synth.Round(price*m.rng.Uniform(0.97, 0.999), 2)
	return Quote{
		Ticker:        t,
		Price:         price,
		Currency:      DefaultCurrency,
		PreviousClose: previous,
		Exchange:      DefaultExchange,
		Timestamp:     m.timestamp(),
	}, nil
}

// History returns five mock daily candles. Period and interval are echoed
// back and do not change the number of entries.
func (m *MarketData) History(ticker, period, interval string) (PriceHistory, error) {
	t, err := NormalizeTicker(ticker)
	if err != nil {
		return PriceHistory{}, err
	}
	if period == "" {
		period = DefaultPeriod
	}
	if interval == "" {
		interval = DefaultInterval
	}

	history := make(map[string]Candle, historyLength)
	for i := 0; i < historyLength; i++ {
		base := synth.Round(m.rng.Uniform(50, 500), 2)
		history[fmt.Sprintf("day_%d", i+1)] = Candle{
			Open:   base,
			High:   synth.Round(base*m.rng.Uniform(1.00, 1.03), 2),
			Low:    synth.Round(base*m.rng.Uniform(0.97, 1.00), 2),
			Close:  synth.Round(base*m.rng.Uniform(0.98, 1.02), 2),
			Volume: m.rng.Int(1_000_000, 5_000_000),
		}
	}

	return PriceHistory{Ticker: t, Period: period, Interval: interval, History: history}, nil
}

// Earnings returns a mock earnings snapshot with a next reporting date 10
// to 60 days ahead.
func (m *MarketData) Earnings(ticker string) (Earnings, error) {
	t, err := NormalizeTicker(ticker)
	if err != nil {
		return Earnings{}, err
	}
	next := m.now().UTC().AddDate(0, 0, m.rng.Int(10, 60))
	return Earnings{
		Ticker:   t,
		Calendar: EarningsCalendar{NextEarningsDate: synth.FormatDate(next)},
		Earnings: EarningsFigures{
			EPSActual:       synth.Round(m.rng.Uniform(0.5, 4.0), 2),
			EPSEstimate:     synth.Round(m.rng.Uniform(0.5, 4.0), 2),
			RevenueActual:   int64(m.rng.Int(5_000_000_000, 50_000_000_000)),
			RevenueEstimate: int64(m.rng.Int(5_000_000_000, 50_000_000_000)),
		},
	}, nil
}

// Report combines one quote, one history and one earnings draw.
func (m *MarketData) Report(ticker, period string) (StockReport, error) {
	quote, err := m.Quote(ticker)
	if err != nil {
		return StockReport{}, err
	}
	history, err := m.History(ticker, period, "")
	if err != nil {
		return StockReport{}, err
	}
	earnings, err := m.Earnings(ticker)
	if err != nil {
		return StockReport{}, err
	}

	return StockReport{
		Ticker: quote.Ticker,
		Summary: ReportSummary{
			LatestPrice:   quote.Price,
			PreviousClose: quote.PreviousClose,
			Currency:      quote.Currency,
			Exchange:      quote.Exchange,
		},
		History:     history.History,
		Earnings:    earnings.Earnings,
		Calendar:    earnings.Calendar,
		GeneratedAt: m.timestamp(),
	}, nil
}

// TickerParams are the inputs of the quote and earnings tools.
type TickerParams struct {
	Ticker string `json:"ticker" jsonschema:"description=Stock symbol (case-insensitive). It is uppercased for the response."`
}

// HistoryParams are the inputs of get_price_history.
type HistoryParams struct {
	Ticker   string `json:"ticker" jsonschema:"description=Stock symbol (case-insensitive). It is uppercased for the response."`
	Period   string `json:"period,omitempty" jsonschema:"description=Label for the requested period (informational only).,default=5d"`
	Interval string `json:"interval,omitempty" jsonschema:"description=Label for the requested interval (informational only).,default=1d"`
}

// ReportParams are the inputs of generate_stock_report.
type ReportParams struct {
	Ticker string `json:"ticker" jsonschema:"description=Stock symbol (case-insensitive). It is uppercased for the response."`
	Period string `json:"period,omitempty" jsonschema:"description=Label passed through to the history section of the report.,default=5d"`
}

// Tools returns the four market tools backed by m.
func (m *MarketData) Tools() []econflux.Tool {
	return []econflux.Tool{
		MustFunctionTool("get_stock_price",
			"Return a mock latest stock quote (price, currency, previous close, exchange). "+
				"Use when you need an example quote without calling real market data. "+
				"Values are randomly generated per call and unsuitable for trading/analysis.",
			func(_ context.Context, p TickerParams) (Quote, error) {
				return m.Quote(p.Ticker)
			}),
		MustFunctionTool("get_price_history",
			"Return a mock OHLCV (Open, High, Low, Close, Volume) history with five synthetic periods. "+
				"Use for placeholder history when real data is unavailable. "+
				"period and interval are informational only; five entries are always generated.",
			func(_ context.Context, p HistoryParams) (PriceHistory, error) {
				return m.History(p.Ticker, p.Period, p.Interval)
			}),
		MustFunctionTool("get_earnings",
			"Return a mock earnings snapshot and next earnings date for a ticker. "+
				"Use for placeholder fundamentals without hitting external services.",
			func(_ context.Context, p TickerParams) (Earnings, error) {
				return m.Earnings(p.Ticker)
			}),
		MustFunctionTool("generate_stock_report",
			"Generate a compact mock stock report combining quote, history, and earnings. "+
				"Use when you want one payload summarizing the mock market data tools.",
			func(_ context.Context, p ReportParams) (StockReport, error) {
				return m.Report(p.Ticker, p.Period)
			}),
	}
}
