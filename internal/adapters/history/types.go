package history

import (
	"fmt"
	"time"

	"github.com/alejandrodnm/simtrader/internal/domain"
)

// Wire types for the chart and search endpoints. Numeric arrays can carry
// nulls for untraded sessions, hence the pointer elements.

type chartResponse struct {
	Chart struct {
		Result []chartResult `json:"result"`
		Error  *apiError     `json:"error"`
	} `json:"chart"`
}

type apiError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

type chartResult struct {
	Meta struct {
		Currency           string  `json:"currency"`
		ExchangeName       string  `json:"exchangeName"`
		ChartPreviousClose float64 `json:"chartPreviousClose"`
	} `json:"meta"`
	Timestamp  []int64 `json:"timestamp"`
	Indicators struct {
		Quote []quoteArrays `json:"quote"`
	} `json:"indicators"`
}

type quoteArrays struct {
	Open   []*float64 `json:"open"`
	High   []*float64 `json:"high"`
	Low    []*float64 `json:"low"`
	Close  []*float64 `json:"close"`
	Volume []*float64 `json:"volume"`
}

func (r chartResult) toSeries(symbol string) (*domain.HistorySeries, error) {
	if len(r.Indicators.Quote) == 0 {
		return nil, fmt.Errorf("no quote arrays in result")
	}
	q := r.Indicators.Quote[0]
	if len(r.Timestamp) == 0 {
		return nil, fmt.Errorf("no timestamps in result")
	}

	bars := make([]domain.Bar, 0, len(r.Timestamp))
	for i, ts := range r.Timestamp {
		o, h, l, c := deref(q.Open, i), deref(q.High, i), deref(q.Low, i), deref(q.Close, i)
		if c == nil || o == nil || h == nil || l == nil {
			continue // untraded session
		}
		v := 0.0
		if vol := deref(q.Volume, i); vol != nil {
			v = *vol
		}
		bars = append(bars, domain.Bar{
			Day:    len(bars),
			Date:   time.Unix(ts, 0).UTC(),
			Open:   *o,
			High:   *h,
			Low:    *l,
			Close:  *c,
			Volume: v,
		})
	}

	return &domain.HistorySeries{
		Symbol:        symbol,
		Exchange:      r.Meta.ExchangeName,
		Currency:      r.Meta.Currency,
		PreviousClose: r.Meta.ChartPreviousClose,
		Bars:          bars,
	}, nil
}

func deref(xs []*float64, i int) *float64 {
	if i >= len(xs) {
		return nil
	}
	return xs[i]
}

type searchResponse struct {
	Quotes []struct {
		Symbol    string `json:"symbol"`
		ShortName string `json:"shortname"`
		LongName  string `json:"longname"`
		Exchange  string `json:"exchange"`
		QuoteType string `json:"quoteType"`
	} `json:"quotes"`
}
