package model

// Payload is one of the two upstream quote shapes. The set of implementations is closed:
// GenericPayload and ChartEnvelope.
type Payload interface {
	payload()
}

// Quote holds the parallel OHLCV arrays. A nil element is a JSON null in the source.
type Quote struct {
	Open   []*float64 `json:"open"`
	High   []*float64 `json:"high"`
	Low    []*float64 `json:"low"`
	Close  []*float64 `json:"close"`
	Volume []*float64 `json:"volume"`
}

// Indicators wraps the quote list as delivered by the provider.
type Indicators struct {
	Quote []Quote `json:"quote"`
}

// QuoteSeries is a timestamp array plus index-aligned quote arrays.
type QuoteSeries struct {
	Timestamp  []int64    `json:"timestamp"`
	Indicators Indicators `json:"indicators"`
}

// GenericPayload is the flat shape: timestamp and indicators at the top level.
type GenericPayload struct {
	QuoteSeries
}

// ChartError is the provider's error object inside the chart envelope.
type ChartError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

// ChartEnvelope is the provider chart response with the series nested under chart.result[0].
type ChartEnvelope struct {
	Chart struct {
		Result []QuoteSeries `json:"result"`
		Error  *ChartError   `json:"error"`
	} `json:"chart"`
}

func (GenericPayload) payload() {}
func (ChartEnvelope) payload()  {}
