package collector

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"CandleScope/internal/model"
)

const nseBaseURL = "https://www.nseindia.com"

// IST is the exchange time zone used to place NSE trade dates.
var IST = time.FixedZone("IST", 5*3600+1800)

// GoldBondSymbols lists the sovereign gold bond series tracked by default.
var GoldBondSymbols = []string{
	"SGBFEB27", "SGBMAY28", "SGBMAY29I", "SGBAPR28I", "SGBMR29XII", "SGBJUN28",
	"SGBSEP29VI", "SGBNV29VII", "SGBJAN30IX", "SGBAUG29V", "SGBD29VIII", "SGBJUL29IV",
	"SGBJUL28IV", "SGBJUN29II", "SGBJU29III", "SGBFEB29XI", "SGBJAN29IX", "SGBOC28VII",
	"SGBJUN30", "SGBJAN29X", "SGBMAR30X", "SGBSEP28VI", "SGBN28VIII", "SGBAUG30",
	"SGBAUG28V", "SGBDE30III", "SGBMAR31IV", "SGBSEP31II", "SGBJUN31I", "SGBDE31III",
	"SGBFEB32IV",
}

// NSEFetcher implements BondFetcher using the NSE historical trade data API.
type NSEFetcher struct {
	BaseURL string
	Client  *http.Client
}

// NewNSEFetcher creates a new fetcher with optional proxy support.
func NewNSEFetcher(proxyURL string) *NSEFetcher {
	return &NSEFetcher{
		BaseURL: nseBaseURL,
		Client:  newHTTPClient(proxyURL),
	}
}

func (f *NSEFetcher) Name() string { return "nse" }

// nseRecord is one row of the historical trade data response.
type nseRecord struct {
	Symbol    string `json:"chSymbol"`
	Timestamp string `json:"mtimestamp"` // e.g. "27-Dec-2022"
	Close     any    `json:"chClosingPrice"`
}

// FetchBondCloses returns the daily closes of a bond series between from and to, oldest first.
func (f *NSEFetcher) FetchBondCloses(ctx context.Context, symbol string, from, to time.Time) ([]model.ClosePoint, error) {
	params := url.Values{}
	params.Set("functionName", "getHistoricalTradeData")
	params.Set("symbol", symbol)
	params.Set("series", "GB")
	params.Set("fromDate", from.Format("02-01-2006"))
	params.Set("toDate", to.Format("02-01-2006"))
	params.Set("csv", "true")
	endpoint := fmt.Sprintf("%s/api/NextApi/apiClient/GetQuoteApi?%s", f.BaseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", browserUserAgent)

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("nse fetch: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("nse read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{Provider: f.Name(), Code: resp.StatusCode, Body: string(body)}
	}

	records, err := decodeNSERecords(body)
	if err != nil {
		return nil, fmt.Errorf("nse decode: %w", err)
	}
	return nseClosePoints(records), nil
}

// decodeNSERecords accepts either a bare array or an object with a "data" array.
func decodeNSERecords(body []byte) ([]nseRecord, error) {
	trimmed := bytes.TrimSpace(body)
	var records []nseRecord
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var wrapped struct {
			Data []nseRecord `json:"data"`
		}
		if err := json.Unmarshal(trimmed, &wrapped); err != nil {
			return nil, err
		}
		return wrapped.Data, nil
	}
	if err := json.Unmarshal(trimmed, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// nseClosePoints keeps records with a valid date and a numeric close, sorted by time.
func nseClosePoints(records []nseRecord) []model.ClosePoint {
	points := make([]model.ClosePoint, 0, len(records))
	for _, r := range records {
		price, ok := r.Close.(float64)
		if !ok || r.Timestamp == "" {
			continue
		}
		day, err := time.ParseInLocation("02-Jan-2006", strings.TrimSpace(r.Timestamp), IST)
		if err != nil {
			continue
		}
		points = append(points, model.ClosePoint{Timestamp: day.Unix(), Close: price})
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Timestamp < points[j].Timestamp })
	return points
}
