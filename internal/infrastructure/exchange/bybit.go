package exchange

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/vitos/crypto_trade_zones/internal/domain"
)

const (
	BybitBaseURL = "https://api.bybit.com"

	// MaxKlineLimit is the largest page the kline endpoint serves.
	MaxKlineLimit = 1000
)

// BybitAdapter reads market data from the Bybit v5 REST API.
type BybitAdapter struct {
	apiKey    string
	apiSecret string
	baseURL   string
	category  string
	client    *http.Client
}

func NewBybitAdapter(apiKey, apiSecret, baseURL, category string) *BybitAdapter {
	if baseURL == "" {
		baseURL = BybitBaseURL
	}
	if category == "" {
		category = "linear"
	}
	return &BybitAdapter{
		apiKey:    apiKey,
		apiSecret: apiSecret,
		baseURL:   strings.TrimRight(baseURL, "/"),
		category:  category,
		client:    &http.Client{Timeout: 10 * time.Second},
	}
}

// --- REST API ---

func (b *BybitAdapter) sign(params string, timestamp int64, recvWindow int) string {
	// timestamp + apiKey + recvWindow + params
	toSign := fmt.Sprintf("%d%s%d%s", timestamp, b.apiKey, recvWindow, params)
	h := hmac.New(sha256.New, []byte(b.apiSecret))
	h.Write([]byte(toSign))
	return hex.EncodeToString(h.Sum(nil))
}

// sendRequest signs the request only when credentials are configured; market
// data endpoints are public.
func (b *BybitAdapter) sendRequest(ctx context.Context, method, path string, payload map[string]interface{}) ([]byte, error) {
	timestamp := time.Now().UnixMilli()
	recvWindow := 5000

	var body []byte
	var paramsStr string

	if payload != nil {
		jsonBody, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encode payload: %w", err)
		}
		body = jsonBody
		paramsStr = string(jsonBody)
	} else if method == http.MethodGet {
		if idx := strings.Index(path, "?"); idx != -1 {
			paramsStr = path[idx+1:]
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, b.baseURL+path, bytes.NewBuffer(body))
	if err != nil {
		return nil, err
	}

	if b.apiKey != "" && b.apiSecret != "" {
		req.Header.Set("X-BAPI-API-KEY", b.apiKey)
		req.Header.Set("X-BAPI-TIMESTAMP", strconv.FormatInt(timestamp, 10))
		req.Header.Set("X-BAPI-SIGN", b.sign(paramsStr, timestamp, recvWindow))
		req.Header.Set("X-BAPI-RECV-WINDOW", strconv.Itoa(recvWindow))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("API error %d: %s", resp.StatusCode, string(respBody))
	}

	return respBody, nil
}

// GetCandles returns up to limit klines, oldest first. Fields that fail to
// parse become NaN so the engine treats the candle as missing data.
func (b *BybitAdapter) GetCandles(ctx context.Context, symbol, interval string, limit int) ([]domain.Candle, error) {
	if limit <= 0 || limit > MaxKlineLimit {
		limit = MaxKlineLimit
	}

	q := url.Values{}
	q.Set("category", b.category)
	q.Set("symbol", strings.ToUpper(symbol))
	q.Set("interval", interval)
	q.Set("limit", strconv.Itoa(limit))

	resp, err := b.sendRequest(ctx, http.MethodGet, "/v5/market/kline?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("get candles %s %s: %w", symbol, interval, err)
	}

	var result struct {
		RetCode int    `json:"retCode"`
		RetMsg  string `json:"retMsg"`
		Result  struct {
			List [][]string `json:"list"`
		} `json:"result"`
	}

	if err := json.Unmarshal(resp, &result); err != nil {
		return nil, fmt.Errorf("decode klines: %w", err)
	}

	if result.RetCode != 0 {
		return nil, fmt.Errorf("bybit kline error: %d %s", result.RetCode, result.RetMsg)
	}

	candles := make([]domain.Candle, 0, len(result.Result.List))
	for _, raw := range result.Result.List {
		// [startTime, open, high, low, close, volume, turnover]
		// A malformed kline stays in place as a missing candle.
		ts, err := strconv.ParseInt(klineField(raw, 0), 10, 64)
		if err != nil {
			candles = append(candles, missingCandle())
			continue
		}

		candles = append(candles, domain.Candle{
			Time:   ts / 1000,
			Open:   parsePrice(klineField(raw, 1)),
			High:   parsePrice(klineField(raw, 2)),
			Low:    parsePrice(klineField(raw, 3)),
			Close:  parsePrice(klineField(raw, 4)),
			Volume: parsePrice(klineField(raw, 5)),
		})
	}

	// Bybit lists newest first.
	for i, j := 0, len(candles)-1; i < j; i, j = i+1, j-1 {
		candles[i], candles[j] = candles[j], candles[i]
	}

	return candles, nil
}

func klineField(raw []string, i int) string {
	if i < len(raw) {
		return raw[i]
	}
	return ""
}

func missingCandle() domain.Candle {
	nan := math.NaN()
	return domain.Candle{Open: nan, High: nan, Low: nan, Close: nan, Volume: nan}
}

func parsePrice(s string) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return v
}

var intervalTimeframes = map[string]string{
	"1":   "1m",
	"3":   "1m",
	"5":   "5m",
	"15":  "15m",
	"30":  "15m",
	"60":  "1h",
	"120": "1h",
	"240": "4h",
	"360": "4h",
	"720": "4h",
	"D":   "1d",
	"W":   "1w",
	"M":   "1mn",
}

// TimeframeForInterval maps a Bybit kline interval to the nearest engine
// timeframe label. Unknown intervals are returned unchanged so the engine can
// warn about them.
func TimeframeForInterval(interval string) string {
	if tf, ok := intervalTimeframes[strings.ToUpper(interval)]; ok {
		return tf
	}
	return interval
}
