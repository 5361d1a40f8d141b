package exchange

import (
	"context"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetCandles_ReversesAndParses(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v5/market/kline", r.URL.Path)
		assert.Equal(t, "BTCUSDT", r.URL.Query().Get("symbol"))
		assert.Equal(t, "60", r.URL.Query().Get("interval"))
		assert.Equal(t, "linear", r.URL.Query().Get("category"))
		assert.Empty(t, r.Header.Get("X-BAPI-SIGN"))
		w.Write([]byte(`{"retCode":0,"retMsg":"OK","result":{"list":[
			["1700003600000","101","103","100","102","12","0"],
			["1700000000000","100","102","99","101","10","0"],
			["bad"]
		]}}`))
	}))
	defer srv.Close()

	b := NewBybitAdapter("", "", srv.URL, "")
	candles, err := b.GetCandles(context.Background(), "btcusdt", "60", 2)
	require.NoError(t, err)
	require.Len(t, candles, 3, "a malformed kline is kept as a missing candle")

	assert.True(t, math.IsNaN(candles[0].Close))
	assert.True(t, math.IsNaN(candles[0].High))
	assert.Equal(t, int64(1700000000), candles[1].Time)
	assert.Equal(t, 101.0, candles[1].Close)
	assert.Equal(t, int64(1700003600), candles[2].Time)
	assert.Equal(t, 103.0, candles[2].High)
}

func TestGetCandles_BadTimestampKeepsPosition(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"retCode":0,"result":{"list":[
			["1700007200000","102","103","101","102.5","5"],
			["not-a-time","101","102","100","101.5","5"],
			["1700000000000","100","101","99","100.5","5"]
		]}}`))
	}))
	defer srv.Close()

	candles, err := NewBybitAdapter("", "", srv.URL, "").GetCandles(context.Background(), "BTCUSDT", "60", 3)
	require.NoError(t, err)
	require.Len(t, candles, 3)

	assert.Equal(t, 100.5, candles[0].Close)
	assert.True(t, math.IsNaN(candles[1].Close))
	assert.True(t, math.IsNaN(candles[1].Low))
	assert.Equal(t, 102.5, candles[2].Close)
}

func TestGetCandles_UnparsableFieldIsNaN(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"retCode":0,"result":{"list":[["1700000000000","100","x","99","101","10"]]}}`))
	}))
	defer srv.Close()

	candles, err := NewBybitAdapter("", "", srv.URL, "").GetCandles(context.Background(), "BTCUSDT", "5", 10)
	require.NoError(t, err)
	require.Len(t, candles, 1)
	assert.True(t, math.IsNaN(candles[0].High))
}

func TestGetCandles_Errors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("symbol") {
		case "FAIL":
			http.Error(w, "boom", http.StatusBadGateway)
		default:
			w.Write([]byte(`{"retCode":10001,"retMsg":"params error","result":{"list":[]}}`))
		}
	}))
	defer srv.Close()

	b := NewBybitAdapter("", "", srv.URL, "")

	_, err := b.GetCandles(context.Background(), "FAIL", "60", 10)
	assert.ErrorContains(t, err, "502")

	_, err = b.GetCandles(context.Background(), "BTCUSDT", "60", 10)
	assert.ErrorContains(t, err, "params error")
}

func TestSendRequest_SignsWithCredentials(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "key", r.Header.Get("X-BAPI-API-KEY"))
		assert.Len(t, r.Header.Get("X-BAPI-SIGN"), 64)
		w.Write([]byte(`{"retCode":0,"result":{"list":[]}}`))
	}))
	defer srv.Close()

	candles, err := NewBybitAdapter("key", "secret", srv.URL, "spot").GetCandles(context.Background(), "BTCUSDT", "D", 0)
	require.NoError(t, err)
	assert.Empty(t, candles)
}

func TestSign_Deterministic(t *testing.T) {
	b := NewBybitAdapter("key", "secret", "", "")
	assert.Equal(t, b.sign("a=1", 1, 5000), b.sign("a=1", 1, 5000))
	assert.NotEqual(t, b.sign("a=1", 1, 5000), b.sign("a=2", 1, 5000))
}

func TestTimeframeForInterval(t *testing.T) {
	cases := map[string]string{
		"1":   "1m",
		"5":   "5m",
		"15":  "15m",
		"60":  "1h",
		"240": "4h",
		"D":   "1d",
		"w":   "1w",
		"M":   "1mn",
		"7":   "7",
	}
	for in, want := range cases {
		assert.Equal(t, want, TimeframeForInterval(in), in)
	}
}
