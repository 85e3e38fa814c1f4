package web

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alecthomas/assert/v2"
)

const trades = `Date,Type,Fee,Received Quantity,Received Currency,,,,,,,Sent Quantity,Sent Currency
01/01/2021 10:00:00,Buy,,10,BTC,,,,,,,10,USD
01/02/2021 10:00:00,Buy,,10,BTC,,,,,,,30,USD
01/01/2019 09:00:00,Buy,,2,ETH,,,,,,,200,USD
01/03/2021 10:00:00,Sell,,75,USD,,,,,,,15,BTC
06/30/2022 16:45:10,Sell,,90,USD,,,,,,,1,ETH
`

func writeTrades(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "trades.csv")
	assert.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func newTestServer(t *testing.T, content string) (*Server, *http.ServeMux, string) {
	t.Helper()
	path := writeTrades(t, content)

	server := New(8080, path)
	assert.NoError(t, server.reload(context.Background()))
	return server, server.setupRouter(), path
}

func get(t *testing.T, mux *http.ServeMux, target string, v any) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()

	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.NoError(t, json.NewDecoder(rec.Body).Decode(v))
}

func TestAPIRealizations(t *testing.T) {
	_, mux, _ := newTestServer(t, trades)

	var response RealizationsResponse
	get(t, mux, "/api/realizations", &response)

	assert.Equal(t, "USD", response.Fiat)
	assert.Equal(t, []Realization{
		{SaleDate: "01/03/2021 10:00:00", Asset: "BTC", Quantity: "10", AcquisitionDate: "01/02/2021 10:00:00", CostBasis: "30", Proceeds: "50", Net: "20", Term: "short"},
		{SaleDate: "01/03/2021 10:00:00", Asset: "BTC", Quantity: "5", AcquisitionDate: "01/01/2021 10:00:00", CostBasis: "5", Proceeds: "25", Net: "20", Term: "short"},
		{SaleDate: "06/30/2022 16:45:10", Asset: "ETH", Quantity: "1", AcquisitionDate: "01/01/2019 09:00:00", CostBasis: "100", Proceeds: "90", Net: "-10", Term: "long"},
	}, response.Realizations)
}

func TestAPIMerged(t *testing.T) {
	_, mux, _ := newTestServer(t, trades)

	var response RealizationsResponse
	get(t, mux, "/api/merged", &response)

	assert.Equal(t, 3, len(response.Realizations))
	assert.Equal(t, "01/03/2021 00:00:00", response.Realizations[0].SaleDate)
	assert.Equal(t, "01/02/2021 00:00:00", response.Realizations[0].AcquisitionDate)
}

func TestAPIHoldings(t *testing.T) {
	_, mux, _ := newTestServer(t, trades)

	var response HoldingsResponse
	get(t, mux, "/api/holdings", &response)

	assert.Equal(t, []Holding{
		{Asset: "BTC", AcquisitionDate: "01/02/2021 10:00:00", Quantity: "0", UnitCost: "3"},
		{Asset: "BTC", AcquisitionDate: "01/01/2021 10:00:00", Quantity: "5", UnitCost: "1"},
		{Asset: "ETH", AcquisitionDate: "01/01/2019 09:00:00", Quantity: "1", UnitCost: "100"},
	}, response.Holdings)
}

func TestAPISummary(t *testing.T) {
	_, mux, _ := newTestServer(t, trades)

	var response SummaryResponse
	get(t, mux, "/api/summary", &response)

	assert.Equal(t, []SummaryRow{
		{Year: 2021, Asset: "BTC", ShortTerm: "40", LongTerm: "0", Net: "40"},
		{Year: 2022, Asset: "ETH", ShortTerm: "0", LongTerm: "-10", Net: "-10"},
	}, response.Rows)
}

func TestAPIStatus(t *testing.T) {
	server, mux, path := newTestServer(t, trades)
	server.Version = "1.2.3"

	var response StatusResponse
	get(t, mux, "/api/status", &response)

	assert.Equal(t, "1.2.3", response.Version)
	assert.Equal(t, "HIFO", response.Policy)
	assert.True(t, response.ForceShortTerm)
	assert.Equal(t, 1, len(response.Files))
	assert.True(t, strings.HasSuffix(response.Files[0], filepath.Base(path)))
}

func TestAPIErrors(t *testing.T) {
	t.Run("NoErrors", func(t *testing.T) {
		_, mux, _ := newTestServer(t, trades)

		var response ErrorsResponse
		get(t, mux, "/api/errors", &response)

		assert.Equal(t, 0, len(response.Errors))
		assert.Equal(t, 0, len(response.Skipped))
		assert.Equal(t, "", response.Text)
	})

	t.Run("InsufficientLots", func(t *testing.T) {
		content := "01/01/2021,Buy,,1,BTC,,,,,,,100,USD\n" +
			"01/02/2021,Send,,1,BTC,,,,,,,,\n" +
			"01/03/2021,Sell,,300,USD,,,,,,,2,BTC\n"
		_, mux, _ := newTestServer(t, content)

		var response ErrorsResponse
		get(t, mux, "/api/errors", &response)

		assert.Equal(t, 1, len(response.Errors))
		assert.Equal(t, "insufficient_lots", response.Errors[0].Type)
		assert.Equal(t, "BTC", response.Errors[0].Details["asset"])
		assert.Equal(t, 3, response.Errors[0].Position.Line)

		assert.Equal(t, 1, len(response.Skipped))
		assert.Equal(t, "skipped", response.Skipped[0].Type)
		assert.Equal(t, 2, response.Skipped[0].Position.Line)

		assert.Contains(t, response.Text, ":2: skipped: ")
		assert.Contains(t, response.Text, "Not enough BTC lots to sell 2 (1 unmatched)")
		assert.Contains(t, response.Text, " > 01/03/2021,Sell,,300,USD,,,,,,,2,BTC\n")

		// Nothing is served from a failed run.
		var realizations RealizationsResponse
		get(t, mux, "/api/realizations", &realizations)
		assert.Equal(t, 0, len(realizations.Realizations))

		var holdings HoldingsResponse
		get(t, mux, "/api/holdings", &holdings)
		assert.Equal(t, 0, len(holdings.Holdings))
	})
}

func TestReload(t *testing.T) {
	server, mux, path := newTestServer(t, trades)

	assert.NoError(t, os.WriteFile(path, []byte("01/01/2021,Buy,,1,BTC,,,,,,,100,USD\n"), 0600))
	assert.NoError(t, server.reload(context.Background()))

	var response RealizationsResponse
	get(t, mux, "/api/realizations", &response)
	assert.Equal(t, 0, len(response.Realizations))

	var holdings HoldingsResponse
	get(t, mux, "/api/holdings", &holdings)
	assert.Equal(t, []Holding{{Asset: "BTC", AcquisitionDate: "01/01/2021 00:00:00", Quantity: "1", UnitCost: "100"}}, holdings.Holdings)
}

func TestReloadMissingFile(t *testing.T) {
	server := New(8080, filepath.Join(t.TempDir(), "missing.csv"))
	err := server.reload(context.Background())
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "missing.csv")
}

// readEvents forwards every SSE data line of resp to the returned channel.
func readEvents(resp *http.Response) <-chan string {
	events := make(chan string, 10)
	go func() {
		defer close(events)
		scanner := bufio.NewScanner(resp.Body)
		for scanner.Scan() {
			if data, ok := strings.CutPrefix(scanner.Text(), "data: "); ok {
				events <- data
			}
		}
	}()
	return events
}

func waitEvent(t *testing.T, events <-chan string) string {
	t.Helper()
	select {
	case event := <-events:
		return event
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for event")
		return ""
	}
}

func TestSSE(t *testing.T) {
	server, mux, _ := newTestServer(t, trades)

	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)

	resp, err := http.Get(ts.URL + "/api/events")
	assert.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	events := readEvents(resp)
	assert.Equal(t, "connected", waitEvent(t, events))

	server.broadcast("reload")
	assert.Equal(t, "reload", waitEvent(t, events))
}

func TestWatcher(t *testing.T) {
	server, mux, path := newTestServer(t, trades)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	assert.NoError(t, server.startWatcher(ctx))

	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)

	resp, err := http.Get(ts.URL + "/api/events")
	assert.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })

	events := readEvents(resp)
	assert.Equal(t, "connected", waitEvent(t, events))

	assert.NoError(t, os.WriteFile(path, []byte("01/01/2021,Buy,,1,BTC,,,,,,,100,USD\n"), 0600))
	assert.Equal(t, "reload", waitEvent(t, events))

	var response RealizationsResponse
	get(t, mux, "/api/realizations", &response)
	assert.Equal(t, 0, len(response.Realizations))
}
