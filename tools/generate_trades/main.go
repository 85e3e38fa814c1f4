// Large Trade Export Generator
//
// This tool generates a large transaction export for performance testing and profiling.
// Sales never exceed the quantity bought so far, so the output always processes cleanly.
//
// Usage:
//
//	go run main.go > trades.csv
//	go run main.go 20000000 > trades.csv  # Specify target size in bytes
package main

import (
	"fmt"
	"math/rand"
	"os"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

const (
	defaultTargetSize = 10 * 1024 * 1024 // 10MB
)

var (
	assets = []string{"BTC", "ETH", "LTC", "SOL", "ADA", "DOT"}

	// basePrices is the rough USD price of one unit of each asset.
	basePrices = map[string]float64{
		"BTC": 30000,
		"ETH": 2000,
		"LTC": 90,
		"SOL": 40,
		"ADA": 0.4,
		"DOT": 6,
	}
)

func main() {
	targetSize := defaultTargetSize
	if len(os.Args) > 1 {
		if size, err := strconv.Atoi(os.Args[1]); err == nil {
			targetSize = size
		}
	}

	header := "Date,Type,Fee,Received Quantity,Received Currency,,,,,,,Sent Quantity,Sent Currency\n"
	fmt.Print(header)
	bytesWritten := len(header)

	held := make(map[string]decimal.Decimal)
	currentDate := time.Date(2016, 1, 1, 9, 0, 0, 0, time.UTC)

	buys, sells := 0, 0
	for bytesWritten < targetSize {
		asset := assets[rand.Intn(len(assets))]

		var row string
		// 40% sells once something is held
		if rand.Intn(10) < 4 && held[asset].IsPositive() {
			row = generateSell(currentDate, asset, held)
			sells++
		} else {
			row = generateBuy(currentDate, asset, held)
			buys++
		}
		fmt.Print(row)
		bytesWritten += len(row)

		// Advance by up to a day
		currentDate = currentDate.Add(time.Duration(rand.Intn(24*60)+1) * time.Minute)
	}

	fmt.Fprintf(os.Stderr, "\nGenerated %d bytes with %d buys and %d sells\n", bytesWritten, buys, sells)
}

func generateBuy(date time.Time, asset string, held map[string]decimal.Decimal) string {
	quantity := randQuantity(asset)
	total := quantity.Mul(randPrice(asset)).Round(2)
	held[asset] = held[asset].Add(quantity)

	return fmt.Sprintf("%s,Buy,,%s,%s,,,,,,,%s,USD\n",
		date.Format("01/02/2006 15:04:05"), quantity, asset, total)
}

func generateSell(date time.Time, asset string, held map[string]decimal.Decimal) string {
	quantity := decimal.Min(randQuantity(asset), held[asset])
	total := quantity.Mul(randPrice(asset)).Round(2)
	if !total.IsPositive() {
		total = decimal.New(1, -2)
	}
	held[asset] = held[asset].Sub(quantity)

	return fmt.Sprintf("%s,Sell,,%s,USD,,,,,,,%s,%s\n",
		date.Format("01/02/2006 15:04:05"), total, quantity, asset)
}

// Helper functions

// randQuantity returns a quantity worth roughly 50 to 5000 USD.
func randQuantity(asset string) decimal.Decimal {
	worth := 50 + rand.Float64()*4950
	return decimal.NewFromFloat(worth / basePrices[asset]).Round(6).Add(decimal.New(1, -6))
}

// randPrice returns the base price moved by up to 30% either way.
func randPrice(asset string) decimal.Decimal {
	swing := 0.7 + rand.Float64()*0.6
	return decimal.NewFromFloat(basePrices[asset] * swing).Round(2)
}
