package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/zielaskowski/tradeDB/internal/config"
	"github.com/zielaskowski/tradeDB/internal/logger"
	"github.com/zielaskowski/tradeDB/internal/models"
	"github.com/zielaskowski/tradeDB/internal/services"
)

func main() {
	// Initialize logger (use ENV var if available, default to development)
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	if err := run(); err != nil {
		logger.Get().Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	kind := flag.String("table", "", "table kind: STOCK, INDEX, ETF or COMMODITY (? lists)")
	symbol := flag.String("symbol", "", "symbol filter, ';' separates, '%' wildcard, '?' lists")
	name := flag.String("name", "", "display-name filter")
	components := flag.String("components", "", "index whose constituent stocks to select")
	country := flag.String("country", "", "country filter (iso2 code)")
	region := flag.String("region", "", "region filter")
	columns := flag.String("columns", "", "output columns, '-' prefix excludes")
	currency := flag.String("currency", "", "convert monetary columns to this currency")
	start := flag.String("start", "", "start date (2006-01-02)")
	end := flag.String("end", "", "end date (2006-01-02)")
	updateDates := flag.Bool("update-dates", false, "widen cached date ranges up to today")
	updateSymbols := flag.Bool("update-symbols", false, "fetch symbols the cache has never seen")
	scaleVolume := flag.Bool("scale-volume", false, "also rescale volume during currency conversion")
	flag.Parse()

	appConfig, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	req := services.Request{
		Kind:          *kind,
		Symbol:        *symbol,
		Name:          *name,
		Components:    *components,
		Country:       *country,
		Region:        *region,
		Columns:       *columns,
		Currency:      *currency,
		UpdateDates:   *updateDates,
		UpdateSymbols: *updateSymbols,
		ScaleVolume:   *scaleVolume,
	}
	if req.StartDate, err = parseDate(*start); err != nil {
		return err
	}
	if req.EndDate, err = parseDate(*end); err != nil {
		return err
	}

	// The binary ships without a remote source wired in; answers come from
	// whatever the store file already holds.
	trader := services.NewTrader(appConfig, noFetcher{}, noRates{})
	result, err := trader.Get(req)
	if err != nil {
		return err
	}

	printResult(result)
	return nil
}

func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, want 2006-01-02", s)
	}
	return d, nil
}

func printResult(result *services.Result) {
	fmt.Printf("symbol\tname\tcountry\t%s\n", strings.ToLower(strings.Join(result.Columns, "\t")))
	for _, row := range result.Rows {
		fmt.Printf("%s\t%s\t%s", row.Symbol, row.Name, row.Country)
		for _, col := range result.Columns {
			switch col {
			case "DATE":
				fmt.Printf("\t%s", row.Date.Format("2006-01-02"))
			case "OPEN":
				fmt.Printf("\t%.4f", row.Open)
			case "HIGH":
				fmt.Printf("\t%.4f", row.High)
			case "LOW":
				fmt.Printf("\t%.4f", row.Low)
			case "VAL":
				fmt.Printf("\t%.4f", row.Val)
			case "VOL":
				fmt.Printf("\t%d", row.Vol)
			}
		}
		fmt.Println()
	}
}

// noFetcher returns nothing for every request, so the engine skips gap
// filling and answers from cache.
type noFetcher struct{}

func (noFetcher) Fetch(services.FetchRequest) ([]models.FetchRow, error) {
	return nil, nil
}

type noRates struct{}

func (noRates) Rates(string, models.DateRange) ([]models.RateRow, error) {
	return nil, nil
}
