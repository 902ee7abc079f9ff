package services

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"swiggy-dashboard/internal/ingest"
	"swiggy-dashboard/internal/models"
)

const (
	batchSize  = 10000
	maxWorkers = 10
)

// PrecomputedData is the full aggregate set served by the dashboard. It is
// also the snapshot payload persisted by the store.
type PrecomputedData struct {
	Summary       models.Summary            `json:"summary"`
	MonthlySales  []models.MonthlySales     `json:"monthly_sales"`
	DailySales    []models.DailySales       `json:"daily_sales"`
	WeeklySales   []models.WeeklySales      `json:"weekly_sales"`
	FoodTypeTrend []models.FoodTypeSales    `json:"food_type_trend"`
	StateSales    []models.StateSales       `json:"state_sales"`
	CitySales     []models.CitySales        `json:"city_sales"`
	Quarterly     []models.QuarterlySummary `json:"quarterly"`
	LastModified  time.Time                 `json:"last_modified"`
	RecordCount   int64                     `json:"record_count"`
}

// LoadReport describes one ingest run: rows rejected at parse time by reason,
// plus what the cleaning pass removed.
type LoadReport struct {
	ParseDrops map[ingest.DropReason]int64 `json:"parse_drops"`
	Clean      CleanReport                 `json:"clean"`
	Duration   time.Duration               `json:"duration"`
}

type Analytics struct {
	mu               sync.RWMutex
	precomputed      *PrecomputedData
	report           LoadReport
	csvPath          string
	recordsProcessed atomic.Int64
	logger           *slog.Logger
}

func NewAnalytics() *Analytics {
	return &Analytics{
		precomputed: &PrecomputedData{},
		logger:      slog.Default(),
	}
}

// SetData computes aggregates directly from already-cleaned orders. Used by
// tests and by callers that bypass the CSV path.
func (a *Analytics) SetData(orders []models.Order) {
	pre := computeAggregates(orders)
	pre.LastModified = time.Now()

	a.mu.Lock()
	a.precomputed = pre
	a.mu.Unlock()
	a.recordsProcessed.Store(int64(len(orders)))
}

// RestoreSnapshot swaps in a previously persisted aggregate set.
func (a *Analytics) RestoreSnapshot(data *PrecomputedData) {
	a.mu.Lock()
	a.precomputed = data
	a.mu.Unlock()
	a.recordsProcessed.Store(data.RecordCount)
}

// Precomputed returns the current aggregate set for snapshotting.
func (a *Analytics) Precomputed() *PrecomputedData {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.precomputed
}

// Report returns the load report of the last LoadFromCSV run.
func (a *Analytics) Report() LoadReport {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.report
}

// LoadFromCSV streams, parses, cleans and aggregates the order export.
// Dedupe and the IQR trims need the whole dataset, so rows are parsed into
// memory in concurrent batches before the cleaning pass runs.
func (a *Analytics) LoadFromCSV(ctx context.Context, filename string) error {
	a.csvPath = filename

	start := time.Now()
	a.logger.Info("processing order export", "filename", filename)

	reader, err := ingest.Open(filename)
	if err != nil {
		return fmt.Errorf("open export: %w", err)
	}
	defer reader.Close()

	orders, drops, err := a.parseAll(ctx, reader)
	if err != nil {
		return fmt.Errorf("parse export: %w", err)
	}

	cleaned, cleanReport := Clean(orders)
	if len(cleaned) == 0 {
		return fmt.Errorf("no valid records found")
	}

	pre := computeAggregates(cleaned)
	pre.LastModified = time.Now()

	duration := time.Since(start)

	a.mu.Lock()
	a.precomputed = pre
	a.report = LoadReport{ParseDrops: drops, Clean: cleanReport, Duration: duration}
	a.mu.Unlock()
	a.recordsProcessed.Store(int64(len(cleaned)))

	a.logger.Info("order export processed",
		"records", len(cleaned),
		"dropped_parse", sumDrops(drops),
		"dropped_clean", cleanReport.Input-cleanReport.Output,
		"duration", duration,
		"rate", fmt.Sprintf("%.0f records/sec", float64(cleanReport.Input)/duration.Seconds()))

	return nil
}

func (a *Analytics) parseAll(ctx context.Context, reader *ingest.Reader) ([]models.Order, map[ingest.DropReason]int64, error) {
	cols := reader.Columns()

	var (
		mu     sync.Mutex
		orders []models.Order
		drops  = make(map[ingest.DropReason]int64)
	)

	batch := make([]string, 0, batchSize)

	for reader.Scan() {
		select {
		case <-ctx.Done():
			return nil, nil, ctx.Err()
		default:
		}

		batch = append(batch, reader.Line())

		if len(batch) >= batchSize {
			if err := parseBatch(ctx, cols, batch, &mu, &orders, drops); err != nil {
				return nil, nil, err
			}
			batch = batch[:0]
		}
	}

	if len(batch) > 0 {
		if err := parseBatch(ctx, cols, batch, &mu, &orders, drops); err != nil {
			return nil, nil, err
		}
	}

	if err := reader.Err(); err != nil {
		return nil, nil, fmt.Errorf("scan error: %w", err)
	}

	return orders, drops, nil
}

func parseBatch(ctx context.Context, cols ingest.Columns, batch []string, mu *sync.Mutex,
	orders *[]models.Order, drops map[ingest.DropReason]int64) error {

	var wg errgroup.Group
	wg.SetLimit(maxWorkers)

	type parsedRow struct {
		order  models.Order
		reason ingest.DropReason
		valid  bool
	}

	rowChan := make(chan parsedRow, len(batch))

	for _, line := range batch {
		wg.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			if strings.TrimSpace(line) == "" {
				rowChan <- parsedRow{reason: ingest.DropShortRow}
				return nil
			}

			order, err := ingest.ParseLine(cols, line)
			if err != nil {
				rowChan <- parsedRow{reason: ingest.Reason(err)}
				return nil // skip bad rows, count them
			}

			rowChan <- parsedRow{order: order, valid: true}
			return nil
		})
	}

	if err := wg.Wait(); err != nil {
		close(rowChan)
		return err
	}
	close(rowChan)

	local := make([]models.Order, 0, len(batch))
	localDrops := make(map[ingest.DropReason]int64)
	for row := range rowChan {
		if row.valid {
			local = append(local, row.order)
		} else {
			localDrops[row.reason]++
		}
	}

	mu.Lock()
	*orders = append(*orders, local...)
	for reason, n := range localDrops {
		drops[reason] += n
	}
	mu.Unlock()

	return nil
}

type quarterAgg struct {
	sales     float64
	orders    int
	ratingSum float64
	rated     int
}

func computeAggregates(orders []models.Order) *PrecomputedData {
	var (
		totalSales  float64
		ratingSum   float64
		ratedOrders int64
		ratingCount int64
	)

	monthly := make(map[string]float64)
	daily := make(map[string]float64)
	weekly := make(map[string]float64)
	foodType := make(map[string]*models.FoodTypeSales)
	states := make(map[string]*models.StateSales)
	cities := make(map[string]*models.CitySales)
	quarters := make(map[string]*quarterAgg)

	for _, o := range orders {
		totalSales += o.Price
		ratingCount += int64(o.RatingCount)
		if o.Rated() {
			ratingSum += o.Rating
			ratedOrders++
		}

		month := o.Date.Format("2006-01")
		monthly[month] += o.Price
		daily[o.Date.Format("2006-01-02")] += o.Price
		weekly[weekStart(o.Date).Format("2006-01-02")] += o.Price

		if foodType[month] == nil {
			foodType[month] = &models.FoodTypeSales{Month: month}
		}
		if o.FoodType == models.FoodTypeNonVeg {
			foodType[month].NonVegSales += o.Price
		} else {
			foodType[month].VegSales += o.Price
		}

		if states[o.State] == nil {
			lat, lon, _ := StateCoords(o.State)
			states[o.State] = &models.StateSales{State: o.State, Lat: lat, Lon: lon}
		}
		states[o.State].Sales += o.Price
		states[o.State].Orders++

		if cities[o.City] == nil {
			cities[o.City] = &models.CitySales{City: o.City}
		}
		cities[o.City].Sales += o.Price
		cities[o.City].Orders++

		quarter := quarterKey(o.Date)
		if quarters[quarter] == nil {
			quarters[quarter] = &quarterAgg{}
		}
		q := quarters[quarter]
		q.sales += o.Price
		q.orders++
		if o.Rated() {
			q.ratingSum += o.Rating
			q.rated++
		}
	}

	summary := models.Summary{
		TotalSales:  totalSales,
		TotalOrders: int64(len(orders)),
		RatingCount: ratingCount,
	}
	if len(orders) > 0 {
		summary.AvgOrderValue = totalSales / float64(len(orders))
	}
	if ratedOrders > 0 {
		summary.AvgRating = ratingSum / float64(ratedOrders)
	}

	return &PrecomputedData{
		Summary:       summary,
		MonthlySales:  sortMonthlySales(monthly),
		DailySales:    sortDailySales(daily),
		WeeklySales:   sortWeeklySales(weekly),
		FoodTypeTrend: sortFoodTypeTrend(foodType),
		StateSales:    sortStateSales(states),
		CitySales:     sortCitySales(cities),
		Quarterly:     sortQuarterly(quarters),
		RecordCount:   int64(len(orders)),
	}
}

// weekStart returns the Monday of the ISO week containing t.
func weekStart(t time.Time) time.Time {
	offset := (int(t.Weekday()) + 6) % 7
	return t.AddDate(0, 0, -offset)
}

func quarterKey(t time.Time) string {
	return fmt.Sprintf("%dQ%d", t.Year(), (int(t.Month())-1)/3+1)
}

// Trend series sort chronologically because they feed line charts.
// Geographic breakdowns sort by revenue descending because they feed rankings.

func sortMonthlySales(groups map[string]float64) []models.MonthlySales {
	result := make([]models.MonthlySales, 0, len(groups))
	for month, sales := range groups {
		result = append(result, models.MonthlySales{Month: month, Sales: sales})
	}
	slices.SortFunc(result, func(a, b models.MonthlySales) int {
		return strings.Compare(a.Month, b.Month)
	})
	return result
}

func sortDailySales(groups map[string]float64) []models.DailySales {
	result := make([]models.DailySales, 0, len(groups))
	for date, sales := range groups {
		result = append(result, models.DailySales{Date: date, Sales: sales})
	}
	slices.SortFunc(result, func(a, b models.DailySales) int {
		return strings.Compare(a.Date, b.Date)
	})
	return result
}

func sortWeeklySales(groups map[string]float64) []models.WeeklySales {
	result := make([]models.WeeklySales, 0, len(groups))
	for week, sales := range groups {
		result = append(result, models.WeeklySales{WeekStart: week, Sales: sales})
	}
	slices.SortFunc(result, func(a, b models.WeeklySales) int {
		return strings.Compare(a.WeekStart, b.WeekStart)
	})
	return result
}

func sortFoodTypeTrend(groups map[string]*models.FoodTypeSales) []models.FoodTypeSales {
	result := make([]models.FoodTypeSales, 0, len(groups))
	for _, ft := range groups {
		result = append(result, *ft)
	}
	slices.SortFunc(result, func(a, b models.FoodTypeSales) int {
		return strings.Compare(a.Month, b.Month)
	})
	return result
}

func sortStateSales(groups map[string]*models.StateSales) []models.StateSales {
	result := make([]models.StateSales, 0, len(groups))
	for _, ss := range groups {
		result = append(result, *ss)
	}
	slices.SortFunc(result, func(a, b models.StateSales) int {
		if a.Sales > b.Sales {
			return -1
		}
		if a.Sales < b.Sales {
			return 1
		}
		return strings.Compare(a.State, b.State)
	})
	return result
}

func sortCitySales(groups map[string]*models.CitySales) []models.CitySales {
	result := make([]models.CitySales, 0, len(groups))
	for _, cs := range groups {
		result = append(result, *cs)
	}
	slices.SortFunc(result, func(a, b models.CitySales) int {
		if a.Sales > b.Sales {
			return -1
		}
		if a.Sales < b.Sales {
			return 1
		}
		return strings.Compare(a.City, b.City)
	})
	return result
}

func sortQuarterly(groups map[string]*quarterAgg) []models.QuarterlySummary {
	result := make([]models.QuarterlySummary, 0, len(groups))
	for quarter, agg := range groups {
		qs := models.QuarterlySummary{
			Quarter:     quarter,
			TotalSales:  agg.sales,
			TotalOrders: agg.orders,
		}
		if agg.rated > 0 {
			qs.AvgRating = agg.ratingSum / float64(agg.rated)
		}
		result = append(result, qs)
	}
	slices.SortFunc(result, func(a, b models.QuarterlySummary) int {
		return strings.Compare(a.Quarter, b.Quarter)
	})
	return result
}

func sumDrops(drops map[ingest.DropReason]int64) int64 {
	var total int64
	for _, n := range drops {
		total += n
	}
	return total
}

// Fast query methods - O(1) lookups from precomputed data

func (a *Analytics) Summary() models.Summary {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.precomputed.Summary
}

func (a *Analytics) MonthlySales() []models.MonthlySales {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.precomputed.MonthlySales
}

func (a *Analytics) DailySales() []models.DailySales {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.precomputed.DailySales
}

func (a *Analytics) WeeklySales() []models.WeeklySales {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.precomputed.WeeklySales
}

func (a *Analytics) FoodTypeTrend() []models.FoodTypeSales {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.precomputed.FoodTypeTrend
}

func (a *Analytics) StateSales() []models.StateSales {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.precomputed.StateSales
}

func (a *Analytics) TopCities(limit int) []models.CitySales {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if len(a.precomputed.CitySales) <= limit {
		return a.precomputed.CitySales
	}
	return a.precomputed.CitySales[:limit]
}

func (a *Analytics) Quarterly() []models.QuarterlySummary {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.precomputed.Quarterly
}

// Utility method for monitoring
func (a *Analytics) Stats() map[string]any {
	a.mu.RLock()
	defer a.mu.RUnlock()

	stats := map[string]any{
		"record_count":   a.recordsProcessed.Load(),
		"last_processed": a.precomputed.LastModified,
		"total_sales":    a.precomputed.Summary.TotalSales,
		"months":         len(a.precomputed.MonthlySales),
		"states":         len(a.precomputed.StateSales),
		"cities":         len(a.precomputed.CitySales),
	}
	if a.csvPath != "" {
		stats["source_file"] = a.csvPath
	}
	if a.report.ParseDrops != nil {
		stats["parse_drops"] = a.report.ParseDrops
		stats["clean_report"] = a.report.Clean
		stats["load_duration"] = a.report.Duration.String()
	}
	return stats
}
