package services

import (
	"context"
	"math"
	"os"
	"strings"
	"testing"
	"time"

	"swiggy-dashboard/internal/models"
)

const testHeader = "Order Date,Restaurant Name,City,State,Dish Name,Category,Price (INR),Rating,Rating Count"

func createTempCSV(t *testing.T, content string) string {
	t.Helper()
	f, err := os.CreateTemp("", "test*.csv")
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	if _, err := f.WriteString(content); err != nil {
		t.Fatal(err)
	}
	return f.Name()
}

func testOrders() []models.Order {
	return []models.Order{
		{
			Date:        time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC), // Wednesday
			Restaurant:  "Empire",
			City:        "Bengaluru",
			State:       "Karnataka",
			Dish:        "Paneer Tikka",
			Category:    "Starters",
			FoodType:    models.FoodTypeVeg,
			Price:       250,
			Rating:      4.0,
			RatingCount: 100,
		},
		{
			Date:        time.Date(2025, 1, 16, 0, 0, 0, 0, time.UTC),
			Restaurant:  "Nagas",
			City:        "Chennai",
			State:       "Tamil Nadu",
			Dish:        "Chicken Biryani",
			Category:    "Mains",
			FoodType:    models.FoodTypeNonVeg,
			Price:       350,
			Rating:      5.0,
			RatingCount: 200,
		},
		{
			Date:        time.Date(2025, 2, 3, 0, 0, 0, 0, time.UTC),
			Restaurant:  "Empire",
			City:        "Bengaluru",
			State:       "Karnataka",
			Dish:        "Dal Fry",
			Category:    "Mains",
			FoodType:    models.FoodTypeVeg,
			Price:       150,
			Rating:      math.NaN(),
			RatingCount: 0,
		},
		{
			Date:        time.Date(2025, 4, 10, 0, 0, 0, 0, time.UTC),
			Restaurant:  "Karim's",
			City:        "New Delhi",
			State:       "Delhi",
			Dish:        "Mutton Korma",
			Category:    "Mains",
			FoodType:    models.FoodTypeNonVeg,
			Price:       450,
			Rating:      3.0,
			RatingCount: 50,
		},
	}
}

func TestNewAnalytics(t *testing.T) {
	a := NewAnalytics()
	if a == nil {
		t.Fatal("NewAnalytics() returned nil")
	}
	if a.precomputed == nil {
		t.Error("precomputed should be initialized")
	}
	if a.logger == nil {
		t.Error("logger should be initialized")
	}
}

func TestAnalytics_Summary(t *testing.T) {
	a := NewAnalytics()
	a.SetData(testOrders())

	summary := a.Summary()

	if summary.TotalOrders != 4 {
		t.Errorf("expected 4 orders, got %d", summary.TotalOrders)
	}
	if summary.TotalSales != 1200 {
		t.Errorf("expected total sales 1200, got %f", summary.TotalSales)
	}
	if summary.AvgOrderValue != 300 {
		t.Errorf("expected avg order value 300, got %f", summary.AvgOrderValue)
	}
	// NaN rating must be excluded: (4.0 + 5.0 + 3.0) / 3.
	if summary.AvgRating != 4.0 {
		t.Errorf("expected avg rating 4.0 over rated orders, got %f", summary.AvgRating)
	}
	if summary.RatingCount != 350 {
		t.Errorf("expected rating count 350, got %d", summary.RatingCount)
	}
}

func TestAnalytics_MonthlySales(t *testing.T) {
	a := NewAnalytics()
	a.SetData(testOrders())

	monthly := a.MonthlySales()
	if len(monthly) != 3 {
		t.Fatalf("expected 3 months, got %d", len(monthly))
	}

	// Chronological order for the trend chart.
	if monthly[0].Month != "2025-01" || monthly[1].Month != "2025-02" || monthly[2].Month != "2025-04" {
		t.Errorf("months out of order: %+v", monthly)
	}
	if monthly[0].Sales != 600 {
		t.Errorf("expected January sales 600, got %f", monthly[0].Sales)
	}
}

func TestAnalytics_DailyAndWeeklySales(t *testing.T) {
	a := NewAnalytics()
	a.SetData(testOrders())

	daily := a.DailySales()
	if len(daily) != 4 {
		t.Fatalf("expected 4 days, got %d", len(daily))
	}
	if daily[0].Date != "2025-01-15" {
		t.Errorf("daily series should be chronological, got %+v", daily)
	}

	weekly := a.WeeklySales()
	// 15 and 16 Jan share the week of Monday 13 Jan.
	if len(weekly) != 3 {
		t.Fatalf("expected 3 weeks, got %d", len(weekly))
	}
	if weekly[0].WeekStart != "2025-01-13" {
		t.Errorf("expected week start 2025-01-13, got %q", weekly[0].WeekStart)
	}
	if weekly[0].Sales != 600 {
		t.Errorf("expected week sales 600, got %f", weekly[0].Sales)
	}
}

func TestAnalytics_FoodTypeTrend(t *testing.T) {
	a := NewAnalytics()
	a.SetData(testOrders())

	trend := a.FoodTypeTrend()
	if len(trend) != 3 {
		t.Fatalf("expected 3 months, got %d", len(trend))
	}

	jan := trend[0]
	if jan.Month != "2025-01" {
		t.Fatalf("expected first month 2025-01, got %q", jan.Month)
	}
	if jan.VegSales != 250 || jan.NonVegSales != 350 {
		t.Errorf("expected Jan veg=250 nonveg=350, got %+v", jan)
	}
}

func TestAnalytics_StateSales(t *testing.T) {
	a := NewAnalytics()
	a.SetData(testOrders())

	states := a.StateSales()
	if len(states) != 3 {
		t.Fatalf("expected 3 states, got %d", len(states))
	}

	// Revenue descending: Delhi 450, Karnataka 400, Tamil Nadu 350.
	if states[0].State != "Delhi" || states[1].State != "Karnataka" || states[2].State != "Tamil Nadu" {
		t.Errorf("states out of order: %+v", states)
	}
	if states[1].Orders != 2 {
		t.Errorf("expected 2 Karnataka orders, got %d", states[1].Orders)
	}
	if states[0].Lat == 0 || states[0].Lon == 0 {
		t.Error("known state should carry map coordinates")
	}
}

func TestAnalytics_TopCities(t *testing.T) {
	a := NewAnalytics()
	a.SetData(testOrders())

	cities := a.TopCities(2)
	if len(cities) != 2 {
		t.Fatalf("expected limit of 2 cities, got %d", len(cities))
	}
	if cities[0].City != "New Delhi" {
		t.Errorf("expected New Delhi first, got %q", cities[0].City)
	}
	if cities[0].Sales < cities[1].Sales {
		t.Error("TopCities() should be sorted by sales descending")
	}
}

func TestAnalytics_Quarterly(t *testing.T) {
	a := NewAnalytics()
	a.SetData(testOrders())

	quarterly := a.Quarterly()
	if len(quarterly) != 2 {
		t.Fatalf("expected 2 quarters, got %d", len(quarterly))
	}

	q1 := quarterly[0]
	if q1.Quarter != "2025Q1" {
		t.Fatalf("expected 2025Q1 first, got %q", q1.Quarter)
	}
	if q1.TotalSales != 750 || q1.TotalOrders != 3 {
		t.Errorf("unexpected Q1 totals: %+v", q1)
	}
	// NaN rating excluded: (4.0 + 5.0) / 2.
	if q1.AvgRating != 4.5 {
		t.Errorf("expected Q1 avg rating 4.5, got %f", q1.AvgRating)
	}

	if quarterly[1].Quarter != "2025Q2" {
		t.Errorf("expected 2025Q2 second, got %q", quarterly[1].Quarter)
	}
}

func TestAnalytics_LoadFromCSV_ValidData(t *testing.T) {
	validCSV := testHeader + `
15-01-25,Empire,Bengaluru,Karnataka,Paneer Tikka,Starters,250.00,4.2,120
16-01-25,Empire,Bengaluru,Karnataka,Dal Fry,Mains,220.00,4.0,80
17-01-25,Nagas,Chennai,Tamil Nadu,Chicken Biryani,Mains,280.00,4.5,150
03-02-25,Karim's,New Delhi,Delhi,Mutton Korma,Mains,260.00,3.9,90`

	f := createTempCSV(t, validCSV)
	defer os.Remove(f)

	a := NewAnalytics()
	if err := a.LoadFromCSV(context.Background(), f); err != nil {
		t.Fatalf("LoadFromCSV() with valid data should not error, got: %v", err)
	}

	summary := a.Summary()
	if summary.TotalOrders != 4 {
		t.Errorf("expected 4 orders, got %d", summary.TotalOrders)
	}

	trend := a.FoodTypeTrend()
	if len(trend) == 0 {
		t.Error("expected food-type trend data")
	}

	report := a.Report()
	if report.Clean.Output != 4 {
		t.Errorf("expected clean output 4, got %d", report.Clean.Output)
	}
}

func TestAnalytics_LoadFromCSV_DropsAndCleans(t *testing.T) {
	csv := testHeader + `
15-01-25,Empire,Bengaluru,Karnataka,Paneer Tikka,Starters,250.00,4.2,120
15-01-25,Empire,Bengaluru,Karnataka,Paneer Tikka,Starters,250.00,4.2,120
16-01-25,Empire,Bengaluru,Karnataka,Dal Fry,Mains,220.00,4.0,80
22-02-25,Empire,Bengaluru,Karnataka,Idli,Breakfast,240.00,4.1,60
17-01-25,Nagas,Chennai,Tamil Nadu,Chicken Biryani,Mains,invalid,4.5,150
bad-date,Nagas,Chennai,Tamil Nadu,Dosa,Breakfast,230.00,4.1,70
03-02-25,Karim's,New Delhi,Delhi,Mutton Korma,Mains,260.00,3.9,90`

	f := createTempCSV(t, csv)
	defer os.Remove(f)

	a := NewAnalytics()
	if err := a.LoadFromCSV(context.Background(), f); err != nil {
		t.Fatalf("LoadFromCSV() failed: %v", err)
	}

	report := a.Report()
	if report.ParseDrops["bad_price"] != 1 {
		t.Errorf("expected 1 bad_price drop, got %d", report.ParseDrops["bad_price"])
	}
	if report.ParseDrops["bad_date"] != 1 {
		t.Errorf("expected 1 bad_date drop, got %d", report.ParseDrops["bad_date"])
	}
	if report.Clean.Duplicates != 1 {
		t.Errorf("expected 1 duplicate drop, got %d", report.Clean.Duplicates)
	}
	if report.Clean.ExcludedDate != 1 {
		t.Errorf("expected 1 excluded-date drop, got %d", report.Clean.ExcludedDate)
	}

	if got := a.Summary().TotalOrders; got != 3 {
		t.Errorf("expected 3 surviving orders, got %d", got)
	}
}

func TestAnalytics_LoadFromCSV_InvalidData(t *testing.T) {
	tests := []struct {
		name    string
		csv     string
		wantErr bool
	}{
		{
			name:    "empty file",
			csv:     "",
			wantErr: true,
		},
		{
			name:    "missing columns",
			csv:     "Order Date,Restaurant Name",
			wantErr: true,
		},
		{
			name:    "header only",
			csv:     testHeader,
			wantErr: true,
		},
		{
			name:    "no valid rows",
			csv:     testHeader + "\nbad-date,Empire,Bengaluru,Karnataka,Dal Fry,Mains,150.00,4.0,10",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := createTempCSV(t, tt.csv)
			defer os.Remove(f)

			a := NewAnalytics()
			err := a.LoadFromCSV(context.Background(), f)

			if (err != nil) != tt.wantErr {
				t.Errorf("LoadFromCSV() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestAnalytics_SnapshotRoundTrip(t *testing.T) {
	a := NewAnalytics()
	a.SetData(testOrders())

	snapshot := a.Precomputed()

	b := NewAnalytics()
	b.RestoreSnapshot(snapshot)

	if b.Summary() != a.Summary() {
		t.Error("restored summary should match the original")
	}
	if len(b.MonthlySales()) != len(a.MonthlySales()) {
		t.Error("restored monthly series should match the original")
	}
}

func TestAnalytics_ConcurrentAccess(t *testing.T) {
	a := NewAnalytics()
	a.SetData(testOrders())

	done := make(chan bool, 10)
	for i := 0; i < 10; i++ {
		go func() {
			defer func() { done <- true }()

			_ = a.Summary()
			_ = a.MonthlySales()
			_ = a.WeeklySales()
			_ = a.FoodTypeTrend()
			_ = a.StateSales()
			_ = a.TopCities(5)
			_ = a.Quarterly()
		}()
	}

	for i := 0; i < 10; i++ {
		<-done
	}
}

func TestAnalytics_EmptyData(t *testing.T) {
	a := NewAnalytics()

	if len(a.MonthlySales()) != 0 {
		t.Error("MonthlySales() should be empty without data")
	}
	if len(a.StateSales()) != 0 {
		t.Error("StateSales() should be empty without data")
	}
	if len(a.TopCities(5)) != 0 {
		t.Error("TopCities() should be empty without data")
	}
	if s := a.Summary(); s.TotalOrders != 0 || s.TotalSales != 0 {
		t.Errorf("Summary() should be zero without data, got %+v", s)
	}
}

func TestWeekStart(t *testing.T) {
	tests := []struct {
		day  time.Time
		want string
	}{
		{time.Date(2025, 1, 13, 0, 0, 0, 0, time.UTC), "2025-01-13"}, // Monday
		{time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC), "2025-01-13"}, // Wednesday
		{time.Date(2025, 1, 19, 0, 0, 0, 0, time.UTC), "2025-01-13"}, // Sunday
		{time.Date(2025, 1, 20, 0, 0, 0, 0, time.UTC), "2025-01-20"}, // next Monday
	}

	for _, tt := range tests {
		if got := weekStart(tt.day).Format("2006-01-02"); got != tt.want {
			t.Errorf("weekStart(%s) = %s, want %s", tt.day.Format("2006-01-02"), got, tt.want)
		}
	}
}

func TestQuarterKey(t *testing.T) {
	tests := []struct {
		month time.Month
		want  string
	}{
		{time.January, "2025Q1"},
		{time.March, "2025Q1"},
		{time.April, "2025Q2"},
		{time.December, "2025Q4"},
	}

	for _, tt := range tests {
		d := time.Date(2025, tt.month, 10, 0, 0, 0, 0, time.UTC)
		if got := quarterKey(d); got != tt.want {
			t.Errorf("quarterKey(%s) = %q, want %q", d.Format("2006-01"), got, tt.want)
		}
	}
}

func BenchmarkAnalytics_ComputeAggregates(b *testing.B) {
	orders := make([]models.Order, 0, 5000)
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	states := []string{"Karnataka", "Maharashtra", "Tamil Nadu", "Delhi"}
	for i := 0; i < 5000; i++ {
		orders = append(orders, models.Order{
			Date:        base.AddDate(0, 0, i%180),
			Restaurant:  "R" + strings.Repeat("x", i%5),
			City:        "City-" + states[i%4],
			State:       states[i%4],
			Dish:        "Dish",
			FoodType:    models.FoodTypeVeg,
			Price:       100 + float64(i%400),
			Rating:      4.0,
			RatingCount: i % 300,
		})
	}

	for b.Loop() {
		_ = computeAggregates(orders)
	}
}
