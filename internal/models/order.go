package models

import (
	"math"
	"strconv"
	"time"
)

// FoodType is the veg / non-veg analysis dimension derived during cleaning.
type FoodType string

const (
	FoodTypeVeg    FoodType = "Veg"
	FoodTypeNonVeg FoodType = "Non Veg"
)

// Order is one cleaned order line from the dataset.
type Order struct {
	Date        time.Time
	Restaurant  string
	City        string
	State       string
	Dish        string
	Category    string
	FoodType    FoodType
	Price       float64
	Rating      float64 // NaN when the source row carried no rating
	RatingCount int
}

// Rated reports whether the order carries a usable rating.
func (o Order) Rated() bool {
	return !math.IsNaN(o.Rating)
}

// DedupeKey identifies an order line for duplicate removal.
func (o Order) DedupeKey() string {
	return o.Date.Format("2006-01-02") + "|" + o.Restaurant + "|" + o.Dish + "|" +
		strconv.FormatFloat(o.Price, 'f', 2, 64)
}

type Summary struct {
	TotalSales    float64 `json:"total_sales"`
	TotalOrders   int64   `json:"total_orders"`
	AvgOrderValue float64 `json:"avg_order_value"`
	AvgRating     float64 `json:"avg_rating"`
	RatingCount   int64   `json:"rating_count"`
}

type MonthlySales struct {
	Month string  `json:"month"` // YYYY-MM
	Sales float64 `json:"sales"`
}

type DailySales struct {
	Date  string  `json:"date"` // YYYY-MM-DD
	Sales float64 `json:"sales"`
}

type WeeklySales struct {
	WeekStart string  `json:"week_start"` // Monday, YYYY-MM-DD
	Sales     float64 `json:"sales"`
}

type FoodTypeSales struct {
	Month       string  `json:"month"`
	VegSales    float64 `json:"veg_sales"`
	NonVegSales float64 `json:"non_veg_sales"`
}

type StateSales struct {
	State  string  `json:"state"`
	Sales  float64 `json:"sales"`
	Orders int     `json:"orders"`
	Lat    float64 `json:"lat,omitempty"`
	Lon    float64 `json:"lon,omitempty"`
}

type CitySales struct {
	City   string  `json:"city"`
	Sales  float64 `json:"sales"`
	Orders int     `json:"orders"`
}

type QuarterlySummary struct {
	Quarter     string  `json:"quarter"` // YYYYQn
	TotalSales  float64 `json:"total_sales"`
	TotalOrders int     `json:"total_orders"`
	AvgRating   float64 `json:"avg_rating"`
}
