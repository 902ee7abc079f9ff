package services

import (
	"math"
	"sort"
	"strings"
	"time"

	"swiggy-dashboard/internal/models"
)

// 22 Feb 2025 is a known bad export day and is excluded outright.
var excludedDate = time.Date(2025, 2, 22, 0, 0, 0, 0, time.UTC)

var nonVegKeywords = []string{
	"chicken",
	"mutton",
	"egg",
	"fish",
	"prawn",
	"meat",
	"non veg",
	"non-veg",
	"bacon",
}

// CleanReport counts what each remediation step removed.
type CleanReport struct {
	Input               int   `json:"input"`
	Output              int   `json:"output"`
	ExcludedDate        int64 `json:"excluded_date"`
	Duplicates          int64 `json:"duplicates"`
	PriceOutliers       int64 `json:"price_outliers"`
	RatingOutOfRange    int64 `json:"rating_out_of_range"`
	RatingCountOutliers int64 `json:"rating_count_outliers"`
}

// Clean applies the remediation steps in a fixed order: excluded-date filter,
// duplicate removal, price trim, rating range check, rating-count trim, then
// food-type classification. The input slice is not modified.
func Clean(orders []models.Order) ([]models.Order, CleanReport) {
	report := CleanReport{Input: len(orders)}

	kept := make([]models.Order, 0, len(orders))
	seen := make(map[string]struct{}, len(orders))
	for _, o := range orders {
		y, m, d := o.Date.Date()
		ey, em, ed := excludedDate.Date()
		if y == ey && m == em && d == ed {
			report.ExcludedDate++
			continue
		}
		key := o.DedupeKey()
		if _, dup := seen[key]; dup {
			report.Duplicates++
			continue
		}
		seen[key] = struct{}{}
		kept = append(kept, o)
	}

	kept, report.PriceOutliers = trimPriceOutliers(kept)
	kept, report.RatingOutOfRange = trimRatingRange(kept)
	kept, report.RatingCountOutliers = trimRatingCountOutliers(kept)

	for i := range kept {
		kept[i].FoodType = classifyFoodType(kept[i].Category, kept[i].Dish)
	}

	report.Output = len(kept)
	return kept, report
}

// trimPriceOutliers drops non-positive prices, then everything outside the
// 1.5*IQR fences.
func trimPriceOutliers(orders []models.Order) ([]models.Order, int64) {
	var dropped int64

	positive := orders[:0:0]
	for _, o := range orders {
		if o.Price > 0 && !math.IsNaN(o.Price) {
			positive = append(positive, o)
		} else {
			dropped++
		}
	}
	if len(positive) == 0 {
		return positive, dropped
	}

	prices := make([]float64, len(positive))
	for i, o := range positive {
		prices[i] = o.Price
	}
	q1, q3 := quantile(prices, 0.25), quantile(prices, 0.75)
	iqr := q3 - q1
	lo, hi := q1-1.5*iqr, q3+1.5*iqr

	kept := positive[:0:0]
	for _, o := range positive {
		if o.Price >= lo && o.Price <= hi {
			kept = append(kept, o)
		} else {
			dropped++
		}
	}
	return kept, dropped
}

// trimRatingRange drops ratings outside [0, 5]; unrated orders stay.
func trimRatingRange(orders []models.Order) ([]models.Order, int64) {
	var dropped int64
	kept := orders[:0:0]
	for _, o := range orders {
		if !o.Rated() || (o.Rating >= 0 && o.Rating <= 5) {
			kept = append(kept, o)
		} else {
			dropped++
		}
	}
	return kept, dropped
}

// trimRatingCountOutliers drops negative counts, then everything above the
// upper 1.5*IQR fence when the spread is non-degenerate.
func trimRatingCountOutliers(orders []models.Order) ([]models.Order, int64) {
	var dropped int64

	nonNegative := orders[:0:0]
	for _, o := range orders {
		if o.RatingCount >= 0 {
			nonNegative = append(nonNegative, o)
		} else {
			dropped++
		}
	}
	if len(nonNegative) == 0 {
		return nonNegative, dropped
	}

	counts := make([]float64, len(nonNegative))
	for i, o := range nonNegative {
		counts[i] = float64(o.RatingCount)
	}
	q1, q3 := quantile(counts, 0.25), quantile(counts, 0.75)
	iqr := q3 - q1
	if iqr <= 0 {
		return nonNegative, dropped
	}
	hi := q3 + 1.5*iqr

	kept := nonNegative[:0:0]
	for _, o := range nonNegative {
		if float64(o.RatingCount) <= hi {
			kept = append(kept, o)
		} else {
			dropped++
		}
	}
	return kept, dropped
}

func classifyFoodType(category, dish string) models.FoodType {
	text := strings.ToLower(category + " " + dish)
	for _, kw := range nonVegKeywords {
		if strings.Contains(text, kw) {
			return models.FoodTypeNonVeg
		}
	}
	return models.FoodTypeVeg
}

// quantile computes the q-th quantile with linear interpolation between the
// closest ranks. The input is copied, not reordered.
func quantile(values []float64, q float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo] + frac*(sorted[hi]-sorted[lo])
}
