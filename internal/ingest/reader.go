// Package ingest reads the raw Swiggy order export: a latin1-encoded CSV with
// dd-mm-yy dates and the occasional unquoted comma inside the dish name.
package ingest

import (
	"bufio"
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"swiggy-dashboard/internal/models"
)

const dateLayout = "02-01-06"

var (
	ErrShortRow       = errors.New("row has fewer fields than the header")
	ErrBadDate        = errors.New("unparsable order date")
	ErrBadPrice       = errors.New("unparsable price")
	ErrBadRatingCount = errors.New("unparsable rating count")
)

// DropReason labels why a row was rejected, for metrics and stats.
type DropReason string

const (
	DropShortRow       DropReason = "short_row"
	DropBadDate        DropReason = "bad_date"
	DropBadPrice       DropReason = "bad_price"
	DropBadRatingCount DropReason = "bad_rating_count"
)

// Reason maps a ParseLine error to its drop-counter label.
func Reason(err error) DropReason {
	switch {
	case errors.Is(err, ErrShortRow):
		return DropShortRow
	case errors.Is(err, ErrBadDate):
		return DropBadDate
	case errors.Is(err, ErrBadPrice):
		return DropBadPrice
	default:
		return DropBadRatingCount
	}
}

// Columns holds the resolved field positions from the header row.
type Columns struct {
	Date        int
	Restaurant  int
	City        int
	State       int
	Dish        int
	Category    int
	Price       int
	Rating      int
	RatingCount int
	Width       int
}

// Reader streams lines from the export, transcoding latin1 to UTF-8.
type Reader struct {
	file    *os.File
	scanner *bufio.Scanner
	cols    Columns
}

func Open(filename string) (*Reader, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}

	decoded := transform.NewReader(file, charmap.ISO8859_1.NewDecoder())
	scanner := bufio.NewScanner(decoded)
	scanner.Buffer(make([]byte, 1024*1024), 10*1024*1024) // 10MB buffer

	if !scanner.Scan() {
		file.Close()
		return nil, fmt.Errorf("empty file")
	}

	cols, err := resolveColumns(scanner.Text())
	if err != nil {
		file.Close()
		return nil, err
	}

	return &Reader{file: file, scanner: scanner, cols: cols}, nil
}

func (r *Reader) Columns() Columns { return r.cols }
func (r *Reader) Scan() bool       { return r.scanner.Scan() }
func (r *Reader) Line() string     { return r.scanner.Text() }
func (r *Reader) Err() error       { return r.scanner.Err() }
func (r *Reader) Close() error     { return r.file.Close() }

func resolveColumns(header string) (Columns, error) {
	index := make(map[string]int)
	fields := strings.Split(header, ",")
	for i, name := range fields {
		index[strings.ToLower(strings.TrimSpace(name))] = i
	}

	cols := Columns{Width: len(fields)}
	var missing []string

	lookup := func(name string) int {
		if i, ok := index[name]; ok {
			return i
		}
		missing = append(missing, name)
		return -1
	}

	cols.Date = lookup("order date")
	cols.Restaurant = lookup("restaurant name")
	cols.City = lookup("city")
	cols.State = lookup("state")
	cols.Dish = lookup("dish name")
	cols.Category = lookup("category")
	cols.Price = lookup("price (inr)")
	cols.Rating = lookup("rating")
	cols.RatingCount = lookup("rating count")

	if len(missing) > 0 {
		return Columns{}, fmt.Errorf("header missing required columns: %s", strings.Join(missing, ", "))
	}
	return cols, nil
}

// ParseLine parses one data row into an order. Rows that split into more
// fields than the header are repaired by folding the overflow back into the
// dish name, which is the only free-text column in the export.
func ParseLine(cols Columns, line string) (models.Order, error) {
	fields := strings.Split(line, ",")
	overflow := len(fields) - cols.Width
	if overflow < 0 {
		return models.Order{}, ErrShortRow
	}

	field := func(idx int) string {
		if idx > cols.Dish {
			idx += overflow
		}
		return strings.TrimSpace(fields[idx])
	}
	dish := strings.TrimSpace(strings.Join(fields[cols.Dish:cols.Dish+overflow+1], ","))

	date, err := time.Parse(dateLayout, field(cols.Date))
	if err != nil {
		return models.Order{}, fmt.Errorf("%w: %q", ErrBadDate, field(cols.Date))
	}

	price, err := strconv.ParseFloat(field(cols.Price), 64)
	if err != nil {
		return models.Order{}, fmt.Errorf("%w: %q", ErrBadPrice, field(cols.Price))
	}

	// Missing or malformed ratings are kept as NaN and excluded from averages.
	rating := math.NaN()
	if v, err := strconv.ParseFloat(field(cols.Rating), 64); err == nil {
		rating = v
	}

	ratingCount := 0
	if s := field(cols.RatingCount); s != "" {
		ratingCount, err = strconv.Atoi(s)
		if err != nil {
			return models.Order{}, fmt.Errorf("%w: %q", ErrBadRatingCount, s)
		}
	}

	return models.Order{
		Date:        date,
		Restaurant:  field(cols.Restaurant),
		City:        field(cols.City),
		State:       field(cols.State),
		Dish:        dish,
		Category:    field(cols.Category),
		Price:       price,
		Rating:      rating,
		RatingCount: ratingCount,
	}, nil
}
