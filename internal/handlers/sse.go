package handlers

import (
	"encoding/json"
	"html/template"
	"log/slog"
	"net/http"
	"strings"

	"github.com/starfederation/datastar-go/datastar"

	"swiggy-dashboard/internal/models"
	"swiggy-dashboard/internal/services"
)

var kpiTemplate = template.Must(template.New("kpiCards").Parse(`
<div id="kpi-content" class="kpi-row">
<div class="kpi-card"><span class="kpi-label">Total Sales</span><strong>&#8377;{{printf "%.0f" .TotalSales}}</strong></div>
<div class="kpi-card"><span class="kpi-label">Total Orders</span><strong>{{.TotalOrders}}</strong></div>
<div class="kpi-card"><span class="kpi-label">Avg Order Value</span><strong>&#8377;{{printf "%.0f" .AvgOrderValue}}</strong></div>
<div class="kpi-card"><span class="kpi-label">Avg Rating</span><strong>{{printf "%.2f" .AvgRating}}</strong></div>
<div class="kpi-card"><span class="kpi-label">Rating Count</span><strong>{{.RatingCount}}</strong></div>
</div>`))

var cityTableTemplate = template.Must(template.New("cityTable").Parse(`
<div id="cities-content">
<table class="modern-table">
<thead><tr><th>City</th><th>Sales</th><th>Orders</th></tr></thead>
<tbody>
{{range .}}<tr>
<td>{{.City}}</td>
<td><strong>&#8377;{{printf "%.0f" .Sales}}</strong></td>
<td>{{.Orders}}</td>
</tr>{{end}}
</tbody>
</table>
</div>`))

var quarterlyTableTemplate = template.Must(template.New("quarterlyTable").Parse(`
<div id="quarterly-content">
<table class="modern-table">
<thead><tr><th>Quarter</th><th>Total Sales</th><th>Orders</th><th>Avg Rating</th></tr></thead>
<tbody>
{{range .}}<tr>
<td>{{.Quarter}}</td>
<td><strong>&#8377;{{printf "%.0f" .TotalSales}}</strong></td>
<td>{{.TotalOrders}}</td>
<td>{{printf "%.2f" .AvgRating}}</td>
</tr>{{end}}
</tbody>
</table>
</div>`))

type SSEHandlers struct {
	analytics *services.Analytics
	logger    *slog.Logger
}

func NewSSEHandlers(analytics *services.Analytics, logger *slog.Logger) *SSEHandlers {
	return &SSEHandlers{
		analytics: analytics,
		logger:    logger,
	}
}

func (h *SSEHandlers) renderKPICards(summary models.Summary) (string, error) {
	var buf strings.Builder
	err := kpiTemplate.Execute(&buf, summary)
	return buf.String(), err
}

func (h *SSEHandlers) renderCityTable(cities []models.CitySales) (string, error) {
	var buf strings.Builder
	err := cityTableTemplate.Execute(&buf, cities)
	return buf.String(), err
}

func (h *SSEHandlers) renderQuarterlyTable(quarters []models.QuarterlySummary) (string, error) {
	var buf strings.Builder
	err := quarterlyTableTemplate.Execute(&buf, quarters)
	return buf.String(), err
}

func (h *SSEHandlers) HandleSummary(w http.ResponseWriter, r *http.Request) {
	sse := datastar.NewSSE(w, r)

	html, err := h.renderKPICards(h.analytics.Summary())
	if err != nil {
		h.logger.Error("render kpi cards", "error", err)
		return
	}

	sse.PatchElements(html)

	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}

func (h *SSEHandlers) HandleMonthlySales(w http.ResponseWriter, r *http.Request) {
	sse := datastar.NewSSE(w, r)

	jsonData, err := json.Marshal(map[string]any{
		"monthlyData": h.analytics.MonthlySales(),
		"dailyData":   h.analytics.DailySales(),
	})
	if err != nil {
		h.logger.Error("marshal monthly data", "error", err)
		return
	}
	sse.PatchSignals(jsonData)

	sse.PatchElements(`<div id="monthly-content">Monthly and daily trend data loaded</div>`)

	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}

func (h *SSEHandlers) HandleWeeklySales(w http.ResponseWriter, r *http.Request) {
	sse := datastar.NewSSE(w, r)

	jsonData, err := json.Marshal(map[string]any{
		"weeklyData": h.analytics.WeeklySales(),
	})
	if err != nil {
		h.logger.Error("marshal weekly data", "error", err)
		return
	}
	sse.PatchSignals(jsonData)

	sse.PatchElements(`<div id="weekly-content">Weekly trend data loaded</div>`)

	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}

func (h *SSEHandlers) HandleFoodTypeTrend(w http.ResponseWriter, r *http.Request) {
	sse := datastar.NewSSE(w, r)

	jsonData, err := json.Marshal(map[string]any{
		"foodTypeData": h.analytics.FoodTypeTrend(),
	})
	if err != nil {
		h.logger.Error("marshal food type data", "error", err)
		return
	}
	sse.PatchSignals(jsonData)

	sse.PatchElements(`<div id="foodtype-content">Veg / non-veg trend data loaded</div>`)

	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}

func (h *SSEHandlers) HandleStateSales(w http.ResponseWriter, r *http.Request) {
	sse := datastar.NewSSE(w, r)

	jsonData, err := json.Marshal(map[string]any{
		"statesData": h.analytics.StateSales(),
	})
	if err != nil {
		h.logger.Error("marshal state data", "error", err)
		return
	}
	sse.PatchSignals(jsonData)
	sse.PatchElements(`<div id="states-content">State map data loaded</div>`)

	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}

func (h *SSEHandlers) HandleTopCities(w http.ResponseWriter, r *http.Request) {
	sse := datastar.NewSSE(w, r)

	html, err := h.renderCityTable(h.analytics.TopCities(topCitiesLimit))
	if err != nil {
		h.logger.Error("render city table", "error", err)
		return
	}

	sse.PatchElements(html)

	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}

func (h *SSEHandlers) HandleQuarterly(w http.ResponseWriter, r *http.Request) {
	sse := datastar.NewSSE(w, r)

	html, err := h.renderQuarterlyTable(h.analytics.Quarterly())
	if err != nil {
		h.logger.Error("render quarterly table", "error", err)
		return
	}

	sse.PatchElements(html)

	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}

// HandleRefreshAll re-sends every section in one stream.
func (h *SSEHandlers) HandleRefreshAll(w http.ResponseWriter, r *http.Request) {
	sse := datastar.NewSSE(w, r)

	kpiHTML, err := h.renderKPICards(h.analytics.Summary())
	if err != nil {
		h.logger.Error("render kpi cards", "error", err)
		return
	}
	sse.PatchElements(kpiHTML)

	cityHTML, err := h.renderCityTable(h.analytics.TopCities(topCitiesLimit))
	if err != nil {
		h.logger.Error("render city table", "error", err)
		return
	}
	sse.PatchElements(cityHTML)

	quarterlyHTML, err := h.renderQuarterlyTable(h.analytics.Quarterly())
	if err != nil {
		h.logger.Error("render quarterly table", "error", err)
		return
	}
	sse.PatchElements(quarterlyHTML)

	allSignals, err := json.Marshal(map[string]any{
		"monthlyData":  h.analytics.MonthlySales(),
		"dailyData":    h.analytics.DailySales(),
		"weeklyData":   h.analytics.WeeklySales(),
		"foodTypeData": h.analytics.FoodTypeTrend(),
		"statesData":   h.analytics.StateSales(),
	})
	if err != nil {
		h.logger.Error("marshal all signals data", "error", err)
		return
	}
	sse.PatchSignals(allSignals)

	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}
