// Package templates holds the dashboard page components. They are written
// against the templ runtime directly so the page stays a plain Go package.
package templates

import (
	"context"
	"io"

	"github.com/a-h/templ"
)

// Dashboard renders the full analytics page. Every section self-loads its
// data over the Datastar SSE endpoints.
func Dashboard() templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := io.WriteString(w, dashboardPage)
		return err
	})
}

const dashboardPage = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Swiggy Sales Analytics</title>
<script type="module" src="https://cdn.jsdelivr.net/gh/starfederation/datastar@v1.0.0/bundles/datastar.js"></script>
<script src="https://cdn.jsdelivr.net/npm/chart.js@4"></script>
<style>
body { font-family: system-ui, sans-serif; margin: 0; background: #f5f6f8; color: #1d2129; }
header { background: #fc8019; color: #fff; padding: 1rem 2rem; }
header h1 { margin: 0; font-size: 1.4rem; }
header p { margin: .25rem 0 0; opacity: .9; font-size: .85rem; }
main { padding: 1.5rem 2rem; display: grid; gap: 1.5rem; }
section { background: #fff; border-radius: 8px; padding: 1rem 1.25rem; box-shadow: 0 1px 3px rgba(0,0,0,.08); }
section h2 { margin-top: 0; font-size: 1.05rem; }
.kpi-row { display: flex; gap: 1rem; flex-wrap: wrap; }
.kpi-card { flex: 1; min-width: 140px; background: #fff7f0; border-radius: 8px; padding: .75rem 1rem; display: flex; flex-direction: column; gap: .25rem; }
.kpi-label { font-size: .75rem; text-transform: uppercase; color: #8a8d91; }
.kpi-card strong { font-size: 1.3rem; }
.modern-table { width: 100%; border-collapse: collapse; font-size: .9rem; }
.modern-table th, .modern-table td { text-align: left; padding: .5rem .6rem; border-bottom: 1px solid #eceef1; }
.chart-grid { display: grid; grid-template-columns: 1fr 1fr; gap: 1.5rem; }
canvas { max-height: 320px; }
.refresh { float: right; background: #fc8019; color: #fff; border: 0; border-radius: 6px; padding: .4rem .9rem; cursor: pointer; }
</style>
<script>
const charts = {};
function drawLine(id, labels, datasets) {
  if (charts[id]) charts[id].destroy();
  charts[id] = new Chart(document.getElementById(id), {
    type: 'line',
    data: { labels, datasets },
    options: { responsive: true, plugins: { legend: { display: datasets.length > 1 } } }
  });
}
function drawBar(id, labels, data, label) {
  if (charts[id]) charts[id].destroy();
  charts[id] = new Chart(document.getElementById(id), {
    type: 'bar',
    data: { labels, datasets: [{ label, data, backgroundColor: '#fc8019' }] },
    options: { responsive: true }
  });
}
</script>
</head>
<body data-signals="{monthlyData: [], dailyData: [], weeklyData: [], foodTypeData: [], statesData: []}">
<header>
<h1>Swiggy Sales Analytics Dashboard</h1>
<p>Cleaned order data: duplicates and outliers removed; 22 Feb 2025 excluded.</p>
</header>
<main>
<section data-on-load="@get('/sse/summary')">
<h2>Key Metrics <button class="refresh" data-on-click="@get('/sse/refresh-all')">Refresh</button></h2>
<div id="kpi-content">Loading KPIs&hellip;</div>
</section>

<section data-on-load="@get('/sse/monthly-sales')"
  data-effect="$monthlyData.length && drawLine('monthly-chart', $monthlyData.map(m => m.month), [{label: 'Sales', data: $monthlyData.map(m => m.sales), borderColor: '#fc8019'}]);
               $dailyData.length && drawLine('daily-chart', $dailyData.map(d => d.date), [{label: 'Sales', data: $dailyData.map(d => d.sales), borderColor: '#2e86de'}])">
<h2>Monthly and Daily Sales Trends</h2>
<div id="monthly-content">Loading trends&hellip;</div>
<div class="chart-grid">
<canvas id="monthly-chart"></canvas>
<canvas id="daily-chart"></canvas>
</div>
</section>

<section data-on-load="@get('/sse/weekly-sales')"
  data-effect="$weeklyData.length && drawLine('weekly-chart', $weeklyData.map(w => w.week_start), [{label: 'Sales', data: $weeklyData.map(w => w.sales), borderColor: '#10ac84'}])">
<h2>Weekly Trend Analysis</h2>
<div id="weekly-content">Loading weekly trend&hellip;</div>
<canvas id="weekly-chart"></canvas>
</section>

<section data-on-load="@get('/sse/food-type-trend')"
  data-effect="$foodTypeData.length && drawLine('foodtype-chart', $foodTypeData.map(f => f.month), [{label: 'Veg', data: $foodTypeData.map(f => f.veg_sales), borderColor: '#10ac84'}, {label: 'Non Veg', data: $foodTypeData.map(f => f.non_veg_sales), borderColor: '#ee5253'}])">
<h2>Sales Trend by Food Type (Veg vs Non Veg)</h2>
<div id="foodtype-content">Loading food type split&hellip;</div>
<canvas id="foodtype-chart"></canvas>
</section>

<section data-on-load="@get('/sse/state-sales')"
  data-effect="$statesData.length && drawBar('states-chart', $statesData.map(s => s.state), $statesData.map(s => s.sales), 'Sales by State')">
<h2>Total Sales by State</h2>
<div id="states-content">Loading state sales&hellip;</div>
<canvas id="states-chart"></canvas>
</section>

<section data-on-load="@get('/sse/top-cities')">
<h2>Top 5 Cities by Sales</h2>
<div id="cities-content">Loading city ranking&hellip;</div>
</section>

<section data-on-load="@get('/sse/quarterly')">
<h2>Quarterly Performance Summary</h2>
<div id="quarterly-content">Loading quarterly summary&hellip;</div>
</section>
</main>
</body>
</html>
`
