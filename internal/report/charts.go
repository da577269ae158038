package report

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// DefaultAssetsHost serves the echarts scripts referenced by rendered pages.
const DefaultAssetsHost = "https://go-echarts.github.io/go-echarts-assets/assets/"

// ChartOptions controls page-level chart settings.
type ChartOptions struct {
	AssetsHost string
	Width      string
	Height     string
}

func (o ChartOptions) initialization(title string) opts.Initialization {
	cfg := opts.Initialization{
		PageTitle:  title,
		AssetsHost: o.AssetsHost,
		Width:      o.Width,
		Height:     o.Height,
	}
	if cfg.AssetsHost == "" {
		cfg.AssetsHost = DefaultAssetsHost
	}
	if cfg.Width == "" {
		cfg.Width = "900px"
	}
	if cfg.Height == "" {
		cfg.Height = "540px"
	}
	return cfg
}

func scoreAxis(name string) opts.YAxis {
	return opts.YAxis{Name: name, Min: 0, Max: 100}
}

// RenderDailyChart writes one employee's daily average line as an HTML page.
func RenderDailyChart(w io.Writer, series DailySeries, o ChartOptions) error {
	if series.NoData {
		return fmt.Errorf("render daily chart for %q: %s", series.EmployeeID, NoDataMessage)
	}

	title := fmt.Sprintf("%s 每日操作表现折线图", series.EmployeeID)
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(o.initialization(title)),
		charts.WithTitleOpts(opts.Title{Title: title}),
		charts.WithXAxisOpts(opts.XAxis{Name: "日期"}),
		charts.WithYAxisOpts(scoreAxis("每日平均评分 (0-100)")),
	)

	dates := make([]string, len(series.Points))
	data := make([]opts.LineData, len(series.Points))
	for i, p := range series.Points {
		dates[i] = string(p.Date)
		data[i] = opts.LineData{Value: p.AverageScore, Symbol: "circle"}
	}
	line.SetXAxis(dates).AddSeries(series.EmployeeID, data)

	return line.Render(w)
}

// RenderOverallChart writes the per-employee overall average bars as an HTML page.
func RenderOverallChart(w io.Writer, bars OverallBars, o ChartOptions) error {
	if bars.NoData {
		return fmt.Errorf("render overall chart: %s", NoDataMessage)
	}

	const title = "所有员工总平均评分对比"
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(o.initialization(title)),
		charts.WithTitleOpts(opts.Title{Title: title}),
		charts.WithXAxisOpts(opts.XAxis{Name: "员工ID"}),
		charts.WithYAxisOpts(scoreAxis("总平均评分 (0-100)")),
	)

	employees := make([]string, len(bars.Bars))
	data := make([]opts.BarData, len(bars.Bars))
	for i, b := range bars.Bars {
		employees[i] = b.EmployeeID
		data[i] = opts.BarData{Value: b.AverageScore}
	}
	bar.SetXAxis(employees).AddSeries("总平均评分", data)

	return bar.Render(w)
}
