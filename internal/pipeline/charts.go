package pipeline

import (
	"strconv"

	"github.com/couchcryptid/accident-insights/internal/aggregate"
	"github.com/couchcryptid/accident-insights/internal/domain"
)

// Chart artifact names.
const (
	ChartTimePattern = "time_pattern_analysis.png"
	ChartTimePeriod  = "time_period_analysis.png"
	ChartWeather     = "weather_analysis.png"
	ChartSeverity    = "severity_analysis.png"
	ChartGeographic  = "geographic_hotspots.png"
	ChartCorrelation = "correlation_matrix.png"
)

const (
	countAxisLabel    = "Number of Accidents"
	severityAxisLabel = "Average Severity"
	defaultTopWeather = 10
)

// Panel pairs one chart spec with the summary table it draws.
type Panel struct {
	Spec  domain.ChartSpec
	Table func(aggregate.Summary) domain.AggregateTable
}

// Chart is one image artifact. Nil Panels draws the correlation matrix.
type Chart struct {
	Figure domain.FigureSpec
	Panels []Panel
}

// Resolve pairs every panel with its table from s.
func (c Chart) Resolve(s aggregate.Summary) []domain.Panel {
	out := make([]domain.Panel, len(c.Panels))
	for i, p := range c.Panels {
		out[i] = domain.Panel{Spec: p.Spec, Table: p.Table(s)}
	}
	return out
}

// Charts returns the fixed chart set in render order.
func Charts(severityLevels []int, topCategories int, gridDegrees float64) []Chart {
	if topCategories <= 0 {
		topCategories = defaultTopWeather
	}
	levels := make([]string, len(severityLevels))
	for i, l := range severityLevels {
		levels[i] = strconv.Itoa(l)
	}
	top := strconv.Itoa(topCategories)

	return []Chart{
		{
			Figure: domain.FigureSpec{Name: ChartTimePattern, Title: "Temporal Patterns of Accidents", Cols: 3},
			Panels: []Panel{
				{
					Spec: domain.ChartSpec{
						Title:  "Accidents by Hour of Day",
						Kind:   domain.ChartBar,
						XLabel: "Hour",
						YLabel: countAxisLabel,
						Order:  aggregate.HourLevels(),
					},
					Table: func(s aggregate.Summary) domain.AggregateTable { return s.ByHour },
				},
				{
					Spec: domain.ChartSpec{
						Title:  "Accidents by Day of Week",
						Kind:   domain.ChartBar,
						XLabel: "Day",
						YLabel: countAxisLabel,
						Order:  domain.Weekdays,
					},
					Table: func(s aggregate.Summary) domain.AggregateTable { return s.ByDayOfWeek },
				},
				{
					Spec: domain.ChartSpec{
						Title:  "Accidents by Time Period",
						Kind:   domain.ChartBar,
						XLabel: "Time Period",
						YLabel: countAxisLabel,
						Order:  domain.TimePeriods,
					},
					Table: func(s aggregate.Summary) domain.AggregateTable { return s.ByTimePeriod },
				},
				{
					Spec: domain.ChartSpec{
						Title:  "Accidents by Month",
						Kind:   domain.ChartBar,
						XLabel: "Month",
						YLabel: countAxisLabel,
						Order:  aggregate.MonthLevels(),
					},
					Table: func(s aggregate.Summary) domain.AggregateTable { return s.ByMonth },
				},
				{
					Spec: domain.ChartSpec{
						Title:  "Weekday vs Weekend",
						Kind:   domain.ChartBar,
						YLabel: countAxisLabel,
						Order:  []string{aggregate.Weekday, aggregate.Weekend},
					},
					Table: func(s aggregate.Summary) domain.AggregateTable { return s.ByDayType },
				},
				{
					Spec: domain.ChartSpec{
						Title:  "Accidents by Day and Hour",
						Kind:   domain.ChartHeatmap,
						XLabel: "Hour",
						YLabel: "Day",
					},
					Table: func(s aggregate.Summary) domain.AggregateTable { return s.ByDayHour },
				},
			},
		},
		{
			Figure: domain.FigureSpec{Name: ChartTimePeriod, Title: "Accidents by Time Period", Cols: 2},
			Panels: []Panel{
				{
					Spec: domain.ChartSpec{
						Title:  "Accident Count by Time Period",
						Kind:   domain.ChartBar,
						XLabel: "Time Period",
						YLabel: countAxisLabel,
						Order:  domain.TimePeriods,
					},
					Table: func(s aggregate.Summary) domain.AggregateTable { return s.ByTimePeriod },
				},
				{
					Spec: domain.ChartSpec{
						Title:  "Average Severity by Time Period",
						Kind:   domain.ChartBar,
						Metric: domain.MetricMeanSeverity,
						XLabel: "Time Period",
						YLabel: severityAxisLabel,
						Order:  domain.TimePeriods,
					},
					Table: func(s aggregate.Summary) domain.AggregateTable { return s.ByTimePeriod },
				},
			},
		},
		{
			Figure: domain.FigureSpec{Name: ChartWeather, Title: "Weather Conditions", Cols: 2},
			Panels: []Panel{
				{
					Spec: domain.ChartSpec{
						Title:      "Top " + top + " Weather Conditions",
						Kind:       domain.ChartBar,
						XLabel:     countAxisLabel,
						Horizontal: true,
						TopN:       topCategories,
					},
					Table: func(s aggregate.Summary) domain.AggregateTable { return s.ByWeather },
				},
				{
					Spec: domain.ChartSpec{
						Title:        "Average Severity by Weather (Top " + top + ")",
						Kind:         domain.ChartBar,
						Metric:       domain.MetricMeanSeverity,
						XLabel:       severityAxisLabel,
						Horizontal:   true,
						TopN:         topCategories,
						Omit:         []string{domain.Unknown},
						RankByMetric: true,
					},
					Table: func(s aggregate.Summary) domain.AggregateTable { return s.ByWeather },
				},
			},
		},
		{
			Figure: domain.FigureSpec{Name: ChartSeverity},
			Panels: []Panel{{
				Spec: domain.ChartSpec{
					Title:  "Accident Severity Distribution",
					Kind:   domain.ChartDistribution,
					XLabel: "Severity Level",
					YLabel: countAxisLabel,
					Order:  levels,
				},
				Table: func(s aggregate.Summary) domain.AggregateTable { return s.BySeverity },
			}},
		},
		{
			Figure: domain.FigureSpec{Name: ChartGeographic},
			Panels: []Panel{{
				Spec: domain.ChartSpec{
					Title:       "Geographic Distribution of Accidents",
					Kind:        domain.ChartHeatmap,
					XLabel:      "Longitude",
					YLabel:      "Latitude",
					CellDegrees: gridDegrees,
				},
				Table: func(s aggregate.Summary) domain.AggregateTable { return s.ByGeoCell },
			}},
		},
		{
			Figure: domain.FigureSpec{Name: ChartCorrelation, Title: "Correlation Matrix"},
		},
	}
}

// matrixSpec is the chart spec the correlation figure draws with.
func (c Chart) matrixSpec() domain.ChartSpec {
	return domain.ChartSpec{Name: c.Figure.Name, Title: c.Figure.Title, Kind: domain.ChartHeatmap}
}
