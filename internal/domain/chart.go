package domain

// ChartKind selects how an aggregate is drawn.
type ChartKind string

const (
	ChartBar          ChartKind = "bar"
	ChartHeatmap      ChartKind = "heatmap"
	ChartDistribution ChartKind = "distribution"
)

// ChartMetric selects the value plotted for each bucket.
type ChartMetric string

const (
	MetricCount        ChartMetric = "count"
	MetricMeanSeverity ChartMetric = "mean_severity"
)

// ChartSpec describes one chart: a whole artifact for the correlation matrix,
// or one panel of a figure.
type ChartSpec struct {
	Name       string // artifact name when drawn on its own
	Title      string
	Kind       ChartKind
	Metric     ChartMetric
	XLabel     string
	YLabel     string
	Horizontal bool
	TopN       int      // 0 keeps every row
	Order      []string // explicit category order for single-key tables
	Omit       []string // single-key rows left out, e.g. Unknown

	// RankByMetric orders rows by the plotted metric, highest first, before
	// TopN is applied.
	RankByMetric bool

	// CellDegrees places heatmap cells on numeric axes spaced by this size.
	// Zero uses one nominal tick per distinct key.
	CellDegrees float64
}

// Panel pairs one chart with the table it draws.
type Panel struct {
	Spec  ChartSpec
	Table AggregateTable
}

// FigureSpec lays panels out row by row in one image artifact.
type FigureSpec struct {
	Name  string // artifact name, e.g. "time_pattern_analysis.png"
	Title string // drawn above the panels when there is more than one
	Cols  int    // panels per row; zero puts every panel in one row
}
