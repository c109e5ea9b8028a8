// Package chart draws aggregate tables and the correlation matrix as PNG
// images.
package chart

import (
	"errors"
	"fmt"
	"image/color"
	"io"
	"log/slog"
	"math"
	"slices"
	"sort"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/text"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/couchcryptid/accident-insights/internal/adapter/output"
	"github.com/couchcryptid/accident-insights/internal/aggregate"
	"github.com/couchcryptid/accident-insights/internal/domain"
)

var errNoData = errors.New("no data to plot")

const (
	defaultWidth  = 10 * vg.Inch
	defaultHeight = 6 * vg.Inch
	panelWidth    = 5.5 * vg.Inch
	panelHeight   = 4.5 * vg.Inch
	titleHeight   = 0.6 * vg.Inch
	maxBarWidth   = 40 // points
	heatColors    = 12
	corrColors    = 21
)

var (
	barColor = color.RGBA{R: 70, G: 130, B: 180, A: 255}
	nanColor = color.RGBA{R: 235, G: 235, B: 235, A: 255}
)

// Renderer writes one PNG per figure through a Sink. Failures never stop the
// caller from rendering further figures.
type Renderer struct {
	sink   output.Sink
	width  vg.Length
	height vg.Length
	logger *slog.Logger
}

// NewRenderer creates a Renderer writing to sink.
func NewRenderer(sink output.Sink, logger *slog.Logger) *Renderer {
	return &Renderer{
		sink:   sink,
		width:  defaultWidth,
		height: defaultHeight,
		logger: logger,
	}
}

// RenderFigure draws every panel and writes them as one PNG, fig.Cols panels
// per row. A single panel is drawn at full size without the figure title. In
// a multi-panel figure a panel without data is drawn empty; the figure fails
// with no data only when every panel is empty. Every failure is returned as
// *domain.RenderError.
func (r *Renderer) RenderFigure(fig domain.FigureSpec, panels []domain.Panel) error {
	if len(panels) == 0 {
		return &domain.RenderError{Chart: fig.Name, Err: errNoData}
	}
	if len(panels) == 1 {
		p, err := panelPlot(panels[0], r.width, r.height)
		if err != nil {
			return &domain.RenderError{Chart: fig.Name, Err: err}
		}
		wt, err := p.WriterTo(r.width, r.height, "png")
		if err != nil {
			return &domain.RenderError{Chart: fig.Name, Err: fmt.Errorf("encode png: %w", err)}
		}
		return r.write(fig.Name, wt)
	}

	rows, cols := layout(len(panels), fig.Cols)
	plots := make([][]*plot.Plot, rows)
	for j := range plots {
		plots[j] = make([]*plot.Plot, cols)
	}
	drawn := 0
	for i, panel := range panels {
		p, err := panelPlot(panel, panelWidth, panelHeight)
		switch {
		case errors.Is(err, errNoData):
			p = emptyPlot(panel.Spec)
		case err != nil:
			return &domain.RenderError{Chart: fig.Name, Err: fmt.Errorf("panel %q: %w", panel.Spec.Title, err)}
		default:
			drawn++
		}
		plots[i/cols][i%cols] = p
	}
	if drawn == 0 {
		return &domain.RenderError{Chart: fig.Name, Err: errNoData}
	}

	return r.write(fig.Name, tiled(fig.Title, plots))
}

// RenderMatrix draws the correlation matrix as an annotated diverging heatmap
// on a fixed [-1, 1] scale.
func (r *Renderer) RenderMatrix(spec domain.ChartSpec, m domain.CorrelationMatrix) error {
	p, err := matrixPlot(spec, m)
	if err != nil {
		return &domain.RenderError{Chart: spec.Name, Err: err}
	}
	wt, err := p.WriterTo(r.width, r.height, "png")
	if err != nil {
		return &domain.RenderError{Chart: spec.Name, Err: fmt.Errorf("encode png: %w", err)}
	}
	return r.write(spec.Name, wt)
}

func (r *Renderer) write(name string, wt io.WriterTo) error {
	w, err := r.sink.Create(name)
	if err != nil {
		return &domain.RenderError{Chart: name, Err: err}
	}
	if _, err := wt.WriteTo(w); err != nil {
		_ = w.Close()
		return &domain.RenderError{Chart: name, Err: fmt.Errorf("write png: %w", err)}
	}
	if err := w.Close(); err != nil {
		return &domain.RenderError{Chart: name, Err: fmt.Errorf("close png: %w", err)}
	}

	r.logger.Debug("chart rendered", "chart", name)
	return nil
}

// layout returns the grid holding n panels with at most cols per row.
func layout(n, cols int) (rows, c int) {
	if cols <= 0 || cols > n {
		cols = n
	}
	return (n + cols - 1) / cols, cols
}

// tiled aligns the plots on one canvas so their data areas line up, with the
// title above them. Nil plots leave their tile blank.
func tiled(title string, plots [][]*plot.Plot) vgimg.PngCanvas {
	rows, cols := len(plots), len(plots[0])
	img := vgimg.New(vg.Length(cols)*panelWidth, vg.Length(rows)*panelHeight+titleHeight)
	dc := draw.New(img)

	sty := plot.New().Title.TextStyle
	sty.Font.Size = 16
	sty.XAlign = text.XCenter
	sty.YAlign = text.YTop
	dc.FillText(sty, vg.Point{X: (dc.Min.X + dc.Max.X) / 2, Y: dc.Max.Y - vg.Millimeter*3}, title)

	body := dc
	body.Max.Y -= titleHeight
	canvases := plot.Align(plots, draw.Tiles{
		Rows:      rows,
		Cols:      cols,
		PadX:      vg.Centimeter,
		PadY:      vg.Centimeter,
		PadTop:    vg.Millimeter * 2,
		PadBottom: vg.Millimeter * 2,
		PadLeft:   vg.Millimeter * 2,
		PadRight:  vg.Millimeter * 4,
	}, body)
	for j, row := range plots {
		for i, p := range row {
			if p != nil {
				p.Draw(canvases[j][i])
			}
		}
	}
	return vgimg.PngCanvas{Canvas: img}
}

func panelPlot(panel domain.Panel, width, height vg.Length) (*plot.Plot, error) {
	switch panel.Spec.Kind {
	case domain.ChartBar, domain.ChartDistribution:
		extent := width
		if panel.Spec.Horizontal {
			extent = height
		}
		return barPlot(panel.Spec, panel.Table, extent)
	case domain.ChartHeatmap:
		return gridPlot(panel.Spec, panel.Table)
	default:
		return nil, fmt.Errorf("unsupported chart kind %q", panel.Spec.Kind)
	}
}

func emptyPlot(spec domain.ChartSpec) *plot.Plot {
	p := newPlot(spec)
	p.Title.Text += " (no data)"
	p.HideAxes()
	return p
}

func newPlot(spec domain.ChartSpec) *plot.Plot {
	p := plot.New()
	p.Title.Text = spec.Title
	p.X.Label.Text = spec.XLabel
	p.Y.Label.Text = spec.YLabel
	return p
}

func barPlot(spec domain.ChartSpec, table domain.AggregateTable, extent vg.Length) (*plot.Plot, error) {
	rows := table.Rows
	if len(spec.Order) > 0 {
		rows = aggregate.InLevelOrder(table, spec.Order)
	}
	rows = without(rows, spec.Omit)
	if !hasCounts(rows) {
		return nil, errNoData
	}
	if spec.RankByMetric {
		rows = rankedByMetric(rows, spec.Metric)
	}
	if spec.TopN > 0 && len(rows) > spec.TopN {
		rows = rows[:spec.TopN]
	}
	if spec.Horizontal {
		// bars are drawn bottom-up; keep the first row at the top
		rows = reversed(rows)
	}

	values := make(plotter.Values, len(rows))
	labels := make([]string, len(rows))
	for i, row := range rows {
		values[i] = metricValue(spec.Metric, row)
		labels[i] = row.Label()
	}

	bars, err := plotter.NewBarChart(values, barWidth(extent, len(rows)))
	if err != nil {
		return nil, fmt.Errorf("build bar chart: %w", err)
	}
	bars.Color = barColor
	bars.LineStyle.Width = 0
	bars.Horizontal = spec.Horizontal

	p := newPlot(spec)
	p.Add(plotter.NewGrid(), bars)
	if spec.Horizontal {
		p.NominalY(labels...)
	} else {
		p.NominalX(labels...)
	}
	return p, nil
}

func barWidth(extent vg.Length, n int) vg.Length {
	w := (extent - 2*vg.Inch) / vg.Length(n) * 0.7
	return vg.Length(math.Min(float64(w), maxBarWidth))
}

func metricValue(m domain.ChartMetric, row domain.AggregateRow) float64 {
	if m == domain.MetricMeanSeverity {
		if math.IsNaN(row.MeanSeverity) {
			return 0
		}
		return row.MeanSeverity
	}
	return float64(row.Count)
}

func without(rows []domain.AggregateRow, omit []string) []domain.AggregateRow {
	if len(omit) == 0 {
		return rows
	}
	out := make([]domain.AggregateRow, 0, len(rows))
	for _, row := range rows {
		if !slices.Contains(omit, row.Label()) {
			out = append(out, row)
		}
	}
	return out
}

func hasCounts(rows []domain.AggregateRow) bool {
	for _, row := range rows {
		if row.Count > 0 {
			return true
		}
	}
	return false
}

// rankedByMetric sorts a copy of rows by the metric, highest first. Equal
// values keep their table order.
func rankedByMetric(rows []domain.AggregateRow, m domain.ChartMetric) []domain.AggregateRow {
	out := slices.Clone(rows)
	sort.SliceStable(out, func(i, j int) bool {
		return metricValue(m, out[i]) > metricValue(m, out[j])
	})
	return out
}

func reversed(rows []domain.AggregateRow) []domain.AggregateRow {
	out := make([]domain.AggregateRow, len(rows))
	for i, r := range rows {
		out[len(rows)-1-i] = r
	}
	return out
}

func gridPlot(spec domain.ChartSpec, table domain.AggregateTable) (*plot.Plot, error) {
	if len(table.Selectors) != 2 {
		return nil, fmt.Errorf("heatmap needs a two-key table, got %d keys", len(table.Selectors))
	}
	if table.Sum() == 0 {
		return nil, errNoData
	}

	g, err := newCellGrid(table, spec)
	if err != nil {
		return nil, err
	}

	hm := plotter.NewHeatMap(g, palette.Heat(heatColors, 1))
	hm.NaN = nanColor
	if hm.Max <= hm.Min {
		hm.Max = hm.Min + 1
	}

	p := newPlot(spec)
	p.Add(hm)
	if !g.numeric {
		p.NominalX(g.colLabels...)
		p.NominalY(g.rowLabels...)
	}
	return p, nil
}

func matrixPlot(spec domain.ChartSpec, m domain.CorrelationMatrix) (*plot.Plot, error) {
	n := m.Size()
	if n == 0 {
		return nil, errNoData
	}

	cmap := moreland.SmoothBlueRed()
	cmap.SetMin(-1)
	cmap.SetMax(1)

	g := matrixGrid{m: m}
	hm := plotter.NewHeatMap(g, cmap.Palette(corrColors))
	hm.Min, hm.Max = -1, 1
	hm.NaN = nanColor

	p := newPlot(spec)
	p.Add(hm)

	if annotations, err := g.annotations(); err != nil {
		return nil, err
	} else if annotations != nil {
		p.Add(annotations)
	}

	yLabels := make([]string, n)
	for i, a := range m.Attributes {
		yLabels[n-1-i] = a
	}
	p.NominalX(m.Attributes...)
	p.NominalY(yLabels...)
	p.X.Tick.Label.Rotation = math.Pi / 4
	p.X.Tick.Label.XAlign = text.XRight
	p.X.Tick.Label.YAlign = text.YCenter
	return p, nil
}

// matrixGrid adapts a correlation matrix to plotter.GridXYZ with the first
// attribute in the top row.
type matrixGrid struct {
	m domain.CorrelationMatrix
}

func (g matrixGrid) Dims() (c, r int)   { return g.m.Size(), g.m.Size() }
func (g matrixGrid) Z(c, r int) float64 { return g.m.At(g.m.Size()-1-r, c) }
func (g matrixGrid) X(c int) float64    { return float64(c) }
func (g matrixGrid) Y(r int) float64    { return float64(r) }

// annotations labels every defined cell with its coefficient. Returns nil when
// no cell is defined.
func (g matrixGrid) annotations() (*plotter.Labels, error) {
	var xys plotter.XYs
	var labels []string
	cols, rows := g.Dims()
	for c := 0; c < cols; c++ {
		for r := 0; r < rows; r++ {
			v := g.Z(c, r)
			if math.IsNaN(v) {
				continue
			}
			xys = append(xys, plotter.XY{X: g.X(c), Y: g.Y(r)})
			labels = append(labels, fmt.Sprintf("%.2f", v))
		}
	}
	if len(labels) == 0 {
		return nil, nil
	}

	l, err := plotter.NewLabels(plotter.XYLabels{XYs: xys, Labels: labels})
	if err != nil {
		return nil, fmt.Errorf("build cell labels: %w", err)
	}
	for i := range l.TextStyle {
		l.TextStyle[i].XAlign = text.XCenter
		l.TextStyle[i].YAlign = text.YCenter
	}
	return l, nil
}
