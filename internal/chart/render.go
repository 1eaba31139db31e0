package chart

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/shopspring/decimal"
	gochart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

const (
	DefaultWidth  = 1024
	DefaultHeight = 512
)

// ErrNothingToDraw is returned when every value of a chart is zero
var ErrNothingToDraw = errors.New("chart: nothing to draw")

var (
	incomeColor  = drawing.ColorFromHex("2e7d32")
	expenseColor = drawing.ColorFromHex("c62828")
)

// Slice is one labelled value of a pie or bar chart
type Slice struct {
	Label string
	Value decimal.Decimal
}

// Stack is one bar of a stacked bar chart
type Stack struct {
	Label string
	Parts []Slice
}

// Renderer draws PNG charts of a fixed size
type Renderer struct {
	Width  int
	Height int
}

// NewRenderer creates a renderer with the default size
func NewRenderer() *Renderer {
	return &Renderer{Width: DefaultWidth, Height: DefaultHeight}
}

// Pie draws a pie chart. Zero slices are left out.
func (r *Renderer) Pie(title string, slices []Slice) ([]byte, error) {
	values := make([]gochart.Value, 0, len(slices))
	for _, s := range slices {
		if !s.Value.IsPositive() {
			continue
		}
		values = append(values, gochart.Value{
			Label: fmt.Sprintf("%s %s", s.Label, s.Value.StringFixed(2)),
			Value: s.Value.InexactFloat64(),
		})
	}
	if len(values) == 0 {
		return nil, ErrNothingToDraw
	}

	pie := gochart.PieChart{
		Title:  title,
		Width:  r.Width,
		Height: r.Height,
		Values: values,
	}
	return render(pie.Render)
}

// Bars draws one bar per slice, keeping zero bars so the axis stays continuous
func (r *Renderer) Bars(title string, slices []Slice) ([]byte, error) {
	top := maxValue(slices)
	if top == 0 {
		return nil, ErrNothingToDraw
	}

	bars := make([]gochart.Value, len(slices))
	for i, s := range slices {
		bars[i] = gochart.Value{Label: s.Label, Value: s.Value.InexactFloat64()}
	}

	bc := gochart.BarChart{
		Title:    title,
		Width:    r.Width,
		Height:   r.Height,
		BarWidth: barWidth(r.Width, len(bars)),
		Background: gochart.Style{
			Padding: gochart.Box{Top: 40},
		},
		YAxis: gochart.YAxis{
			Range: &gochart.ContinuousRange{Min: 0, Max: top * 1.1},
		},
		Bars: bars,
	}
	return render(bc.Render)
}

// StackedBars draws each stack normalized to its own total. Part colors are picked by
// label so a category keeps its color across bars. Empty stacks are skipped.
func (r *Renderer) StackedBars(title string, stacks []Stack) ([]byte, error) {
	palette := make(map[string]drawing.Color)
	bars := make([]gochart.StackedBar, 0, len(stacks))
	for _, stack := range stacks {
		values := make([]gochart.Value, 0, len(stack.Parts))
		for _, part := range stack.Parts {
			if !part.Value.IsPositive() {
				continue
			}
			color, ok := palette[part.Label]
			if !ok {
				color = gochart.GetDefaultColor(len(palette))
				palette[part.Label] = color
			}
			values = append(values, gochart.Value{
				Label: part.Label,
				Value: part.Value.InexactFloat64(),
				Style: gochart.Style{FillColor: color, StrokeColor: color},
			})
		}
		if len(values) == 0 {
			continue
		}
		bars = append(bars, gochart.StackedBar{Name: stack.Label, Values: values})
	}
	if len(bars) == 0 {
		return nil, ErrNothingToDraw
	}

	width := barWidth(r.Width, len(bars))
	for i := range bars {
		bars[i].Width = width
	}

	sbc := gochart.StackedBarChart{
		Title:      title,
		Width:      r.Width,
		Height:     r.Height,
		BarSpacing: width / 2,
		Background: gochart.Style{
			Padding: gochart.Box{Top: 40},
		},
		Bars: bars,
	}
	return render(sbc.Render)
}

// IncomeExpenseLines draws income and expense as two lines over the same buckets
func (r *Renderer) IncomeExpenseLines(title string, labels []string, income, expense []decimal.Decimal) ([]byte, error) {
	if len(labels) != len(income) || len(labels) != len(expense) {
		return nil, fmt.Errorf("chart: %d labels for %d income and %d expense values", len(labels), len(income), len(expense))
	}

	var top float64
	xs := make([]float64, len(labels))
	incomeYs := make([]float64, len(labels))
	expenseYs := make([]float64, len(labels))
	ticks := make([]gochart.Tick, len(labels))
	for i := range labels {
		xs[i] = float64(i + 1)
		incomeYs[i] = income[i].InexactFloat64()
		expenseYs[i] = expense[i].InexactFloat64()
		ticks[i] = gochart.Tick{Value: xs[i], Label: labels[i]}
		if incomeYs[i] > top {
			top = incomeYs[i]
		}
		if expenseYs[i] > top {
			top = expenseYs[i]
		}
	}
	if top == 0 || len(labels) < 2 {
		return nil, ErrNothingToDraw
	}

	graph := gochart.Chart{
		Title:  title,
		Width:  r.Width,
		Height: r.Height,
		Background: gochart.Style{
			Padding: gochart.Box{Top: 40, Left: 20},
		},
		XAxis: gochart.XAxis{
			Range: &gochart.ContinuousRange{Min: 1, Max: float64(len(labels))},
			Ticks: ticks,
		},
		YAxis: gochart.YAxis{
			Range: &gochart.ContinuousRange{Min: 0, Max: top * 1.1},
		},
		Series: []gochart.Series{
			gochart.ContinuousSeries{
				Name:    "Income",
				XValues: xs,
				YValues: incomeYs,
				Style:   gochart.Style{StrokeColor: incomeColor, StrokeWidth: 2},
			},
			gochart.ContinuousSeries{
				Name:    "Expense",
				XValues: xs,
				YValues: expenseYs,
				Style:   gochart.Style{StrokeColor: expenseColor, StrokeWidth: 2},
			},
		},
	}
	graph.Elements = []gochart.Renderable{gochart.Legend(&graph)}
	return render(graph.Render)
}

func render(fn func(gochart.RendererProvider, io.Writer) error) ([]byte, error) {
	var buf bytes.Buffer
	if err := fn(gochart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("chart: render: %w", err)
	}
	return buf.Bytes(), nil
}

func maxValue(slices []Slice) float64 {
	var top float64
	for _, s := range slices {
		if v := s.Value.InexactFloat64(); v > top {
			top = v
		}
	}
	return top
}

// barWidth fits n bars with equal gaps into the chart width
func barWidth(width, n int) int {
	if n <= 0 {
		return width
	}
	w := width / (n * 2)
	if w < 4 {
		return 4
	}
	if w > 80 {
		return 80
	}
	return w
}
