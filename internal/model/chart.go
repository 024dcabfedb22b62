package model

// ChartSpec is a rendering-agnostic description of a forecast chart.
// It follows the trace/layout vocabulary common to plotting libraries.
type ChartSpec struct {
	Title       string            `json:"title"`
	XAxisTitle  string            `json:"xAxisTitle"`
	YAxisTitle  string            `json:"yAxisTitle"`
	LegendTitle string            `json:"legendTitle"`
	Series      []ChartSeries     `json:"series"`
	Shapes      []ChartShape      `json:"shapes,omitempty"`
	Annotations []ChartAnnotation `json:"annotations,omitempty"`
}

// ChartSeries is one trace. X values are ISO dates.
type ChartSeries struct {
	Name       string     `json:"name,omitempty"`
	Mode       string     `json:"mode"`
	X          []string   `json:"x"`
	Y          []float64  `json:"y"`
	Line       *LineStyle `json:"line,omitempty"`
	Fill       string     `json:"fill,omitempty"`
	FillColor  string     `json:"fillColor,omitempty"`
	HoverInfo  string     `json:"hoverInfo,omitempty"`
	ShowLegend bool       `json:"showLegend"`
}

// LineStyle describes a trace or shape outline.
type LineStyle struct {
	Color string `json:"color,omitempty"`
	Dash  string `json:"dash,omitempty"`
	Width int    `json:"width,omitempty"`
}

// ChartShape is a layout shape such as a vertical marker line.
type ChartShape struct {
	Type string    `json:"type"`
	X    string    `json:"x"`
	Line LineStyle `json:"line"`
}

// ChartAnnotation is a text label anchored at a data point.
type ChartAnnotation struct {
	X         string  `json:"x"`
	Y         float64 `json:"y"`
	Text      string  `json:"text"`
	ShowArrow bool    `json:"showArrow"`
	ArrowHead int     `json:"arrowHead"`
	YShift    int     `json:"yShift"`
}
