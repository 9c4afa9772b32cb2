package workflow

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/table"
	"github.com/jedib0t/go-pretty/text"
	"github.com/pkg/errors"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	tbl "salesml/pkg/table"
)

// WriteSchema renders the dataset's column names and types.
func WriteSchema(w io.Writer, ds *tbl.Dataset) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.Style().Format.Header = text.FormatDefault
	t.AppendHeader(table.Row{"Column", "Type"})
	for _, c := range ds.Schema() {
		t.AppendRow(table.Row{c.Name, c.Type.String()})
	}
	t.Render()
	fmt.Fprintf(w, "%d rows\n", ds.NumRows())
}

// WriteSamples renders up to n (prediction, actual) pairs.
func WriteSamples(w io.Writer, preds, actuals []float64, n int) {
	if n > len(preds) {
		n = len(preds)
	}
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.Style().Format.Header = text.FormatDefault
	t.AppendHeader(table.Row{"Prediction", "Actual"})
	for i := 0; i < n; i++ {
		t.AppendRow(table.Row{
			fmt.Sprintf("%.2f", preds[i]),
			fmt.Sprintf("%.2f", actuals[i]),
		})
	}
	t.Render()
}

// SaveScatter writes a predicted-vs-actual scatter plot to filename. The
// diagonal marks perfect prediction.
func SaveScatter(preds, actuals []float64, filename string) error {
	p := plot.New()
	p.Title.Text = "Predicted vs Actual Sales"
	p.X.Label.Text = "Actual"
	p.Y.Label.Text = "Predicted"

	pts := make(plotter.XYs, len(preds))
	lo, hi := actuals[0], actuals[0]
	for i := range preds {
		pts[i].X = actuals[i]
		pts[i].Y = preds[i]
		if actuals[i] < lo {
			lo = actuals[i]
		}
		if actuals[i] > hi {
			hi = actuals[i]
		}
	}
	s, err := plotter.NewScatter(pts)
	if err != nil {
		return errors.Wrap(err, "building scatter")
	}
	p.Add(s)

	diag, err := plotter.NewLine(plotter.XYs{{X: lo, Y: lo}, {X: hi, Y: hi}})
	if err != nil {
		return errors.Wrap(err, "building diagonal")
	}
	p.Add(diag)

	return errors.Wrapf(p.Save(6*vg.Inch, 6*vg.Inch, filename), "saving %s", filename)
}
