package dashboard

import (
	"fmt"

	"github.com/i474232898/forecast-dashboard/internal/chart"
	"github.com/i474232898/forecast-dashboard/internal/render"
)

// Chart names, also used as container targets.
const (
	ChartFlow    = "flow"
	ChartStacked = "stacked"
)

// ChartNames lists both charts in page order.
func ChartNames() []string {
	return []string{ChartFlow, ChartStacked}
}

// IsChart reports whether name is one of the dashboard charts.
func IsChart(name string) bool {
	return name == ChartFlow || name == ChartStacked
}

// RenderChart draws one chart of charts to PNG. The widget goes through its
// whole lifecycle on a fresh canvas of the given size.
func RenderChart(name string, charts Charts, size chart.Size) ([]byte, error) {
	canvas := render.NewCanvas(name, size)
	var frame []byte
	err := drawChart(name, charts, canvas, render.NewEngine, func() { frame = canvas.Frame() })
	if err != nil {
		return nil, err
	}
	return frame, nil
}

// drawChart mounts the named widget on c, applies its option once, calls
// drawn while the engine is still live and unmounts it, also when mounting
// fails part way.
func drawChart(name string, charts Charts, c chart.Container, factory chart.Factory, drawn func()) error {
	var (
		mount   func() error
		update  func() error
		unmount func()
	)
	switch name {
	case ChartFlow:
		w := chart.NewFlowChart(factory)
		mount = func() error { return w.Mount(c) }
		update = func() error { return w.Update(charts.Flow) }
		unmount = w.Unmount
	case ChartStacked:
		w := chart.NewStackedChart(factory)
		mount = func() error { return w.Mount(c) }
		update = func() error { return w.Update(charts.Stacked) }
		unmount = w.Unmount
	default:
		return fmt.Errorf("unknown chart %q", name)
	}
	defer unmount()

	if err := mount(); err != nil {
		return fmt.Errorf("mount %s chart: %w", name, err)
	}
	if err := update(); err != nil {
		return fmt.Errorf("render %s chart: %w", name, err)
	}
	if drawn != nil {
		drawn()
	}
	return nil
}
