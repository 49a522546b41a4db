package core

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/elankath/go-faultprobe/api"
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"gopkg.in/yaml.v3"
)

type summary struct {
	RunID       string          `yaml:"runID"`
	Probe       string          `yaml:"probe"`
	Expect      api.Expectation `yaml:"expect"`
	Passed      bool            `yaml:"passed"`
	Reason      string          `yaml:"reason,omitempty"`
	PID         int             `yaml:"pid"`
	Termination api.Termination `yaml:"termination"`
	ExitCode    int             `yaml:"exitCode"`
	Signal      string          `yaml:"signal,omitempty"`
	Lifetime    string          `yaml:"lifetime,omitempty"`
	MeanCPU     float64         `yaml:"meanCPU"`
	KillLatency string          `yaml:"killLatency,omitempty"`
	Samples     int             `yaml:"samples"`
	Stdout      string          `yaml:"stdout,omitempty"`
}

// Report writes a YAML summary of v and, with at least two samples, an HTML
// page of CPU and memory charts into the configured report directory.
func (b *basicObserver) Report(v api.Verdict) error {
	if b.cfg.ReportDir == "" {
		return nil
	}
	samples := b.Samples()
	s := summary{
		RunID:       b.runID,
		Probe:       b.cfg.ProbePath,
		Expect:      v.Expect,
		Passed:      v.Passed,
		PID:         v.Outcome.PID,
		Termination: v.Outcome.Termination,
		ExitCode:    v.Outcome.ExitCode,
		Signal:      v.Outcome.Signal,
		MeanCPU:     v.MeanCPU,
		Samples:     len(samples),
		Stdout:      b.Stdout(),
	}
	if v.Err != nil {
		s.Reason = v.Err.Error()
	}
	if d := v.Outcome.Lifetime(); d > 0 {
		s.Lifetime = d.String()
	}
	if v.KillLatency > 0 {
		s.KillLatency = v.KillLatency.String()
	}
	data, err := yaml.Marshal(&s)
	if err != nil {
		return err
	}
	summaryPath := filepath.Join(b.cfg.ReportDir, b.reportName("summary.yaml"))
	err = os.WriteFile(summaryPath, data, 0644)
	if err != nil {
		slog.Error("error writing summary", "path", summaryPath, "error", err)
		return err
	}
	slog.Info("Wrote summary", "path", summaryPath)
	return b.GenerateCharts(samples)
}

func (b *basicObserver) reportName(suffix string) string {
	prefix := b.cfg.ReportNamePrefix
	if prefix == "" {
		prefix = filepath.Base(b.cfg.ProbePath)
	}
	return fmt.Sprintf("%s-%s-%s", prefix, b.runID, suffix)
}

func (b *basicObserver) GenerateCharts(samples []api.Sample) error {
	if len(samples) < 2 {
		slog.Warn("skipping charts since insufficient sample data points present", "runID", b.runID, "samples", len(samples))
		return nil
	}
	name := filepath.Base(b.cfg.ProbePath)
	page := components.NewPage()
	page.SetPageTitle(fmt.Sprintf("%s Charts", name))
	page.AddCharts(generateCPUChart(name, samples), generateRssMemoryChart(name, samples))
	chartsPath := filepath.Join(b.cfg.ReportDir, b.reportName("charts.html"))
	return writePage(chartsPath, page)
}

func writePage(chartPath string, page *components.Page) error {
	var buf bytes.Buffer
	err := page.Render(&buf)
	if err != nil {
		slog.Error("error writing bytes", "error", err)
		return err
	}
	err = os.WriteFile(chartPath, buf.Bytes(), 0644)
	if err != nil {
		slog.Error("error writing bytes to file", "error", err)
		return err
	}
	slog.Debug("Generated chart", "chartPath", chartPath)
	return nil
}

func sampleTimes(samples []api.Sample) []string {
	xVals := make([]string, 0, len(samples))
	for _, m := range samples {
		xVals = append(xVals, m.ProbeTime.Format(time.TimeOnly+".000"))
	}
	return xVals
}

func generateCPUChart(name string, samples []api.Sample) *charts.Line {
	yVals := make([]opts.LineData, 0, len(samples))
	for _, m := range samples {
		yVals = append(yVals, opts.LineData{Value: m.CPU})
	}
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithXAxisOpts(opts.XAxis{Name: "Time"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "CPU %"}),
		charts.WithTitleOpts(opts.Title{Title: fmt.Sprintf("%s CPU usage", name)}))
	line.SetXAxis(sampleTimes(samples)).
		AddSeries("CPU", yVals).
		SetSeriesOptions(charts.WithLineChartOpts(opts.LineChart{Smooth: opts.Bool(true)}))
	return line
}

func generateRssMemoryChart(name string, samples []api.Sample) *charts.Line {
	yVals := make([]opts.LineData, 0, len(samples))
	for _, m := range samples {
		yVals = append(yVals, opts.LineData{Value: m.MemRSS / 1024})
	}
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithXAxisOpts(opts.XAxis{Name: "Time"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "RSS Memory (KB)"}),
		charts.WithTitleOpts(opts.Title{Title: fmt.Sprintf("%s RSS Memory", name)}))
	line.SetXAxis(sampleTimes(samples)).
		AddSeries("Memory RSS", yVals).
		SetSeriesOptions(charts.WithLineChartOpts(opts.LineChart{Smooth: opts.Bool(true)}))
	return line
}
