package main

import (
	"fmt"
	"io"
	"math"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/impel/internal/analysis"
	"github.com/san-kum/impel/internal/config"
	"github.com/san-kum/impel/internal/export"
	"github.com/san-kum/impel/internal/impel"
	"github.com/san-kum/impel/internal/optim"
	"github.com/san-kum/impel/internal/sim"
	"github.com/san-kum/impel/internal/storage"
	"github.com/san-kum/impel/internal/viz"
)

// scenarioFlags are shared by run and live.
type scenarioFlags struct {
	preset          string
	frameMs         int
	maxTimeMs       int
	stopWhenSettled bool
}

func (f *scenarioFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.preset, "preset", "", "use preset scenario")
	cmd.Flags().IntVar(&f.frameMs, "frame", 0, "frame length in ms (overrides the scenario)")
	cmd.Flags().IntVar(&f.maxTimeMs, "max-time", 0, "run length in ms (overrides the scenario)")
	cmd.Flags().BoolVar(&f.stopWhenSettled, "stop-when-settled", false, "stop once every impeller has settled")
}

// load resolves the scenario from a file argument, a preset or the default,
// then applies flag overrides.
func (f *scenarioFlags) load(cmd *cobra.Command, args []string) (*config.Config, error) {
	var cfg *config.Config
	switch {
	case len(args) > 0:
		loaded, err := config.Load(args[0])
		if err != nil {
			return nil, fmt.Errorf("failed to load scenario: %w", err)
		}
		cfg = loaded
	case f.preset != "":
		cfg = config.GetPreset(f.preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", f.preset, config.ListPresets())
		}
	default:
		cfg = config.DefaultConfig()
	}

	if cmd.Flags().Changed("frame") {
		cfg.FrameMs = impel.Time(f.frameMs)
	}
	if cmd.Flags().Changed("max-time") {
		cfg.MaxTimeMs = impel.Time(f.maxTimeMs)
	}
	if cmd.Flags().Changed("stop-when-settled") {
		cfg.StopWhenSettled = f.stopWhenSettled
	}
	return cfg, cfg.Validate()
}

func (a *app) runCmd() *cobra.Command {
	var (
		flags  scenarioFlags
		noSave bool
		plot   bool
	)
	cmd := &cobra.Command{
		Use:   "run [scenario.yaml]",
		Short: "run a scenario and store its trace",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.load(cmd, args)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			result, err := sim.NewRunner(cfg, a.log).Run(ctx)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, viz.TableHeader.Render(fmt.Sprintf("scenario %s: %d frames, %dms", cfg.Name, result.Frames, result.Elapsed)))
			if err := printTraces(out, result); err != nil {
				return err
			}

			if plot {
				for _, tr := range result.Traces {
					fmt.Fprintln(out)
					fmt.Fprintln(out, viz.PlotTrace(tr, viz.SeriesValue, 70, 12))
				}
			}

			if noSave {
				return nil
			}
			st := a.store()
			if err := st.Init(); err != nil {
				return err
			}
			runID, err := st.Save(cfg, result)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "\nrun saved: %s\n", runID)
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().BoolVar(&noSave, "no-save", false, "do not store the run")
	cmd.Flags().BoolVar(&plot, "plot", false, "plot every value trace")
	return cmd
}

func printTraces(out io.Writer, result *sim.Result) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "IMPELLER\tDRIVER\tSETTLED\tPEAK OVERSHOOT\tPEAK VELOCITY\tCROSSINGS")
	for _, tr := range result.Traces {
		settled := "never"
		if tr.Settled() {
			settled = fmt.Sprintf("%dms", tr.SettledAt)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%.4f\t%.5f\t%.0f\n",
			tr.Name,
			tr.Driver,
			settled,
			tr.Metrics["peak_overshoot"],
			tr.Metrics["peak_velocity"],
			tr.Metrics["crossings"],
		)
	}
	return w.Flush()
}

func (a *app) presetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "presets [name]",
		Short: "list presets, or print one as YAML",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if len(args) == 1 {
				cfg := config.GetPreset(args[0])
				if cfg == nil {
					return fmt.Errorf("unknown preset: %s", args[0])
				}
				data, err := yaml.Marshal(cfg)
				if err != nil {
					return err
				}
				_, err = out.Write(data)
				return err
			}

			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "PRESET\tDRIVERS\tIMPELLERS\tFRAME\tMAX TIME")
			for _, name := range config.ListPresets() {
				cfg := config.GetPreset(name)
				n := 0
				for _, ic := range cfg.Impellers {
					n += ic.Instances()
				}
				fmt.Fprintf(w, "%s\t%d\t%d\t%dms\t%dms\n", name, len(cfg.Drivers), n, cfg.FrameMs, cfg.MaxTimeMs)
			}
			return w.Flush()
		},
	}
}

func (a *app) listCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			runs, err := a.store().List()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(runs) == 0 {
				fmt.Fprintln(out, "no runs found")
				return nil
			}

			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tSCENARIO\tTIME\tIMPELLERS\tELAPSED\tSETTLED")
			for _, run := range runs {
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%dms\t%t\n",
					run.ID,
					run.Scenario,
					run.Timestamp.Format("2006-01-02 15:04:05"),
					len(run.Impellers),
					run.ElapsedMs,
					run.Settled,
				)
			}
			return w.Flush()
		},
	}
}

// selectTraces returns the named trace, or all of them when name is empty.
func selectTraces(result *sim.Result, name string) ([]*sim.Trace, error) {
	if name == "" {
		return result.Traces, nil
	}
	for _, tr := range result.Traces {
		if tr.Name == name {
			return []*sim.Trace{tr}, nil
		}
	}
	return nil, fmt.Errorf("no impeller %q in run", name)
}

func (a *app) plotCmd() *cobra.Command {
	var (
		series   string
		impeller string
		width    int
		height   int
	)
	cmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot a stored run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := viz.ParseSeries(series)
			if err != nil {
				return err
			}
			result, err := a.store().LoadResult(args[0])
			if err != nil {
				return err
			}
			traces, err := selectTraces(result, impeller)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(traces) == 1 {
				fmt.Fprintln(out, viz.PlotTrace(traces[0], s, width, height))
				return nil
			}
			fmt.Fprintln(out, viz.PlotTraces(traces, s, width, height))
			return nil
		},
	}
	cmd.Flags().StringVar(&series, "series", string(viz.SeriesValue), "signal to plot (value, velocity, diff)")
	cmd.Flags().StringVar(&impeller, "impeller", "", "plot only this impeller")
	cmd.Flags().IntVar(&width, "width", 80, "plot width")
	cmd.Flags().IntVar(&height, "height", 15, "plot height")
	return cmd
}

func (a *app) analyzeCmd() *cobra.Command {
	var (
		impeller string
		phase    bool
	)
	cmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "oscillation analysis of a stored run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := a.store().LoadResult(args[0])
			if err != nil {
				return err
			}
			traces, err := selectTraces(result, impeller)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "oscillation analysis: %s\n\n", args[0])

			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "IMPELLER\tPERIOD\tSWINGS\tDECAY")
			for _, tr := range traces {
				period := "-"
				if p, ok := analysis.DominantPeriod(tr.Diffs, result.FrameMs); ok {
					period = fmt.Sprintf("%.0fms", p)
				}
				fmt.Fprintf(w, "%s\t%s\t%d\t%.3f\n", tr.Name, period, len(analysis.Swings(tr.Diffs)), analysis.DecayRatio(tr.Diffs))
			}
			if err := w.Flush(); err != nil {
				return err
			}

			if phase {
				for _, tr := range traces {
					fmt.Fprintf(out, "\nphase portrait %s (diff → velocity ↑)\n", tr.Name)
					fmt.Fprint(out, analysis.NewPhasePortrait(tr).ASCII(60, 16))
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&impeller, "impeller", "", "analyze only this impeller")
	cmd.Flags().BoolVar(&phase, "phase", false, "print phase portraits")
	return cmd
}

func (a *app) exportCmd() *cobra.Command {
	var (
		outPath string
		svgPath string
		series  string
	)
	cmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export a stored run as JSON or SVG",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := a.store().LoadResult(args[0])
			if err != nil {
				return err
			}
			if svgPath != "" {
				s, err := viz.ParseSeries(series)
				if err != nil {
					return err
				}
				svg := export.TracesToSVG(result.Traces, s, 800, 400)
				if err := os.WriteFile(svgPath, []byte(svg), 0644); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "svg written: %s\n", svgPath)
				return nil
			}
			if outPath == "-" {
				return storage.WriteJSON(cmd.OutOrStdout(), args[0], result)
			}
			if err := storage.ExportJSON(outPath, args[0], result); err != nil {
				return err
			}
			a.log.Info("run exported", "run", args[0], "path", outPath)
			return nil
		},
	}
	cmd.Flags().StringVarP(&outPath, "out", "o", "-", "output file, - for stdout")
	cmd.Flags().StringVar(&svgPath, "svg", "", "write an SVG chart to this file instead of JSON")
	cmd.Flags().StringVar(&series, "series", string(viz.SeriesValue), "signal charted in the SVG (value, velocity, diff)")
	return cmd
}

func (a *app) deleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete [run_id]",
		Short: "delete a stored run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.store().Delete(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
			return nil
		},
	}
}

func (a *app) liveCmd() *cobra.Command {
	var flags scenarioFlags
	cmd := &cobra.Command{
		Use:   "live [scenario.yaml]",
		Short: "step a scenario in real time",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.load(cmd, args)
			if err != nil {
				return err
			}
			return viz.RunLive(cfg, a.v.GetInt("fps"), a.log)
		},
	}
	flags.register(cmd)
	cmd.Flags().Int("fps", 30, "frame rate")
	_ = a.v.BindPFlag("fps", cmd.Flags().Lookup("fps"))
	return cmd
}

// parseParamRange reads name=lo:hi:n into a parameter name and its grid.
func parseParamRange(arg string) (string, []float64, error) {
	name, rng, ok := strings.Cut(arg, "=")
	if !ok {
		return "", nil, fmt.Errorf("bad --param %q, want name=lo:hi:n", arg)
	}
	parts := strings.Split(rng, ":")
	if len(parts) != 3 {
		return "", nil, fmt.Errorf("bad --param %q, want name=lo:hi:n", arg)
	}
	lo, err := strconv.ParseFloat(parts[0], 64)
	if err != nil {
		return "", nil, fmt.Errorf("--param %s: %w", name, err)
	}
	hi, err := strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return "", nil, fmt.Errorf("--param %s: %w", name, err)
	}
	n, err := strconv.Atoi(parts[2])
	if err != nil || n < 1 {
		return "", nil, fmt.Errorf("--param %s: count must be a positive integer", name)
	}
	return name, optim.Linspace(lo, hi, n), nil
}

func (a *app) tuneCmd() *cobra.Command {
	var (
		flags   scenarioFlags
		driver  string
		params  []string
		top     int
		workers int
	)
	cmd := &cobra.Command{
		Use:   "tune [scenario.yaml]",
		Short: "grid search driver parameters for the fastest settle",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if top < 1 {
				return fmt.Errorf("--top must be at least 1, got %d", top)
			}
			cfg, err := flags.load(cmd, args)
			if err != nil {
				return err
			}
			if driver == "" {
				drivers := cfg.DriverNames()
				if len(drivers) == 0 {
					return fmt.Errorf("scenario defines no drivers")
				}
				driver = drivers[0]
			}

			names := make([]string, 0, len(params))
			ranges := make([][]float64, 0, len(params))
			for _, p := range params {
				name, values, err := parseParamRange(p)
				if err != nil {
					return err
				}
				names = append(names, name)
				ranges = append(ranges, values)
			}

			g, err := optim.NewGridSearch(driver, names, ranges)
			if err != nil {
				return err
			}
			g.SetWorkers(workers)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			a.log.Info("tuning", "driver", driver, "points", g.Size())
			candidates, err := g.Search(ctx, cfg)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "RANK\tSETTLE\t"+strings.ToUpper(strings.Join(names, "\t")))
			for i, c := range candidates[:min(top, len(candidates))] {
				settle := "never"
				if !math.IsInf(c.Score, 1) {
					settle = fmt.Sprintf("%.0fms", c.Score)
				}
				row := []string{strconv.Itoa(i + 1), settle}
				for _, n := range names {
					row = append(row, strconv.FormatFloat(c.Params[n], 'g', 6, 64))
				}
				fmt.Fprintln(w, strings.Join(row, "\t"))
			}
			return w.Flush()
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVar(&driver, "driver", "", "driver to tune (default: first by name)")
	cmd.Flags().StringArrayVar(&params, "param", []string{"accel_per_difference=0.0001:0.0006:6", "wrong_direction_multiplier=1:6:6"}, "parameter grid as name=lo:hi:n")
	cmd.Flags().IntVar(&top, "top", 5, "candidates to print")
	cmd.Flags().IntVar(&workers, "workers", 0, "parallel runs (default GOMAXPROCS)")
	return cmd
}
