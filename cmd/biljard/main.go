package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/san-kum/biljard/internal/config"
	"github.com/san-kum/biljard/internal/export"
	"github.com/san-kum/biljard/internal/metrics"
	"github.com/san-kum/biljard/internal/optim"
	"github.com/san-kum/biljard/internal/sim"
	"github.com/san-kum/biljard/internal/storage"
	"github.com/san-kum/biljard/internal/viz"
	"github.com/spf13/cobra"
)

// Balls faster than this are counted as runaways by the stability metric.
const runawaySpeed = 1e4

var (
	dataDir  string
	verbose  bool
	theme    string
	dt       float64
	duration float64
	workers  int
	friction float64
	// plot
	series string
	ballID int
	// exports
	outPath   string
	svgWidth  int
	svgHeight int
	snapshot  bool
	// sweep
	param     string
	from      float64
	to        float64
	points    int
	objective string
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#2ecc71"))
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Width(14)
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "biljard",
		Short:        "continuous-collision billiards simulator",
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".biljard", "data directory")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log every collision")

	runCmd := &cobra.Command{
		Use:   "run [scene]",
		Short: "run a scene and store the result",
		Long:  "Run a scene and store the result. A scene is a preset name or a path to a YAML file.",
		Args:  cobra.ExactArgs(1),
		RunE:  runSimulation,
	}
	addSimFlags(runCmd)

	liveCmd := &cobra.Command{
		Use:   "live [scene]",
		Short: "run a scene with live visualization",
		Args:  cobra.ExactArgs(1),
		RunE:  runLive,
	}
	addSimFlags(liveCmd)
	liveCmd.Flags().StringVar(&theme, "theme", "felt", "color theme: "+strings.Join(viz.ThemeNames(), ", "))

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot run results",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().StringVar(&series, "series", "energy", "series to plot: energy, balls or speed")
	plotCmd.Flags().IntVar(&ballID, "ball", 0, "ball id for the speed series")

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export run metadata",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export frames and events to JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}
	exportJSONCmd.Flags().StringVarP(&outPath, "out", "o", "", "output file (default stdout)")

	exportSVGCmd := &cobra.Command{
		Use:   "export-svg [run_id]",
		Short: "export ball trajectories to SVG",
		Args:  cobra.ExactArgs(1),
		RunE:  exportSVG,
	}
	exportSVGCmd.Flags().StringVarP(&outPath, "out", "o", "", "output file (default <run_id>.svg)")
	exportSVGCmd.Flags().IntVar(&svgWidth, "width", 800, "image width")
	exportSVGCmd.Flags().IntVar(&svgHeight, "height", 400, "image height")
	exportSVGCmd.Flags().BoolVar(&snapshot, "snapshot", false, "render the final frame as terminal dots instead")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list built-in scenes",
		Args:  cobra.NoArgs,
		RunE:  listPresets,
	}

	benchCmd := &cobra.Command{
		Use:   "bench [scene]",
		Short: "benchmark a scene across timesteps and worker counts",
		Args:  cobra.ExactArgs(1),
		RunE:  benchScene,
	}
	addSimFlags(benchCmd)

	sweepCmd := &cobra.Command{
		Use:   "sweep [scene...]",
		Short: "sweep one setting across scenes and report the best value",
		Args:  cobra.MinimumNArgs(1),
		RunE:  sweepSettings,
	}
	addSimFlags(sweepCmd)
	sweepCmd.Flags().StringVar(&param, "param", "restitution", "setting to vary: "+strings.Join(optim.Params, ", "))
	sweepCmd.Flags().Float64Var(&from, "from", 0.5, "first value")
	sweepCmd.Flags().Float64Var(&to, "to", 1.0, "last value")
	sweepCmd.Flags().IntVar(&points, "points", 6, "number of values")
	sweepCmd.Flags().StringVar(&objective, "minimize", "energy_drift", "metric to minimise")

	rootCmd.AddCommand(runCmd, liveCmd, listCmd, plotCmd, exportCmd, exportJSONCmd, exportSVGCmd, presetsCmd, benchCmd, sweepCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func addSimFlags(cmd *cobra.Command) {
	cmd.Flags().Float64Var(&dt, "dt", config.DefaultDt, "timestep")
	cmd.Flags().Float64Var(&duration, "time", config.DefaultDuration, "duration")
	cmd.Flags().IntVar(&workers, "workers", 0, "collision search workers (default GOMAXPROCS)")
	cmd.Flags().Float64Var(&friction, "friction", 0, "rolling friction deceleration")
}

func newLogger() *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// loadScene resolves a preset name or YAML path. Flags set on the command
// line override the scene file.
func loadScene(cmd *cobra.Command, name string) (*config.Config, error) {
	cfg := config.GetPreset(name)
	if cfg == nil {
		var err error
		cfg, err = config.Load(name)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("unknown scene %q (presets: %s)", name, strings.Join(config.ListPresets(), ", "))
			}
			return nil, err
		}
	}

	flags := cmd.Flags()
	if flags.Changed("dt") {
		cfg.Dt = dt
	}
	if flags.Changed("time") {
		cfg.Duration = duration
	}
	if flags.Changed("workers") {
		cfg.Workers = workers
	}
	if flags.Changed("friction") {
		cfg.Physics.Friction = friction
	}
	return cfg, nil
}

func newSimulator(cfg *config.Config, logger *slog.Logger) (*sim.Simulator, error) {
	scene, err := cfg.Scene()
	if err != nil {
		return nil, err
	}
	opts := []sim.Option{sim.WithLogger(logger)}
	if cfg.Workers > 0 {
		opts = append(opts, sim.WithWorkers(cfg.Workers))
	}
	if cfg.MaxEvents > 0 {
		opts = append(opts, sim.WithMaxEvents(cfg.MaxEvents))
	}
	return sim.New(scene, cfg.Settings(), opts...)
}

func runSimulation(cmd *cobra.Command, args []string) error {
	logger := newLogger()
	cfg, err := loadScene(cmd, args[0])
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	s, err := newSimulator(cfg, logger)
	if err != nil {
		return err
	}
	collisions := metrics.NewCollisions()
	s.AddMetric(metrics.NewKineticEnergy())
	s.AddMetric(metrics.NewEnergyDrift())
	s.AddMetric(metrics.NewMomentum())
	s.AddMetric(metrics.NewStability(runawaySpeed))
	s.AddMetric(collisions)
	s.AddObserver(stepLogger{logger})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	logger.Info("running", "scene", cfg.Name, "balls", len(s.Balls()), "dt", cfg.Dt, "duration", cfg.Duration)
	start := time.Now()
	result, err := s.Run(ctx, cfg.SimConfig())
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	runID, err := st.Save(cfg, result)
	if err != nil {
		return err
	}

	fmt.Println(titleStyle.Render(strings.ToUpper(cfg.Name)))
	fmt.Println(labelStyle.Render("run id") + runID)
	fmt.Println(labelStyle.Render("completed") + elapsed.String())
	fmt.Println(labelStyle.Render("steps") + fmt.Sprint(result.StepsTaken))
	fmt.Println(labelStyle.Render("balls left") + fmt.Sprint(len(s.Balls())))
	for _, kind := range []sim.EventKind{sim.EventBallBall, sim.EventBallWall, sim.EventPocketed, sim.EventSwallowed} {
		fmt.Println(labelStyle.Render(kind.String()) + fmt.Sprint(collisions.Count(kind)))
	}

	fmt.Println("\nmetrics:")
	names := make([]string, 0, len(result.Metrics))
	for name := range result.Metrics {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Printf("  %s: %.6f\n", name, result.Metrics[name])
	}
	return nil
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := loadScene(cmd, args[0])
	if err != nil {
		return err
	}
	// The terminal belongs to the live view, so only errors get through.
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	s, err := newSimulator(cfg, logger)
	if err != nil {
		return err
	}
	return viz.RunLive(s, cfg.Name, cfg.Dt, theme)
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSCENE\tBALLS\tLEFT\tEVENTS\tENERGY\tTIMESTAMP")
	for _, r := range runs {
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\t%+.1f%%\t%s\n",
			r.ID, r.Scene, r.Balls, r.Remaining, r.Events, 100*r.EnergyChange, r.Timestamp.Format(time.RFC3339))
	}
	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	frames, err := st.LoadFrames(args[0])
	if err != nil {
		return err
	}
	if len(frames) == 0 {
		return fmt.Errorf("run %s has no frames", args[0])
	}

	var (
		data    []float64
		caption string
	)
	switch series {
	case "energy":
		data, caption = viz.EnergySeries(frames), "Kinetic energy"
	case "balls":
		data, caption = viz.BallCountSeries(frames), "Balls on table"
	case "speed":
		data, caption = viz.SpeedSeries(frames, ballID), fmt.Sprintf("Speed of ball %d", ballID)
	default:
		return fmt.Errorf("unknown series %q (energy, balls, speed)", series)
	}

	fmt.Println(viz.PlotSeries(data, caption))
	fmt.Printf("\n%d frames over %.2fs\n", len(frames), frames[len(frames)-1].Time-frames[0].Time)
	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

func exportJSON(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	data, err := st.Export(args[0])
	if err != nil {
		return err
	}
	if outPath == "" {
		return storage.WriteJSON(os.Stdout, data)
	}
	if err := storage.ExportJSON(outPath, data); err != nil {
		return err
	}
	fmt.Printf("exported %d frames, %d events to %s\n", len(data.Frames), len(data.Events), outPath)
	return nil
}

func exportSVG(cmd *cobra.Command, args []string) error {
	runID := args[0]
	st := storage.New(dataDir)
	frames, err := st.LoadFrames(runID)
	if err != nil {
		return err
	}
	cfg, err := st.LoadScene(runID)
	if err != nil {
		return err
	}
	scene, err := cfg.Scene()
	if err != nil {
		return err
	}

	var svg string
	if snapshot {
		if len(frames) > 0 {
			scene.Balls = frames[len(frames)-1].Balls
		}
		canvas := viz.NewCanvas(80, 24)
		viz.DrawScene(canvas, viz.FitViewport(scene, 160, 96), scene)
		svg = export.CanvasToSVG(canvas, float64(svgWidth)/160)
	} else {
		svg = export.TrajectoriesSVG(frames, scene.Walls, svgWidth, svgHeight)
	}
	if svg == "" {
		return fmt.Errorf("run %s has nothing to draw", runID)
	}

	path := outPath
	if path == "" {
		path = runID + ".svg"
	}
	if err := os.WriteFile(path, []byte(svg), 0644); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", path)
	return nil
}

func listPresets(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tBALLS\tWALLS\tHOLES\tPOCKETS\tDURATION")
	for _, name := range config.ListPresets() {
		cfg := config.GetPreset(name)
		scene, err := cfg.Scene()
		if err != nil {
			return fmt.Errorf("preset %s: %w", name, err)
		}
		fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%d\t%.1fs\n",
			name, len(scene.Balls), len(scene.Walls), len(scene.Holes), len(scene.Pockets), cfg.Duration)
	}
	return w.Flush()
}

func benchScene(cmd *cobra.Command, args []string) error {
	base, err := loadScene(cmd, args[0])
	if err != nil {
		return err
	}
	logger := slog.New(slog.DiscardHandler)

	dts := []float64{0.001, 0.01, 0.1}
	if cmd.Flags().Changed("dt") {
		dts = []float64{dt}
	}
	workerCounts := []int{1, runtime.GOMAXPROCS(0)}
	if cmd.Flags().Changed("workers") {
		workerCounts = []int{workers}
	}

	fmt.Printf("benchmarking %s (%.1fs simulated)\n\n", base.Name, base.Duration)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "WORKERS\tDT\tSTEPS\tEVENTS\tTIME\tSTEPS/SEC")

	for _, n := range workerCounts {
		for _, step := range dts {
			cfg := *base
			cfg.Dt = step
			cfg.Workers = n
			cfg.RecordEvery = int(cfg.Duration / step)

			s, err := newSimulator(&cfg, logger)
			if err != nil {
				return err
			}
			start := time.Now()
			result, err := s.Run(context.Background(), cfg.SimConfig())
			if err != nil {
				return err
			}
			elapsed := time.Since(start)

			fmt.Fprintf(w, "%d\t%.4fs\t%d\t%d\t%v\t%.0f\n",
				n, step, result.StepsTaken, len(result.Events), elapsed, float64(result.StepsTaken)/elapsed.Seconds())
		}
	}
	return w.Flush()
}

func defaultMetrics() []sim.Metric {
	return []sim.Metric{
		metrics.NewKineticEnergy(),
		metrics.NewEnergyDrift(),
		metrics.NewMomentum(),
		metrics.NewStability(runawaySpeed),
		metrics.NewCollisions(),
	}
}

// sweepSettings runs every value of one setting over all given scenes. The
// first scene supplies the timestep, duration and base settings.
func sweepSettings(cmd *cobra.Command, args []string) error {
	var (
		base   *config.Config
		scenes []sim.Scene
	)
	for _, name := range args {
		cfg, err := loadScene(cmd, name)
		if err != nil {
			return err
		}
		scene, err := cfg.Scene()
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		if base == nil {
			base = cfg
		}
		scenes = append(scenes, scene)
	}

	grid, err := optim.NewGridSearch([]string{param}, [][]float64{optim.Linspace(from, to, points)})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	logger := newLogger()
	opts := []sim.Option{sim.WithLogger(logger)}
	if base.Workers > 0 {
		opts = append(opts, sim.WithWorkers(base.Workers))
	}
	logger.Info("sweeping", "param", param, "points", points, "scenes", len(scenes))

	best, trials, err := grid.Search(ctx, scenes, base.Settings(), base.SimConfig(), defaultMetrics, objective, opts...)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\t%s\tLEFT\tEVENTS\n", strings.ToUpper(param), strings.ToUpper(objective))
	for _, tr := range trials {
		if tr.Err != nil {
			fmt.Fprintf(w, "%g\terror: %v\t\t\n", tr.Params[param], tr.Err)
			continue
		}
		fmt.Fprintf(w, "%g\t%.6g\t%.1f\t%.1f\n", tr.Params[param], tr.Metrics[objective], tr.Remaining, tr.Events)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Println()
	fmt.Println(labelStyle.Render("best "+param) + fmt.Sprintf("%g", best.Params[param]))
	return nil
}

// stepLogger reports pocketed and swallowed balls as they happen.
type stepLogger struct{ logger *slog.Logger }

func (l stepLogger) OnStep(f sim.Frame) {
	for _, ev := range f.Events {
		if ev.Kind == sim.EventPocketed || ev.Kind == sim.EventSwallowed {
			l.logger.Info(ev.Kind.String(), "ball", ev.Ball, "time", ev.Time)
		}
	}
}
