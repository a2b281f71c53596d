package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/spherro/internal/analysis"
	"github.com/san-kum/spherro/internal/automation"
	"github.com/san-kum/spherro/internal/config"
	"github.com/san-kum/spherro/internal/export"
	"github.com/san-kum/spherro/internal/metrics"
	"github.com/san-kum/spherro/internal/sim"
	"github.com/san-kum/spherro/internal/sph"
	"github.com/san-kum/spherro/internal/storage"
	"github.com/san-kum/spherro/internal/viz"
)

var (
	dataDir     string
	logLevel    string
	configFile  string
	preset      string
	dt          float64
	steps       int
	substeps    int
	seed        uint64
	workers     int
	accelerator string
	frameEvery  int
	noStore     bool
	runs        int
	outFile     string
	theme       string
	svgOut      string
	svgScale    float64
	sweepParam  string
	sweepMin    float64
	sweepMax    float64
	sweepPoints int

	logger *log.Logger
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "spherro",
		Short: "2-D smoothed particle hydrodynamics playground",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level, err := log.ParseLevel(logLevel)
			if err != nil {
				return err
			}
			logger = log.NewWithOptions(os.Stderr, log.Options{
				Level:           level,
				ReportTimestamp: true,
				Prefix:          "spherro",
			})
			return nil
		},
		RunE: pickPreset,
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".spherro", "data directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&theme, "theme", viz.CurrentTheme.Name, "live view theme")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run a headless simulation and store it",
		Args:  cobra.NoArgs,
		RunE:  runSimulation,
	}
	addSimFlags(runCmd)
	runCmd.Flags().IntVar(&frameEvery, "frame-every", 10, "store a particle frame every n frames (0 disables)")
	runCmd.Flags().BoolVar(&noStore, "no-store", false, "do not write the run to the data directory")

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "run a simulation in the terminal",
		Args:  cobra.NoArgs,
		RunE:  runLive,
	}
	addSimFlags(liveCmd)

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot the metrics of a stored run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export a stored run as json",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}
	exportCmd.Flags().StringVarP(&outFile, "out", "o", "", "output path (default <run_id>.json)")
	exportCmd.Flags().StringVar(&svgOut, "svg", "", "also render the last stored frame to this svg file")
	exportCmd.Flags().Float64Var(&svgScale, "scale", 1, "svg pixels per domain unit")

	scenarioCmd := &cobra.Command{
		Use:   "scenario [file]",
		Short: "run a scripted scenario of spawn, despawn and force events",
		Args:  cobra.ExactArgs(1),
		RunE:  runScenario,
	}
	scenarioCmd.Flags().BoolVar(&noStore, "no-store", false, "do not write the run to the data directory")

	sweepCmd := &cobra.Command{
		Use:   "sweep",
		Short: "sweep a solver parameter and report stability",
		Args:  cobra.NoArgs,
		RunE:  runSweep,
	}
	sweepCmd.Flags().StringVar(&preset, "preset", "dambreak", "preset to sweep")
	sweepCmd.Flags().StringVar(&sweepParam, "param", "viscosity", "solver parameter (yaml name)")
	sweepCmd.Flags().Float64Var(&sweepMin, "min", 0, "first value")
	sweepCmd.Flags().Float64Var(&sweepMax, "max", 50, "last value")
	sweepCmd.Flags().IntVar(&sweepPoints, "points", 6, "number of values")
	sweepCmd.Flags().IntVar(&steps, "steps", 100, "frames per run")

	benchCmd := &cobra.Command{
		Use:   "bench",
		Short: "measure solver throughput over several seeds",
		Args:  cobra.NoArgs,
		RunE:  benchSolver,
	}
	addSimFlags(benchCmd)
	benchCmd.Flags().IntVar(&runs, "runs", 4, "number of concurrent runs")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list presets",
		Args:  cobra.NoArgs,
		RunE:  listPresets,
	}

	initCmd := &cobra.Command{
		Use:   "init [path]",
		Short: "write a preset as a config file",
		Args:  cobra.ExactArgs(1),
		RunE:  writeConfig,
	}
	initCmd.Flags().StringVar(&preset, "preset", "dambreak", "preset to write")

	rootCmd.AddCommand(runCmd, liveCmd, listCmd, plotCmd, exportCmd, scenarioCmd, sweepCmd, benchCmd, presetsCmd, initCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func addSimFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	cmd.Flags().StringVar(&preset, "preset", "dambreak", "use preset configuration")
	cmd.Flags().Float64Var(&dt, "dt", config.DefaultDt, "timestep")
	cmd.Flags().IntVar(&steps, "steps", config.DefaultSteps, "number of frames")
	cmd.Flags().IntVar(&substeps, "substeps", config.DefaultSubsteps, "solver steps per frame")
	cmd.Flags().Uint64Var(&seed, "seed", 1, "random seed")
	cmd.Flags().IntVar(&workers, "workers", 1, "goroutines per solver phase")
	cmd.Flags().StringVar(&accelerator, "accelerator", "grid", "neighbour index (grid, quadtree, brute)")
}

// resolveConfig layers the preset, then the config file, then any flags
// set on the command line.
func resolveConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.GetPreset(preset)
	if cfg == nil {
		return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
	}

	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	if cmd.Flags().Changed("dt") {
		cfg.Run.Dt = dt
	}
	if cmd.Flags().Changed("steps") {
		cfg.Run.Steps = steps
	}
	if cmd.Flags().Changed("substeps") {
		cfg.Run.Substeps = substeps
	}
	if cmd.Flags().Changed("seed") {
		cfg.Run.Seed = seed
	}
	if cmd.Flags().Changed("workers") {
		cfg.Run.Workers = workers
	}
	if cmd.Flags().Changed("accelerator") {
		cfg.Run.Accelerator = accelerator
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	u, err := sim.Build(cfg, logger)
	if err != nil {
		return err
	}

	s := sim.New(u, logger)
	for _, m := range metrics.Defaults() {
		s.AddMetric(m)
	}

	runCfg := sim.Config{
		Dt:         cfg.Run.Dt,
		Frames:     cfg.Run.Steps,
		Substeps:   cfg.Run.Substeps,
		FrameEvery: frameEvery,
	}
	if f, ok := sim.ForceOf(cfg); ok {
		runCfg.Force = &f
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	logger.Info("running simulation", "scene", cfg.Scene.Strategy, "particles", u.ParticleCount(), "frames", cfg.Run.Steps)
	start := time.Now()

	result, err := s.Run(ctx, runCfg)
	if err != nil && result == nil {
		return err
	}
	if err != nil {
		logger.Warn("run interrupted", "err", err, "steps", result.StepsTaken)
	}

	elapsed := time.Since(start)

	fmt.Printf("completed in %v\n", elapsed)
	fmt.Printf("steps: %d\n", result.StepsTaken)
	fmt.Printf("particles: %d\n", u.ParticleCount())
	if result.Unstable() {
		fmt.Printf("unstable: %v\n", result.Err)
	}

	if !noStore {
		runID, err := storeRun(preset, cfg, result, u.ParticleCount())
		if err != nil {
			return err
		}
		fmt.Printf("run id: %s\n", runID)
	}

	fmt.Println("\nmetrics:")
	for _, m := range metrics.Defaults() {
		fmt.Printf("  %s: %.6f\n", m.Name(), result.Metrics[m.Name()])
	}

	return nil
}

func storeRun(scene string, cfg *config.Config, result *sim.Result, particles int) (string, error) {
	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return "", err
	}
	return st.Save(&storage.Run{
		Meta: storage.RunMetadata{
			Scene:     scene,
			Seed:      cfg.Run.Seed,
			Dt:        cfg.Run.Dt,
			Steps:     result.StepsTaken,
			Particles: particles,
			Unstable:  result.Unstable(),
			Config:    cfg,
			Metrics:   result.Metrics,
		},
		Frames:  result.Frames,
		Samples: result.Samples,
	})
}

func liveModel(cfg *config.Config, title string) (viz.Model, error) {
	opts := viz.LiveOptions{
		Title:    title,
		Dt:       cfg.Run.Dt,
		Substeps: cfg.Run.Substeps,
		Logger:   logger,
	}
	opts.Force, opts.HasForce = sim.ForceOf(cfg)

	return viz.NewModel(func() (*sph.Universe, error) {
		return sim.Build(cfg, logger)
	}, opts)
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	viz.SetTheme(theme)

	m, err := liveModel(cfg, preset)
	if err != nil {
		return err
	}
	_, err = tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}

func pickPreset(cmd *cobra.Command, args []string) error {
	viz.SetTheme(theme)
	p := viz.NewPicker(config.ListPresets(), func(name string) (viz.Model, error) {
		return liveModel(config.GetPreset(name), name)
	})
	_, err := tea.NewProgram(p, tea.WithAltScreen()).Run()
	return err
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
	fmt.Fprintln(w, "ID\tSCENE\tTIME\tSTEPS\tDT\tPARTICLES\tSTABLE")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%.4fs\t%d\t%v\n",
			run.ID,
			run.Scene,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Steps,
			run.Dt,
			run.Particles,
			!run.Unstable,
		)
	}

	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}

	samples, err := st.LoadSamples(runID)
	if err != nil {
		return err
	}

	if len(samples) == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("scene: %s\n", meta.Scene)
	fmt.Printf("samples: %d\n\n", len(samples))

	series := []struct {
		caption string
		value   func(metrics.Sample) float64
	}{
		{"kinetic energy per particle", func(s metrics.Sample) float64 { return s.KineticEnergy }},
		{"mean density", func(s metrics.Sample) float64 { return s.MeanDensity }},
		{"max speed", func(s metrics.Sample) float64 { return s.MaxSpeed }},
		{"particles", func(s metrics.Sample) float64 { return float64(s.Particles) }},
	}

	for _, ser := range series {
		data := make([]float64, len(samples))
		for i, s := range samples {
			data[i] = ser.value(s)
		}

		graph := asciigraph.Plot(data,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(ser.caption),
		)
		fmt.Println(graph)
		fmt.Println()
	}

	if len(samples) > 1 {
		ke := make([]float64, len(samples))
		for i, s := range samples {
			ke[i] = s.KineticEnergy
		}
		if period, ok := analysis.DominantPeriod(ke, samples[1].Time-samples[0].Time); ok {
			fmt.Printf("dominant kinetic energy period: %.4fs\n", period)
		}
	}

	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	runID := args[0]
	path := outFile
	if path == "" {
		path = runID + ".json"
	}

	st := storage.New(dataDir)
	if err := st.ExportJSON(runID, path); err != nil {
		return err
	}
	fmt.Printf("exported to %s\n", path)

	if svgOut != "" {
		if err := exportSVG(st, runID, svgOut); err != nil {
			return err
		}
		fmt.Printf("rendered to %s\n", svgOut)
	}
	return nil
}

func exportSVG(st *storage.Store, runID, path string) error {
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	frames, err := st.LoadFrames(runID)
	if err != nil {
		return err
	}
	if len(frames) == 0 {
		return fmt.Errorf("run %s has no stored frames", runID)
	}

	cfg := meta.Config
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	last := frames[len(frames)-1]
	svg := export.FrameToSVG(last.Data, cfg.Domain.Width, cfg.Domain.Height, svgScale, cfg.Solver.H/5)
	return os.WriteFile(path, []byte(svg), 0644)
}

func runScenario(cmd *cobra.Command, args []string) error {
	scenario, err := automation.LoadScenario(args[0])
	if err != nil {
		return fmt.Errorf("failed to load scenario: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	logger.Info("running scenario", "name", scenario.Name, "preset", scenario.Preset, "events", len(scenario.Actions))
	result, cfg, err := automation.RunScenario(ctx, scenario, logger)
	if result == nil {
		return err
	}
	if err != nil {
		logger.Warn("scenario did not finish cleanly", "err", err)
	}

	particles := 0
	if n := len(result.Samples); n > 0 {
		particles = result.Samples[n-1].Particles
	}
	fmt.Printf("steps: %d\n", result.StepsTaken)
	fmt.Printf("particles: %d\n", particles)
	if result.Unstable() {
		fmt.Printf("unstable: %v\n", result.Err)
	}

	if !noStore {
		runID, err := storeRun(scenario.Name, cfg, result, particles)
		if err != nil {
			return err
		}
		fmt.Printf("run id: %s\n", runID)
	}
	return nil
}

func runSweep(cmd *cobra.Command, args []string) error {
	results, err := automation.RunSweep(context.Background(), &automation.ParameterSweep{
		Preset:    preset,
		ParamName: sweepParam,
		ParamMin:  sweepMin,
		ParamMax:  sweepMax,
		NumSteps:  sweepPoints,
		Frames:    steps,
	}, logger)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\tSTEPS\tSTABLE\tMAX SPEED\tENERGY\n", strings.ToUpper(sweepParam))
	for _, r := range results {
		fmt.Fprintf(w, "%g\t%d\t%v\t%.1f\t%.4g\n", r.ParamValue, r.Steps, r.Stable, r.MaxSpeed, r.Energy)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	stable, unstable := automation.SweepStats(results)
	fmt.Printf("\nstable: %d, unstable: %d\n", stable, unstable)
	return nil
}

func benchSolver(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	if !cmd.Flags().Changed("steps") {
		cfg.Run.Steps = 100
	}

	runCfg := sim.Config{Dt: cfg.Run.Dt, Frames: cfg.Run.Steps, Substeps: cfg.Run.Substeps}
	if f, ok := sim.ForceOf(cfg); ok {
		runCfg.Force = &f
	}

	fmt.Printf("benchmarking %s: %d runs x %d frames (%s, %d workers)...\n",
		preset, runs, cfg.Run.Steps, cfg.Run.Accelerator, cfg.Run.Workers)

	start := time.Now()
	results, err := sim.NewEnsemble(cfg, runs, cfg.Run.Seed, logger).Run(context.Background(), runCfg)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	total, unstable := 0, 0
	for _, r := range results {
		total += r.StepsTaken
		if r.Unstable() {
			unstable++
		}
	}

	fmt.Printf("\ncompleted in %v\n", elapsed)
	fmt.Printf("steps: %d\n", total)
	fmt.Printf("steps/sec: %.0f\n", float64(total)/elapsed.Seconds())
	fmt.Printf("unstable runs: %d/%d\n", unstable, len(results))

	return nil
}

func listPresets(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tSCENE\tDOMAIN\tFORCE\tFRAMES")

	for _, name := range config.ListPresets() {
		cfg := config.GetPreset(name)
		force := "-"
		if cfg.HasForce() {
			force = fmt.Sprintf("(%.0f, %.0f) r=%.0f", cfg.Force.X, cfg.Force.Y, cfg.Force.Radius)
		}
		fmt.Fprintf(w, "%s\t%s\t%.0fx%.0f\t%s\t%d\n",
			name,
			strings.ToLower(cfg.Scene.Strategy),
			cfg.Domain.Width, cfg.Domain.Height,
			force,
			cfg.Run.Steps,
		)
	}

	return w.Flush()
}

func writeConfig(cmd *cobra.Command, args []string) error {
	cfg := config.GetPreset(preset)
	if cfg == nil {
		return fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
	}
	if err := config.Save(args[0], cfg); err != nil {
		return err
	}
	fmt.Printf("wrote %s preset to %s\n", preset, args[0])
	return nil
}
