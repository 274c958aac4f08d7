package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"slices"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/physync/internal/automation"
	"github.com/san-kum/physync/internal/binding"
	"github.com/san-kum/physync/internal/config"
	"github.com/san-kum/physync/internal/export"
	"github.com/san-kum/physync/internal/scenes"
	"github.com/san-kum/physync/internal/sim"
	"github.com/san-kum/physync/internal/spawn"
	"github.com/san-kum/physync/internal/trace"
	"github.com/san-kum/physync/internal/transport/ws"
	"github.com/san-kum/physync/internal/viz"
	"github.com/spf13/cobra"
)

var (
	dataDir    string
	configFile string
	preset     string
	logLevel   string
	seed       int64
	frames     int
	dt         float64
	frameRate  int
	record     bool
	bodies     bool
	every      uint64
	theme      string
	addr       string
	metric     string
	numRuns    int
	outFile    string
	plane      string
	bindingID  uint32
	svgSize    int
	snapFrames int
	snapWidth  int
	// lattice command
	scale       float64
	polarStep   float64
	azimuthStep float64
	baseHeight  float64
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "physync",
		Short:        "rigid-body scenes kept in sync with their render nodes",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setupLogging()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return viz.RunMenu(viz.Options{Registry: scenes.NewRegistry(), Theme: theme, Log: quietLogger()})
		},
	}
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".physync", "data directory")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "scene config file (yaml)")
	rootCmd.PersistentFlags().StringVar(&preset, "preset", "", "use preset configuration")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "debug, info, warn or error")
	rootCmd.PersistentFlags().Int64Var(&seed, "seed", 0, "random seed (0 keeps the configured one)")
	rootCmd.Flags().StringVar(&theme, "theme", "cyberpunk", "color theme")

	runCmd := &cobra.Command{
		Use:   "run [scene]",
		Short: "step a scene headless and print its metrics",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runScene,
	}
	runCmd.Flags().IntVar(&frames, "frames", 600, "number of frames")
	runCmd.Flags().Float64Var(&dt, "dt", 1.0/60, "frame delta in seconds")
	addRecordFlags(runCmd)

	liveCmd := &cobra.Command{
		Use:   "live [scene]",
		Short: "open a scene in the terminal view, or the scene menu",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runLive,
	}
	liveCmd.Flags().StringVar(&theme, "theme", "cyberpunk", "color theme")

	serveCmd := &cobra.Command{
		Use:   "serve [scene]",
		Short: "run a scene in real time and stream it over websockets",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runServe,
	}
	serveCmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	serveCmd.Flags().IntVar(&frameRate, "fps", 0, "frame rate (0 uses the config)")

	scriptCmd := &cobra.Command{
		Use:   "script [file]",
		Short: "replay a gesture script and check its expectations",
		Args:  cobra.ExactArgs(1),
		RunE:  runScript,
	}
	addRecordFlags(scriptCmd)

	latticeCmd := &cobra.Command{
		Use:   "lattice",
		Short: "print ball lattice spawn positions",
		Args:  cobra.NoArgs,
		RunE:  printLattice,
	}
	def := spawn.DefaultLatticeOptions()
	latticeCmd.Flags().Float64Var(&scale, "scale", def.Scale, "shell radius")
	latticeCmd.Flags().Float64Var(&polarStep, "polar-step", def.PolarStep, "polar step in radians")
	latticeCmd.Flags().Float64Var(&azimuthStep, "azimuth-step", 0, "azimuth step in radians (0 reuses the polar step)")
	latticeCmd.Flags().Float64Var(&baseHeight, "height", def.BaseHeight, "height of the shell center")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list recorded runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot a series from a recorded run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().StringVar(&metric, "metric", "energy", "series to plot (elapsed, applied, delta, synced, skipped or a metric)")

	benchCmd := &cobra.Command{
		Use:   "bench [scene]",
		Short: "run independent copies of a scene in parallel",
		Args:  cobra.MaximumNArgs(1),
		RunE:  benchScene,
	}
	benchCmd.Flags().IntVar(&numRuns, "runs", 4, "number of parallel scenes")
	benchCmd.Flags().IntVar(&frames, "frames", 600, "frames per scene")
	benchCmd.Flags().Float64Var(&dt, "dt", 1.0/60, "frame delta in seconds")

	presetsCmd := &cobra.Command{
		Use:   "presets [scene]",
		Short: "list presets",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			names := scenes.NewRegistry().List()
			if len(args) == 1 {
				names = args
			}
			for _, name := range names {
				presets := config.ListPresets(name)
				if len(presets) == 0 {
					fmt.Printf("no presets for scene: %s\n", name)
					continue
				}
				fmt.Printf("%s: %s\n", name, strings.Join(presets, ", "))
			}
			return nil
		},
	}

	scenesCmd := &cobra.Command{
		Use:   "scenes",
		Short: "list scenes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			reg := scenes.NewRegistry()
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "SCENE\tDESCRIPTION")
			for _, name := range reg.List() {
				fmt.Fprintf(w, "%s\t%s\n", name, reg.Describe(name))
			}
			return w.Flush()
		},
	}

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export the frame series of a run to CSV",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}
	exportCSVCmd.Flags().StringVarP(&outFile, "out", "o", "", "output file (default stdout)")

	exportSVGCmd := &cobra.Command{
		Use:   "export-svg [run_id]",
		Short: "draw the path of one binding from a run recorded with --bodies",
		Args:  cobra.ExactArgs(1),
		RunE:  exportSVG,
	}
	exportSVGCmd.Flags().StringVarP(&outFile, "out", "o", "", "output file (default stdout)")
	exportSVGCmd.Flags().Uint32Var(&bindingID, "binding", 1, "binding handle")
	exportSVGCmd.Flags().StringVar(&plane, "plane", "xy", "world axes to draw: xy, xz or zy")
	exportSVGCmd.Flags().IntVar(&svgSize, "size", 600, "image size in pixels")

	snapshotCmd := &cobra.Command{
		Use:   "snapshot [scene]",
		Short: "step a scene and save the terminal view as SVG",
		Args:  cobra.MaximumNArgs(1),
		RunE:  snapshot,
	}
	snapshotCmd.Flags().StringVarP(&outFile, "out", "o", "", "output file (default stdout)")
	snapshotCmd.Flags().IntVar(&snapFrames, "frames", 60, "frames to step before drawing")
	snapshotCmd.Flags().IntVar(&snapWidth, "size", 80, "canvas width in cells")

	rootCmd.AddCommand(runCmd, liveCmd, serveCmd, scriptCmd, latticeCmd, listCmd, plotCmd, benchCmd, presetsCmd, scenesCmd,
		exportCSVCmd, exportSVGCmd, snapshotCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func addRecordFlags(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&record, "record", false, "write a trace to the data directory")
	cmd.Flags().BoolVar(&bodies, "bodies", false, "include body transforms in the trace")
	cmd.Flags().Uint64Var(&every, "every", 1, "record one frame in n")
}

func setupLogging() error {
	var level slog.Level
	if err := level.UnmarshalText([]byte(logLevel)); err != nil {
		return fmt.Errorf("invalid log level %q", logLevel)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	return nil
}

// quietLogger keeps info logs from tearing the alt screen.
func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// loadConfig resolves the scene config: file, then preset, then defaults.
// A scene argument overrides the configured scene.
func loadConfig(args []string) (*config.Config, string, error) {
	var (
		cfg *config.Config
		err error
	)
	scene := config.DefaultScene
	if len(args) > 0 {
		scene = args[0]
	}
	switch {
	case configFile != "":
		cfg, err = config.Load(configFile)
		if err != nil {
			return nil, "", fmt.Errorf("failed to load config: %w", err)
		}
		if len(args) > 0 {
			cfg.Scene = scene
		}
	case preset != "":
		cfg = config.GetPreset(scene, preset)
		if cfg == nil {
			return nil, "", fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets(scene))
		}
	default:
		cfg = config.DefaultConfig()
		cfg.Scene = scene
	}
	if seed != 0 {
		cfg.Seed = seed
	}
	return cfg, preset, nil
}

// attachTrace records sc into a new run. The returned function closes the
// run with the final result.
func attachTrace(sc *scenes.Scene, presetName string) (func(*sim.Result) error, error) {
	if !record {
		return func(*sim.Result) error { return nil }, nil
	}
	st := trace.NewStore(dataDir)
	if err := st.Init(); err != nil {
		return nil, err
	}
	run, err := st.Create(sc.Config.Scene, presetName, sc.Config.Seed)
	if err != nil {
		return nil, err
	}
	opts := []trace.RecorderOption{trace.WithMetrics(sc.Metrics...), trace.Every(every)}
	if bodies {
		opts = append(opts, trace.WithBodies())
	}
	rec := trace.NewRecorder(run, sc.Table, opts...)
	sc.Stepper.AddObserver(rec)
	sc.Machine.OnApplied(rec.OnApplied)

	return func(res *sim.Result) error {
		if err := rec.Err(); err != nil {
			_ = run.Close()
			return fmt.Errorf("trace: %w", err)
		}
		if err := run.Finish(res.Frames, res.Elapsed, res.Metrics); err != nil {
			return err
		}
		fmt.Printf("run id: %s\n", run.ID())
		return nil
	}, nil
}

func runScene(cmd *cobra.Command, args []string) error {
	cfg, presetName, err := loadConfig(args)
	if err != nil {
		return err
	}
	sc, err := scenes.NewRegistry().Build(cfg, nil)
	if err != nil {
		return err
	}
	finish, err := attachTrace(sc, presetName)
	if err != nil {
		return err
	}

	fmt.Printf("running %s (%d bindings)...\n", cfg.Scene, sc.Table.Len())
	res, err := sc.Runner.Run(cmd.Context(), frames, dt)
	if err != nil {
		return err
	}
	if err := finish(res); err != nil {
		return err
	}
	printResult(res)
	return nil
}

func printResult(res *sim.Result) {
	fmt.Printf("completed in %v\n", res.Wall)
	fmt.Printf("frames: %d\n", res.Frames)
	fmt.Printf("simulated: %.3fs\n", res.Elapsed)
	fmt.Println("\nmetrics:")
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	for _, name := range sortedKeys(res.Metrics) {
		fmt.Fprintf(w, "  %s\t%.6f\n", name, res.Metrics[name])
	}
	w.Flush()
}

func runLive(cmd *cobra.Command, args []string) error {
	opts := viz.Options{Registry: scenes.NewRegistry(), Theme: theme, Log: quietLogger()}
	if len(args) == 0 && configFile == "" {
		return viz.RunMenu(opts)
	}
	cfg, _, err := loadConfig(args)
	if err != nil {
		return err
	}
	opts.Config = cfg
	return viz.Run(opts)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadConfig(args)
	if err != nil {
		return err
	}
	sc, err := scenes.NewRegistry().Build(cfg, slog.Default())
	if err != nil {
		return err
	}
	srv := ws.NewServer(cfg.Scene, sc.Table, sc.Machine, sc.Machine.Inbox(), slog.Default())
	sc.Stepper.AddObserver(srv)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fps := frameRate
	if fps <= 0 {
		fps = cfg.View.FPS
	}
	loopErr := make(chan error, 1)
	go func() {
		_, err := sc.Runner.Loop(ctx, fps)
		if err != nil {
			stop()
		}
		loopErr <- err
	}()

	if err := srv.ListenAndServe(ctx, addr); err != nil {
		stop()
		<-loopErr
		return err
	}
	return <-loopErr
}

func runScript(cmd *cobra.Command, args []string) error {
	s, err := automation.LoadScript(args[0])
	if err != nil {
		return err
	}
	cfg, err := s.Config()
	if err != nil {
		return err
	}
	if seed != 0 {
		cfg.Seed = seed
	}
	sc, err := scenes.NewRegistry().Build(cfg, nil)
	if err != nil {
		return err
	}
	finish, err := attachTrace(sc, s.Preset)
	if err != nil {
		return err
	}

	start := time.Now()
	rep, err := automation.Run(cmd.Context(), sc, s)
	if err != nil {
		return err
	}
	if err := finish(&sim.Result{Frames: rep.Frames, Elapsed: rep.Elapsed, Wall: time.Since(start), Metrics: rep.Metrics}); err != nil {
		return err
	}

	fmt.Printf("script: %s\n", rep.Script)
	fmt.Printf("frames: %d (%.3fs simulated)\n", rep.Frames, rep.Elapsed)
	fmt.Printf("events: %d applied, %d rejected\n", rep.Events, rep.Rejected)
	for _, name := range sortedKeys(rep.Metrics) {
		fmt.Printf("  %s: %.6f\n", name, rep.Metrics[name])
	}
	if !rep.OK() {
		for _, f := range rep.Failures {
			fmt.Printf("FAIL %s\n", f)
		}
		return fmt.Errorf("%d expectation(s) failed", len(rep.Failures))
	}
	fmt.Println("ok")
	return nil
}

func printLattice(cmd *cobra.Command, args []string) error {
	o := spawn.DefaultLatticeOptions()
	o.Scale = scale
	o.PolarStep = polarStep
	o.BaseHeight = baseHeight
	if azimuthStep > 0 {
		o.ReusePolarStep = false
		o.AzimuthStep = azimuthStep
	}
	if o.PolarStep <= 0 || o.AzimuthStep <= 0 {
		return fmt.Errorf("steps must be positive")
	}

	positions := spawn.Positions(o)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "#\tX\tY\tZ")
	for i, p := range positions {
		fmt.Fprintf(w, "%d\t%.4f\t%.4f\t%.4f\n", i, p.X(), p.Y(), p.Z())
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Printf("\n%d balls\n", len(positions))
	return nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	runs, err := trace.NewStore(dataDir).List()
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSCENE\tPRESET\tTIME\tFRAMES\tSIMULATED\tRECORDS")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%.2fs\t%d\n",
			run.ID,
			run.Scene,
			run.Preset,
			run.Created.Format("2006-01-02 15:04:05"),
			run.Frames,
			run.Elapsed,
			run.Records,
		)
	}
	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	st := trace.NewStore(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	records, err := st.LoadRecords(meta.ID)
	if err != nil {
		return err
	}
	data, err := trace.Series(records, metric)
	if err != nil {
		return err
	}
	if len(data) == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("scene: %s\n", meta.Scene)
	fmt.Printf("samples: %d\n\n", len(data))
	fmt.Println(asciigraph.Plot(data,
		asciigraph.Height(10),
		asciigraph.Width(80),
		asciigraph.Caption(metric+" per frame"),
	))
	return nil
}

func benchScene(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadConfig(args)
	if err != nil {
		return err
	}
	reg := scenes.NewRegistry()
	quiet := quietLogger()
	build := func(s int64) (*sim.Stepper, error) {
		c := *cfg
		c.Seed = s
		sc, err := reg.Build(&c, quiet)
		if err != nil {
			return nil, err
		}
		return sc.Stepper, nil
	}

	fmt.Printf("benchmarking %s: %d scenes x %d frames\n\n", cfg.Scene, numRuns, frames)
	start := time.Now()
	results, err := sim.NewEnsemble(build, numRuns, cfg.Seed).Run(cmd.Context(), frames, dt)
	if err != nil {
		return err
	}
	wall := time.Since(start)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SEED\tFRAMES\tTIME\tFRAMES/SEC\tENERGY")
	var total uint64
	for i, res := range results {
		total += res.Frames
		fmt.Fprintf(w, "%d\t%d\t%v\t%.0f\t%.4f\n",
			cfg.Seed+int64(i), res.Frames, res.Wall.Round(time.Millisecond),
			float64(res.Frames)/res.Wall.Seconds(), res.Metrics["energy"])
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Printf("\ntotal: %d frames in %v (%.0f frames/s)\n", total, wall.Round(time.Millisecond), float64(total)/wall.Seconds())
	return nil
}

func output(data string) error {
	if outFile == "" {
		_, err := fmt.Fprintln(os.Stdout, data)
		return err
	}
	if err := os.WriteFile(outFile, []byte(data), 0o644); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", outFile)
	return nil
}

func exportCSV(cmd *cobra.Command, args []string) error {
	records, err := trace.NewStore(dataDir).LoadRecords(args[0])
	if err != nil {
		return err
	}
	var sb strings.Builder
	if err := export.WriteCSV(&sb, records); err != nil {
		return err
	}
	return output(strings.TrimSuffix(sb.String(), "\n"))
}

func exportSVG(cmd *cobra.Command, args []string) error {
	records, err := trace.NewStore(dataDir).LoadRecords(args[0])
	if err != nil {
		return err
	}
	points, err := export.BodyPath(records, binding.Handle(bindingID), plane)
	if err != nil {
		return err
	}
	svg := export.TrajectoryToSVG(points, svgSize, svgSize, "#00ffff")
	if svg == "" {
		return fmt.Errorf("binding %d has fewer than two samples", bindingID)
	}
	return output(svg)
}

func snapshot(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadConfig(args)
	if err != nil {
		return err
	}
	sc, err := scenes.NewRegistry().Build(cfg, nil)
	if err != nil {
		return err
	}
	if snapFrames > 0 {
		if _, err := sc.Runner.Run(cmd.Context(), snapFrames, 1.0/60); err != nil {
			return err
		}
	}
	cam := viz.NewCamera()
	if cfg.View.Zoom > 0 {
		cam.Zoom = cfg.View.Zoom
	}
	cv := viz.NewCanvas(snapWidth, max(snapWidth*3/8, 1))
	viz.Draw(cv, sc.Render, cam)
	return output(export.CanvasToSVG(cv, 4))
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
