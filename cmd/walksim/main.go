package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/san-kum/walksim/internal/automation"
	"github.com/san-kum/walksim/internal/config"
	"github.com/san-kum/walksim/internal/experiment"
	"github.com/san-kum/walksim/internal/export"
	"github.com/san-kum/walksim/internal/viz"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	configFile string
	logLevel   string

	duration  float64
	runTicks  int
	plotTicks int
	interval  uint
	minVal    float64
	maxVal    float64
	step      float64
	start     float64
	seed      int64
	preset    string
	showPlot  bool
	format    string
	outFile   string

	sweepParam string
	sweepFrom  float64
	sweepTo    float64
	sweepSteps int
	sweepTicks int
	sweepSeed  int64

	cfg      *config.Config
	registry = experiment.NewRegistry()
)

// main registers the commands and runs the root command. With no subcommand
// the live monitor opens on every configured signal.
func main() {
	rootCmd := &cobra.Command{
		Use:               "walksim",
		Short:             "bounded random-walk signal simulator",
		SilenceUsage:      true,
		PersistentPreRunE: setup,
		RunE:              runMonitor,
	}
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", config.DefaultLogLevel, "log level (trace, debug, info, warn, error)")

	variantsCmd := &cobra.Command{
		Use:   "variants",
		Short: "list signal variants and their defaults",
		RunE:  listVariants,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets [variant]",
		Short: "list available presets for a variant",
		Args:  cobra.ExactArgs(1),
		RunE:  listPresets,
	}

	runCmd := &cobra.Command{
		Use:   "run [signal]",
		Short: "run one signal in real time and report its metrics",
		Args:  cobra.ExactArgs(1),
		RunE:  runSignal,
	}
	addSignalFlags(runCmd)
	runCmd.Flags().Float64Var(&duration, "time", 5, "duration in seconds (0 runs until interrupted or --ticks)")
	runCmd.Flags().IntVar(&runTicks, "ticks", 0, "stop after this many ticks")
	runCmd.Flags().BoolVar(&showPlot, "plot", false, "plot the collected samples")
	runCmd.Flags().StringVar(&format, "format", "table", "output format (table, json, csv)")
	runCmd.Flags().StringVarP(&outFile, "out", "o", "", "write output to file instead of stdout")

	plotCmd := &cobra.Command{
		Use:   "plot [signal]",
		Short: "step a signal without waiting and plot the walk",
		Args:  cobra.ExactArgs(1),
		RunE:  plotSignal,
	}
	addSignalFlags(plotCmd)
	plotCmd.Flags().IntVar(&plotTicks, "ticks", 200, "number of ticks")

	monitorCmd := &cobra.Command{
		Use:   "monitor",
		Short: "live terminal monitor for every configured signal",
		Args:  cobra.NoArgs,
		RunE:  runMonitor,
	}

	scenarioCmd := &cobra.Command{
		Use:   "scenario [file]",
		Short: "play a yaml scenario against a live signal",
		Args:  cobra.ExactArgs(1),
		RunE:  runScenario,
	}

	sweepCmd := &cobra.Command{
		Use:   "sweep [signal]",
		Short: "sweep one parameter and compare walk metrics",
		Args:  cobra.ExactArgs(1),
		RunE:  runSweep,
	}
	sweepCmd.Flags().StringVar(&sweepParam, "param", "step", "parameter to sweep (step, min, max)")
	sweepCmd.Flags().Float64Var(&sweepFrom, "from", 0.1, "first parameter value")
	sweepCmd.Flags().Float64Var(&sweepTo, "to", 1.0, "last parameter value")
	sweepCmd.Flags().IntVar(&sweepSteps, "steps", 5, "number of parameter values")
	sweepCmd.Flags().IntVar(&sweepTicks, "ticks", 1000, "ticks per parameter value")
	sweepCmd.Flags().Int64Var(&sweepSeed, "seed", 1, "random seed")
	sweepCmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")

	rootCmd.AddCommand(variantsCmd, presetsCmd, runCmd, plotCmd, monitorCmd, scenarioCmd, sweepCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func addSignalFlags(cmd *cobra.Command) {
	cmd.Flags().UintVar(&interval, "interval", 1000, "tick interval in milliseconds")
	cmd.Flags().Float64Var(&minVal, "min", 0, "lower bound")
	cmd.Flags().Float64Var(&maxVal, "max", 0, "upper bound")
	cmd.Flags().Float64Var(&step, "step", 0, "step size")
	cmd.Flags().Float64Var(&start, "start", 0, "initial value")
	cmd.Flags().Int64Var(&seed, "seed", 0, "random seed (0 seeds from the clock)")
	cmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
}

// setup applies the log level and loads the config file. An explicit
// --log-level wins over the file's log_level.
func setup(cmd *cobra.Command, args []string) error {
	cfg = config.DefaultConfig()
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = loaded
	}

	level := logLevel
	if !cmd.Flags().Changed("log-level") && cfg.LogLevel != "" {
		level = cfg.LogLevel
	}
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}
	logrus.SetLevel(lvl)
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	return nil
}

// signalConfig resolves name against the config file, falling back to a
// variant of that name, and layers any flags the user set on top.
func signalConfig(cmd *cobra.Command, name string) config.SignalConfig {
	sc, ok := cfg.Signal(name)
	if !ok {
		sc = config.SignalConfig{Name: name, Variant: name}
	}

	flags := cmd.Flags()
	if flags.Changed("preset") {
		sc.Preset = preset
	}
	if flags.Changed("interval") {
		sc.IntervalMs = &interval
	}
	if flags.Changed("min") {
		sc.Min = &minVal
	}
	if flags.Changed("max") {
		sc.Max = &maxVal
	}
	if flags.Changed("step") {
		sc.Step = &step
	}
	if flags.Changed("start") {
		sc.Start = &start
	}
	if flags.Changed("seed") {
		sc.Seed = seed
	}
	return sc
}

func logger() *logrus.Entry {
	return logrus.NewEntry(logrus.StandardLogger())
}

func listVariants(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "VARIANT\tINTERVAL\tMIN\tMAX\tSTEP\tSTART\tDESCRIPTION")
	for _, name := range registry.ListVariants() {
		v, err := registry.GetVariant(name)
		if err != nil {
			return err
		}
		d := v.Defaults
		fmt.Fprintf(w, "%s\t%v\t%g\t%g\t%g\t%g\t%s\n",
			v.Name, d.Interval, d.Min, d.Max, d.Step, d.Start, v.Description)
	}
	return w.Flush()
}

func listPresets(cmd *cobra.Command, args []string) error {
	v, err := registry.GetVariant(args[0])
	if err != nil {
		return err
	}
	presets := config.ListPresets(v.Name)
	if len(presets) == 0 {
		fmt.Printf("no presets for variant: %s\n", v.Name)
		return nil
	}

	fmt.Printf("presets for %s:\n", v.Name)
	for _, name := range presets {
		p := config.GetPreset(v.Name, name)
		fmt.Printf("  %-10s %s\n", name, p.Description)
	}
	return nil
}

func runSignal(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	exp := experiment.New(experiment.Config{
		Signal:   signalConfig(cmd, args[0]),
		Ticks:    runTicks,
		Duration: time.Duration(duration * float64(time.Second)),
	})
	if err := exp.Setup(registry, logger()); err != nil {
		return err
	}

	s := exp.GetSimulator()
	logrus.WithFields(logrus.Fields{
		"signal":   s.Name(),
		"interval": s.Interval(),
		"ticks":    runTicks,
	}).Info("running signal")

	result, err := exp.Run(ctx)
	if err != nil && ctx.Err() == nil {
		return err
	}

	out := os.Stdout
	if outFile != "" {
		f, err := os.Create(outFile)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}

	if format != "table" {
		return export.Write(out, format, result)
	}
	printResult(out, result)
	if showPlot {
		fmt.Fprintln(out)
		fmt.Fprintln(out, viz.Plot(result.Samples, result.Signal, 10, 80))
	}
	return nil
}

func printResult(out io.Writer, r *experiment.Result) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "signal\t%s (%s)\n", r.Signal, r.Variant)
	fmt.Fprintf(w, "settings\tinterval=%v min=%g max=%g step=%g\n",
		r.Settings.Interval, r.Settings.Min, r.Settings.Max, r.Settings.Step)
	fmt.Fprintf(w, "ticks\t%d\n", r.Ticks)
	fmt.Fprintf(w, "elapsed\t%v\n", r.Elapsed.Round(time.Millisecond))
	fmt.Fprintf(w, "final\t%.4f\n", r.Final)
	for _, k := range []string{"mean", "volatility", "saturation", "span"} {
		if v, ok := r.Metrics[k]; ok {
			fmt.Fprintf(w, "%s\t%.4f\n", k, v)
		}
	}
	w.Flush()
}

func plotSignal(cmd *cobra.Command, args []string) error {
	s, err := registry.NewSimulator(signalConfig(cmd, args[0]), logger())
	if err != nil {
		return err
	}

	values := make([]float64, 0, plotTicks+1)
	values = append(values, s.Value())
	for i := 0; i < plotTicks; i++ {
		values = append(values, s.Step())
	}

	set := s.Settings()
	caption := fmt.Sprintf("%s  [%g, %g]  step=%g  ticks=%d", s.Name(), set.Min, set.Max, set.Step, plotTicks)
	fmt.Println(viz.Plot(values, caption, 15, 80))
	return nil
}

func runMonitor(cmd *cobra.Command, args []string) error {
	e, err := registry.NewEnsemble(cfg, logger())
	if err != nil {
		return err
	}
	defer e.Close()

	// Tick logs would tear the alt screen.
	if logrus.GetLevel() > logrus.WarnLevel {
		logrus.SetLevel(logrus.WarnLevel)
	}
	return viz.RunMonitor(e)
}

func runScenario(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sc, err := automation.LoadScenario(args[0])
	if err != nil {
		return err
	}
	if sc.Signal.Name == "" {
		sc.Signal.Name = sc.Signal.Variant
	}

	log := logger().WithField("scenario", sc.Name)
	results, err := automation.RunScenario(ctx, sc, registry, log)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STEP\tAT\tACTION\tVALUE\tRUNNING\tTICKS")
	for _, r := range results {
		fmt.Fprintf(w, "%d\t%v\t%s\t%.4f\t%t\t%d\n",
			r.Index+1, r.At.Round(time.Millisecond), r.Action, r.Value, r.Running, r.Ticks)
	}
	w.Flush()
	return err
}

func runSweep(cmd *cobra.Command, args []string) error {
	sc := signalConfig(cmd, args[0])
	sc.Seed = sweepSeed

	results, err := automation.RunSweep(cmd.Context(), &automation.ParameterSweep{
		Signal:    sc,
		ParamName: strings.ToLower(sweepParam),
		ParamMin:  sweepFrom,
		ParamMax:  sweepTo,
		NumSteps:  sweepSteps,
		Ticks:     sweepTicks,
	}, registry)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\tFINAL\tMEAN\tVOLATILITY\tSATURATION\tSPAN\n", strings.ToUpper(sweepParam))
	for _, r := range results {
		fmt.Fprintf(w, "%g\t%.4f\t%.4f\t%.4f\t%.4f\t%.4f\n",
			r.ParamValue, r.Final,
			r.Metrics["mean"], r.Metrics["volatility"], r.Metrics["saturation"], r.Metrics["span"])
	}
	return w.Flush()
}
