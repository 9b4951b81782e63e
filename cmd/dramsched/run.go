package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fatih/structs"
	"github.com/pkg/browser"
	"github.com/rs/zerolog"
	"github.com/sarchlab/dramsched/config"
	"github.com/sarchlab/dramsched/datarecording"
	"github.com/sarchlab/dramsched/mem/dram"
	"github.com/sarchlab/dramsched/mem/dram/checkpoint"
	"github.com/sarchlab/dramsched/mem/dram/trace"
	"github.com/sarchlab/dramsched/mem/dram/trafficgen"
	"github.com/sarchlab/dramsched/monitoring"
	"github.com/sarchlab/dramsched/sim"
	"github.com/spf13/cobra"
)

type runOptions struct {
	configFlags

	traceFile       string
	dbFile          string
	monitor         bool
	monitorPort     int
	openMonitor     bool
	monitorAssets   string
	uniqueIDs       bool
	checkpointFile  string
	checkpointCycle uint64
}

func newRunCmd(global *globalOptions) *cobra.Command {
	opts := &runOptions{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the memory controller with random traffic",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger, err := newLogger(global, cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			cfg, err := opts.load(cmd)
			if err != nil {
				return err
			}

			return runSimulation(cfg, opts, logger)
		},
	}

	opts.configFlags.bind(cmd.Flags())

	flags := cmd.Flags()
	flags.StringVar(&opts.traceFile, "trace", "",
		"Write a log entry per command to this file, - for stderr")
	flags.StringVar(&opts.dbFile, "db", "",
		"Record commands and transactions into <db>.sqlite3")
	flags.BoolVar(&opts.monitor, "monitor", false,
		"Serve the monitoring dashboard while the simulation runs")
	flags.IntVar(&opts.monitorPort, "monitor-port", 0,
		"Port of the monitoring dashboard, 0 picks a free port")
	flags.BoolVar(&opts.openMonitor, "open-monitor", false,
		"Open the monitoring dashboard in a browser")
	flags.StringVar(&opts.monitorAssets, "monitor-assets", "",
		"Serve the dashboard page from this directory")
	flags.BoolVar(&opts.uniqueIDs, "unique-ids", false,
		"Use globally unique transaction IDs, so that several runs can "+
			"record into one database")
	flags.StringVar(&opts.checkpointFile, "checkpoint", "",
		"Save the scheduler state to this JSON or YAML file")
	flags.Uint64Var(&opts.checkpointCycle, "checkpoint-cycle", 0,
		"Cycle at which the checkpoint is taken, 0 means at the end")

	return cmd
}

type simulation struct {
	cfg     config.Config
	logger  zerolog.Logger
	engine  *sim.SerialEngine
	memCtrl *dram.Comp
	agent   *trafficgen.Agent

	traceOut io.Closer
	recorder datarecording.DataRecorder
	execRec  *datarecording.ExecRecorder
}

func runSimulation(
	cfg config.Config,
	opts *runOptions,
	logger zerolog.Logger,
) error {
	if opts.uniqueIDs {
		sim.UseParallelIDGenerator()
	} else {
		sim.UseSequentialIDGenerator()
	}

	s := &simulation{
		cfg:    cfg,
		logger: logger,
		engine: sim.NewSerialEngine(),
	}
	defer s.close()

	builder := cfg.Apply(dram.MakeBuilder()).
		WithEngine(s.engine).
		WithLogger(logger)

	builder, err := s.attachTracers(builder, opts)
	if err != nil {
		return err
	}

	s.memCtrl = builder.Build(cfg.Name)
	s.agent = trafficgen.MakeBuilder().
		WithEngine(s.engine).
		WithFreq(cfg.Freq()).
		WithLogger(logger).
		WithTarget(s.memCtrl).
		WithSeed(cfg.Traffic.Seed).
		WithNumAccess(cfg.Traffic.NumAccess).
		WithMaxAddress(cfg.Traffic.MaxAddress).
		WithWriteRatio(cfg.Traffic.WriteRatio).
		Build("Agent")
	s.memCtrl.AddTransactionListener(s.agent)

	var cpHook *checkpointHook
	if opts.checkpointFile != "" {
		cpHook = newCheckpointHook(opts.checkpointFile,
			opts.checkpointCycle, s.memCtrl, logger)
		s.engine.AcceptHook(cpHook)
	}

	if opts.monitor {
		s.startMonitor(opts)
	}

	return s.run(cpHook)
}

func (s *simulation) attachTracers(
	builder dram.Builder,
	opts *runOptions,
) (dram.Builder, error) {
	freq := s.cfg.Freq()

	if opts.traceFile != "" {
		out, err := openTraceFile(opts.traceFile)
		if err != nil {
			return builder, err
		}

		s.traceOut = out
		traceLogger := zerolog.New(out).Level(zerolog.DebugLevel)
		builder = builder.WithAdditionalHooks(
			trace.NewLogTracer(traceLogger, s.engine, freq))
	}

	if opts.dbFile != "" {
		s.recorder = datarecording.New(opts.dbFile)
		builder = builder.WithAdditionalHooks(
			trace.NewDBTracer(s.recorder, s.engine, freq))

		s.execRec = datarecording.NewExecRecorder(s.recorder)
		s.execRec.Start()

		for k, v := range structs.Map(s.cfg) {
			s.execRec.AddProperty(k, fmt.Sprint(v))
		}
	}

	return builder, nil
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

func openTraceFile(path string) (io.WriteCloser, error) {
	if path == "-" {
		return nopCloser{os.Stderr}, nil
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create trace file: %w", err)
	}

	return f, nil
}

func (s *simulation) startMonitor(opts *runOptions) {
	m := monitoring.NewMonitor().
		WithPortNumber(opts.monitorPort).
		WithAssetDir(opts.monitorAssets)
	m.RegisterEngine(s.engine)
	m.RegisterComponent(s.memCtrl)
	m.RegisterComponent(s.agent)

	for _, q := range s.memCtrl.Scheduler().Queues() {
		m.RegisterBuffer(q)
	}

	bar := m.CreateProgressBar("Accesses", uint64(s.cfg.Traffic.NumAccess))
	s.agent.SetProgressTracker(bar)

	url := m.StartServer()

	if opts.openMonitor {
		err := browser.OpenURL(url)
		if err != nil {
			s.logger.Warn().Err(err).Msg("cannot open the dashboard")
		}
	}
}

func (s *simulation) run(cpHook *checkpointHook) error {
	start := time.Now()

	s.agent.TickLater()

	err := s.engine.Run()
	if err != nil {
		return err
	}

	if s.agent.NumLeft() > 0 || s.agent.NumPending() > 0 {
		return fmt.Errorf("%d accesses not issued, %d not completed",
			s.agent.NumLeft(), s.agent.NumPending())
	}

	if cpHook != nil {
		err = cpHook.finish()
		if err != nil {
			return err
		}
	}

	s.summarize(time.Since(start))

	return nil
}

func (s *simulation) summarize(wallTime time.Duration) {
	driver := s.memCtrl.Driver()
	cycles := s.cfg.Freq().Cycle(s.engine.CurrentTime())

	for ch := 0; ch < s.memCtrl.Scheduler().NumChannel(); ch++ {
		s.logger.Info().
			Int("channel", ch).
			Uint64("admitted", driver.NumIssued(ch)).
			Msg("channel summary")
	}

	var refreshes uint64
	if s.memCtrl.Refresher() != nil {
		refreshes = s.memCtrl.Refresher().NumIssued()
	}

	s.logger.Info().
		Uint64("cycles", cycles).
		Uint64("transactions", s.memCtrl.NumCompleted()).
		Uint64("commands", driver.NumCompleted()).
		Uint64("refreshes", refreshes).
		Uint64("events", s.engine.NumHandled()).
		Dur("wall_time", wallTime).
		Msg("simulation completed")

	if s.execRec != nil {
		s.execRec.AddProperty("Cycles", fmt.Sprint(cycles))
	}
}

func (s *simulation) close() {
	if s.execRec != nil {
		s.execRec.End()
	}

	if s.recorder != nil {
		err := s.recorder.Close()
		if err != nil {
			s.logger.Error().Err(err).Msg("cannot close the recording")
		}
	}

	if s.traceOut != nil {
		err := s.traceOut.Close()
		if err != nil {
			s.logger.Error().Err(err).Msg("cannot close the trace file")
		}
	}
}

// checkpointHook saves the scheduler state once the simulation reaches a
// cycle. A zero cycle saves the state when the simulation ends.
type checkpointHook struct {
	path    string
	cycle   uint64
	memCtrl *dram.Comp
	logger  zerolog.Logger

	saved bool
	err   error
}

func newCheckpointHook(
	path string,
	cycle uint64,
	memCtrl *dram.Comp,
	logger zerolog.Logger,
) *checkpointHook {
	return &checkpointHook{
		path:    path,
		cycle:   cycle,
		memCtrl: memCtrl,
		logger:  logger,
	}
}

func (h *checkpointHook) Func(ctx sim.HookCtx) {
	if ctx.Pos != sim.HookPosBeforeEvent || h.saved || h.cycle == 0 {
		return
	}

	if h.memCtrl.CurrentCycle() < h.cycle {
		return
	}

	h.save()
}

func (h *checkpointHook) save() {
	h.saved = true
	h.err = checkpoint.SaveFile(h.path, h.memCtrl.Scheduler())

	if h.err == nil {
		h.logger.Info().
			Str("file", h.path).
			Uint64("cycle", h.memCtrl.CurrentCycle()).
			Int("queued", h.memCtrl.Scheduler().Pending()).
			Msg("checkpoint saved")
	}
}

func (h *checkpointHook) finish() error {
	if !h.saved {
		h.save()
	}

	return h.err
}
