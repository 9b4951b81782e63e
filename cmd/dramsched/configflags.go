package main

import (
	"github.com/sarchlab/dramsched/config"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// configFlags are the flags that override the loaded configuration. A flag
// only takes effect if it is set on the command line.
type configFlags struct {
	file       string
	envFiles   []string
	numChannel int
	numBank    int
	queueDepth int
	numAccess  int
	writeRatio float64
	seed       int64
	trefi      int
}

func (f *configFlags) bind(flags *pflag.FlagSet) {
	flags.StringVarP(&f.file, "config", "c", "", "YAML configuration file")
	flags.StringSliceVar(&f.envFiles, "env-file", []string{".env"},
		"Files that set DRAMSCHED_ environment variables")
	flags.IntVar(&f.numChannel, "channels", 0, "Number of channels")
	flags.IntVar(&f.numBank, "banks", 0, "Number of banks per bank group")
	flags.IntVar(&f.queueDepth, "queue-depth", 0,
		"Number of commands each bank queue holds")
	flags.IntVar(&f.numAccess, "num-access", 0, "Number of random accesses")
	flags.Float64Var(&f.writeRatio, "write-ratio", 0,
		"Probability that an access is a write")
	flags.Int64Var(&f.seed, "seed", 0, "Random seed of the traffic")
	flags.IntVar(&f.trefi, "trefi", 0,
		"Refresh interval in cycles, 0 disables refresh")
}

func (f *configFlags) load(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load(f.file, f.envFiles...)
	if err != nil {
		return cfg, err
	}

	flags := cmd.Flags()
	overrides := []struct {
		name  string
		apply func()
	}{
		{"channels", func() { cfg.NumChannel = f.numChannel }},
		{"banks", func() { cfg.NumBank = f.numBank }},
		{"queue-depth", func() { cfg.NumCmdQEntries = f.queueDepth }},
		{"num-access", func() { cfg.Traffic.NumAccess = f.numAccess }},
		{"write-ratio", func() { cfg.Traffic.WriteRatio = f.writeRatio }},
		{"seed", func() { cfg.Traffic.Seed = f.seed }},
		{"trefi", func() { cfg.Timing.TREFI = f.trefi }},
	}

	for _, o := range overrides {
		if flags.Changed(o.name) {
			o.apply()
		}
	}

	return cfg, cfg.Validate()
}
