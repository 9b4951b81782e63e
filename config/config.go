// Package config loads the parameters of a simulation run. Values come from
// the defaults, a YAML file, a .env file and the environment, in that order.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math/bits"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/sarchlab/dramsched/mem/dram"
	"github.com/sarchlab/dramsched/mem/dram/cmdq"
	"github.com/sarchlab/dramsched/sim"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is put in front of every environment variable that the
// configuration reads, e.g. DRAMSCHED_NUM_CHANNEL.
const EnvPrefix = "DRAMSCHED_"

// Timing holds the device timing parameters, in cycles.
type Timing struct {
	BurstCycle int `yaml:"burst_cycle" env:"BURST_CYCLE"`
	TCL        int `yaml:"tcl" env:"TCL"`
	TCWL       int `yaml:"tcwl" env:"TCWL"`
	TRCD       int `yaml:"trcd" env:"TRCD"`
	TRCDRD     int `yaml:"trcdrd" env:"TRCDRD"`
	TRP        int `yaml:"trp" env:"TRP"`
	TRFC       int `yaml:"trfc" env:"TRFC"`
	TREFI      int `yaml:"trefi" env:"TREFI"`
}

// Traffic describes the random accesses that drive the memory controller.
type Traffic struct {
	NumAccess  int     `yaml:"num_access" env:"NUM_ACCESS"`
	WriteRatio float64 `yaml:"write_ratio" env:"WRITE_RATIO"`
	MaxAddress uint64  `yaml:"max_address" env:"MAX_ADDRESS"`
	Seed       int64   `yaml:"seed" env:"SEED"`
}

// Config is the full set of parameters of a run.
type Config struct {
	Name           string  `yaml:"name" env:"NAME"`
	Protocol       string  `yaml:"protocol" env:"PROTOCOL"`
	FreqMHz        float64 `yaml:"freq_mhz" env:"FREQ_MHZ"`
	NumChannel     int     `yaml:"num_channel" env:"NUM_CHANNEL"`
	NumRank        int     `yaml:"num_rank" env:"NUM_RANK"`
	NumBankGroup   int     `yaml:"num_bank_group" env:"NUM_BANK_GROUP"`
	NumBank        int     `yaml:"num_bank" env:"NUM_BANK"`
	NumRow         int     `yaml:"num_row" env:"NUM_ROW"`
	NumCol         int     `yaml:"num_col" env:"NUM_COL"`
	BusWidth       int     `yaml:"bus_width" env:"BUS_WIDTH"`
	BurstLength    int     `yaml:"burst_length" env:"BURST_LENGTH"`
	NumCmdQEntries int     `yaml:"num_cmdq_entries" env:"NUM_CMDQ_ENTRIES"`
	TransQueueSize int     `yaml:"trans_queue_size" env:"TRANS_QUEUE_SIZE"`
	MaxInflight    int     `yaml:"max_inflight" env:"MAX_INFLIGHT"`

	Timing  Timing  `yaml:"timing" envPrefix:"TIMING_"`
	Traffic Traffic `yaml:"traffic" envPrefix:"TRAFFIC_"`
}

// Default returns the configuration of a single-channel DDR4 controller.
func Default() Config {
	return Config{
		Name:           "MemCtrl",
		Protocol:       "DDR4",
		FreqMHz:        1600,
		NumChannel:     1,
		NumRank:        1,
		NumBankGroup:   1,
		NumBank:        8,
		NumRow:         32768,
		NumCol:         1024,
		BusWidth:       64,
		BurstLength:    8,
		NumCmdQEntries: cmdq.DefaultCommandQueueSize,
		TransQueueSize: 32,
		MaxInflight:    64,
		Timing: Timing{
			BurstCycle: 4,
			TCL:        22,
			TCWL:       16,
			TRCD:       22,
			TRCDRD:     24,
			TRP:        22,
			TRFC:       560,
			TREFI:      12480,
		},
		Traffic: Traffic{
			NumAccess:  1000,
			WriteRatio: 0.3,
			MaxAddress: 1 << 30,
			Seed:       1,
		},
	}
}

// Load builds the configuration. The YAML file is skipped if path is empty,
// and .env files that do not exist are ignored. Variables already set in the
// environment win over the ones in the .env files.
func Load(path string, dotEnvFiles ...string) (Config, error) {
	cfg := Default()

	if path != "" {
		err := loadYAML(path, &cfg)
		if err != nil {
			return cfg, err
		}
	}

	err := loadDotEnv(dotEnvFiles)
	if err != nil {
		return cfg, err
	}

	err = env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix})
	if err != nil {
		return cfg, fmt.Errorf("parse env: %w", err)
	}

	err = cfg.Validate()
	if err != nil {
		return cfg, err
	}

	return cfg, nil
}

func loadYAML(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	err = dec.Decode(cfg)
	if err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("decode config %s: %w", path, err)
	}

	return nil
}

func loadDotEnv(files []string) error {
	existing := make([]string, 0, len(files))

	for _, f := range files {
		_, err := os.Stat(f)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}

		existing = append(existing, f)
	}

	if len(existing) == 0 {
		return nil
	}

	err := godotenv.Load(existing...)
	if err != nil {
		return fmt.Errorf("load env file: %w", err)
	}

	return nil
}

// Validate checks that the configuration describes a controller that can be
// built. A non-positive command queue depth is allowed, since the scheduler
// falls back to its default depth.
func (c Config) Validate() error {
	if c.Name == "" {
		return errors.New("name must not be empty")
	}

	_, err := dram.ParseProtocol(c.Protocol)
	if err != nil {
		return err
	}

	if c.FreqMHz <= 0 {
		return fmt.Errorf("freq_mhz must be positive, got %g", c.FreqMHz)
	}

	err = mustBePowerOfTwo(map[string]int{
		"num_channel":    c.NumChannel,
		"num_rank":       c.NumRank,
		"num_bank_group": c.NumBankGroup,
		"num_bank":       c.NumBank,
		"num_row":        c.NumRow,
		"num_col":        c.NumCol,
		"bus_width":      c.BusWidth,
		"burst_length":   c.BurstLength,
	})
	if err != nil {
		return err
	}

	if c.TransQueueSize <= 0 || c.MaxInflight <= 0 {
		return errors.New("trans_queue_size and max_inflight must be positive")
	}

	if c.Timing.TREFI < 0 {
		return fmt.Errorf("timing.trefi must not be negative, got %d",
			c.Timing.TREFI)
	}

	return c.Traffic.validate()
}

func (t Traffic) validate() error {
	if t.NumAccess < 0 {
		return fmt.Errorf("traffic.num_access must not be negative, got %d",
			t.NumAccess)
	}

	if t.WriteRatio < 0 || t.WriteRatio > 1 {
		return fmt.Errorf("traffic.write_ratio must be in [0, 1], got %g",
			t.WriteRatio)
	}

	if t.MaxAddress == 0 {
		return errors.New("traffic.max_address must be positive")
	}

	return nil
}

func mustBePowerOfTwo(values map[string]int) error {
	for name, v := range values {
		if v <= 0 || bits.OnesCount(uint(v)) != 1 {
			return fmt.Errorf("%s must be a positive power of 2, got %d",
				name, v)
		}
	}

	return nil
}

// Freq returns the frequency of the memory controller.
func (c Config) Freq() sim.Freq {
	return sim.Freq(c.FreqMHz) * sim.MHz
}

// Apply copies the configuration into a memory controller builder. The
// configuration should have been validated.
func (c Config) Apply(b dram.Builder) dram.Builder {
	protocol, _ := dram.ParseProtocol(c.Protocol)

	return b.
		WithFreq(c.Freq()).
		WithProtocol(protocol).
		WithNumChannel(c.NumChannel).
		WithNumRank(c.NumRank).
		WithNumBankGroup(c.NumBankGroup).
		WithNumBank(c.NumBank).
		WithNumRow(c.NumRow).
		WithNumCol(c.NumCol).
		WithBusWidth(c.BusWidth).
		WithBurstLength(c.BurstLength).
		WithCommandQueueSize(c.NumCmdQEntries).
		WithTransactionQueueSize(c.TransQueueSize).
		WithMaxInflight(c.MaxInflight).
		WithBurstCycle(c.Timing.BurstCycle).
		WithTCL(c.Timing.TCL).
		WithTCWL(c.Timing.TCWL).
		WithTRCD(c.Timing.TRCD).
		WithTRCDRD(c.Timing.TRCDRD).
		WithTRP(c.Timing.TRP).
		WithRFC(c.Timing.TRFC).
		WithTREFI(c.Timing.TREFI)
}
