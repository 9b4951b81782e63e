// Package checkpoint saves and restores the command queues of a scheduler.
package checkpoint

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/sarchlab/dramsched/mem/dram/cmdq"
	"gopkg.in/yaml.v3"
)

// FormatVersion is the version of the snapshot layout.
const FormatVersion = 1

// A Snapshot is what a checkpoint file holds.
type Snapshot struct {
	Version   int                 `json:"version" yaml:"version"`
	Name      string              `json:"name" yaml:"name"`
	Scheduler cmdq.SchedulerState `json:"scheduler" yaml:"scheduler"`
}

// A Codec converts snapshots to and from bytes.
type Codec interface {
	Encode(s *Snapshot, w io.Writer) error
	Decode(r io.Reader) (*Snapshot, error)
}

// JSONCodec stores snapshots as JSON.
type JSONCodec struct{}

// Encode writes the snapshot as JSON.
func (JSONCodec) Encode(s *Snapshot, w io.Writer) error {
	encoder := json.NewEncoder(w)
	encoder.SetEscapeHTML(false)

	return encoder.Encode(s)
}

// Decode reads a JSON snapshot. Unknown fields are rejected.
func (JSONCodec) Decode(r io.Reader) (*Snapshot, error) {
	decoder := json.NewDecoder(r)
	decoder.DisallowUnknownFields()

	s := &Snapshot{}

	err := decoder.Decode(s)
	if err != nil {
		return nil, err
	}

	return s, nil
}

// YAMLCodec stores snapshots as YAML.
type YAMLCodec struct{}

// Encode writes the snapshot as YAML.
func (YAMLCodec) Encode(s *Snapshot, w io.Writer) error {
	encoder := yaml.NewEncoder(w)

	err := encoder.Encode(s)
	if err != nil {
		encoder.Close()
		return err
	}

	return encoder.Close()
}

// Decode reads a YAML snapshot. Unknown fields are rejected.
func (YAMLCodec) Decode(r io.Reader) (*Snapshot, error) {
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)

	s := &Snapshot{}

	err := decoder.Decode(s)
	if err != nil {
		return nil, err
	}

	return s, nil
}

// Save writes the state of the scheduler as JSON.
func Save(w io.Writer, sched *cmdq.Scheduler) error {
	return SaveWithCodec(w, sched, JSONCodec{})
}

// SaveWithCodec writes the state of the scheduler with the given codec.
func SaveWithCodec(w io.Writer, sched *cmdq.Scheduler, codec Codec) error {
	s := &Snapshot{
		Version:   FormatVersion,
		Name:      sched.Name(),
		Scheduler: sched.State(),
	}

	err := codec.Encode(s, w)
	if err != nil {
		return fmt.Errorf("encode checkpoint of %s: %w", sched.Name(), err)
	}

	return nil
}

// Load restores the scheduler from a JSON checkpoint.
func Load(r io.Reader, sched *cmdq.Scheduler) error {
	return LoadWithCodec(r, sched, JSONCodec{})
}

// LoadWithCodec restores the scheduler from a checkpoint in the given codec.
// The scheduler is left untouched if the checkpoint cannot be applied.
func LoadWithCodec(r io.Reader, sched *cmdq.Scheduler, codec Codec) error {
	s, err := codec.Decode(r)
	if err != nil {
		return fmt.Errorf("decode checkpoint: %w", err)
	}

	if s.Version != FormatVersion {
		return fmt.Errorf("checkpoint version %d is not supported", s.Version)
	}

	err = sched.SetState(s.Scheduler)
	if err != nil {
		return fmt.Errorf("restore %s: %w", sched.Name(), err)
	}

	return nil
}

// SaveFile writes a checkpoint file. Files ending with .yaml or .yml are
// written as YAML, others as JSON.
func SaveFile(path string, sched *cmdq.Scheduler) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create checkpoint: %w", err)
	}

	err = SaveWithCodec(f, sched, codecFor(path))
	if err != nil {
		f.Close()
		return err
	}

	return f.Close()
}

// LoadFile restores the scheduler from a checkpoint file.
func LoadFile(path string, sched *cmdq.Scheduler) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open checkpoint: %w", err)
	}
	defer f.Close()

	return LoadWithCodec(f, sched, codecFor(path))
}

func codecFor(path string) Codec {
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		return YAMLCodec{}
	default:
		return JSONCodec{}
	}
}
