package datarecording

import (
	"os"
	"strings"
	"time"
)

const execTableName = "exec_info"

type execInfo struct {
	Property string
	Value    string
}

// An ExecRecorder records how the simulation was run, including the command
// line, the configuration, and the wall-clock start and end time.
type ExecRecorder struct {
	recorder DataRecorder
	entries  []execInfo
}

// NewExecRecorder creates the exec_info table in the recorder.
func NewExecRecorder(recorder DataRecorder) *ExecRecorder {
	recorder.CreateTable(execTableName, execInfo{})

	return &ExecRecorder{recorder: recorder}
}

// Start records the start time and the command line.
func (e *ExecRecorder) Start() {
	e.add("Start Time", time.Now().Format(time.RFC3339Nano))
	e.add("Command", strings.Join(os.Args, " "))

	wd, err := os.Getwd()
	if err == nil {
		e.add("Working Directory", wd)
	}
}

// AddProperty records a key-value pair, such as a configuration value.
func (e *ExecRecorder) AddProperty(property, value string) {
	e.add(property, value)
}

func (e *ExecRecorder) add(property, value string) {
	e.entries = append(e.entries, execInfo{Property: property, Value: value})
}

// End records the end time and writes all the entries.
func (e *ExecRecorder) End() {
	e.add("End Time", time.Now().Format(time.RFC3339Nano))

	for _, entry := range e.entries {
		e.recorder.InsertData(execTableName, entry)
	}

	e.entries = nil

	e.recorder.Flush()
}
