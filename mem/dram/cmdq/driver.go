package cmdq

import "github.com/sarchlab/dramsched/mem/dram/signal"

// A DeviceDriver enforces the timing constraints of the DRAM device and owns
// the commands after they leave the command queues.
type DeviceDriver interface {
	// IsCmdAllowed tells if the command can be issued now. It must not change
	// the state of the driver.
	IsCmdAllowed(cmd *signal.Command) bool

	// Push hands the command over to the driver. It returns false if the
	// driver cannot take the command, in which case the command stays queued.
	Push(cmd *signal.Command) bool

	// TotalNumBank returns the number of banks across all the channels.
	TotalNumBank() int

	// NumChannel returns the number of channels.
	NumChannel() int
}
