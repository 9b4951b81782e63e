// Command dramsched simulates a DRAM memory controller that schedules
// commands from per-bank queues, driven by random traffic.
package main

import "github.com/tebeka/atexit"

func main() {
	err := newRootCmd().Execute()
	if err != nil {
		atexit.Exit(1)
	}

	atexit.Exit(0)
}
