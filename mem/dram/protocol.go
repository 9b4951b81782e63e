package dram

import (
	"fmt"
	"strings"
)

// Protocol defines the category of the memory controller.
type Protocol int

// A list of all supported DRAM protocols.
const (
	DDR3 Protocol = iota
	DDR4
	GDDR5
	GDDR5X
	GDDR6
	LPDDR
	LPDDR3
	LPDDR4
	HBM
	HBM2
	HMC
)

var protocolNames = []string{
	"DDR3", "DDR4", "GDDR5", "GDDR5X", "GDDR6",
	"LPDDR", "LPDDR3", "LPDDR4", "HBM", "HBM2", "HMC",
}

func (p Protocol) String() string {
	if p < 0 || int(p) >= len(protocolNames) {
		return fmt.Sprintf("Protocol(%d)", int(p))
	}

	return protocolNames[p]
}

// ParseProtocol converts a name such as "ddr4" or "HBM2" to a Protocol.
func ParseProtocol(name string) (Protocol, error) {
	for i, n := range protocolNames {
		if strings.EqualFold(n, name) {
			return Protocol(i), nil
		}
	}

	return 0, fmt.Errorf("unknown DRAM protocol %q", name)
}

func (p Protocol) isGDDR() bool {
	return p == GDDR5 || p == GDDR5X || p == GDDR6
}

func (p Protocol) isHBM() bool {
	return p == HBM || p == HBM2
}
