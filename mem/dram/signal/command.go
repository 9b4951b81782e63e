// Package signal defines the commands that flow from the memory controller's
// command generation stage, through the command scheduler, to the device
// driver.
package signal

import (
	"fmt"
	"log"
	"strings"

	"github.com/rs/zerolog"
)

// CommandKind is the mnemonic of a DRAM command.
type CommandKind int

// A list of supported command kinds.
const (
	CmdKindError CommandKind = iota
	CmdKindActivate
	CmdKindRead
	CmdKindReadPrecharge
	CmdKindWrite
	CmdKindWritePrecharge
	CmdKindPrecharge
	CmdKindPrechargeAll
	CmdKindRefresh
	NumCmdKind
)

var cmdKindNames = [NumCmdKind]string{
	CmdKindError:          "ERR",
	CmdKindActivate:       "ACT",
	CmdKindRead:           "READ",
	CmdKindReadPrecharge:  "READA",
	CmdKindWrite:          "WRITE",
	CmdKindWritePrecharge: "WRITEA",
	CmdKindPrecharge:      "PRE",
	CmdKindPrechargeAll:   "PREA",
	CmdKindRefresh:        "REF",
}

// String returns the mnemonic of the command kind.
func (k CommandKind) String() string {
	if k < 0 || k >= NumCmdKind {
		return fmt.Sprintf("CommandKind(%d)", int(k))
	}

	return cmdKindNames[k]
}

// ParseCommandKind converts a mnemonic back to the command kind.
func ParseCommandKind(name string) (CommandKind, error) {
	for k, n := range cmdKindNames {
		if n == name {
			return CommandKind(k), nil
		}
	}

	return CmdKindError, fmt.Errorf("unknown command mnemonic %q", name)
}

// IsRead returns true if the command reads data out of a bank.
func (k CommandKind) IsRead() bool {
	return k == CmdKindRead || k == CmdKindReadPrecharge
}

// IsWrite returns true if the command writes data into a bank.
func (k CommandKind) IsWrite() bool {
	return k == CmdKindWrite || k == CmdKindWritePrecharge
}

// IsColumnAccess returns true for read and write commands.
func (k CommandKind) IsColumnAccess() bool {
	return k.IsRead() || k.IsWrite()
}

// A Command is one memory-controller command destined for a bank. All the
// fields except the response-ready flag are fixed at construction.
type Command struct {
	seqNum        uint64
	kind          CommandKind
	address       uint64
	location      *Location
	bankID        int
	bankIDs       []int
	isRefreshType bool
	responseReady bool
	transactionID string
}

// NewCommand creates a command that targets the bank of the decoded address.
func NewCommand(
	seqNum uint64,
	kind CommandKind,
	address uint64,
	location *Location,
) *Command {
	mustHaveLocation(location)

	return &Command{
		seqNum:   seqNum,
		kind:     kind,
		address:  address,
		location: location,
		bankID:   location.BankID,
	}
}

// NewBankCommand creates a refresh or precharge command that targets the
// given bank.
func NewBankCommand(
	seqNum uint64,
	kind CommandKind,
	address uint64,
	location *Location,
	bankID int,
) *Command {
	mustBeBankGroupKind(kind)
	mustHaveLocation(location)

	return &Command{
		seqNum:        seqNum,
		kind:          kind,
		address:       address,
		location:      location,
		bankID:        bankID,
		isRefreshType: true,
	}
}

// NewMultiBankCommand creates a refresh or precharge command that targets
// several banks at once. The first bank is the primary bank, which decides the
// command queue that the command goes to.
func NewMultiBankCommand(
	seqNum uint64,
	kind CommandKind,
	address uint64,
	location *Location,
	bankIDs []int,
) *Command {
	mustBeBankGroupKind(kind)
	mustHaveLocation(location)

	if len(bankIDs) == 0 {
		log.Panic("a multi-bank command needs at least one bank")
	}

	ids := make([]int, len(bankIDs))
	copy(ids, bankIDs)

	return &Command{
		seqNum:        seqNum,
		kind:          kind,
		address:       address,
		location:      location,
		bankID:        ids[0],
		bankIDs:       ids,
		isRefreshType: true,
	}
}

func mustBeBankGroupKind(kind CommandKind) {
	if kind != CmdKindRefresh && kind != CmdKindPrecharge {
		log.Panicf("bank-targeted commands must be REF or PRE, got %s", kind)
	}
}

func mustHaveLocation(location *Location) {
	if location == nil {
		log.Panic("command must have a decoded address")
	}
}

// WithTransaction returns a copy of the command that records the ID of the
// transaction it is generated for. The receiver is left unchanged.
func (c *Command) WithTransaction(id string) *Command {
	cp := *c
	cp.transactionID = id

	if len(c.bankIDs) > 0 {
		cp.bankIDs = make([]int, len(c.bankIDs))
		copy(cp.bankIDs, c.bankIDs)
	}

	return &cp
}

// SeqNum returns the sequence number assigned by the producer.
func (c *Command) SeqNum() uint64 {
	return c.seqNum
}

// Kind returns the mnemonic of the command.
func (c *Command) Kind() CommandKind {
	return c.kind
}

// KindName returns the mnemonic of the command as a string.
func (c *Command) KindName() string {
	return c.kind.String()
}

// Address returns the raw address.
func (c *Command) Address() uint64 {
	return c.address
}

// Location returns the decoded address. The location is shared with the
// other commands generated from the same access.
func (c *Command) Location() *Location {
	return c.location
}

// BankID returns the primary bank of the command.
func (c *Command) BankID() int {
	return c.bankID
}

// BankIDs returns the banks that a multi-bank command targets. It returns
// the primary bank only for single-bank commands.
func (c *Command) BankIDs() []int {
	if len(c.bankIDs) == 0 {
		return []int{c.bankID}
	}

	ids := make([]int, len(c.bankIDs))
	copy(ids, c.bankIDs)

	return ids
}

// IsRefreshType returns true if the command was built for a specific bank or
// a group of banks.
func (c *Command) IsRefreshType() bool {
	return c.isRefreshType
}

// IsResponseReady returns true if the device has produced the result.
func (c *Command) IsResponseReady() bool {
	return c.responseReady
}

// SetResponseReady marks whether the result of the command is available.
func (c *Command) SetResponseReady(ready bool) {
	c.responseReady = ready
}

// TransactionID returns the ID of the transaction that the command serves.
func (c *Command) TransactionID() string {
	return c.transactionID
}

// Format renders the command as a single trace line.
func (c *Command) Format(prefix string, cycle uint64) string {
	l := c.location

	sb := strings.Builder{}
	sb.WriteString(prefix)
	fmt.Fprintf(&sb,
		"Cycle:%d Cmd:%s SeqNum:%d Addr:0x%x Ready:%t "+
			"CH:%d PCH:%d Rank:%d BG:%d B:%d Row:%d Col:%d "+
			"Cacheline:%d BankID:%d",
		cycle, c.KindName(), c.seqNum, c.address, c.responseReady,
		l.Channel, l.PseudoChannel, l.Rank, l.BankGroup, l.Bank,
		l.Row, l.Column, l.Cacheline, c.bankID,
	)

	if len(c.bankIDs) > 1 {
		fmt.Fprintf(&sb, " Banks:%v", c.bankIDs)
	}

	return sb.String()
}

// Dump writes the command into the logger as a structured trace entry.
func (c *Command) Dump(logger zerolog.Logger, cycle uint64) {
	l := c.location

	logger.Debug().
		Uint64("cycle", cycle).
		Str("cmd", c.KindName()).
		Uint64("seq_num", c.seqNum).
		Str("addr", fmt.Sprintf("0x%x", c.address)).
		Bool("response_ready", c.responseReady).
		Int("ch", l.Channel).
		Int("pch", l.PseudoChannel).
		Int("rank", l.Rank).
		Int("bg", l.BankGroup).
		Int("bank", l.Bank).
		Int("row", l.Row).
		Int("col", l.Column).
		Int("cacheline", l.Cacheline).
		Ints("bank_ids", c.BankIDs()).
		Msg("command")
}
