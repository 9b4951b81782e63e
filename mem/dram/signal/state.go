package signal

import "fmt"

// CommandState is the serializable form of a command. Commands can be
// checkpointed while they wait in a queue, so every field must survive the
// round trip.
type CommandState struct {
	SeqNum        uint64   `json:"seq_num"`
	Address       uint64   `json:"address"`
	Kind          string   `json:"kind"`
	ResponseReady bool     `json:"response_ready"`
	Location      Location `json:"location"`
	BankID        int      `json:"bank_id"`
	BankIDs       []int    `json:"bank_ids,omitempty"`
	IsRefreshType bool     `json:"is_refresh_type"`
	TransactionID string   `json:"transaction_id,omitempty"`
}

// State captures the command.
func (c *Command) State() CommandState {
	s := CommandState{
		SeqNum:        c.seqNum,
		Address:       c.address,
		Kind:          c.kind.String(),
		ResponseReady: c.responseReady,
		Location:      *c.location,
		BankID:        c.bankID,
		IsRefreshType: c.isRefreshType,
		TransactionID: c.transactionID,
	}

	if len(c.bankIDs) > 0 {
		s.BankIDs = make([]int, len(c.bankIDs))
		copy(s.BankIDs, c.bankIDs)
	}

	return s
}

// CommandFromState rebuilds a command from its captured state. Only REF and
// PRE can target a chosen bank or a group of banks.
func CommandFromState(s CommandState) (*Command, error) {
	kind, err := ParseCommandKind(s.Kind)
	if err != nil {
		return nil, err
	}

	bankTargeted := s.IsRefreshType || len(s.BankIDs) > 0
	if bankTargeted && kind != CmdKindRefresh && kind != CmdKindPrecharge {
		return nil, fmt.Errorf(
			"command %d: %s cannot target banks directly", s.SeqNum, kind)
	}

	if len(s.BankIDs) > 0 && s.BankIDs[0] != s.BankID {
		return nil, fmt.Errorf(
			"command %d: primary bank %d is not the first of %v",
			s.SeqNum, s.BankID, s.BankIDs)
	}

	location := s.Location

	c := &Command{
		seqNum:        s.SeqNum,
		kind:          kind,
		address:       s.Address,
		location:      &location,
		bankID:        s.BankID,
		isRefreshType: s.IsRefreshType,
		responseReady: s.ResponseReady,
		transactionID: s.TransactionID,
	}

	if len(s.BankIDs) > 0 {
		c.bankIDs = make([]int, len(s.BankIDs))
		copy(c.bankIDs, s.BankIDs)
	}

	return c, nil
}
