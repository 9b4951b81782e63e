package signal

// Location is a decoded address. It tells where a piece of data is stored in
// the DRAM hierarchy.
type Location struct {
	Channel       int `json:"channel" yaml:"channel"`
	PseudoChannel int `json:"pseudo_channel" yaml:"pseudo_channel"`
	Rank          int `json:"rank" yaml:"rank"`
	BankGroup     int `json:"bank_group" yaml:"bank_group"`
	Bank          int `json:"bank" yaml:"bank"`
	BankID        int `json:"bank_id" yaml:"bank_id"`
	Row           int `json:"row" yaml:"row"`
	Column        int `json:"column" yaml:"column"`
	Cacheline     int `json:"cacheline" yaml:"cacheline"`
}
