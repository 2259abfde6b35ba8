package blockstream

// TxStatus carries the confirmation state of a transaction.
type TxStatus struct {
	Confirmed   bool  `json:"confirmed"`
	BlockHeight int64 `json:"block_height"`
	BlockTime   int64 `json:"block_time"`
}

// Vout is a single transaction output.
type Vout struct {
	ScriptPubKeyAddress string `json:"scriptpubkey_address"`
	Value               int64  `json:"value"`
}

// AddressTx is one transaction touching a watched address.
type AddressTx struct {
	TxID   string   `json:"txid"`
	Status TxStatus `json:"status"`
	Vout   []Vout   `json:"vout"`
}

// ReceivedByAddress sums the outputs of the transaction paying the given
// address, in satoshis.
func (t AddressTx) ReceivedByAddress(address string) int64 {
	var sum int64
	for _, vout := range t.Vout {
		if vout.ScriptPubKeyAddress == address {
			sum += vout.Value
		}
	}
	return sum
}
