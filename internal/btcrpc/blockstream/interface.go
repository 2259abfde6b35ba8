package blockstream

type IBlockStream interface {
	// GetAddressTxs returns the transactions funding an address, newest
	// first, as served by an esplora-compatible API.
	GetAddressTxs(address string) ([]AddressTx, error)

	// GetTipHeight returns the current chain tip height.
	GetTipHeight() (int64, error)
}
