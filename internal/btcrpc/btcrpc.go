package btcrpc

import (
	"fmt"
	"time"

	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/dwarvesf/crypto-payment-backend/internal/btcrpc/blockstream"
	"github.com/dwarvesf/crypto-payment-backend/internal/chainrpc"
	"github.com/dwarvesf/crypto-payment-backend/internal/oracle"
	"github.com/dwarvesf/crypto-payment-backend/internal/utils/config"
	"github.com/dwarvesf/crypto-payment-backend/internal/utils/logger"
)

type BtcRpc struct {
	cfg         config.BackendConfig
	blockstream blockstream.IBlockStream
	oracle      oracle.IOracle
	logger      *logger.Logger
}

func New(cfg config.BackendConfig, oracle oracle.IOracle, logger *logger.Logger) chainrpc.IChainRpc {
	return &BtcRpc{
		cfg:         cfg,
		blockstream: blockstream.New(cfg.APIURL, logger),
		oracle:      oracle,
		logger:      logger,
	}
}

func (b *BtcRpc) ConfirmAddressPayment(address string, totalCryptoAmount decimal.Decimal, confirmationNumber int, acceptConfirmedBalWithoutHashMins int, txHash *string) (*chainrpc.ConfirmResult, error) {
	txs, err := b.blockstream.GetAddressTxs(address)
	if err != nil {
		return nil, errors.Wrap(err, "failed to fetch address transactions")
	}

	tipHeight, err := b.blockstream.GetTipHeight()
	if err != nil {
		return nil, errors.Wrap(err, "failed to fetch tip height")
	}

	fundings := fundingsFromTxs(txs, address, tipHeight)
	return classify(fundings, totalCryptoAmount, confirmationNumber, acceptConfirmedBalWithoutHashMins, txHash, time.Now()), nil
}

func (b *BtcRpc) ConvertToFiat(amount decimal.Decimal, fiatCurrency string) (decimal.Decimal, error) {
	rate, err := b.oracle.GetRate(b.cfg.Code, fiatCurrency)
	if err != nil {
		return decimal.Zero, err
	}
	return amount.Mul(rate), nil
}

func (b *BtcRpc) ConvertFromFiat(fiatAmount decimal.Decimal, fiatCurrency string) (decimal.Decimal, error) {
	rate, err := b.oracle.GetRate(b.cfg.Code, fiatCurrency)
	if err != nil {
		return decimal.Zero, err
	}
	return fiatAmount.DivRound(rate, btcDecimalPlaces), nil
}

func (b *BtcRpc) DeriveAddress(index uint32) (string, error) {
	masterKey, err := hdkeychain.NewKeyFromString(b.cfg.MasterPublicKey)
	if err != nil {
		return "", errors.Wrap(err, "failed to parse master public key")
	}

	// external chain, then the leaf index
	externalKey, err := masterKey.Derive(0)
	if err != nil {
		return "", errors.Wrap(err, "failed to derive external chain key")
	}

	childKey, err := externalKey.Derive(index)
	if err != nil {
		return "", errors.Wrapf(err, "failed to derive child key %d", index)
	}

	address, err := childKey.Address(networkParams(b.cfg.Network))
	if err != nil {
		return "", errors.Wrap(err, "failed to build address from child key")
	}

	return address.EncodeAddress(), nil
}

func (b *BtcRpc) PaymentURI(address string, amount decimal.Decimal) string {
	return fmt.Sprintf("bitcoin:%s?amount=%s", address, amount.String())
}
