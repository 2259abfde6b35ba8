package evmrpc

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/dwarvesf/crypto-payment-backend/internal/chainrpc"
	"github.com/dwarvesf/crypto-payment-backend/internal/oracle"
	"github.com/dwarvesf/crypto-payment-backend/internal/utils/config"
	"github.com/dwarvesf/crypto-payment-backend/internal/utils/logger"
)

const (
	weiDecimalPlaces = 18
	requestTimeout   = 15 * time.Second
)

// ethClient is the slice of ethclient.Client the adapter needs.
type ethClient interface {
	BlockNumber(ctx context.Context) (uint64, error)
	BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
	PendingBalanceAt(ctx context.Context, account common.Address) (*big.Int, error)
	HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error)
}

type EvmRpc struct {
	cfg    config.BackendConfig
	client ethClient
	oracle oracle.IOracle
	logger *logger.Logger
}

func New(cfg config.BackendConfig, oracle oracle.IOracle, logger *logger.Logger) (chainrpc.IChainRpc, error) {
	client, err := ethclient.Dial(cfg.RPCEndpoint)
	if err != nil {
		return nil, errors.Wrap(err, "failed to dial evm rpc endpoint")
	}

	return &EvmRpc{
		cfg:    cfg,
		client: client,
		oracle: oracle,
		logger: logger,
	}, nil
}

func (e *EvmRpc) ConfirmAddressPayment(address string, totalCryptoAmount decimal.Decimal, confirmationNumber int, acceptConfirmedBalWithoutHashMins int, txHash *string) (*chainrpc.ConfirmResult, error) {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	account := common.HexToAddress(address)

	tip, err := e.client.BlockNumber(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to fetch block number")
	}

	latestWei, err := e.client.BalanceAt(ctx, account, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to fetch latest balance")
	}

	pendingWei, err := e.client.PendingBalanceAt(ctx, account)
	if err != nil {
		return nil, errors.Wrap(err, "failed to fetch pending balance")
	}

	if latestWei.Sign() == 0 && pendingWei.Sign() == 0 {
		return &chainrpc.ConfirmResult{Outcome: chainrpc.OutcomeNoHash}, nil
	}

	confirmedBlock := int64(tip) - int64(confirmationNumber) + 1
	if confirmedBlock < 0 {
		confirmedBlock = 0
	}

	confirmedWei, err := e.client.BalanceAt(ctx, account, big.NewInt(confirmedBlock))
	if err != nil {
		return nil, errors.Wrap(err, "failed to fetch confirmed balance")
	}

	confirmed := weiToDecimal(confirmedWei)
	observed := weiToDecimal(latestWei)
	if pending := weiToDecimal(pendingWei); pending.GreaterThan(observed) {
		observed = pending
	}

	if confirmed.GreaterThanOrEqual(totalCryptoAmount) {
		if txHash == nil && acceptConfirmedBalWithoutHashMins > 0 {
			ok, err := e.fundedWithinGrace(ctx, account, confirmedWei, tip, acceptConfirmedBalWithoutHashMins)
			if err != nil {
				return nil, err
			}
			if !ok {
				return &chainrpc.ConfirmResult{Outcome: chainrpc.OutcomeNoHash}, nil
			}
		}
		return &chainrpc.ConfirmResult{Outcome: chainrpc.OutcomeConfirmed, Amount: confirmed}, nil
	}

	if observed.GreaterThan(confirmed) {
		// funds are visible but not settled at the required depth; the
		// account model exposes no tx hash for a bare balance check
		return &chainrpc.ConfirmResult{Outcome: chainrpc.OutcomeUnconfirmed}, nil
	}

	if confirmed.GreaterThan(decimal.Zero) {
		return &chainrpc.ConfirmResult{Outcome: chainrpc.OutcomeUnderpaid, Amount: totalCryptoAmount.Sub(confirmed)}, nil
	}

	return &chainrpc.ConfirmResult{Outcome: chainrpc.OutcomeNoHash}, nil
}

// fundedWithinGrace checks whether the address reached its current
// confirmed balance recently enough to trust a hashless confirmation.
// The funding block is located by binary search over historic balances.
func (e *EvmRpc) fundedWithinGrace(ctx context.Context, account common.Address, target *big.Int, tip uint64, graceMins int) (bool, error) {
	lo, hi := uint64(0), tip
	for lo < hi {
		mid := (lo + hi) / 2
		balance, err := e.client.BalanceAt(ctx, account, new(big.Int).SetUint64(mid))
		if err != nil {
			return false, errors.Wrap(err, "failed to fetch historic balance")
		}
		if balance.Cmp(target) >= 0 {
			hi = mid
		} else {
			lo = mid + 1
		}
	}

	header, err := e.client.HeaderByNumber(ctx, new(big.Int).SetUint64(lo))
	if err != nil {
		return false, errors.Wrap(err, "failed to fetch funding block header")
	}

	fundedAt := time.Unix(int64(header.Time), 0)
	return time.Since(fundedAt) <= time.Duration(graceMins)*time.Minute, nil
}

func (e *EvmRpc) ConvertToFiat(amount decimal.Decimal, fiatCurrency string) (decimal.Decimal, error) {
	rate, err := e.oracle.GetRate(e.cfg.Code, fiatCurrency)
	if err != nil {
		return decimal.Zero, err
	}
	return amount.Mul(rate), nil
}

func (e *EvmRpc) ConvertFromFiat(fiatAmount decimal.Decimal, fiatCurrency string) (decimal.Decimal, error) {
	rate, err := e.oracle.GetRate(e.cfg.Code, fiatCurrency)
	if err != nil {
		return decimal.Zero, err
	}
	return fiatAmount.DivRound(rate, weiDecimalPlaces), nil
}

func (e *EvmRpc) DeriveAddress(index uint32) (string, error) {
	masterKey, err := hdkeychain.NewKeyFromString(e.cfg.MasterPublicKey)
	if err != nil {
		return "", errors.Wrap(err, "failed to parse master public key")
	}

	externalKey, err := masterKey.Derive(0)
	if err != nil {
		return "", errors.Wrap(err, "failed to derive external chain key")
	}

	childKey, err := externalKey.Derive(index)
	if err != nil {
		return "", errors.Wrapf(err, "failed to derive child key %d", index)
	}

	pubKey, err := childKey.ECPubKey()
	if err != nil {
		return "", errors.Wrap(err, "failed to extract public key")
	}

	return ethcrypto.PubkeyToAddress(*pubKey.ToECDSA()).Hex(), nil
}

func (e *EvmRpc) PaymentURI(address string, amount decimal.Decimal) string {
	return fmt.Sprintf("ethereum:%s?value=%s", address, amount.String())
}

func weiToDecimal(wei *big.Int) decimal.Decimal {
	return decimal.NewFromBigInt(wei, -weiDecimalPlaces)
}
