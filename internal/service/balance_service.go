package service

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/GiantDole/okayokayokay/internal/core/ports"
	"github.com/GiantDole/okayokayokay/pkg/apperror"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog"
)

// balanceOfSelector is the first 4 bytes of keccak256("balanceOf(address)").
var balanceOfSelector = []byte{0x70, 0xa0, 0x82, 0x31}

// BalanceServiceImpl implements ports.BalanceService by reading the session
// wallet's ERC-20 token balance with an eth_call.
type BalanceServiceImpl struct {
	walletSvc ports.WalletService
	chain     ports.ChainReader
	token     common.Address
	decimals  int
	log       zerolog.Logger
}

// NewBalanceService creates a balance reader for the given token contract.
func NewBalanceService(
	walletSvc ports.WalletService,
	chain ports.ChainReader,
	tokenContract string,
	decimals int,
	log zerolog.Logger,
) *BalanceServiceImpl {
	return &BalanceServiceImpl{
		walletSvc: walletSvc,
		chain:     chain,
		token:     common.HexToAddress(tokenContract),
		decimals:  decimals,
		log:       log,
	}
}

// GetWalletInfo resolves (or provisions) the session wallet and reads its
// current token balance.
func (s *BalanceServiceImpl) GetWalletInfo(ctx context.Context, sessionID string) (*ports.WalletInfo, error) {
	identity, err := s.walletSvc.GetOrCreate(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	balance, err := s.readBalance(ctx, common.HexToAddress(identity.Address))
	if err != nil {
		return nil, apperror.ErrChainUnavailable(fmt.Errorf("read balance for %s: %w", identity.Address, err))
	}

	return &ports.WalletInfo{
		Address:          identity.Address,
		Balance:          balance.String(),
		BalanceFormatted: formatUnits(balance, s.decimals),
		SessionID:        identity.SessionID,
		CreatedAt:        identity.CreatedAt,
	}, nil
}

// readBalance performs the balanceOf(address) eth_call.
func (s *BalanceServiceImpl) readBalance(ctx context.Context, owner common.Address) (*big.Int, error) {
	data := make([]byte, 0, 4+32)
	data = append(data, balanceOfSelector...)
	data = append(data, common.LeftPadBytes(owner.Bytes(), 32)...)

	out, err := s.chain.CallContract(ctx, ethereum.CallMsg{To: &s.token, Data: data}, nil)
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("empty balanceOf response")
	}
	return new(big.Int).SetBytes(out), nil
}

// formatUnits renders an atomic token amount as a decimal string, trimming
// trailing zeros ("1500000" with 6 decimals becomes "1.5").
func formatUnits(amount *big.Int, decimals int) string {
	if decimals <= 0 {
		return amount.String()
	}

	divisor := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
	whole, frac := new(big.Int).QuoRem(amount, divisor, new(big.Int))

	if frac.Sign() == 0 {
		return whole.String()
	}

	fracStr := strings.TrimRight(fmt.Sprintf("%0*s", decimals, frac.String()), "0")
	return whole.String() + "." + fracStr
}
