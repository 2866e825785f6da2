package service

import (
	"crypto/ecdsa"
	"crypto/rand"
	"fmt"
	"io"
	"math/big"
	"strings"

	"github.com/GiantDole/okayokayokay/internal/core/domain"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
)

// Well-known x402 network names and their EVM chain ids.
var networkChainIDs = map[string]int64{
	"base":         8453,
	"base-sepolia": 84532,
	"ethereum":     1,
	"sepolia":      11155111,
	"avalanche":    43114,
	"polygon":      137,
}

// ChainIDForNetwork resolves an x402 network identifier to its EVM chain id.
// Accepts both well-known names ("base") and CAIP-2 identifiers ("eip155:8453").
func ChainIDForNetwork(network string) (int64, error) {
	if id, ok := networkChainIDs[network]; ok {
		return id, nil
	}
	if rest, ok := strings.CutPrefix(network, "eip155:"); ok {
		id, ok := new(big.Int).SetString(rest, 10)
		if !ok {
			return 0, fmt.Errorf("invalid chain id in network %q", network)
		}
		return id.Int64(), nil
	}
	return 0, fmt.Errorf("unsupported network %q", network)
}

// NewAuthorizationNonce returns a fresh random bytes32 nonce, 0x-hex encoded.
func NewAuthorizationNonce() (string, error) {
	var nonce [32]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return "", fmt.Errorf("generating nonce: %w", err)
	}
	return hexutil.Encode(nonce[:]), nil
}

// transferWithAuthorizationTypes is the ERC-3009 typed-data layout.
var transferWithAuthorizationTypes = apitypes.Types{
	"EIP712Domain": []apitypes.Type{
		{Name: "name", Type: "string"},
		{Name: "version", Type: "string"},
		{Name: "chainId", Type: "uint256"},
		{Name: "verifyingContract", Type: "address"},
	},
	"TransferWithAuthorization": []apitypes.Type{
		{Name: "from", Type: "address"},
		{Name: "to", Type: "address"},
		{Name: "value", Type: "uint256"},
		{Name: "validAfter", Type: "uint256"},
		{Name: "validBefore", Type: "uint256"},
		{Name: "nonce", Type: "bytes32"},
	},
}

// TransferAuthorizationTypedData builds the EIP-712 typed data for an
// ERC-3009 TransferWithAuthorization under the asset contract's domain.
func TransferAuthorizationTypedData(req domain.PaymentRequirements, auth domain.ExactEvmAuthorization) (apitypes.TypedData, error) {
	chainID, err := ChainIDForNetwork(req.Network)
	if err != nil {
		return apitypes.TypedData{}, err
	}

	// Default to Circle's published USDC domain parameters when the
	// challenge omits them.
	name, version := "USD Coin", "2"
	if req.Extra != nil {
		if req.Extra.Name != "" {
			name = req.Extra.Name
		}
		if req.Extra.Version != "" {
			version = req.Extra.Version
		}
	}

	return apitypes.TypedData{
		Types:       transferWithAuthorizationTypes,
		PrimaryType: "TransferWithAuthorization",
		Domain: apitypes.TypedDataDomain{
			Name:              name,
			Version:           version,
			ChainId:           math.NewHexOrDecimal256(chainID),
			VerifyingContract: req.Asset,
		},
		Message: apitypes.TypedDataMessage{
			"from":        auth.From,
			"to":          auth.To,
			"value":       auth.Value,
			"validAfter":  auth.ValidAfter,
			"validBefore": auth.ValidBefore,
			"nonce":       auth.Nonce,
		},
	}, nil
}

// HashTypedData computes the EIP-712 digest: keccak256("\x19\x01" ||
// domainSeparator || hashStruct(message)).
func HashTypedData(typedData apitypes.TypedData) ([]byte, error) {
	domainSeparator, err := typedData.HashStruct("EIP712Domain", typedData.Domain.Map())
	if err != nil {
		return nil, fmt.Errorf("hashing domain: %w", err)
	}
	messageHash, err := typedData.HashStruct(typedData.PrimaryType, typedData.Message)
	if err != nil {
		return nil, fmt.Errorf("hashing message: %w", err)
	}

	raw := make([]byte, 0, 2+len(domainSeparator)+len(messageHash))
	raw = append(raw, 0x19, 0x01)
	raw = append(raw, domainSeparator...)
	raw = append(raw, messageHash...)
	return crypto.Keccak256(raw), nil
}

// SignTransferAuthorization signs an ERC-3009 authorization and returns the
// 65-byte signature 0x-hex encoded, with v in Ethereum 27/28 form.
func SignTransferAuthorization(key *ecdsa.PrivateKey, req domain.PaymentRequirements, auth domain.ExactEvmAuthorization) (string, error) {
	typedData, err := TransferAuthorizationTypedData(req, auth)
	if err != nil {
		return "", err
	}

	digest, err := HashTypedData(typedData)
	if err != nil {
		return "", err
	}

	sig, err := crypto.Sign(digest, key)
	if err != nil {
		return "", fmt.Errorf("signing authorization: %w", err)
	}

	// crypto.Sign yields v as a recovery id (0/1); ecrecover in ERC-3009
	// contracts expects 27/28.
	if sig[64] < 27 {
		sig[64] += 27
	}

	return hexutil.Encode(sig), nil
}
