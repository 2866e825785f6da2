package domain

// X402Version is the x402 protocol version this client speaks.
const X402Version = 1

// SchemeExact is the exact-amount transfer scheme (ERC-3009 on EVM chains).
const SchemeExact = "exact"

// PaymentRequirements is one accepted payment option from a 402 challenge.
type PaymentRequirements struct {
	Scheme            string      `json:"scheme"`
	Network           string      `json:"network"`
	MaxAmountRequired string      `json:"maxAmountRequired"`
	Resource          string      `json:"resource,omitempty"`
	Description       string      `json:"description,omitempty"`
	MimeType          string      `json:"mimeType,omitempty"`
	PayTo             string      `json:"payTo"`
	MaxTimeoutSeconds int64       `json:"maxTimeoutSeconds,omitempty"`
	Asset             string      `json:"asset"`
	Extra             *AssetExtra `json:"extra,omitempty"`
}

// AssetExtra carries the EIP-712 domain parameters of the asset contract
// (e.g. name "USD Coin", version "2").
type AssetExtra struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// PaymentRequiredResponse is the machine-readable body of a 402 response.
type PaymentRequiredResponse struct {
	X402Version int                   `json:"x402Version"`
	Error       string                `json:"error,omitempty"`
	Accepts     []PaymentRequirements `json:"accepts"`
}

// ExactEvmAuthorization is the ERC-3009 TransferWithAuthorization message.
// Numeric fields travel as decimal strings; Nonce is a 0x-prefixed bytes32.
type ExactEvmAuthorization struct {
	From        string `json:"from"`
	To          string `json:"to"`
	Value       string `json:"value"`
	ValidAfter  string `json:"validAfter"`
	ValidBefore string `json:"validBefore"`
	Nonce       string `json:"nonce"`
}

// ExactEvmPayload is the signed authorization for the exact scheme.
type ExactEvmPayload struct {
	Signature     string                `json:"signature"`
	Authorization ExactEvmAuthorization `json:"authorization"`
}

// PaymentPayload is the full X-Payment header body (base64-encoded JSON).
type PaymentPayload struct {
	X402Version int             `json:"x402Version"`
	Scheme      string          `json:"scheme"`
	Network     string          `json:"network"`
	Payload     ExactEvmPayload `json:"payload"`
}

// SettleResponse is the decoded X-Payment-Response header a resource server
// may attach after settling a payment.
type SettleResponse struct {
	Success     bool   `json:"success"`
	Transaction string `json:"transaction"`
	Network     string `json:"network,omitempty"`
	Payer       string `json:"payer,omitempty"`
	ErrorReason string `json:"errorReason,omitempty"`
}

// PaymentDetails is the settlement metadata surfaced to callers and recorded
// in the audit ledger.
type PaymentDetails struct {
	TxHash string `json:"txHash"`
	Amount string `json:"amount"`
	To     string `json:"to"`
}
