package solana

// MintInfo holds the decoded SPL mint account fields the pipeline consumes.
type MintInfo struct {
	Decimals        int
	Supply          float64 // UI amount (raw / 10^decimals)
	MintAuthority   *string // nil when revoked
	FreezeAuthority *string // nil when revoked
}

// TokenAccount is one entry from getTokenLargestAccounts.
type TokenAccount struct {
	Address  string  // token account, not the owner wallet
	UIAmount float64
}

// AccountInfo represents Solana account information.
type AccountInfo struct {
	Lamports   uint64
	Owner      string
	Data       string // base64 encoded
	Executable bool
}

// Asset is a DAS asset as returned by getAsset / getAssetsByCreator.
// Fields are decoded defensively; absent fields stay zero.
type Asset struct {
	ID        string
	Interface string
	Name      string
	Symbol    string
	Creator   string
	Supply    float64
	CreatedAt int64 // ms, 0 when the provider omits it
}

// EnrichedTransaction is one entry of the enhanced transaction history.
type EnrichedTransaction struct {
	Signature       string
	Slot            int64
	Timestamp       int64 // seconds since epoch as delivered upstream
	FeePayer        string
	Type            string // SWAP, TRANSFER, ...
	NativeTransfers []NativeTransfer
	TokenTransfers  []TokenTransfer
}

// NativeTransfer is a SOL movement inside an enriched transaction.
type NativeTransfer struct {
	FromUserAccount string
	ToUserAccount   string
	Amount          int64 // lamports
}

// TokenTransfer is an SPL token movement inside an enriched transaction.
type TokenTransfer struct {
	FromUserAccount string
	ToUserAccount   string
	Mint            string
	TokenAmount     float64
}
