package solana

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync/atomic"
	"time"

	"pumpfun-radar/internal/observability"
)

// Default configuration values.
const (
	DefaultTimeout     = 10 * time.Second
	DefaultMaxRetries  = 2
	DefaultRetryDelay  = 500 * time.Millisecond
	DefaultMaxDelay    = 5 * time.Second
	DefaultBackoffMult = 2.0
)

// Client is a Solana JSON-RPC 2.0 client with DAS and enhanced-history
// extensions. It returns errors; callers in the enrichment layer convert
// them into absent sentinels.
type Client struct {
	endpoint     string
	enhancedBase string // REST base for parsed transaction history, "" disables
	apiKey       string // appended to enhanced-history requests
	client       *http.Client
	maxRetries   int
	retryDelay   time.Duration
	maxDelay     time.Duration
	backoffMult  float64
	requestID    atomic.Uint64
}

// ClientOption configures Client.
type ClientOption func(*Client)

// WithTimeout sets HTTP client timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.client.Timeout = d
	}
}

// WithMaxRetries sets maximum retry attempts.
func WithMaxRetries(n int) ClientOption {
	return func(c *Client) {
		c.maxRetries = n
	}
}

// WithEnhancedAPI sets the REST base and key for parsed transaction history.
func WithEnhancedAPI(base, apiKey string) ClientOption {
	return func(c *Client) {
		c.enhancedBase = base
		c.apiKey = apiKey
	}
}

// WithHTTPClient sets a custom http.Client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		c.client = client
	}
}

// NewClient creates a new Solana RPC client.
func NewClient(endpoint string, opts ...ClientOption) *Client {
	c := &Client{
		endpoint:    endpoint,
		client:      &http.Client{Timeout: DefaultTimeout},
		maxRetries:  DefaultMaxRetries,
		retryDelay:  DefaultRetryDelay,
		maxDelay:    DefaultMaxDelay,
		backoffMult: DefaultBackoffMult,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// rpcRequest represents a JSON-RPC 2.0 request.
type rpcRequest struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      uint64      `json:"id"`
	Method  string      `json:"method"`
	Params  interface{} `json:"params,omitempty"`
}

// rpcResponse represents a JSON-RPC 2.0 response.
type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      uint64          `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
}

// rpcError represents a JSON-RPC 2.0 error.
type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *rpcError) Error() string {
	return fmt.Sprintf("RPC error %d: %s", e.Code, e.Message)
}

// call performs a JSON-RPC call with retries and exponential backoff.
func (c *Client) call(ctx context.Context, method string, params interface{}, result interface{}) error {
	start := time.Now()
	err := c.doCall(ctx, method, params, result)
	kind := ""
	if err != nil {
		kind = "rpc"
	}
	observability.RecordProviderCall("solana", method, time.Since(start).Seconds(), kind)
	return err
}

func (c *Client) doCall(ctx context.Context, method string, params interface{}, result interface{}) error {
	reqID := c.requestID.Add(1)
	reqBody := rpcRequest{
		JSONRPC: "2.0",
		ID:      reqID,
		Method:  method,
		Params:  params,
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	delay := c.retryDelay
	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
			delay = time.Duration(float64(delay) * c.backoffMult)
			if delay > c.maxDelay {
				delay = c.maxDelay
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.client.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("http request: %w", err)
			continue
		}

		respBody, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("read response: %w", err)
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			lastErr = fmt.Errorf("rate limited (429)")
			continue
		}

		if resp.StatusCode != http.StatusOK {
			lastErr = fmt.Errorf("unexpected status %d: %s", resp.StatusCode, truncate(respBody, 200))
			continue
		}

		var rpcResp rpcResponse
		if err := json.Unmarshal(respBody, &rpcResp); err != nil {
			lastErr = fmt.Errorf("unmarshal response: %w", err)
			continue
		}

		if rpcResp.Error != nil {
			// RPC errors are not retried
			return rpcResp.Error
		}

		if result != nil && rpcResp.Result != nil {
			if err := json.Unmarshal(rpcResp.Result, result); err != nil {
				return fmt.Errorf("unmarshal result: %w", err)
			}
		}

		return nil
	}

	return fmt.Errorf("max retries exceeded: %w", lastErr)
}

// GetAccountInfo retrieves account info by public key.
// Returns nil if the account does not exist.
func (c *Client) GetAccountInfo(ctx context.Context, pubkey string) (*AccountInfo, error) {
	params := []interface{}{
		pubkey,
		map[string]interface{}{"encoding": "base64"},
	}

	var result getAccountInfoResult
	if err := c.call(ctx, "getAccountInfo", params, &result); err != nil {
		return nil, err
	}

	if result.Value == nil {
		return nil, nil
	}

	info := &AccountInfo{
		Lamports:   result.Value.Lamports,
		Owner:      result.Value.Owner,
		Executable: result.Value.Executable,
	}
	if len(result.Value.Data) >= 1 {
		info.Data = result.Value.Data[0]
	}
	return info, nil
}

type getAccountInfoResult struct {
	Value *getAccountInfoValue `json:"value"`
}

type getAccountInfoValue struct {
	Lamports   uint64   `json:"lamports"`
	Owner      string   `json:"owner"`
	Data       []string `json:"data"` // [base64_data, encoding]
	Executable bool     `json:"executable"`
}

// GetMintInfo retrieves and decodes the SPL mint account for a token.
// Returns nil if the mint account does not exist.
func (c *Client) GetMintInfo(ctx context.Context, mint string) (*MintInfo, error) {
	info, err := c.GetAccountInfo(ctx, mint)
	if err != nil {
		return nil, err
	}
	if info == nil || info.Data == "" {
		return nil, nil
	}
	return parseMintAccount(info.Data)
}

// GetTokenSupply retrieves the UI token supply for a mint.
func (c *Client) GetTokenSupply(ctx context.Context, mint string) (float64, error) {
	params := []interface{}{mint}

	var result getTokenSupplyResult
	if err := c.call(ctx, "getTokenSupply", params, &result); err != nil {
		return 0, err
	}
	if result.Value.UIAmount != nil {
		return *result.Value.UIAmount, nil
	}
	// Some providers omit uiAmount; fall back to amount/decimals.
	amount, err := strconv.ParseFloat(result.Value.Amount, 64)
	if err != nil {
		return 0, fmt.Errorf("parse supply %q: %w", result.Value.Amount, err)
	}
	div := 1.0
	for i := 0; i < result.Value.Decimals; i++ {
		div *= 10
	}
	return amount / div, nil
}

type getTokenSupplyResult struct {
	Value struct {
		Amount   string   `json:"amount"`
		Decimals int      `json:"decimals"`
		UIAmount *float64 `json:"uiAmount"`
	} `json:"value"`
}

// GetLargestTokenAccounts retrieves the 20 largest token accounts for a mint,
// ordered by balance descending.
func (c *Client) GetLargestTokenAccounts(ctx context.Context, mint string) ([]TokenAccount, error) {
	params := []interface{}{mint}

	var result getLargestAccountsResult
	if err := c.call(ctx, "getTokenLargestAccounts", params, &result); err != nil {
		return nil, err
	}

	accounts := make([]TokenAccount, 0, len(result.Value))
	for _, v := range result.Value {
		acct := TokenAccount{Address: v.Address}
		if v.UIAmount != nil {
			acct.UIAmount = *v.UIAmount
		}
		accounts = append(accounts, acct)
	}
	return accounts, nil
}

type getLargestAccountsResult struct {
	Value []struct {
		Address  string   `json:"address"`
		UIAmount *float64 `json:"uiAmount"`
	} `json:"value"`
}

// GetAccountOwner resolves the owner wallet of an SPL token account.
// Returns "" if the account does not exist or is not a token account.
func (c *Client) GetAccountOwner(ctx context.Context, tokenAccount string) (string, error) {
	info, err := c.GetAccountInfo(ctx, tokenAccount)
	if err != nil {
		return "", err
	}
	if info == nil || info.Data == "" {
		return "", nil
	}
	return parseTokenAccountOwner(info.Data)
}

// GetAsset retrieves a DAS asset by id. Returns nil when not found.
func (c *Client) GetAsset(ctx context.Context, id string) (*Asset, error) {
	params := map[string]interface{}{"id": id}

	var raw dasAsset
	if err := c.call(ctx, "getAsset", params, &raw); err != nil {
		return nil, err
	}
	if raw.ID == "" {
		return nil, nil
	}
	asset := raw.toAsset()
	return &asset, nil
}

// GetAssetsByCreator retrieves up to limit DAS assets created by a wallet.
func (c *Client) GetAssetsByCreator(ctx context.Context, creator string, limit int) ([]Asset, error) {
	if limit <= 0 {
		limit = 100
	}
	params := map[string]interface{}{
		"creatorAddress": creator,
		"page":           1,
		"limit":          limit,
	}

	var result struct {
		Items []dasAsset `json:"items"`
	}
	if err := c.call(ctx, "getAssetsByCreator", params, &result); err != nil {
		return nil, err
	}

	assets := make([]Asset, 0, len(result.Items))
	for _, item := range result.Items {
		assets = append(assets, item.toAsset())
	}
	return assets, nil
}

// dasAsset is the raw DAS asset shape; every field is optional.
type dasAsset struct {
	ID        string `json:"id"`
	Interface string `json:"interface"`
	CreatedAt int64  `json:"created_at"`
	Content   *struct {
		Metadata *struct {
			Name   string `json:"name"`
			Symbol string `json:"symbol"`
		} `json:"metadata"`
	} `json:"content"`
	Authorities []struct {
		Address string `json:"address"`
	} `json:"authorities"`
	TokenInfo *struct {
		Supply   float64 `json:"supply"`
		Decimals int     `json:"decimals"`
	} `json:"token_info"`
}

func (d dasAsset) toAsset() Asset {
	a := Asset{
		ID:        d.ID,
		Interface: d.Interface,
		CreatedAt: d.CreatedAt,
	}
	if d.Content != nil && d.Content.Metadata != nil {
		a.Name = d.Content.Metadata.Name
		a.Symbol = d.Content.Metadata.Symbol
	}
	if len(d.Authorities) > 0 {
		a.Creator = d.Authorities[0].Address
	}
	if d.TokenInfo != nil {
		supply := d.TokenInfo.Supply
		for i := 0; i < d.TokenInfo.Decimals; i++ {
			supply /= 10
		}
		a.Supply = supply
	}
	return a
}

// GetTransactionHistory retrieves up to limit parsed transactions for an
// address from the enhanced-history REST endpoint, optionally filtered by
// transaction type. Returns nil when no enhanced endpoint is configured.
func (c *Client) GetTransactionHistory(ctx context.Context, address string, limit int, typeFilter string) ([]EnrichedTransaction, error) {
	if c.enhancedBase == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = 20
	}

	u, err := url.Parse(c.enhancedBase)
	if err != nil {
		return nil, fmt.Errorf("parse enhanced base: %w", err)
	}
	u = u.JoinPath("v0", "addresses", address, "transactions")
	q := u.Query()
	q.Set("limit", strconv.Itoa(limit))
	if c.apiKey != "" {
		q.Set("api-key", c.apiKey)
	}
	if typeFilter != "" {
		q.Set("type", typeFilter)
	}
	u.RawQuery = q.Encode()

	start := time.Now()
	txs, err := c.fetchHistory(ctx, u.String())
	kind := ""
	if err != nil {
		kind = "http"
	}
	observability.RecordProviderCall("solana", "getTransactionHistory", time.Since(start).Seconds(), kind)
	return txs, err
}

func (c *Client) fetchHistory(ctx context.Context, rawURL string) ([]EnrichedTransaction, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, truncate(body, 200))
	}

	var raw []enrichedTxRaw
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("unmarshal history: %w", err)
	}

	txs := make([]EnrichedTransaction, 0, len(raw))
	for _, r := range raw {
		txs = append(txs, r.toTransaction())
	}
	return txs, nil
}

type enrichedTxRaw struct {
	Signature       string `json:"signature"`
	Slot            int64  `json:"slot"`
	Timestamp       int64  `json:"timestamp"`
	FeePayer        string `json:"feePayer"`
	Type            string `json:"type"`
	NativeTransfers []struct {
		FromUserAccount string `json:"fromUserAccount"`
		ToUserAccount   string `json:"toUserAccount"`
		Amount          int64  `json:"amount"`
	} `json:"nativeTransfers"`
	TokenTransfers []struct {
		FromUserAccount string  `json:"fromUserAccount"`
		ToUserAccount   string  `json:"toUserAccount"`
		Mint            string  `json:"mint"`
		TokenAmount     float64 `json:"tokenAmount"`
	} `json:"tokenTransfers"`
}

func (r enrichedTxRaw) toTransaction() EnrichedTransaction {
	tx := EnrichedTransaction{
		Signature: r.Signature,
		Slot:      r.Slot,
		Timestamp: r.Timestamp,
		FeePayer:  r.FeePayer,
		Type:      r.Type,
	}
	for _, nt := range r.NativeTransfers {
		tx.NativeTransfers = append(tx.NativeTransfers, NativeTransfer(nt))
	}
	for _, tt := range r.TokenTransfers {
		tx.TokenTransfers = append(tx.TokenTransfers, TokenTransfer(tt))
	}
	return tx
}

// truncate returns at most n bytes of b as a string, for log snippets.
func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
