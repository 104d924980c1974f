package solana

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// rpcTestServer answers JSON-RPC requests with canned results per method.
func rpcTestServer(t *testing.T, results map[string]string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		result, ok := results[req.Method]
		if !ok {
			w.Write([]byte(`{"jsonrpc":"2.0","id":1,"error":{"code":-32601,"message":"method not found"}}`))
			return
		}
		resp := map[string]interface{}{
			"jsonrpc": "2.0",
			"id":      req.ID,
			"result":  json.RawMessage(result),
		}
		json.NewEncoder(w).Encode(resp)
	}))
}

func TestGetTokenSupply(t *testing.T) {
	srv := rpcTestServer(t, map[string]string{
		"getTokenSupply": `{"value":{"amount":"1000000000000000","decimals":6,"uiAmount":1000000000.0}}`,
	})
	defer srv.Close()

	c := NewClient(srv.URL)
	supply, err := c.GetTokenSupply(context.Background(), WSOLMint)
	require.NoError(t, err)
	assert.InDelta(t, 1_000_000_000.0, supply, 1e-6)
}

func TestGetTokenSupply_NoUIAmount(t *testing.T) {
	srv := rpcTestServer(t, map[string]string{
		"getTokenSupply": `{"value":{"amount":"5000000","decimals":3,"uiAmount":null}}`,
	})
	defer srv.Close()

	c := NewClient(srv.URL)
	supply, err := c.GetTokenSupply(context.Background(), WSOLMint)
	require.NoError(t, err)
	assert.InDelta(t, 5000.0, supply, 1e-9)
}

func TestGetLargestTokenAccounts(t *testing.T) {
	srv := rpcTestServer(t, map[string]string{
		"getTokenLargestAccounts": `{"value":[
			{"address":"acct1","uiAmount":500.0},
			{"address":"acct2","uiAmount":100.0},
			{"address":"acct3","uiAmount":null}
		]}`,
	})
	defer srv.Close()

	c := NewClient(srv.URL)
	accounts, err := c.GetLargestTokenAccounts(context.Background(), WSOLMint)
	require.NoError(t, err)
	require.Len(t, accounts, 3)
	assert.Equal(t, "acct1", accounts[0].Address)
	assert.Equal(t, 500.0, accounts[0].UIAmount)
	assert.Equal(t, 0.0, accounts[2].UIAmount)
}

func TestGetAccountInfo_NotFound(t *testing.T) {
	srv := rpcTestServer(t, map[string]string{
		"getAccountInfo": `{"value":null}`,
	})
	defer srv.Close()

	c := NewClient(srv.URL)
	info, err := c.GetAccountInfo(context.Background(), "missing")
	require.NoError(t, err)
	assert.Nil(t, info)
}

func TestGetMintInfo(t *testing.T) {
	data := buildMintAccount(t, "", "", 1_000_000_000, 6)
	srv := rpcTestServer(t, map[string]string{
		"getAccountInfo": `{"value":{"lamports":1461600,"owner":"` + TokenProgram + `","data":["` + data + `","base64"],"executable":false}}`,
	})
	defer srv.Close()

	c := NewClient(srv.URL)
	info, err := c.GetMintInfo(context.Background(), WSOLMint)
	require.NoError(t, err)
	require.NotNil(t, info)
	assert.Nil(t, info.MintAuthority)
	assert.Nil(t, info.FreezeAuthority)
	assert.Equal(t, 6, info.Decimals)
}

func TestGetAssetsByCreator(t *testing.T) {
	srv := rpcTestServer(t, map[string]string{
		"getAssetsByCreator": `{"items":[
			{"id":"mintA","interface":"FungibleToken","created_at":1700000000000,
			 "content":{"metadata":{"name":"Token A","symbol":"TKA"}},
			 "token_info":{"supply":1000000000000000,"decimals":6}},
			{"id":"mintB","interface":"V1_NFT"}
		]}`,
	})
	defer srv.Close()

	c := NewClient(srv.URL)
	assets, err := c.GetAssetsByCreator(context.Background(), "creator", 100)
	require.NoError(t, err)
	require.Len(t, assets, 2)
	assert.Equal(t, "mintA", assets[0].ID)
	assert.Equal(t, "FungibleToken", assets[0].Interface)
	assert.Equal(t, "Token A", assets[0].Name)
	assert.InDelta(t, 1_000_000_000.0, assets[0].Supply, 1e-6)
	assert.Equal(t, "V1_NFT", assets[1].Interface)
	assert.Zero(t, assets[1].Supply)
}

func TestGetTransactionHistory(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v0/addresses/wallet1/transactions", r.URL.Path)
		assert.Equal(t, "test-key", r.URL.Query().Get("api-key"))
		assert.Equal(t, "SWAP", r.URL.Query().Get("type"))
		w.Write([]byte(`[
			{"signature":"sig1","slot":100,"timestamp":1700000000,"feePayer":"wallet1","type":"SWAP",
			 "nativeTransfers":[{"fromUserAccount":"a","toUserAccount":"b","amount":1000000000}],
			 "tokenTransfers":[{"fromUserAccount":"b","toUserAccount":"a","mint":"mintA","tokenAmount":5.5}]}
		]`))
	}))
	defer srv.Close()

	c := NewClient("http://unused", WithEnhancedAPI(srv.URL, "test-key"))
	txs, err := c.GetTransactionHistory(context.Background(), "wallet1", 20, "SWAP")
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, "sig1", txs[0].Signature)
	require.Len(t, txs[0].NativeTransfers, 1)
	assert.Equal(t, int64(1000000000), txs[0].NativeTransfers[0].Amount)
	require.Len(t, txs[0].TokenTransfers, 1)
	assert.Equal(t, 5.5, txs[0].TokenTransfers[0].TokenAmount)
}

func TestGetTransactionHistory_NoEndpointConfigured(t *testing.T) {
	c := NewClient("http://unused")
	txs, err := c.GetTransactionHistory(context.Background(), "wallet1", 20, "")
	require.NoError(t, err)
	assert.Nil(t, txs)
}

func TestRPCErrorNotRetried(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Write([]byte(`{"jsonrpc":"2.0","id":1,"error":{"code":-32602,"message":"invalid params"}}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	_, err := c.GetTokenSupply(context.Background(), "bad")
	require.Error(t, err)
	assert.Equal(t, 1, calls, "RPC-level errors must not be retried")
}
