package utils

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rpcServer(t *testing.T, handler func(req JSONRPCRequest) interface{}) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req JSONRPCRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, "2.0", req.JSONRPC)
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(handler(req)))
	}))
}

func TestRPCClientCall(t *testing.T) {
	server := rpcServer(t, func(req JSONRPCRequest) interface{} {
		assert.Equal(t, "eth_chainId", req.Method)
		return JSONRPCResponse{JSONRPC: "2.0", ID: req.ID, Result: "0x1"}
	})
	defer server.Close()

	client := NewRPCClient(server.URL)
	response, err := client.Call("eth_chainId", []interface{}{})
	require.NoError(t, err)
	assert.Equal(t, "0x1", response.Result)
}

func TestRPCClientCallError(t *testing.T) {
	server := rpcServer(t, func(req JSONRPCRequest) interface{} {
		return JSONRPCResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Error:   &RPCError{Code: -32601, Message: "method not found"},
		}
	})
	defer server.Close()

	client := NewRPCClient(server.URL)
	_, err := client.Call("eth_unknown", []interface{}{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "method not found")
}

func TestVerifyTransactionSuccess(t *testing.T) {
	receipts := map[string]TransactionReceipt{
		"0xaa": {TransactionHash: "0xaa", Status: "0x1"},
		"0xbb": {TransactionHash: "0xbb", Status: "0x0"},
	}
	server := rpcServer(t, func(req JSONRPCRequest) interface{} {
		require.Equal(t, "eth_getTransactionReceipt", req.Method)
		hash, _ := req.Params[0].(string)
		receipt, ok := receipts[hash]
		if !ok {
			return JSONRPCResponse{JSONRPC: "2.0", ID: req.ID}
		}
		return JSONRPCResponse{JSONRPC: "2.0", ID: req.ID, Result: receipt}
	})
	defer server.Close()

	client := NewRPCClient(server.URL)

	success, receipt, err := client.VerifyTransactionSuccess("0xaa")
	require.NoError(t, err)
	assert.True(t, success)
	assert.Equal(t, "0xaa", receipt.TransactionHash)

	success, _, err = client.VerifyTransactionSuccess("0xbb")
	require.NoError(t, err)
	assert.False(t, success)

	_, _, err = client.VerifyTransactionSuccess("0xcc")
	require.Error(t, err)
}
