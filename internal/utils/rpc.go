package utils

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const rpcRequestTimeout = 30 * time.Second

// RPCClient is a minimal Ethereum JSON-RPC client. It carries exactly the
// surface the chain layer needs: raw calls and receipt status lookups.
type RPCClient struct {
	URL    string
	client *http.Client
}

// NewRPCClient creates a new RPCClient for the given endpoint.
func NewRPCClient(url string) *RPCClient {
	return &RPCClient{
		URL:    url,
		client: &http.Client{Timeout: rpcRequestTimeout},
	}
}

// JSONRPCRequest is the JSON-RPC 2.0 request envelope.
type JSONRPCRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
	ID      int           `json:"id"`
}

// JSONRPCResponse is the JSON-RPC 2.0 response envelope.
type JSONRPCResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      int         `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *RPCError   `json:"error,omitempty"`
}

// RPCError is the error object of a failed JSON-RPC call.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// TransactionReceipt holds the receipt fields the confirmation path reads.
type TransactionReceipt struct {
	TransactionHash string `json:"transactionHash"`
	BlockNumber     string `json:"blockNumber"`
	GasUsed         string `json:"gasUsed"`
	ContractAddress string `json:"contractAddress"`
	Status          string `json:"status"`
}

// Call issues a single JSON-RPC request and unwraps the response envelope.
func (r *RPCClient) Call(method string, params []interface{}) (*JSONRPCResponse, error) {
	body, err := json.Marshal(JSONRPCRequest{
		JSONRPC: "2.0",
		Method:  method,
		Params:  params,
		ID:      1,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, r.URL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	var response JSONRPCResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if response.Error != nil {
		return nil, fmt.Errorf("RPC error %d: %s", response.Error.Code, response.Error.Message)
	}
	return &response, nil
}

func (r *RPCClient) getTransactionReceipt(txHash string) (*TransactionReceipt, error) {
	response, err := r.Call("eth_getTransactionReceipt", []interface{}{txHash})
	if err != nil {
		return nil, err
	}
	if response.Result == nil {
		return nil, fmt.Errorf("transaction not found or not yet mined")
	}

	raw, err := json.Marshal(response.Result)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal receipt data: %w", err)
	}
	var receipt TransactionReceipt
	if err := json.Unmarshal(raw, &receipt); err != nil {
		return nil, fmt.Errorf("failed to unmarshal receipt: %w", err)
	}
	return &receipt, nil
}

// VerifyTransactionSuccess fetches the receipt for the given hash and
// reports whether the transaction executed successfully.
func (r *RPCClient) VerifyTransactionSuccess(txHash string) (bool, *TransactionReceipt, error) {
	receipt, err := r.getTransactionReceipt(txHash)
	if err != nil {
		return false, nil, err
	}
	// Status "0x1" means success, "0x0" means failure
	return receipt.Status == "0x1", receipt, nil
}
