package wallet

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync/atomic"
	"time"
)

// CodeUserRejected is the provider error code for a dismissed permission prompt
const CodeUserRejected = 4001

// RPCError is a JSON-RPC error returned by the provider
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

// IsUserRejected reports whether err is the provider's user-rejected error
func IsUserRejected(err error) bool {
	var rpcErr *RPCError
	return errors.As(err, &rpcErr) && rpcErr.Code == CodeUserRejected
}

type rpcRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      uint64        `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
}

type rpcResponse[T any] struct {
	JSONRPC string    `json:"jsonrpc"`
	ID      uint64    `json:"id"`
	Result  T         `json:"result"`
	Error   *RPCError `json:"error,omitempty"`
}

// RPCProvider talks to a wallet provider over JSON-RPC 2.0
type RPCProvider struct {
	URL        string
	HTTPClient *http.Client

	nextID atomic.Uint64
}

// NewRPCProvider creates a provider client for url
func NewRPCProvider(url string, timeout time.Duration) *RPCProvider {
	return &RPCProvider{
		URL:        strings.TrimRight(url, "/"),
		HTTPClient: &http.Client{Timeout: timeout},
	}
}

// RequestAccounts calls eth_requestAccounts
func (p *RPCProvider) RequestAccounts(ctx context.Context) ([]string, error) {
	return call[[]string](ctx, p, "eth_requestAccounts")
}

// CurrentAccounts calls eth_accounts
func (p *RPCProvider) CurrentAccounts(ctx context.Context) ([]string, error) {
	return call[[]string](ctx, p, "eth_accounts")
}

func call[T any](ctx context.Context, p *RPCProvider, method string, params ...interface{}) (T, error) {
	var zero T
	if params == nil {
		params = []interface{}{}
	}

	body, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		ID:      p.nextID.Add(1),
		Method:  method,
		Params:  params,
	})
	if err != nil {
		return zero, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.URL, bytes.NewReader(body))
	if err != nil {
		return zero, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.HTTPClient.Do(req)
	if err != nil {
		return zero, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return zero, fmt.Errorf("http %d from wallet provider", resp.StatusCode)
	}

	var out rpcResponse[T]
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return zero, err
	}
	if out.Error != nil {
		return zero, out.Error
	}
	return out.Result, nil
}
