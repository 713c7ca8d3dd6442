package wallet

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rpcServer(t *testing.T, handle func(method string) (interface{}, *RPCError)) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "2.0", req.JSONRPC)

		result, rpcErr := handle(req.Method)
		resp := map[string]interface{}{"jsonrpc": "2.0", "id": req.ID}
		if rpcErr != nil {
			resp["error"] = rpcErr
		} else {
			resp["result"] = result
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
}

func TestRPCProvider_Accounts(t *testing.T) {
	srv := rpcServer(t, func(method string) (interface{}, *RPCError) {
		switch method {
		case "eth_requestAccounts":
			return []string{addrA}, nil
		case "eth_accounts":
			return []string{addrB}, nil
		}
		return nil, &RPCError{Code: -32601, Message: "method not found"}
	})
	defer srv.Close()

	p := NewRPCProvider(srv.URL, time.Second)
	ctx := context.Background()

	accounts, err := p.RequestAccounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{addrA}, accounts)

	accounts, err = p.CurrentAccounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{addrB}, accounts)
}

func TestRPCProvider_UserRejected(t *testing.T) {
	srv := rpcServer(t, func(string) (interface{}, *RPCError) {
		return nil, &RPCError{Code: CodeUserRejected, Message: "User rejected the request."}
	})
	defer srv.Close()

	_, err := NewRPCProvider(srv.URL, time.Second).RequestAccounts(context.Background())
	require.Error(t, err)
	assert.True(t, IsUserRejected(err))
}

func TestRPCProvider_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := NewRPCProvider(srv.URL, time.Second).CurrentAccounts(context.Background())
	require.Error(t, err)
	assert.False(t, IsUserRejected(err))
}
