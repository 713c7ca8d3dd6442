// Package ledger wraps the role contract on the external ledger.
package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/medrex/portal-gate/pkg/types"
)

// Contract function names
const (
	FnCheckAdmin       = "checkAdmin"
	FnGetDoctor        = "getDoctor"
	FnGetPatient       = "getPatient"
	FnLogAdminLogout   = "logAdminLogout"
	FnLogDoctorLogout  = "logDoctorLogout"
	FnLogPatientLogout = "logPatientLogout"
	FnGetAgentName     = "getAgentName"
)

// Contract is the ledger contract boundary
type Contract interface {
	CheckAdmin(ctx context.Context, address string) (bool, error)
	GetDoctor(ctx context.Context, address string) (types.Profile, error)
	GetPatient(ctx context.Context, address string) (types.Profile, error)
	GetAgentName(ctx context.Context, address string) (string, error)

	// Submit sends a logout transaction for function on behalf of from
	Submit(ctx context.Context, function, from string) error
}

// GatewayContract calls the contract through an HTTP ledger gateway
type GatewayContract struct {
	BaseURL    string
	Channel    string
	Name       string
	Bearer     string
	HTTPClient *http.Client
}

// NewGatewayContract creates a gateway client for contract name on channel
func NewGatewayContract(baseURL, channel, name, bearer string, timeout time.Duration) *GatewayContract {
	return &GatewayContract{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		Channel:    channel,
		Name:       name,
		Bearer:     bearer,
		HTTPClient: &http.Client{Timeout: timeout},
	}
}

type txRequest struct {
	Function string   `json:"function"`
	Args     []string `json:"args"`
	From     string   `json:"from,omitempty"`
}

type evaluateResponse[T any] struct {
	Result T `json:"result"`
}

type submitResponse struct {
	TxID string `json:"tx_id"`
}

// profileResult accepts age as either a JSON number or a decimal string
type profileResult struct {
	Name string          `json:"name"`
	Age  json.RawMessage `json:"age"`
}

func (p profileResult) profile() (types.Profile, error) {
	raw := strings.Trim(strings.TrimSpace(string(p.Age)), `"`)
	if raw == "" || raw == "null" {
		return types.Profile{Name: p.Name}, nil
	}
	age, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return types.Profile{}, fmt.Errorf("invalid age %q: %w", raw, err)
	}
	return types.Profile{Name: p.Name, Age: age}, nil
}

// CheckAdmin evaluates checkAdmin(address)
func (c *GatewayContract) CheckAdmin(ctx context.Context, address string) (bool, error) {
	out, err := evaluate[bool](ctx, c, FnCheckAdmin, address)
	if err != nil {
		return false, err
	}
	return out.Result, nil
}

// GetDoctor evaluates getDoctor(address)
func (c *GatewayContract) GetDoctor(ctx context.Context, address string) (types.Profile, error) {
	out, err := evaluate[profileResult](ctx, c, FnGetDoctor, address)
	if err != nil {
		return types.Profile{}, err
	}
	return out.Result.profile()
}

// GetPatient evaluates getPatient(address)
func (c *GatewayContract) GetPatient(ctx context.Context, address string) (types.Profile, error) {
	out, err := evaluate[profileResult](ctx, c, FnGetPatient, address)
	if err != nil {
		return types.Profile{}, err
	}
	return out.Result.profile()
}

// GetAgentName evaluates getAgentName(address)
func (c *GatewayContract) GetAgentName(ctx context.Context, address string) (string, error) {
	out, err := evaluate[string](ctx, c, FnGetAgentName, address)
	if err != nil {
		return "", err
	}
	return out.Result, nil
}

// Submit submits function with no arguments from the acting address
func (c *GatewayContract) Submit(ctx context.Context, function, from string) error {
	req, err := c.newRequest(ctx, "submit", txRequest{Function: function, Args: []string{}, From: from})
	if err != nil {
		return err
	}
	_, err = doJSON[submitResponse](c, req)
	return err
}

func evaluate[T any](ctx context.Context, c *GatewayContract, function string, args ...string) (*evaluateResponse[T], error) {
	req, err := c.newRequest(ctx, "evaluate", txRequest{Function: function, Args: args})
	if err != nil {
		return nil, err
	}
	return doJSON[evaluateResponse[T]](c, req)
}

func (c *GatewayContract) newRequest(ctx context.Context, action string, body txRequest) (*http.Request, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	endpoint := fmt.Sprintf("%s/channels/%s/contracts/%s/%s",
		c.BaseURL, url.PathEscape(c.Channel), url.PathEscape(c.Name), action)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

func doJSON[T any](c *GatewayContract, req *http.Request) (*T, error) {
	if c.Bearer != "" {
		req.Header.Set("Authorization", "Bearer "+c.Bearer)
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		var errBody map[string]any
		_ = json.NewDecoder(resp.Body).Decode(&errBody)
		return nil, fmt.Errorf("http %d: %v", resp.StatusCode, errBody)
	}
	var out T
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	return &out, nil
}
