package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"yieldchain/rpc"
)

type rpcClient struct {
	endpoint string
	secret   string
	issuer   string
	http     *http.Client
}

func newRPCClient(endpoint, secret, issuer string) *rpcClient {
	return &rpcClient{
		endpoint: strings.TrimRight(endpoint, "/") + "/",
		secret:   secret,
		issuer:   issuer,
		http:     &http.Client{Timeout: 15 * time.Second},
	}
}

// call posts one JSON-RPC request. Mutating methods carry a short-lived
// bearer token signed with the shared secret.
func (c *rpcClient) call(method string, param interface{}, authenticated bool) (json.RawMessage, error) {
	payload := map[string]interface{}{"jsonrpc": "2.0", "id": 1, "method": method}
	if param != nil {
		payload["params"] = []interface{}{param}
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequest(http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if authenticated {
		if strings.TrimSpace(c.secret) == "" {
			return nil, fmt.Errorf("%s is required for %s", secretEnv, method)
		}
		token, err := rpc.SignToken(c.secret, c.issuer, "", time.Minute)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to node at %s: %w", c.endpoint, err)
	}
	defer resp.Body.Close()
	var rpcResp struct {
		Result json.RawMessage `json:"result"`
		Error  *rpc.RPCError   `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&rpcResp); err != nil {
		return nil, fmt.Errorf("failed to decode response from node")
	}
	if rpcResp.Error != nil {
		if rpcResp.Error.Data != nil {
			return nil, fmt.Errorf("error from node: %s (%v)", rpcResp.Error.Message, rpcResp.Error.Data)
		}
		return nil, fmt.Errorf("error from node: %s", rpcResp.Error.Message)
	}
	return rpcResp.Result, nil
}
