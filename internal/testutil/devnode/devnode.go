// Package devnode is an in-memory stand-in for a dev node's JSON-RPC state
// surface, used by tests.
package devnode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/holiman/uint256"
)

// Call is one recorded request
type Call struct {
	Method string
	Params []any
}

// Node holds code and storage per account and records every call
type Node struct {
	mu       sync.Mutex
	code     map[common.Address][]byte
	storage  map[common.Address]map[common.Hash]common.Hash
	accounts []common.Address
	chainID  uint64
	calls    []Call

	// Fail makes every call return the error when set
	Fail error
}

// New creates a node managing the given accounts
func New(accounts ...common.Address) *Node {
	return &Node{
		code:     make(map[common.Address][]byte),
		storage:  make(map[common.Address]map[common.Hash]common.Hash),
		accounts: accounts,
		chainID:  31337,
	}
}

// CallContext implements the transport used by the state client
func (n *Node) CallContext(ctx context.Context, result interface{}, method string, args ...interface{}) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.calls = append(n.calls, Call{Method: method, Params: args})
	if n.Fail != nil {
		return n.Fail
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	var out any
	switch method {
	case "eth_getCode":
		out = hexutil.Bytes(n.code[addressArg(args, 0)])
	case "hardhat_setCode", "anvil_setCode":
		code, err := bytesArg(args, 1)
		if err != nil {
			return err
		}
		n.code[addressArg(args, 0)] = code
	case "eth_accounts":
		out = n.accounts
	case "eth_chainId":
		out = hexutil.Uint64(n.chainID)
	case "hardhat_setStorageAt", "anvil_setStorageAt":
		slot, err := slotArg(args, 1)
		if err != nil {
			return err
		}
		value, err := wordArg(args, 2)
		if err != nil {
			return err
		}
		addr := addressArg(args, 0)
		if n.storage[addr] == nil {
			n.storage[addr] = make(map[common.Hash]common.Hash)
		}
		n.storage[addr][slot] = value
	case "eth_getStorageAt":
		slot, err := slotArg(args, 1)
		if err != nil {
			return err
		}
		word := n.storage[addressArg(args, 0)][slot]
		out = hexutil.Bytes(word.Bytes())
	default:
		return fmt.Errorf("the method %s does not exist/is not available", method)
	}

	if result == nil {
		return nil
	}
	raw, err := json.Marshal(out)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, result)
}

// Code returns the code installed at addr
func (n *Node) Code(addr common.Address) []byte {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.code[addr]
}

// SetCode installs code without recording a call
func (n *Node) SetCode(addr common.Address, code []byte) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.code[addr] = code
}

// Storage returns a storage word
func (n *Node) Storage(addr common.Address, slot common.Hash) common.Hash {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.storage[addr][slot]
}

// StorageSnapshot copies all storage of addr
func (n *Node) StorageSnapshot(addr common.Address) map[common.Hash]common.Hash {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make(map[common.Hash]common.Hash, len(n.storage[addr]))
	for k, v := range n.storage[addr] {
		out[k] = v
	}
	return out
}

// Calls returns the recorded calls
func (n *Node) Calls() []Call {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]Call(nil), n.calls...)
}

// CountCalls counts recorded calls of one method
func (n *Node) CountCalls(method string) int {
	count := 0
	for _, c := range n.Calls() {
		if c.Method == method {
			count++
		}
	}
	return count
}

func addressArg(args []any, i int) common.Address {
	if i >= len(args) {
		return common.Address{}
	}
	switch v := args[i].(type) {
	case common.Address:
		return v
	case string:
		return common.HexToAddress(v)
	}
	return common.Address{}
}

func bytesArg(args []any, i int) ([]byte, error) {
	if i >= len(args) {
		return nil, fmt.Errorf("missing argument %d", i)
	}
	switch v := args[i].(type) {
	case hexutil.Bytes:
		return v, nil
	case []byte:
		return v, nil
	case string:
		return hexutil.Decode(v)
	}
	return nil, fmt.Errorf("unexpected bytes argument %T", args[i])
}

func wordArg(args []any, i int) (common.Hash, error) {
	if i >= len(args) {
		return common.Hash{}, fmt.Errorf("missing argument %d", i)
	}
	switch v := args[i].(type) {
	case common.Hash:
		return v, nil
	case string:
		b, err := hexutil.Decode(v)
		if err != nil || len(b) != common.HashLength {
			return common.Hash{}, fmt.Errorf("value must be a 32-byte word, got %q", v)
		}
		return common.BytesToHash(b), nil
	}
	return common.Hash{}, fmt.Errorf("value must be a 32-byte word, got %T", args[i])
}

// slotArg accepts slots the way hardhat does: QUANTITY strings only
func slotArg(args []any, i int) (common.Hash, error) {
	if i >= len(args) {
		return common.Hash{}, fmt.Errorf("missing argument %d", i)
	}
	s, ok := args[i].(string)
	if !ok {
		return common.Hash{}, fmt.Errorf("slot must be a quantity string, got %T", args[i])
	}
	v, err := uint256.FromHex(s)
	if err != nil {
		return common.Hash{}, fmt.Errorf("invalid slot %q: %w", s, err)
	}
	return common.Hash(v.Bytes32()), nil
}

type request struct {
	ID     json.RawMessage `json:"id"`
	Method string          `json:"method"`
	Params []any           `json:"params"`
}

type response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  any             `json:"result"`
	Error   *responseError  `json:"error,omitempty"`
}

type responseError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// ServeHTTP exposes the node as a JSON-RPC endpoint for httptest servers
func (n *Node) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	resp := response{JSONRPC: "2.0", ID: req.ID}
	var result json.RawMessage
	if err := n.CallContext(r.Context(), &result, req.Method, req.Params...); err != nil {
		resp.Error = &responseError{Code: -32000, Message: err.Error()}
	} else if result != nil {
		resp.Result = result
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}
