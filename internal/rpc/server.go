// Package rpc implements the JSON-RPC 2.0 API server exposing Bond,
// Aevum, and bridge operations over HTTP, grounded on the teacher's
// internal/rpc package (same Request/Response/Error envelope, the same
// method-string dispatch switch, the same IP-allowlist/CORS handling).
package rpc

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/bond-aevum/core/config"
	aevummempool "github.com/bond-aevum/core/internal/aevum/mempool"
	aevumstate "github.com/bond-aevum/core/internal/aevum/state"
	"github.com/bond-aevum/core/internal/bond/chain"
	bondmempool "github.com/bond-aevum/core/internal/bond/mempool"
	bondutxo "github.com/bond-aevum/core/internal/bond/utxo"
	"github.com/bond-aevum/core/internal/bridge"
	klog "github.com/bond-aevum/core/internal/log"
	"github.com/bond-aevum/core/internal/ports"
	"github.com/bond-aevum/core/internal/wallet"
	"github.com/rs/zerolog"
)

// maxBodySize is the maximum allowed request body size (1 MB).
const maxBodySize = 1 << 20

// Server is the JSON-RPC 2.0 HTTP server fronting both ledgers and the
// bridge. Any dependency left nil disables the endpoints that need it,
// matching the teacher's optional-subsystem convention (e.g. a node
// running Bond only attaches no Aevum state/pool).
type Server struct {
	addr string

	bondChain *chain.Chain
	bondUTXOs *bondutxo.Store
	bondPool  *bondmempool.Pool

	aevumState *aevumstate.Store
	aevumPool  *aevummempool.Pool

	bridgeDriver *bridge.Driver
	bridgeStore  *bridge.Store

	keystore *wallet.Keystore

	network ports.Network

	server      *http.Server
	logger      zerolog.Logger
	ln          net.Listener
	allowedNets []*net.IPNet
	corsOrigins []string
}

// New creates a new RPC server. rpcCfg optionally controls IP filtering;
// a zero-value RPCConfig allows all IPs. CORS is not configurable through
// RPCConfig, and New sets no CORS origins.
func New(addr string, rpcCfg ...config.RPCConfig) *Server {
	s := &Server{
		addr:   addr,
		logger: klog.RPC,
	}
	if len(rpcCfg) > 0 {
		s.allowedNets = parseAllowedIPs(rpcCfg[0].AllowedIPs)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleRequest)
	s.server = &http.Server{
		Handler:      mux,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 2 * time.Minute,
	}
	return s
}

// SetBond attaches the Bond chain, UTXO store, and mempool.
func (s *Server) SetBond(ch *chain.Chain, utxos *bondutxo.Store, pool *bondmempool.Pool) {
	s.bondChain, s.bondUTXOs, s.bondPool = ch, utxos, pool
}

// SetAevum attaches the Aevum account state store and mempool.
func (s *Server) SetAevum(state *aevumstate.Store, pool *aevummempool.Pool) {
	s.aevumState, s.aevumPool = state, pool
}

// SetBridge attaches the bridge state-machine driver and transfer store.
func (s *Server) SetBridge(driver *bridge.Driver, store *bridge.Store) {
	s.bridgeDriver, s.bridgeStore = driver, store
}

// SetKeystore attaches the wallet keystore for wallet_* endpoints.
func (s *Server) SetKeystore(ks *wallet.Keystore) {
	s.keystore = ks
}

// SetNetwork attaches the network port for net_* endpoints.
func (s *Server) SetNetwork(n ports.Network) {
	s.network = n
}

// parseAllowedIPs converts string IP/CIDR entries into net.IPNet.
func parseAllowedIPs(entries []string) []*net.IPNet {
	var nets []*net.IPNet
	for _, entry := range entries {
		if _, ipNet, err := net.ParseCIDR(entry); err == nil {
			nets = append(nets, ipNet)
			continue
		}
		ip := net.ParseIP(entry)
		if ip == nil {
			continue
		}
		bits := 32
		if ip.To4() == nil {
			bits = 128
		}
		nets = append(nets, &net.IPNet{IP: ip, Mask: net.CIDRMask(bits, bits)})
	}
	return nets
}

// Start begins listening and serving in a background goroutine.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("rpc listen: %w", err)
	}
	s.ln = ln
	go func() {
		if err := s.server.Serve(ln); err != nil && err != http.ErrServerClosed {
			s.logger.Error().Err(err).Msg("rpc server error")
		}
	}()
	return nil
}

// Addr returns the listener address (useful when bound to :0).
func (s *Server) Addr() string {
	if s.ln != nil {
		return s.ln.Addr().String()
	}
	return s.addr
}

// Stop gracefully shuts down the server.
func (s *Server) Stop() error {
	return s.server.Close()
}

func (s *Server) handleRequest(w http.ResponseWriter, r *http.Request) {
	if len(s.allowedNets) > 0 {
		host, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		ip := net.ParseIP(host)
		if ip == nil || !s.isIPAllowed(ip) {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
	}

	s.setCORSHeaders(w, r)
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if r.Method != http.MethodPost {
		writeError(w, nil, CodeInvalidRequest, "only POST method is allowed")
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize+1))
	if err != nil {
		writeError(w, nil, CodeParseError, "failed to read request body")
		return
	}
	if len(body) > maxBodySize {
		writeError(w, nil, CodeInvalidRequest, "request body too large")
		return
	}

	var req Request
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, nil, CodeParseError, "invalid JSON")
		return
	}
	if req.JSONRPC != "2.0" {
		writeError(w, req.ID, CodeInvalidRequest, `jsonrpc must be "2.0"`)
		return
	}

	result, rpcErr := s.dispatch(&req)
	if rpcErr != nil {
		writeJSON(w, Response{JSONRPC: "2.0", Error: rpcErr, ID: req.ID})
		return
	}
	writeJSON(w, Response{JSONRPC: "2.0", Result: result, ID: req.ID})
}

func (s *Server) dispatch(req *Request) (interface{}, *Error) {
	switch req.Method {
	case "bond_getInfo":
		return s.handleBondGetInfo(req)
	case "bond_getBlockByHash":
		return s.handleBondGetBlockByHash(req)
	case "bond_getBlockByHeight":
		return s.handleBondGetBlockByHeight(req)
	case "bond_getTransaction":
		return s.handleBondGetTransaction(req)
	case "bond_getUTXO":
		return s.handleBondGetUTXO(req)
	case "bond_getBalance":
		return s.handleBondGetBalance(req)
	case "bond_submitTx":
		return s.handleBondSubmitTx(req)
	case "bond_validateTx":
		return s.handleBondValidateTx(req)
	case "bond_mempoolInfo":
		return s.handleBondMempoolInfo(req)

	case "aevum_getAccount":
		return s.handleAevumGetAccount(req)
	case "aevum_submitTx":
		return s.handleAevumSubmitTx(req)
	case "aevum_validateTx":
		return s.handleAevumValidateTx(req)
	case "aevum_mempoolInfo":
		return s.handleAevumMempoolInfo(req)

	case "bridge_getTransfer":
		return s.handleBridgeGetTransfer(req)
	case "bridge_listTransfers":
		return s.handleBridgeListTransfers(req)
	case "bridge_submitTransfer":
		return s.handleBridgeSubmitTransfer(req)

	case "wallet_create":
		return s.handleWalletCreate(req)
	case "wallet_newAddress":
		return s.handleWalletNewAddress(req)
	case "wallet_listAddresses":
		return s.handleWalletListAddresses(req)

	case "net_getPeerInfo":
		return s.handleNetGetPeerInfo(req)
	case "net_getBanList":
		return s.handleNetGetBanList(req)

	default:
		return nil, &Error{Code: CodeMethodNotFound, Message: fmt.Sprintf("method %q not found", req.Method)}
	}
}

func writeJSON(w http.ResponseWriter, resp Response) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func writeError(w http.ResponseWriter, id interface{}, code int, message string) {
	writeJSON(w, Response{JSONRPC: "2.0", Error: &Error{Code: code, Message: message}, ID: id})
}

func (s *Server) isIPAllowed(ip net.IP) bool {
	for _, n := range s.allowedNets {
		if n.Contains(ip) {
			return true
		}
	}
	return false
}

func (s *Server) setCORSHeaders(w http.ResponseWriter, r *http.Request) {
	if len(s.corsOrigins) == 0 {
		return
	}
	origin := r.Header.Get("Origin")
	if origin == "" {
		return
	}
	for _, o := range s.corsOrigins {
		if o == "*" {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			break
		}
		if o == origin {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			break
		}
	}
	w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
}

// parseParams unmarshals the request params into target.
func parseParams(req *Request, target interface{}) *Error {
	if req.Params == nil {
		return &Error{Code: CodeInvalidParams, Message: "params required"}
	}
	data, err := json.Marshal(req.Params)
	if err != nil {
		return &Error{Code: CodeInvalidParams, Message: "invalid params"}
	}
	if err := json.Unmarshal(data, target); err != nil {
		return &Error{Code: CodeInvalidParams, Message: fmt.Sprintf("invalid params: %v", err)}
	}
	return nil
}

func hexEncode(b []byte) string {
	return hex.EncodeToString(b)
}

func hexDecode(s string) ([]byte, error) {
	return hex.DecodeString(s)
}
