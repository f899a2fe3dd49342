package rpc

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"yieldchain/core"
	"yieldchain/observability"
)

const (
	jsonRPCVersion  = "2.0"
	maxRequestBytes = 1 << 20 // 1 MiB
	requestIDHeader = "X-Request-ID"
)

const (
	codeParseError     = -32700
	codeInvalidRequest = -32600
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeUnauthorized   = -32001
	codeServerError    = -32000
	codeNotFound       = -32004
	codeRateLimited    = -32020
	codeModulePaused   = -32030
)

type RPCRequest struct {
	JSONRPC string            `json:"jsonrpc"`
	Method  string            `json:"method"`
	Params  []json.RawMessage `json:"params"`
	ID      interface{}       `json:"id"`
}

type RPCResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *RPCError   `json:"error,omitempty"`
}

type RPCError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func (e *RPCError) Error() string { return e.Message }

// ServerConfig carries the limiter and authentication settings.
type ServerConfig struct {
	RateLimit RateLimit
	Auth      AuthConfig
}

// handlerFunc executes one method. Failures carry the HTTP status to write.
type handlerFunc func(r *http.Request, req *RPCRequest) (interface{}, *statusError)

type method struct {
	module  string
	mutates bool
	fn      handlerFunc
}

type statusError struct {
	status int
	err    *RPCError
}

// Server exposes the node over JSON-RPC 2.0.
type Server struct {
	node    *core.Node
	logger  *slog.Logger
	limiter *RateLimiter
	auth    *Authenticator
	methods map[string]method
}

// NewServer wires the method table for node.
func NewServer(node *core.Node, cfg ServerConfig, logger *slog.Logger) (*Server, error) {
	if node == nil {
		return nil, fmt.Errorf("rpc: node required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		node:    node,
		logger:  logger.With("component", "rpc"),
		limiter: NewRateLimiter(cfg.RateLimit),
		auth:    NewAuthenticator(cfg.Auth),
	}
	s.methods = map[string]method{
		"yield_head":          {module: "yield", fn: s.handleHead},
		"yield_balance":       {module: "yield", fn: s.handleBalance},
		"yield_advance":       {module: "yield", mutates: true, fn: s.handleAdvance},
		"yield_credit":        {module: "yield", mutates: true, fn: s.handleCredit},
		"yield_setPauses":     {module: "yield", mutates: true, fn: s.handleSetPauses},
		"yield_setSettings":   {module: "yield", mutates: true, fn: s.handleSetSettings},
		"reputation_setScore": {module: "reputation", mutates: true, fn: s.handleSetReputation},

		"farm_getPool":           {module: "farm", fn: s.handleFarmPool},
		"farm_getStake":          {module: "farm", fn: s.handleFarmStake},
		"farm_reconfigure":       {module: "farm", mutates: true, fn: s.handleFarmReconfigure},
		"farm_deposit":           {module: "farm", mutates: true, fn: s.handleFarmDeposit},
		"farm_withdraw":          {module: "farm", mutates: true, fn: s.handleFarmWithdraw},
		"farm_harvest":           {module: "farm", mutates: true, fn: s.handleFarmHarvest},
		"farm_emergencyWithdraw": {module: "farm", mutates: true, fn: s.handleFarmEmergencyWithdraw},

		"ferment_getAsset":          {module: "ferment", fn: s.handleFermentAsset},
		"ferment_getTiers":          {module: "ferment", fn: s.handleFermentTiers},
		"ferment_getParameters":     {module: "ferment", fn: s.handleFermentParameters},
		"ferment_mint":              {module: "ferment", mutates: true, fn: s.handleFermentMint},
		"ferment_claim":             {module: "ferment", mutates: true, fn: s.handleFermentClaim},
		"ferment_compound":          {module: "ferment", mutates: true, fn: s.handleFermentCompound},
		"ferment_compoundAll":       {module: "ferment", mutates: true, fn: s.handleFermentCompoundAll},
		"ferment_addXp":             {module: "ferment", mutates: true, fn: s.handleFermentAddXP},
		"ferment_approve":           {module: "ferment", mutates: true, fn: s.handleFermentApprove},
		"ferment_revokeApproval":    {module: "ferment", mutates: true, fn: s.handleFermentRevokeApproval},
		"ferment_transfer":          {module: "ferment", mutates: true, fn: s.handleFermentTransfer},
		"ferment_setTradingEnabled": {module: "ferment", mutates: true, fn: s.handleFermentSetTradingEnabled},
		"ferment_addTier":           {module: "ferment", mutates: true, fn: s.handleFermentAddTier},
		"ferment_setParameters":     {module: "ferment", mutates: true, fn: s.handleFermentSetParameters},
	}
	return s, nil
}

// Handler returns the HTTP surface: JSON-RPC on POST /, plus health and
// Prometheus endpoints.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())
	r.Post("/", s.handle)
	return otelhttp.NewHandler(r, "yieldd-rpc")
}

// Start serves Handler on addr until the listener fails.
func (s *Server) Start(addr string) error {
	s.logger.Info("starting JSON-RPC server", "addr", addr)
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return srv.ListenAndServe()
}

func writeError(w http.ResponseWriter, status int, id interface{}, code int, message string, data interface{}) {
	if status <= 0 {
		status = http.StatusBadRequest
	}
	if status != http.StatusOK {
		w.WriteHeader(status)
	}
	errObj := &RPCError{Code: code, Message: message}
	if data != nil {
		errObj.Data = data
	}
	resp := RPCResponse{JSONRPC: jsonRPCVersion, ID: id, Error: errObj}
	_ = json.NewEncoder(w).Encode(resp)
}

func writeResult(w http.ResponseWriter, id interface{}, result interface{}) {
	resp := RPCResponse{JSONRPC: jsonRPCVersion, ID: id, Result: result}
	_ = json.NewEncoder(w).Encode(resp)
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	reader := http.MaxBytesReader(w, r.Body, maxRequestBytes)
	defer func() {
		_ = reader.Close()
	}()

	w.Header().Set("Content-Type", "application/json")
	requestID := strings.TrimSpace(r.Header.Get(requestIDHeader))
	if requestID == "" {
		requestID = uuid.NewString()
	}
	w.Header().Set(requestIDHeader, requestID)

	body, err := io.ReadAll(reader)
	if err != nil {
		status := http.StatusBadRequest
		message := "failed to read request body"
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			status = http.StatusRequestEntityTooLarge
			message = fmt.Sprintf("request body exceeds %d bytes", maxRequestBytes)
		}
		writeError(w, status, nil, codeInvalidRequest, message, err.Error())
		return
	}
	if len(bytes.TrimSpace(body)) == 0 {
		writeError(w, http.StatusBadRequest, nil, codeInvalidRequest, "request body required", nil)
		return
	}

	req := &RPCRequest{}
	if err := json.Unmarshal(body, req); err != nil {
		writeError(w, http.StatusBadRequest, nil, codeParseError, "invalid JSON payload", err.Error())
		return
	}
	if req.JSONRPC != "" && req.JSONRPC != jsonRPCVersion {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidRequest, "unsupported jsonrpc version", req.JSONRPC)
		return
	}
	if req.Method == "" {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidRequest, "method required", nil)
		return
	}
	m, ok := s.methods[req.Method]
	if !ok {
		writeError(w, http.StatusNotFound, req.ID, codeMethodNotFound, fmt.Sprintf("unknown method %s", req.Method), nil)
		return
	}

	start := time.Now()
	ctx, span := otel.Tracer("yieldchain/rpc").Start(r.Context(), req.Method)
	defer span.End()
	span.SetAttributes(
		attribute.String("rpc.module", m.module),
		attribute.Bool("rpc.mutates", m.mutates),
		attribute.String("rpc.request_id", requestID),
	)

	status := http.StatusOK
	defer func() {
		observability.ModuleMetrics().Observe(m.module, req.Method, status, time.Since(start))
	}()

	source := clientSource(r)
	if !s.limiter.Allow(source) {
		status = http.StatusTooManyRequests
		observability.ModuleMetrics().RecordThrottle(m.module, "rate_limit")
		writeError(w, status, req.ID, codeRateLimited, "rate limit exceeded", source)
		return
	}
	if m.mutates {
		if authErr := s.auth.Authorize(r); authErr != nil {
			status = http.StatusUnauthorized
			s.logger.Warn("rejected unauthenticated call", "method", req.Method, "request_id", requestID, "reason", authErr.Message)
			writeError(w, status, req.ID, authErr.Code, authErr.Message, authErr.Data)
			return
		}
	}

	result, failure := m.fn(r.WithContext(ctx), req)
	if failure != nil {
		status = failure.status
		span.SetStatus(codes.Error, failure.err.Message)
		if status >= http.StatusInternalServerError {
			s.logger.Error("rpc method failed", "method", req.Method, "request_id", requestID, "error", failure.err.Data)
		}
		writeError(w, status, req.ID, failure.err.Code, failure.err.Message, failure.err.Data)
		return
	}
	writeResult(w, req.ID, result)
}

func clientSource(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		parts := strings.Split(forwarded, ",")
		if candidate := strings.TrimSpace(parts[0]); candidate != "" {
			return candidate
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
