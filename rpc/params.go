package rpc

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	nativecommon "yieldchain/native/common"
	"yieldchain/native/farm"
	"yieldchain/native/ferment"
	"yieldchain/native/params"
)

func invalidParams(message string, data interface{}) *statusError {
	return &statusError{status: http.StatusBadRequest, err: &RPCError{Code: codeInvalidParams, Message: message, Data: data}}
}

// decodeParams unmarshals the single parameter object into out.
func decodeParams(req *RPCRequest, out interface{}) *statusError {
	if len(req.Params) != 1 {
		return invalidParams("exactly one parameter object expected", nil)
	}
	if err := json.Unmarshal(req.Params[0], out); err != nil {
		return invalidParams("invalid parameter object", err.Error())
	}
	return nil
}

func parseAddress(field, value string) (common.Address, *statusError) {
	trimmed := strings.TrimSpace(value)
	if !common.IsHexAddress(trimmed) {
		return common.Address{}, invalidParams(fmt.Sprintf("invalid %s address", field), value)
	}
	return common.HexToAddress(trimmed), nil
}

// parseAmount accepts a positive base-10 integer.
func parseAmount(field, value string) (*big.Int, *statusError) {
	amount, failure := parseNonNegative(field, value)
	if failure != nil {
		return nil, failure
	}
	if amount.Sign() == 0 {
		return nil, invalidParams(fmt.Sprintf("%s must be positive", field), nil)
	}
	return amount, nil
}

func parseNonNegative(field, value string) (*big.Int, *statusError) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil, invalidParams(fmt.Sprintf("%s is required", field), nil)
	}
	amount, ok := new(big.Int).SetString(trimmed, 10)
	if !ok {
		return nil, invalidParams(fmt.Sprintf("invalid %s", field), value)
	}
	if amount.Sign() < 0 {
		return nil, invalidParams(fmt.Sprintf("%s must not be negative", field), nil)
	}
	return amount, nil
}

// engineFailure maps engine errors onto HTTP statuses and RPC codes.
func engineFailure(err error) *statusError {
	status, code := http.StatusBadRequest, codeInvalidParams
	switch {
	case errors.Is(err, nativecommon.ErrModulePaused):
		status, code = http.StatusServiceUnavailable, codeModulePaused
	case errors.Is(err, ferment.ErrAssetNotFound),
		errors.Is(err, ferment.ErrNotConfigured),
		errors.Is(err, farm.ErrNotInitialised),
		errors.Is(err, params.ErrSettingsUnset):
		status, code = http.StatusNotFound, codeNotFound
	case errors.Is(err, ferment.ErrNotOwner):
		status = http.StatusForbidden
	case errors.Is(err, farm.ErrInvariantViolation),
		errors.Is(err, ferment.ErrInvariantViolation):
		status, code = http.StatusInternalServerError, codeServerError
	}
	return &statusError{status: status, err: &RPCError{Code: code, Message: err.Error()}}
}

func amountString(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}
