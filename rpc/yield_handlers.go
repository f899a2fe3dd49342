package rpc

import (
	"net/http"

	"github.com/ethereum/go-ethereum/common"

	nativecommon "yieldchain/native/common"
	"yieldchain/native/params"
)

type balanceParams struct {
	Token   string `json:"token"`
	Address string `json:"address"`
}

type advanceParams struct {
	Height uint64 `json:"height"`
	Time   uint64 `json:"time"`
}

type creditParams struct {
	Token   string `json:"token"`
	Address string `json:"address"`
	Amount  string `json:"amount"`
}

type pausesParams struct {
	Farm    bool `json:"farm"`
	Ferment bool `json:"ferment"`
}

type settingsParams struct {
	Treasury             string   `json:"treasury"`
	RewardsPool          string   `json:"rewardsPool"`
	ClaimTaxBps          []uint32 `json:"claimTaxBps"`
	ReputationThresholds []uint64 `json:"reputationThresholds"`
	AssetCost            string   `json:"assetCost"`
	TreasuryFeeBps       uint32   `json:"treasuryFeeBps"`
	WalletLimit          uint64   `json:"walletLimit"`
}

type reputationParams struct {
	Address string `json:"address"`
	Score   uint64 `json:"score"`
}

func (s *Server) handleHead(_ *http.Request, _ *RPCRequest) (interface{}, *statusError) {
	head, err := s.node.Head()
	if err != nil {
		return nil, engineFailure(err)
	}
	return HeadResult{Height: head.Height, Time: head.Time}, nil
}

func (s *Server) handleBalance(_ *http.Request, req *RPCRequest) (interface{}, *statusError) {
	var p balanceParams
	if failure := decodeParams(req, &p); failure != nil {
		return nil, failure
	}
	addr, failure := parseAddress("account", p.Address)
	if failure != nil {
		return nil, failure
	}
	balance, err := s.node.Balance(p.Token, addr)
	if err != nil {
		return nil, engineFailure(err)
	}
	return BalanceResult{Token: p.Token, Address: addr.Hex(), Balance: amountString(balance)}, nil
}

func (s *Server) handleAdvance(_ *http.Request, req *RPCRequest) (interface{}, *statusError) {
	var p advanceParams
	if failure := decodeParams(req, &p); failure != nil {
		return nil, failure
	}
	if err := s.node.Advance(p.Height, p.Time); err != nil {
		return nil, engineFailure(err)
	}
	return HeadResult{Height: p.Height, Time: p.Time}, nil
}

func (s *Server) handleCredit(_ *http.Request, req *RPCRequest) (interface{}, *statusError) {
	var p creditParams
	if failure := decodeParams(req, &p); failure != nil {
		return nil, failure
	}
	addr, failure := parseAddress("account", p.Address)
	if failure != nil {
		return nil, failure
	}
	amount, failure := parseAmount("amount", p.Amount)
	if failure != nil {
		return nil, failure
	}
	if err := s.node.Credit(p.Token, addr, amount); err != nil {
		return nil, engineFailure(err)
	}
	balance, err := s.node.Balance(p.Token, addr)
	if err != nil {
		return nil, engineFailure(err)
	}
	return BalanceResult{Token: p.Token, Address: addr.Hex(), Balance: amountString(balance)}, nil
}

func (s *Server) handleSetPauses(_ *http.Request, req *RPCRequest) (interface{}, *statusError) {
	var p pausesParams
	if failure := decodeParams(req, &p); failure != nil {
		return nil, failure
	}
	pauses := params.Pauses{nativecommon.ModuleFarm: p.Farm, nativecommon.ModuleFerment: p.Ferment}
	if err := s.node.SetPauses(pauses); err != nil {
		return nil, engineFailure(err)
	}
	return pauses, nil
}

func (s *Server) handleSetSettings(_ *http.Request, req *RPCRequest) (interface{}, *statusError) {
	var p settingsParams
	if failure := decodeParams(req, &p); failure != nil {
		return nil, failure
	}
	treasury, failure := parseAddress("treasury", p.Treasury)
	if failure != nil {
		return nil, failure
	}
	pool, failure := parseAddress("rewardsPool", p.RewardsPool)
	if failure != nil {
		return nil, failure
	}
	cost, failure := parseAmount("assetCost", p.AssetCost)
	if failure != nil {
		return nil, failure
	}
	settings := params.Settings{
		Treasury:             treasury,
		RewardsPool:          pool,
		ClaimTaxBps:          p.ClaimTaxBps,
		ReputationThresholds: p.ReputationThresholds,
		AssetCost:            cost,
		TreasuryFeeBps:       p.TreasuryFeeBps,
		WalletLimit:          p.WalletLimit,
	}
	if err := s.node.SetSettings(settings); err != nil {
		return nil, engineFailure(err)
	}
	return true, nil
}

func (s *Server) handleSetReputation(_ *http.Request, req *RPCRequest) (interface{}, *statusError) {
	var p reputationParams
	if failure := decodeParams(req, &p); failure != nil {
		return nil, failure
	}
	addr, failure := parseAddress("account", p.Address)
	if failure != nil {
		return nil, failure
	}
	if addr == (common.Address{}) {
		return nil, invalidParams("account must not be the zero address", nil)
	}
	if err := s.node.SetReputation(addr, p.Score); err != nil {
		return nil, engineFailure(err)
	}
	return reputationParams{Address: addr.Hex(), Score: p.Score}, nil
}
