package rpc

import (
	"net/http"

	"yieldchain/native/ferment"
)

type assetQueryParams struct {
	ID uint64 `json:"id"`
	At uint64 `json:"at,omitempty"`
}

type mintParams struct {
	Owner string `json:"owner"`
	Name  string `json:"name"`
}

type assetCallParams struct {
	Caller string `json:"caller"`
	ID     uint64 `json:"id"`
}

type compoundParams struct {
	Caller string `json:"caller"`
	ID     uint64 `json:"id"`
	Count  uint64 `json:"count"`
}

type addXPParams struct {
	ID     uint64 `json:"id"`
	Amount string `json:"amount"`
}

type approveParams struct {
	Caller   string `json:"caller"`
	ID       uint64 `json:"id"`
	Operator string `json:"operator"`
}

type transferParams struct {
	Caller string `json:"caller"`
	To     string `json:"to"`
	ID     uint64 `json:"id"`
}

type tradingParams struct {
	Enabled bool `json:"enabled"`
}

type tierParams struct {
	Threshold  string `json:"threshold"`
	DailyYield string `json:"dailyYield"`
}

type parametersParams struct {
	FermentationPeriod  uint64 `json:"fermentationPeriod"`
	ExperiencePerSecond string `json:"experiencePerSecond"`
	GlobalStartTime     uint64 `json:"globalStartTime"`
}

func (s *Server) handleFermentAsset(_ *http.Request, req *RPCRequest) (interface{}, *statusError) {
	var p assetQueryParams
	if failure := decodeParams(req, &p); failure != nil {
		return nil, failure
	}
	view, err := s.node.FermentAsset(p.ID, p.At)
	if err != nil {
		return nil, engineFailure(err)
	}
	out := assetResult(view.Record)
	out.At = view.At
	out.PendingReward = amountString(view.PendingReward)
	out.PendingXP = amountString(view.PendingXP)
	out.DailyYield = amountString(view.Tier.DailyYield)
	return out, nil
}

func (s *Server) handleFermentTiers(_ *http.Request, _ *RPCRequest) (interface{}, *statusError) {
	tiers, err := s.node.FermentTiers()
	if err != nil {
		return nil, engineFailure(err)
	}
	out := make([]TierResult, len(tiers))
	for i, tier := range tiers {
		out[i] = TierResult{Index: i, Threshold: amountString(tier.Threshold), DailyYield: amountString(tier.DailyYield)}
	}
	return out, nil
}

func (s *Server) handleFermentParameters(_ *http.Request, _ *RPCRequest) (interface{}, *statusError) {
	p, err := s.node.FermentParameters()
	if err != nil {
		return nil, engineFailure(err)
	}
	enabled, err := s.node.FermentTradingEnabled()
	if err != nil {
		return nil, engineFailure(err)
	}
	return ParametersResult{
		FermentationPeriod:  p.FermentationPeriod,
		ExperiencePerSecond: amountString(p.ExperiencePerSecond),
		GlobalStartTime:     p.GlobalStartTime,
		TradingEnabled:      enabled,
	}, nil
}

func (s *Server) handleFermentMint(_ *http.Request, req *RPCRequest) (interface{}, *statusError) {
	var p mintParams
	if failure := decodeParams(req, &p); failure != nil {
		return nil, failure
	}
	owner, failure := parseAddress("owner", p.Owner)
	if failure != nil {
		return nil, failure
	}
	record, err := s.node.FermentMint(owner, p.Name)
	if err != nil {
		return nil, engineFailure(err)
	}
	return assetResult(record), nil
}

func (s *Server) handleFermentClaim(_ *http.Request, req *RPCRequest) (interface{}, *statusError) {
	var p assetCallParams
	if failure := decodeParams(req, &p); failure != nil {
		return nil, failure
	}
	caller, failure := parseAddress("caller", p.Caller)
	if failure != nil {
		return nil, failure
	}
	res, err := s.node.FermentClaim(caller, p.ID)
	if err != nil {
		return nil, engineFailure(err)
	}
	return claimResult(res), nil
}

func (s *Server) handleFermentCompound(_ *http.Request, req *RPCRequest) (interface{}, *statusError) {
	var p compoundParams
	if failure := decodeParams(req, &p); failure != nil {
		return nil, failure
	}
	caller, failure := parseAddress("caller", p.Caller)
	if failure != nil {
		return nil, failure
	}
	if p.Count == 0 {
		return nil, invalidParams("count must be positive", nil)
	}
	res, err := s.node.FermentCompound(caller, p.ID, p.Count)
	if err != nil {
		return nil, engineFailure(err)
	}
	return compoundResult(res), nil
}

func (s *Server) handleFermentCompoundAll(_ *http.Request, req *RPCRequest) (interface{}, *statusError) {
	var p assetCallParams
	if failure := decodeParams(req, &p); failure != nil {
		return nil, failure
	}
	caller, failure := parseAddress("caller", p.Caller)
	if failure != nil {
		return nil, failure
	}
	res, err := s.node.FermentCompoundAll(caller, p.ID)
	if err != nil {
		return nil, engineFailure(err)
	}
	return compoundResult(res), nil
}

func (s *Server) handleFermentAddXP(_ *http.Request, req *RPCRequest) (interface{}, *statusError) {
	var p addXPParams
	if failure := decodeParams(req, &p); failure != nil {
		return nil, failure
	}
	amount, failure := parseAmount("amount", p.Amount)
	if failure != nil {
		return nil, failure
	}
	record, err := s.node.FermentAddXP(p.ID, amount)
	if err != nil {
		return nil, engineFailure(err)
	}
	return assetResult(record), nil
}

func (s *Server) handleFermentApprove(_ *http.Request, req *RPCRequest) (interface{}, *statusError) {
	var p approveParams
	if failure := decodeParams(req, &p); failure != nil {
		return nil, failure
	}
	caller, failure := parseAddress("caller", p.Caller)
	if failure != nil {
		return nil, failure
	}
	operator, failure := parseAddress("operator", p.Operator)
	if failure != nil {
		return nil, failure
	}
	if err := s.node.FermentApprove(caller, p.ID, operator); err != nil {
		return nil, engineFailure(err)
	}
	return true, nil
}

func (s *Server) handleFermentRevokeApproval(_ *http.Request, req *RPCRequest) (interface{}, *statusError) {
	var p assetCallParams
	if failure := decodeParams(req, &p); failure != nil {
		return nil, failure
	}
	caller, failure := parseAddress("caller", p.Caller)
	if failure != nil {
		return nil, failure
	}
	if err := s.node.FermentRevokeApproval(caller, p.ID); err != nil {
		return nil, engineFailure(err)
	}
	return true, nil
}

func (s *Server) handleFermentTransfer(_ *http.Request, req *RPCRequest) (interface{}, *statusError) {
	var p transferParams
	if failure := decodeParams(req, &p); failure != nil {
		return nil, failure
	}
	caller, failure := parseAddress("caller", p.Caller)
	if failure != nil {
		return nil, failure
	}
	to, failure := parseAddress("to", p.To)
	if failure != nil {
		return nil, failure
	}
	if err := s.node.FermentTransfer(caller, to, p.ID); err != nil {
		return nil, engineFailure(err)
	}
	return true, nil
}

func (s *Server) handleFermentSetTradingEnabled(_ *http.Request, req *RPCRequest) (interface{}, *statusError) {
	var p tradingParams
	if failure := decodeParams(req, &p); failure != nil {
		return nil, failure
	}
	if err := s.node.FermentSetTradingEnabled(p.Enabled); err != nil {
		return nil, engineFailure(err)
	}
	return p.Enabled, nil
}

func (s *Server) handleFermentAddTier(_ *http.Request, req *RPCRequest) (interface{}, *statusError) {
	var p tierParams
	if failure := decodeParams(req, &p); failure != nil {
		return nil, failure
	}
	threshold, failure := parseNonNegative("threshold", p.Threshold)
	if failure != nil {
		return nil, failure
	}
	yield, failure := parseNonNegative("dailyYield", p.DailyYield)
	if failure != nil {
		return nil, failure
	}
	if err := s.node.FermentAddTier(threshold, yield); err != nil {
		return nil, engineFailure(err)
	}
	return p, nil
}

func (s *Server) handleFermentSetParameters(_ *http.Request, req *RPCRequest) (interface{}, *statusError) {
	var p parametersParams
	if failure := decodeParams(req, &p); failure != nil {
		return nil, failure
	}
	xp, failure := parseNonNegative("experiencePerSecond", p.ExperiencePerSecond)
	if failure != nil {
		return nil, failure
	}
	err := s.node.FermentSetParameters(&ferment.Parameters{
		FermentationPeriod:  p.FermentationPeriod,
		ExperiencePerSecond: xp,
		GlobalStartTime:     p.GlobalStartTime,
	})
	if err != nil {
		return nil, engineFailure(err)
	}
	return p, nil
}
