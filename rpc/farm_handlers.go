package rpc

import (
	"net/http"

	"yieldchain/native/farm"
)

type farmHeightParams struct {
	Height uint64 `json:"height,omitempty"`
}

type farmStakeParams struct {
	Participant string `json:"participant"`
	Height      uint64 `json:"height,omitempty"`
}

type farmAmountParams struct {
	Participant string `json:"participant"`
	Amount      string `json:"amount"`
}

type farmParticipantParams struct {
	Participant string `json:"participant"`
}

func (s *Server) handleFarmPool(_ *http.Request, req *RPCRequest) (interface{}, *statusError) {
	var p farmHeightParams
	if len(req.Params) > 0 {
		if failure := decodeParams(req, &p); failure != nil {
			return nil, failure
		}
	}
	view, err := s.node.FarmPool(p.Height)
	if err != nil {
		return nil, engineFailure(err)
	}
	return poolResult(view), nil
}

func (s *Server) handleFarmStake(_ *http.Request, req *RPCRequest) (interface{}, *statusError) {
	var p farmStakeParams
	if failure := decodeParams(req, &p); failure != nil {
		return nil, failure
	}
	participant, failure := parseAddress("participant", p.Participant)
	if failure != nil {
		return nil, failure
	}
	view, err := s.node.FarmStake(participant, p.Height)
	if err != nil {
		return nil, engineFailure(err)
	}
	return StakeResult{
		Height:      view.Height,
		Participant: view.Participant.Hex(),
		Amount:      amountString(view.Amount),
		RewardDebt:  amountString(view.RewardDebt),
		Pending:     amountString(view.Pending),
	}, nil
}

func (s *Server) handleFarmReconfigure(_ *http.Request, req *RPCRequest) (interface{}, *statusError) {
	var p ScheduleResult
	if failure := decodeParams(req, &p); failure != nil {
		return nil, failure
	}
	rate, failure := parseAmount("perBlockRate", p.PerBlockRate)
	if failure != nil {
		return nil, failure
	}
	schedule := &farm.EmissionSchedule{
		PerBlockRate:         rate,
		StartHeight:          p.StartHeight,
		FirstPhaseEndHeight:  p.FirstPhaseEndHeight,
		SecondPhaseEndHeight: p.SecondPhaseEndHeight,
		FinalEndHeight:       p.FinalEndHeight,
		FirstMultiplier:      p.FirstMultiplier,
		SecondMultiplier:     p.SecondMultiplier,
	}
	if err := s.node.FarmReconfigure(schedule); err != nil {
		return nil, engineFailure(err)
	}
	return p, nil
}

func (s *Server) handleFarmDeposit(_ *http.Request, req *RPCRequest) (interface{}, *statusError) {
	var p farmAmountParams
	if failure := decodeParams(req, &p); failure != nil {
		return nil, failure
	}
	participant, failure := parseAddress("participant", p.Participant)
	if failure != nil {
		return nil, failure
	}
	amount, failure := parseAmount("amount", p.Amount)
	if failure != nil {
		return nil, failure
	}
	paid, err := s.node.FarmDeposit(participant, amount)
	if err != nil {
		return nil, engineFailure(err)
	}
	return AmountResult{Amount: amountString(paid)}, nil
}

func (s *Server) handleFarmWithdraw(_ *http.Request, req *RPCRequest) (interface{}, *statusError) {
	var p farmAmountParams
	if failure := decodeParams(req, &p); failure != nil {
		return nil, failure
	}
	participant, failure := parseAddress("participant", p.Participant)
	if failure != nil {
		return nil, failure
	}
	amount, failure := parseAmount("amount", p.Amount)
	if failure != nil {
		return nil, failure
	}
	paid, err := s.node.FarmWithdraw(participant, amount)
	if err != nil {
		return nil, engineFailure(err)
	}
	return AmountResult{Amount: amountString(paid)}, nil
}

func (s *Server) handleFarmHarvest(_ *http.Request, req *RPCRequest) (interface{}, *statusError) {
	var p farmParticipantParams
	if failure := decodeParams(req, &p); failure != nil {
		return nil, failure
	}
	participant, failure := parseAddress("participant", p.Participant)
	if failure != nil {
		return nil, failure
	}
	paid, err := s.node.FarmHarvest(participant)
	if err != nil {
		return nil, engineFailure(err)
	}
	return AmountResult{Amount: amountString(paid)}, nil
}

func (s *Server) handleFarmEmergencyWithdraw(_ *http.Request, req *RPCRequest) (interface{}, *statusError) {
	var p farmParticipantParams
	if failure := decodeParams(req, &p); failure != nil {
		return nil, failure
	}
	participant, failure := parseAddress("participant", p.Participant)
	if failure != nil {
		return nil, failure
	}
	returned, err := s.node.FarmEmergencyWithdraw(participant)
	if err != nil {
		return nil, engineFailure(err)
	}
	return AmountResult{Amount: amountString(returned)}, nil
}
