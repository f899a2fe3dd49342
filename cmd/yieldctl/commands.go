package main

import (
	"flag"
	"fmt"
	"sort"
	"strings"
)

type object = map[string]interface{}

func noParams(*flag.FlagSet) func() (interface{}, error) {
	return func() (interface{}, error) { return nil, nil }
}

func requireFlags(values map[string]*string) error {
	var missing []string
	for name, v := range values {
		if strings.TrimSpace(*v) == "" {
			missing = append(missing, "--"+name)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return fmt.Errorf("missing %s", strings.Join(missing, ", "))
	}
	return nil
}

func accountAmount(addrFlag string) func(fs *flag.FlagSet) func() (interface{}, error) {
	return func(fs *flag.FlagSet) func() (interface{}, error) {
		addr := fs.String(addrFlag, "", "account address (0x...)")
		amount := fs.String("amount", "", "amount in base units")
		return func() (interface{}, error) {
			if err := requireFlags(map[string]*string{addrFlag: addr, "amount": amount}); err != nil {
				return nil, err
			}
			return object{"participant": *addr, "amount": *amount}, nil
		}
	}
}

func participantOnly(fs *flag.FlagSet) func() (interface{}, error) {
	addr := fs.String("participant", "", "participant address (0x...)")
	return func() (interface{}, error) {
		if err := requireFlags(map[string]*string{"participant": addr}); err != nil {
			return nil, err
		}
		return object{"participant": *addr}, nil
	}
}

func callerAsset(fs *flag.FlagSet) func() (interface{}, error) {
	caller := fs.String("caller", "", "caller address (0x...)")
	id := fs.Uint64("id", 0, "asset id")
	return func() (interface{}, error) {
		if err := requireFlags(map[string]*string{"caller": caller}); err != nil {
			return nil, err
		}
		return object{"caller": *caller, "id": *id}, nil
	}
}

var commands = map[string]command{
	"head": {method: "yield_head", usage: "", build: noParams},
	"balance": {method: "yield_balance", usage: "--token T --address A", build: func(fs *flag.FlagSet) func() (interface{}, error) {
		token := fs.String("token", "", "token symbol")
		addr := fs.String("address", "", "account address")
		return func() (interface{}, error) {
			if err := requireFlags(map[string]*string{"token": token, "address": addr}); err != nil {
				return nil, err
			}
			return object{"token": *token, "address": *addr}, nil
		}
	}},
	"advance": {method: "yield_advance", mutates: true, usage: "--height H --time T", build: func(fs *flag.FlagSet) func() (interface{}, error) {
		height := fs.Uint64("height", 0, "new head height")
		ts := fs.Uint64("time", 0, "new head unix time")
		return func() (interface{}, error) {
			return object{"height": *height, "time": *ts}, nil
		}
	}},
	"credit": {method: "yield_credit", mutates: true, usage: "--token T --address A --amount N", build: func(fs *flag.FlagSet) func() (interface{}, error) {
		token := fs.String("token", "", "token symbol")
		addr := fs.String("address", "", "account address")
		amount := fs.String("amount", "", "amount in base units")
		return func() (interface{}, error) {
			if err := requireFlags(map[string]*string{"token": token, "address": addr, "amount": amount}); err != nil {
				return nil, err
			}
			return object{"token": *token, "address": *addr, "amount": *amount}, nil
		}
	}},
	"pause": {method: "yield_setPauses", mutates: true, usage: "[--farm] [--ferment]", build: func(fs *flag.FlagSet) func() (interface{}, error) {
		farm := fs.Bool("farm", false, "pause the farm")
		ferment := fs.Bool("ferment", false, "pause fermentation")
		return func() (interface{}, error) {
			return object{"farm": *farm, "ferment": *ferment}, nil
		}
	}},
	"set-reputation": {method: "reputation_setScore", mutates: true, usage: "--address A --score N", build: func(fs *flag.FlagSet) func() (interface{}, error) {
		addr := fs.String("address", "", "account address")
		score := fs.Uint64("score", 0, "reputation score")
		return func() (interface{}, error) {
			if err := requireFlags(map[string]*string{"address": addr}); err != nil {
				return nil, err
			}
			return object{"address": *addr, "score": *score}, nil
		}
	}},

	"pool": {method: "farm_getPool", usage: "[--height H]", build: func(fs *flag.FlagSet) func() (interface{}, error) {
		height := fs.Uint64("height", 0, "evaluate at height (0 = head)")
		return func() (interface{}, error) { return object{"height": *height}, nil }
	}},
	"stake": {method: "farm_getStake", usage: "--participant A [--height H]", build: func(fs *flag.FlagSet) func() (interface{}, error) {
		addr := fs.String("participant", "", "participant address")
		height := fs.Uint64("height", 0, "evaluate at height (0 = head)")
		return func() (interface{}, error) {
			if err := requireFlags(map[string]*string{"participant": addr}); err != nil {
				return nil, err
			}
			return object{"participant": *addr, "height": *height}, nil
		}
	}},
	"deposit":            {method: "farm_deposit", mutates: true, usage: "--participant A --amount N", build: accountAmount("participant")},
	"withdraw":           {method: "farm_withdraw", mutates: true, usage: "--participant A --amount N", build: accountAmount("participant")},
	"harvest":            {method: "farm_harvest", mutates: true, usage: "--participant A", build: participantOnly},
	"emergency-withdraw": {method: "farm_emergencyWithdraw", mutates: true, usage: "--participant A", build: participantOnly},

	"asset": {method: "ferment_getAsset", usage: "--id N [--at T]", build: func(fs *flag.FlagSet) func() (interface{}, error) {
		id := fs.Uint64("id", 0, "asset id")
		at := fs.Uint64("at", 0, "evaluate at unix time (0 = head)")
		return func() (interface{}, error) { return object{"id": *id, "at": *at}, nil }
	}},
	"tiers":  {method: "ferment_getTiers", usage: "", build: noParams},
	"params": {method: "ferment_getParameters", usage: "", build: noParams},
	"mint": {method: "ferment_mint", mutates: true, usage: "--owner A [--name N]", build: func(fs *flag.FlagSet) func() (interface{}, error) {
		owner := fs.String("owner", "", "owner address")
		name := fs.String("name", "", "display name")
		return func() (interface{}, error) {
			if err := requireFlags(map[string]*string{"owner": owner}); err != nil {
				return nil, err
			}
			return object{"owner": *owner, "name": *name}, nil
		}
	}},
	"claim":        {method: "ferment_claim", mutates: true, usage: "--caller A --id N", build: callerAsset},
	"compound-all": {method: "ferment_compoundAll", mutates: true, usage: "--caller A --id N", build: callerAsset},
	"revoke":       {method: "ferment_revokeApproval", mutates: true, usage: "--caller A --id N", build: callerAsset},
	"compound": {method: "ferment_compound", mutates: true, usage: "--caller A --id N --count C", build: func(fs *flag.FlagSet) func() (interface{}, error) {
		caller := fs.String("caller", "", "caller address")
		id := fs.Uint64("id", 0, "asset id")
		count := fs.Uint64("count", 1, "assets to mint")
		return func() (interface{}, error) {
			if err := requireFlags(map[string]*string{"caller": caller}); err != nil {
				return nil, err
			}
			if *count == 0 {
				return nil, fmt.Errorf("--count must be positive")
			}
			return object{"caller": *caller, "id": *id, "count": *count}, nil
		}
	}},
	"add-xp": {method: "ferment_addXp", mutates: true, usage: "--id N --amount X", build: func(fs *flag.FlagSet) func() (interface{}, error) {
		id := fs.Uint64("id", 0, "asset id")
		amount := fs.String("amount", "", "experience to add")
		return func() (interface{}, error) {
			if err := requireFlags(map[string]*string{"amount": amount}); err != nil {
				return nil, err
			}
			return object{"id": *id, "amount": *amount}, nil
		}
	}},
	"approve": {method: "ferment_approve", mutates: true, usage: "--caller A --id N --operator O", build: func(fs *flag.FlagSet) func() (interface{}, error) {
		caller := fs.String("caller", "", "owner address")
		id := fs.Uint64("id", 0, "asset id")
		operator := fs.String("operator", "", "operator address")
		return func() (interface{}, error) {
			if err := requireFlags(map[string]*string{"caller": caller, "operator": operator}); err != nil {
				return nil, err
			}
			return object{"caller": *caller, "id": *id, "operator": *operator}, nil
		}
	}},
	"transfer": {method: "ferment_transfer", mutates: true, usage: "--caller A --to B --id N", build: func(fs *flag.FlagSet) func() (interface{}, error) {
		caller := fs.String("caller", "", "owner or approved operator")
		to := fs.String("to", "", "recipient address")
		id := fs.Uint64("id", 0, "asset id")
		return func() (interface{}, error) {
			if err := requireFlags(map[string]*string{"caller": caller, "to": to}); err != nil {
				return nil, err
			}
			return object{"caller": *caller, "to": *to, "id": *id}, nil
		}
	}},
	"trading": {method: "ferment_setTradingEnabled", mutates: true, usage: "--enabled=true|false", build: func(fs *flag.FlagSet) func() (interface{}, error) {
		enabled := fs.Bool("enabled", false, "allow asset transfers")
		return func() (interface{}, error) { return object{"enabled": *enabled}, nil }
	}},
	"add-tier": {method: "ferment_addTier", mutates: true, usage: "--threshold X --daily-yield Y", build: func(fs *flag.FlagSet) func() (interface{}, error) {
		threshold := fs.String("threshold", "", "experience threshold")
		daily := fs.String("daily-yield", "", "reward per asset per day")
		return func() (interface{}, error) {
			if err := requireFlags(map[string]*string{"threshold": threshold, "daily-yield": daily}); err != nil {
				return nil, err
			}
			return object{"threshold": *threshold, "dailyYield": *daily}, nil
		}
	}},
}
