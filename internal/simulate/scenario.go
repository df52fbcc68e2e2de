package simulate

import (
	"fmt"

	"nftlend/pkg/lending"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// actions
const (
	ActionFund               = "fund"
	ActionMint               = "mint"
	ActionPrice              = "price"
	ActionSupply             = "supply"
	ActionWithdraw           = "withdraw"
	ActionBorrow             = "borrow"
	ActionRepay              = "repay"
	ActionSetCollateral      = "set_collateral"
	ActionSupplyNFT          = "supply_nft"
	ActionWithdrawNFT        = "withdraw_nft"
	ActionSetTokenCollateral = "set_token_collateral"
	ActionStartAuction       = "start_auction"
	ActionEndAuction         = "end_auction"
	ActionLiquidate          = "liquidate"
	ActionLiquidateNFT       = "liquidate_nft"
	ActionAccount            = "account"
)

// Scenario timed list of steps replayed against a fresh pool
type Scenario struct {
	Name  string  `yaml:"name"`
	Start int64   `yaml:"start"`
	Steps []*Step `yaml:"steps"`
}

// Step one action. At is seconds after the scenario start.
type Step struct {
	At     int64    `yaml:"at"`
	Action string   `yaml:"action"`
	User   string   `yaml:"user"`
	Asset  string   `yaml:"asset"`
	Amount string   `yaml:"amount"`
	Tokens []string `yaml:"tokens"`

	// price of Asset, of a single token when Tokens is set
	Price string `yaml:"price"`

	Liquidator     string `yaml:"liquidator"`
	DebtAsset      string `yaml:"debt_asset"`
	ReceiveAsShare bool   `yaml:"receive_as_share"`
	Cash           bool   `yaml:"cash"`
	Enabled        bool   `yaml:"enabled"`

	// Expect error code the step must fail with, empty means success
	Expect string `yaml:"expect"`
}

// Parse yaml scenario
func Parse(data []byte) (*Scenario, error) {
	var s Scenario
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, err
	}

	if s.Name == "" {
		s.Name = "scenario"
	}

	for i, step := range s.Steps {
		if step.Action == "" {
			return nil, fmt.Errorf("step %d: missing action", i)
		}

		if i > 0 && step.At < s.Steps[i-1].At {
			return nil, fmt.Errorf("step %d: time goes backwards", i)
		}
	}

	return &s, nil
}

func (s *Step) amount() (decimal.Decimal, error) {
	if s.Amount == "max" {
		return lending.MaxAmount, nil
	}

	return decimal.NewFromString(s.Amount)
}

func (s *Step) price() (decimal.Decimal, error) {
	return decimal.NewFromString(s.Price)
}

func (s *Step) token() (string, error) {
	if len(s.Tokens) != 1 {
		return "", fmt.Errorf("%s: exactly one token expected", s.Action)
	}

	return s.Tokens[0], nil
}
