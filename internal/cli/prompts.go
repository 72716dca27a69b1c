package cli

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/AlecAivazis/survey/v2"
)

var symbolRe = regexp.MustCompile(`^[A-Z0-9.-]+$`)

// PromptForSymbol asks for the ticker the agent should trade.
func PromptForSymbol(defaultSymbol string) (string, error) {
	var symbol string
	prompt := &survey.Input{
		Message: "Ticker symbol to trade:",
		Default: defaultSymbol,
		Help:    "The underlying the agent builds option structures on, e.g. SPY",
	}

	err := survey.AskOne(prompt, &symbol, survey.WithValidator(func(val interface{}) error {
		str := strings.TrimSpace(strings.ToUpper(val.(string)))
		if str == "" {
			return fmt.Errorf("symbol cannot be empty")
		}
		if len(str) > 10 {
			return fmt.Errorf("symbol too long (max 10 characters)")
		}
		if !symbolRe.MatchString(str) {
			return fmt.Errorf("invalid symbol format (letters, numbers, dots, hyphens)")
		}
		return nil
	}))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(strings.ToUpper(symbol)), nil
}

// ConfirmLiveTrading makes the operator acknowledge real-money execution.
// Paper mode never prompts.
func ConfirmLiveTrading(capital float64) (bool, error) {
	var confirmed bool
	prompt := &survey.Confirm{
		Message: fmt.Sprintf("Live mode trades real money against %.0f capital. Continue?", capital),
		Default: false,
	}
	if err := survey.AskOne(prompt, &confirmed); err != nil {
		return false, err
	}
	return confirmed, nil
}
