package cli

import (
	"fmt"
	"os"

	"github.com/AlecAivazis/survey/v2"
	"github.com/mattn/go-isatty"
)

// interactive reports whether prompts can be shown.
func interactive() bool {
	return isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd())
}

// resolveAddress returns addr, prompting for it when empty on a terminal.
func resolveAddress(addr string) (string, error) {
	if addr != "" {
		if err := ValidateAddress(addr); err != nil {
			return "", err
		}
		return addr, nil
	}
	if !interactive() {
		return "", fmt.Errorf("--%s is required when not running on a terminal", FlagIP)
	}
	return promptAddress()
}

// promptAddress asks for the node's public IP address.
func promptAddress() (string, error) {
	var result string
	prompt := &survey.Input{
		Message: "Public IP address of this node",
		Help:    "Replaces the address placeholder in every rendered config.toml",
	}
	if err := survey.AskOne(prompt, &result, survey.WithValidator(survey.ComposeValidators(survey.Required, addressValidator))); err != nil {
		return "", err
	}
	return result, nil
}

// addressValidator is a survey validator for IP addresses.
func addressValidator(val interface{}) error {
	str, ok := val.(string)
	if !ok {
		return fmt.Errorf("expected string, got %T", val)
	}
	return ValidateAddress(str)
}

// confirm asks a yes/no question, defaulting to no.
func confirm(message string) (bool, error) {
	if !interactive() {
		return false, fmt.Errorf("confirmation required: pass --%s when not running on a terminal", FlagYes)
	}
	answer := false
	prompt := &survey.Confirm{
		Message: message,
		Default: false,
	}
	if err := survey.AskOne(prompt, &answer); err != nil {
		return false, err
	}
	return answer, nil
}
