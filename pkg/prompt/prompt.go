// Package prompt asks the installer questions on the terminal
package prompt

import (
	"github.com/AlecAivazis/survey/v2"
	"github.com/muesli/crunchy"
)

// Answer to a screen confirmation
type Answer int

// Answers
const (
	Yes Answer = iota
	No
	Abort
)

func (a Answer) String() string {
	switch a {
	case Yes:
		return "Yes"
	case No:
		return "No"
	default:
		return "Abort"
	}
}

// Prompter asks questions
type Prompter interface {
	Input(message, def string) (string, error)
	Password(message string) (string, error)
	Select(message string, options []string, def string) (string, error)
	Confirm(message string) (bool, error)
	Screen(message string) (Answer, error)
}

// Survey asks the questions on the terminal
type Survey struct{}

var _ Prompter = Survey{}

// Input asks for a line of text
func (Survey) Input(message, def string) (string, error) {
	var s string
	err := survey.AskOne(&survey.Input{Message: message, Default: def}, &s)
	return s, err
}

// Password asks for a password without echo
func (Survey) Password(message string) (string, error) {
	var s string
	err := survey.AskOne(&survey.Password{Message: message}, &s, survey.WithValidator(survey.Required))
	return s, err
}

// Select asks to pick one of the options
func (Survey) Select(message string, options []string, def string) (string, error) {
	var s string
	q := &survey.Select{Message: message, Options: options, PageSize: 12}
	for _, o := range options {
		if o == def {
			q.Default = def
			break
		}
	}
	err := survey.AskOne(q, &s)
	return s, err
}

// Confirm asks a yes/no question
func (Survey) Confirm(message string) (bool, error) {
	confirmed := false
	err := survey.AskOne(&survey.Confirm{Message: message}, &confirmed)
	return confirmed, err
}

// Screen asks to accept, redo or abort a screen
func (Survey) Screen(message string) (Answer, error) {
	var s string
	err := survey.AskOne(&survey.Select{
		Message: message,
		Options: []string{Yes.String(), No.String(), Abort.String()},
		Default: Yes.String(),
	}, &s)
	if err != nil {
		return Abort, err
	}
	switch s {
	case "Yes":
		return Yes, nil
	case "No":
		return No, nil
	default:
		return Abort, nil
	}
}

var passwordValidator = crunchy.NewValidator()

// PasswordWarning returns a description of the weakness of the password, or an
// empty string for a good one
func PasswordWarning(pw string) string {
	if err := passwordValidator.Check(pw); err != nil {
		return err.Error()
	}
	return ""
}
