package action

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/AlecAivazis/survey/v2"
	"github.com/mattn/go-isatty"
	"github.com/penguins-eggs/eggs/phase"
	log "github.com/sirupsen/logrus"
)

// confirm asks the question unless force is set. A non-terminal output without
// force is an error.
func confirm(stdout io.Writer, force bool, message string) error {
	if force {
		return nil
	}
	if stdoutFile, ok := stdout.(*os.File); ok && !isatty.IsTerminal(stdoutFile.Fd()) {
		return fmt.Errorf("not a terminal, use --unattended")
	}
	if !ask(message) {
		return fmt.Errorf("confirmation or --unattended required to proceed")
	}
	return nil
}

// ask is a survey confirm, false on any prompt error
func ask(message string) bool {
	confirmed := false
	prompt := &survey.Confirm{Message: message}
	_ = survey.AskOne(prompt, &confirmed)
	return confirmed
}

func waitKey(message string) {
	var s string
	_ = survey.AskOne(&survey.Input{Message: message}, &s)
}

func finished(start time.Time) {
	duration := time.Since(start).Truncate(time.Second)
	text := fmt.Sprintf("==> Finished in %s", duration)
	log.Infof(phase.Colorize.Green(text).String())
}
