package action

import (
	"fmt"
	"io"
	"os"

	osexec "os/exec"

	"github.com/mattn/go-isatty"
	"github.com/penguins-eggs/eggs/config"
)

// ConfigEdit opens eggs.yaml in the user's editor and saves it when the result
// is valid
type ConfigEdit struct {
	Path   string
	Stdout io.Writer
	Stderr io.Writer
	Stdin  io.Reader
}

func (c ConfigEdit) Run() error {
	stdoutFile, ok := c.Stdout.(*os.File)

	if !ok || !isatty.IsTerminal(stdoutFile.Fd()) {
		return fmt.Errorf("output is not a terminal")
	}

	editor, err := shellEditor()
	if err != nil {
		return err
	}

	oldCfg, err := os.ReadFile(c.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s, create it with: sudo eggs config", config.ErrNotFound, c.Path)
		}
		return err
	}

	tmpFile, err := os.CreateTemp("", "eggs.*.yaml")
	if err != nil {
		return err
	}
	defer func() { _ = os.Remove(tmpFile.Name()) }()

	if _, err := tmpFile.Write(oldCfg); err != nil {
		return err
	}

	if err := tmpFile.Close(); err != nil {
		return err
	}

	cmd := osexec.Command(editor, tmpFile.Name())
	cmd.Stdin = c.Stdin
	cmd.Stdout = c.Stdout
	cmd.Stderr = c.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to start editor (%s): %w", cmd.String(), err)
	}

	newCfg, err := os.ReadFile(tmpFile.Name())
	if err != nil {
		return err
	}

	if string(newCfg) == string(oldCfg) {
		return fmt.Errorf("configuration was not changed, aborting")
	}

	s, err := config.ParseSettings(newCfg)
	if err != nil {
		return err
	}
	if err := s.Validate(); err != nil {
		return fmt.Errorf("configuration not saved: %w", err)
	}

	return os.WriteFile(c.Path, newCfg, 0o644)
}

func shellEditor() (string, error) {
	if v := os.Getenv("VISUAL"); v != "" {
		return v, nil
	}
	if v := os.Getenv("EDITOR"); v != "" {
		return v, nil
	}
	if path, err := osexec.LookPath("vi"); err == nil {
		return path, nil
	}

	return "", fmt.Errorf("could not detect shell editor ($VISUAL, $EDITOR)")
}
