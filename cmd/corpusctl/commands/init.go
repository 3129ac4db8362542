package commands

import (
	"log/slog"

	"github.com/sansio/corpusctl/internal/config"
)

// InitCmd implements the 'init' command.
type InitCmd struct {
	Force bool `help:"Overwrite an existing configuration file"`
}

// Run writes a starter configuration file.
func (i *InitCmd) Run(_ *Global, root *CLI) error {
	if err := config.Init(root.Config, i.Force); err != nil {
		return err
	}
	slog.Info("Configuration written", "path", root.Config)
	return nil
}
