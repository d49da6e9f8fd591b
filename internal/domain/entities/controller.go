package entities

import "github.com/spf13/cobra"

// ControllerBind is the Cobra metadata of a controller's subcommand.
type ControllerBind struct {
	Use   string
	Short string
	Long  string
}

// Controller is a subcommand of the CLI.
type Controller interface {
	GetBind() ControllerBind
	Execute(command *cobra.Command, arguments []string)
}
