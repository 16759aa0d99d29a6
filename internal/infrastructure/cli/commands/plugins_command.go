package commands

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/doeshing/dexter/internal/app"
	"github.com/doeshing/dexter/internal/ports"
)

// NewPluginsCommand lists the tool adapters and whether each tool is installed.
func NewPluginsCommand(lazy *app.Lazy) *cobra.Command {
	return &cobra.Command{
		Use:   "plugins",
		Short: "List supported tools and their install status",
		RunE: func(cmd *cobra.Command, args []string) error {
			container, err := lazy.Get(cmd.Context())
			if err != nil {
				return err
			}
			for _, p := range container.Plugins.All() {
				printPlugin(cmd, cmd.OutOrStdout(), p)
			}
			return nil
		},
	}
}

func printPlugin(cmd *cobra.Command, out io.Writer, p ports.Plugin) {
	status := ""
	if inst, ok := p.(ports.Installable); ok {
		if inst.IsInstalled(cmd.Context()) {
			status = "installed"
		} else {
			status = "missing: " + inst.InstallHint()
		}
	}
	fmt.Fprintf(out, "%-8s %s\n", p.Name(), p.Description())
	if status != "" {
		fmt.Fprintf(out, "         %s\n", status)
	}
}
