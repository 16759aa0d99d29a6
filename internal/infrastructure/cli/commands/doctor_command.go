package commands

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/doeshing/dexter/internal/app"
	"github.com/doeshing/dexter/internal/application/doctor"
	"github.com/doeshing/dexter/internal/infrastructure/config"
)

// NewDoctorCommand checks the config, providers, safety gate, context scan
// and tool binaries. It still reports when the container cannot be built.
func NewDoctorCommand(lazy *app.Lazy) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Diagnose configuration and installed tools",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc := &doctor.Service{
				ConfigProvider: config.NewFileLoader(lazy.Options().ConfigPath),
			}
			if container, err := lazy.Get(cmd.Context()); err == nil {
				svc.Safety = container.Safety
				svc.ContextCollector = container.Collector
				svc.Plugins = container.Plugins.All()
			}

			report, err := svc.Run(cmd.Context())
			printReport(cmd.OutOrStdout(), report)
			if err != nil {
				return err
			}
			if !report.Healthy() {
				return errors.New(ErrDoctorFailed)
			}
			return nil
		},
	}
}

func printReport(out io.Writer, report doctor.Report) {
	for _, check := range report.Checks {
		fmt.Fprintf(out, "[%-5s] %-18s %s\n", check.Status, check.Name, check.Details)
	}
}
