package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/doeshing/dexter/internal/app"
	"github.com/doeshing/dexter/internal/domain"
	"github.com/doeshing/dexter/internal/infrastructure/cli/commands"
)

// Version is set at build time with -ldflags.
var Version = "dev"

// NewRootCmd wires the cobra root command. The container is built on first
// use so config subcommands keep working with a broken config file.
func NewRootCmd(opts *app.Options) *cobra.Command {
	lazy := app.NewLazy(opts)

	root := &cobra.Command{
		Use:   "dexter [request]",
		Short: "Dexter - natural language to CLI tool commands",
		Long: "Dexter turns a plain-language request into a command for one of its tools " +
			"(f2, ffmpeg, pandoc, qpdf, ocrmypdf, yt-dlp, whisper.cpp, jdupes, libvips), " +
			"previews it, and runs it after you confirm.",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.SessionLog = true
			container, err := lazy.Get(cmd.Context())
			if err != nil {
				return err
			}
			machine, err := container.NewMachine(cmd.Context())
			if err != nil {
				return err
			}
			session := ""
			if container.Session != nil {
				session = container.Session.Path
			}
			return runTUI(cmd.Context(), machine, strings.Join(args, " "), session)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return lazy.Close()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       Version,
	}

	root.PersistentFlags().StringVar(&opts.ConfigPath, "config", opts.ConfigPath, "Config file (default ~/.dexter/config.yaml)")
	root.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", opts.Verbose, "Log debug output to stderr")

	root.AddCommand(
		newRunCommand(lazy, opts),
		commands.NewConfigCommand(lazy),
		commands.NewHistoryCommand(lazy, rerunFunc(lazy)),
		commands.NewModelsCommand(lazy),
		commands.NewTargetsCommand(lazy),
		commands.NewPluginsCommand(lazy),
		commands.NewDoctorCommand(lazy),
	)
	return root
}

func newRunCommand(lazy *app.Lazy, opts *app.Options) *cobra.Command {
	var runOpts RunOptions

	cmd := &cobra.Command{
		Use:   "run <request>",
		Short: "Run one request in line mode, without the interactive UI",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.SessionLog = true
			runner, err := buildLineRunner(cmd, lazy, runOpts)
			if err != nil {
				return err
			}
			return runner.runRequest(cmd.Context(), strings.Join(args, " "))
		},
	}

	cmd.Flags().BoolVarP(&runOpts.Yes, "yes", "y", false, "Execute the previewed command without asking")
	cmd.Flags().BoolVar(&runOpts.Regenerate, "regenerate", false, "Skip the response cache when generating the command")
	return cmd
}

func rerunFunc(lazy *app.Lazy) commands.RerunFunc {
	return func(cmd *cobra.Command, record domain.HistoryRecord, yes bool) error {
		runner, err := buildLineRunner(cmd, lazy, RunOptions{Yes: yes})
		if err != nil {
			return err
		}
		return runner.rerun(cmd.Context(), record)
	}
}

func buildLineRunner(cmd *cobra.Command, lazy *app.Lazy, runOpts RunOptions) (*lineRunner, error) {
	container, err := lazy.Get(cmd.Context())
	if err != nil {
		return nil, err
	}
	machine, err := container.NewMachine(cmd.Context())
	if err != nil {
		return nil, fmt.Errorf("build pipeline: %w", err)
	}
	return newLineRunner(machine, cmd.InOrStdin(), cmd.OutOrStdout(), os.Stderr, runOpts), nil
}
