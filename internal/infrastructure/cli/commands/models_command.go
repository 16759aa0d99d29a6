package commands

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/doeshing/dexter/internal/app"
	"github.com/doeshing/dexter/internal/domain"
	"github.com/doeshing/dexter/internal/infrastructure/ai"
)

// NewModelsCommand lists the models the configured providers offer.
func NewModelsCommand(lazy *app.Lazy) *cobra.Command {
	var role string

	cmd := &cobra.Command{
		Use:   "models",
		Short: "List models available from the providers of a role",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := roleClient(cmd, lazy, role)
			if err != nil {
				return err
			}
			models, err := client.ListModels(cmd.Context())
			if err != nil {
				return err
			}
			for _, m := range models {
				fmt.Fprintln(cmd.OutOrStdout(), m)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&role, "role", string(domain.RoleExecutor), "Model role (router|executor)")
	return cmd
}

// NewTargetsCommand prints the order completion targets are tried in.
func NewTargetsCommand(lazy *app.Lazy) *cobra.Command {
	var role string

	cmd := &cobra.Command{
		Use:   "targets",
		Short: "Show the resolved fallback order of completion targets",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := roleClient(cmd, lazy, role)
			if err != nil {
				return err
			}
			printTargets(cmd.OutOrStdout(), client.Targets())
			return nil
		},
	}

	cmd.Flags().StringVar(&role, "role", string(domain.RoleExecutor), "Model role (router|executor)")
	return cmd
}

func roleClient(cmd *cobra.Command, lazy *app.Lazy, role string) (*ai.Client, error) {
	container, err := lazy.Get(cmd.Context())
	if err != nil {
		return nil, err
	}
	switch domain.Role(role) {
	case domain.RoleRouter:
		return container.RouterClient, nil
	case domain.RoleExecutor:
		return container.ExecutorClient, nil
	default:
		return nil, errors.New(ErrRoleInvalid)
	}
}

func printTargets(out io.Writer, targets []domain.Target) {
	for i, t := range targets {
		key := "no key"
		if t.APIKey != "" {
			key = "key set"
		}
		fmt.Fprintf(out, "%2d. %s  (%s, auth=%s, %s)\n", i+1, t.Label(), t.BaseURL, t.Auth, key)
	}
}
