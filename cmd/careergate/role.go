package main

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"careergate/internal/roles"
	"careergate/internal/store/sqlstore"
)

func newRoleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "role",
		Short: "Manage subject roles in the SQL profile store",
		Long: `Manage the role attached to a subject id.

Role changes take effect on the subject's next request. These commands
require DATABASE_URL; provider-hosted profiles are managed in the
provider's console.`,
	}
	cmd.AddCommand(newRoleGetCmd(), newRoleSetCmd(), newRoleRemoveCmd())
	return cmd
}

func newRoleGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <subject-id>",
		Short: "Show the role of a subject",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withProfiles(cmd, func(p *sqlstore.Profiles) error {
				_, role, err := p.FindRole(cmd.Context(), args[0])
				if errors.Is(err, roles.ErrNotFound) {
					fmt.Fprintln(cmd.OutOrStdout(), "not provisioned")
					return nil
				}
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), role)
				return nil
			})
		},
	}
}

func newRoleSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <subject-id> <user|admin>",
		Short: "Provision a subject or change its role",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateSubject(args[0]); err != nil {
				return err
			}
			role, ok := roles.ParseRole(args[1])
			if !ok {
				return fmt.Errorf("unknown role %q", args[1])
			}
			return withProfiles(cmd, func(p *sqlstore.Profiles) error {
				if err := p.Upsert(cmd.Context(), args[0], role); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s is now %s\n", args[0], role)
				return nil
			})
		},
	}
}

func newRoleRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <subject-id>",
		Short: "Remove a subject's profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withProfiles(cmd, func(p *sqlstore.Profiles) error {
				if err := p.Delete(cmd.Context(), args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s removed\n", args[0])
				return nil
			})
		},
	}
}

func withProfiles(cmd *cobra.Command, fn func(*sqlstore.Profiles) error) error {
	pool, err := openDatabase(cmd.Context())
	if err != nil {
		return err
	}
	defer pool.Close() //nolint:errcheck // process exits right after
	return fn(sqlstore.NewProfiles(pool.DB()))
}

func validateSubject(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("subject id %q is not a uuid", id)
	}
	return nil
}
