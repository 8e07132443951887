package main

import (
	"errors"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"careergate/internal/authz"
	"careergate/internal/identity"
	"careergate/internal/platform/config"
	"careergate/internal/platform/logger"
)

var errNotAuthorized = errors.New("not authorized")

func newCheckCmd() *cobra.Command {
	var (
		token      string
		capability string
		list       bool
	)
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Evaluate a credential against a capability",
		Long: `Run the same authorization check a guarded route runs and print
the outcome. The token defaults to $CAREERGATE_TOKEN. Exits non-zero
unless the outcome is authorized.

Examples:
  careergate check --token "$JWT" --capability admin.api
  careergate check --list`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if list {
				table, err := authz.NewTable()
				if err != nil {
					return err
				}
				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "CAPABILITY\tREQUIRES")
				for _, c := range table.Capabilities() {
					req, _ := table.Requirement(c)
					fmt.Fprintf(w, "%s\t%s\n", c, req)
				}
				return w.Flush()
			}

			if capability == "" {
				return errors.New("--capability is required")
			}
			if token == "" {
				token = os.Getenv("CAREERGATE_TOKEN")
			}

			cfg, err := config.FromEnv()
			if err != nil {
				return err
			}
			a, err := build(cmd.Context(), cfg, logger.New(cfg.LogLevel))
			if err != nil {
				return err
			}
			defer a.Close()

			cred := identity.FromAuthorizationHeader("")
			if token != "" {
				cred = identity.FromToken(token)
			}
			out := a.checker.Check(cmd.Context(), cred, authz.Capability(capability))

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintf(w, "OUTCOME\t%s\n", out.Kind)
			if out.IsAuthorized() {
				fmt.Fprintf(w, "SUBJECT\t%s\n", out.Identity.SubjectID)
				fmt.Fprintf(w, "ROLE\t%s\n", out.Role)
			} else {
				fmt.Fprintf(w, "REASON\t%s\n", out.Reason)
			}
			if err := w.Flush(); err != nil {
				return err
			}
			if !out.IsAuthorized() {
				return errNotAuthorized
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&token, "token", "", "bearer token to check")
	cmd.Flags().StringVar(&capability, "capability", "", "capability name, see --list")
	cmd.Flags().BoolVar(&list, "list", false, "list capabilities and their role requirements")
	return cmd
}
