package main

import (
	"github.com/spf13/cobra"
)

// Version is set at build time.
var Version = "dev"

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "careergate",
		Short: "Career guidance service with role-based access control",
		Long: `careergate serves the career guidance web app and API.

Every page and API route is guarded by one shared policy table. The
maintenance commands apply the database schema, manage roles and
evaluate a credential against a capability.`,
		Version:      Version,
		SilenceUsage: true,
	}
	root.AddCommand(
		newServeCmd(),
		newMigrateCmd(),
		newRoleCmd(),
		newCheckCmd(),
	)
	return root
}
