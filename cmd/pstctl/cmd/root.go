package cmd

import "github.com/spf13/cobra"

// Root returns the pstctl command tree.
func Root() *cobra.Command {
	root := &cobra.Command{
		Use:   "pstctl",
		Short: "Generate and inspect Private State Token issuer key material",
	}
	root.AddCommand(keygenCmd())
	root.AddCommand(commitmentCmd())
	return root
}
