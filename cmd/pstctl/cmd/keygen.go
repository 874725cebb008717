package cmd

import (
	"encoding/json"
	"os"

	"github.com/Bidon15/pstcore"
	"github.com/spf13/cobra"
)

func keygenCmd() *cobra.Command {
	var id uint32
	var out string
	var expiry uint64

	c := &cobra.Command{
		Use:   "keygen",
		Short: "Generate a fresh P-384 key pair and write it as a JWK file",
		RunE: func(cmd *cobra.Command, args []string) error {
			kp, err := pst.GenerateKeyPair(id, expiry)
			if err != nil {
				return err
			}
			jwk := pst.ExportJWK(kp)
			data, err := json.MarshalIndent(jwk, "", "  ")
			if err != nil {
				return err
			}
			if out == "" {
				_, err := cmd.OutOrStdout().Write(append(data, '\n'))
				return err
			}
			return os.WriteFile(out, data, 0o600)
		},
	}
	c.Flags().Uint32Var(&id, "id", 0, "key identifier")
	c.Flags().StringVar(&out, "out", "", "output path (default: stdout)")
	c.Flags().Uint64Var(&expiry, "expiry", 0, "expiry, in microseconds since the Unix epoch")
	return c
}
