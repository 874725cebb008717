package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/Bidon15/pstcore"
	"github.com/spf13/cobra"
)

func commitmentCmd() *cobra.Command {
	var host string
	var keyPath string
	var version string

	c := &cobra.Command{
		Use:   "commitment",
		Short: "Print the key-commitment document for a JWK key file",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(keyPath)
			if err != nil {
				return err
			}
			var jwk pst.JWK
			if err := json.Unmarshal(data, &jwk); err != nil {
				return err
			}
			kp, err := pst.ImportJWK(&jwk)
			if err != nil {
				return err
			}

			v, err := parseVersion(version)
			if err != nil {
				return err
			}

			doc, err := pst.KeyCommitment(host, v, pst.DefaultMaxBatchSize, []*pst.PublicKey{&kp.Public})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(doc))
			return nil
		},
	}
	c.Flags().StringVar(&host, "host", "", "issuer host for the commitment document")
	c.Flags().StringVar(&keyPath, "key", "", "path to a JWK key file")
	c.Flags().StringVar(&version, "version", "v3", "protocol version: v1 or v3")
	_ = c.MarkFlagRequired("host")
	_ = c.MarkFlagRequired("key")
	return c
}

func parseVersion(s string) (pst.ProtocolVersion, error) {
	switch s {
	case "v1":
		return pst.V1, nil
	case "v3":
		return pst.V3, nil
	default:
		return 0, fmt.Errorf("unknown protocol version %q", s)
	}
}
