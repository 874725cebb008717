// Command pstctl generates Private State Token issuer key material and
// inspects key-commitment documents, offline and without any HTTP
// surface.
package main

import (
	"fmt"
	"os"

	"github.com/Bidon15/pstcore/cmd/pstctl/cmd"
)

func main() {
	if err := cmd.Root().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
