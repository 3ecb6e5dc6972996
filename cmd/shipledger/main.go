// Command shipledger builds and inspects the cross-source lookup ledger.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/shipledger/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
