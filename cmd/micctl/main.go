// Command micctl is the operator CLI for the MIC ledger: schema migrations,
// balance and history lookups, admin corrections, integrity index control
// and user role management.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd(openEnv).Execute(); err != nil {
		os.Exit(1)
	}
}
