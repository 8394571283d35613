// Command typeconv converts API resource metadata described in YAML into GraphQL types.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
