// Command assettools inspects Parkitect blueprints and savegames and restyles
// blueprint images.
//
// Usage:
//
//	assettools blueprint [--raw] [--exclude a,b] [--format json|json-indent|toon] <path|data>
//	assettools savegame [--raw] [--exclude a,b] [--format json|json-indent|toon] <path|data>
//	assettools blueprint-convert [flags] <path|data>
//	assettools serve [--addr :8080]
//	assettools init
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fatal(err)
	}
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, report(err))
	os.Exit(1)
}
