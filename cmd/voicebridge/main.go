// Command voicebridge bridges phone calls from a telephony media stream to
// a realtime voice model.
//
// Usage:
//
//	voicebridge [flags] <command> [subcommand] [args]
//
// Commands:
//
//	serve      - Run the bridge server
//	config     - Manage contexts and bridge.yaml
//	calls      - Inspect the call ledger
//	version    - Show version information
package main

import (
	"fmt"
	"os"

	"github.com/haivivi/voicebridge/cmd/voicebridge/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
