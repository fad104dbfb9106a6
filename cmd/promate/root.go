package main

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "promate",
	Short: "Shared focus-timer session server",
	Long: `Promate runs shared focus-timer sessions: small rooms identified by a
six-character code where participants share a focus/break countdown, a task
list, and a chat over WebSocket.

Configuration is read from PROMATE_* environment variables; run
"promate serve" to start the server with defaults.`,
}
