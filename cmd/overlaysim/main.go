// Command overlaysim replays recorded host command scripts against the overlay
// manager and an in-memory scene.
package main

import (
	"os"
)

var version = "dev"

func main() {
	rootCmd.Version = version
	if err := rootCmd.Execute(); err != nil {
		printError(err.Error())
		os.Exit(1)
	}
}
