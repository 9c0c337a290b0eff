// Command nova-voice runs the specification interview server and its
// session management tools.
package main

import (
	"fmt"
	"os"

	"github.com/mcr5fh/nova-voice/cmd/nova-voice/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
