// Diffsentry reviews unified diffs with an LLM analysis channel and
// formats the findings for posting on a change request.
package main

import (
	"os"

	"github.com/diffsentry/diffsentry/cli"
)

func main() {
	os.Exit(cli.Run())
}
