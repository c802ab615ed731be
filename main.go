// Package main is the entry point for the cmstats CLI tool, which classifies
// team rosters by debuffer composition and reports win rates per round.
package main

import "github.com/pable/go-cm-stats/cmd"

func main() {
	cmd.Execute()
}
