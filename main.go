// Package main is the entry point for the pbpmetrics CLI tool, which
// reconstructs lineups and possessions from basketball play-by-play feeds
// and computes lineup ratings and rim-defense on/off splits.
package main

import "github.com/pable/go-pbp-metrics/cmd"

func main() {
	cmd.Execute()
}
