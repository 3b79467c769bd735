// Package main is the single-binary entrypoint for DayQuest.
// DayQuest turns a personal task list into a game of points and streaks.
package main

import "github.com/dayquest/dayquest/internal/cli"

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	cli.Execute(version)
}
