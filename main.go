// Package main is the entry point for the build-optimizer CLI.
package main

import "github.com/hannajonsd/build-optimizer/cmd"

func main() {
	cmd.Execute()
}
