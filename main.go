// Package main is the entry point for the app-scribe application.
package main

import (
	"github.com/relaymesh/app-scribe/cmd"
)

func main() {
	cmd.Execute()
}
