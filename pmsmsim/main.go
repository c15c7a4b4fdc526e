// Package main is the entry point of the pmsmsim command.
package main

import (
	"github.com/sarchlab/pmsmsim/pmsmsim/cmd"
)

func main() {
	cmd.Execute()
}
