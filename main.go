// Package main is the entry point of aniresolve.
package main

import (
	"github.com/aniresolve/aniresolve/cmd"
	"github.com/aniresolve/aniresolve/config"
	"github.com/aniresolve/aniresolve/log"
	"github.com/samber/lo"
)

func main() {
	lo.Must0(config.Setup())
	lo.Must0(log.Setup())

	cmd.Execute()
}
