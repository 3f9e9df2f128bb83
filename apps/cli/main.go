package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/trezcool/eduverse/apps/di"
	"github.com/trezcool/eduverse/core"
)

func main() {
	container := di.New(core.NewConfig)

	var cli *commandLine
	if err := container.Invoke(func(p params) { cli = newCommandLine(p, os.Stdout) }); err != nil {
		fmt.Fprintf(os.Stderr, "error: setting up: %v\n", err)
		os.Exit(1)
	}
	defer cli.close()

	if err := cli.run(os.Args); err != nil {
		if !errors.Is(err, errHelp) {
			cli.printError(os.Stderr, err)
		}
		cli.close()
		os.Exit(1)
	}
}
