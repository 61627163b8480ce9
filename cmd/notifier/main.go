package main

import (
	"fmt"
	"os"

	"github.com/cybershield/notifier/pkg/cli"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	root := cli.NewRootCommand(cli.DefaultConfig())
	root.SetArgs(args)
	if err := root.Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, "Error:", err)
		return 1
	}
	return 0
}
