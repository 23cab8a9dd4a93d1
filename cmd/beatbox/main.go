package main

import (
	"fmt"
	"os"

	"github.com/unkn0wn-root/beatbox/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
