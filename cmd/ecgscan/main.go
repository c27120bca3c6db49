package main

import (
	"fmt"
	"os"

	"github.com/terraincognita07/ecgscan/internal/cli"
)

func main() {
	if err := cli.Execute(runServer); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
