package main

import (
	"fmt"
	"os"

	"github.com/compozy/verbump/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		if !cmd.IsReported(err) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}
