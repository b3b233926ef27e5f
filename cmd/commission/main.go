package main

import (
	"fmt"
	"os"

	"github.com/ayo6706/agency-settlement/internal/app"
)

func main() {
	if err := app.RunCommission(); err != nil {
		fmt.Fprintf(os.Stderr, "commission service error: %v\n", err)
		os.Exit(1)
	}
}
