package main

import (
	"fmt"
	"os"

	"github.com/ayo6706/agency-settlement/internal/app"
)

func main() {
	if err := app.RunWallet(); err != nil {
		fmt.Fprintf(os.Stderr, "wallet service error: %v\n", err)
		os.Exit(1)
	}
}
