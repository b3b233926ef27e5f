package main

import (
	"fmt"
	"os"

	"github.com/ayo6706/agency-settlement/internal/app"
)

func main() {
	if err := app.RunTransaction(); err != nil {
		fmt.Fprintf(os.Stderr, "transaction service error: %v\n", err)
		os.Exit(1)
	}
}
