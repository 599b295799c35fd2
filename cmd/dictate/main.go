package main

import (
	"fmt"
	"os"

	"take-my-dictation/cmd/dictate/cmd"
	"take-my-dictation/internal/config"
)

func main() {
	// A missing .env is fine; keys may come from the environment or the config file.
	if _, err := config.LoadEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "warning: %v\n", err)
	}

	cmd.Execute()
}
