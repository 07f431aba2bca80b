// main.go: encryptx entry point.
//
// Copyright (c) 2025 EncryptX contributors
// SPDX-License-Identifier: MIT

package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/Amitminer/EncryptX/internal/commands"
)

var version = "dev"

func main() {
	// A .env file is optional; the environment wins either way.
	_ = godotenv.Load()

	if err := commands.NewRootCommand(version).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
