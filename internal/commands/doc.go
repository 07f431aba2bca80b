// doc.go: package documentation.
//
// Copyright (c) 2025 EncryptX contributors
// SPDX-License-Identifier: MIT

// Package commands defines the encryptx command-line interface: encrypt and
// decrypt subcommands operating on local files, and serve, which runs the
// HTTP adapter.
package commands
