// root.go: root command wiring.
//
// Copyright (c) 2025 EncryptX contributors
// SPDX-License-Identifier: MIT

package commands

import (
	"runtime"

	"github.com/spf13/cobra"
)

// options carries the flags shared by the encrypt and decrypt subcommands.
type options struct {
	password string
	keyB64   string
	output   string
	force    bool
	quiet    bool
	parallel int
}

func (o *options) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&o.password, "password", "p", "", "Password for password-based encryption")
	cmd.Flags().StringVarP(&o.keyB64, "key", "k", "", "Key (base64, 32 bytes decoded)")
	cmd.Flags().StringVarP(&o.output, "output", "o", "", "Output file path (single input file only)")
	cmd.Flags().BoolVar(&o.force, "force", false, "Overwrite the output file if it exists")
	cmd.Flags().BoolVarP(&o.quiet, "quiet", "q", false, "Suppress non-error output")
	cmd.Flags().IntVarP(&o.parallel, "parallel", "j", runtime.NumCPU(), "Number of files processed in parallel")
}

// NewRootCommand builds the encryptx command tree.
func NewRootCommand(version string) *cobra.Command {
	root := &cobra.Command{
		Use:           "encryptx",
		Short:         "File encryption utility",
		Long:          "Encrypt and decrypt files with a password or a 32-byte key, or run the HTTP API.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newEncryptCommand(), newDecryptCommand(), newServeCommand())

	return root
}
