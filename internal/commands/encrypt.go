// encrypt.go: the encrypt subcommand.
//
// Copyright (c) 2025 EncryptX contributors
// SPDX-License-Identifier: MIT

package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/Amitminer/EncryptX/internal/crypto"
)

func newEncryptCommand() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:     "encrypt [flags] <files...>",
		Aliases: []string{"enc"},
		Short:   "Encrypt files",
		Long: `Encrypt files into .xd containers.

Supply --password for password-based encryption or --key for an explicit
32-byte key. With neither, a random key is generated and printed once.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEncrypt(cmd, opts, args)
		},
	}

	opts.register(cmd)

	return cmd
}

func runEncrypt(cmd *cobra.Command, opts *options, files []string) error {
	if err := opts.validate(files); err != nil {
		return err
	}

	cred, err := opts.credential(false)
	if err != nil {
		return err
	}

	// With no credential, one key covers the whole run so the user has a
	// single secret to save. It is printed exactly once, before any file is
	// processed.
	if cred.Password == "" && len(cred.Key) == 0 {
		key, err := crypto.GenerateKey()
		if err != nil {
			return fmt.Errorf("generating key: %w", err)
		}
		cred.Key = key

		fmt.Printf("Generated random key (base64): %s\n", crypto.KeyToBase64(key))
		fmt.Println("Save this key somewhere safe; it will not be shown again.")
	}
	defer crypto.Zeroize(cred.Key)

	engine := crypto.NewEngine(crypto.WithKDFWorkers(opts.parallel))
	ctx := cmd.Context()

	return opts.runFiles(files, func(file string) result {
		res := result{input: file}

		data, err := os.ReadFile(file)
		if err != nil {
			res.err = err
			return res
		}

		out, err := engine.Encrypt(ctx, data, filepath.Base(file), cred)
		if err != nil {
			res.err = err
			return res
		}

		output := opts.output
		if output == "" {
			output = encryptOutputPath(file)
		}
		if err := writeOutput(output, out.Container, opts.force); err != nil {
			res.err = err
			return res
		}

		res.output = output
		res.inSize = len(data)
		res.outSize = len(out.Container)
		return res
	})
}
