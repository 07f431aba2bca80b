// decrypt.go: the decrypt subcommand.
//
// Copyright (c) 2025 EncryptX contributors
// SPDX-License-Identifier: MIT

package commands

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/Amitminer/EncryptX/internal/crypto"
)

func newDecryptCommand() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:     "decrypt [flags] <files...>",
		Aliases: []string{"dec"},
		Short:   "Decrypt .xd files",
		Long: `Decrypt .xd containers back to their original files.

Supply the same --password or --key used for encryption. With neither, the
key embedded in the container header is used when present. Output defaults
to the original filename recorded at encryption time, written next to the
input file.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDecrypt(cmd, opts, args)
		},
	}

	opts.register(cmd)

	return cmd
}

func runDecrypt(cmd *cobra.Command, opts *options, files []string) error {
	if err := opts.validate(files); err != nil {
		return err
	}

	cred, err := opts.credential(true)
	if err != nil {
		return err
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

		plaintext, origName, err := engine.Decrypt(ctx, data, cred)
		if err != nil {
			res.err = err
			return res
		}

		output := opts.output
		if output == "" {
			output = filepath.Join(filepath.Dir(file), safeFilename(origName))
		}
		if err := writeOutput(output, plaintext, opts.force); err != nil {
			res.err = err
			return res
		}

		res.output = output
		res.inSize = len(data)
		res.outSize = len(plaintext)
		return res
	})
}
