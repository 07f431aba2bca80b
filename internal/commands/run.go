// run.go: parallel file processing shared by encrypt and decrypt.
//
// Copyright (c) 2025 EncryptX contributors
// SPDX-License-Identifier: MIT

package commands

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"golang.org/x/sync/errgroup"

	"github.com/Amitminer/EncryptX/internal/crypto"
)

// result is one file's processing outcome, channelled to the printer
// goroutine.
type result struct {
	input   string
	output  string
	inSize  int
	outSize int
	err     error
}

func (o *options) validate(files []string) error {
	if o.password != "" && o.keyB64 != "" {
		return errors.New("cannot specify both --password and --key; choose one")
	}
	if o.output != "" && len(files) > 1 {
		return errors.New("--output is only valid with a single input file")
	}
	if o.parallel < 1 {
		o.parallel = 1
	}
	return nil
}

// credential resolves the flags into an engine credential. The returned key
// buffer, if any, is owned by the caller.
func (o *options) credential(embeddedFallback bool) (crypto.Credential, error) {
	cred := crypto.Credential{Password: o.password}
	if o.keyB64 != "" {
		key, err := crypto.KeyFromBase64(o.keyB64)
		if err != nil {
			return crypto.Credential{}, fmt.Errorf("invalid base64 key: %w", err)
		}
		if len(key) != crypto.KeySize {
			return crypto.Credential{}, fmt.Errorf("key must be %d bytes after base64 decode, got %d", crypto.KeySize, len(key))
		}
		cred.Key = key
	}
	if o.password == "" && o.keyB64 == "" {
		cred.AllowEmbeddedKey = embeddedFallback
	}
	return cred, nil
}

// runFiles processes files in parallel under the configured limit. A single
// printer goroutine owns stdout/stderr so output is not interleaved.
func (o *options) runFiles(files []string, process func(file string) result) error {
	results := make(chan result, len(files))
	done := make(chan struct{})
	errored := 0

	go func() {
		defer close(done)
		for res := range results {
			if res.err != nil {
				errored++
				fmt.Fprintf(os.Stderr, "Error processing %q: %v\n", res.input, res.err)
				continue
			}
			if !o.quiet {
				fmt.Printf("%s -> %s (%s -> %s)\n",
					res.input, res.output,
					humanize.Bytes(uint64(res.inSize)), humanize.Bytes(uint64(res.outSize)))
			}
		}
	}()

	group := errgroup.Group{}
	group.SetLimit(o.parallel)
	for _, file := range files {
		group.Go(func() error {
			results <- process(file)
			return nil
		})
	}

	group.Wait()
	close(results)
	<-done

	if errored > 0 {
		return fmt.Errorf("%d of %d files failed", errored, len(files))
	}
	return nil
}

// writeOutput writes data to path, refusing to overwrite an existing file
// unless force is set.
func writeOutput(path string, data []byte, force bool) error {
	flags := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	if !force {
		flags = os.O_WRONLY | os.O_CREATE | os.O_EXCL
	}

	f, err := os.OpenFile(path, flags, 0o644)
	if err != nil {
		if os.IsExist(err) {
			return fmt.Errorf("output file %q already exists; use --force to overwrite", path)
		}
		return err
	}

	_, werr := f.Write(data)
	cerr := f.Close()
	if werr != nil {
		return werr
	}
	return cerr
}

// encryptOutputPath derives the default output path for an input file,
// keeping the input's directory.
func encryptOutputPath(input string) string {
	stem := filepath.Base(input)
	if ext := filepath.Ext(stem); ext != "" {
		stem = stem[:len(stem)-len(ext)]
	}
	if stem == "" {
		stem = "file"
	}
	return filepath.Join(filepath.Dir(input), stem+".xd")
}

// safeFilename reduces a header-recorded filename to a bare name so a
// crafted container cannot write outside the output directory.
func safeFilename(name string) string {
	name = filepath.Base(filepath.Clean(name))
	if name == "." || name == string(filepath.Separator) || name == "" {
		return "file.bin"
	}
	return name
}
