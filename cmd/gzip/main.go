// Copyright 2017, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

// gzip compresses a single input file into a single gzip output file.
//
// Usage: gzip input output.gz
//
// The exit code is 0 on success and 1 on any error, with a one-line
// message on stderr.
package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/dsnet/deflate/gzip"
)

func main() {
	if msg := run(os.Args[1:]); msg != "" {
		fmt.Fprintln(os.Stderr, msg)
		os.Exit(1)
	}
}

// run returns an empty string if successful, otherwise an error message.
func run(args []string) string {
	if len(args) != 2 {
		return "Usage: gzip input output.gz"
	}

	fi, err := os.Open(args[0])
	if err != nil {
		return fmt.Sprintf("Cannot open input file: %v", err)
	}
	defer fi.Close()
	st, err := fi.Stat()
	if err != nil {
		return fmt.Sprintf("Cannot stat input file: %v", err)
	}
	if st.IsDir() {
		return fmt.Sprintf("Input path is a directory: %s", args[0])
	}

	fo, err := os.Create(args[1])
	if err != nil {
		return fmt.Sprintf("Cannot create output file: %v", err)
	}

	meta := gzip.Metadata{
		ModTime:   uint32(st.ModTime().Unix()),
		OS:        gzip.OSUnix,
		Name:      filepath.Base(args[0]),
		HeaderCRC: true,
	}
	gw, err := gzip.NewWriterConfig(fo, gzip.WriterConfig{Metadata: meta})
	if err == nil {
		_, err = io.Copy(gw, fi)
	}
	if err == nil {
		err = gw.Close()
	}
	if cerr := fo.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return err.Error()
	}
	return ""
}
