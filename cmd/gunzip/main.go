// Copyright 2017, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

// gunzip decompresses a single gzip file into a single output file.
//
// Usage: gunzip input.gz output
//
// Informational metadata from the gzip header is printed to stderr.
// The exit code is 0 on success and 1 on any error, with a one-line
// message on stderr.
package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"time"

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
		return "Usage: gunzip input.gz output"
	}

	fi, err := os.Open(args[0])
	if err != nil {
		return fmt.Sprintf("Cannot open input file: %v", err)
	}
	defer fi.Close()

	gr, err := gzip.NewReader(bufio.NewReader(fi))
	if err != nil {
		return err.Error()
	}
	printMetadata(gr.Metadata)

	fo, err := os.Create(args[1])
	if err != nil {
		return fmt.Sprintf("Cannot create output file: %v", err)
	}
	_, err = io.Copy(fo, gr)
	if cerr := fo.Close(); err == nil {
		err = cerr
	}
	if err == nil {
		err = gr.Close()
	}
	if err != nil {
		return err.Error()
	}
	return ""
}

func printMetadata(meta gzip.Metadata) {
	if meta.ModTime != 0 {
		fmt.Fprintln(os.Stderr, "Last modified:", time.Unix(int64(meta.ModTime), 0).UTC())
	} else {
		fmt.Fprintln(os.Stderr, "Last modified: N/A")
	}
	switch meta.ExtraFlags {
	case 2:
		fmt.Fprintln(os.Stderr, "Extra flags: Maximum compression")
	case 4:
		fmt.Fprintln(os.Stderr, "Extra flags: Fastest compression")
	default:
		fmt.Fprintf(os.Stderr, "Extra flags: Unknown (%d)\n", meta.ExtraFlags)
	}
	fmt.Fprintln(os.Stderr, "Operating system:", gzip.OSName(meta.OS))
	if meta.IsText {
		fmt.Fprintln(os.Stderr, "Flag: Text")
	}
	if meta.Extra != nil {
		fmt.Fprintf(os.Stderr, "Flag: Extra (%d bytes)\n", len(meta.Extra))
	}
	if meta.Name != "" {
		fmt.Fprintln(os.Stderr, "File name:", meta.Name)
	}
	if meta.Comment != "" {
		fmt.Fprintln(os.Stderr, "Comment:", meta.Comment)
	}
	if meta.HeaderCRC {
		fmt.Fprintln(os.Stderr, "Flag: Header CRC")
	}
}
