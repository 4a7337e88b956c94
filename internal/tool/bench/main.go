// Copyright 2017, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

//go:build ignore
// +build ignore

// Benchmark tool to compare performance between multiple compression
// implementations. Individual implementations are referred to as codecs.
//
// Example usage:
//
//	$ go build -o benchmark main.go
//	$ ./benchmark \
//		-formats fl          \
//		-codecs  std,ds,ks   \
//		-levels  1,6,9       \
//		-sizes   1e4,1e5,1e6
package main

import (
	"flag"
	"fmt"
	"sort"
	"strings"

	"github.com/dsnet/deflate/internal/tool/bench"
	"github.com/dsnet/golib/strconv"
)

const (
	defaultLevels = "1,6,9"
	defaultSizes  = "1e4,1e5"
)

var fmtToEnum = map[string]int{
	"fl": bench.FormatFlate,
	"gz": bench.FormatGzip,
	"zl": bench.FormatZlib,
	"xz": bench.FormatXZ,
}

func defaultCodecs() string {
	m := make(map[string]bool)
	for _, v := range bench.Encoders {
		for k := range v {
			m[k] = true
		}
	}
	var s []string
	for k := range m {
		s = append(s, k)
	}
	sort.Strings(s)
	return strings.Join(s, ",")
}

func main() {
	f0 := flag.String("formats", "fl", "List of formats to benchmark")
	f1 := flag.String("codecs", defaultCodecs(), "List of codecs to benchmark")
	f2 := flag.String("levels", defaultLevels, "List of compression levels to benchmark")
	f3 := flag.String("sizes", defaultSizes, "List of input sizes to benchmark")
	flag.Parse()

	var formats []int
	for _, s := range strings.Split(*f0, ",") {
		f, ok := fmtToEnum[s]
		if !ok {
			fmt.Println("unknown format:", s)
			return
		}
		formats = append(formats, f)
	}
	codecs := strings.Split(*f1, ",")

	var levels []int
	for _, s := range strings.Split(*f2, ",") {
		lvl, err := strconv.ParsePrefix(s, strconv.AutoParse)
		if err != nil {
			fmt.Println("invalid level:", s)
			return
		}
		levels = append(levels, int(lvl))
	}
	var sizes []int
	for _, s := range strings.Split(*f3, ",") {
		n, err := strconv.ParsePrefix(s, strconv.AutoParse)
		if err != nil {
			fmt.Println("invalid size:", s)
			return
		}
		sizes = append(sizes, int(n))
	}

	for _, format := range formats {
		for _, size := range sizes {
			input := bench.TestData(0, size)
			for _, lvl := range levels {
				for _, codec := range codecs {
					enc := bench.Encoders[format][codec]
					if enc == nil {
						continue
					}
					r := bench.BenchmarkEncoder(input, enc, lvl)
					rate := float64(r.Bytes) * float64(r.N) / r.T.Seconds() / 1e6
					ratio := bench.Ratio(input, enc, lvl)
					fmt.Printf("%s:%d:%d\t%6.2f MB/s\tratio %5.2f\n",
						codec, lvl, size, rate, ratio)
				}
			}
		}
	}
}
