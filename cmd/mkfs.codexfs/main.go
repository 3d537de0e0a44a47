// Command mkfs.codexfs builds a CodexFS image from a source directory tree.
// Flag parsing scans os.Args directly rather than using the flag package;
// the two switches this adds (-u, -b) are few enough not to need more.
package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/codexfs/codexfs"
)

const usage = `mkfs.codexfs - build a CodexFS image

Usage:
  mkfs.codexfs [-u] [-b blocksize] <img_path> <src_path>

Flags:
  -u           disable MicroLZMA compression of file data
  -b N         block size in bytes, must be a power of two (default 4096)
`

func main() {
	var (
		imgPath, srcPath string
		uncompressed     bool
		blockSize        uint64 = codexfs.DefaultBlockSize
	)

	args := os.Args[1:]
	var positional []string
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "-u", "--uncompress":
			uncompressed = true
		case "-b", "--blksz":
			if i+1 >= len(args) {
				fmt.Fprintln(os.Stderr, "Error: -b requires a value")
				fmt.Fprint(os.Stderr, usage)
				os.Exit(1)
			}
			i++
			n, err := strconv.ParseUint(args[i], 10, 32)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: invalid block size %q: %s\n", args[i], err)
				os.Exit(1)
			}
			blockSize = n
		case "-h", "--help":
			fmt.Print(usage)
			return
		default:
			positional = append(positional, args[i])
		}
	}

	if len(positional) != 2 {
		fmt.Fprintln(os.Stderr, "Error: expected <img_path> and <src_path>")
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}
	imgPath, srcPath = positional[0], positional[1]

	opts := []codexfs.Option{
		codexfs.WithBlockSize(uint32(blockSize)),
		codexfs.WithCompression(!uncompressed),
	}

	if err := codexfs.Build(imgPath, srcPath, opts...); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}
