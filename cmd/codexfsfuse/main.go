//go:build fuse

// Command codexfsfuse mounts a CodexFS image read-only via FUSE: open the
// image, mount, serve until unmounted.
package main

import (
	"fmt"
	"os"

	"github.com/hanwen/go-fuse/v2/fuse"

	"github.com/codexfs/codexfs"
)

const usage = `codexfsfuse - mount a CodexFS image read-only via FUSE

Usage:
  codexfsfuse [-debug] <img_path> <mnt_path>

Flags:
  -debug       log every FUSE request/response
`

func main() {
	var debug bool
	var positional []string

	for _, a := range os.Args[1:] {
		switch a {
		case "-debug", "--debug":
			debug = true
		default:
			positional = append(positional, a)
		}
	}

	if len(positional) != 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}
	imgPath, mntPath := positional[0], positional[1]

	sess, err := codexfs.Open(imgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
	defer sess.Close()

	rawFS := codexfs.NewFS(sess)

	server, err := fuse.NewServer(rawFS, mntPath, &fuse.MountOptions{
		Name:           "codexfs",
		FsName:         imgPath,
		SingleThreaded: true,
		Debug:          debug,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: mount failed: %s\n", err)
		os.Exit(1)
	}

	server.Serve()
}
