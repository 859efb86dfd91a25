// Command docgen writes the sfq command reference as one markdown page per
// command, for docs/cli.
package main

import (
	"flag"
	"log"
	"os"

	"github.com/spf13/cobra/doc"

	"github.com/donaldgifford/storefront-query/cmd/sfq/cmd"
)

func main() {
	out := flag.String("output", "docs/cli", "directory the markdown pages are written to")
	flag.Parse()

	if err := generate(*out); err != nil {
		log.Fatal(err)
	}
	log.Printf("sfq reference written to %s", *out)
}

// generate rebuilds dir from the live command tree. Pages of commands that
// no longer exist are left behind; clean the directory first when
// commands are removed.
func generate(dir string) error {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return err
	}

	root := cmd.Root()
	// No date footer, so regenerated pages are byte-stable.
	root.DisableAutoGenTag = true

	return doc.GenMarkdownTree(root, dir)
}
