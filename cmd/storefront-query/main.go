// Package main is the entry point for storefront-query.
package main

import (
	"os"

	"github.com/donaldgifford/storefront-query/cmd/storefront-query/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
