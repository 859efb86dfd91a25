// Package main is the entry point for the sfq CLI client.
package main

import (
	"github.com/donaldgifford/storefront-query/cmd/sfq/cmd"
)

func main() {
	cmd.Execute()
}
