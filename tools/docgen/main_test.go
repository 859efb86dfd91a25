package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestGenerate(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "cli")

	if err := generate(dir); err != nil {
		t.Fatalf("generate: %v", err)
	}

	for _, page := range []string{"sfq.md", "sfq_browse.md", "sfq_visual-search.md", "sfq_select-store.md"} {
		data, err := os.ReadFile(filepath.Join(dir, page))
		if err != nil {
			t.Fatalf("reading %s: %v", page, err)
		}
		if strings.Contains(string(data), "Auto generated by spf13/cobra") {
			t.Errorf("%s carries the auto-generated footer", page)
		}
	}
}
