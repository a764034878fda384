package store

import (
	"context"
	"fmt"
	"io"
)

// DryRun wraps a block store so that reads go through and writes are
// printed to out instead of being sent.
func DryRun(blocks BlockStore, out io.Writer) BlockStore {
	return &dryRunStore{BlockReader: blocks, out: out}
}

type dryRunStore struct {
	BlockReader
	out io.Writer
}

func (d *dryRunStore) ReplaceContent(_ context.Context, blockID, text string) error {
	_, err := fmt.Fprintf(d.out, "--- block %s\n%s", blockID, text)
	return err
}
