// Package blocks finds chart placeholders inside a content tree.
package blocks

import (
	"context"
	"fmt"
	"strings"

	"chartsync/internal/core"
	"chartsync/internal/store"
)

// FindCodeBlock returns the first descendant of rootID, in depth-first
// pre-order, that is a code block whose text contains title. The root itself
// is not a candidate. Children are only listed for blocks flagged as having
// them, once per visited block. The bool is false when nothing matches.
func FindCodeBlock(ctx context.Context, reader store.BlockReader, rootID, title string) (core.Block, bool, error) {
	children, err := reader.ListChildren(ctx, rootID)
	if err != nil {
		return core.Block{}, false, fmt.Errorf("list children of %s: %w", rootID, err)
	}

	stack := make([]core.Block, 0, len(children))
	stack = pushReversed(stack, children)

	for len(stack) > 0 {
		b := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if b.IsCode() && strings.Contains(b.Text, title) {
			return b, true, nil
		}
		if !b.HasChildren {
			continue
		}
		if err := ctx.Err(); err != nil {
			return core.Block{}, false, err
		}
		children, err := reader.ListChildren(ctx, b.ID)
		if err != nil {
			return core.Block{}, false, fmt.Errorf("list children of %s: %w", b.ID, err)
		}
		stack = pushReversed(stack, children)
	}
	return core.Block{}, false, nil
}

// pushReversed pushes blocks so the first one is popped first.
func pushReversed(stack, blocks []core.Block) []core.Block {
	for i := len(blocks) - 1; i >= 0; i-- {
		stack = append(stack, blocks[i])
	}
	return stack
}
