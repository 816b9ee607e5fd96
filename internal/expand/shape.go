package expand

import (
	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"

	"github.com/vk/sweepx/internal/config"
)

// blockShape is the result of classifying a block's keys into constant and
// varying. values holds the provisional evaluation of every key (with logdir
// still unknown), parallel to the block's param list.
type blockShape struct {
	values    []cty.Value
	varyIndex map[int]int // param index -> position among varying keys
	sizes     []int       // list cardinality per varying key, declaration order
}

// classify evaluates every key once against the placeholder context and
// partitions them. A list or tuple value marks a varying key; anything else,
// including a still-unknown scalar, is constant for the block.
func classify(block *config.HParamBlock, pctx *hcl.EvalContext) (*blockShape, error) {
	shape := &blockShape{
		values:    make([]cty.Value, len(block.Params)),
		varyIndex: make(map[int]int),
	}

	for i, p := range block.Params {
		val, diags := p.Expr.Value(pctx)
		if diags.HasErrors() {
			return nil, invalidSpec(p.Name, "unresolvable reference: %s", diags.Error())
		}
		shape.values[i] = val

		if val.IsKnown() && !val.IsNull() && isListLike(val.Type()) {
			n := val.LengthInt()
			if n == 0 {
				return nil, invalidSpec(p.Name, "empty value list")
			}
			shape.varyIndex[i] = len(shape.sizes)
			shape.sizes = append(shape.sizes, n)
		}
	}
	return shape, nil
}

func isListLike(t cty.Type) bool {
	return t.IsTupleType() || t.IsListType()
}

// combinations enumerates the cartesian product over the varying keys. The
// last-declared key varies fastest, matching the declared-order contract.
// With no varying keys there is exactly one (empty) combination.
func (s *blockShape) combinations() [][]int {
	total := 1
	for _, n := range s.sizes {
		total *= n
	}

	combos := make([][]int, 0, total)
	for c := 0; c < total; c++ {
		choice := make([]int, len(s.sizes))
		rem := c
		for i := len(s.sizes) - 1; i >= 0; i-- {
			choice[i] = rem % s.sizes[i]
			rem /= s.sizes[i]
		}
		combos = append(combos, choice)
	}
	return combos
}
