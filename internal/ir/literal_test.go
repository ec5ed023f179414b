package ir_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"tenir/internal/ir"
	"tenir/internal/shape"
	"tenir/internal/types"
)

func i32Scalar() types.Type { return types.TensorType(shape.New(), shape.Int(32)) }

func TestLiteralEqualStructural(t *testing.T) {
	a := ir.ScalarLiteral(3, false)
	b := ir.ScalarLiteral(3, false)
	c := ir.ScalarLiteral(3, true) // same value, different IsFloat
	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
	assert.False(t, a.Equal(ir.ZeroLiteral()))
}

func TestLiteralIsAggregate(t *testing.T) {
	assert.False(t, ir.ScalarLiteral(1, false).IsAggregate())
	assert.False(t, ir.ZeroLiteral().IsAggregate())
	assert.True(t, ir.TensorLiteral().IsAggregate())
	assert.True(t, ir.StructLiteral().IsAggregate())
	assert.True(t, ir.EnumCaseLiteral("none").IsAggregate())
}

func TestLiteralOperandsOrdersFieldsAndElements(t *testing.T) {
	a := ir.LiteralUse(i32Scalar(), ir.ScalarLiteral(1, false))
	b := ir.LiteralUse(i32Scalar(), ir.ScalarLiteral(2, false))
	tensor := ir.TensorLiteral(a, b)
	ops := tensor.Operands()
	if assert.Len(t, ops, 2) {
		assert.True(t, ops[0].Equal(a))
		assert.True(t, ops[1].Equal(b))
	}

	s := ir.StructLiteral(
		ir.StructFieldLiteral{Name: "x", Value: a},
		ir.StructFieldLiteral{Name: "y", Value: b},
	)
	sOps := s.Operands()
	if assert.Len(t, sOps, 2) {
		assert.True(t, sOps[0].Equal(a))
		assert.True(t, sOps[1].Equal(b))
	}
}

func TestUseEqualDistinguishesLiteralAndDefinitionForms(t *testing.T) {
	lit1 := ir.LiteralUse(i32Scalar(), ir.ScalarLiteral(5, false))
	lit2 := ir.LiteralUse(i32Scalar(), ir.ScalarLiteral(5, false))
	assert.True(t, lit1.Equal(lit2))

	v1 := &ir.Variable{Name: "g", Type_: i32Scalar()}
	v2 := &ir.Variable{Name: "g", Type_: i32Scalar()}
	def1 := ir.DefUse(v1)
	def2 := ir.DefUse(v2)
	assert.False(t, def1.Equal(def2), "distinct *Variable identities must not compare equal even with matching names")
	assert.True(t, def1.Equal(ir.DefUse(v1)))

	assert.False(t, lit1.Equal(def1))
}

func TestZeroUseIsUnsetOnly(t *testing.T) {
	assert.True(t, ir.ZeroUse.IsZero())
	assert.False(t, ir.LiteralUse(i32Scalar(), ir.ZeroLiteral()).IsZero(), "a literal use, even of the zero literal, is not the unset sentinel")
}
