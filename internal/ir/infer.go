package ir

import (
	"tenir/internal/registry"
	"tenir/internal/shape"
	"tenir/internal/types"
)

// int64Scalar is the rank-0 i64 tensor type used for rank/unitCount and
// every allocation-count/index operand (spec.md §4.2's "int64" shorthand).
func int64Scalar() types.Type { return types.TensorType(shape.New(), shape.Int(64)) }

func int64Vector(n int) types.Type { return types.TensorType(shape.New(n), shape.Int(64)) }

func isInt64Scalar(t types.Type) bool {
	s, dt, ok := t.TensorTypeOf()
	return ok && s.IsScalar() && dt.Kind == shape.DTInt && dt.Width == 64
}

// Infer computes an instruction kind's result type per spec.md §4.2,
// returning (types.InvalidType(), false) on any rule violation. r
// resolves nominal types (for insert/extract/elementPointer through
// structs and aliases); reg resolves `builtin` opcodes and may be nil
// if the kind cannot be `builtin`.
func Infer(k InstructionKind, r types.Resolver, reg *registry.Registry) (types.Type, bool) {
	invalid := types.InvalidType()
	switch k.Op {
	case OpLiteral:
		return k.LitType, true

	case OpNumericUnary:
		t := k.Operand.Type()
		s, dt, ok := t.TensorTypeOf()
		if !ok || !dt.IsNumeric() {
			return invalid, false
		}
		return types.TensorType(s, dt), true

	case OpNot:
		t := k.Operand.Type()
		s, dt, ok := t.TensorTypeOf()
		if !ok || !dt.IsBool() {
			return invalid, false
		}
		return types.TensorType(s, dt), true

	case OpNumericBinary:
		sa, dta, oka := k.LHS.Type().TensorTypeOf()
		sb, dtb, okb := k.RHS.Type().TensorTypeOf()
		if !oka || !okb || !dta.Equal(dtb) || !dta.IsNumeric() {
			return invalid, false
		}
		out, ok := sa.Broadcast(sb)
		if !ok {
			return invalid, false
		}
		return types.TensorType(out, dta), true

	case OpBooleanBinary:
		sa, dta, oka := k.LHS.Type().TensorTypeOf()
		sb, dtb, okb := k.RHS.Type().TensorTypeOf()
		if !oka || !okb || !dta.Equal(dtb) || !dta.IsBool() {
			return invalid, false
		}
		out, ok := sa.Broadcast(sb)
		if !ok {
			return invalid, false
		}
		return types.TensorType(out, dta), true

	case OpCompare:
		sa, dta, oka := k.LHS.Type().TensorTypeOf()
		sb, dtb, okb := k.RHS.Type().TensorTypeOf()
		if !oka || !okb || !dta.Equal(dtb) || !dta.IsNumeric() {
			return invalid, false
		}
		out, ok := sa.Broadcast(sb)
		if !ok {
			return invalid, false
		}
		return types.TensorType(out, shape.Bool()), true

	case OpDot:
		sa, dta, oka := k.LHS.Type().TensorTypeOf()
		sb, dtb, okb := k.RHS.Type().TensorTypeOf()
		if !oka || !okb || !dta.Equal(dtb) {
			return invalid, false
		}
		if out, ok := sa.MatrixMultiplied(sb); ok {
			return types.TensorType(out, dta), true
		}
		if sa.IsVector() && sb.IsVector() && sa.Equal(sb) {
			return types.TensorType(shape.New(), dta), true
		}
		return invalid, false

	case OpConcatenate:
		if len(k.Operands) == 0 {
			return invalid, false
		}
		cur, dt0, ok := k.Operands[0].Type().TensorTypeOf()
		if !ok {
			return invalid, false
		}
		if k.Axis < 0 || k.Axis >= cur.Rank() {
			return invalid, false
		}
		for _, u := range k.Operands[1:] {
			s, dt, ok := u.Type().TensorTypeOf()
			if !ok || !dt.Equal(dt0) {
				return invalid, false
			}
			var okCat bool
			cur, okCat = cur.Concatenating(s, k.Axis)
			if !okCat {
				return invalid, false
			}
		}
		return types.TensorType(cur, dt0), true

	case OpTranspose:
		s, dt, ok := k.Operand.Type().TensorTypeOf()
		if !ok {
			return invalid, false
		}
		return types.TensorType(s.Transpose(), dt), true

	case OpReverse:
		s, dt, ok := k.Operand.Type().TensorTypeOf()
		if !ok || !distinctInRange(k.Dims, s.Rank()) {
			return invalid, false
		}
		return types.TensorType(s, dt), true

	case OpSlice:
		s, dt, ok := k.Operand.Type().TensorTypeOf()
		if !ok || s.Rank() == 0 {
			return invalid, false
		}
		if k.Range.Start < 0 || k.Range.Count < 0 || k.Range.Start+k.Range.Count > s.Dim(0) {
			return invalid, false
		}
		out := s.Dims()
		out[0] = k.Range.Count
		return types.TensorType(shape.New(out...), dt), true

	case OpRandom:
		_, dtLo, okLo := k.Lo.Type().TensorTypeOf()
		_, dtHi, okHi := k.Hi.Type().TensorTypeOf()
		if !okLo || !okHi || !dtLo.Equal(dtHi) || !dtLo.IsNumeric() {
			return invalid, false
		}
		if !k.Lo.Type().IsScalar() || !k.Hi.Type().IsScalar() {
			return invalid, false
		}
		return types.TensorType(k.ResultShape, dtLo), true

	case OpSelect:
		sl, dtl, okl := k.LHS.Type().TensorTypeOf()
		sr, dtr, okr := k.RHS.Type().TensorTypeOf()
		sb, dtb, okb := k.By.Type().TensorTypeOf()
		if !okl || !okr || !okb || !dtl.Equal(dtr) || !dtb.IsBool() {
			return invalid, false
		}
		out, ok := sl.Broadcast(sr)
		if !ok {
			return invalid, false
		}
		out, ok = out.Broadcast(sb)
		if !ok {
			return invalid, false
		}
		return types.TensorType(out, dtl), true

	case OpReduce:
		s, dt, ok := k.Operand.Type().TensorTypeOf()
		if !ok || !combinatorMatches(k.Combinator, dt, reg) {
			return invalid, false
		}
		if k.HasInitial {
			_, idt, iok := k.Initial.Type().TensorTypeOf()
			if !iok || !idt.Equal(dt) {
				return invalid, false
			}
		}
		dims := map[int]bool{}
		for _, d := range k.Dims {
			if d < 0 || d >= s.Rank() {
				return invalid, false
			}
			dims[d] = true
		}
		return types.TensorType(s.DroppingDimensions(dims), dt), true

	case OpScan:
		s, dt, ok := k.Operand.Type().TensorTypeOf()
		if !ok || !combinatorMatches(k.Combinator, dt, reg) {
			return invalid, false
		}
		for _, d := range k.Dims {
			if d < 0 || d >= s.Rank() {
				return invalid, false
			}
		}
		return types.TensorType(s, dt), true

	case OpReduceWindow:
		s, dt, ok := k.Operand.Type().TensorTypeOf()
		if !ok || !combinatorMatches(k.Combinator, dt, reg) {
			return invalid, false
		}
		if len(k.Dims) != s.Rank() {
			return invalid, false
		}
		if k.HasInitial {
			_, idt, iok := k.Initial.Type().TensorTypeOf()
			if !iok || !idt.Equal(dt) {
				return invalid, false
			}
		}
		out := make([]int, s.Rank())
		for i := 0; i < s.Rank(); i++ {
			stride := 1
			if i < len(k.Strides) {
				stride = k.Strides[i]
			}
			if stride < 1 {
				return invalid, false
			}
			low, high := 0, 0
			if i < len(k.Padding) {
				low, high = k.Padding[i].Low, k.Padding[i].High
			}
			window := k.Dims[i]
			padded := low + s.Dim(i) + high
			if window > padded {
				out[i] = 0
				continue
			}
			out[i] = (padded-window)/stride + 1
		}
		return types.TensorType(shape.New(out...), dt), true

	case OpConvolve:
		sl, dtl, okl := k.LHS.Type().TensorTypeOf()
		sk, dtk, okk := k.RHS.Type().TensorTypeOf()
		if !okl || !okk || !dtl.Equal(dtk) {
			return invalid, false
		}
		groups := k.Groups
		if !k.HasGroups {
			groups = 1
		}
		out, ok := shape.ConvolutionOutput(sl, sk, k.Strides, k.Padding, k.LDilations, k.RDilations, groups)
		if !ok {
			return invalid, false
		}
		return types.TensorType(out, dtl), true

	case OpRank, OpUnitCount:
		if _, _, ok := k.Operand.Type().TensorTypeOf(); !ok {
			return invalid, false
		}
		return int64Scalar(), true

	case OpShape:
		s, _, ok := k.Operand.Type().TensorTypeOf()
		if !ok {
			return invalid, false
		}
		return int64Vector(s.Rank()), true

	case OpPadShape:
		s, dt, ok := k.Operand.Type().TensorTypeOf()
		if !ok {
			return invalid, false
		}
		out, ok := s.PaddingDimension(k.At)
		if !ok {
			return invalid, false
		}
		return types.TensorType(out, dt), true

	case OpSqueezeShape:
		s, dt, ok := k.Operand.Type().TensorTypeOf()
		if !ok || k.At < 0 || k.At >= s.Rank() || s.Dim(k.At) != 1 {
			return invalid, false
		}
		return types.TensorType(s.DroppingDimension(k.At), dt), true

	case OpShapeCast:
		s, dt, ok := k.Operand.Type().TensorTypeOf()
		if !ok || s.ContiguousSize() != k.CastShape.ContiguousSize() {
			return invalid, false
		}
		return types.TensorType(k.CastShape, dt), true

	case OpBitCast:
		return k.TargetType, true

	case OpDataTypeCast:
		s, dt, ok := k.Operand.Type().TensorTypeOf()
		if !ok || !dt.CanCast(k.TargetDataType) {
			return invalid, false
		}
		return types.TensorType(s, k.TargetDataType), true

	case OpExtract:
		t, ok := types.ElementAt(k.Operand.Type(), k.Keys, r)
		if !ok {
			return invalid, false
		}
		return t, true

	case OpInsert:
		toType := k.Target.Type()
		elemType, ok := types.ElementAt(toType, k.Keys, r)
		if !ok || !types.Equal(k.Operand.Type(), elemType) {
			return invalid, false
		}
		return toType, true

	case OpApply:
		ft := k.Callee.Type()
		fn := ft
		if fn.Kind == types.Pointer {
			fn = *fn.Element
		}
		if fn.Kind != types.Function {
			return invalid, false
		}
		if len(fn.Elements) != len(k.Args) {
			return invalid, false
		}
		for i, a := range k.Args {
			if !types.Equal(a.Type(), fn.Elements[i]) {
				return invalid, false
			}
		}
		return *fn.Return, true

	case OpAllocateStack:
		if k.StaticN <= 0 {
			return invalid, false
		}
		return types.PointerType(k.TargetType), true

	case OpAllocateHeap:
		if !isInt64Scalar(k.Count.Type()) {
			return invalid, false
		}
		return types.PointerType(k.TargetType), true

	case OpAllocateBox:
		return types.BoxType(k.TargetType), true

	case OpProjectBox:
		t := k.Operand.Type()
		if t.Kind != types.Box {
			return invalid, false
		}
		return types.PointerType(*t.Element), true

	case OpLoad:
		t := k.Operand.Type()
		if t.Kind != types.Pointer {
			return invalid, false
		}
		return *t.Element, true

	case OpStore:
		t := k.Target.Type()
		if t.Kind != types.Pointer || !types.Equal(*t.Element, k.Operand.Type()) {
			return invalid, false
		}
		return types.VoidType(), true

	case OpElementPointer:
		t := k.Operand.Type()
		if t.Kind != types.Pointer {
			return invalid, false
		}
		elem, ok := types.ElementAt(*t.Element, k.Keys, r)
		if !ok {
			return invalid, false
		}
		return types.PointerType(elem), true

	case OpCopy:
		from, to := k.Operand.Type(), k.Target.Type()
		fromElem, okFrom := refElement(from)
		toElem, okTo := refElement(to)
		if !okFrom || !okTo || !types.Equal(fromElem, toElem) {
			return invalid, false
		}
		if !isInt64Scalar(k.Count.Type()) {
			return invalid, false
		}
		if from.Kind == types.Box || to.Kind == types.Box {
			lit, ok := k.Count.AsLiteral()
			if !ok || lit.Kind != LitScalar || lit.NumValue != 1 {
				return invalid, false
			}
		}
		return types.VoidType(), true

	case OpCreateStack:
		return types.StackType(), true

	case OpDestroyStack:
		if k.Operand.Type().Kind != types.Stack {
			return invalid, false
		}
		return types.VoidType(), true

	case OpPush:
		if k.Target.Type().Kind != types.Stack {
			return invalid, false
		}
		return types.VoidType(), true

	case OpPop:
		if k.Operand.Type().Kind != types.Stack {
			return invalid, false
		}
		return k.TargetType, true

	case OpRetain, OpRelease:
		if k.Operand.Type().Kind != types.Box {
			return invalid, false
		}
		return types.VoidType(), true

	case OpDeallocate:
		t := k.Operand.Type()
		if t.Kind != types.Pointer && t.Kind != types.Box {
			return invalid, false
		}
		return types.VoidType(), true

	case OpBranch, OpConditional, OpBranchEnum, OpReturn, OpTrap:
		return types.VoidType(), true

	case OpBuiltin:
		if reg == nil {
			return invalid, false
		}
		intr, ok := reg.Lookup(k.Intrinsic)
		if !ok || intr.Opcode != k.Intrinsic {
			return invalid, false
		}
		args := make([]registry.Use, len(k.Args))
		for i, a := range k.Args {
			args[i] = a
		}
		t, ok := intr.ResultType(args)
		if !ok {
			return invalid, false
		}
		return t, true

	default:
		return invalid, false
	}
}

func refElement(t types.Type) (types.Type, bool) {
	switch t.Kind {
	case types.Pointer, types.Box:
		return *t.Element, true
	default:
		return types.Type{}, false
	}
}

func distinctInRange(dims []int, rank int) bool {
	seen := map[int]bool{}
	for _, d := range dims {
		if d < 0 || d >= rank || seen[d] {
			return false
		}
		seen[d] = true
	}
	return true
}

func combinatorMatches(c ReductionCombinator, dt shape.DataType, reg *registry.Registry) bool {
	switch c.Kind {
	case CombBoolean:
		return dt.IsBool()
	case CombNumeric:
		return dt.IsNumeric()
	case CombNumericBuiltin:
		return dt.IsNumeric() && reg != nil
	case CombFunction:
		ft := c.Func.Type()
		if ft.Kind != types.Function || len(ft.Elements) == 0 {
			return false
		}
		retShape, retDt, ok := ft.Return.TensorTypeOf()
		return ok && retShape.IsScalar() && retDt.Equal(dt)
	default:
		return false
	}
}
