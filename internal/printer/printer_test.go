package printer_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"tenir/internal/parser"
	"tenir/internal/printer"
)

// roundTrip parses source, prints it, reparses the printed form, and
// prints again -- asserting the second print is a fixed point of the
// first (parse(print(m)) produces a module that prints identically),
// which is the round-trip property the printer package exists to
// satisfy.
func roundTrip(t *testing.T, source string) string {
	t.Helper()
	mod, err := parser.Parse("t.ir", source)
	require.NoError(t, err)

	first := printer.Print(mod)

	reparsed, err := parser.Parse("t.ir", first)
	require.NoError(t, err, "printed output did not reparse:\n%s", first)

	second := printer.Print(reparsed)
	require.Equal(t, first, second, "print was not a fixed point")
	return first
}

func TestRoundTripMinimalModule(t *testing.T) {
	roundTrip(t, `module "empty"
stage raw
`)
}

func TestRoundTripNamedFunction(t *testing.T) {
	roundTrip(t, `module "m"
stage raw

func @double(tensor<i32>) -> tensor<i32>
'entry(%x: tensor<i32>):
  %y = add %x : tensor<i32>, %x : tensor<i32>
  return %y : tensor<i32>
`)
}

func TestRoundTripAnonymousLocals(t *testing.T) {
	roundTrip(t, `module "m"
stage raw

func @0(tensor<i32>) -> tensor<i32>
'0(%0^0: tensor<i32>):
  neg %0^0 : tensor<i32>
  return %0.0 : tensor<i32>
`)
}

func TestRoundTripGlobalsAndAnonymousGlobals(t *testing.T) {
	roundTrip(t, `module "m"
stage raw

var @count : tensor<i32>
var @1 : tensor<i32>

func @2(tensor<i32>) -> tensor<i32>
'entry(%x: tensor<i32>):
  return %x : tensor<i32>
`)
}

func TestRoundTripAttributesAndExternFunc(t *testing.T) {
	roundTrip(t, `module "m"
stage raw

!inline !noalias func @f(tensor<i32>) -> tensor<i32>
'entry(%x: tensor<i32>):
  return %x : tensor<i32>

extern func @g(tensor<i32>) -> tensor<i32>
`)
}

func TestRoundTripAdjointDeclaration(t *testing.T) {
	roundTrip(t, `module "m"
stage raw

func @primal(tensor<i32>) -> tensor<i32>
'entry(%x: tensor<i32>):
  return %x : tensor<i32>

func @primal_grad(tensor<i32>, tensor<i32>) -> tensor<i32> adjoint @primal output 0 wrt [0] keep [] seedable
`)
}

func TestRoundTripNominalTypes(t *testing.T) {
	roundTrip(t, `module "m"
stage raw

struct $Point { #x: tensor<f32>, #y: tensor<f32> }
enum $Option { ?none, ?some(tensor<f32>) }
alias $Scalar = tensor<f32>

func @dist(tensor<f32>) -> tensor<f32>
'entry(%p: tensor<f32>):
  return %p : tensor<f32>
`)
}

func TestRoundTripNegativeScalarLiteral(t *testing.T) {
	out := roundTrip(t, `module "m"
stage raw

func @neg() -> tensor<i32>
'entry:
  %x = literal -5 : tensor<i32>
  return %x : tensor<i32>
`)
	require.Contains(t, out, "literal -5 : tensor<i32>")
}

func TestRoundTripNegativeFloatLiteralAlwaysHasDecimalPoint(t *testing.T) {
	out := roundTrip(t, `module "m"
stage raw

func @neg() -> tensor<f32>
'entry:
  %x = literal -2.5 : tensor<f32>
  return %x : tensor<f32>
`)
	require.Contains(t, out, "literal -2.5 : tensor<f32>")
}

func TestRoundTripMultiBlockBranching(t *testing.T) {
	roundTrip(t, `module "m"
stage raw

func @pick(tensor<bool>, tensor<i32>, tensor<i32>) -> tensor<i32>
'entry(%c: tensor<bool>, %a: tensor<i32>, %b: tensor<i32>):
  conditional %c : tensor<bool>, 'left(%a : tensor<i32>), 'right(%b : tensor<i32>)
'left(%lv: tensor<i32>):
  branch 'join(%lv : tensor<i32>)
'right(%rv: tensor<i32>):
  branch 'join(%rv : tensor<i32>)
'join(%v: tensor<i32>):
  return %v : tensor<i32>
`)
}
