package utils

import (
	"math"
	"reflect"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func genPoint() gopter.Gen {
	return gopter.CombineGens(
		gen.Float64Range(-500, 500),
		gen.Float64Range(-500, 500),
	).Map(func(vals []interface{}) Point {
		return Point{X: vals[0].(float64), Y: vals[1].(float64)}
	})
}

func genContour() gopter.Gen {
	return gen.IntRange(3, 30).FlatMap(func(n interface{}) gopter.Gen {
		return gen.SliceOfN(n.(int), genPoint())
	}, reflect.TypeOf([]Point{}))
}

// TestSimplifyPolygon_Subset verifies simplification only drops vertices.
func TestSimplifyPolygon_Subset(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("output is an ordered subset of the input", prop.ForAll(
		func(pts []Point, eps float64) bool {
			out := SimplifyPolygon(pts, eps)
			if len(out) == 0 || len(out) > len(pts) {
				return false
			}
			j := 0
			for _, p := range out {
				for j < len(pts) && pts[j] != p {
					j++
				}
				if j == len(pts) {
					return false
				}
				j++
			}
			return true
		},
		genContour(),
		gen.Float64Range(0.1, 50),
	))

	properties.TestingRun(t)
}

// TestPolygonArea_TranslationInvariant verifies moving a polygon keeps its
// area and perimeter.
func TestPolygonArea_TranslationInvariant(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("area and perimeter survive translation", prop.ForAll(
		func(pts []Point, d Point) bool {
			moved := make([]Point, len(pts))
			for i, p := range pts {
				moved[i] = Point{X: p.X + d.X, Y: p.Y + d.Y}
			}
			tol := 1e-6 * (1 + PolygonArea(pts))
			return math.Abs(PolygonArea(pts)-PolygonArea(moved)) <= tol &&
				math.Abs(Perimeter(pts)-Perimeter(moved)) <= 1e-6*(1+Perimeter(pts)) &&
				Perimeter(pts) >= 0
		},
		genContour(),
		genPoint(),
	))

	properties.TestingRun(t)
}
