package mvel

import (
	"context"
	"testing"
)

type benchOrder struct {
	Customer *Customer
	Lines    []map[string]any
}

func benchmarkExpr(b *testing.B, engine *Engine, source string, root any, vars map[string]any) {
	expr, err := engine.Compile(source)
	if err != nil {
		b.Fatal(err)
	}
	ctx := context.Background()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := expr.Eval(ctx, root, vars); err != nil {
			b.Fatal(err)
		}
	}
}

func benchOrderRoot() *benchOrder {
	return &benchOrder{
		Customer: &Customer{Name: "ann", Balance: 120},
		Lines: []map[string]any{
			{"sku": "a", "qty": 2},
			{"sku": "b", "qty": 5},
		},
	}
}

func BenchmarkPropertyChainInterpreted(b *testing.B) {
	engine := NewEngine()
	engine.Controller().DisablePromotion()
	benchmarkExpr(b, engine, "customer.name.length() + lines[1].qty", benchOrderRoot(), nil)
}

func BenchmarkPropertyChainCompiled(b *testing.B) {
	engine := NewEngine(WithPromotionThreshold(1))
	benchmarkExpr(b, engine, "customer.name.length() + lines[1].qty", benchOrderRoot(), nil)
}

func BenchmarkArithmetic(b *testing.B) {
	benchmarkExpr(b, NewEngine(), "(x + y) * 2 - x / 3", nil, map[string]any{"x": 9, "y": 4})
}

func BenchmarkProjection(b *testing.B) {
	benchmarkExpr(b, NewEngine(), "(sku in lines if qty > 1)", benchOrderRoot(), nil)
}

func BenchmarkLoop(b *testing.B) {
	benchmarkExpr(b, NewEngine(), "var t = 0; foreach (i : 100) { t += i }; t", nil, nil)
}
