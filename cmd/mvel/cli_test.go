package main

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"

	mvel "github.com/mvel/mvel-sub010"
	"github.com/mvel/mvel-sub010/errors"
	"github.com/mvel/mvel-sub010/parser"
)

func TestParseVars(t *testing.T) {
	vars, err := parseVars(`{"x": 2, "y": 1.5, "list": [1, 2], "m": {"k": 3}}`)
	require.Nil(t, err)
	require.Equal(t, 2, vars["x"])
	require.Equal(t, 1.5, vars["y"])
	require.Equal(t, []any{1, 2}, vars["list"])
	require.Equal(t, map[string]any{"k": 3}, vars["m"])

	vars, err = parseVars("  ")
	require.Nil(t, err)
	require.Empty(t, vars)

	_, err = parseVars("{")
	require.NotNil(t, err)
}

func TestGetOutput(t *testing.T) {
	out, err := getOutput(nil, "", false)
	require.Nil(t, err)
	require.Equal(t, "", out)

	out, err = getOutput(map[string]any{"a": 1}, "json", false)
	require.Nil(t, err)
	require.JSONEq(t, `{"a": 1}`, out)

	out, err = getOutput(42, "text", false)
	require.Nil(t, err)
	require.Equal(t, "42", out)

	_, err = getOutput(1, "yaml", false)
	require.NotNil(t, err)
}

func TestFormatError(t *testing.T) {
	_, err := mvel.NewEngine().Compile("break")
	require.NotNil(t, err)
	out := formatError(err, false)
	require.Contains(t, out, "E2002")
}

func TestLoadConfig(t *testing.T) {
	viper.Reset()
	defer viper.Reset()
	viper.Set("promotion_threshold", 7)
	viper.Set("null_safety", true)
	cfg, err := loadConfig()
	require.Nil(t, err)
	require.Equal(t, uint(7), cfg.PromotionThreshold)
	require.True(t, cfg.NullSafetyDefault)
	require.Equal(t, uint(10000), cfg.TenureLimit)
}

func TestFormatProgram(t *testing.T) {
	prog, err := parser.Parse(context.Background(), "x = 1\nfoo.bar")
	require.Nil(t, err)
	out := formatProgram(prog)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	require.Contains(t, lines[0], "Assign")
	require.Contains(t, lines[1], "foo.bar")
}

func TestRunBench(t *testing.T) {
	engine := mvel.NewEngine(mvel.WithPromotionThreshold(5))
	result, err := runBench(engine, "x * 2", `{"x": 3}`, 10, 20)
	require.Nil(t, err)
	require.Equal(t, 20, result.Iterations)
	require.Equal(t, 1, result.Stats.Live)
	require.LessOrEqual(t, result.MinNs, result.MaxNs)
}

func request(srv *server, method, path, body string) *fasthttp.RequestCtx {
	var ctx fasthttp.RequestCtx
	ctx.Request.Header.SetMethod(method)
	ctx.Request.SetRequestURI(path)
	ctx.Request.SetBodyString(body)
	srv.handle(&ctx)
	return &ctx
}

func TestServeEval(t *testing.T) {
	srv := newServer(mvel.NewEngine(), zerolog.Nop())

	ctx := request(srv, "POST", "/eval", `{"expr": "x + y", "vars": {"x": 1}, "root": {"y": 2}}`)
	require.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())
	var resp evalResponse
	require.Nil(t, json.Unmarshal(ctx.Response.Body(), &resp))
	require.Equal(t, float64(3), resp.Value)

	ctx = request(srv, "POST", "/eval", `{"expr": "missing.x"}`)
	require.Equal(t, fasthttp.StatusUnprocessableEntity, ctx.Response.StatusCode())
	resp = evalResponse{}
	require.Nil(t, json.Unmarshal(ctx.Response.Body(), &resp))
	require.Equal(t, string(errors.KindUnresolvedVariable.Code()), resp.Code)

	ctx = request(srv, "POST", "/eval", `not json`)
	require.Equal(t, fasthttp.StatusBadRequest, ctx.Response.StatusCode())

	ctx = request(srv, "GET", "/eval", "")
	require.Equal(t, fasthttp.StatusMethodNotAllowed, ctx.Response.StatusCode())

	ctx = request(srv, "GET", "/nope", "")
	require.Equal(t, fasthttp.StatusNotFound, ctx.Response.StatusCode())

	require.Equal(t, "4", srv.counters.Get("requests").String())
	require.Equal(t, "1", srv.counters.Get("failures").String())
}

func TestServeDeoptimize(t *testing.T) {
	engine := mvel.NewEngine()
	srv := newServer(engine, zerolog.Nop())
	ctx := request(srv, "POST", "/deoptimize", "")
	require.Equal(t, fasthttp.StatusNoContent, ctx.Response.StatusCode())
	require.Equal(t, uint64(1), engine.Stats().Epoch)
}

func TestCheckOverload(t *testing.T) {
	engine := mvel.NewEngine(mvel.WithPromotionThreshold(1), mvel.WithTenureLimit(1))
	srv := newServer(engine, zerolog.Nop())
	srv.checkOverload()
	require.Nil(t, srv.counters.Get("reclaims"))

	_, err := engine.Eval(context.Background(), "a + b", nil, map[string]any{"a": 1, "b": 2})
	require.Nil(t, err)
	require.True(t, engine.Controller().Overloaded())

	srv.checkOverload()
	require.False(t, engine.Controller().Overloaded())
	require.Equal(t, "1", srv.counters.Get("reclaims").String())
}
