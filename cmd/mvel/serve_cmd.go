package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"expvar"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/expvarhandler"

	mvel "github.com/mvel/mvel-sub010"
	mvelerrors "github.com/mvel/mvel-sub010/errors"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve expression evaluation over HTTP",
	Long: `Serve expression evaluation over HTTP.

  POST /eval         {"expr": "x + 1", "vars": {"x": 1}, "root": {...}}
  POST /deoptimize   return every compiled site to the interpreter
  GET  /stats        expvar counters, including tiering statistics`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, _ := cmd.Flags().GetString("addr")
		interval, _ := cmd.Flags().GetDuration("check-interval")

		engine, err := newEngine()
		if err != nil {
			return err
		}
		logger := newLogger()
		srv := newServer(engine, logger)
		expvar.Publish("mvel", expvar.Func(func() any { return engine.Stats() }))
		expvar.Publish("mvel_http", srv.counters)

		scheduler, err := gocron.NewScheduler()
		if err != nil {
			return err
		}
		job, err := scheduler.NewJob(
			gocron.DurationJob(interval),
			gocron.NewTask(srv.checkOverload),
		)
		if err != nil {
			return err
		}
		logger.Debug().Str("job", job.ID().String()).Dur("interval", interval).Msg("scheduled overload check")
		scheduler.Start()
		defer scheduler.Shutdown()

		server := &fasthttp.Server{
			Handler:      srv.handle,
			Name:         "mvel",
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
		}
		logger.Info().Str("addr", addr).Msg("listening")
		return server.ListenAndServe(addr)
	},
}

func init() {
	f := serveCmd.Flags()
	f.String("addr", ":8080", "Address to listen on")
	f.Duration("check-interval", 30*time.Second, "How often to check the optimizer for overload")
}

type evalRequest struct {
	Expr string         `json:"expr"`
	Vars map[string]any `json:"vars"`
	Root any            `json:"root"`
}

type evalResponse struct {
	Value any    `json:"value,omitempty"`
	Error string `json:"error,omitempty"`
	Code  string `json:"code,omitempty"`
}

type server struct {
	engine   *mvel.Engine
	logger   zerolog.Logger
	counters *expvar.Map
}

func newServer(engine *mvel.Engine, logger zerolog.Logger) *server {
	return &server{
		engine:   engine,
		logger:   logger,
		counters: new(expvar.Map).Init(),
	}
}

func (s *server) handle(ctx *fasthttp.RequestCtx) {
	switch string(ctx.Path()) {
	case "/eval":
		s.handleEval(ctx)
	case "/deoptimize":
		if !ctx.IsPost() {
			ctx.Error("method not allowed", fasthttp.StatusMethodNotAllowed)
			return
		}
		s.engine.Deoptimize()
		ctx.SetStatusCode(fasthttp.StatusNoContent)
	case "/stats":
		expvarhandler.ExpvarHandler(ctx)
	default:
		ctx.Error("not found", fasthttp.StatusNotFound)
	}
}

func (s *server) handleEval(ctx *fasthttp.RequestCtx) {
	s.counters.Add("requests", 1)
	if !ctx.IsPost() {
		ctx.Error("method not allowed", fasthttp.StatusMethodNotAllowed)
		return
	}
	var req evalRequest
	dec := json.NewDecoder(bytes.NewReader(ctx.PostBody()))
	dec.UseNumber()
	if err := dec.Decode(&req); err != nil {
		s.reply(ctx, fasthttp.StatusBadRequest, evalResponse{Error: "invalid request: " + err.Error()})
		return
	}
	vars := map[string]any{}
	for k, v := range req.Vars {
		vars[k] = normalizeJSON(v)
	}
	value, err := s.engine.Eval(context.Background(), req.Expr, normalizeJSON(req.Root), vars)
	if err != nil {
		s.counters.Add("failures", 1)
		resp := evalResponse{Error: err.Error()}
		var evalErr *mvelerrors.EvaluationError
		var compileErr *mvelerrors.CompileError
		switch {
		case errors.As(err, &compileErr):
			resp.Code = string(compileErr.Code)
		case errors.As(err, &evalErr):
			resp.Code = string(evalErr.Kind.Code())
		}
		s.reply(ctx, fasthttp.StatusUnprocessableEntity, resp)
		return
	}
	s.reply(ctx, fasthttp.StatusOK, evalResponse{Value: value})
}

func (s *server) reply(ctx *fasthttp.RequestCtx, status int, resp evalResponse) {
	body, err := json.Marshal(resp)
	if err != nil {
		ctx.Error(err.Error(), fasthttp.StatusInternalServerError)
		return
	}
	ctx.SetStatusCode(status)
	ctx.SetContentType("application/json")
	ctx.SetBody(body)
}

// checkOverload returns the engine to the interpreter once it has compiled
// more sites than its tenure limit allows.
func (s *server) checkOverload() {
	if !s.engine.Controller().Overloaded() {
		return
	}
	stats := s.engine.Stats()
	s.logger.Warn().
		Uint64("compiled", stats.Compiled).
		Int("live", stats.Live).
		Msg("optimizer overloaded, reclaiming compiled sites")
	s.engine.Controller().Reclaim()
	s.counters.Add("reclaims", 1)
}
