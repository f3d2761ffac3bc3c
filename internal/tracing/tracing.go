// Package tracing wires an optional Jaeger tracer into the opentracing
// spans internal/pipeline.Stage.Run and internal/pipeline.JoinStage.Run
// already start via opentracing.StartSpanFromContext (mirroring
// cmd/searcher/search/matcher.go's own use of that call). Without this
// package those spans run against opentracing's no-op global tracer; with
// it, set via AMBERGREP_JAEGER_AGENT, they're reported to a real Jaeger
// agent.
package tracing

import (
	"os"

	opentracing "github.com/opentracing/opentracing-go"
	jaegercfg "github.com/uber/jaeger-client-go/config"
)

// EnvAgentAddr names the environment variable that turns tracing on. Its
// value is a Jaeger agent host:port, e.g. "localhost:6831".
const EnvAgentAddr = "AMBERGREP_JAEGER_AGENT"

// Setup installs a Jaeger tracer as the opentracing global tracer when
// EnvAgentAddr is set, and returns a cleanup func to flush and close it.
// When the variable is unset, Setup is a no-op: spans still work, they
// just go nowhere, which is the existing behaviour.
func Setup(serviceName string) (func(), error) {
	agentAddr := os.Getenv(EnvAgentAddr)
	if agentAddr == "" {
		return func() {}, nil
	}

	cfg := jaegercfg.Configuration{
		ServiceName: serviceName,
		Sampler: &jaegercfg.SamplerConfig{
			Type:  "const",
			Param: 1,
		},
		Reporter: &jaegercfg.ReporterConfig{
			LocalAgentHostPort: agentAddr,
			LogSpans:           false,
		},
	}

	tracer, closer, err := cfg.NewTracer()
	if err != nil {
		return nil, err
	}
	opentracing.SetGlobalTracer(tracer)

	return func() {
		_ = closer.Close()
	}, nil
}
