package vm

import "github.com/tliron/commonlog"

// LogTracer adapts a commonlog.Logger into a Tracer, emitting one debug
// record per executed instruction. Wired in by cmd/gvm's --debug flag;
// a VM with Trace == nil pays nothing for tracing and behaves identically.
type LogTracer struct {
	Log commonlog.Logger
}

// NewLogTracer returns a LogTracer writing to the named commonlog logger.
func NewLogTracer(name string) LogTracer {
	return LogTracer{Log: commonlog.GetLogger(name)}
}

// Trace implements Tracer.
func (t LogTracer) Trace(pc uint64, text string, term Term, r uint64) {
	t.Log.Debugf("pc=%05d %-24s term=%s r=%d", pc, text, term, r)
}
