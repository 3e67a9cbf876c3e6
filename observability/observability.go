package observability

import (
	"fmt"
	"io"
	"strings"
	"sync"
)

type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
	With(fields ...Field) Logger
}

type Field interface {
	Key() string
	Value() interface{}
}

type stringField struct{ key, val string }

func (f stringField) Key() string        { return f.key }
func (f stringField) Value() interface{} { return f.val }

type intField struct {
	key string
	val int
}

func (f intField) Key() string        { return f.key }
func (f intField) Value() interface{} { return f.val }

type int64Field struct {
	key string
	val int64
}

func (f int64Field) Key() string        { return f.key }
func (f int64Field) Value() interface{} { return f.val }

type errorField struct {
	key string
	err error
}

func (f errorField) Key() string        { return f.key }
func (f errorField) Value() interface{} { return f.err }

func String(key, value string) Field      { return stringField{key, value} }
func Int(key string, value int) Field     { return intField{key, value} }
func Int64(key string, value int64) Field { return int64Field{key, value} }
func Error(key string, err error) Field   { return errorField{key, err} }

type NopLogger struct{}

func (NopLogger) Debug(string, ...Field) {}
func (NopLogger) Info(string, ...Field)  {}
func (NopLogger) Warn(string, ...Field)  {}
func (NopLogger) Error(string, ...Field) {}
func (NopLogger) With(...Field) Logger   { return NopLogger{} }

// TextLogger writes one line per entry to an io.Writer. It is the sink the
// CLI uses for its status output.
type TextLogger struct {
	mu      sync.Mutex
	w       io.Writer
	verbose bool
	fields  []Field
}

// NewTextLogger returns a TextLogger writing to w. Debug entries are
// dropped unless verbose is set.
func NewTextLogger(w io.Writer, verbose bool) *TextLogger {
	return &TextLogger{w: w, verbose: verbose}
}

func (l *TextLogger) Debug(msg string, fields ...Field) {
	if l.verbose {
		l.emit("DEBUG", msg, fields)
	}
}
func (l *TextLogger) Info(msg string, fields ...Field)  { l.emit("INFO", msg, fields) }
func (l *TextLogger) Warn(msg string, fields ...Field)  { l.emit("WARN", msg, fields) }
func (l *TextLogger) Error(msg string, fields ...Field) { l.emit("ERROR", msg, fields) }

func (l *TextLogger) With(fields ...Field) Logger {
	child := &TextLogger{w: l.w, verbose: l.verbose}
	child.fields = append(append([]Field{}, l.fields...), fields...)
	return child
}

func (l *TextLogger) emit(level, msg string, fields []Field) {
	var b strings.Builder
	b.WriteString(level)
	b.WriteByte(' ')
	b.WriteString(msg)
	for _, f := range append(l.fields, fields...) {
		fmt.Fprintf(&b, " %s=%v", f.Key(), f.Value())
	}
	b.WriteByte('\n')
	l.mu.Lock()
	io.WriteString(l.w, b.String())
	l.mu.Unlock()
}

// FuncLogger forwards each formatted line to a callback. Front-ends that
// own their display (the TUI log pane) use this instead of an io.Writer.
type FuncLogger struct {
	Fn      func(line string)
	Verbose bool
	fields  []Field
}

func (l *FuncLogger) Debug(msg string, fields ...Field) {
	if l.Verbose {
		l.call(msg, fields)
	}
}
func (l *FuncLogger) Info(msg string, fields ...Field)  { l.call(msg, fields) }
func (l *FuncLogger) Warn(msg string, fields ...Field)  { l.call("warning: "+msg, fields) }
func (l *FuncLogger) Error(msg string, fields ...Field) { l.call("error: "+msg, fields) }

func (l *FuncLogger) With(fields ...Field) Logger {
	return &FuncLogger{
		Fn:      l.Fn,
		Verbose: l.Verbose,
		fields:  append(append([]Field{}, l.fields...), fields...),
	}
}

func (l *FuncLogger) call(msg string, fields []Field) {
	if l.Fn == nil {
		return
	}
	var b strings.Builder
	b.WriteString(msg)
	for _, f := range append(l.fields, fields...) {
		fmt.Fprintf(&b, " %s=%v", f.Key(), f.Value())
	}
	l.Fn(b.String())
}

// Standard metric names emitted by the pipeline.
const (
	MetricFilesCollected = "combine.files.count"
	MetricSlidesAdded    = "combine.slides.count"
	MetricShapesSkipped  = "combine.shapes.skipped"
	MetricRenderTime     = "raster.render.duration"
	MetricSaveTime       = "deck.save.duration"
)
