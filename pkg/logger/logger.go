// ==============================================================================
// LOGGER PACKAGE - pkg/logger/logger.go
// ==============================================================================
package logger

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"rtgssim/pkg/domain"
)

type Logger interface {
	Info(message string, fields map[string]interface{})
	Error(message string, fields map[string]interface{})
	Warn(message string, fields map[string]interface{})
	Debug(message string, fields map[string]interface{})
	Fatal(message string, fields map[string]interface{})
}

type jsonLogger struct {
	serviceName string
	logger      *log.Logger
}

func New(serviceName string) Logger {
	return &jsonLogger{
		serviceName: serviceName,
		logger:      log.New(os.Stdout, "", 0),
	}
}

func (l *jsonLogger) log(level, message string, fields map[string]interface{}) {
	entry := map[string]interface{}{
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"level":     level,
		"service":   l.serviceName,
		"message":   message,
	}

	for k, v := range fields {
		switch val := v.(type) {
		case decimal.Decimal:
			entry[k] = val.String()
		case *decimal.Decimal:
			if val != nil {
				entry[k] = val.String()
			} else {
				entry[k] = "0"
			}
		case fmt.Stringer:
			entry[k] = val.String()
		case error:
			entry[k] = val.Error()
		default:
			entry[k] = v
		}
	}

	jsonData, err := json.Marshal(entry)
	if err != nil {
		l.logger.Printf("JSON marshal error: %v", err)
		return
	}
	l.logger.Println(string(jsonData))
}

func (l *jsonLogger) Info(message string, fields map[string]interface{}) {
	l.log("info", message, fields)
}

func (l *jsonLogger) Error(message string, fields map[string]interface{}) {
	l.log("error", message, fields)
}

func (l *jsonLogger) Warn(message string, fields map[string]interface{}) {
	l.log("warn", message, fields)
}

func (l *jsonLogger) Debug(message string, fields map[string]interface{}) {
	l.log("debug", message, fields)
}

func (l *jsonLogger) Fatal(message string, fields map[string]interface{}) {
	l.log("fatal", message, fields)
	os.Exit(1)
}

// WithTick returns a Logger that stamps every call with tick, so a
// collaborator driving the per-tick simulation loop doesn't have to pass
// tick into every individual log field map by hand (every domain.Event
// is itself tick-indexed, spec.md §3 and §6).
func WithTick(l Logger, tick int64) Logger {
	return &tickLogger{Logger: l, tick: tick}
}

type tickLogger struct {
	Logger
	tick int64
}

func (l *tickLogger) stamped(fields map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(fields)+1)
	for k, v := range fields {
		out[k] = v
	}
	out["tick"] = l.tick
	return out
}

func (l *tickLogger) Info(message string, fields map[string]interface{}) {
	l.Logger.Info(message, l.stamped(fields))
}

func (l *tickLogger) Error(message string, fields map[string]interface{}) {
	l.Logger.Error(message, l.stamped(fields))
}

func (l *tickLogger) Warn(message string, fields map[string]interface{}) {
	l.Logger.Warn(message, l.stamped(fields))
}

func (l *tickLogger) Debug(message string, fields map[string]interface{}) {
	l.Logger.Debug(message, l.stamped(fields))
}

func (l *tickLogger) Fatal(message string, fields map[string]interface{}) {
	l.Logger.Fatal(message, l.stamped(fields))
}

// EventFields flattens whichever identifying fields ev actually carries
// into a log field map, so a collaborator logging around a domain.Event
// doesn't have to know which of its many optional fields apply to
// ev.EventType (spec.md §6's event table: every EventType uses a
// different subset).
func EventFields(ev domain.Event) map[string]interface{} {
	fields := map[string]interface{}{"event_type": string(ev.EventType)}
	if ev.AgentID != "" {
		fields["agent_id"] = ev.AgentID
	}
	if ev.SenderID != "" {
		fields["sender_id"] = ev.SenderID
	}
	if ev.ReceiverID != "" {
		fields["receiver_id"] = ev.ReceiverID
	}
	if ev.TxID != uuid.Nil {
		fields["tx_id"] = ev.TxID.String()
	}
	return fields
}

func NewNop() Logger {
	return &nopLogger{}
}

type nopLogger struct{}

func (l *nopLogger) Info(message string, fields map[string]interface{})  {}
func (l *nopLogger) Error(message string, fields map[string]interface{}) {}
func (l *nopLogger) Warn(message string, fields map[string]interface{})  {}
func (l *nopLogger) Debug(message string, fields map[string]interface{}) {}
func (l *nopLogger) Fatal(message string, fields map[string]interface{}) {}
