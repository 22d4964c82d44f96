package cli

import (
	"fmt"
	"time"

	"github.com/fatih/color"
	"go.uber.org/zap"

	"github.com/hamed0406/online/internal/domain"
)

var (
	green  = color.New(color.FgGreen).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	bold   = color.New(color.Bold).SprintFunc()
	faint  = color.New(color.Faint).SprintFunc()
)

// resultLine renders one check:
//
//	✔ primary	1.2ms	clients3.google.com:80
//	✘ timed_out	5s	(offline: probe clients3.google.com:80: connect timed out)
func resultLine(cr domain.CheckResult) string {
	latency := time.Duration(cr.LatencyMS * float64(time.Millisecond)).Round(10 * time.Microsecond)
	if cr.Online {
		return fmt.Sprintf("%s %s\t%s\t%s", green("✔"), bold(cr.Role), latency, cr.Target)
	}
	kind := cr.Kind
	if kind == "" {
		kind = "offline"
	}
	return fmt.Sprintf("%s %s\t%s\t%s", red("✘"), bold(kind), latency, faint("("+cr.Reason+")"))
}

// logStrings turns key/value pairs into zap fields.
func logStrings(kv ...string) []zap.Field {
	fields := make([]zap.Field, 0, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		fields = append(fields, zap.String(kv[i], kv[i+1]))
	}
	return fields
}
