package logging

import (
	"fmt"
	"sort"
	"strings"

	log "github.com/sirupsen/logrus"
)

// CommandLineFormatter prints the bare message, followed by any fields as key=value pairs.
// Meant for interactive use, where timestamps and levels are noise.
type CommandLineFormatter struct {
	// Prefix warnings and errors with their level.
	ShowLevel bool
}

func (f *CommandLineFormatter) Format(entry *log.Entry) ([]byte, error) {
	var sb strings.Builder
	if f.ShowLevel && entry.Level <= log.WarnLevel {
		sb.WriteString(strings.ToUpper(entry.Level.String()))
		sb.WriteString(": ")
	}
	sb.WriteString(entry.Message)

	keys := make([]string, 0, len(entry.Data))
	for k := range entry.Data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&sb, " %s=%v", k, entry.Data[k])
	}
	sb.WriteString("\n")
	return []byte(sb.String()), nil
}
