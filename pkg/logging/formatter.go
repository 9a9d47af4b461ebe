// Package logging renders pipeline progress for humans.
package logging

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
)

// StepField marks an entry as the start of a pipeline step.
const StepField = "step"

// BulletFormatter prints pipeline progress as indented bullets.
//
// Entries carrying a "step" field start a top-level bullet:
//
//	• jpackage
//
// Info-level entries are nested under the current step:
//
//	    • running jpackage --type deb
//
// Warnings and errors get their own markers:
//
//	    ! runtime executable keytool not found
//	  ⨯ notarize: notarization rejected
//
// Remaining fields are appended as sorted key=value pairs.
type BulletFormatter struct {
	// DisableMarkers swaps the unicode markers for ASCII ("*", "x").
	DisableMarkers bool
}

func (f *BulletFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	var buf bytes.Buffer

	bullet, errMark := "•", "⨯"
	if f.DisableMarkers {
		bullet, errMark = "*", "x"
	}

	if step, ok := entry.Data[StepField]; ok {
		fmt.Fprintf(&buf, "  %s %v%s", bullet, step, formatFields(entry.Data, StepField))
		buf.WriteByte('\n')
		return buf.Bytes(), nil
	}

	switch entry.Level {
	case logrus.PanicLevel, logrus.FatalLevel, logrus.ErrorLevel:
		fmt.Fprintf(&buf, "  %s %s", errMark, entry.Message)
	case logrus.WarnLevel:
		fmt.Fprintf(&buf, "    ! %s", entry.Message)
	case logrus.InfoLevel:
		fmt.Fprintf(&buf, "    %s %s", bullet, entry.Message)
	default:
		// debug normally goes through TextFormatter
		fmt.Fprintf(&buf, "      %s", entry.Message)
	}
	buf.WriteString(formatFields(entry.Data))
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

// formatFields renders fields other than skip as "  k=v k=v", sorted by key.
func formatFields(fields logrus.Fields, skip ...string) string {
	keys := make([]string, 0, len(fields))
outer:
	for k := range fields {
		for _, s := range skip {
			if k == s {
				continue outer
			}
		}
		keys = append(keys, k)
	}
	if len(keys) == 0 {
		return ""
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%v", k, fields[k])
	}
	return "  " + strings.Join(parts, " ")
}

// New returns a logger writing bullets, or timestamped text when debug is set.
func New(debug bool) *logrus.Logger {
	logger := logrus.New()
	if debug {
		logger.SetLevel(logrus.DebugLevel)
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
		return logger
	}
	logger.SetFormatter(&BulletFormatter{})
	return logger
}
