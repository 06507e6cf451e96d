package ui

import (
	"fmt"
	"os"
)

// VerbWidth is the fixed width for right-aligned action verbs in status lines.
const VerbWidth = 10

// Verbosity and QuietMode control what gets printed. Set by main from
// CLI options.
var (
	Verbose   bool
	QuietMode bool
)

// SetVerbose enables detail output (-v).
func SetVerbose(v bool) {
	Verbose = v
}

// SetQuietMode suppresses status output (-q).
func SetQuietMode(q bool) {
	QuietMode = q
}

func statusLine(verb, detail string) string {
	styled := AccentStyle.Render(fmt.Sprintf("%*s", VerbWidth, verb))
	return fmt.Sprintf("%s  %s", styled, detail)
}

// Status prints a status line with a right-aligned verb and detail to
// stderr. Suppressed in quiet mode.
func Status(verb, detail string) {
	if QuietMode {
		return
	}
	fmt.Fprintln(os.Stderr, statusLine(verb, detail))
}

// Detail prints a status line only in verbose mode.
func Detail(verb, detail string) {
	if QuietMode || !Verbose {
		return
	}
	fmt.Fprintln(os.Stderr, statusLine(verb, detail))
}

// Result writes scriptable output to stdout. Always prints, even in
// quiet mode.
func Result(s string) {
	fmt.Fprintln(os.Stdout, s)
}

// WarningStatus prints a warning-colored verb-prefix line to stderr.
// Shown even in quiet mode.
func WarningStatus(verb, detail string) {
	styled := WarningStyle.Render(fmt.Sprintf("%*s", VerbWidth, verb))
	fmt.Fprintf(os.Stderr, "%s  %s\n", styled, detail)
}

// ErrorStatus prints an error-colored verb-prefix line to stderr.
// Shown even in quiet mode.
func ErrorStatus(verb, detail string) {
	styled := ErrorStyle.Render(fmt.Sprintf("%*s", VerbWidth, verb))
	fmt.Fprintf(os.Stderr, "%s  %s\n", styled, detail)
}
