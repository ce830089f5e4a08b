package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"

	"github.com/nishad/sradb/internal/ui"
)

var (
	red    = color.New(color.FgRed).SprintFunc()
	green  = color.New(color.FgGreen).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	cyan   = color.New(color.FgCyan).SprintFunc()
	gray   = color.New(color.FgHiBlack).SprintFunc()
	bold   = color.New(color.Bold).SprintFunc()
)

// Print error message in user-friendly format
func printError(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintf(os.Stderr, "%s %s\n", red("✗"), msg)
}

// Print success message
func printSuccess(format string, args ...interface{}) {
	if !quiet {
		msg := fmt.Sprintf(format, args...)
		fmt.Fprintf(os.Stderr, "%s %s\n", green("✓"), msg)
	}
}

// Print info message. Info goes to stderr so stdout stays a clean table.
func printInfo(format string, args ...interface{}) {
	if !quiet {
		msg := fmt.Sprintf(format, args...)
		fmt.Fprintln(os.Stderr, cyan(msg))
	}
}

// Print warning message
func printWarning(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintf(os.Stderr, "%s %s\n", yellow("⚠"), msg)
}

// Print debug message
func printDebug(format string, args ...interface{}) {
	if debug {
		msg := fmt.Sprintf(format, args...)
		fmt.Fprintf(os.Stderr, "%s %s\n", gray("[DEBUG]"), msg)
	}
}

// Helper function to read accessions from file or stdin. Blank lines and
// # comments are skipped; a line may hold several whitespace separated IDs.
func readAccessionsFromReader(r io.Reader) ([]string, error) {
	accessions := make([]string, 0)
	scanner := bufio.NewScanner(r)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		accessions = append(accessions, strings.Fields(line)...)
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return accessions, nil
}

// Helper function to read accessions from file
func readAccessionFile(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return readAccessionsFromReader(file)
}

// stdinPiped reports whether stdin carries data rather than a terminal.
func stdinPiped() bool {
	return !ui.IsTerminal(os.Stdin)
}

// collectIDs gathers identifiers from arguments, a --batch file and piped
// stdin, in that order. Stdin is only read when nothing else was given.
func collectIDs(args []string, batch string) ([]string, error) {
	ids := append([]string(nil), args...)

	if batch != "" {
		batchIDs, err := readAccessionFile(batch)
		if err != nil {
			return nil, fmt.Errorf("failed to read batch file: %w", err)
		}
		ids = append(ids, batchIDs...)
	}

	if len(ids) == 0 && stdinPiped() {
		printDebug("Reading accessions from stdin")
		stdinIDs, err := readAccessionsFromReader(os.Stdin)
		if err != nil {
			return nil, fmt.Errorf("failed to read from stdin: %w", err)
		}
		ids = stdinIDs
	}
	return ids, nil
}
