// Package ui holds the small pieces of terminal interaction sradb needs:
// colour detection, spinners and confirmation prompts.
package ui

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

// IsTerminal reports whether w is an interactive terminal.
func IsTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// ColorEnabled reports whether escape sequences may be written to w.
func ColorEnabled(w io.Writer) bool {
	return !color.NoColor && os.Getenv("NO_COLOR") == "" && IsTerminal(w)
}

// DisableColor turns colour off for every fatih/color printer.
func DisableColor() {
	color.NoColor = true
}

// Confirm asks prompt on out and reads a y/n answer from in. Anything but
// y or yes, including EOF, is a no.
func Confirm(in io.Reader, out io.Writer, prompt string) bool {
	fmt.Fprintf(out, "%s [y/N]: ", prompt)
	answer, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && answer == "" {
		fmt.Fprintln(out)
		return false
	}
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true
	}
	return false
}

// DownloadSummary describes a pending download for the confirmation prompt.
// A negative total means no size could be determined.
func DownloadSummary(files int, total int64) string {
	noun := "files"
	if files == 1 {
		noun = "file"
	}
	if total < 0 {
		return fmt.Sprintf("%d %s of unknown size", files, noun)
	}
	return fmt.Sprintf("%d %s, %s total", files, noun, humanize.Bytes(uint64(total)))
}
