package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"golang.org/x/term"

	"github.com/meteokit/grib2"
	"github.com/meteokit/grib2/scanner"
)

func main() {
	var (
		file        = flag.String("file", "", "Path to GRIB2 file (plain or gzip)")
		list        = flag.Bool("list", false, "List every message and exit")
		selectExpr  = flag.String("select", "", "Attribute filters (name=value,name=value)")
		interactive = flag.Bool("i", false, "Interactive mode with TUI")
	)
	flag.Parse()

	if *file == "" {
		fmt.Fprintln(os.Stderr, "Usage: gribscan -file <path> [-list] [-select name=value,...]")
		fmt.Fprintln(os.Stderr, "       gribscan -file <path> -i  (interactive mode)")
		os.Exit(1)
	}

	if *interactive {
		if err := runInteractive(*file); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := run(*file, *selectExpr, *list); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(path, selectExpr string, listAll bool) error {
	f, err := grib2.Open(path)
	if f == nil {
		return err
	}
	defer f.Close()
	if err != nil {
		// Partial index: report the failure but show what scanned.
		fmt.Fprintf(os.Stderr, "Warning: scan stopped early: %v\n", err)
	}

	msgs := f.Index().Messages()
	if selectExpr != "" {
		preds, err := parsePredicates(selectExpr)
		if err != nil {
			return err
		}
		msgs = f.Select(preds)
	}

	fmt.Printf("File: %s\n", path)
	fmt.Printf("Messages: %d\n", len(msgs))

	if !listAll && selectExpr == "" {
		return nil
	}

	width := listWidth()
	fmt.Println()
	for _, m := range msgs {
		fmt.Println(truncate(formatMessage(m), width))
	}
	return nil
}

// parsePredicates turns "name=value,name=value" into a selection map.
// Values parse as int, then float, then bool, falling back to string.
func parsePredicates(expr string) (map[string]any, error) {
	preds := make(map[string]any)
	for _, kv := range strings.Split(expr, ",") {
		parts := strings.SplitN(kv, "=", 2)
		if len(parts) != 2 || parts[0] == "" {
			return nil, fmt.Errorf("bad filter %q, want name=value", kv)
		}
		name, raw := strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
		switch {
		case isInt(raw):
			v, _ := strconv.ParseInt(raw, 10, 64)
			preds[name] = v
		case isFloat(raw):
			v, _ := strconv.ParseFloat(raw, 64)
			preds[name] = v
		case raw == "true" || raw == "false":
			preds[name] = raw == "true"
		default:
			preds[name] = raw
		}
	}
	return preds, nil
}

func isInt(s string) bool {
	_, err := strconv.ParseInt(s, 10, 64)
	return err == nil
}

func isFloat(s string) bool {
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}

func formatMessage(m *scanner.Message) string {
	sub := ""
	if m.IsSubmessage {
		sub = fmt.Sprintf(" sub@%d", m.SubmessageBeginSection)
	}
	param := "?"
	if _, cat, num, ok := m.ParameterIdentity(); ok {
		param = fmt.Sprintf("%d.%d.%d", m.Discipline, cat, num)
	}
	ref := "-"
	if t := m.RefTime(); !t.IsZero() {
		ref = t.Format("2006-01-02 15:04")
	}
	return fmt.Sprintf("%4d  off=%-10d len=%-9d param=%-10s ref=%s points=%d%s",
		m.Number, m.Offset, m.Length, param, ref, m.GridPointCount(), sub)
}

// listWidth returns the terminal width for the plain listing, or a generous
// default when stdout is not a terminal.
func listWidth() int {
	fd := int(os.Stdout.Fd())
	if !term.IsTerminal(fd) {
		return 200
	}
	w, _, err := term.GetSize(fd)
	if err != nil || w <= 0 {
		return 200
	}
	return w
}

func truncate(s string, width int) string {
	if len(s) <= width {
		return s
	}
	return s[:width]
}
