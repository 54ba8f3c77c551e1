package command

import (
	"bytes"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/kr/text"
)

// maxLineLength is the maximum width of any line.
const maxLineLength int = 72

// Usage renders a command's help text followed by its arguments and flags.
func Usage(txt string, args [][2]string, flags *flag.FlagSet) string {
	u := &Usager{
		Usage: txt,
		Args:  args,
		Flags: flags,
	}
	return u.String()
}

// Usager formats help text. Args are (name, description) pairs.
type Usager struct {
	Usage string
	Args  [][2]string
	Flags *flag.FlagSet
}

func (u *Usager) String() string {
	out := new(bytes.Buffer)

	// Write out the usage slug.
	out.WriteString(strings.TrimSpace(u.Usage))
	out.WriteString("\n")
	out.WriteString("\n")

	if len(u.Args) > 0 {
		printTitle(out, "Arguments")
		for _, a := range u.Args {
			_, _ = fmt.Fprintf(out, "  %s\n", a[0])
			_, _ = fmt.Fprintf(out, "%s\n\n", wrapAtLength(a[1], 5))
		}
	}

	if u.Flags != nil {
		printTitle(out, "Command Options")

		u.Flags.VisitAll(func(f *flag.Flag) {
			printFlag(out, f)
		})
	}

	return strings.TrimRight(out.String(), "\n")
}

// printTitle prints a consistently-formatted title to the given writer.
func printTitle(w io.Writer, s string) {
	_, _ = fmt.Fprintf(w, "%s\n\n", s)
}

// printFlag prints a single flag to the given writer, with its default when it has a meaningful one.
func printFlag(w io.Writer, f *flag.Flag) {
	name, usage := flag.UnquoteUsage(f)
	if name != "" {
		_, _ = fmt.Fprintf(w, "  -%s=<%s>\n", f.Name, name)
	} else {
		_, _ = fmt.Fprintf(w, "  -%s\n", f.Name)
	}

	if !unsetDefault(f.DefValue) {
		usage += fmt.Sprintf(" Defaults to %q.", f.DefValue)
	}
	_, _ = fmt.Fprintf(w, "%s\n\n", wrapAtLength(usage, 5))
}

// unsetDefault reports whether a flag's default only means "not given".
func unsetDefault(v string) bool {
	switch v {
	case "", "0", "-1", "false":
		return true
	}
	return false
}

// wrapAtLength wraps the given text at the maxLineLength, taking into account
// any provided left padding.
func wrapAtLength(s string, pad int) string {
	wrapped := text.Wrap(s, maxLineLength-pad)
	lines := strings.Split(wrapped, "\n")
	for i, line := range lines {
		lines[i] = strings.Repeat(" ", pad) + line
	}
	return strings.Join(lines, "\n")
}
