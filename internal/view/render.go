package view

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"anoa.com/poemhub/internal/entity"
	"anoa.com/poemhub/pkg/sanitize"
)

const excerptLen = 60

func heading(w io.Writer, title string) {
	fmt.Fprintf(w, "\n%s\n%s\n", title, strings.Repeat("=", len(title)))
}

func inlineError(w io.Writer, msg string) {
	if msg != "" {
		fmt.Fprintf(w, "! %s\n", sanitize.Line(msg))
	}
}

// excerpt is the first line of a poem, cut to excerptLen runes.
func excerpt(text string) string {
	first := strings.SplitN(sanitize.Text(text), "\n", 2)[0]
	r := []rune(first)
	if len(r) > excerptLen {
		return string(r[:excerptLen]) + "..."
	}
	return first
}

func poemTable(w io.Writer, poems []entity.Poem) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tAUTHOR\tDATE\tFIRST LINE")
	for _, p := range poems {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n",
			p.ID, sanitize.Line(p.Title), sanitize.Line(p.Author), sanitize.Line(p.PostDate), excerpt(p.Text))
	}
	tw.Flush()
}
