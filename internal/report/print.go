package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/mattn/go-runewidth"
)

// maxTitleWidth caps the title column in terminal cells.
const maxTitleWidth = 48

// Print writes the validation summary: the row count and the given movies
// as an aligned table. Width is measured in terminal cells so wide titles
// line up.
func Print(w io.Writer, count int, top []Movie) error {
	if _, err := fmt.Fprintf(w, "Total records in database: %d\n", count); err != nil {
		return err
	}
	if len(top) == 0 {
		return nil
	}

	width := runewidth.StringWidth("Title")
	titles := make([]string, len(top))
	for i, m := range top {
		titles[i] = runewidth.Truncate(m.Title, maxTitleWidth, "…")
		if tw := runewidth.StringWidth(titles[i]); tw > width {
			width = tw
		}
	}

	if _, err := fmt.Fprintf(w, "\nTop %d movies by IMDB score:\n", len(top)); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "  %s  %5s  %4s\n", runewidth.FillRight("Title", width), "Score", "Year"); err != nil {
		return err
	}
	for i, m := range top {
		year := "-"
		if m.Year > 0 {
			year = strconv.FormatInt(m.Year, 10)
		}
		if _, err := fmt.Fprintf(w, "  %s  %5.1f  %4s\n", runewidth.FillRight(titles[i], width), m.Score, year); err != nil {
			return err
		}
	}
	return nil
}
