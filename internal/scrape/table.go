package scrape

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Table is the selected-courses grid as plain text cells.
type Table struct {
	Header []string
	Rows   [][]string
}

// ExtractRows finds the table with the given element id and returns its
// header cells and the text of every data row. Cell text is trimmed of
// whitespace and of leading or trailing slashes the portal pads empty
// values with.
func ExtractRows(html, tableID string) (Table, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return Table{}, fmt.Errorf("scrape: parse html: %w", err)
	}
	table := doc.Find("table#" + tableID).First()
	if table.Length() == 0 {
		return Table{}, fmt.Errorf("scrape: table %q not found", tableID)
	}

	var out Table
	table.Find("tr").Each(func(_ int, row *goquery.Selection) {
		if out.Header == nil {
			if ths := row.ChildrenFiltered("th"); ths.Length() > 0 {
				out.Header = cellTexts(ths)
				return
			}
		}
		tds := row.ChildrenFiltered("td")
		if tds.Length() == 0 {
			return
		}
		out.Rows = append(out.Rows, cellTexts(tds))
	})
	return out, nil
}

func cellTexts(cells *goquery.Selection) []string {
	texts := make([]string, 0, cells.Length())
	cells.Each(func(_ int, c *goquery.Selection) {
		texts = append(texts, strings.Trim(strings.TrimSpace(c.Text()), "/"))
	})
	return texts
}
