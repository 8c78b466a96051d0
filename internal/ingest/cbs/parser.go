package cbs

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/fortuna/courtvision/internal/feeds"
)

// ParseHTML converts raw HTML to a goquery Document for parsing.
func ParseHTML(htmlContent string) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlContent))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	return doc, nil
}

// ParseInjuryTables returns the rows of every table in the document keyed by
// column header. Cell text is the concatenation of all text nodes, so a
// player cell holding both a short and a long name span comes back as
// "J. TatumJayson Tatum". A document without tables is an error.
func ParseInjuryTables(doc *goquery.Document) ([]feeds.TableRow, error) {
	tables := doc.Find("table")
	if tables.Length() == 0 {
		return nil, fmt.Errorf("no tables found: %w", feeds.ErrEmptyResponse)
	}

	var rows []feeds.TableRow
	tables.Each(func(i int, table *goquery.Selection) {
		headers, body := tableHeaders(table)
		if len(headers) == 0 {
			return
		}

		body.Each(func(j int, tr *goquery.Selection) {
			row := make(feeds.TableRow, len(headers))
			tr.Find("td").Each(func(k int, td *goquery.Selection) {
				if k < len(headers) && headers[k] != "" {
					row[headers[k]] = cleanText(td.Text())
				}
			})
			if len(row) > 0 {
				rows = append(rows, row)
			}
		})
	})
	return rows, nil
}

// tableHeaders reads the header row, preferring thead, and returns the body
// rows that follow it.
func tableHeaders(table *goquery.Selection) ([]string, *goquery.Selection) {
	headerCells := table.Find("thead tr").First().Find("th, td")
	body := table.Find("tbody tr")
	if headerCells.Length() == 0 {
		first := table.Find("tr").First()
		headerCells = first.Find("th")
		body = first.NextAll()
		if headerCells.Length() == 0 {
			return nil, body
		}
	}

	headers := make([]string, headerCells.Length())
	headerCells.Each(func(i int, th *goquery.Selection) {
		headers[i] = cleanText(th.Text())
	})
	return headers, body
}

func cleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
