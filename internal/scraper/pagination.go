package scraper

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var (
	pageOfPattern    = regexp.MustCompile(`Page \d+ of (\d+)`)
	pageParamPattern = regexp.MustCompile(`[?&]page=(\d+)`)
)

// Anchor labels that point at pages already counted or not worth trusting
var skippedPageLinks = map[string]bool{
	"Last Page": true,
	"Next Page": true,
}

// PageCount returns the total number of pages a guide reports.
// The "Page X of Y" label wins; otherwise the highest page=N link is used.
// A page without a pagination marker is a single-page guide.
func PageCount(doc *goquery.Document) int {
	marker := doc.Find("ul.paginate").First()
	if marker.Length() == 0 {
		return 1
	}

	total := 0
	marker.Find("li").EachWithBreak(func(_ int, li *goquery.Selection) bool {
		if m := pageOfPattern.FindStringSubmatch(li.Text()); m != nil {
			total, _ = strconv.Atoi(m[1])
			return false
		}
		return true
	})
	if total > 0 {
		return total
	}

	highest := 1
	marker.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		if skippedPageLinks[strings.TrimSpace(a.Text())] {
			return
		}
		m := pageParamPattern.FindStringSubmatch(a.AttrOr("href", ""))
		if m == nil {
			return
		}
		if n, err := strconv.Atoi(m[1]); err == nil && n > highest {
			highest = n
		}
	})
	return highest
}

// PagesToFetch returns the last page number worth fetching for a guide
// reporting total pages. The final page of a multi-page guide is skipped.
func PagesToFetch(total int) int {
	if total > 1 {
		return total - 1
	}
	return 1
}

// PageURL returns the URL of page n of the guide at base.
// Page 1 is the bare URL; later pages carry a page query parameter.
func PageURL(base string, n int) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", err
	}

	q := u.Query()
	q.Del("page")
	if n > 1 {
		q.Set("page", strconv.Itoa(n))
	}
	u.RawQuery = q.Encode()

	return u.String(), nil
}
