package parser

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var pagePattern = regexp.MustCompile(`/page/(\d+)`)

// LastPage returns the highest /page/N/ number linked from html, or 1.
func LastPage(html string) int {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return 1
	}

	last := 1
	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		match := pagePattern.FindStringSubmatch(href)
		if match == nil {
			return
		}
		if n, err := strconv.Atoi(match[1]); err == nil && n > last {
			last = n
		}
	})
	return last
}

// PageURL builds the listing URL of page n; page 1 is the base itself.
func PageURL(base string, n int) string {
	if n <= 1 {
		return base
	}
	return strings.TrimSuffix(base, "/") + "/page/" + strconv.Itoa(n) + "/"
}
