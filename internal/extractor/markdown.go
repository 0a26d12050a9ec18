package extractor

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const (
	// removedSelector matches elements that never carry guide text
	removedSelector = "script, style, iframe, ins"

	// navigationSelector matches table-of-contents and menu containers
	navigationSelector = "div.ftoc, div.nav, div.menu"

	fence = "```"
)

var horizontalSpace = regexp.MustCompile(`[ \t\f\v]+`)

// blockTags are padded with spaces when flattened into a single line
var blockTags = map[string]bool{
	"div": true, "p": true, "ul": true, "ol": true, "li": true,
	"table": true, "tr": true, "td": true, "th": true,
}

// renderStructured converts semantic HTML into markdown.
// The page document is left untouched; removal happens on a clone.
func renderStructured(region *goquery.Selection) (string, error) {
	region = region.Clone()
	region.Find(removedSelector).Remove()
	region.Find(navigationSelector).Remove()

	var b strings.Builder
	region.Contents().Each(func(_ int, child *goquery.Selection) {
		b.WriteString(convert(child))
	})

	return cleanup(b.String()), nil
}

// convert renders one node and, for unknown elements, its children.
func convert(s *goquery.Selection) string {
	name := goquery.NodeName(s)

	switch name {
	case "#text":
		if text := strings.TrimSpace(s.Text()); text != "" {
			return text + " "
		}
		return ""
	case "#comment":
		return ""
	case "br":
		return "\n"
	case "hr":
		return "\n---\n"
	}

	if strings.TrimSpace(s.Text()) == "" {
		return ""
	}

	switch name {
	case "h1", "h2", "h3", "h4", "h5", "h6":
		level, _ := strconv.Atoi(name[1:])
		return "\n" + strings.Repeat("#", level) + " " + squash(s.Text()) + "\n"
	case "p":
		return inline(s) + "\n"
	case "ul":
		return list(s, false)
	case "ol":
		return list(s, true)
	case "pre":
		return codeBlock(s)
	case "code", "strong", "b", "em", "i", "a":
		return inlineElement(s)
	case "table":
		return table(s)
	default:
		var b strings.Builder
		s.Contents().Each(func(_ int, child *goquery.Selection) {
			b.WriteString(convert(child))
		})
		return b.String()
	}
}

// list renders the direct <li> children only.
func list(s *goquery.Selection, ordered bool) string {
	var b strings.Builder
	b.WriteString("\n")
	s.ChildrenFiltered("li").Each(func(i int, li *goquery.Selection) {
		if ordered {
			b.WriteString(strconv.Itoa(i+1) + ". ")
		} else {
			b.WriteString("* ")
		}
		b.WriteString(strings.ReplaceAll(inline(li), "\n", " "))
		b.WriteString("\n")
	})
	return b.String()
}

func codeBlock(s *goquery.Selection) string {
	text := s.Text()
	if code := s.Find("code").First(); code.Length() > 0 {
		text = code.Text()
	}
	text = strings.TrimRight(normalizeNewlines(text), "\n")
	return "\n" + fence + "\n" + text + "\n" + fence + "\n"
}

// table renders pipe-delimited rows with a separator after any header row.
func table(s *goquery.Selection) string {
	var b strings.Builder
	b.WriteString("\n")
	s.Find("tr").Each(func(_ int, tr *goquery.Selection) {
		var cells []string
		tr.ChildrenFiltered("td, th").Each(func(_ int, cell *goquery.Selection) {
			cells = append(cells, strings.ReplaceAll(inline(cell), "\n", " "))
		})
		b.WriteString("| " + strings.Join(cells, " | ") + " |\n")

		if headers := tr.ChildrenFiltered("th").Length(); headers > 0 {
			b.WriteString("|" + strings.Repeat("---|", headers) + "\n")
		}
	})
	return b.String()
}

// inline renders the children of a block element as one line of markdown,
// keeping explicit <br> breaks.
func inline(s *goquery.Selection) string {
	var b strings.Builder
	s.Contents().Each(func(_ int, child *goquery.Selection) {
		switch goquery.NodeName(child) {
		case "#text":
			b.WriteString(child.Text())
		case "#comment":
		case "br":
			b.WriteString("\n")
		case "code", "strong", "b", "em", "i", "a":
			b.WriteString(inlineElement(child))
		default:
			if blockTags[goquery.NodeName(child)] {
				b.WriteString(" " + inline(child) + " ")
			} else {
				b.WriteString(inline(child))
			}
		}
	})

	lines := strings.Split(b.String(), "\n")
	for i, line := range lines {
		lines[i] = squash(line)
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

func inlineElement(s *goquery.Selection) string {
	text := squash(s.Text())
	if text == "" {
		return ""
	}

	switch goquery.NodeName(s) {
	case "code":
		if goquery.NodeName(s.Parent()) == "pre" {
			return text
		}
		return "`" + text + "`"
	case "strong", "b":
		return "**" + text + "**"
	case "em", "i":
		return "*" + text + "*"
	case "a":
		if href, ok := s.Attr("href"); ok && href != "" {
			return "[" + text + "](" + href + ")"
		}
	}
	return inline(s)
}

func squash(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// cleanup collapses horizontal whitespace and blank-line runs outside
// fenced code blocks, then trims the result.
func cleanup(text string) string {
	lines := strings.Split(normalizeNewlines(text), "\n")
	out := make([]string, 0, len(lines))
	inFence := false
	lastBlank := false

	for _, line := range lines {
		if strings.TrimSpace(line) == fence {
			inFence = !inFence
			out = append(out, fence)
			lastBlank = false
			continue
		}
		if inFence {
			out = append(out, line)
			continue
		}

		line = strings.TrimSpace(horizontalSpace.ReplaceAllString(line, " "))
		if line == "" {
			if lastBlank {
				continue
			}
			lastBlank = true
		} else {
			lastBlank = false
		}
		out = append(out, line)
	}

	return strings.TrimSpace(strings.Join(out, "\n"))
}
