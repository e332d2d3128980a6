package goquery

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// isVisible approximates rendering visibility from markup alone: an
// element is hidden when it or any ancestor is marked hidden.
func isVisible(s *goquery.Selection) bool {
	for n := s; n.Length() > 0; n = n.Parent() {
		if hiddenNode(n) {
			return false
		}
	}
	return true
}

func hiddenNode(n *goquery.Selection) bool {
	if _, ok := n.Attr("hidden"); ok {
		return true
	}
	if v, _ := n.Attr("aria-hidden"); strings.EqualFold(v, "true") {
		return true
	}
	if v, _ := n.Attr("type"); goquery.NodeName(n) == "input" && strings.EqualFold(v, "hidden") {
		return true
	}
	style, _ := n.Attr("style")
	style = strings.ToLower(strings.ReplaceAll(style, " ", ""))
	if strings.Contains(style, "display:none") || strings.Contains(style, "visibility:hidden") {
		return true
	}
	class, _ := n.Attr("class")
	for _, c := range strings.Fields(class) {
		if c == "hidden" || c == "d-none" {
			return true
		}
	}
	return false
}

// cssPath returns a selector that locates s within its document, e.g.
// "html > body:nth-child(2) > a:nth-child(3)".
func cssPath(s *goquery.Selection) string {
	var parts []string
	for n := s; n.Length() > 0; n = n.Parent() {
		name := goquery.NodeName(n)
		if name == "html" {
			parts = append(parts, name)
			break
		}
		if name == "" || strings.HasPrefix(name, "#") {
			break
		}
		parts = append(parts, fmt.Sprintf("%s:nth-child(%d)", name, n.Index()+1))
	}
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return strings.Join(parts, " > ")
}
