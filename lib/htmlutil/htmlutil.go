package htmlutil

import (
	"bytes"
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

// GetText returns the raw concatenation of every text node under node.
func GetText(node *html.Node) string {
	var buffer bytes.Buffer
	getTextRecursive(node, &buffer)
	return buffer.String()
}

func getTextRecursive(node *html.Node, buffer *bytes.Buffer) {
	if node == nil {
		return
	}
	if node.Type == html.TextNode {
		buffer.WriteString(node.Data)
		return
	}
	child := node.FirstChild
	for child != nil {
		getTextRecursive(child, buffer)
		child = child.NextSibling
	}
}

var innerWhitespace = regexp.MustCompile(`\s+`)

// InnerText returns the visible text of node with surrounding whitespace
// trimmed and runs of inner whitespace collapsed to a single space.
// Row and header detection compare against this form.
func InnerText(node *html.Node) string {
	text := strings.TrimSpace(GetText(node))
	return innerWhitespace.ReplaceAllString(text, " ")
}
