package page

import "golang.org/x/net/html"

// Attr returns the value of the named attribute on n.
func Attr(n *html.Node, name string) (string, bool) {
	if n == nil {
		return "", false
	}
	for _, a := range n.Attr {
		if a.Key == name {
			return a.Val, true
		}
	}
	return "", false
}

// SetAttr sets or replaces the named attribute on n.
func SetAttr(n *html.Node, name, value string) {
	if n == nil {
		return
	}
	for i, a := range n.Attr {
		if a.Key == name {
			n.Attr[i].Val = value
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: name, Val: value})
}

// RemoveAttr removes the named attribute from n, if present.
func RemoveAttr(n *html.Node, name string) {
	if n == nil {
		return
	}
	for i, a := range n.Attr {
		if a.Key == name {
			n.Attr = append(n.Attr[:i], n.Attr[i+1:]...)
			return
		}
	}
}

// IsEditable reports whether n is an edit surface: an input, a textarea, or
// inside a contenteditable region.
func IsEditable(n *html.Node) bool {
	for cur := n; cur != nil; cur = cur.Parent {
		if cur.Type != html.ElementNode {
			continue
		}
		switch cur.Data {
		case "input", "textarea":
			return true
		}
		if v, ok := Attr(cur, "contenteditable"); ok && v != "false" {
			return true
		}
	}
	return false
}
