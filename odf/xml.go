package odf

import (
	"strings"

	"github.com/beevik/etree"
)

// Elements and attributes are matched by their canonical prefix ("office",
// "style", ...). Documents are checked at load time to bind those prefixes to
// the URIs of their namespace set, so a prefix identifies a namespace for the
// whole tree, including detached copies that lost their xmlns context.

func splitQName(q string) (space, local string) {
	if i := strings.IndexByte(q, ':'); i >= 0 {
		return q[:i], q[i+1:]
	}
	return "", q
}

// Is reports whether el has the qualified name q, eg "table:table-cell".
func Is(el *etree.Element, q string) bool {
	if el == nil {
		return false
	}
	space, local := splitQName(q)
	return el.Space == space && el.Tag == local
}

// FirstChild returns the first child element of el named q.
func FirstChild(el *etree.Element, q string) *etree.Element {
	if el == nil {
		return nil
	}
	for _, c := range el.ChildElements() {
		if Is(c, q) {
			return c
		}
	}
	return nil
}

// Children returns the child elements of el named q.
func Children(el *etree.Element, q string) []*etree.Element {
	if el == nil {
		return nil
	}
	var res []*etree.Element
	for _, c := range el.ChildElements() {
		if Is(c, q) {
			res = append(res, c)
		}
	}
	return res
}

func childElements(el *etree.Element) []*etree.Element {
	if el == nil {
		return nil
	}
	return el.ChildElements()
}

// Attr returns the value of the attribute q of el, or "" if absent.
func Attr(el *etree.Element, q string) string {
	if a := findAttr(el, q); a != nil {
		return a.Value
	}
	return ""
}

// HasAttr reports whether el carries the attribute q.
func HasAttr(el *etree.Element, q string) bool {
	return findAttr(el, q) != nil
}

func findAttr(el *etree.Element, q string) *etree.Attr {
	if el == nil {
		return nil
	}
	space, key := splitQName(q)
	for i := range el.Attr {
		if el.Attr[i].Space == space && el.Attr[i].Key == key {
			return &el.Attr[i]
		}
	}
	return nil
}

// Walk calls fn for el and each of its descendant elements in document order.
// Returning false from fn skips the children of that element.
func Walk(el *etree.Element, fn func(*etree.Element) bool) {
	if el == nil || !fn(el) {
		return
	}
	for _, c := range el.ChildElements() {
		Walk(c, fn)
	}
}

// Descendants returns every descendant element of el named q.
func Descendants(el *etree.Element, q string) []*etree.Element {
	var res []*etree.Element
	for _, c := range el.ChildElements() {
		Walk(c, func(e *etree.Element) bool {
			if Is(e, q) {
				res = append(res, e)
			}
			return true
		})
	}
	return res
}

// ElementIndex returns the position of child among the element children of
// its parent, or -1.
func ElementIndex(child *etree.Element) int {
	parent := child.Parent()
	if parent == nil {
		return -1
	}
	for i, c := range parent.ChildElements() {
		if c == child {
			return i
		}
	}
	return -1
}

// InsertElementAt inserts child so that it becomes element child number index
// of parent. A negative or too large index appends.
func InsertElementAt(parent *etree.Element, index int, child *etree.Element) {
	if index < 0 {
		parent.AddChild(child)
		return
	}
	n := 0
	for i, tok := range parent.Child {
		if _, ok := tok.(*etree.Element); !ok {
			continue
		}
		if n == index {
			parent.InsertChildAt(i, child)
			return
		}
		n++
	}
	parent.AddChild(child)
}

// InsertAfter inserts child right after ref, which must have a parent.
func InsertAfter(ref, child *etree.Element) {
	ref.Parent().InsertChildAt(ref.Index()+1, child)
}

// Detach removes el from its parent, if any.
func Detach(el *etree.Element) {
	if p := el.Parent(); p != nil {
		p.RemoveChild(el)
	}
}
