// Package ns holds the XML namespace sets of the two OpenDocument schema
// families: OpenOffice.org 1.x and OpenDocument (OpenOffice.org 2.x and later).
//
// A set is an immutable value mapping short prefixes ("office", "style",
// "table", ...) to namespace URIs. The two sets are built once and are passed
// explicitly to the code that needs them; a document discovers its set from
// the namespace of its root element with [VersionOf].
package ns

import (
	"errors"
	"fmt"
	"sort"

	"github.com/beevik/etree"
)

// Version names.
const (
	VersionOOo = "OOo"
	VersionOD  = "OpenDocument"
)

// ErrUnknownVersion is returned when a version name or a root namespace does
// not belong to any known set.
var ErrUnknownVersion = errors.New("unknown OpenDocument version")

// mandatory prefixes every set must define.
var mandatory = []string{"office", "style", "text", "table"}

// NS is the namespace set of one schema version.
type NS struct {
	version  string
	uris     map[string]string
	manifest string
}

var (
	ooo = newNS(VersionOOo, "http://openoffice.org/2001/manifest", map[string]string{
		"office": "http://openoffice.org/2000/office",
		"style":  "http://openoffice.org/2000/style",
		"text":   "http://openoffice.org/2000/text",
		"table":  "http://openoffice.org/2000/table",
		"number": "http://openoffice.org/2000/datastyle",
		"draw":   "http://openoffice.org/2000/drawing",
		"fo":     "http://www.w3.org/1999/XSL/Format",
		"form":   "http://openoffice.org/2000/form",
		"xlink":  "http://www.w3.org/1999/xlink",
		"script": "http://openoffice.org/2000/script",
		"svg":    "http://www.w3.org/2000/svg",
		"meta":   "http://openoffice.org/2000/meta",
		"dc":     "http://purl.org/dc/elements/1.1/",
	})

	od = newNS(VersionOD, "urn:oasis:names:tc:opendocument:xmlns:manifest:1.0", map[string]string{
		"office": "urn:oasis:names:tc:opendocument:xmlns:office:1.0",
		"style":  "urn:oasis:names:tc:opendocument:xmlns:style:1.0",
		"text":   "urn:oasis:names:tc:opendocument:xmlns:text:1.0",
		"table":  "urn:oasis:names:tc:opendocument:xmlns:table:1.0",
		"number": "urn:oasis:names:tc:opendocument:xmlns:datastyle:1.0",
		"draw":   "urn:oasis:names:tc:opendocument:xmlns:drawing:1.0",
		"fo":     "urn:oasis:names:tc:opendocument:xmlns:xsl-fo-compatible:1.0",
		"form":   "urn:oasis:names:tc:opendocument:xmlns:form:1.0",
		"xlink":  "http://www.w3.org/1999/xlink",
		"script": "urn:oasis:names:tc:opendocument:xmlns:script:1.0",
		"svg":    "urn:oasis:names:tc:opendocument:xmlns:svg-compatible:1.0",
		"meta":   "urn:oasis:names:tc:opendocument:xmlns:meta:1.0",
		"dc":     "http://purl.org/dc/elements/1.1/",
	})

	all = []NS{ooo, od}
)

func newNS(version, manifest string, uris map[string]string) NS {
	for _, p := range mandatory {
		if _, ok := uris[p]; !ok {
			panic(fmt.Sprintf("ns: %s lacks mandatory prefix %q", version, p))
		}
	}
	return NS{version: version, uris: uris, manifest: manifest}
}

// OOo returns the namespaces of OpenOffice.org 1.x.
func OOo() NS { return ooo }

// OD returns the namespaces of OpenDocument.
func OD() NS { return od }

// Get returns the set for a version name.
func Get(version string) (NS, error) {
	for _, n := range all {
		if n.version == version {
			return n, nil
		}
	}
	return NS{}, fmt.Errorf("%w: %q (valid: %s, %s)", ErrUnknownVersion, version, VersionOOo, VersionOD)
}

// ForURI returns the set binding prefix to uri.
func ForURI(prefix, uri string) (NS, bool) {
	for _, n := range all {
		if u, ok := n.uris[prefix]; ok && u == uri {
			return n, true
		}
	}
	return NS{}, false
}

// VersionOf infers the set of an element from its namespace, typically the
// root of content.xml or styles.xml.
func VersionOf(el *etree.Element) (NS, error) {
	if el == nil {
		return NS{}, fmt.Errorf("%w: nil element", ErrUnknownVersion)
	}
	uri := el.NamespaceURI()
	if n, ok := ForURI(el.Space, uri); ok {
		return n, nil
	}
	// the root may use a non-office prefix for an office element
	for _, n := range all {
		for _, u := range n.uris {
			if u == uri && uri != "" && u != n.uris["dc"] && u != n.uris["xlink"] {
				return n, nil
			}
		}
	}
	return NS{}, fmt.Errorf("%w: <%s> in namespace %q", ErrUnknownVersion, el.FullTag(), uri)
}

// Version returns the name of the version, VersionOOo or VersionOD.
func (n NS) Version() string { return n.version }

// IsOD reports whether n is the OpenDocument set.
func (n NS) IsOD() bool { return n.version == VersionOD }

// IsZero reports whether n is the zero value.
func (n NS) IsZero() bool { return n.version == "" }

// Manifest returns the URI of the manifest namespace.
func (n NS) Manifest() string { return n.manifest }

// URI returns the namespace bound to prefix.
func (n NS) URI(prefix string) (string, error) {
	u, ok := n.uris[prefix]
	if !ok {
		return "", fmt.Errorf("unknown prefix %q for %s", prefix, n.version)
	}
	return u, nil
}

// MustURI is like URI but panics for an unknown prefix. Only use it with the
// prefixes defined in this package.
func (n NS) MustURI(prefix string) string {
	u, err := n.URI(prefix)
	if err != nil {
		panic(err)
	}
	return u
}

// Has reports whether prefix is defined.
func (n NS) Has(prefix string) bool {
	_, ok := n.uris[prefix]
	return ok
}

// Prefixes returns the defined prefixes in sorted order.
func (n NS) Prefixes() []string {
	res := make([]string, 0, len(n.uris))
	for p := range n.uris {
		res = append(res, p)
	}
	sort.Strings(res)
	return res
}

// Declare adds xmlns declarations for every prefix of n that el does not
// already declare.
func (n NS) Declare(el *etree.Element) {
	for _, p := range n.Prefixes() {
		if el.SelectAttr("xmlns:"+p) == nil {
			el.CreateAttr("xmlns:"+p, n.uris[p])
		}
	}
}

func (n NS) String() string { return n.version }
