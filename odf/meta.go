package odf

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/beevik/etree"
)

// Value types of meta:user-defined.
const (
	MetaFloat   = "float"
	MetaDate    = "date"
	MetaTime    = "time"
	MetaBoolean = "boolean"
	MetaString  = "string"
)

// DateLayout is the layout of date values written to meta:user-defined and
// office:date-value.
const DateLayout = "2006-01-02T15:04:05"

// DateLayouts are the layouts accepted when reading a date value, most
// common first.
var DateLayouts = []string{DateLayout, "2006-01-02T15:04:05.999999999", "2006-01-02"}

// UserMeta is a meta:user-defined field of office:meta.
type UserMeta struct {
	el *etree.Element
}

// UserMeta returns the user-defined field called name, creating office:meta
// and the field when create is true. It returns nil if the field is missing
// and create is false.
func (d *Document) UserMeta(name string, create bool) (*UserMeta, error) {
	if strings.ContainsRune(name, '\'') {
		return nil, &PathError{Op: "user meta", Path: name, Err: fmt.Errorf("quote in name: %w", ErrInvalidPath)}
	}
	el, err := d.Descendant("office:meta/meta:user-defined[@meta:name='"+name+"']", create)
	if err != nil || el == nil {
		return nil, err
	}
	return &UserMeta{el: el}, nil
}

// UserMetaNames returns the names of every user-defined field.
func (d *Document) UserMetaNames() []string {
	var res []string
	for _, el := range Children(d.Child("meta", false), "meta:user-defined") {
		res = append(res, Attr(el, "meta:name"))
	}
	return res
}

// Name returns meta:name.
func (m *UserMeta) Name() string { return Attr(m.el, "meta:name") }

// Element returns the wrapped element.
func (m *UserMeta) Element() *etree.Element { return m.el }

// ValueType returns meta:value-type, MetaString when absent.
func (m *UserMeta) ValueType() string {
	if t := Attr(m.el, "meta:value-type"); t != "" {
		return t
	}
	return MetaString
}

// Value returns the typed value: float64, time.Time, time.Duration, bool or
// string.
func (m *UserMeta) Value() (any, error) {
	text := strings.TrimSpace(m.el.Text())
	switch t := m.ValueType(); t {
	case MetaFloat:
		v, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return nil, fmt.Errorf("user meta %q: %w", m.Name(), err)
		}
		return v, nil
	case MetaDate:
		v, err := ParseDate(text)
		if err != nil {
			return nil, fmt.Errorf("user meta %q: %w", m.Name(), err)
		}
		return v, nil
	case MetaTime:
		v, err := ParseDuration(text)
		if err != nil {
			return nil, fmt.Errorf("user meta %q: %w", m.Name(), err)
		}
		return v, nil
	case MetaBoolean:
		return text == "true", nil
	case MetaString:
		return m.el.Text(), nil
	default:
		return nil, fmt.Errorf("user meta %q: unknown value type %q", m.Name(), t)
	}
}

// SetValue stores v with the matching value type. Strings drop the value type
// attribute.
func (m *UserMeta) SetValue(v any) error {
	var typ, text string
	switch x := v.(type) {
	case float64:
		typ, text = MetaFloat, strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		typ, text = MetaFloat, strconv.FormatFloat(float64(x), 'f', -1, 32)
	case int:
		typ, text = MetaFloat, strconv.Itoa(x)
	case int64:
		typ, text = MetaFloat, strconv.FormatInt(x, 10)
	case time.Time:
		typ, text = MetaDate, x.Format(DateLayout)
	case time.Duration:
		typ, text = MetaTime, FormatDuration(x)
	case bool:
		typ, text = MetaBoolean, strconv.FormatBool(x)
	case string:
		typ, text = MetaString, x
	case fmt.Stringer:
		typ, text = MetaString, x.String()
	default:
		return fmt.Errorf("user meta %q: unsupported value %T", m.Name(), v)
	}
	if typ == MetaString {
		m.el.RemoveAttr("meta:value-type")
	} else {
		m.el.CreateAttr("meta:value-type", typ)
	}
	m.el.SetText(text)
	return nil
}

// ParseDate parses a date value in any of DateLayouts.
func ParseDate(s string) (time.Time, error) {
	for _, layout := range DateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q", s)
}

// ParseDuration parses an ISO 8601 duration limited to hours, minutes and
// seconds, eg "PT12H30M5.5S" or "-PT1H".
func ParseDuration(s string) (time.Duration, error) {
	rest, neg := strings.CutPrefix(s, "-")
	rest, ok := strings.CutPrefix(rest, "PT")
	if !ok || rest == "" {
		return 0, fmt.Errorf("invalid duration %q", s)
	}
	var d time.Duration
	for rest != "" {
		i := strings.IndexAny(rest, "HMS")
		if i <= 0 {
			return 0, fmt.Errorf("invalid duration %q", s)
		}
		v, err := strconv.ParseFloat(rest[:i], 64)
		if err != nil || v < 0 {
			return 0, fmt.Errorf("invalid duration %q", s)
		}
		switch rest[i] {
		case 'H':
			d += time.Duration(math.Round(v * float64(time.Hour)))
		case 'M':
			d += time.Duration(math.Round(v * float64(time.Minute)))
		case 'S':
			d += time.Duration(math.Round(v * float64(time.Second)))
		}
		rest = rest[i+1:]
	}
	if neg {
		d = -d
	}
	return d, nil
}

// FormatDuration formats d as an ISO 8601 duration, eg "PT01H02M03S",
// "PT00H00M01.25S" or "-PT01H00M00S".
func FormatDuration(d time.Duration) string {
	sign := ""
	if d < 0 {
		sign = "-"
		d = -d
	}
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	sec := d / time.Second
	frac := d - sec*time.Second
	if frac == 0 {
		return fmt.Sprintf("%sPT%02dH%02dM%02dS", sign, h, m, sec)
	}
	digits := strings.TrimRight(fmt.Sprintf("%09d", frac), "0")
	return fmt.Sprintf("%sPT%02dH%02dM%02d.%sS", sign, h, m, sec, digits)
}
