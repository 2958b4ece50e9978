package imsig

import (
	"fmt"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Value is a query parameter value. The set of implementations is closed:
// String, Int and Bool.
type Value interface {
	// Format returns the value in its unescaped string form.
	Format() string

	value()
}

// String is a textual query parameter value.
type String string

// Format returns s unchanged.
func (s String) Format() string { return string(s) }

func (String) value() {}

// Int is an integer query parameter value.
type Int int64

// Format returns i in base 10.
func (i Int) Format() string { return strconv.FormatInt(int64(i), 10) }

func (Int) value() {}

// Bool is a boolean query parameter value. It is always rendered in lower
// case.
type Bool bool

// Format returns "true" or "false".
func (b Bool) Format() string { return strconv.FormatBool(bool(b)) }

func (Bool) value() {}

// Params maps query parameter names to values.
type Params map[string]Value

// Keys returns the parameter names in ascending byte order.
func (p Params) Keys() []string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}

	slices.Sort(keys)

	return keys
}

// Query renders p as a URL query string. The output matches EncodeParams
// except that names are query-escaped, so a server decoding the query sees
// exactly the names and values that were signed.
func (p Params) Query() string {
	return p.encode(url.QueryEscape)
}

// EncodeParams returns the canonical form of p used in the signing string:
// names sorted by byte order, values percent-encoded with spaces rendered as
// '+', pairs joined with '&'. Names are written unescaped. A nil or empty
// Params encodes to the empty string.
func EncodeParams(p Params) string {
	return p.encode(func(k string) string { return k })
}

func (p Params) encode(key func(string) string) string {
	if len(p) == 0 {
		return ""
	}

	var b strings.Builder

	for i, k := range p.Keys() {
		if i > 0 {
			b.WriteByte('&')
		}

		b.WriteString(key(k))
		b.WriteByte('=')
		b.WriteString(escapeValue(formatValue(p[k])))
	}

	return b.String()
}

// Validate reports ErrInvalidEncoding when a name or value is not valid
// UTF-8.
func (p Params) Validate() error {
	for k, v := range p {
		if !utf8.ValidString(k) {
			return fmt.Errorf("%w: parameter name %q", ErrInvalidEncoding, k)
		}

		if !utf8.ValidString(formatValue(v)) {
			return fmt.Errorf("%w: value of parameter %q", ErrInvalidEncoding, k)
		}
	}

	return nil
}

// ParamsFromQuery converts a decoded query into Params of String values.
// It returns ErrRepeatedParam when a name carries more than one value.
func ParamsFromQuery(q url.Values) (Params, error) {
	if len(q) == 0 {
		return nil, nil
	}

	p := make(Params, len(q))

	for k, vs := range q {
		if len(vs) > 1 {
			return nil, fmt.Errorf("%w: %s", ErrRepeatedParam, k)
		}

		if len(vs) == 1 {
			p[k] = String(vs[0])
		} else {
			p[k] = String("")
		}
	}

	return p, nil
}

func formatValue(v Value) string {
	if v == nil {
		return ""
	}

	return v.Format()
}

const upperhex = "0123456789ABCDEF"

// escapeValue percent-encodes every byte outside [A-Za-z0-9_.~/-] and then
// renders the encoded space as '+'. The remote decoder depends on this exact
// output.
func escapeValue(s string) string {
	var b strings.Builder

	b.Grow(len(s))

	for i := 0; i < len(s); i++ {
		c := s[i]

		switch {
		case c == ' ':
			b.WriteByte('+')
		case isUnreserved(c):
			b.WriteByte(c)
		default:
			b.WriteByte('%')
			b.WriteByte(upperhex[c>>4])
			b.WriteByte(upperhex[c&0x0f])
		}
	}

	return b.String()
}

func isUnreserved(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	case c == '_', c == '.', c == '-', c == '~', c == '/':
		return true
	}

	return false
}
