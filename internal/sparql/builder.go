package sparql

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidIRI is returned for IRIs that cannot be embedded in query text.
var ErrInvalidIRI = errors.New("invalid IRI")

// Builder assembles query text. Every value that comes from outside the
// program goes through Literal or IRI; Raw is for fixed query syntax only.
// The first invalid value is reported by Build.
type Builder struct {
	prefixes []string
	body     strings.Builder
	err      error
}

// NewBuilder starts an empty query.
func NewBuilder() *Builder {
	return &Builder{}
}

// Prefix declares a namespace prefix.
func (b *Builder) Prefix(name, namespace string) *Builder {
	if err := ValidateIRI(namespace); err != nil {
		b.fail(err)
		return b
	}
	b.prefixes = append(b.prefixes, fmt.Sprintf("PREFIX %s: <%s>", name, namespace))
	return b
}

// Raw appends fixed query syntax.
func (b *Builder) Raw(s string) *Builder {
	b.body.WriteString(s)
	return b
}

// Rawf appends formatted fixed syntax. Arguments must not carry user text.
func (b *Builder) Rawf(format string, args ...any) *Builder {
	fmt.Fprintf(&b.body, format, args...)
	return b
}

// Literal appends a quoted, escaped string literal, language-tagged when lang
// is non-empty.
func (b *Builder) Literal(value, lang string) *Builder {
	b.body.WriteString(QuoteLiteral(value))
	if lang != "" {
		if !validLang(lang) {
			b.fail(fmt.Errorf("invalid language tag %q", lang))
			return b
		}
		b.body.WriteString("@" + lang)
	}
	return b
}

// IRI appends <iri> after validating it.
func (b *Builder) IRI(iri string) *Builder {
	if err := ValidateIRI(iri); err != nil {
		b.fail(err)
		return b
	}
	b.body.WriteString("<" + iri + ">")
	return b
}

// Int appends an integer.
func (b *Builder) Int(n int) *Builder {
	b.body.WriteString(strconv.Itoa(n))
	return b
}

// Build returns the query text.
func (b *Builder) Build() (string, error) {
	if b.err != nil {
		return "", b.err
	}
	if len(b.prefixes) == 0 {
		return b.body.String(), nil
	}
	return strings.Join(b.prefixes, "\n") + "\n" + b.body.String(), nil
}

func (b *Builder) fail(err error) {
	if b.err == nil {
		b.err = err
	}
}

// QuoteLiteral renders s as a double-quoted query string literal.
func QuoteLiteral(s string) string {
	var sb strings.Builder
	sb.Grow(len(s) + 2)
	sb.WriteByte('"')
	for _, r := range s {
		switch r {
		case '\\':
			sb.WriteString(`\\`)
		case '"':
			sb.WriteString(`\"`)
		case '\n':
			sb.WriteString(`\n`)
		case '\r':
			sb.WriteString(`\r`)
		case '\t':
			sb.WriteString(`\t`)
		default:
			sb.WriteRune(r)
		}
	}
	sb.WriteByte('"')
	return sb.String()
}

// ValidateIRI rejects IRIs containing characters that would break out of
// <...> in query text.
func ValidateIRI(iri string) error {
	if iri == "" {
		return fmt.Errorf("%w: empty", ErrInvalidIRI)
	}
	if i := strings.IndexAny(iri, "<>\"{}|^`\\ \t\n\r"); i >= 0 {
		return fmt.Errorf("%w: %q contains %q", ErrInvalidIRI, iri, iri[i])
	}
	if !strings.Contains(iri, ":") {
		return fmt.Errorf("%w: %q is not absolute", ErrInvalidIRI, iri)
	}
	return nil
}

func validLang(lang string) bool {
	for _, r := range lang {
		if !(r == '-' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')) {
			return false
		}
	}
	return lang != ""
}
