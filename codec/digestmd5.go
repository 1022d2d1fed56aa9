package codec

import "strings"

// quoteState tracks whether the directive scanner is inside a
// double-quoted value, so commas and key=value separators inside quotes
// are not mistaken for directive boundaries (spec.md §9's quote-state
// design note: {Outside, InQuotes, Escape}).
type quoteState int

const (
	stateOutside quoteState = iota
	stateInQuotes
	stateEscape
)

// ParseDirectives parses a RFC 2831 DIGEST-MD5 comma-separated
// key=value directive set, where a value may be a quoted string
// containing commas. ASCII whitespace between tokens is ignored.
// Duplicate keys overwrite earlier ones; callers that must enforce
// RFC 2831's per-key repetition limits do so themselves, since those
// limits differ between the challenge and the response directive sets.
func ParseDirectives(b []byte) (map[string]string, error) {
	out := make(map[string]string)

	i := 0
	n := len(b)
	skipWS := func() {
		for i < n && (b[i] == ' ' || b[i] == '\t' || b[i] == '\r' || b[i] == '\n') {
			i++
		}
	}

	for {
		skipWS()
		if i >= n {
			break
		}

		keyStart := i
		for i < n && b[i] != '=' {
			i++
		}
		if i >= n {
			return nil, parseErrorf("directive missing '=' after key")
		}
		key := strings.TrimSpace(string(b[keyStart:i]))
		if key == "" {
			return nil, parseErrorf("empty directive key")
		}
		i++ // consume '='

		var val strings.Builder
		if i < n && b[i] == '"' {
			i++
			state := stateInQuotes
			closed := false
			for i < n {
				c := b[i]
				switch state {
				case stateInQuotes:
					switch c {
					case '\\':
						state = stateEscape
					case '"':
						closed = true
						i++
					default:
						val.WriteByte(c)
					}
				case stateEscape:
					val.WriteByte(c)
					state = stateInQuotes
				}
				if closed {
					break
				}
				i++
			}
			if !closed {
				return nil, parseErrorf("unterminated quoted directive value")
			}
		} else {
			for i < n && b[i] != ',' {
				val.WriteByte(b[i])
				i++
			}
		}

		out[key] = val.String()

		skipWS()
		if i >= n {
			break
		}
		if b[i] != ',' {
			return nil, parseErrorf("expected ',' between directives")
		}
		i++
	}

	return out, nil
}

// directiveNeedsQuoting is the set of directive keys RFC 2831 always
// prints as quoted strings.
var directiveNeedsQuoting = map[string]bool{
	"username": true, "realm": true, "nonce": true, "cnonce": true,
	"digest-uri": true, "authzid": true, "cipher": true,
}

// PrintDirectives renders a directive set in canonical DIGEST-MD5 form,
// in the order given by keys so the caller controls the wire ordering
// (RFC 2831 does not mandate one, but servers are more interoperable
// when the challenge looks like the ones they have seen before).
func PrintDirectives(keys []string, values map[string]string) string {
	var b strings.Builder
	for n, k := range keys {
		if n > 0 {
			b.WriteByte(',')
		}
		b.WriteString(k)
		b.WriteByte('=')
		v := values[k]
		if directiveNeedsQuoting[k] {
			b.WriteByte('"')
			b.WriteString(strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(v))
			b.WriteByte('"')
		} else {
			b.WriteString(v)
		}
	}
	return b.String()
}
