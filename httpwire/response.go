package httpwire

import (
	"strconv"
	"strings"
)

// reasonPhrases maps the recognized status codes to their canonical
// reason string. The set is extensible; unknown codes serialize with an
// empty reason.
var reasonPhrases = map[int]string{
	200: "OK",
	400: "Bad Request",
	404: "Not Found",
	405: "Method Not Allowed",
	500: "Internal Server Error",
}

// Response is the serializable form of one HTTP/1.1 response message.
type Response struct {
	Status  int
	Headers map[string]string
	body    []byte
}

// NewResponse constructs a response with the Connection: close header
// pre-set, matching the server's always-close policy.
func NewResponse(status int) *Response {
	return &Response{
		Status:  status,
		Headers: map[string]string{"Connection": "close"},
	}
}

// SetHeader assigns a header value (case-sensitive key).
func (r *Response) SetHeader(name, value string) {
	r.Headers[name] = value
}

// Body returns the current body bytes.
func (r *Response) Body() []byte { return r.body }

// SetBody assigns the response body. A non-empty body sets/updates
// Content-Length to its length; an empty body removes the header.
func (r *Response) SetBody(b []byte) {
	r.body = b
	if len(b) == 0 {
		delete(r.Headers, "Content-Length")
		return
	}
	r.Headers["Content-Length"] = strconv.Itoa(len(b))
}

// Reason returns the canonical reason phrase for Status, or "" if the
// status is not in the recognized set.
func (r *Response) Reason() string { return reasonPhrases[r.Status] }

// Serialize emits HTTP/1.1 CODE REASON\r\n, each header as
// Name: Value\r\n, a terminating \r\n, then the body.
func (r *Response) Serialize() []byte {
	var b strings.Builder
	b.WriteString(version11)
	b.WriteByte(' ')
	b.WriteString(strconv.Itoa(r.Status))
	b.WriteByte(' ')
	b.WriteString(r.Reason())
	b.WriteString("\r\n")
	for name, value := range r.Headers {
		b.WriteString(name)
		b.WriteString(": ")
		b.WriteString(value)
		b.WriteString("\r\n")
	}
	b.WriteString("\r\n")
	b.Write(r.body)
	return []byte(b.String())
}

// ParseResponse parses one response message out of data, the mirror of
// Parse for requests. Used by the round-trip tests and by any client-side
// tooling embedding this package.
func ParseResponse(data []byte) (*Response, error) {
	s := string(data)

	sp := strings.IndexByte(s, ' ')
	if sp < 0 {
		return nil, newParseError(PhaseVersion, "no space after version")
	}
	if s[:sp] != version11 {
		return nil, newParseError(PhaseVersion, "unsupported version %q", s[:sp])
	}
	s = s[sp+1:]

	crlf := strings.Index(s, "\r\n")
	if crlf < 0 {
		return nil, newParseError(PhaseStatus, "no CRLF after status line")
	}
	statusLine := s[:crlf]
	s = s[crlf+2:]

	sp = strings.IndexByte(statusLine, ' ')
	var codeStr string
	if sp < 0 {
		codeStr = statusLine
	} else {
		codeStr = statusLine[:sp]
	}
	code, err := strconv.Atoi(codeStr)
	if err != nil {
		return nil, newParseError(PhaseStatus, "invalid status code %q", codeStr)
	}

	headers := make(map[string]string)
	for {
		crlf = strings.Index(s, "\r\n")
		if crlf < 0 {
			return nil, newParseError(PhaseHeaders, "unterminated header block")
		}
		line := s[:crlf]
		s = s[crlf+2:]
		if line == "" {
			break
		}
		colon := strings.IndexByte(line, ':')
		if colon < 0 {
			return nil, newParseError(PhaseHeaders, "missing colon in header line %q", line)
		}
		name := line[:colon]
		// The byte immediately after the colon is discarded unconditionally
		// as the single separating space, not "skip a space if present".
		var value string
		if colon+2 <= len(line) {
			value = line[colon+2:]
		}
		headers[name] = value
	}

	resp := &Response{Status: code, Headers: headers}
	if len(s) > 0 {
		resp.body = []byte(s)
	}
	return resp, nil
}
