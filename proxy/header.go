package proxy

import (
	"bufio"
	"io"
	"strings"
)

// UserAgent is the fixed User-Agent string the proxy supplies to every
// origin, regardless of what the client sent.
const UserAgent = "Mozilla/5.0 (X11; Linux x86_64; rv:10.0.3) Gecko/20120305 Firefox/10.0.3"

const acceptHeader = "Accept: text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8\r\n"
const acceptEncodingHeader = "Accept-Encoding: gzip, deflate\r\n"

// suppressedHeaders are the five client-supplied headers the proxy always
// drops and resupplies itself.
var suppressedHeaders = map[string]bool{
	"user-agent":       true,
	"accept":           true,
	"accept-encoding":  true,
	"connection":       true,
	"proxy-connection": true,
}

// rewriteHeaders streams header lines read from r to w, dropping any line
// whose field name (the token before the first ':') matches, case
// insensitively, one of suppressedHeaders. It stops at the first blank
// line (the end of the header block) and reports whether the client
// supplied its own Host header.
func rewriteHeaders(r *bufio.Reader, w io.Writer) (gotHost bool, err error) {
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			return gotHost, badGateway("reading client headers: " + err.Error())
		}
		if isBlankHeaderLine(line) {
			return gotHost, nil
		}

		name := headerFieldName(line)
		if name == "host" {
			gotHost = true
		}
		if suppressedHeaders[name] {
			continue
		}
		if _, err := io.WriteString(w, line); err != nil {
			return gotHost, badGateway("writing to origin: " + err.Error())
		}
	}
}

// writeProxyHeaders appends the proxy's own headers to an origin request,
// in a fixed order, finishing with the blank line that terminates the
// header block.
func writeProxyHeaders(w io.Writer, host string, gotHost bool) error {
	var b strings.Builder
	if !gotHost {
		b.WriteString("Host: " + host + "\r\n")
	}
	b.WriteString("User-Agent: " + UserAgent + "\r\n")
	b.WriteString(acceptHeader)
	b.WriteString(acceptEncodingHeader)
	b.WriteString("Connection: close\r\n")
	b.WriteString("Proxy-Connection: close\r\n")
	b.WriteString("\r\n")
	_, err := io.WriteString(w, b.String())
	return err
}

func isBlankHeaderLine(line string) bool {
	return line == "\r\n" || line == "\n" || line == ""
}

func headerFieldName(line string) string {
	colon := strings.IndexByte(line, ':')
	if colon < 0 {
		return ""
	}
	return strings.ToLower(strings.TrimSpace(line[:colon]))
}
