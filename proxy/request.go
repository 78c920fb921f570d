package proxy

import "strings"

// Request is the parsed request line of an incoming HTTP/1.0 request, plus
// the host/path/port split out of its URI.
type Request struct {
	Method string
	URI    string
	Proto  string

	Host string
	Path string
	Port string
}

// DefaultPort is used when the request URI carries no explicit port.
const DefaultPort = "80"

// ParseRequestLine splits a raw request line of the form
// "GET <uri> HTTP/x.y" into its three tokens. A line that doesn't split
// into exactly three whitespace-separated fields is a StatusError(400); a
// method other than GET is a StatusError(501).
func ParseRequestLine(line string) (*Request, error) {
	line = strings.TrimRight(line, "\r\n")
	fields := strings.Fields(line)
	if len(fields) != 3 {
		return nil, badRequest("request line must have exactly three fields")
	}

	r := &Request{Method: fields[0], URI: fields[1], Proto: fields[2]}
	if r.Method != "GET" {
		return nil, notImplemented(r.Method)
	}
	if !strings.HasPrefix(r.Proto, "HTTP/") {
		return nil, badRequest("malformed protocol token")
	}

	host, path, port, err := parseURI(r.URI)
	if err != nil {
		return nil, err
	}
	r.Host, r.Path, r.Port = host, path, port
	return r, nil
}

// parseURI splits a request URI into host, path and port: strip any
// "scheme://" prefix, then split on the first '/' for the path and on the
// first ':' before that '/' for the port. A URI with no path is rewritten
// to "/".
func parseURI(uri string) (host, path, port string, err error) {
	if uri == "" {
		return "", "", "", badRequest("empty URI")
	}

	rest := uri
	if idx := strings.Index(rest, "://"); idx >= 0 {
		rest = rest[idx+3:]
	}

	hostport := rest
	path = "/"
	if slash := strings.IndexByte(rest, '/'); slash >= 0 {
		hostport = rest[:slash]
		path = rest[slash:]
	}
	if hostport == "" {
		return "", "", "", badRequest("missing host in URI")
	}

	host = hostport
	port = DefaultPort
	if colon := strings.IndexByte(hostport, ':'); colon >= 0 {
		host = hostport[:colon]
		port = hostport[colon+1:]
		if port == "" {
			return "", "", "", badRequest("empty port in URI")
		}
	}

	return host, path, port, nil
}

// OriginRequestLine is the request line the proxy sends to the origin, in
// the reference's GET /<path> form: any leading slash on Path is stripped
// and a single '/' is prepended, so the target always starts with exactly
// one slash whether or not Path already began with one.
func (r *Request) OriginRequestLine() string {
	return "GET /" + strings.TrimPrefix(r.Path, "/") + " HTTP/1.0\r\n"
}

// Fingerprint returns the cache key for this request's target.
func (r *Request) Fingerprint() Fingerprint {
	return Fingerprint{Host: r.Host, Path: r.Path, Port: r.Port}
}
