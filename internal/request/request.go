package request

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
)

// Request holds the fields extracted from a raw request. Any field whose
// pattern does not match is left empty.
type Request struct {
	RequestLine RequestLine
	Accept      string
}

type RequestLine struct {
	HttpVersion   string
	RequestTarget string
	Method        string
}

var (
	methodPattern   = regexp.MustCompile(`^[A-Z]+`)
	targetPattern   = regexp.MustCompile(`[/A-Za-z.1-9]+ HTTP`)
	acceptPattern   = regexp.MustCompile(`Accept: [A-Za-z*]+/[A-Za-z*]+`)
	protocolPattern = regexp.MustCompile(`HTTP/[0-9]\.[0-9]`)
)

const (
	targetSuffix = " HTTP"
	acceptPrefix = "Accept: "
)

// ErrIncompleteRequest is returned by ReadRaw when the stream ends before the
// blank line that terminates the request header.
var ErrIncompleteRequest = errors.New("incomplete request")

// Method returns the leading run of uppercase ASCII letters.
func Method(raw string) string {
	return methodPattern.FindString(raw)
}

// Target returns the first path token followed by " HTTP", without the suffix.
func Target(raw string) string {
	match := targetPattern.FindString(raw)
	return strings.TrimSuffix(match, targetSuffix)
}

// ContentType returns the type/subtype of the first Accept header.
func ContentType(raw string) string {
	match := acceptPattern.FindString(raw)
	return strings.TrimPrefix(match, acceptPrefix)
}

// Protocol returns the first HTTP/<digit>.<digit> token.
func Protocol(raw string) string {
	return protocolPattern.FindString(raw)
}

func Parse(raw string) Request {
	return Request{
		RequestLine: RequestLine{
			Method:        Method(raw),
			RequestTarget: Target(raw),
			HttpVersion:   Protocol(raw),
		},
		Accept: ContentType(raw),
	}
}

// ReadRaw reads header lines until the first empty line and returns them
// concatenated with the line terminators removed and nothing in between.
func ReadRaw(r *bufio.Reader) (string, error) {
	var sb strings.Builder
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			if errors.Is(err, io.EOF) {
				return "", fmt.Errorf("%w: read %d bytes before EOF", ErrIncompleteRequest, sb.Len()+len(line))
			}
			return "", err
		}

		line = strings.TrimSuffix(line, "\n")
		line = strings.TrimSuffix(line, "\r")
		if line == "" {
			return sb.String(), nil
		}
		sb.WriteString(line)
	}
}

// RequestFromReader reads and parses a single request from reader.
func RequestFromReader(reader io.Reader) (*Request, string, error) {
	raw, err := ReadRaw(bufio.NewReader(reader))
	if err != nil {
		return nil, "", err
	}
	req := Parse(raw)
	return &req, raw, nil
}
