package response

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/Hill11235/scratch-http-server/internal/headers"
	"github.com/Hill11235/scratch-http-server/internal/request"
)

type StatusCode int

const (
	OK             StatusCode = 200
	NotFound       StatusCode = 404
	NotImplemented StatusCode = 501
)

const (
	serverName = "HTTPServer"
	htmlType   = "text/html"
	htmlTag    = "<html>"

	// notImplementedHeader is sent as-is whatever protocol the client asked for.
	notImplementedHeader = "HTTP/1.1 501 Not Implemented\r\n\r\n"

	headerTerminator = "\r\n\r\n"
)

func (s StatusCode) Text() string {
	switch s {
	case OK:
		return "OK"
	case NotFound:
		return "Not Found"
	case NotImplemented:
		return "Not Implemented"
	default:
		return ""
	}
}

func WriteStatusLine(w io.Writer, protocol string, statusCode StatusCode) error {
	_, err := fmt.Fprintf(w, "%s %d %s\n", protocol, statusCode, statusCode.Text())
	return err
}

// GetDefaultHeaders returns the fields every file response carries, in wire
// order.
func GetDefaultHeaders(contentType string, contentLen int64) headers.Headers {
	header := headers.NewHeaders()
	header.Set("Server", serverName)
	header.Set("Content-Type", contentType)
	header.Set("Content-Length", strconv.FormatInt(contentLen, 10))
	return header
}

// Response is a fully synthesized reply to one request.
type Response struct {
	Protocol string
	Status   StatusCode
	Headers  headers.Headers

	// Body is the synthesized document. It is only written for GET.
	Body     string
	sendBody bool
}

// Build resolves req against the document root and synthesizes the response.
// The only error it returns is a *BodyError, when an existing target cannot be
// read for a GET. A HEAD whose target cannot be read gets an empty body.
// An unrecognized target still resolves to the root for its status but never
// gets a body.
func Build(req request.Request, root string) (*Response, error) {
	method := req.RequestLine.Method
	if method != "GET" && method != "HEAD" {
		return &Response{
			Protocol: "HTTP/1.1",
			Status:   NotImplemented,
		}, nil
	}

	target := req.RequestLine.RequestTarget
	path := TargetPath(root, target)
	info := Lookup(path)

	resp := &Response{
		Protocol: req.RequestLine.HttpVersion,
		Status:   NotFound,
		sendBody: method == "GET",
	}
	if info.Exists {
		resp.Status = OK
	}
	if info.Exists && target != "" {
		body, err := GenerateBody(path)
		switch {
		case err == nil:
			resp.Body = body
		case method == "GET":
			return nil, err
		}
	}

	resp.Headers = GetDefaultHeaders(req.Accept, info.Size)
	if strings.Contains(resp.Body, htmlTag) {
		resp.Headers.Replace("Content-Type", htmlType)
	}
	return resp, nil
}

// Header renders the status line, header fields and terminator.
func (r *Response) Header() string {
	if r.Status == NotImplemented {
		return notImplementedHeader
	}

	var sb strings.Builder
	WriteStatusLine(&sb, r.Protocol, r.Status)
	r.Headers.Write(&sb)
	sb.WriteString(headerTerminator)
	return sb.String()
}

// WireBody is the part of Body that goes on the wire.
func (r *Response) WireBody() string {
	if !r.sendBody {
		return ""
	}
	return r.Body
}

func (r *Response) Write(w io.Writer) error {
	_, err := io.WriteString(w, r.Header())
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, r.WireBody())
	return err
}
