package response

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Hill11235/scratch-http-server/internal/request"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const indexPage = "<html>\n<head><title>Index</title></head>\n<body>hello</body>\n</html>\n"

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func parsed(method, target, protocol, accept string) request.Request {
	return request.Request{
		RequestLine: request.RequestLine{
			Method:        method,
			RequestTarget: target,
			HttpVersion:   protocol,
		},
		Accept: accept,
	}
}

func TestBuildNotImplemented(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "index.html", indexPage)

	testCases := []struct {
		name string
		req  request.Request
	}{
		{name: "post existing file", req: parsed("POST", "/index.html", "HTTP/1.0", "text/html")},
		{name: "delete missing file", req: parsed("DELETE", "/missing.html", "HTTP/1.1", "")},
		{name: "no method", req: parsed("", "", "", "")},
		{name: "unknown method", req: parsed("GETX", "/index.html", "HTTP/1.1", "")},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			resp, err := Build(tc.req, root)
			require.NoError(t, err)
			assert.Equal(t, NotImplemented, resp.Status)
			assert.Equal(t, "HTTP/1.1", resp.Protocol)
			assert.Equal(t, "HTTP/1.1 501 Not Implemented\r\n\r\n", resp.Header())
			assert.Empty(t, resp.WireBody())
		})
	}
}

func TestBuildNotImplementedSkipsFilesystem(t *testing.T) {
	// A root that cannot exist must not matter.
	resp, err := Build(parsed("PUT", "/index.html", "HTTP/1.0", ""), "/nonexistent/\x00root")
	require.NoError(t, err)
	assert.Equal(t, NotImplemented, resp.Status)
}

func TestBuildGetExisting(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "jonl/index.html", indexPage)

	resp, err := Build(parsed("GET", "/jonl/index.html", "HTTP/1.1", "*/*"), root)
	require.NoError(t, err)
	assert.Equal(t, OK, resp.Status)

	wantBody := "<html>\n<head><title>Index</title></head>\n<body>hello</body>\n</html>"
	assert.Equal(t, wantBody, resp.Body)
	assert.Equal(t, wantBody, resp.WireBody())

	// Content-Length is the on-disk size, not the rewrapped body length.
	wantHeader := "HTTP/1.1 200 OK\n" +
		"Server: HTTPServer\n" +
		"Content-Type: text/html\n" +
		"Content-Length: 68\n" +
		"\r\n\r\n"
	assert.Equal(t, 68, len(indexPage))
	assert.Equal(t, 67, len(resp.Body))
	assert.NotEqual(t, len(indexPage), len(resp.Body))
	assert.Equal(t, wantHeader, resp.Header())

	var buf bytes.Buffer
	require.NoError(t, resp.Write(&buf))
	assert.Equal(t, wantHeader+wantBody, buf.String())
}

func TestBuildHeadExisting(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "index.html", indexPage)

	resp, err := Build(parsed("HEAD", "/index.html", "HTTP/1.0", "image/png"), root)
	require.NoError(t, err)
	assert.Equal(t, OK, resp.Status)
	assert.Empty(t, resp.WireBody())

	ct, ok := resp.Headers.Get("Content-Type")
	require.True(t, ok)
	assert.Equal(t, "text/html", ct)
	assert.Equal(t, "HTTP/1.0 200 OK\nServer: HTTPServer\nContent-Type: text/html\nContent-Length: 68\n\r\n\r\n", resp.Header())

	var buf bytes.Buffer
	require.NoError(t, resp.Write(&buf))
	assert.Equal(t, resp.Header(), buf.String())
}

func TestBuildMissing(t *testing.T) {
	root := t.TempDir()

	for _, method := range []string{"GET", "HEAD"} {
		t.Run(method, func(t *testing.T) {
			resp, err := Build(parsed(method, "/missing.html", "HTTP/1.1", "text/plain"), root)
			require.NoError(t, err)
			assert.Equal(t, NotFound, resp.Status)
			assert.Empty(t, resp.Body)
			assert.Equal(t, "HTTP/1.1 404 Not Found\nServer: HTTPServer\nContent-Type: text/plain\nContent-Length: 0\n\r\n\r\n", resp.Header())
		})
	}
}

func TestBuildContentTypeOverride(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "notes.txt", "first line\nplain text\n")

	// Every readable target is rewrapped, so the override always applies.
	resp, err := Build(parsed("GET", "/notes.txt", "HTTP/1.1", "text/plain"), root)
	require.NoError(t, err)
	assert.Equal(t, "<html>\nplain text\n", resp.Body)
	ct, _ := resp.Headers.Get("Content-Type")
	assert.Equal(t, "text/html", ct)
}

func TestBuildUnreadableTarget(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(root, "dir"), 0o755))

	_, err := Build(parsed("GET", "/dir", "HTTP/1.1", ""), root)
	require.Error(t, err)

	var berr *BodyError
	require.True(t, errors.As(err, &berr))
	assert.Equal(t, TargetPath(root, "/dir"), berr.Path)
}

func TestBuildHeadUnreadableTarget(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "dir")
	require.NoError(t, os.Mkdir(dir, 0o755))
	info := Lookup(TargetPath(root, "/dir"))
	require.True(t, info.Exists)

	resp, err := Build(parsed("HEAD", "/dir", "HTTP/1.1", "text/plain"), root)
	require.NoError(t, err)
	assert.Equal(t, OK, resp.Status)
	assert.Empty(t, resp.Body)

	wantHeader := fmt.Sprintf("HTTP/1.1 200 OK\nServer: HTTPServer\nContent-Type: text/plain\nContent-Length: %d\n\r\n\r\n", info.Size)
	assert.Equal(t, wantHeader, resp.Header())
}

func TestBuildUnrecognizedTarget(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "index.html", indexPage)
	info := Lookup(TargetPath(root, ""))
	require.True(t, info.Exists)

	for _, method := range []string{"GET", "HEAD"} {
		t.Run(method, func(t *testing.T) {
			resp, err := Build(parsed(method, "", "HTTP/1.1", ""), root)
			require.NoError(t, err)
			assert.Equal(t, OK, resp.Status)
			assert.Empty(t, resp.Body)
			assert.Empty(t, resp.WireBody())

			wantHeader := fmt.Sprintf("HTTP/1.1 200 OK\nServer: HTTPServer\nContent-Type: \nContent-Length: %d\n\r\n\r\n", info.Size)
			assert.Equal(t, wantHeader, resp.Header())
		})
	}

	// A missing root still resolves to 404.
	resp, err := Build(parsed("GET", "", "HTTP/1.1", ""), filepath.Join(root, "missing"))
	require.NoError(t, err)
	assert.Equal(t, NotFound, resp.Status)
	assert.Empty(t, resp.Body)
}

func TestGenerateBody(t *testing.T) {
	testCases := []struct {
		name    string
		content string
		want    string
	}{
		{name: "empty file", content: "", want: "<html>\n"},
		{name: "single line", content: "<html>", want: "<html>\n"},
		{name: "closing tag has no newline", content: "<html>\n<p>x</p>\n</html>\n", want: "<html>\n<p>x</p>\n</html>"},
		{name: "indented closing tag keeps newline", content: "<html>\n  </html>\n", want: "<html>\n  </html>\n"},
		{name: "crlf lines", content: "<html>\r\n<p>x</p>\r\n</html>\r\n", want: "<html>\n<p>x</p>\n</html>"},
		{name: "no trailing newline", content: "<html>\nlast", want: "<html>\nlast\n"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			path := writeFile(t, t.TempDir(), "page.html", tc.content)
			body, err := GenerateBody(path)
			require.NoError(t, err)
			assert.Equal(t, tc.want, body)
		})
	}

	// Lines are not length limited.
	long := strings.Repeat("a", 2<<20)
	path := writeFile(t, t.TempDir(), "long.html", "<html>\n"+long+"\n</html>\n")
	body, err := GenerateBody(path)
	require.NoError(t, err)
	assert.Equal(t, "<html>\n"+long+"\n</html>", body)

	_, err = GenerateBody(filepath.Join(t.TempDir(), "missing.html"))
	var berr *BodyError
	require.ErrorAs(t, err, &berr)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestLookup(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.html", "12345")

	assert.Equal(t, FileInfo{Exists: true, Size: 5}, Lookup(TargetPath(root, "/a.html")))
	assert.Equal(t, FileInfo{}, Lookup(TargetPath(root, "/b.html")))
	assert.Equal(t, root+"//a.html", TargetPath(root, "/a.html"))
}

func TestWriteStatusLine(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteStatusLine(&buf, "HTTP/1.0", NotFound))
	assert.Equal(t, "HTTP/1.0 404 Not Found\n", buf.String())

	buf.Reset()
	require.NoError(t, WriteStatusLine(&buf, "", OK))
	assert.Equal(t, " 200 OK\n", buf.String())
}
