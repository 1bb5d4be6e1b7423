package response

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

const closingTag = "</html>"

// FileInfo is what the builder needs to know about a target on disk.
type FileInfo struct {
	Exists bool
	Size   int64
}

// TargetPath joins root and target without cleaning the result.
func TargetPath(root, target string) string {
	return root + "/" + target
}

// Lookup stats path. Anything that cannot be stat'ed counts as missing.
func Lookup(path string) FileInfo {
	fi, err := os.Stat(path)
	if err != nil {
		return FileInfo{}
	}
	return FileInfo{
		Exists: true,
		Size:   fi.Size(),
	}
}

// BodyError is returned when an existing target cannot be read.
type BodyError struct {
	Path  string
	Cause error
}

func (e *BodyError) Error() string {
	return fmt.Sprintf("failed to read body from %s: %s", e.Path, e.Cause)
}

func (e *BodyError) Unwrap() error {
	return e.Cause
}

// GenerateBody reads the file at path, drops its first line and rewraps the
// rest under a fresh <html> line. Every line is followed by a newline except
// a bare </html>.
func GenerateBody(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", &BodyError{Path: path, Cause: err}
	}
	defer f.Close()

	var body strings.Builder
	body.WriteString(htmlTag + "\n")

	r := bufio.NewReader(f)
	for first := true; ; first = false {
		line, err := r.ReadString('\n')
		if err != nil && err != io.EOF {
			return "", &BodyError{Path: path, Cause: err}
		}
		if line == "" && err == io.EOF {
			break
		}

		line = strings.TrimSuffix(line, "\n")
		line = strings.TrimSuffix(line, "\r")
		if !first {
			body.WriteString(line)
			if line != closingTag {
				body.WriteString("\n")
			}
		}
		if err == io.EOF {
			break
		}
	}

	return body.String(), nil
}
