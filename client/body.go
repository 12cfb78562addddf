package client

import (
	"bytes"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
	"syscall"
)

// body is a request payload. Replayable bodies can be cloned.
type body interface {
	open() (io.ReadCloser, int64, error)
	contentType() string
	clone() (body, bool)
	close()
}

type bytesBody struct {
	data  []byte
	ctype string
}

func (b *bytesBody) open() (io.ReadCloser, int64, error) {
	return io.NopCloser(bytes.NewReader(b.data)), int64(len(b.data)), nil
}

func (b *bytesBody) contentType() string { return b.ctype }

func (b *bytesBody) clone() (body, bool) { return b, true }

func (b *bytesBody) close() {}

// fileBody streams an already opened file. It can be sent once.
type fileBody struct {
	f    *os.File
	size int64
}

func openFileBody(path string) (*fileBody, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	st, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	if st.IsDir() {
		f.Close()
		return nil, &os.PathError{Op: "open", Path: path, Err: syscall.EISDIR}
	}
	return &fileBody{f: f, size: st.Size()}, nil
}

func (b *fileBody) open() (io.ReadCloser, int64, error) {
	if b.f == nil {
		return nil, 0, errBodyUsed
	}
	f := b.f
	b.f = nil
	return f, b.size, nil
}

func (b *fileBody) contentType() string { return "" }

func (b *fileBody) clone() (body, bool) { return nil, false }

func (b *fileBody) close() {
	if b.f != nil {
		b.f.Close()
		b.f = nil
	}
}

// multipartBody is a multipart/form-data payload with one file part.
type multipartBody struct {
	name     string
	file     *fileBody
	filename string
	boundary string
}

func newMultipartBody(name, path string) (*multipartBody, error) {
	fb, err := openFileBody(path)
	if err != nil {
		return nil, err
	}
	return &multipartBody{
		name:     name,
		file:     fb,
		filename: filepath.Base(path),
		boundary: multipart.NewWriter(io.Discard).Boundary(),
	}, nil
}

func (b *multipartBody) open() (io.ReadCloser, int64, error) {
	src, _, err := b.file.open()
	if err != nil {
		return nil, 0, err
	}

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	if err := mw.SetBoundary(b.boundary); err != nil {
		src.Close()
		return nil, 0, err
	}

	go func() {
		defer src.Close()
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
			escapeQuotes(b.name), escapeQuotes(b.filename)))
		h.Set("Content-Type", fileContentType(b.filename))
		part, err := mw.CreatePart(h)
		if err == nil {
			_, err = io.Copy(part, src)
		}
		if err == nil {
			err = mw.Close()
		}
		pw.CloseWithError(err)
	}()

	return pr, -1, nil
}

func (b *multipartBody) contentType() string {
	return "multipart/form-data; boundary=" + b.boundary
}

func (b *multipartBody) clone() (body, bool) { return nil, false }

func (b *multipartBody) close() { b.file.close() }

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}

func fileContentType(name string) string {
	if t := mime.TypeByExtension(filepath.Ext(name)); t != "" {
		return t
	}
	return "application/octet-stream"
}
