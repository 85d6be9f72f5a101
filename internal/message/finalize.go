package message

import (
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// rfc7231Format is the IMF-fixdate layout required for the Date header,
// spelled out locally rather than pulled from net/http.TimeFormat so this
// package has no dependency on the standard library's HTTP server.
const rfc7231Format = "Mon, 02 Jan 2006 15:04:05 GMT"

// Finalize applies the core's mandatory post-handler steps: stat a file
// body to get its exact size, then inject Date, Server, Connection and
// Content-Length. It returns an error only when a file body could not be
// stat'd or is a directory — the caller (the dispatch layer) turns that into a synthesized
// 500.
func (r *Response) Finalize(keepAlive bool, serverName string, now time.Time) error {
	switch r.BodyKind {
	case BodyFile:
		info, err := os.Stat(r.FilePath)
		if err != nil {
			return err
		}
		if info.IsDir() {
			return fmt.Errorf("message: %s is a directory", r.FilePath)
		}
		r.FileSize = info.Size()
		if r.ContentType == "" {
			r.ContentType = mimeTypeFor(r.FilePath)
		}
		if !r.HasHeader("Content-Type") {
			r.SetHeader("Content-Type", r.ContentType)
		}
	case BodyBytes:
		if !r.HasHeader("Content-Type") && len(r.Bytes) > 0 {
			r.SetHeader("Content-Type", "application/octet-stream")
		}
	}

	if !r.HasHeader("Date") {
		r.SetHeader("Date", now.UTC().Format(rfc7231Format))
	}
	if !r.HasHeader("Server") {
		r.SetHeader("Server", serverName)
	}
	if !r.HasHeader("Accept-Ranges") {
		r.SetHeader("Accept-Ranges", "none")
	}

	if keepAlive {
		r.SetHeader("Connection", "keep-alive")
	} else {
		r.SetHeader("Connection", "close")
	}

	r.SetHeader("Content-Length", strconv.FormatInt(r.contentLength(), 10))
	return nil
}

func (r *Response) contentLength() int64 {
	switch r.BodyKind {
	case BodyBytes:
		return int64(len(r.Bytes))
	case BodyFile:
		return r.FileSize
	default:
		return 0
	}
}

// NewErrorResponse builds one of the core's synthesized error responses,
// using a minimal JSON body {"error": "<kind>"}. kind is a short taxonomy
// tag such as "parse_error", "handler_fault", or "queue_full", not the
// reason phrase.
func NewErrorResponse(status int, kind string) *Response {
	r := NewResponse()
	r.Status = status
	body := `{"error":"` + kind + `"}`
	r.SetHeader("Content-Type", "application/json")
	r.BodyKind = BodyBytes
	r.Bytes = []byte(body)
	return r
}

func mimeTypeFor(path string) string {
	if t := mime.TypeByExtension(filepath.Ext(path)); t != "" {
		return t
	}
	return "application/octet-stream"
}
