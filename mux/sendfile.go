package mux

import (
	"fmt"
	"io"
	"io/fs"
	"mime"
	"net/http"
	"os"
	"path"
	"strconv"
	"time"

	"github.com/vitalvas/stackmux/headers"
)

// FileCondition is the outcome of evaluating the conditional and range
// headers of a request against a file.
type FileCondition struct {
	// Status is one of 200, 206, 304 or 416.
	Status int

	// LastModified is the file modification time truncated to seconds.
	LastModified time.Time

	// Offset and Length select the bytes to send for 200 and 206.
	Offset int64
	Length int64

	// ContentRange is set for 206 and 416.
	ContentRange *headers.ContentRange
}

// EvaluateFile decides how to answer a request for a file of the given
// size and modification time.
//
//   - GET and HEAD with an If-Modified-Since at or after the
//     modification time get 304.
//   - Without a Range, or with an If-Range date older than the
//     modification time, the whole file is sent with 200.
//   - A range starting at or beyond the end of the file gets 416.
//   - A range covering the whole file is sent with 200, anything
//     smaller with 206.
//
// Only the first range of a multi-range request is honoured.
func EvaluateFile(method string, header http.Header, size int64, modTime time.Time) FileCondition {
	lastModified := modTime.UTC().Truncate(time.Second)
	full := FileCondition{Status: http.StatusOK, LastModified: lastModified, Length: size}

	if method == "" || method == http.MethodGet || method == http.MethodHead {
		ims, err := headers.ParseIfModifiedSince(header.Get("If-Modified-Since"))
		if err == nil && ims.Satisfied(lastModified) {
			return FileCondition{Status: http.StatusNotModified, LastModified: lastModified}
		}
	}

	ranges := headers.ParseRange(header.Get("Range"))
	if len(ranges) == 0 || staleIfRange(header.Get("If-Range"), lastModified) {
		return full
	}

	rng := ranges[0]

	if rng.HasStart && rng.Start >= size {
		cr, _ := headers.NewUnsatisfiedContentRange(size)
		return FileCondition{Status: http.StatusRequestedRangeNotSatisfiable, LastModified: lastModified, ContentRange: cr}
	}

	start, end := int64(0), size-1
	if rng.HasStart {
		start = rng.Start
	}

	if rng.HasEnd {
		if !rng.HasStart {
			start = max(size-rng.End, 0)
		} else if rng.End < end {
			end = rng.End
		}
	}

	if end-start+1 == size {
		return full
	}

	cr, err := headers.NewContentRange(start, end, size)
	if err != nil {
		return full
	}

	return FileCondition{
		Status:       http.StatusPartialContent,
		LastModified: lastModified,
		Offset:       start,
		Length:       end - start + 1,
		ContentRange: cr,
	}
}

// staleIfRange reports whether an If-Range date precedes lastModified.
// Values that are not dates, such as entity tags, never count as stale.
func staleIfRange(value string, lastModified time.Time) bool {
	if value == "" {
		return false
	}

	date, err := http.ParseTime(value)
	if err != nil {
		return false
	}

	return date.Before(lastModified)
}

// SendFile sends the regular file at name from the local file system and
// finishes the Context. See EvaluateFile for the conditional semantics.
func (c *Context) SendFile(name string) error {
	f, err := os.Open(name)
	if err != nil {
		return err
	}
	defer f.Close()

	return c.sendFile(f, name)
}

// SendFileFS is like SendFile but reads name from fsys.
func (c *Context) SendFileFS(fsys fs.FS, name string) error {
	f, err := fsys.Open(name)
	if err != nil {
		return err
	}
	defer f.Close()

	return c.sendFile(f, name)
}

func (c *Context) sendFile(f fs.File, name string) error {
	stat, err := f.Stat()
	if err != nil {
		return err
	}

	if !stat.Mode().IsRegular() {
		return fmt.Errorf("%w: %s", ErrNotRegularFile, name)
	}

	cond := EvaluateFile(c.request.Method, c.request.Header, stat.Size(), stat.ModTime())
	res := c.response
	h := res.Header()

	h.Set("Last-Modified", cond.LastModified.Format(http.TimeFormat))
	h.Set("Accept-Ranges", headers.UnitBytes)

	switch cond.Status {
	case http.StatusNotModified, http.StatusRequestedRangeNotSatisfiable:
		if cond.ContentRange != nil {
			h.Set("Content-Range", cond.ContentRange.String())
		}

		res.Status(cond.Status) //nolint:errcheck
		res.End()
		c.Finish()

		return nil
	case http.StatusPartialContent:
		h.Set("Content-Range", cond.ContentRange.String())
	}

	if h.Get("Content-Type") == "" {
		if ct := mime.TypeByExtension(path.Ext(name)); ct != "" {
			h.Set("Content-Type", ct)
		}
	}

	h.Set("Content-Length", strconv.FormatInt(cond.Length, 10))
	res.Status(cond.Status) //nolint:errcheck

	if c.request.Method == http.MethodHead {
		res.End()
		c.Finish()
		return nil
	}

	if err := seekTo(f, cond.Offset); err != nil {
		return err
	}

	return c.Send(io.LimitReader(f, cond.Length))
}

// seekTo positions f at offset, discarding bytes when f cannot seek.
func seekTo(f fs.File, offset int64) error {
	if offset == 0 {
		return nil
	}

	if s, ok := f.(io.Seeker); ok {
		_, err := s.Seek(offset, io.SeekStart)
		return err
	}

	_, err := io.CopyN(io.Discard, f, offset)

	return err
}
