package mux

import (
	"encoding/json"
	"encoding/xml"
	"errors"
	"io"
	"net/http"
)

// decoder is the part of json.Decoder and xml.Decoder Bind needs.
type decoder interface {
	Decode(v any) error
}

// BindJSON decodes exactly one JSON value from the request body into v.
// Unknown object fields are rejected unless allowUnknown is set.
//
// Malformed or trailing input fails with an exposed 400 *Error. An *Error
// raised while reading the body, such as a 413 from a size limit, is
// returned unchanged.
func (c *Context) BindJSON(v any, allowUnknown bool) error {
	dec := json.NewDecoder(c.request.Body)
	if !allowUnknown {
		dec.DisallowUnknownFields()
	}

	return c.bind(dec, v, "invalid JSON body")
}

// BindXML decodes exactly one XML element from the request body into v.
// Errors are reported as for BindJSON.
func (c *Context) BindXML(v any) error {
	return c.bind(xml.NewDecoder(c.request.Body), v, "invalid XML body")
}

func (c *Context) bind(dec decoder, v any, message string) error {
	err := dec.Decode(v)
	if err == nil {
		if err = dec.Decode(&struct{}{}); errors.Is(err, io.EOF) {
			return nil
		}

		if err == nil {
			err = errors.New("unexpected trailing data")
		}
	}

	var e *Error
	if errors.As(err, &e) {
		return e
	}

	return MustError(http.StatusBadRequest, WithExpose(), WithMessage(message), WithCause(err))
}
