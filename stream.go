package multiform

import (
	"io"
	"runtime"
)

// Encoder writes multipart/form-data bodies to an [io.Writer]. Every body
// written by one Encoder shares the same boundary, so ContentType can be
// read before or after Encode.
type Encoder struct {
	w        io.Writer
	services *Services
	boundary string
}

// NewEncoder creates a new [Encoder] that writes to w.
func NewEncoder(w io.Writer, opts ...Option) *Encoder {
	f := New(opts...)
	pool := f.services.Boundaries

	e := &Encoder{
		w:        w,
		services: f.services,
		boundary: pool.Next(),
	}
	runtime.AddCleanup(e, pool.Release, e.boundary)
	return e
}

// Boundary returns the boundary used for every body.
func (e *Encoder) Boundary() string {
	return e.boundary
}

// ContentType returns the Content-Type header value for the written bodies.
func (e *Encoder) ContentType() string {
	return formDataContentType(e.boundary)
}

// Encode encodes v as described by [Form.Encode] and writes the complete
// body to the underlying [io.Writer].
func (e *Encoder) Encode(v interface{}) error {
	f := New(WithServices(e.services))
	if err := f.SetBoundary(e.boundary); err != nil {
		return err
	}
	if err := f.Encode(v); err != nil {
		return err
	}

	_, err := f.WriteTo(e.w)
	return err
}
