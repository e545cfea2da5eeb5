package multiform

import (
	"bytes"
	"io"
	"mime"
	"runtime"

	"go.uber.org/zap"
)

// Form builds a multipart/form-data body from an ordered list of fields.
//
// A Form is not safe for concurrent use. The services it draws on are, so
// independent forms may be used from different goroutines.
type Form struct {
	services *Services
	boundary string
	parts    []*Part
}

// Option configures a Form.
type Option func(*Form)

// WithServices makes the form use s instead of DefaultServices.
func WithServices(s *Services) Option {
	return func(f *Form) {
		if s != nil {
			f.services = s
		}
	}
}

// New returns an empty form.
func New(opts ...Option) *Form {
	f := &Form{}
	for _, opt := range opts {
		opt(f)
	}
	if f.services == nil {
		f.services = DefaultServices()
	}
	return f
}

// Boundary returns the form's boundary, drawing one from the boundary pool on
// first use. The boundary never changes afterwards.
func (f *Form) Boundary() string {
	if f.boundary == "" {
		pool := f.services.Boundaries
		f.boundary = pool.Next()
		runtime.AddCleanup(f, pool.Release, f.boundary)
	}
	return f.boundary
}

// SetBoundary fixes a caller chosen boundary. It fails once the form has a
// boundary or when boundary is not valid per RFC 2046.
func (f *Form) SetBoundary(boundary string) error {
	if f.boundary != "" {
		return ErrBoundaryInUse
	}
	if err := validateBoundary(boundary); err != nil {
		return err
	}
	f.boundary = boundary
	return nil
}

// ContentType returns the value of the Content-Type header for the body.
func (f *Form) ContentType() string {
	return formDataContentType(f.Boundary())
}

// formDataContentType quotes the boundary parameter when it holds characters
// that are special in header parameters.
func formDataContentType(boundary string) string {
	return mime.FormatMediaType("multipart/form-data", map[string]string{"boundary": boundary})
}

// Headers returns the request headers describing the body.
func (f *Form) Headers() map[string]string {
	return map[string]string{"Content-Type": f.ContentType()}
}

// Append adds a field. value may be a string, a []byte, an io.Reader or a
// boolean or numeric scalar; opts may be nil. Byte slices are not copied and
// must not be modified afterwards.
//
// Append returns an error matching ErrInvalidField, and leaves the form
// unchanged, when name is empty or value is not supported.
func (f *Form) Append(name string, value interface{}, opts *FieldOptions) error {
	p, err := newPart(f.services, name, value, opts)
	if err != nil {
		return err
	}
	f.Boundary()
	f.parts = append(f.parts, p)
	return nil
}

// Len returns the number of fields.
func (f *Form) Len() int {
	return len(f.parts)
}

// Parts returns the fields in append order. The slice is a copy; the parts
// themselves are shared with the form and expose only read accessors.
func (f *Form) Parts() []*Part {
	return append([]*Part(nil), f.parts...)
}

// ContentLength returns the exact body length and true when the length of
// every stream-backed field is known.
func (f *Form) ContentLength() (int64, bool) {
	boundary := int64(len(f.Boundary()))

	// --boundary--CRLF
	total := boundary + 6
	for _, p := range f.parts {
		size, ok := p.Size()
		if !ok {
			return 0, false
		}
		// --boundary CRLF header payload CRLF
		total += boundary + 4 + int64(len(p.header)) + size + 2
	}
	return total, true
}

// Bytes returns the whole body. Stream-backed fields are read to completion,
// in order, before anything is assembled, and their contents are kept so that
// later calls return the same body.
//
// When a source fails the error matches ErrStreamRead and no body is
// returned.
func (f *Form) Bytes() ([]byte, error) {
	for _, p := range f.parts {
		if err := p.drain(); err != nil {
			GetMetrics().streamReadErrors.Inc()
			f.services.Logger.Debug("form source failed",
				zap.String("field", p.name),
				zap.Error(err))
			return nil, err
		}
	}

	total, _ := f.ContentLength()
	buf := make([]byte, total)

	n := 0
	for _, p := range f.parts {
		n += copy(buf[n:], "--")
		n += copy(buf[n:], f.boundary)
		n += copy(buf[n:], "\r\n")
		n += copy(buf[n:], p.header)
		n += copy(buf[n:], p.data)
		n += copy(buf[n:], "\r\n")
	}
	n += copy(buf[n:], "--")
	n += copy(buf[n:], f.boundary)
	copy(buf[n:], "--\r\n")

	GetMetrics().bodyBytesEncoded.Add(float64(total))
	return buf, nil
}

// Reader returns the body as a stream. Stream-backed fields are read only as
// the returned reader reaches them and can be read only once; a failing
// source surfaces as an error matching ErrStreamRead.
//
// The returned reader keeps the form reachable, so the form's boundary is not
// handed to another form while the body is still being read.
func (f *Form) Reader() io.Reader {
	boundary := f.Boundary()
	delimiter := []byte("--" + boundary + "\r\n")
	crlf := []byte("\r\n")

	readers := make([]io.Reader, 0, len(f.parts)*4+1)
	for _, p := range f.parts {
		readers = append(readers,
			bytes.NewReader(delimiter),
			bytes.NewReader(p.header),
			p.reader(),
			bytes.NewReader(crlf),
		)
	}
	readers = append(readers, bytes.NewReader([]byte("--"+boundary+"--\r\n")))
	return &formReader{Reader: io.MultiReader(readers...), form: f}
}

// formReader ties a body stream to the form that owns its boundary.
type formReader struct {
	io.Reader
	form *Form
}

// WriteTo streams the body to w.
func (f *Form) WriteTo(w io.Writer) (int64, error) {
	n, err := io.Copy(w, f.Reader())
	if err != nil {
		f.services.Logger.Debug("form write failed", zap.Error(err))
	}
	return n, err
}
