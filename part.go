package multiform

import (
	"bytes"
	"io"
	"io/fs"
	"net/textproto"
	"path/filepath"
	"reflect"
	"strings"
)

// textContentType is the implied type of fields sent without a Content-Type
// header (RFC 7578 section 4.4).
const textContentType = "text/plain"

// FieldOptions customise a single appended field. The zero value, like a nil
// pointer, selects the defaults.
type FieldOptions struct {
	// Filename marks the field as a file and drives content type inference.
	Filename string

	// Filepath, when set, is sent as the filename parameter instead of
	// Filename. It may contain a relative path.
	Filepath string

	// ContentType overrides any inferred content type.
	ContentType string

	// Header holds extra part headers written after the generated ones.
	Header []HeaderField

	// KnownLength declares the number of bytes a reader will produce. Values
	// less than one mean the length is discovered from the reader itself.
	KnownLength int64
}

// Part is one field of a form.
type Part struct {
	name        string
	filename    string
	contentType string
	header      []byte

	// data holds inline payloads and drained stream payloads.
	data []byte

	// source is nil once the part's payload is held in data.
	source   io.Reader
	size     int64
	stream   bool
	consumed bool
}

// Name returns the field name.
func (p *Part) Name() string { return p.name }

// Filename returns the filename parameter sent with the part, if any.
func (p *Part) Filename() string { return p.filename }

// ContentType returns the resolved content type of the part. Text fields
// report text/plain even though no header is written for them.
func (p *Part) ContentType() string { return p.contentType }

// Header returns a copy of the rendered header block.
func (p *Part) Header() []byte { return append([]byte(nil), p.header...) }

// IsStream reports whether the part was appended with a reader.
func (p *Part) IsStream() bool { return p.stream }

// Size returns the payload length and whether it is known without reading
// the source.
func (p *Part) Size() (int64, bool) {
	if p.source == nil {
		return int64(len(p.data)), true
	}
	return p.size, p.size >= 0
}

func newPart(svc *Services, name string, value interface{}, opts *FieldOptions) (*Part, error) {
	if name == "" {
		return nil, invalidField(name, "name must not be empty")
	}
	if opts == nil {
		opts = &FieldOptions{}
	}
	if err := validateOptions(name, opts); err != nil {
		return nil, err
	}

	p := &Part{name: name, size: -1}
	text := false
	switch v := value.(type) {
	case nil:
		return nil, invalidField(name, "value must not be nil")
	case string:
		p.data = []byte(v)
		text = true
	case []byte:
		p.data = v
	case io.Reader:
		if rv := reflect.ValueOf(v); rv.Kind() == reflect.Pointer && rv.IsNil() {
			return nil, invalidField(name, "value must not be nil")
		}
		p.source = v
		p.stream = true
		p.size = sourceLength(v, opts.KnownLength)
	default:
		s, ok := getScalar(reflect.ValueOf(value))
		if !ok {
			return nil, invalidField(name, "unsupported value type %T", value)
		}
		p.data = []byte(s)
		text = true
	}

	p.filename = opts.Filepath
	if p.filename == "" {
		p.filename = opts.Filename
	}
	if p.filename == "" && p.stream {
		p.filename = sourceName(p.source)
	}

	// The emitted type stays empty for plain text fields.
	emitted := opts.ContentType
	switch {
	case emitted != "":
	case p.filename != "":
		emitted = svc.MIME.Lookup(p.filename)
	case !text:
		emitted = DefaultContentType
	}
	p.contentType = emitted
	for _, h := range opts.Header {
		if textproto.CanonicalMIMEHeaderKey(h.Key) == "Content-Type" {
			p.contentType = h.Value
		}
	}
	if p.contentType == "" {
		p.contentType = textContentType
	}

	p.header = svc.Headers.Render(name, p.filename, emitted, opts.Header)
	return p, nil
}

func validateOptions(name string, opts *FieldOptions) error {
	if strings.ContainsAny(name, "\r\n") {
		return invalidField(name, "name contains a line break")
	}
	if strings.ContainsAny(opts.Filename+opts.Filepath, "\r\n") {
		return invalidField(name, "filename contains a line break")
	}
	if strings.ContainsAny(opts.ContentType, "\r\n") {
		return invalidField(name, "content type contains a line break")
	}
	for _, h := range opts.Header {
		if h.Key == "" || strings.ContainsAny(h.Key, ":\r\n") {
			return invalidField(name, "invalid header name %q", h.Key)
		}
		if strings.ContainsAny(h.Value, "\r\n") {
			return invalidField(name, "header %q contains a line break", h.Key)
		}
	}
	return nil
}

// sourceLength returns the number of bytes r is expected to produce, or -1
// when it cannot be told without reading.
func sourceLength(r io.Reader, known int64) int64 {
	if known > 0 {
		return known
	}
	switch v := r.(type) {
	case interface{ Len() int }:
		return int64(v.Len())
	case interface{ Stat() (fs.FileInfo, error) }:
		info, err := v.Stat()
		if err != nil || !info.Mode().IsRegular() {
			return -1
		}
		size := info.Size()
		if s, ok := r.(io.Seeker); ok {
			if offset, err := s.Seek(0, io.SeekCurrent); err == nil {
				size -= offset
			}
		}
		if size < 0 {
			return -1
		}
		return size
	}
	return -1
}

// sourceName returns the base name of file-like sources.
func sourceName(r io.Reader) string {
	if n, ok := r.(interface{ Name() string }); ok && n.Name() != "" {
		return filepath.Base(n.Name())
	}
	return ""
}

// drain reads a stream-backed payload into memory so that later
// serializations reuse it.
func (p *Part) drain() error {
	if p.source == nil {
		return nil
	}
	if p.consumed {
		return &StreamReadError{Name: p.name, Err: ErrSourceConsumed}
	}
	p.consumed = true

	var (
		data []byte
		err  error
	)
	if p.size >= 0 {
		data = make([]byte, p.size)
		_, err = io.ReadFull(p.source, data)
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
	} else {
		data, err = io.ReadAll(p.source)
	}
	if err != nil {
		return &StreamReadError{Name: p.name, Err: err}
	}

	p.data = data
	p.source = nil
	return nil
}

// reader returns the payload as a lazily read stream.
func (p *Part) reader() io.Reader {
	if p.source == nil {
		return bytes.NewReader(p.data)
	}
	return &sourceReader{part: p, remaining: p.size}
}

// sourceReader reads a part's source at most once, enforcing any declared
// length and wrapping failures in StreamReadError.
type sourceReader struct {
	part      *Part
	started   bool
	remaining int64
}

func (r *sourceReader) Read(b []byte) (int, error) {
	p := r.part
	if !r.started {
		if p.consumed {
			return 0, r.fail(ErrSourceConsumed)
		}
		p.consumed = true
		r.started = true
	}

	known := p.size >= 0
	if known {
		if r.remaining == 0 {
			return 0, io.EOF
		}
		if int64(len(b)) > r.remaining {
			b = b[:r.remaining]
		}
	}

	n, err := p.source.Read(b)
	if known {
		r.remaining -= int64(n)
	}
	switch {
	case err == io.EOF && known && r.remaining > 0:
		return n, r.fail(io.ErrUnexpectedEOF)
	case err == io.EOF:
		return n, io.EOF
	case err != nil:
		return n, r.fail(err)
	}
	return n, nil
}

func (r *sourceReader) fail(err error) error {
	GetMetrics().streamReadErrors.Inc()
	return &StreamReadError{Name: r.part.name, Err: err}
}
