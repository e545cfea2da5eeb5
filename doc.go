// Package multiform encodes multipart/form-data request bodies.
//
// A [Form] collects named fields, each a string, a byte slice or an
// [io.Reader], and produces the body either as a single buffer with
// [Form.Bytes] or as a stream with [Form.Reader] and [Form.WriteTo]. The
// matching Content-Type header, which carries the form's boundary, comes from
// [Form.Headers] or [Form.ContentType].
//
//	f := multiform.New()
//	f.Append("name", "gopher", nil)
//	f.Append("avatar", file, &multiform.FieldOptions{Filename: "gopher.png"})
//
//	req, _ := http.NewRequest(http.MethodPost, url, f.Reader())
//	req.Header.Set("Content-Type", f.ContentType())
//
// Forms draw on process-wide [Services]: a [BoundaryPool] that hands out
// boundaries unique among live forms, a [MIMECache] that infers content types
// from filename extensions, and a [HeaderCache] that memoizes rendered part
// headers. All three are safe for concurrent use; a single Form is not.
//
// Structs and maps can be appended in one call with [Marshal] or
// [Form.Encode], which name nested fields with bracketed paths in the same way
// as application/x-www-form-urlencoded encoders.
package multiform
