package metrics

import "net/http"

// computeApproximateRequestSize estimates the wire size of a request
// without reading the body.
func computeApproximateRequestSize(r *http.Request) int {
	s := 0
	if r.URL != nil {
		s = len(r.URL.Path)
	}

	s += len(r.Method)
	s += len(r.Proto)
	for name, values := range r.Header {
		s += len(name)
		for _, value := range values {
			s += len(value)
		}
	}
	s += len(r.Host)

	// r.Form and r.MultipartForm are ignored; ContentLength covers them.
	if r.ContentLength != -1 {
		s += int(r.ContentLength)
	}
	return s
}
