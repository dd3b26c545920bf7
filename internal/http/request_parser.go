// Package http provides the HTTP server and its handlers.
//
// This file parses query parameters and request bodies.

package http

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"finboard/internal/core"
	"finboard/internal/ledgerview"
	"finboard/internal/sources/mapping"
)

// maxBodyBytes bounds every request body.
const maxBodyBytes = 4 << 20

// maxLoaded bounds the requested window before it is capped by the working set.
const maxLoaded = (1 << 20) * ledgerview.PageSize

var errUnsupportedBody = errors.New("unsupported content type")

// ParseSortParams reads sort and dir. A missing sort gives the default state;
// a missing dir gives the field's default direction.
func ParseSortParams(query url.Values) (ledgerview.SortState, error) {
	return ledgerview.ParseSortState(query.Get("sort"), query.Get("dir"))
}

// ParseLoaded reads the loaded window size, rounded up to whole pages.
// Missing, invalid and too small values give one page.
func ParseLoaded(query url.Values) int {
	n, err := strconv.Atoi(strings.TrimSpace(query.Get("loaded")))
	if err != nil || n < ledgerview.PageSize {
		return ledgerview.PageSize
	}
	pages := min(n, maxLoaded) / ledgerview.PageSize
	if n%ledgerview.PageSize != 0 && n < maxLoaded {
		pages++
	}
	return pages * ledgerview.PageSize
}

// ParsePrevSort reads prevSort and prevDir, the sort state the client's
// loaded window was built under. Without prevSort the window is taken to
// belong to current.
func ParsePrevSort(query url.Values, current ledgerview.SortState) (ledgerview.SortState, error) {
	if strings.TrimSpace(query.Get("prevSort")) == "" {
		return current, nil
	}
	return ledgerview.ParseSortState(query.Get("prevSort"), query.Get("prevDir"))
}

// RequestBodyParser reads a JSON object or form-encoded body once and serves
// string fields from either.
type RequestBodyParser struct {
	body        []byte
	contentType string
	jsonData    map[string]any
	formData    url.Values
	parsed      bool
	err         error
}

func NewRequestBodyParser(r *http.Request) *RequestBodyParser {
	p := &RequestBodyParser{contentType: mediaType(r)}
	p.body, p.err = io.ReadAll(http.MaxBytesReader(nil, r.Body, maxBodyBytes))
	return p
}

func (p *RequestBodyParser) Parse() error {
	if p.parsed {
		return p.err
	}
	p.parsed = true
	if p.err != nil {
		return p.err
	}
	trimmed := bytes.TrimSpace(p.body)
	if len(trimmed) == 0 {
		p.formData = url.Values{}
		return nil
	}
	if p.contentType == "application/json" || trimmed[0] == '{' {
		p.jsonData = make(map[string]any)
		p.err = json.Unmarshal(trimmed, &p.jsonData)
		return p.err
	}
	p.formData, p.err = url.ParseQuery(string(trimmed))
	return p.err
}

// Get returns the sanitized value of key, accepting the JSON name or its
// snake_case form.
func (p *RequestBodyParser) Get(key string) string {
	for _, k := range []string{key, snakeCase(key)} {
		if p.jsonData != nil {
			if val, ok := p.jsonData[k]; ok {
				return sanitizeInput(stringValue(val))
			}
		}
		if p.formData != nil && p.formData.Has(k) {
			return sanitizeInput(p.formData.Get(k))
		}
	}
	return ""
}

// IsJSON reports whether the body was decoded as JSON.
func (p *RequestBodyParser) IsJSON() bool {
	return p.jsonData != nil
}

// TransactionInput reads the manual-add fields.
func (p *RequestBodyParser) TransactionInput() core.TransactionInput {
	kind := p.Get("type")
	if kind == "" {
		kind = p.Get("kind")
	}
	return core.TransactionInput{
		Kind:          kind,
		Amount:        p.Get("amount"),
		Category:      p.Get("category"),
		Description:   p.Get("description"),
		Date:          p.Get("date"),
		ClientName:    p.Get("clientName"),
		InvoiceNumber: p.Get("invoiceNumber"),
	}
}

// ParseImportBody reads a batch as a JSON array of transaction objects or as
// a header-led CSV table.
func ParseImportBody(r *http.Request) ([]core.TransactionInput, error) {
	body, err := io.ReadAll(http.MaxBytesReader(nil, r.Body, maxBodyBytes))
	if err != nil {
		return nil, err
	}
	switch mediaType(r) {
	case "text/csv":
		rd := csv.NewReader(bytes.NewReader(body))
		rd.FieldsPerRecord = -1
		rd.TrimLeadingSpace = true
		values, err := rd.ReadAll()
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}
		return mapping.Inputs(values), nil
	case "application/json", "":
		var rows []map[string]any
		if err := json.Unmarshal(body, &rows); err != nil {
			return nil, fmt.Errorf("decode json: %w", err)
		}
		out := make([]core.TransactionInput, 0, len(rows))
		for _, row := range rows {
			p := &RequestBodyParser{jsonData: row, parsed: true}
			out = append(out, p.TransactionInput())
		}
		return out, nil
	default:
		return nil, errUnsupportedBody
	}
}

func mediaType(r *http.Request) string {
	mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		return ""
	}
	return mt
}

func stringValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

func snakeCase(s string) string {
	var b strings.Builder
	for i, r := range s {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('_')
			}
			r += 'a' - 'A'
		}
		b.WriteRune(r)
	}
	return b.String()
}
