// Package export renders reports as comma-separated text.
package export

import (
	"math"
	"strconv"
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

const delimiter = ','

// amountFormatter is shared by every report so amounts render identically:
// whole units, comma thousands grouping, no currency symbol.
var amountFormatter = money.NewFormatter(0, ".", ",", "", "1")

// formatterBound is the largest magnitude amountFormatter handles; it works
// on int64 minor units.
var formatterBound = decimal.NewFromInt(math.MaxInt64)

// FormatAmount rounds d to whole units and formats it.
func FormatAmount(d decimal.Decimal) string {
	r := d.Round(0)
	if r.Abs().GreaterThan(formatterBound) {
		return groupDigits(r.StringFixed(0))
	}
	return amountFormatter.Format(r.IntPart())
}

// groupDigits inserts the same thousands separator as amountFormatter into
// an integer string.
func groupDigits(s string) string {
	var b strings.Builder
	if rest, ok := strings.CutPrefix(s, "-"); ok {
		b.WriteByte('-')
		s = rest
	}
	for i, c := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(c)
	}
	return b.String()
}

// rowWriter builds delimited rows. Text cells are always quoted; numeric
// cells are bare unless their rendering needs quoting.
type rowWriter struct {
	b     strings.Builder
	cells int
}

func (w *rowWriter) sep() {
	if w.cells > 0 {
		w.b.WriteByte(delimiter)
	}
	w.cells++
}

func (w *rowWriter) Text(s string) *rowWriter {
	w.sep()
	w.b.WriteByte('"')
	w.b.WriteString(strings.ReplaceAll(s, `"`, `""`))
	w.b.WriteByte('"')
	return w
}

func (w *rowWriter) Bare(s string) *rowWriter {
	if strings.ContainsAny(s, string(delimiter)+`"`+"\r\n") {
		return w.Text(s)
	}
	w.sep()
	w.b.WriteString(s)
	return w
}

func (w *rowWriter) Amount(d decimal.Decimal) *rowWriter {
	return w.Bare(FormatAmount(d))
}

func (w *rowWriter) Int(n int) *rowWriter {
	return w.Bare(strconv.Itoa(n))
}

// Header writes unquoted column labels.
func (w *rowWriter) Header(labels ...string) {
	w.b.WriteString(strings.Join(labels, string(delimiter)))
	w.End()
}

func (w *rowWriter) End() {
	w.b.WriteByte('\n')
	w.cells = 0
}

// Blank writes an empty separator line.
func (w *rowWriter) Blank() { w.End() }

func (w *rowWriter) String() string { return w.b.String() }
