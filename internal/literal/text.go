package literal

import (
	"math"
	"strconv"
	"time"

	"github.com/apache/arrow-go/v18/arrow/decimal128"
	"github.com/cockroachdb/apd/v3"
	"golang.org/x/text/encoding/unicode"
)

const (
	dateLayout      = "2006-01-02"
	timestampLayout = "2006-01-02 15:04:05.000"
)

func formatDouble(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// formatReal prints the shortest text that parses back to the same float32.
func formatReal(v float32) string {
	return strconv.FormatFloat(float64(v), 'g', -1, 32)
}

// formatShortDecimal renders unscaled * 10^-scale in plain notation with
// exactly scale fractional digits.
func formatShortDecimal(unscaled int64, scale int) string {
	return apd.New(unscaled, int32(-scale)).Text('f')
}

func formatLongDecimal(unscaled decimal128.Num, scale int) string {
	coeff := new(apd.BigInt).SetMathBigInt(unscaled.BigInt())
	return apd.NewWithBigInt(coeff, int32(-scale)).Text('f')
}

// formatDate renders days since 1970-01-01 as yyyy-MM-dd. Years past 9999
// carry a leading '+'. Day counts outside the int32 range are rejected.
func formatDate(days int64) (string, bool) {
	if days < math.MinInt32 || days > math.MaxInt32 {
		return "", false
	}
	d := time.Unix(days*86400, 0).UTC()
	text := d.Format(dateLayout)
	if d.Year() > 9999 {
		text = "+" + text
	}
	return text, true
}

// formatTimestamp renders milliseconds since the epoch in UTC.
func formatTimestamp(millis int64) string {
	return time.UnixMilli(millis).UTC().Format(timestampLayout)
}

// decodeUTF8 decodes character data, replacing each invalid byte with U+FFFD.
func decodeUTF8(b []byte) (string, error) {
	out, err := unicode.UTF8.NewDecoder().Bytes(b)
	if err != nil {
		return "", err
	}
	return string(out), nil
}
