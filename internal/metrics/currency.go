package metrics

import (
	"fmt"
	"math"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var gbp = message.NewPrinter(language.BritishEnglish)

// FormatPence renders an amount in pence as pounds sterling, e.g. "£1,234.50".
func FormatPence(pence int64) string {
	sign := ""
	if pence < 0 {
		sign = "-"
		pence = -pence
	}
	return fmt.Sprintf("%s£%s.%02d", sign, gbp.Sprintf("%d", pence/100), pence%100)
}

// ScalePence multiplies an amount in pence by factor, rounding to the nearest penny.
func ScalePence(pence int64, factor float64) int64 {
	return int64(math.Round(float64(pence) * factor))
}
