package value

import (
	"fmt"
	"strconv"

	"github.com/joeycumines/jsrt/gc"
)

func formatFloat(n float64) string { return strconv.FormatFloat(n, 'g', -1, 64) }

func formatHandle(h gc.Handle) string { return fmt.Sprintf("%v", h) }

func formatPtr(p *Symbol) string { return fmt.Sprintf("%p", p) }

// formatUnsupportedNative renders a goja-exported Go value this package
// has no Value representation for (BigInt, ArrayBuffer bytes, Date,
// functions received as plain Go closures rather than goja.Value) as
// text, for FromGoja's fallback case.
func formatUnsupportedNative(v any) string { return fmt.Sprintf("%v", v) }
