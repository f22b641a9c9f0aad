package templates

import (
	"context"
	"io"
	"strings"

	"github.com/a-h/templ"
	"github.com/shopspring/decimal"
)

const dateLayout = "2006-01-02"

// htmlWriter keeps the first write error so components can emit markup
// without checking every call.
type htmlWriter struct {
	w   io.Writer
	err error
}

func (hw *htmlWriter) raw(parts ...string) {
	for _, p := range parts {
		if hw.err != nil {
			return
		}
		_, hw.err = io.WriteString(hw.w, p)
	}
}

func (hw *htmlWriter) text(s string) {
	hw.raw(templ.EscapeString(s))
}

func (hw *htmlWriter) component(ctx context.Context, c templ.Component) {
	if hw.err != nil {
		return
	}
	hw.err = c.Render(ctx, hw.w)
}

// RenderString renders c into a string, for SSE patches.
func RenderString(ctx context.Context, c templ.Component) (string, error) {
	var sb strings.Builder
	if err := c.Render(ctx, &sb); err != nil {
		return "", err
	}
	return sb.String(), nil
}

func money(d decimal.Decimal) string {
	return "R$ " + d.StringFixed(2)
}

// share returns v as a percentage of top, formatted for a CSS width.
func share(v, top decimal.Decimal) string {
	if !top.IsPositive() {
		return "0%"
	}
	return v.Div(top).Mul(decimal.NewFromInt(100)).StringFixed(1) + "%"
}
