package web

import (
	"embed"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

//go:embed templates/*.html
var templatesFS embed.FS

// Templates parses every page. Pages are addressed by file name, e.g. "menu.html".
func Templates() *template.Template {
	return template.Must(template.New("").Funcs(template.FuncMap{
		"rupiah":   Rupiah,
		"datetime": func(t time.Time) string { return t.Local().Format("02 Jan 2006 15:04") },
		"label":    statusLabel,
	}).ParseFS(templatesFS, "templates/*.html"))
}

// Rupiah formats an amount the way prices are printed on the menu: "Rp 25.000".
func Rupiah(amount decimal.Decimal) string {
	digits := amount.Round(0).Abs().StringFixed(0)

	var b strings.Builder
	for i, r := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}

	if amount.Round(0).IsNegative() {
		return "-Rp " + b.String()
	}

	return "Rp " + b.String()
}

// statusLabel turns "processing" into "Processing".
func statusLabel(s any) string {
	str := fmt.Sprint(s)
	if str == "" {
		return str
	}

	return strings.ToUpper(str[:1]) + str[1:]
}
