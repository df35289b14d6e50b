package render

import (
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/fatih/color"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var titleCaser = cases.Title(language.English)

// FormatError formats an error message with the error icon
func FormatError(message string) string {
	msg := message
	if len(msg) > 0 {
		msg = strings.ToUpper(msg[:1]) + msg[1:]
	}

	return color.New(color.FgRed).Sprintf("❌ %s", msg)
}

// FormatSuccess formats a success message with the success icon
func FormatSuccess(message string) string {
	return color.New(color.FgGreen).Sprintf("✅ %s", message)
}

// Title capitalizes each word, e.g. "root owner" -> "Root Owner"
func Title(s string) string {
	return titleCaser.String(s)
}

// FormatAddress renders the zero address as "unset"
func FormatAddress(addr common.Address) string {
	if addr == (common.Address{}) {
		return color.New(color.FgHiBlack).Sprint("unset")
	}
	return addr.Hex()
}
