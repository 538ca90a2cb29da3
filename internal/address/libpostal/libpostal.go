// Package libpostal implements address.Parser with libpostal.
package libpostal

import (
	postal "github.com/openvenues/gopostal/parser"

	"github.com/ukpostcodes/internal/address"
)

// Parser calls libpostal's address parser. libpostal loads its model on
// first use, which takes a few seconds.
type Parser struct{}

func (Parser) Parse(line string) []address.Component {
	parsed := postal.ParseAddressOptions(line, postal.ParserOptions{Country: "gb"})
	out := make([]address.Component, 0, len(parsed))
	for _, c := range parsed {
		out = append(out, address.Component{Label: c.Label, Value: c.Value})
	}
	return out
}
