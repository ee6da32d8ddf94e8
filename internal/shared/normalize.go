package shared

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Stock identifies one of the two physical locations tracked per product.
type Stock string

const (
	// StockWarehouse is the back warehouse location.
	StockWarehouse Stock = "WAREHOUSE"
	// StockRetail is the retail floor location.
	StockRetail Stock = "RETAIL"
)

// Importer classifies which import channel a product belongs to.
type Importer string

const (
	ImporterHouse   Importer = "HOUSE"
	ImporterPartner Importer = "PARTNER"
	ImporterDirect  Importer = "DIRECT"
)

// ErrUnknownCode is returned when a label cannot be normalised to a
// canonical identifier. Call sites convert it to domain specific errors.
var ErrUnknownCode = E(KindNotFound, "unknown code")

var foldTransformer = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// FoldLabel strips diacritics and whitespace and upper-cases the label so
// free-text input compares against canonical identifiers.
func FoldLabel(label string) string {
	folded, _, err := transform.String(foldTransformer, label)
	if err != nil {
		folded = label
	}
	folded = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return unicode.ToUpper(r)
	}, folded)
	return folded
}

var stockAliases = map[string]Stock{
	"WAREHOUSE": StockWarehouse,
	"DEPOSIT":   StockWarehouse,
	"DEPOSITO":  StockWarehouse,
	"RETAIL":    StockRetail,
	"STORE":     StockRetail,
	"LOJA":      StockRetail,
}

// ParseStock maps a free-text label to a canonical stock identifier.
func ParseStock(label string) (Stock, error) {
	if stock, ok := stockAliases[FoldLabel(label)]; ok {
		return stock, nil
	}
	return "", ErrUnknownCode
}

var importerAliases = map[string]Importer{
	"HOUSE":    ImporterHouse,
	"CASA":     ImporterHouse,
	"PARTNER":  ImporterPartner,
	"PARCEIRO": ImporterPartner,
	"DIRECT":   ImporterDirect,
	"DIRETO":   ImporterDirect,
}

// ParseImporter maps a free-text label to a canonical importer identifier.
func ParseImporter(label string) (Importer, error) {
	if importer, ok := importerAliases[FoldLabel(label)]; ok {
		return importer, nil
	}
	return "", ErrUnknownCode
}
