package shared

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseStock(t *testing.T) {
	cases := map[string]Stock{
		"warehouse":  StockWarehouse,
		" Depósito ": StockWarehouse,
		"DEPOSITO":   StockWarehouse,
		"retail":     StockRetail,
		"Loja":       StockRetail,
		"sToRe":      StockRetail,
	}
	for label, want := range cases {
		got, err := ParseStock(label)
		require.NoError(t, err, label)
		require.Equal(t, want, got, label)
	}

	_, err := ParseStock("mezzanine")
	require.ErrorIs(t, err, ErrUnknownCode)
	require.Equal(t, KindNotFound, KindOf(err))
}

func TestParseImporter(t *testing.T) {
	got, err := ParseImporter("  Parceiro ")
	require.NoError(t, err)
	require.Equal(t, ImporterPartner, got)

	got, err = ParseImporter("direto")
	require.NoError(t, err)
	require.Equal(t, ImporterDirect, got)

	_, err = ParseImporter("")
	require.ErrorIs(t, err, ErrUnknownCode)
}

func TestFoldLabelRemovesDiacritics(t *testing.T) {
	require.Equal(t, "DEPOSITO", FoldLabel("depósito"))
	require.Equal(t, "ACAO", FoldLabel(" ação "))
}
