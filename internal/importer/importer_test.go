package importer_test

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"

	"github.com/MrJamesThe3rd/cobranca/internal/billing"
	"github.com/MrJamesThe3rd/cobranca/internal/importer"
)

func date(y, m, d int) time.Time {
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}

func TestParse_Semicolon(t *testing.T) {
	csv := `Cliente;Email;Descrição;Valor;Vencimento;Status
João Silva;joao@email.com;Consultoria mensal;1.500,00;15/03/2024;pendente
Maria Santos;maria@email.com;Manutenção;350,50;20/03/2024;pago
`

	params, err := importer.Parse(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, params, 2)

	assert.Equal(t, "João Silva", params[0].CustomerName)
	assert.Equal(t, "joao@email.com", params[0].CustomerEmail)
	assert.Equal(t, "Consultoria mensal", params[0].Description)
	assert.Equal(t, int64(150000), params[0].Amount)
	assert.Equal(t, date(2024, 3, 15), params[0].DueDate)
	assert.Equal(t, billing.StatusPending, params[0].Status)

	assert.Equal(t, int64(35050), params[1].Amount)
	assert.Equal(t, billing.StatusPaid, params[1].Status)
}

func TestParse_CommaDelimited(t *testing.T) {
	csv := `Cliente,Email,Descricao,Valor,Vencimento
Ana,ana@email.com,Hospedagem,"1.200,00",2024-04-01
`

	params, err := importer.Parse(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, params, 1)

	assert.Equal(t, int64(120000), params[0].Amount)
	assert.Equal(t, date(2024, 4, 1), params[0].DueDate)
}

func TestParse_StatusDefaultsToPending(t *testing.T) {
	csv := `Cliente;Email;Descrição;Valor;Vencimento
Ana;ana@email.com;Hospedagem;100,00;01/04/2024
`

	params, err := importer.Parse(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, params, 1)
	assert.Equal(t, billing.StatusPending, params[0].Status)
}

func TestParse_SkipsPreambleAndFooter(t *testing.T) {
	csv := `Relatório de cobranças - março

Cliente;Email;Descrição;Valor;Vencimento
Ana;ana@email.com;Hospedagem;100,00;01/04/2024
Total;;;100,00;
`

	params, err := importer.Parse(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, params, 1)
	assert.Equal(t, "Ana", params[0].CustomerName)
}

func TestParse_AmountWithCurrencyPrefix(t *testing.T) {
	csv := `Cliente;Email;Descrição;Valor;Vencimento
Ana;ana@email.com;Hospedagem;R$ 2.500,00;01/04/2024
`

	params, err := importer.Parse(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, params, 1)
	assert.Equal(t, int64(250000), params[0].Amount)
}

func TestParse_Windows1252(t *testing.T) {
	utf8CSV := "Cliente;Email;Descrição;Valor;Vencimento\nJoão;joao@email.com;Criação de site;500,00;01/04/2024\n"

	latin1, err := charmap.Windows1252.NewEncoder().Bytes([]byte(utf8CSV))
	require.NoError(t, err)

	params, err := importer.Parse(bytes.NewReader(latin1))
	require.NoError(t, err)
	require.Len(t, params, 1)

	assert.Equal(t, "João", params[0].CustomerName)
	assert.Equal(t, "Criação de site", params[0].Description)
}

func TestParse_MissingEmail(t *testing.T) {
	csv := `Cliente;Email;Descrição;Valor;Vencimento
Ana;;Hospedagem;100,00;01/04/2024
`

	_, err := importer.Parse(strings.NewReader(csv))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "email")
}

func TestParse_InvalidAmount(t *testing.T) {
	csv := `Cliente;Email;Descrição;Valor;Vencimento
Ana;ana@email.com;Hospedagem;abc;01/04/2024
`

	_, err := importer.Parse(strings.NewReader(csv))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "invalid amount")
}

func TestParse_UnknownStatus(t *testing.T) {
	csv := `Cliente;Email;Descrição;Valor;Vencimento;Status
Ana;ana@email.com;Hospedagem;100,00;01/04/2024;cancelado
`

	_, err := importer.Parse(strings.NewReader(csv))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unknown status")
}

func TestParse_NoHeader(t *testing.T) {
	_, err := importer.Parse(strings.NewReader("apenas texto\nsem cabeçalho\n"))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "no header row")
}

func TestParse_HeaderOnly(t *testing.T) {
	params, err := importer.Parse(strings.NewReader("Cliente;Email;Descrição;Valor;Vencimento\n"))
	require.NoError(t, err)
	assert.Empty(t, params)
}

func TestParseBrazilianAmount(t *testing.T) {
	tests := []struct {
		in   string
		want int64
	}{
		{"1.234,56", 123456},
		{"100,00", 10000},
		{"R$ 2.500,00", 250000},
		{"0,01", 1},
		{"1.234.567,89", 123456789},
	}

	for _, tt := range tests {
		got, err := importer.ParseBrazilianAmount(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}
