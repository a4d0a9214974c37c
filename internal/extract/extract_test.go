package extract

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// labeledRow builds a statement row in the portal's original layout.
func labeledRow(label, aop, value string) string {
	return fmt.Sprintf(`<td style="text-align: left">%s</td>
<td style="text-align: center;">%s</td>
<td></td>
<td style="text-align: right; padding-right: 8px">%s</td>`, label, aop, value)
}

// restyledIncomeRow builds the AOP 201 row in the portal's post-redesign
// layout (two leading cells, styled spacer cell).
func restyledIncomeRow(value string) string {
	return fmt.Sprintf(`<tr>
<td class="rb">5</td>
<td class="note">13</td>
<td style="text-align: center;">201</td>
<td class="spacer"></td>
<td style="text-align: right; padding-right: 8px">%s</td>
</tr>`, value)
}

// statementDoc assembles a full statement fixture in the original layout.
func statementDoc(totalIncome, profit, employees, netPay string) string {
	return strings.Join([]string{
		"<html><body><table>",
		labeledRow("Poslovni prihodi", "201", totalIncome),
		labeledRow("IX. Neto sveobuhvatni rezultat (248+259)", "260", profit),
		labeledRow("Prosje&#269;an broj zaposlenih (cio broj)", "001", employees),
		labeledRow("a) Neto troškovi zarada, naknada zarada i lični rashodi", "212", netPay),
		"</table></body></html>",
	}, "\n")
}

func TestExtract_AllFields(t *testing.T) {
	t.Parallel()

	doc := statementDoc("5000000", "300000", "10", "1200000")

	values, misses := New(DefaultFields()).Extract(doc)

	assert.Empty(t, misses)
	assert.Equal(t, int64(5000000), values[FieldTotalIncome])
	assert.Equal(t, int64(300000), values[FieldProfit])
	assert.Equal(t, int64(10), values[FieldEmployeeCount])
	assert.Equal(t, int64(1200000), values[FieldNetPayCosts])
}

func TestExtract_TotalIncomeFallback(t *testing.T) {
	t.Parallel()

	// Only the restyled AOP 201 layout is present; the second rule must win.
	doc := "<html><table>\n" + restyledIncomeRow("7500000") + "\n</table></html>"

	values, misses := New(DefaultFields()).Extract(doc)

	assert.Equal(t, int64(7500000), values[FieldTotalIncome])
	for _, m := range misses {
		assert.NotEqual(t, FieldTotalIncome, m.Field)
	}
}

func TestExtract_NoMatchDefaultsToZero(t *testing.T) {
	t.Parallel()

	values, misses := New(DefaultFields()).Extract("<html><body>nothing here</body></html>")

	require.Len(t, misses, 4)
	for _, spec := range DefaultFields() {
		assert.Equal(t, int64(0), values[spec.Field])
	}
	// No rule matched at all, so the miss carries no rule tag.
	for _, m := range misses {
		assert.Empty(t, m.Tag)
	}
}

func TestExtract_FirstMatchWins(t *testing.T) {
	t.Parallel()

	// Both AOP 201 layouts present with different values: declared order
	// decides, not document order.
	doc := "<html><table>\n" + restyledIncomeRow("111") + "\n" +
		labeledRow("Poslovni prihodi", "201", "222") + "\n</table></html>"

	values, _ := New(DefaultFields()).Extract(doc)
	assert.Equal(t, int64(222), values[FieldTotalIncome])
}

func TestExtract_UnparseableCaptureMisses(t *testing.T) {
	t.Parallel()

	spec := FieldSpec{
		Field:   "overflow",
		Capture: "overflow",
		Rules: []Rule{
			NewRule("wide", `value=(?P<overflow>\d+)`),
		},
	}

	// 20 digits overflows int64.
	values, misses := New([]FieldSpec{spec}).Extract("value=99999999999999999999")

	assert.Equal(t, int64(0), values["overflow"])
	require.Len(t, misses, 1)
	assert.Equal(t, "overflow", misses[0].Field)
	assert.Equal(t, "wide", misses[0].Tag)
}

func TestExtract_TableDriven(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		doc        string
		field      string
		want       int64
		wantMissed bool
	}{
		{
			name:  "employee count zero is extracted not missed",
			doc:   statementDoc("1", "1", "0", "1"),
			field: FieldEmployeeCount,
			want:  0,
		},
		{
			name:       "profit label mismatch misses",
			doc:        strings.ReplaceAll(statementDoc("1", "1", "1", "1"), "IX.", "X."),
			field:      FieldProfit,
			want:       0,
			wantMissed: true,
		},
		{
			name:  "large values parse",
			doc:   statementDoc("123456789012", "1", "1", "1"),
			field: FieldTotalIncome,
			want:  123456789012,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			values, misses := New(DefaultFields()).Extract(tt.doc)
			assert.Equal(t, tt.want, values[tt.field])

			missed := false
			for _, m := range misses {
				if m.Field == tt.field {
					missed = true
				}
			}
			assert.Equal(t, tt.wantMissed, missed)
		})
	}
}

func TestFields_MapsCanonicalNames(t *testing.T) {
	t.Parallel()

	f := Fields(map[string]int64{
		FieldTotalIncome:   1,
		FieldProfit:        2,
		FieldEmployeeCount: 3,
		FieldNetPayCosts:   4,
	})

	assert.Equal(t, int64(1), f.TotalIncome)
	assert.Equal(t, int64(2), f.Profit)
	assert.Equal(t, int64(3), f.EmployeeCount)
	assert.Equal(t, int64(4), f.NetPayCosts)
}
