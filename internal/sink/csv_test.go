package sink

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/finstat-harvester/internal/model"
)

func TestOpenCSV_HeaderWrittenOnce(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "Results.csv")

	s, err := OpenCSV(path)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	// Header exactly as declared, even with zero records appended.
	assert.Equal(t, "name,Year,totalIncome,profit,employeeCount,netPayCosts,averagePay\n", string(data))
}

func TestAppend_RowFormat(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "Results.csv")

	s, err := OpenCSV(path)
	require.NoError(t, err)

	err = s.Append(model.ResultRecord{
		Name:          "Acme",
		Year:          "2022",
		TotalIncome:   5000000,
		Profit:        300000,
		EmployeeCount: 10,
		NetPayCosts:   1200000,
		AveragePay:    10000.0,
	})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	lines := []string{
		"name,Year,totalIncome,profit,employeeCount,netPayCosts,averagePay",
		"Acme,2022,5000000,300000,10,1200000,10000.0",
	}
	assert.Equal(t, lines[0]+"\n"+lines[1]+"\n", string(data))
}

func TestAppend_FlushedPerRow(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "Results.csv")

	s, err := OpenCSV(path)
	require.NoError(t, err)
	defer s.Close() //nolint:errcheck

	require.NoError(t, s.Append(model.ResultRecord{Name: "Acme", Year: "2021"}))

	// Row must be durable before Close: read the file while still open.
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Acme,2021,0,0,0,0,0.0")
}

func TestAppend_DoesNotDeduplicate(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "Results.csv")

	s, err := OpenCSV(path)
	require.NoError(t, err)

	rec := model.ResultRecord{Name: "Acme", Year: "2022"}
	require.NoError(t, s.Append(rec))
	require.NoError(t, s.Append(rec))
	require.NoError(t, s.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 3, len(splitLines(string(data))))
}

func splitLines(s string) []string {
	var lines []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			lines = append(lines, s[start:i])
			start = i + 1
		}
	}
	if start < len(s) {
		lines = append(lines, s[start:])
	}
	return lines
}

func TestFormatAveragePay(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   float64
		want string
	}{
		{0.0, "0.0"},
		{10000.0, "10000.0"},
		{1000.0, "1000.0"},
		{1234.5, "1234.5"},
		{100000.0 / 7.0 / 12.0, "1190.4761904761906"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, formatAveragePay(tt.in))
	}
}
