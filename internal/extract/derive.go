package extract

import "github.com/sells-group/finstat-harvester/internal/model"

// AveragePay derives the average monthly pay per employee from the raw
// extracted fields. Returns 0 when the employee count is zero, which is
// also the "not found" sentinel. No rounding; formatting is a sink concern.
func AveragePay(f model.ExtractedFields) float64 {
	if f.EmployeeCount <= 0 {
		return 0.0
	}
	return float64(f.NetPayCosts) / float64(f.EmployeeCount) / 12.0
}
