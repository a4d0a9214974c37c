package extract

import "regexp"

// Rule is one tagged extraction pattern. The pattern must carry a named
// capture group matching its FieldSpec's Capture name.
type Rule struct {
	Tag string
	re  *regexp.Regexp
}

// NewRule compiles a tagged extraction rule. It panics on an invalid
// pattern; rule sets are static data declared at startup.
func NewRule(tag, pattern string) Rule {
	return Rule{Tag: tag, re: regexp.MustCompile(pattern)}
}

// FieldSpec declares the ordered rule list for one extracted field. Rules
// are tried in declared order, first match wins; layout drift on the portal
// is handled by appending a rule, not by touching the orchestrator.
type FieldSpec struct {
	Field   string
	Capture string
	Rules   []Rule
}

// Canonical field names.
const (
	FieldTotalIncome   = "totalIncome"
	FieldProfit        = "profit"
	FieldEmployeeCount = "employeeCount"
	FieldNetPayCosts   = "netPayCosts"
)

// DefaultFields returns the production field specs for the portal's
// statement markup. AOP row numbers anchor each pattern; totalIncome (AOP
// 201) carries a second rule because the portal restyled that row at some
// point and both layouts are still in circulation.
func DefaultFields() []FieldSpec {
	return []FieldSpec{
		{
			Field:   FieldTotalIncome,
			Capture: "totalIncome",
			Rules: []Rule{
				NewRule("original", `<td style="text-align: center;">201</td>\s*<td></td>\s*<td style="text-align: right; padding-right: 8px">(?P<totalIncome>\d+)</td>`),
				NewRule("restyled", `<tr>\s*<td.*?>.*?</td>\s*<td.*?>.*?</td>\s*<td style="text-align: center;">201</td>\s*<td.*?>.*?</td>\s*<td style="text-align: right; padding-right: 8px">(?P<totalIncome>\d+)</td>`),
			},
		},
		{
			Field:   FieldProfit,
			Capture: "profit",
			Rules: []Rule{
				NewRule("original", `<td style="text-align: left">IX\. Neto sveobuhvatni rezultat \(248\+259\)</td>\s*<td style="text-align: center;">260</td>\s*<td></td>\s*<td style="text-align: right; padding-right: 8px">(?P<profit>\d+)</td>`),
			},
		},
		{
			Field:   FieldEmployeeCount,
			Capture: "employeeCount",
			Rules: []Rule{
				// The label's diacritics arrive in more than one encoding,
				// hence the [^<]+ wildcards around the stable words.
				NewRule("original", `<td style="text-align: left">Prosje[^<]+an broj zaposlenih[^<]+</td>\s*<td style="text-align: center;">001</td>\s*<td></td>\s*<td style="text-align: right; padding-right: 8px">(?P<employeeCount>\d+)</td>`),
			},
		},
		{
			Field:   FieldNetPayCosts,
			Capture: "netPayCosts",
			Rules: []Rule{
				NewRule("original", `<td style="text-align: left">a\) Neto troškovi zarada, naknada zarada i lični rashodi</td>\s*<td style="text-align: center;">212</td>\s*<td></td>\s*<td style="text-align: right; padding-right: 8px">(?P<netPayCosts>\d+)</td>`),
			},
		},
	}
}
