package services

import (
	"strings"

	"github.com/terraincognita07/ecgscan/internal/models"
)

type Translator interface {
	Translate(language string, key string) string
	Translatef(language string, key string, args ...any) string
}

type ReportComposer struct {
	translator Translator
}

func NewReportComposer(translator Translator) *ReportComposer {
	return &ReportComposer{translator: translator}
}

type reportClause struct {
	key   string
	value func(details models.LaudationDetails) string
}

// reportClauses fixes the order in which populated fields appear. The clause
// without a value func is built from the two block flags.
var reportClauses = []reportClause{
	{"report.rhythm", func(details models.LaudationDetails) string { return details.Rhythm }},
	{"report.heart_rate", func(details models.LaudationDetails) string { return details.HeartRate }},
	{"report.pr_interval", func(details models.LaudationDetails) string { return details.PRInterval }},
	{"report.qrs_duration", func(details models.LaudationDetails) string { return details.QRSDuration }},
	{"report.axis", func(details models.LaudationDetails) string { return details.Axis }},
	{"report.bundle_branch_blocks", nil},
	{"report.repolarization", func(details models.LaudationDetails) string { return details.Repolarization }},
	{"report.other_findings", func(details models.LaudationDetails) string { return details.OtherFindings }},
}

// Compose renders one line per populated field. Empty fields add nothing, so
// an empty form yields an empty report.
func (composer *ReportComposer) Compose(details models.LaudationDetails, language string) string {
	details = details.Normalized()

	lines := make([]string, 0, len(reportClauses))
	for _, clause := range reportClauses {
		var value string
		if clause.value == nil {
			value = composer.bundleBranchBlocks(details, language)
		} else {
			value = clause.value(details)
		}
		if value == "" {
			continue
		}
		lines = append(lines, composer.translator.Translatef(language, clause.key, value))
	}
	return strings.Join(lines, "\n")
}

func (composer *ReportComposer) bundleBranchBlocks(details models.LaudationDetails, language string) string {
	complete := ""
	if details.CompleteBundleBranchBlock {
		complete = composer.translator.Translate(language, "report.block.complete")
	}
	right := ""
	if details.RightBundleBranchBlock {
		right = composer.translator.Translate(language, "report.block.right")
	}

	switch {
	case complete != "" && right != "":
		return composer.translator.Translatef(language, "report.block.pair", complete, right)
	case complete != "":
		return complete
	default:
		return right
	}
}
