package services

import "github.com/terraincognita07/ecgscan/internal/models"

// ReportDraft keeps the suggested report apart from the text the physician
// will submit. Field edits refresh the suggestion and carry it into the
// committed text only until the text has been edited by hand.
type ReportDraft struct {
	composer  *ReportComposer
	language  string
	details   models.LaudationDetails
	suggested string
	text      string
	dirty     bool
}

func NewReportDraft(composer *ReportComposer, language string) *ReportDraft {
	return &ReportDraft{composer: composer, language: language}
}

func (draft *ReportDraft) Details() models.LaudationDetails {
	return draft.details
}

func (draft *ReportDraft) Suggested() string {
	return draft.suggested
}

func (draft *ReportDraft) Text() string {
	return draft.text
}

func (draft *ReportDraft) Dirty() bool {
	return draft.dirty
}

func (draft *ReportDraft) SetDetails(details models.LaudationDetails) {
	draft.details = details
	draft.suggested = draft.composer.Compose(details, draft.language)
	if !draft.dirty {
		draft.text = draft.suggested
	}
}

func (draft *ReportDraft) EditText(text string) {
	draft.text = text
	draft.dirty = true
}

// AcceptSuggestion drops manual edits and follows the suggestion again.
func (draft *ReportDraft) AcceptSuggestion() {
	draft.text = draft.suggested
	draft.dirty = false
}

func (draft *ReportDraft) Reset() {
	draft.details = models.LaudationDetails{}
	draft.suggested = ""
	draft.text = ""
	draft.dirty = false
}
