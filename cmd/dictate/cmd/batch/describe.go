package batch

import (
	"fmt"

	"take-my-dictation/internal/app/converter"
	"take-my-dictation/internal/app/model"
)

// describe renders one report row as tab-separated columns.
func describe(fr converter.FileReport) string {
	switch {
	case fr.Skipped:
		return fmt.Sprintf("%s\tskipped\t-\t-\t-", fr.File.Name)
	case fr.Err != nil:
		return fmt.Sprintf("%s\terror\t-\t-\t%v", fr.File.Name, fr.Err)
	}

	view := model.View(fr.Result)
	quality, detail := "-", view.Reason
	if view.Transcript != nil {
		quality = fmt.Sprintf("%s (%.2f)", view.QualityLevel, view.ConfidenceScore)
	}
	if detail == "" && len(view.Warnings) > 0 {
		detail = view.Warnings[len(view.Warnings)-1]
	}
	if detail == "" {
		detail = "-"
	}
	return fmt.Sprintf("%s\t%s\t%s\t%d\t%s", fr.File.Name, view.Outcome, quality, view.AttemptsMade, detail)
}
