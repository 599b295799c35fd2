package export

import (
	"fmt"
	"strings"
	"time"

	"github.com/tealeg/xlsx"

	"take-my-dictation/internal/app/errors"
	"take-my-dictation/internal/app/repository"
)

var header = []string{
	"ID", "Request", "File", "Outcome", "Quality", "Confidence",
	"Temperature", "Attempts", "Elapsed (ms)", "Created", "Transcript", "Warnings", "Reason",
}

// ToExcel writes stored pipeline results to a single-sheet workbook.
func ToExcel(records []repository.Record, outputFilePath string) error {
	file := xlsx.NewFile()
	sheet, err := file.AddSheet("Transcriptions")
	if err != nil {
		return errors.Wrap(err, "failed to add sheet")
	}

	headerRow := sheet.AddRow()
	for _, h := range header {
		headerRow.AddCell().Value = h
	}

	for _, r := range records {
		row := sheet.AddRow()
		row.AddCell().Value = fmt.Sprint(r.ID)
		row.AddCell().Value = r.RequestID
		row.AddCell().Value = r.FileName
		row.AddCell().Value = r.Outcome
		row.AddCell().Value = r.QualityLevel
		row.AddCell().Value = fmt.Sprintf("%.3f", r.Confidence)
		row.AddCell().Value = fmt.Sprintf("%.1f", r.ParameterUsed)
		row.AddCell().Value = fmt.Sprint(r.AttemptsMade)
		row.AddCell().Value = fmt.Sprint(r.TotalElapsedMs)
		row.AddCell().Value = r.CreatedAt.Format(time.RFC3339)
		row.AddCell().Value = r.FinalText
		row.AddCell().Value = strings.Join(r.Warnings, "\n")
		row.AddCell().Value = r.Reason
	}

	if err := file.Save(outputFilePath); err != nil {
		return errors.Wrapf(errors.ErrFileWriteFailed, "%s: %v", outputFilePath, err)
	}
	return nil
}
