// Package sheets implements the Google Sheets mirror client.
// The spreadsheet is a read-friendly copy of the check-in archive for the
// group's mentor; the database remains the single source of truth.
package sheets

import "fmt"

// ══════════════════════════════════════════════════════════════════════════════
// DATA TRANSFER OBJECTS - Google Sheets API v4 wire format
// ══════════════════════════════════════════════════════════════════════════════

// ValueRangeDTO represents a range of cell values.
type ValueRangeDTO struct {
	Range          string     `json:"range,omitempty"`
	MajorDimension string     `json:"majorDimension,omitempty"`
	Values         [][]string `json:"values,omitempty"`
}

// AppendResponseDTO is the response to a values append call.
type AppendResponseDTO struct {
	SpreadsheetID string      `json:"spreadsheetId"`
	TableRange    string      `json:"tableRange,omitempty"`
	Updates       *UpdatesDTO `json:"updates,omitempty"`
}

// UpdatesDTO describes what an append call changed.
type UpdatesDTO struct {
	UpdatedRange   string `json:"updatedRange,omitempty"`
	UpdatedRows    int    `json:"updatedRows,omitempty"`
	UpdatedColumns int    `json:"updatedColumns,omitempty"`
	UpdatedCells   int    `json:"updatedCells,omitempty"`
}

// ClearResponseDTO is the response to a values clear call.
type ClearResponseDTO struct {
	SpreadsheetID string `json:"spreadsheetId"`
	ClearedRange  string `json:"clearedRange,omitempty"`
}

// APIErrorDTO represents a Google API error response body.
type APIErrorDTO struct {
	ErrorInfo struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// Error implements the error interface.
func (e *APIErrorDTO) Error() string {
	return fmt.Sprintf("sheets api error %d (%s): %s",
		e.ErrorInfo.Code, e.ErrorInfo.Status, e.ErrorInfo.Message)
}
