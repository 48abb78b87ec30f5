package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/accounting-cell/NAJUM-ALTHURAY/internal/apperrors"
	"github.com/accounting-cell/NAJUM-ALTHURAY/internal/store"
	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"
)

// ExportTransactions handles GET /api/transactions/export, streaming the
// transaction register as an XLSX workbook. The listing filters apply; the
// route is restricted to admin and supervisor.
func (h *TransactionHandler) ExportTransactions(c *gin.Context) {
	filter := store.ListFilter{
		Status:      c.Query("status"),
		ServiceType: c.Query("serviceType"),
		Search:      c.Query("search"),
	}

	rows, err := h.Store.ExportRows(filter, currentRequester(c))
	if err != nil {
		respondError(c, err)
		return
	}

	f := excelize.NewFile()
	sheetName := "Transactions"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		respondError(c, apperrors.Internal(err))
		return
	}
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	headers := []string{"Number", "Client", "Passport/ID", "Mobile", "Service", "Type", "Status", "Received", "Expected Delivery", "Assigned To", "Created By", "Notes"}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheetName, cell, header)
	}

	for i, row := range rows {
		r := i + 2
		f.SetCellValue(sheetName, fmt.Sprintf("A%d", r), row.TransactionNumber)
		f.SetCellValue(sheetName, fmt.Sprintf("B%d", r), row.ClientName)
		f.SetCellValue(sheetName, fmt.Sprintf("C%d", r), row.PassportID)
		f.SetCellValue(sheetName, fmt.Sprintf("D%d", r), row.MobileNumber)
		f.SetCellValue(sheetName, fmt.Sprintf("E%d", r), row.ServiceType)
		f.SetCellValue(sheetName, fmt.Sprintf("F%d", r), row.TransactionType)
		f.SetCellValue(sheetName, fmt.Sprintf("G%d", r), row.Status)
		f.SetCellValue(sheetName, fmt.Sprintf("H%d", r), row.ReceiveDate.Format(dateLayout))
		f.SetCellValue(sheetName, fmt.Sprintf("I%d", r), row.ExpectedDelivery.Format(dateLayout))
		f.SetCellValue(sheetName, fmt.Sprintf("J%d", r), row.AssignedEmployeeName)
		f.SetCellValue(sheetName, fmt.Sprintf("K%d", r), row.CreatedByName)
		f.SetCellValue(sheetName, fmt.Sprintf("L%d", r), row.Notes)
	}

	fileName := fmt.Sprintf("transactions_%s.xlsx", time.Now().Format("20060102_150405"))
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", "attachment; filename="+fileName)
	if err := f.Write(c.Writer); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to write Excel file"})
	}
}
