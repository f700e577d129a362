package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// writeWorkbook streams an XLSX workbook as a download attachment.
// A write failure mid-stream cannot be reported as JSON anymore, the
// connection is simply dropped.
func writeWorkbook(c *gin.Context, f *excelize.File, filename string) {
	c.Header("Content-Type", xlsxContentType)
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	if _, err := f.WriteTo(c.Writer); err != nil {
		c.Abort()
	}
}
