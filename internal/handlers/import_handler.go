package handlers

import (
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"

	"catalog-service/internal/config"
	"catalog-service/internal/ingest"
	"catalog-service/internal/middleware"
	"catalog-service/internal/models"
)

var (
	optionNameHeader  = regexp.MustCompile(`^option(\d+) name$`)
	optionValueHeader = regexp.MustCompile(`^option(\d+) value$`)
)

type ImportHandler struct {
	pipeline *ingest.Pipeline
	cfg      *config.Config
}

func NewImportHandler(pipeline *ingest.Pipeline, cfg *config.Config) *ImportHandler {
	return &ImportHandler{
		pipeline: pipeline,
		cfg:      cfg,
	}
}

// GetImportTemplate returns the feed template definition or file
// @Summary Get import template
// @Description Download the feed template as JSON definition, CSV, or XLSX
// @Tags Import
// @Produce json
// @Param format query string false "json, csv or xlsx" default(json)
// @Success 200 {object} models.SuccessResponse
// @Router /catalog/import/template [get]
func (h *ImportHandler) GetImportTemplate(c *gin.Context) {
	format := c.DefaultQuery("format", "json")

	template := models.FeedImportTemplate()

	switch format {
	case "csv":
		h.generateCSVTemplate(c, template)
	case "xlsx":
		h.generateXLSXTemplate(c, template)
	default:
		c.JSON(http.StatusOK, gin.H{
			"success":  true,
			"template": template,
		})
	}
}

// generateCSVTemplate generates and downloads a CSV template (headers only)
func (h *ImportHandler) generateCSVTemplate(c *gin.Context, template models.ImportTemplate) {
	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", "attachment; filename=catalog_feed_template.csv")

	writer := csv.NewWriter(c.Writer)
	defer writer.Flush()

	headers := make([]string, len(template.Columns))
	for i, col := range template.Columns {
		headers[i] = col.Name
	}
	writer.Write(headers)
}

// generateXLSXTemplate generates and downloads an Excel template
func (h *ImportHandler) generateXLSXTemplate(c *gin.Context, template models.ImportTemplate) {
	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Feed"
	f.SetSheetName("Sheet1", sheetName)

	// Style for header row
	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})

	// Style for required columns
	requiredStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"C65911"}, Pattern: 1},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})

	for i, col := range template.Columns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		headerText := col.Name
		if col.Required {
			headerText = col.Name + " *"
		}
		f.SetCellValue(sheetName, cell, headerText)

		if col.Required {
			f.SetCellStyle(sheetName, cell, cell, requiredStyle)
		} else {
			f.SetCellStyle(sheetName, cell, cell, headerStyle)
		}

		colName, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(sheetName, colName, colName, 20)
	}

	// Add Instructions sheet
	f.NewSheet("Instructions")
	f.SetCellValue("Instructions", "A1", "Catalog Feed Import Instructions")

	f.SetCellValue("Instructions", "A3", "CATEGORY LEVEL:")
	f.SetCellValue("Instructions", "A4", "Write the full breadcrumb from root to leaf, separated by '>', up to 6 levels.")
	f.SetCellValue("Instructions", "A5", "Missing categories are created automatically; the first breadcrumb seen for a name wins its parent.")

	f.SetCellValue("Instructions", "A7", "VARIANT OPTIONS:")
	f.SetCellValue("Instructions", "A8", "Add 'Option2 Name'/'Option2 Value' and further numbered pairs for variants with more than one option.")
	f.SetCellValue("Instructions", "A9", "Scanning stops at the first missing pair, so keep the numbering gap-free.")

	f.SetCellValue("Instructions", "A11", "PRICES:")
	f.SetCellValue("Instructions", "A12", "Non-numeric price and quantity cells are coerced to 0 rather than rejected.")

	f.SetCellValue("Instructions", "A14", "Column Definitions:")
	f.SetCellValue("Instructions", "A15", "Column")
	f.SetCellValue("Instructions", "B15", "Description")
	f.SetCellValue("Instructions", "C15", "Required")
	f.SetCellValue("Instructions", "D15", "Type")
	f.SetCellValue("Instructions", "E15", "Example")

	for i, col := range template.Columns {
		row := i + 16
		f.SetCellValue("Instructions", fmt.Sprintf("A%d", row), col.Name)
		f.SetCellValue("Instructions", fmt.Sprintf("B%d", row), col.Description)
		required := "Optional"
		if col.Required {
			required = "Required"
		}
		f.SetCellValue("Instructions", fmt.Sprintf("C%d", row), required)
		f.SetCellValue("Instructions", fmt.Sprintf("D%d", row), col.Type)
		f.SetCellValue("Instructions", fmt.Sprintf("E%d", row), col.Example)
	}

	f.SetColWidth("Instructions", "A", "A", 25)
	f.SetColWidth("Instructions", "B", "B", 60)
	f.SetColWidth("Instructions", "C", "C", 15)
	f.SetColWidth("Instructions", "D", "D", 15)
	f.SetColWidth("Instructions", "E", "E", 40)

	sheetIdx, _ := f.GetSheetIndex(sheetName)
	f.SetActiveSheet(sheetIdx)

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", "attachment; filename=catalog_feed_template.xlsx")

	f.Write(c.Writer)
}

// ImportFeed ingests a CSV or Excel product feed
// @Summary Import product feed
// @Description Upload a CSV or XLSX feed; rows are upserted individually and per-row errors never stop the batch
// @Tags Import
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Feed file"
// @Success 200 {object} models.ImportResult
// @Failure 400 {object} models.ErrorResponse
// @Router /catalog/import [post]
func (h *ImportHandler) ImportFeed(c *gin.Context) {
	tenantID := middleware.GetTenantID(c)
	userID := middleware.GetUserID(c)
	vendorID := middleware.GetVendorID(c)
	startTime := time.Now()

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "FILE_REQUIRED",
				Message: "Please upload a CSV or Excel file",
			},
		})
		return
	}
	defer file.Close()

	if header.Size > h.cfg.MaxImportFileSize {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "FILE_TOO_LARGE",
				Message: fmt.Sprintf("File exceeds the %d byte limit", h.cfg.MaxImportFileSize),
			},
		})
		return
	}

	filename := strings.ToLower(header.Filename)
	var format models.ImportFormat
	switch {
	case strings.HasSuffix(filename, ".csv"):
		format = models.ImportFormatCSV
	case strings.HasSuffix(filename, ".xlsx"):
		format = models.ImportFormatXLSX
	default:
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "INVALID_FORMAT",
				Message: "Only CSV and XLSX files are supported",
			},
		})
		return
	}

	// Spool the upload to disk; the artifact is removed whatever the outcome
	tmpPath := filepath.Join(h.cfg.ImportUploadDir, fmt.Sprintf("feed-%d-%s", time.Now().UnixNano(), filepath.Base(header.Filename)))
	if err := c.SaveUploadedFile(header, tmpPath); err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "UPLOAD_FAILED",
				Message: "Failed to store uploaded file",
				Details: &models.JSON{"error": err.Error()},
			},
		})
		return
	}
	defer os.Remove(tmpPath)

	spooled, err := os.Open(tmpPath)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "UPLOAD_FAILED",
				Message: "Failed to read uploaded file",
				Details: &models.JSON{"error": err.Error()},
			},
		})
		return
	}
	defer spooled.Close()

	var rawRows []map[string]string
	var parseErr error
	if format == models.ImportFormatCSV {
		rawRows, parseErr = h.parseCSV(spooled)
	} else {
		rawRows, parseErr = h.parseXLSX(spooled)
	}
	if parseErr != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "PARSE_ERROR",
				Message: parseErr.Error(),
			},
		})
		return
	}

	if len(rawRows) == 0 {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "EMPTY_FILE",
				Message: "The file contains no data rows",
			},
		})
		return
	}
	if len(rawRows) > h.cfg.MaxImportRows {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "TOO_MANY_ROWS",
				Message: fmt.Sprintf("File exceeds the %d row limit", h.cfg.MaxImportRows),
			},
		})
		return
	}

	mapping := h.columnMapping(tenantID, userID, vendorID)
	rows := make([]ingest.Row, 0, len(rawRows))
	for _, raw := range rawRows {
		rows = append(rows, translateRow(raw, mapping))
	}

	result, err := h.pipeline.Run(tenantID, userID, vendorID, rows)
	if result != nil {
		result.ProcessingMs = time.Since(startTime).Milliseconds()
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": models.Error{
				Code:    "IMPORT_ABORTED",
				Message: err.Error(),
			},
			"partial": result,
		})
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetImportMapping returns the caller's stored column mapping
// @Summary Get import column mapping
// @Tags Import
// @Produce json
// @Success 200 {object} models.SuccessResponse
// @Router /catalog/import/mapping [get]
func (h *ImportHandler) GetImportMapping(c *gin.Context) {
	tenantID := middleware.GetTenantID(c)
	userID := middleware.GetUserID(c)
	vendorID := middleware.GetVendorID(c)

	mapping, err := h.pipeline.Mapping(tenantID, userID, vendorID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "FETCH_FAILED",
				Message: "Failed to retrieve import mapping",
				Details: &models.JSON{"error": err.Error()},
			},
		})
		return
	}

	if mapping == nil {
		defaults := models.JSON{}
		for header, field := range models.DefaultColumnMapping() {
			defaults[header] = field
		}
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"data":    defaults,
			"stored":  false,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    mapping.Mapping,
		"stored":  true,
	})
}

// SaveImportMapping stores a column mapping for the caller
// @Summary Save import column mapping
// @Tags Import
// @Accept json
// @Produce json
// @Param mapping body models.JSON true "Column header to feed field mapping"
// @Success 200 {object} models.SuccessResponse
// @Failure 400 {object} models.ErrorResponse
// @Router /catalog/import/mapping [put]
func (h *ImportHandler) SaveImportMapping(c *gin.Context) {
	tenantID := middleware.GetTenantID(c)
	userID := middleware.GetUserID(c)
	vendorID := middleware.GetVendorID(c)

	var mapping models.JSON
	if err := c.ShouldBindJSON(&mapping); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "VALIDATION_ERROR",
				Message: err.Error(),
			},
		})
		return
	}

	if err := h.pipeline.SaveMapping(tenantID, userID, vendorID, mapping); err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "SAVE_FAILED",
				Message: "Failed to save import mapping",
				Details: &models.JSON{"error": err.Error()},
			},
		})
		return
	}

	c.JSON(http.StatusOK, models.SuccessResponse{
		Success: true,
		Message: stringPtr("Import mapping saved successfully"),
	})
}

// columnMapping returns the stored mapping for the caller, falling back
// to the template defaults.
func (h *ImportHandler) columnMapping(tenantID, userID, vendorID string) map[string]string {
	mapping := models.DefaultColumnMapping()

	stored, err := h.pipeline.Mapping(tenantID, userID, vendorID)
	if err != nil || stored == nil {
		return mapping
	}

	for header, field := range stored.Mapping {
		if fieldName, ok := field.(string); ok && fieldName != "" {
			mapping[strings.ToLower(strings.TrimSpace(header))] = fieldName
		}
	}
	return mapping
}

// translateRow converts a header-keyed raw row into a field-keyed
// pipeline row. Numbered option headers bypass the mapping.
func translateRow(raw map[string]string, mapping map[string]string) ingest.Row {
	row := ingest.Row{Fields: make(map[string]string)}
	row.Number, _ = strconv.Atoi(raw["_row"])

	for header, value := range raw {
		if header == "_row" {
			continue
		}
		if field, ok := mapping[header]; ok {
			row.Fields[field] = value
			continue
		}
		if m := optionNameHeader.FindStringSubmatch(header); m != nil {
			if n, err := strconv.Atoi(m[1]); err == nil {
				row.Fields[ingest.OptionNameField(n)] = value
			}
			continue
		}
		if m := optionValueHeader.FindStringSubmatch(header); m != nil {
			if n, err := strconv.Atoi(m[1]); err == nil {
				row.Fields[ingest.OptionValueField(n)] = value
			}
		}
	}
	return row
}

// parseCSV parses a CSV file into rows
func (h *ImportHandler) parseCSV(file io.Reader) ([]map[string]string, error) {
	reader := csv.NewReader(file)

	headers, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	normalizeHeaders(headers)

	var rows []map[string]string
	lineNum := 1

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error reading line %d: %w", lineNum+1, err)
		}

		row := make(map[string]string)
		for i, value := range record {
			if i < len(headers) {
				row[headers[i]] = strings.TrimSpace(value)
			}
		}
		row["_row"] = strconv.Itoa(lineNum + 1) // Track row number for error reporting
		rows = append(rows, row)
		lineNum++
	}

	return rows, nil
}

// parseXLSX parses an Excel file into rows
func (h *ImportHandler) parseXLSX(file io.Reader) ([]map[string]string, error) {
	f, err := excelize.OpenReader(file)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("no sheets found in Excel file")
	}

	sheetName := sheets[0]
	// Prefer the "Feed" sheet if it exists
	for _, name := range sheets {
		if strings.EqualFold(name, "Feed") {
			sheetName = name
			break
		}
	}

	excelRows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet: %w", err)
	}

	if len(excelRows) < 2 {
		return nil, fmt.Errorf("file must have a header row and at least one data row")
	}

	headers := excelRows[0]
	normalizeHeaders(headers)

	var rows []map[string]string
	for rowIdx, excelRow := range excelRows[1:] {
		row := make(map[string]string)
		for i, value := range excelRow {
			if i < len(headers) {
				row[headers[i]] = strings.TrimSpace(value)
			}
		}
		row["_row"] = strconv.Itoa(rowIdx + 2) // Track row number (1-indexed, +1 for header)
		rows = append(rows, row)
	}

	return rows, nil
}

// normalizeHeaders lowercases headers and strips the required marker
// the template adds.
func normalizeHeaders(headers []string) {
	for i := range headers {
		headers[i] = strings.TrimSpace(strings.ToLower(headers[i]))
		headers[i] = strings.TrimSuffix(headers[i], " *")
	}
}
