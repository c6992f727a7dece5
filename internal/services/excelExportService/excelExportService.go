package excelexportservice

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	tablewriterservice "github.com/RobsonDevCode/deepguard/internal/cmdLineWriters/tablewriter"
	"github.com/RobsonDevCode/deepguard/internal/constants"
	"github.com/RobsonDevCode/deepguard/internal/models"
	"github.com/xuri/excelize/v2"
)

const vulnerabilitySheetName = "Vulnerabilities"

type ExcelExportService interface {
	ExportVulnerabilities(dir string, project string, vulns []models.Vulnerability) (string, error)
}

type ExcelExporter struct {
	now func() time.Time
}

func NewExcelExporter() *ExcelExporter {
	return &ExcelExporter{now: time.Now}
}

// ExportVulnerabilities writes the test report to a new workbook in dir and
// returns its path.
func (e *ExcelExporter) ExportVulnerabilities(dir string, project string, vulns []models.Vulnerability) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("error creating directory %s, %w", dir, err)
	}

	file := excelize.NewFile()
	defer file.Close()

	if err := file.SetSheetName("Sheet1", vulnerabilitySheetName); err != nil {
		return "", fmt.Errorf("error naming sheet, %w", err)
	}

	headers := append(append([]string(nil), constants.VulnerabilityTableHeaders...), "Patches")
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		file.SetCellValue(vulnerabilitySheetName, cell, header)
	}

	for i, vuln := range vulns {
		row := i + 2 // excel is 1 index and skip headers

		var patchIDs []string
		for _, patch := range vuln.Patches {
			patchIDs = append(patchIDs, patch.ID)
		}

		rowData := []interface{}{
			vuln.DisplayID(),
			vuln.Title,
			vuln.Severity,
			vuln.Name + "@" + vuln.Version,
			vuln.Path(),
			tablewriterservice.Remediation(vuln),
			strings.Join(patchIDs, ", "),
		}

		if err := file.SetSheetRow(vulnerabilitySheetName, fmt.Sprintf("A%d", row), &rowData); err != nil {
			return "", fmt.Errorf("error writing row %d, %w", row, err)
		}
	}

	name := sanitize(project)
	if name == "" {
		name = "project"
	}

	fileName := fmt.Sprintf("%s_vuln_%s.xlsx", name, e.now().Format("2006-01-02T15-04-05"))
	fullPath := filepath.Join(dir, fileName)

	if err := file.SaveAs(fullPath); err != nil {
		return "", fmt.Errorf("failed to save excel to %s, %w", fullPath, err)
	}

	return fullPath, nil
}

var nameEscaper = strings.NewReplacer("/", "_", "@", "", "\\", "_", " ", "_")

func sanitize(name string) string {
	return nameEscaper.Replace(name)
}
