package repos

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	flagutils "github.com/temirov/gitfleet/internal/utils/flags"
)

const (
	reportFormatTableConstant         = "table"
	reportFormatJSONConstant          = "json"
	reportFormatYAMLConstant          = "yaml"
	reportFormatDescriptionConstant   = "Report format"
	reportEncodeErrorTemplateConstant = "failed to encode %s report: %w"
	jsonIndentConstant                = "  "
	yamlIndentConstant                = 2
)

var reportFormats = []string{reportFormatTableConstant, reportFormatJSONConstant, reportFormatYAMLConstant}

func reportFormatUsage(defaultFormat string) string {
	return flagutils.FormatChoiceUsage(defaultFormat, reportFormats, reportFormatDescriptionConstant)
}

func parseReportFormat(value string) (string, error) {
	return flagutils.ParseChoice(flagutils.OutputFlagName, value, defaultReportFormatConstant, reportFormats)
}

// writeReport encodes report as JSON or YAML, or writes the table produced by renderTable.
func writeReport(writer io.Writer, format string, report any, renderTable func() string) error {
	switch format {
	case reportFormatJSONConstant:
		encoder := json.NewEncoder(writer)
		encoder.SetIndent("", jsonIndentConstant)
		if encodeError := encoder.Encode(report); encodeError != nil {
			return fmt.Errorf(reportEncodeErrorTemplateConstant, format, encodeError)
		}
		return nil
	case reportFormatYAMLConstant:
		encoder := yaml.NewEncoder(writer)
		encoder.SetIndent(yamlIndentConstant)
		if encodeError := encoder.Encode(report); encodeError != nil {
			return fmt.Errorf(reportEncodeErrorTemplateConstant, format, encodeError)
		}
		return encoder.Close()
	default:
		_, writeError := io.WriteString(writer, renderTable())
		return writeError
	}
}
