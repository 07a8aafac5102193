package domain

// JobStatus values stored in job metadata.
const (
	JobStatusCompleted = "completed"
)

// OCRParams is the configuration bag forwarded to the document-intelligence
// API. Zero values are omitted from the request so the API defaults apply.
type OCRParams struct {
	Mode                    string  `json:"mode,omitempty"`
	OutputMode              string  `json:"output_mode,omitempty"`
	LineSplitterTolerance   float64 `json:"line_splitter_tolerance,omitempty"`
	HorizontalStretchFactor float64 `json:"horizontal_stretch_factor,omitempty"`
	MarkVerticalLines       *bool   `json:"mark_vertical_lines,omitempty"`
	MarkHorizontalLines     *bool   `json:"mark_horizontal_lines,omitempty"`
	LineSplitterStrategy    string  `json:"line_splitter_strategy,omitempty"`
	Lang                    string  `json:"lang,omitempty"`
	PageSeparator           string  `json:"page_separator,omitempty"`
}

// NewJob carries the fields known at job creation time.
type NewJob struct {
	OriginalFilename string
	FileExtension    string
	Status           string
	ProcessingParams OCRParams
}

// JobMetadata mirrors the metadata.json artifact of a job directory.
type JobMetadata struct {
	JobID             string    `json:"job_id"`
	OriginalFilename  string    `json:"original_filename"`
	Timestamp         string    `json:"timestamp"`
	Status            string    `json:"status"`
	FileExtension     string    `json:"file_extension"`
	ProcessingParams  OCRParams `json:"processing_params"`
	HasStructuredData bool      `json:"has_structured_data"`
}

// JobData is everything persisted for one job.
type JobData struct {
	Metadata      JobMetadata
	ExtractedText string
	Structured    *StructuredRecord
}

// CompletenessReport is the derived extraction-quality assessment. It is
// recomputed on demand and never treated as a source of truth.
type CompletenessReport struct {
	SupplierInfo         float64  `json:"supplier_info"`
	MaterialInfo         float64  `json:"material_info"`
	ChemicalComposition  float64  `json:"chemical_composition"`
	MechanicalProperties float64  `json:"mechanical_properties"`
	Overall              int      `json:"overall_completeness"`
	Level                string   `json:"level"`
	Reasons              []string `json:"reasons"`
}
