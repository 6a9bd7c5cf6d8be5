package models

import "time"

// PDFMediaType is the only media type accepted for upload.
const PDFMediaType = "application/pdf"

// FileSource identifies how the user supplied a file.
type FileSource string

const (
	SourcePicker FileSource = "picker"
	SourceDrop   FileSource = "drop"
)

// UploadedFile is the resume selected by the user. It is never mutated after
// creation; a new selection replaces it.
type UploadedFile struct {
	Name       string     `json:"name" msgpack:"name"`
	MediaType  string     `json:"mediaType" msgpack:"mediaType"`
	Source     FileSource `json:"source" msgpack:"source"`
	Data       []byte     `json:"-" msgpack:"-"`
	SelectedAt time.Time  `json:"selectedAt" msgpack:"selectedAt"`
}

// NewUploadedFile wraps a payload selected from the given source.
func NewUploadedFile(name, mediaType string, source FileSource, data []byte) *UploadedFile {
	return &UploadedFile{
		Name:       name,
		MediaType:  mediaType,
		Source:     source,
		Data:       data,
		SelectedAt: time.Now(),
	}
}

// IsPDF reports whether the declared media type is the PDF media type.
func (f *UploadedFile) IsPDF() bool {
	return f != nil && f.MediaType == PDFMediaType
}

// Size returns the payload length in bytes.
func (f *UploadedFile) Size() int64 {
	if f == nil {
		return 0
	}
	return int64(len(f.Data))
}
