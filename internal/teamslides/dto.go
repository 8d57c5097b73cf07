package teamslides

import "teamslide-backend/slide/model"

const (
	// PresentationMIME is the content type of generated slides.
	PresentationMIME = "application/vnd.openxmlformats-officedocument.presentationml.presentation"
	// DownloadName is the attachment file name offered to clients.
	DownloadName = "Team_Slide_Output.pptx"
)

type generateRequest struct {
	Consultants []string `json:"consultants"`
}

// CVListResponse lists the CV files available for selection.
type CVListResponse struct {
	CVFiles []string `json:"cv_files"`
}

// Inspection describes what the pipeline would bind for one consultant.
type Inspection struct {
	Name          string                 `json:"name"`
	File          string                 `json:"file,omitempty"`
	Found         bool                   `json:"found"`
	Suggestions   []string               `json:"suggestions,omitempty"`
	Error         string                 `json:"error,omitempty"`
	HeadshotBytes int                    `json:"headshotBytes"`
	Record        model.ConsultantRecord `json:"record"`
}
