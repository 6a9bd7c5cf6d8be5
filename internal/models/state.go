package models

// FeedbackErrorSentinel replaces the feedback whenever a query fails.
// Renderers compare against it to pick the apology branch.
const FeedbackErrorSentinel = "Error querying"

// ViewPhase is derived from the controller state and never stored.
type ViewPhase string

const (
	PhaseLanding   ViewPhase = "landing"
	PhaseUploading ViewPhase = "uploading"
	PhaseReviewing ViewPhase = "reviewing"
)

// FeedbackBranch selects what the feedback pane shows.
type FeedbackBranch string

const (
	BranchLoading  FeedbackBranch = "loading"
	BranchFeedback FeedbackBranch = "feedback"
	BranchApology  FeedbackBranch = "apology"
)

// FileMeta describes the selected file without its payload.
type FileMeta struct {
	Name      string     `json:"name" msgpack:"name"`
	MediaType string     `json:"mediaType" msgpack:"mediaType"`
	Source    FileSource `json:"source" msgpack:"source"`
	Size      int64      `json:"size" msgpack:"size"`
}

// State is an immutable snapshot of a controller, handed to renderers.
type State struct {
	Phase          ViewPhase      `json:"phase" msgpack:"phase"`
	File           *FileMeta      `json:"file,omitempty" msgpack:"file,omitempty"`
	Uploaded       bool           `json:"uploaded" msgpack:"uploaded"`
	ChatOpen       bool           `json:"chatOpen" msgpack:"chatOpen"`
	QueryText      string         `json:"queryText" msgpack:"queryText"`
	SessionID      string         `json:"sessionId,omitempty" msgpack:"sessionId,omitempty"`
	Feedback       string         `json:"feedback,omitempty" msgpack:"feedback,omitempty"`
	Branch         FeedbackBranch `json:"branch" msgpack:"branch"`
	ShowSpinner    bool           `json:"showSpinner" msgpack:"showSpinner"`
	ShowUploadedOK bool           `json:"showUploadedOk" msgpack:"showUploadedOk"`
	UploadSeq      uint64         `json:"uploadSeq" msgpack:"uploadSeq"`
	QuerySeq       uint64         `json:"querySeq" msgpack:"querySeq"`
}

// DerivePhase computes the view phase from the three stored inputs.
// A chat opened before the upload completed keeps the uploading view,
// since the review panes need a confirmed upload.
func DerivePhase(hasFile, uploaded, chatOpen bool) ViewPhase {
	switch {
	case !hasFile:
		return PhaseLanding
	case uploaded && chatOpen:
		return PhaseReviewing
	default:
		return PhaseUploading
	}
}

// DeriveBranch picks the feedback pane branch for a feedback value.
func DeriveBranch(feedback string) FeedbackBranch {
	switch feedback {
	case "":
		return BranchLoading
	case FeedbackErrorSentinel:
		return BranchApology
	default:
		return BranchFeedback
	}
}
