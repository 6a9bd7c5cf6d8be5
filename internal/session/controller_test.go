package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/resumend/client/internal/models"
	"github.com/resumend/client/internal/review"
	"github.com/resumend/client/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type queryCall struct {
	sessionID string
	text      string
}

// stubReviewer records calls and answers through the configured funcs.
type stubReviewer struct {
	mu       sync.Mutex
	uploads  []*models.UploadedFile
	queries  []queryCall
	uploadFn func(ctx context.Context, file *models.UploadedFile) (string, error)
	queryFn  func(ctx context.Context, sessionID, text string) (string, error)
}

func (s *stubReviewer) Upload(ctx context.Context, file *models.UploadedFile) (string, error) {
	s.mu.Lock()
	s.uploads = append(s.uploads, file)
	fn := s.uploadFn
	s.mu.Unlock()
	if fn == nil {
		return "s1", nil
	}
	return fn(ctx, file)
}

func (s *stubReviewer) Query(ctx context.Context, sessionID, text string) (string, error) {
	s.mu.Lock()
	s.queries = append(s.queries, queryCall{sessionID: sessionID, text: text})
	fn := s.queryFn
	s.mu.Unlock()
	if fn == nil {
		return "ok", nil
	}
	return fn(ctx, sessionID, text)
}

func (s *stubReviewer) uploadCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.uploads)
}

func newTestController(r Reviewer) *Controller {
	return NewController("tab-under-test", r, nil)
}

func TestSelectFile_RejectsNonPDF(t *testing.T) {
	mediaTypes := []string{
		"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
		"text/plain",
		"image/png",
		"application/x-pdf",
		"",
	}

	for _, mt := range mediaTypes {
		t.Run(mt, func(t *testing.T) {
			stub := &stubReviewer{}
			ctrl := newTestController(stub)
			before := ctrl.State()

			err := ctrl.SelectFile(models.SourceDrop, "notes.docx", mt, []byte("data"))
			ctrl.Wait()

			assert.ErrorIs(t, err, ErrNotPDF)
			assert.Equal(t, "Please upload a PDF file.", err.Error())
			assert.Nil(t, ctrl.File())
			assert.Equal(t, before, ctrl.State())
			assert.Zero(t, stub.uploadCount())
		})
	}
}

func TestSelectFile_PDFTriggersOneUpload(t *testing.T) {
	for _, source := range []models.FileSource{models.SourcePicker, models.SourceDrop} {
		t.Run(string(source), func(t *testing.T) {
			stub := &stubReviewer{}
			ctrl := newTestController(stub)
			payload := []byte("%PDF-1.4")

			require.NoError(t, ctrl.SelectFile(source, "resume.pdf", models.PDFMediaType, payload))
			ctrl.Wait()

			require.Equal(t, 1, stub.uploadCount())
			assert.Equal(t, payload, stub.uploads[0].Data)
			assert.Equal(t, source, stub.uploads[0].Source)
			require.NotNil(t, ctrl.File())
			assert.Equal(t, "resume.pdf", ctrl.File().Name)
		})
	}
}

func TestUpload_Outcome(t *testing.T) {
	tests := []struct {
		name         string
		uploadFn     func(context.Context, *models.UploadedFile) (string, error)
		wantUploaded bool
		wantSession  string
	}{
		{
			name:         "success stores session",
			uploadFn:     func(context.Context, *models.UploadedFile) (string, error) { return "abc", nil },
			wantUploaded: true,
			wantSession:  "abc",
		},
		{
			name: "malformed response keeps pending",
			uploadFn: func(context.Context, *models.UploadedFile) (string, error) {
				return "", review.ErrMalformedResponse
			},
		},
		{
			name: "transport failure keeps pending",
			uploadFn: func(context.Context, *models.UploadedFile) (string, error) {
				return "", errors.New("connection refused")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := newTestController(&stubReviewer{uploadFn: tt.uploadFn})

			require.NoError(t, ctrl.SelectFile(models.SourcePicker, "resume.pdf", models.PDFMediaType, []byte("%PDF")))
			ctrl.Wait()

			st := ctrl.State()
			assert.Equal(t, tt.wantUploaded, st.Uploaded)
			assert.Equal(t, tt.wantSession, st.SessionID)
			assert.NotNil(t, st.File)
			assert.Equal(t, !tt.wantUploaded, st.ShowSpinner)
			assert.Equal(t, tt.wantUploaded, st.ShowUploadedOK)
			assert.Equal(t, models.PhaseUploading, st.Phase)
		})
	}
}

func TestUpload_WithoutFile(t *testing.T) {
	stub := &stubReviewer{}
	ctrl := newTestController(stub)

	assert.ErrorIs(t, ctrl.Upload(), review.ErrNoFile)
	assert.Zero(t, stub.uploadCount())
}

func TestUpdateQueryText_Overwrites(t *testing.T) {
	ctrl := newTestController(&stubReviewer{})

	ctrl.UpdateQueryText("front")
	ctrl.UpdateQueryText("frontend roles")
	assert.Equal(t, "frontend roles", ctrl.State().QueryText)

	ctrl.UpdateQueryText("")
	assert.Equal(t, "", ctrl.State().QueryText)
}

func TestSubmitQuery_OpensChatBeforeAnswer(t *testing.T) {
	release := make(chan struct{})
	ctrl := newTestController(&stubReviewer{
		queryFn: func(ctx context.Context, _, _ string) (string, error) {
			<-release
			return "X", nil
		},
	})

	ctrl.SubmitQuery()

	st := ctrl.State()
	assert.True(t, st.ChatOpen)
	assert.Equal(t, models.BranchLoading, st.Branch)

	close(release)
	ctrl.Wait()
	assert.Equal(t, "X", ctrl.State().Feedback)
}

func TestSubmitQuery_Outcome(t *testing.T) {
	tests := []struct {
		name         string
		queryFn      func(context.Context, string, string) (string, error)
		wantFeedback string
		wantBranch   models.FeedbackBranch
	}{
		{
			name:         "answer stored",
			queryFn:      func(context.Context, string, string) (string, error) { return "X", nil },
			wantFeedback: "X",
			wantBranch:   models.BranchFeedback,
		},
		{
			name:         "timeout stores sentinel",
			queryFn:      func(context.Context, string, string) (string, error) { return "", review.ErrTimeout },
			wantFeedback: "Error querying",
			wantBranch:   models.BranchApology,
		},
		{
			name: "status error stores sentinel",
			queryFn: func(context.Context, string, string) (string, error) {
				return "", &review.StatusError{Exchange: "query", Code: 400}
			},
			wantFeedback: "Error querying",
			wantBranch:   models.BranchApology,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := newTestController(&stubReviewer{queryFn: tt.queryFn})

			ctrl.SubmitQuery()
			ctrl.Wait()

			st := ctrl.State()
			assert.Equal(t, tt.wantFeedback, st.Feedback)
			assert.Equal(t, tt.wantBranch, st.Branch)
			assert.True(t, st.ChatOpen)
		})
	}
}

func TestSubmitQuery_SendsSessionAndText(t *testing.T) {
	stub := &stubReviewer{}
	ctrl := newTestController(stub)

	require.NoError(t, ctrl.SelectFile(models.SourcePicker, "resume.pdf", models.PDFMediaType, []byte("%PDF")))
	ctrl.Wait()
	ctrl.UpdateQueryText("frontend roles")
	ctrl.SubmitQuery()
	ctrl.Wait()

	require.Len(t, stub.queries, 1)
	assert.Equal(t, queryCall{sessionID: "s1", text: "frontend roles"}, stub.queries[0])
	// the query text is consumed, not cleared
	assert.Equal(t, "frontend roles", ctrl.State().QueryText)
}

func TestReset_ClearsDerivedState(t *testing.T) {
	ctrl := newTestController(&stubReviewer{})

	require.NoError(t, ctrl.SelectFile(models.SourcePicker, "resume.pdf", models.PDFMediaType, []byte("%PDF")))
	ctrl.Wait()
	ctrl.UpdateQueryText("frontend roles")
	ctrl.SubmitQuery()
	ctrl.Wait()
	require.Equal(t, models.PhaseReviewing, ctrl.State().Phase)

	ctrl.Reset()

	st := ctrl.State()
	assert.Equal(t, models.PhaseLanding, st.Phase)
	assert.Nil(t, st.File)
	assert.Nil(t, ctrl.File())
	assert.False(t, st.Uploaded)
	assert.False(t, st.ChatOpen)
	assert.Empty(t, st.Feedback)
	assert.Equal(t, models.BranchLoading, st.Branch)
	assert.Empty(t, st.SessionID)
	assert.Equal(t, "frontend roles", st.QueryText)
}

func TestReset_DropsInFlightResponses(t *testing.T) {
	release := make(chan struct{})
	ctrl := newTestController(&stubReviewer{
		uploadFn: func(context.Context, *models.UploadedFile) (string, error) {
			<-release
			return "late", nil
		},
		queryFn: func(context.Context, string, string) (string, error) {
			<-release
			return "late answer", nil
		},
	})

	require.NoError(t, ctrl.SelectFile(models.SourcePicker, "resume.pdf", models.PDFMediaType, []byte("%PDF")))
	ctrl.SubmitQuery()
	ctrl.Reset()
	close(release)
	ctrl.Wait()

	st := ctrl.State()
	assert.False(t, st.Uploaded)
	assert.Empty(t, st.SessionID)
	assert.Empty(t, st.Feedback)
}

func TestSelectFile_StaleUploadDiscarded(t *testing.T) {
	firstStarted := make(chan struct{})
	releaseFirst := make(chan struct{})
	ctrl := newTestController(&stubReviewer{
		uploadFn: func(_ context.Context, file *models.UploadedFile) (string, error) {
			if file.Name == "old.pdf" {
				close(firstStarted)
				<-releaseFirst
				return "old-session", nil
			}
			return "new-session", nil
		},
	})

	require.NoError(t, ctrl.SelectFile(models.SourcePicker, "old.pdf", models.PDFMediaType, []byte("%PDF old")))
	<-firstStarted
	require.NoError(t, ctrl.SelectFile(models.SourceDrop, "new.pdf", models.PDFMediaType, []byte("%PDF new")))
	close(releaseFirst)
	ctrl.Wait()

	st := ctrl.State()
	assert.Equal(t, "new-session", st.SessionID)
	assert.Equal(t, "new.pdf", st.File.Name)
	assert.True(t, st.Uploaded)
}

func TestClose_AbortsRequests(t *testing.T) {
	ctrl := newTestController(&stubReviewer{
		uploadFn: func(ctx context.Context, _ *models.UploadedFile) (string, error) {
			<-ctx.Done()
			return "", ctx.Err()
		},
	})

	require.NoError(t, ctrl.SelectFile(models.SourcePicker, "resume.pdf", models.PDFMediaType, []byte("%PDF")))
	ctrl.Close()
	ctrl.Wait()

	assert.False(t, ctrl.State().Uploaded)
}

func TestChanged_SignalsCompletedRequests(t *testing.T) {
	release := make(chan struct{})
	ctrl := newTestController(&stubReviewer{
		queryFn: func(context.Context, string, string) (string, error) {
			<-release
			return "Looks good.", nil
		},
	})

	ctrl.SubmitQuery()
	changed := ctrl.Changed()
	select {
	case <-changed:
		t.Fatal("changed before the answer arrived")
	default:
	}

	close(release)
	select {
	case <-changed:
	case <-time.After(time.Second):
		t.Fatal("no change signalled for the answer")
	}
	ctrl.Wait()
	assert.Equal(t, "Looks good.", ctrl.State().Feedback)
}

// The scenarios below run against the real HTTP client and a fake service.

func newServiceController(t *testing.T) (*testutil.FakeService, *Controller) {
	t.Helper()
	fake := testutil.NewFakeService()
	t.Cleanup(fake.Close)
	ctrl := newTestController(review.NewClient(review.WithBaseURL(fake.URL())))
	t.Cleanup(ctrl.Close)
	return fake, ctrl
}

func TestScenario_FullReview(t *testing.T) {
	fake, ctrl := newServiceController(t)
	fake.SetQueryReply(testutil.Reply{Body: `{"response":{"answer":"Use more action verbs."}}`})

	require.NoError(t, ctrl.SelectFile(models.SourcePicker, "resume.pdf", models.PDFMediaType, []byte("%PDF-1.4")))
	ctrl.Wait()
	assert.Equal(t, "s1", ctrl.State().SessionID)

	ctrl.UpdateQueryText("frontend roles")
	ctrl.SubmitQuery()
	ctrl.Wait()

	st := ctrl.State()
	assert.Equal(t, models.PhaseReviewing, st.Phase)
	assert.Equal(t, models.BranchFeedback, st.Branch)
	assert.Equal(t, "Use more action verbs.", st.Feedback)

	queries := fake.Queries()
	require.Len(t, queries, 1)
	assert.Equal(t, "s1", queries[0].SessionID)
	assert.Equal(t, "frontend roles", queries[0].Query)
}

func TestScenario_UploadFailsSpinnerStays(t *testing.T) {
	fake, ctrl := newServiceController(t)
	fake.SetUploadReply(testutil.Reply{Status: 500, Body: `{"detail":"Error creating vector store"}`})

	require.NoError(t, ctrl.SelectFile(models.SourceDrop, "resume.pdf", models.PDFMediaType, []byte("%PDF-1.4")))
	ctrl.Wait()

	st := ctrl.State()
	assert.False(t, st.Uploaded)
	assert.True(t, st.ShowSpinner)
	assert.Equal(t, models.PhaseUploading, st.Phase)
}

func TestScenario_DocxRejected(t *testing.T) {
	fake, ctrl := newServiceController(t)

	err := ctrl.SelectFile(models.SourcePicker, "notes.docx",
		"application/vnd.openxmlformats-officedocument.wordprocessingml.document", []byte("PK"))
	ctrl.Wait()

	assert.ErrorIs(t, err, ErrNotPDF)
	assert.Empty(t, fake.Uploads())
	assert.Equal(t, models.PhaseLanding, ctrl.State().Phase)
}

func TestScenario_ResetThenSecondCycle(t *testing.T) {
	fake, ctrl := newServiceController(t)

	require.NoError(t, ctrl.SelectFile(models.SourcePicker, "resume.pdf", models.PDFMediaType, []byte("%PDF-1.4")))
	ctrl.Wait()
	ctrl.SubmitQuery()
	ctrl.Wait()
	ctrl.Reset()

	fake.SetUploadReply(testutil.Reply{Body: `{"response":{"session_id":"s2"}}`})
	fake.SetQueryReply(testutil.Reply{Body: `{"response":{"answer":"Second review"}}`})
	require.NoError(t, ctrl.SelectFile(models.SourceDrop, "resume-v2.pdf", models.PDFMediaType, []byte("%PDF-1.7")))
	ctrl.Wait()
	ctrl.SubmitQuery()
	ctrl.Wait()

	st := ctrl.State()
	assert.Equal(t, "s2", st.SessionID)
	assert.Equal(t, "Second review", st.Feedback)
	assert.Len(t, fake.Uploads(), 2)
	assert.Equal(t, "s2", fake.Queries()[1].SessionID)
}
