package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/resumend/client/internal/models"
	"github.com/resumend/client/internal/review"
	"go.uber.org/zap"
)

// ErrNotPDF is the warning shown when a non-PDF file is selected.
var ErrNotPDF = errors.New("Please upload a PDF file.")

// Reviewer performs the two remote exchanges.
type Reviewer interface {
	Upload(ctx context.Context, file *models.UploadedFile) (string, error)
	Query(ctx context.Context, sessionID, text string) (string, error)
}

// Controller owns the view state of one browser tab. All mutations go
// through its named operations; renderers only ever see State snapshots.
//
// Requests run in the background. Each carries a sequence number and its
// result is dropped when a newer request of the same kind, or a Reset,
// happened in the meantime.
type Controller struct {
	id       string
	reviewer Reviewer
	logger   *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu        sync.Mutex
	file      *models.UploadedFile
	uploaded  bool
	chatOpen  bool
	queryText string
	sessionID string
	feedback  string
	uploadSeq uint64
	querySeq  uint64
	touchedAt time.Time
	changed   chan struct{}
}

// NewController creates a controller in the landing state.
func NewController(id string, reviewer Reviewer, logger *zap.Logger) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Controller{
		id:        id,
		reviewer:  reviewer,
		logger:    logger.With(zap.String("tab", shortID(id))),
		ctx:       ctx,
		cancel:    cancel,
		touchedAt: time.Now(),
		changed:   make(chan struct{}),
	}
}

// ID returns the tab identifier.
func (c *Controller) ID() string {
	return c.id
}

// SelectFile accepts a file from the picker or a drop. Non-PDF files are
// rejected with ErrNotPDF and leave the state untouched; a PDF replaces the
// current file and starts an upload right away.
func (c *Controller) SelectFile(source models.FileSource, name, mediaType string, data []byte) error {
	file := models.NewUploadedFile(name, mediaType, source, data)
	if !file.IsPDF() {
		c.logger.Info("rejected non-pdf file", zap.String("name", name), zap.String("mediaType", mediaType))
		return ErrNotPDF
	}

	c.mu.Lock()
	c.file = file
	c.uploaded = false
	c.touchedAt = time.Now()
	c.notifyLocked()
	c.mu.Unlock()

	c.logger.Info("file selected", zap.String("name", name), zap.String("source", string(source)), zap.Int64("size", file.Size()))
	return c.Upload()
}

// Upload sends the current file to the service. On success the session id
// is stored and the uploaded flag set; on failure the flag stays false and
// the file stays selected, so the spinner persists until a Reset.
func (c *Controller) Upload() error {
	c.mu.Lock()
	file := c.file
	if file == nil {
		c.mu.Unlock()
		return review.ErrNoFile
	}
	c.uploaded = false
	c.uploadSeq++
	seq := c.uploadSeq
	c.notifyLocked()
	c.mu.Unlock()

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		start := time.Now()
		sessionID, err := c.reviewer.Upload(c.ctx, file)

		c.mu.Lock()
		defer c.mu.Unlock()
		if seq != c.uploadSeq {
			c.logger.Info("discarding stale upload response", zap.Uint64("seq", seq), zap.Uint64("current", c.uploadSeq))
			return
		}
		if err != nil {
			c.logger.Error("upload failed", zap.Error(err), zap.String("name", file.Name), zap.Duration("elapsed", time.Since(start)))
			return
		}
		c.sessionID = sessionID
		c.uploaded = true
		c.notifyLocked()
		c.logger.Info("upload complete", zap.String("session", sessionID), zap.Duration("elapsed", time.Since(start)))
	}()
	return nil
}

// UpdateQueryText stores the latest input value.
func (c *Controller) UpdateQueryText(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.queryText = text
	c.touchedAt = time.Now()
	c.notifyLocked()
}

// SubmitQuery opens the chat immediately and asks the service about the
// resume. Any failure stores models.FeedbackErrorSentinel. An empty session
// is sent as is.
func (c *Controller) SubmitQuery() {
	c.mu.Lock()
	c.chatOpen = true
	c.querySeq++
	seq := c.querySeq
	sessionID := c.sessionID
	text := c.queryText
	c.touchedAt = time.Now()
	c.notifyLocked()
	c.mu.Unlock()

	if sessionID == "" {
		c.logger.Warn("submitting query without a session")
	}

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		start := time.Now()
		answer, err := c.reviewer.Query(c.ctx, sessionID, text)

		c.mu.Lock()
		defer c.mu.Unlock()
		if seq != c.querySeq {
			c.logger.Info("discarding stale query response", zap.Uint64("seq", seq), zap.Uint64("current", c.querySeq))
			return
		}
		if err != nil {
			if errors.Is(err, review.ErrTimeout) {
				c.logger.Error("query timed out", zap.Error(err), zap.Duration("elapsed", time.Since(start)))
			} else {
				c.logger.Error("error querying", zap.Error(err), zap.Duration("elapsed", time.Since(start)))
			}
			c.feedback = models.FeedbackErrorSentinel
			c.notifyLocked()
			return
		}
		c.feedback = answer
		c.notifyLocked()
		c.logger.Info("query answered", zap.Int("length", len(answer)), zap.Duration("elapsed", time.Since(start)))
	}()
}

// Reset returns to the landing state so another file can be uploaded.
// The session token is cleared too: it belongs to the discarded file.
// The query text is kept. In-flight responses become stale.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.file = nil
	c.uploaded = false
	c.chatOpen = false
	c.feedback = ""
	c.sessionID = ""
	c.uploadSeq++
	c.querySeq++
	c.touchedAt = time.Now()
	c.notifyLocked()
	c.logger.Info("reset")
}

// State returns a snapshot of the current state.
func (c *Controller) State() models.State {
	c.mu.Lock()
	defer c.mu.Unlock()

	phase := models.DerivePhase(c.file != nil, c.uploaded, c.chatOpen)
	st := models.State{
		Phase:          phase,
		Uploaded:       c.uploaded,
		ChatOpen:       c.chatOpen,
		QueryText:      c.queryText,
		SessionID:      c.sessionID,
		Feedback:       c.feedback,
		Branch:         models.DeriveBranch(c.feedback),
		ShowSpinner:    phase == models.PhaseUploading && !c.uploaded,
		ShowUploadedOK: phase == models.PhaseUploading && c.uploaded,
		UploadSeq:      c.uploadSeq,
		QuerySeq:       c.querySeq,
	}
	if c.file != nil {
		st.File = &models.FileMeta{
			Name:      c.file.Name,
			MediaType: c.file.MediaType,
			Source:    c.file.Source,
			Size:      c.file.Size(),
		}
	}
	return st
}

// File returns the selected file for the viewer, or nil once released.
func (c *Controller) File() *models.UploadedFile {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.file
}

// Changed returns a channel that is closed on the next state change.
// Callers fetch a fresh channel after each wake-up.
func (c *Controller) Changed() <-chan struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.changed
}

// Done is closed once the controller is closed.
func (c *Controller) Done() <-chan struct{} {
	return c.ctx.Done()
}

func (c *Controller) notifyLocked() {
	close(c.changed)
	c.changed = make(chan struct{})
}

// Wait blocks until every request started so far has finished.
func (c *Controller) Wait() {
	c.wg.Wait()
}

// Close aborts in-flight requests. Their results are dropped.
func (c *Controller) Close() {
	c.cancel()
}

// idleSince reports when the tab was last used.
func (c *Controller) idleSince() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.touchedAt
}

// shortID safely truncates an ID for logging
func shortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}
