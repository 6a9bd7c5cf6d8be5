package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/alecthomas/kong"
	"github.com/fatih/color"
	"github.com/gabriel-vasile/mimetype"
	"github.com/resumend/client/internal/logging"
	"github.com/resumend/client/internal/models"
	"github.com/resumend/client/internal/review"
	"github.com/resumend/client/internal/session"
	"go.uber.org/zap"
)

var cli struct {
	File      string        `arg:"" help:"Resume to review (PDF)" type:"existingfile"`
	Query     string        `help:"Description of your dream job" short:"q" default:""`
	RemoteURL string        `help:"Base URL of the review service" default:"${remote}" env:"RESUMEND_REMOTE_URL"`
	Timeout   time.Duration `help:"How long to wait for the review" default:"${timeout}"`
	Verbose   bool          `help:"Log requests" short:"v"`
}

var errUploadFailed = errors.New("upload failed")

func main() {
	ctx := kong.Parse(&cli,
		kong.Name("resumend"),
		kong.Description("Smart Resume Reviews | AI Driven"),
		kong.Vars{
			"remote":  review.DefaultBaseURL,
			"timeout": review.DefaultQueryTimeout.String(),
		},
	)
	ctx.FatalIfErrorf(run())
}

func run() error {
	logger := zap.NewNop()
	if cli.Verbose {
		l, err := logging.New(logging.Options{Level: "debug"})
		if err != nil {
			return err
		}
		logger = l
		defer logger.Sync()
	}

	data, err := os.ReadFile(cli.File)
	if err != nil {
		return err
	}
	mediaType := mimetype.Detect(data).String()

	client := review.NewClient(
		review.WithBaseURL(cli.RemoteURL),
		review.WithQueryTimeout(cli.Timeout),
		review.WithLogger(logger.Named("review")),
	)
	ctrl := session.NewController("cli", client, logger.Named("session"))
	defer ctrl.Close()

	if err := ctrl.SelectFile(models.SourcePicker, filepath.Base(cli.File), mediaType, data); err != nil {
		if errors.Is(err, session.ErrNotPDF) {
			color.Red("%s (detected %s)", err, mediaType)
		}
		return err
	}

	color.Cyan("Uploading %s ...", filepath.Base(cli.File))
	ctrl.Wait()
	if !ctrl.State().Uploaded {
		color.Red("The resume could not be uploaded. Run with --verbose for details.")
		return errUploadFailed
	}
	color.Green("File Uploaded Successfully!")
	fmt.Println("Your resume is deleted 10 minutes after you get your review")

	ctrl.UpdateQueryText(cli.Query)
	ctrl.SubmitQuery()
	color.Cyan("Reviewing ...")
	ctrl.Wait()

	st := ctrl.State()
	switch st.Branch {
	case models.BranchFeedback:
		color.Yellow("\nHere are some tips!\n")
		fmt.Println(st.Feedback)
	case models.BranchApology:
		color.Red("Sorry, no suggestions available at this time")
	}
	return nil
}
