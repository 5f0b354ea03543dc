package commands

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/arrivalkit/formpilot/pkg/capture"
	"github.com/arrivalkit/formpilot/pkg/config"
	"github.com/arrivalkit/formpilot/pkg/driver/playwright"
	"github.com/arrivalkit/formpilot/pkg/formdef"
	"github.com/arrivalkit/formpilot/pkg/logging"
	"github.com/arrivalkit/formpilot/pkg/profile"
	"github.com/arrivalkit/formpilot/pkg/session"
	"github.com/arrivalkit/formpilot/pkg/store"
	"github.com/arrivalkit/formpilot/pkg/types"
)

var (
	runFormPath    string
	runProfilePath string
	runPassportID  string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Fill an arrival form for a traveler",
	Long: `Run opens the destination form in a browser, fills each step from
the traveler profile, and pauses on the final review step. Submit the
form yourself in the browser window, then confirm here so the engine
captures and stores the confirmation artifact.`,
	RunE: runSession,
}

func init() {
	runCmd.Flags().StringVar(&runFormPath, "form", "", "Form definition YAML file (required)")
	runCmd.Flags().StringVar(&runProfilePath, "profile", "", "Traveler profile YAML file (required)")
	runCmd.Flags().StringVar(&runPassportID, "passport", "", "Passport ID the record is stored under (required)")
	runCmd.MarkFlagRequired("form")
	runCmd.MarkFlagRequired("profile")
	runCmd.MarkFlagRequired("passport")
	rootCmd.AddCommand(runCmd)
}

func loadProfile(path string) (*profile.TravelerProfile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read profile: %w", err)
	}
	var values map[string]string
	if err := yaml.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("failed to parse profile: %w", err)
	}
	return profile.New(values), nil
}

func runSession(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	form, err := formdef.Load(runFormPath)
	if err != nil {
		return err
	}
	prof, err := loadProfile(runProfilePath)
	if err != nil {
		return err
	}

	logger, logErr := logging.NewLogger("cli")
	if logErr != nil {
		fmt.Fprintf(os.Stderr, "Warning: file logging unavailable: %v\n", logErr)
	}
	defer logger.Close()

	db, err := store.NewSQLiteStore(cfg.DBPath)
	if err != nil {
		return err
	}
	defer db.Close()

	launcher := playwright.NewLauncher()
	if err := launcher.Initialize(); err != nil {
		return err
	}
	defer launcher.Shutdown()

	surface, err := launcher.NewSurface(playwright.SurfaceOptions{
		Headless:       cfg.Headless,
		ViewportWidth:  cfg.ViewportWidth,
		ViewportHeight: cfg.ViewportHeight,
	})
	if err != nil {
		return err
	}
	defer surface.Close()

	if form.StartURL != "" {
		if err := surface.Navigate(form.StartURL); err != nil {
			return err
		}
	}

	s, err := session.New(session.Config{
		DestinationID: form.DestinationID,
		PassportID:    runPassportID,
		Form:          form,
		Profile:       prof,
		Driver:        surface,
		Store:         db,
		Options: session.Options{
			TickInterval: cfg.TickInterval,
			MaxTicks:     cfg.MaxTicks,
			MarkerWait:   cfg.MarkerWait,
			EventBuffer:  cfg.EventBuffer,
		},
		Logger: logger,
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := s.Start(ctx); err != nil {
		return err
	}
	fmt.Printf("Session %s started for destination %s\n", s.ID(), form.DestinationID)

	return relayEvents(ctx, s)
}

// relayEvents streams session progress to the terminal and handles the
// interactive pause points.
func relayEvents(ctx context.Context, s *session.Session) error {
	stdin := bufio.NewReader(os.Stdin)

	for {
		select {
		case <-ctx.Done():
			s.Cancel()
			<-s.Channels().Done
			return nil
		case event, ok := <-s.Channels().Event:
			if !ok {
				return nil
			}
			printEvent(event)

			switch event.Type {
			case types.EventTypeCaptureSucceeded:
				downloadArtifactDocument(ctx, s.ID(), event.Artifact)

			case types.EventTypePausedAtTerminal:
				fmt.Println()
				fmt.Println("Review the form in the browser and submit it yourself.")
				fmt.Print("Press Enter after submitting (Ctrl+C to cancel): ")
				if _, err := stdin.ReadString('\n'); err != nil {
					s.Cancel()
					<-s.Channels().Done
					return nil
				}
				s.Channels().Submitted <- struct{}{}

			case types.EventTypeCaptureFailed:
				fmt.Print("Capture found nothing yet. Press Enter to retry once the result page loads: ")
				if _, err := stdin.ReadString('\n'); err != nil {
					s.Cancel()
					<-s.Channels().Done
					return nil
				}
				s.Channels().Submitted <- struct{}{}

			case types.EventTypePausedForValidation:
				fmt.Println("The form reported a validation error. Fix the highlighted input in the browser.")
				fmt.Print("Press Enter to resume: ")
				if _, err := stdin.ReadString('\n'); err != nil {
					s.Cancel()
					<-s.Channels().Done
					return nil
				}
				if err := s.Resume(ctx); err != nil {
					return err
				}

			case types.EventTypeStuck:
				fmt.Println("Navigation stalled. Bring the form to the expected step in the browser.")
				fmt.Print("Press Enter to resume: ")
				if _, err := stdin.ReadString('\n'); err != nil {
					s.Cancel()
					<-s.Channels().Done
					return nil
				}
				if err := s.Resume(ctx); err != nil {
					return err
				}

			case types.EventTypeSessionCompleted, types.EventTypeSessionCancelled:
				return nil
			}
		}
	}
}

// downloadArtifactDocument keeps a local copy of the confirmation PDF
// when the captured artifact references one. The download is validated
// with pdfcpu; an error page served under a .pdf name is rejected and
// never kept on disk.
func downloadArtifactDocument(ctx context.Context, sessionID string, artifact *types.SubmissionArtifact) {
	if artifact == nil || artifact.DocumentRef == "" {
		return
	}
	if !strings.HasPrefix(artifact.DocumentRef, "http://") &&
		!strings.HasPrefix(artifact.DocumentRef, "https://") {
		return
	}
	name := artifact.ConfirmationNumber
	if name == "" {
		name = sessionID
	}
	dest := filepath.Join(config.DataDir(), "documents", name+".pdf")
	if err := capture.DownloadDocument(ctx, nil, artifact.DocumentRef, dest); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: confirmation document rejected: %v\n", err)
		return
	}
	fmt.Printf("Confirmation document saved to %s\n", dest)
}

func printEvent(event *types.SessionEvent) {
	switch event.Type {
	case types.EventTypeStepStarted:
		fmt.Printf("-> step %s\n", event.StepID)
	case types.EventTypeFieldFilled:
		fmt.Printf("   filled %s\n", event.FieldKey)
	case types.EventTypeFieldFailed:
		fmt.Printf("   FAILED %s: %v\n", event.FieldKey, event.Error)
	case types.EventTypeStepResult:
		fmt.Printf("   step %s: %d filled, %d failed\n",
			event.StepResult.StepID, len(event.StepResult.Filled), len(event.StepResult.Failed))
	case types.EventTypeStepAdvanced:
		fmt.Printf("-> advanced to %s\n", event.StepID)
	case types.EventTypeCaptureSucceeded:
		fmt.Printf("Captured artifact (confirmation %q)\n", event.Artifact.ConfirmationNumber)
	case types.EventTypeRecordSaved:
		fmt.Printf("Record saved: %s\n", event.RecordID)
	case types.EventTypeSessionCompleted:
		fmt.Println("Session completed.")
	case types.EventTypeSessionCancelled:
		fmt.Println("Session cancelled.")
	case types.EventTypeError:
		fmt.Printf("Error: %v\n", event.Error)
	}
}
