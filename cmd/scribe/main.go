package main

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/alecthomas/kong"
	"github.com/clinicore/scribe/internal/capture"
	"github.com/clinicore/scribe/internal/client"
	"github.com/clinicore/scribe/internal/medical"
	"github.com/clinicore/scribe/internal/tui/encounter"
	"github.com/clinicore/scribe/internal/workflow"
	tea "github.com/charmbracelet/bubbletea"
)

// CLI defines the scribe command structure.
type CLI struct {
	// Default TUI command (runs when no subcommand given)
	Record RecordCmd `cmd:"" default:"withargs" help:"Capture a new encounter interactively"`

	// Subcommands
	Upload  UploadCmd  `cmd:"" help:"Submit an encounter from an existing audio file"`
	List    ListCmd    `cmd:"" help:"List stored encounters"`
	Show    ShowCmd    `cmd:"" help:"Show one encounter with its SOAP note"`
	Devices DevicesCmd `cmd:"" help:"List available audio capture devices"`
}

// serverFlags are shared by every command that talks to the backend.
type serverFlags struct {
	ServerURL string `flag:"" env:"SCRIBE_SERVER_URL" default:"http://localhost:8080/api/v1" help:"Backend API base URL"`
}

func (f serverFlags) apiClient() *client.Client {
	return client.New(f.ServerURL, http.DefaultClient)
}

// draftFlags are the encounter metadata flags shared by record and upload.
type draftFlags struct {
	PhysicianID    string `flag:"" env:"SCRIBE_PHYSICIAN_ID" default:"unassigned" help:"Physician identifier"`
	PatientHash    string `flag:"" optional:"" help:"Pseudonymous patient identifier (never raw PHI)"`
	ChiefComplaint string `flag:"" optional:"" help:"Chief complaint"`
	Type           string `flag:"" default:"office_visit" help:"Encounter type: office_visit, telehealth, follow_up, consultation"`
}

func (f draftFlags) details() (workflow.Details, error) {
	encounterType := medical.EncounterType(f.Type)
	if !encounterType.Valid() {
		return workflow.Details{}, fmt.Errorf("invalid encounter type %q", f.Type)
	}

	patientHash := f.PatientHash
	if patientHash == "" {
		patientHash = medical.DefaultPatientIDHash
	}

	return workflow.Details{
		PhysicianID:    f.PhysicianID,
		PatientIDHash:  patientHash,
		ChiefComplaint: f.ChiefComplaint,
		EncounterType:  encounterType,
	}, nil
}

// RecordCmd captures an encounter via the interactive TUI.
type RecordCmd struct {
	serverFlags
	draftFlags

	File string `arg:"" optional:"" help:"Audio file to upload instead of recording"`
}

// Run executes the record command.
func (c *RecordCmd) Run() error {
	_, cancel := context.WithCancel(context.Background())
	defer cancel()

	details, err := c.details()
	if err != nil {
		return err
	}

	recorder := capture.NewRecorder()
	api := c.apiClient()
	session := workflow.NewSession(recorder, api, api)

	program := tea.NewProgram(encounter.New(encounter.Config{
		Session:    session,
		Recorder:   recorder,
		Details:    details,
		UploadPath: c.File,
	}, cancel))

	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run encounter TUI: %w", err)
	}

	return nil
}

// UploadCmd submits an encounter from an existing audio file without the TUI.
type UploadCmd struct {
	serverFlags
	draftFlags

	File string `arg:"" help:"Audio file (mp3, wav, webm, ogg, m4a)"`
}

// Run executes the upload command: accept file, transcribe, submit.
func (c *UploadCmd) Run() error {
	ctx := context.Background()

	details, err := c.details()
	if err != nil {
		return err
	}
	if details.ChiefComplaint == "" {
		return fmt.Errorf("--chief-complaint is required for upload")
	}

	api := c.apiClient()
	session := workflow.NewSession(capture.NewRecorder(), api, api)

	if err := session.AcceptFile(c.File); err != nil {
		return err
	}

	fmt.Fprintln(os.Stderr, "Transcribing...")
	if err := session.Transcribe(ctx); err != nil {
		return err
	}

	fmt.Fprintln(os.Stderr, "Submitting...")
	if err := session.Submit(ctx, details); err != nil {
		return err
	}

	enc := session.SavedEncounter()
	fmt.Printf("Saved encounter %s\n", enc.ID)
	if enc.SOAPNote != nil {
		fmt.Printf("SOAP note %s (completeness %.0f%%)\n", enc.SOAPNote.ID, enc.SOAPNote.CompletenessScore)
	}

	return nil
}

// DevicesCmd lists available audio capture devices.
type DevicesCmd struct{}

// Run executes the devices command.
func (c *DevicesCmd) Run() error {
	infos, err := capture.EnumerateDevices(context.Background())
	if err != nil {
		return fmt.Errorf("failed to enumerate devices: %w", err)
	}

	for _, info := range infos {
		marker := " "
		if info.IsDefault {
			marker = "*"
		}
		fmt.Printf("%s %s\n", marker, info.Name)
	}

	return nil
}

func main() {
	cli := CLI{}
	kongCtx := kong.Parse(&cli,
		kong.Name("scribe"),
		kong.Description("Clinical encounter capture: record, transcribe, and file SOAP-noted encounters"),
		kong.UsageOnError(),
	)

	if err := kongCtx.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "scribe: %v\n", err)
		os.Exit(1)
	}
}
