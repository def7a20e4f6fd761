package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/clinicore/scribe/internal/medical"
	"github.com/jedib0t/go-pretty/v6/table"
)

// ListCmd renders the stored encounter collection.
type ListCmd struct {
	serverFlags
}

// Run executes the list command.
func (c *ListCmd) Run() error {
	encounters, err := c.apiClient().ListEncounters(context.Background())
	if err != nil {
		return err
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"ID", "Date", "Type", "Chief Complaint", "Note"})

	for _, enc := range encounters {
		note := "-"
		if enc.SOAPNote != nil {
			note = fmt.Sprintf("%.0f%%", enc.SOAPNote.CompletenessScore)
		}
		t.AppendRow(table.Row{
			enc.ID,
			enc.EncounterDate.Format("2006-01-02 15:04"),
			string(enc.EncounterType),
			truncate(enc.ChiefComplaint, 40),
			note,
		})
	}

	t.Render()
	return nil
}

// ShowCmd renders one encounter with its SOAP note.
type ShowCmd struct {
	serverFlags

	ID string `arg:"" help:"Encounter id, e.g. enc_1a2b3c4d5e6f"`
}

// Run executes the show command.
func (c *ShowCmd) Run() error {
	enc, err := c.apiClient().GetEncounter(context.Background(), c.ID)
	if err != nil {
		return err
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendRow(table.Row{"ID", enc.ID})
	t.AppendRow(table.Row{"Physician", enc.PhysicianID})
	t.AppendRow(table.Row{"Patient hash", enc.PatientIDHash})
	t.AppendRow(table.Row{"Type", string(enc.EncounterType)})
	t.AppendRow(table.Row{"Date", enc.EncounterDate.Format("2006-01-02 15:04")})
	t.AppendRow(table.Row{"Chief complaint", enc.ChiefComplaint})
	if enc.AudioDurationSeconds > 0 {
		t.AppendRow(table.Row{"Audio duration", fmt.Sprintf("%ds", enc.AudioDurationSeconds)})
	}
	t.Render()

	if enc.Transcription != "" {
		fmt.Printf("\nTranscription:\n%s\n", enc.Transcription)
	}

	if note := enc.SOAPNote; note != nil {
		fmt.Println("\nSOAP note:")
		printSection("Subjective", note.Subjective)
		printSection("Objective", note.Objective)
		printSection("Assessment", note.Assessment)
		printSection("Plan", note.Plan)
		printCodes("ICD-10", note.ICD10Codes)
		printCodes("CPT", note.CPTCodes)
		if note.GeneratedBy != "" {
			fmt.Printf("\nGenerated by %s (completeness %.0f%%)\n", note.GeneratedBy, note.CompletenessScore)
		}
	}

	return nil
}

// printSection renders one SOAP section, skipping empty ones.
func printSection(name, content string) {
	if content == "" {
		return
	}
	fmt.Printf("\n%s:\n%s\n", name, content)
}

// printCodes parses and renders a JSON-encoded code list field.
func printCodes(name, field string) {
	codes, err := medical.ParseCodes(field)
	if err != nil || len(codes) == 0 {
		return
	}
	fmt.Printf("\n%s: %s\n", name, strings.Join(codes, ", "))
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit-1] + "…"
}
