// Package soap generates structured SOAP notes from encounter transcripts
// using the Anthropic API with tool-forced structured output.
package soap

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// Generator handles Anthropic API requests for SOAP note generation.
type Generator struct {
	apiKey string
	model  anthropic.Model
}

// NewGenerator creates a new SOAP note generator.
func NewGenerator(apiKey string) *Generator {
	return &Generator{
		apiKey: apiKey,
		model:  anthropic.ModelClaudeSonnet4_5_20250929,
	}
}

// ModelName returns the model identifier recorded on generated notes.
func (g *Generator) ModelName() string {
	return string(g.model)
}

// NoteInput defines the tool input schema for a generated SOAP note.
type NoteInput struct {
	Subjective string   `json:"subjective"`
	Objective  string   `json:"objective"`
	Assessment string   `json:"assessment"`
	Plan       string   `json:"plan"`
	ICD10Codes []string `json:"icd10_codes"`
	CPTCodes   []string `json:"cpt_codes"`
}

// Note is a generated SOAP note with its coding and quality metadata.
type Note struct {
	Subjective        string
	Objective         string
	Assessment        string
	Plan              string
	ICD10Codes        []string
	CPTCodes          []string
	CompletenessScore float64
}

const systemPrompt = `You are a medical documentation assistant that generates
accurate SOAP notes with proper medical coding from encounter transcriptions.
Base every section strictly on the transcription and chief complaint; do not
invent findings. Record the note with the save_soap_note tool.`

// getNoteTool returns the tool definition for structured SOAP output.
func getNoteTool() anthropic.ToolParam {
	return anthropic.ToolParam{
		Name: "save_soap_note",
		Description: anthropic.String(
			"Save the generated SOAP note with its ICD-10 and CPT codes",
		),
		InputSchema: anthropic.ToolInputSchemaParam{
			Type: "object",
			Properties: map[string]interface{}{
				"subjective": map[string]interface{}{
					"type":        "string",
					"description": "Patient's symptoms, history, and complaints",
				},
				"objective": map[string]interface{}{
					"type":        "string",
					"description": "Physical exam findings, vital signs, test results",
				},
				"assessment": map[string]interface{}{
					"type":        "string",
					"description": "Diagnosis and medical evaluation",
				},
				"plan": map[string]interface{}{
					"type":        "string",
					"description": "Treatment plan, medications, follow-up",
				},
				"icd10_codes": map[string]interface{}{
					"type": "array",
					"items": map[string]interface{}{
						"type": "string",
					},
					"description": "Diagnosis codes, e.g. [\"K21.9\", \"R10.9\"]",
				},
				"cpt_codes": map[string]interface{}{
					"type": "array",
					"items": map[string]interface{}{
						"type": "string",
					},
					"description": "Procedure codes, e.g. [\"99213\"]",
				},
			},
			Required: []string{"subjective", "objective", "assessment", "plan", "icd10_codes", "cpt_codes"},
		},
	}
}

// parseNoteToolUse extracts NoteInput from response content blocks.
func parseNoteToolUse(content []anthropic.ContentBlockUnion) (*NoteInput, error) {
	for _, block := range content {
		if toolUse, ok := block.AsAny().(anthropic.ToolUseBlock); ok {
			var input NoteInput
			inputBytes, err := json.Marshal(toolUse.Input)
			if err != nil {
				return nil, fmt.Errorf("failed to marshal tool input: %w", err)
			}
			if err := json.Unmarshal(inputBytes, &input); err != nil {
				return nil, fmt.Errorf("failed to parse tool input: %w", err)
			}

			return &input, nil
		}
	}

	return nil, errors.New("no tool use found in Anthropic API response")
}

// Generate produces a SOAP note from an encounter transcription.
func (g *Generator) Generate(ctx context.Context, transcription, chiefComplaint string) (*Note, error) {
	if g.apiKey == "" {
		return nil, errors.New("API key required: set ANTHROPIC_API_KEY")
	}

	client := anthropic.NewClient(option.WithAPIKey(g.apiKey))
	toolDef := getNoteTool()

	tool := anthropic.ToolUnionParamOfTool(toolDef.InputSchema, toolDef.Name)
	tool.OfTool.Description = toolDef.Description

	prompt := fmt.Sprintf("Chief Complaint: %s\n\nTranscription:\n%s", chiefComplaint, transcription)

	params := anthropic.MessageNewParams{
		Model:     g.model,
		MaxTokens: 2048,
		System: []anthropic.TextBlockParam{
			{Text: systemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
		Tools:      []anthropic.ToolUnionParam{tool},
		ToolChoice: anthropic.ToolChoiceParamOfTool("save_soap_note"),
	}

	resp, err := client.Messages.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("failed to generate SOAP note via Anthropic API: %w", err)
	}

	if len(resp.Content) == 0 {
		return nil, errors.New("empty response from Anthropic API")
	}

	input, err := parseNoteToolUse(resp.Content)
	if err != nil {
		return nil, err
	}

	note := &Note{
		Subjective: input.Subjective,
		Objective:  input.Objective,
		Assessment: input.Assessment,
		Plan:       input.Plan,
		ICD10Codes: input.ICD10Codes,
		CPTCodes:   input.CPTCodes,
	}
	note.CompletenessScore = Completeness(note)

	return note, nil
}

// Completeness scores a note 0-100 by how many of its six sections carry
// content.
func Completeness(n *Note) float64 {
	filled := 0
	for _, section := range []string{n.Subjective, n.Objective, n.Assessment, n.Plan} {
		if section != "" {
			filled++
		}
	}
	if len(n.ICD10Codes) > 0 {
		filled++
	}
	if len(n.CPTCodes) > 0 {
		filled++
	}
	return float64(filled) / 6.0 * 100
}
