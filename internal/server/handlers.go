package server

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/clinicore/scribe/internal/medical"
	"github.com/clinicore/scribe/internal/store/sqlite"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// supportedContentTypes is the declared media type allow-list for uploads.
// Uploads without a declared type fall back to the filename extension.
var supportedContentTypes = map[string]bool{
	"audio/mpeg":  true,
	"audio/mp3":   true,
	"audio/wav":   true,
	"audio/x-wav": true,
	"audio/webm":  true,
	"audio/ogg":   true,
	"audio/x-m4a": true,
	"audio/mp4":   true,
	"audio/flac":  true,
}

var supportedExtensions = map[string]bool{
	".mp3": true, ".wav": true, ".webm": true, ".ogg": true, ".m4a": true, ".flac": true,
}

func errorJSON(c *gin.Context, status int, format string, args ...any) {
	c.JSON(status, gin.H{"detail": fmt.Sprintf(format, args...)})
}

// handleTranscribe accepts a single-part audio upload (form field "file")
// and returns the transcript.
func (s *Server) handleTranscribe(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		errorJSON(c, http.StatusBadRequest, "No audio file provided")
		return
	}

	if fileHeader.Size > s.config.MaxUploadBytes {
		errorJSON(c, http.StatusRequestEntityTooLarge, "Audio file too large (max %d bytes)", s.config.MaxUploadBytes)
		return
	}

	contentType := fileHeader.Header.Get("Content-Type")
	if contentType != "" && !supportedContentTypes[strings.ToLower(contentType)] {
		errorJSON(c, http.StatusBadRequest, "Unsupported audio format: %s", contentType)
		return
	}
	if contentType == "" {
		name := strings.ToLower(fileHeader.Filename)
		dot := strings.LastIndex(name, ".")
		if dot < 0 || !supportedExtensions[name[dot:]] {
			errorJSON(c, http.StatusBadRequest, "Unsupported audio format: %s", fileHeader.Filename)
			return
		}
	}

	file, err := fileHeader.Open()
	if err != nil {
		errorJSON(c, http.StatusBadRequest, "Failed to read uploaded file")
		return
	}
	defer file.Close()

	transcript, err := s.transcriber.TranscribeFile(c.Request.Context(), file)
	if err != nil {
		s.logger.Error("Transcription failed", "error", err, "file", fileHeader.Filename)
		errorJSON(c, http.StatusBadGateway, "Transcription failed: %s", err)
		return
	}

	// Rough duration estimate from payload size (S16LE mono @ 16kHz).
	durationSeconds := int(fileHeader.Size / 32_000)

	s.logger.Info("Transcription complete",
		"file", fileHeader.Filename,
		"bytes", fileHeader.Size,
		"transcript_chars", len(transcript),
	)

	c.JSON(http.StatusOK, gin.H{
		"transcript":       transcript,
		"duration_seconds": durationSeconds,
	})
}

// handleCreateEncounter persists a new encounter, generating its SOAP note
// first when requested. Encounter and note are saved in one transaction:
// a generation or storage failure persists nothing.
func (s *Server) handleCreateEncounter(c *gin.Context) {
	var draft medical.EncounterDraft
	if err := c.ShouldBindJSON(&draft); err != nil {
		errorJSON(c, http.StatusBadRequest, "Invalid request body: %s", err)
		return
	}

	if err := draft.Validate(); err != nil {
		errorJSON(c, http.StatusUnprocessableEntity, "%s", err)
		return
	}

	now := time.Now().UTC()
	enc := &medical.Encounter{
		ID:                   newID("enc"),
		PhysicianID:          draft.PhysicianID,
		PatientIDHash:        draft.PatientIDHash,
		ChiefComplaint:       strings.TrimSpace(draft.ChiefComplaint),
		EncounterType:        draft.EncounterType,
		EncounterDate:        now,
		Transcription:        draft.Transcription,
		AudioDurationSeconds: draft.AudioDurationSeconds,
		CreatedAt:            now,
		UpdatedAt:            now,
	}

	if draft.GenerateSOAP {
		if strings.TrimSpace(draft.Transcription) == "" {
			errorJSON(c, http.StatusUnprocessableEntity, "SOAP generation requires a transcription")
			return
		}

		note, err := s.generator.Generate(c.Request.Context(), draft.Transcription, enc.ChiefComplaint)
		if err != nil {
			s.logger.Error("SOAP generation failed", "error", err, "encounter_id", enc.ID)
			errorJSON(c, http.StatusBadGateway, "SOAP generation failed: %s", err)
			return
		}

		icd10, err := medical.EncodeCodes(note.ICD10Codes)
		if err != nil {
			errorJSON(c, http.StatusInternalServerError, "%s", err)
			return
		}
		cpt, err := medical.EncodeCodes(note.CPTCodes)
		if err != nil {
			errorJSON(c, http.StatusInternalServerError, "%s", err)
			return
		}

		enc.SOAPNote = &medical.SOAPNote{
			ID:                newID("soap"),
			EncounterID:       enc.ID,
			Subjective:        note.Subjective,
			Objective:         note.Objective,
			Assessment:        note.Assessment,
			Plan:              note.Plan,
			ICD10Codes:        icd10,
			CPTCodes:          cpt,
			GeneratedBy:       s.generator.ModelName(),
			CompletenessScore: note.CompletenessScore,
			CreatedAt:         now,
			UpdatedAt:         now,
		}
	}

	if err := s.store.SaveEncounter(c.Request.Context(), enc); err != nil {
		s.logger.Error("Failed to save encounter", "error", err, "encounter_id", enc.ID)
		errorJSON(c, http.StatusInternalServerError, "Failed to save encounter")
		return
	}

	s.logger.Info("Encounter saved",
		"encounter_id", enc.ID,
		"physician_id", enc.PhysicianID,
		"has_soap_note", enc.SOAPNote != nil,
	)

	c.JSON(http.StatusCreated, enc)
}

// handleListEncounters returns all stored encounters, newest first.
func (s *Server) handleListEncounters(c *gin.Context) {
	encounters, err := s.store.ListEncounters(c.Request.Context())
	if err != nil {
		s.logger.Error("Failed to list encounters", "error", err)
		errorJSON(c, http.StatusInternalServerError, "Failed to list encounters")
		return
	}

	c.JSON(http.StatusOK, gin.H{"encounters": encounters})
}

// handleGetEncounter returns one encounter with its nested SOAP note.
func (s *Server) handleGetEncounter(c *gin.Context) {
	id := c.Param("id")

	enc, err := s.store.GetEncounter(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, sqlite.ErrNotFound) {
			errorJSON(c, http.StatusNotFound, "Encounter not found")
			return
		}
		s.logger.Error("Failed to get encounter", "error", err, "encounter_id", id)
		errorJSON(c, http.StatusInternalServerError, "Failed to get encounter")
		return
	}

	c.JSON(http.StatusOK, enc)
}

// newID builds a prefixed short id, e.g. enc_1a2b3c4d5e6f.
func newID(prefix string) string {
	return prefix + "_" + strings.ReplaceAll(uuid.New().String(), "-", "")[:12]
}
