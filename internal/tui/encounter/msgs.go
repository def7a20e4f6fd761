package encounter

// captureDoneMsg signals the capture phase finished (file loaded or
// recording finalized).
type captureDoneMsg struct {
	err error
}

// transcribeDoneMsg signals a completed transcription attempt.
type transcribeDoneMsg struct {
	err error
}

// submitDoneMsg signals a completed submission attempt.
type submitDoneMsg struct {
	err error
}

// finishedMsg signals the entry is complete and the program should exit.
type finishedMsg struct{}
