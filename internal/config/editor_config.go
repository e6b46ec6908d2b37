package config

import "time"

type EditorConfig interface {
	GetAutoSaveDelay() time.Duration
	GetFreeNoteLimit() int
}

type Editor struct{}

var _ EditorConfig = Editor{}

func (Editor) GetAutoSaveDelay() time.Duration {
	return GetDurationEnv("NOTES_AUTOSAVE_DELAY", 2*time.Second)
}

func (Editor) GetFreeNoteLimit() int {
	limit := GetIntEnv("NOTES_FREE_NOTE_LIMIT", 3)
	if limit < 0 {
		return 3
	}
	return limit
}
