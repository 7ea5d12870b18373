package event

import "time"

// Type identifies the kind of event.
type Type int

const (
	ScanStarted Type = iota + 1
	ScanComplete
	DirCreated
	FileStarted
	FileCompleted
	FileFailed
	FileSkipped
	VerifyStarted
	VerifyOK
	VerifyFailed
)

var typeNames = [...]string{
	ScanStarted:   "ScanStarted",
	ScanComplete:  "ScanComplete",
	DirCreated:    "DirCreated",
	FileStarted:   "FileStarted",
	FileCompleted: "FileCompleted",
	FileFailed:    "FileFailed",
	FileSkipped:   "FileSkipped",
	VerifyStarted: "VerifyStarted",
	VerifyOK:      "VerifyOK",
	VerifyFailed:  "VerifyFailed",
}

func (t Type) String() string {
	if t > 0 && int(t) < len(typeNames) {
		return typeNames[t]
	}
	return "Unknown"
}

// Event represents a single notification from the engine.
type Event struct {
	Timestamp time.Time
	Error     error
	Path      string // bare entry name within the source directory
	Dst       string // destination path, when one was computed
	Reason    string // why an entry was skipped
	Size      int64  // file size in bytes
	Total     int64  // entries seen (ScanComplete)
	Type      Type
}
