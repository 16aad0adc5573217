package engine

import "github.com/google/uuid"

// Destination routes a notification to one of the game's spaces.
type Destination string

const (
	// DestPublic is the main game channel.
	DestPublic Destination = "public"
	// DestDeadSpec is the dead-and-spectator thread.
	DestDeadSpec Destination = "dead_spec"
	// DestElim is the eliminator faction discussion thread.
	DestElim Destination = "elim"
	// DestPrivate is a single participant's private GM thread; UserID
	// selects the participant.
	DestPrivate Destination = "private"
)

// Notification is a message the engine wants delivered. The engine
// never talks to the chat platform directly; callers collect
// notifications and route them.
type Notification struct {
	ID     uuid.UUID
	Dest   Destination
	UserID string
	Text   string
}

func note(dest Destination, text string) Notification {
	return Notification{ID: uuid.New(), Dest: dest, Text: text}
}

func privateNote(userID, text string) Notification {
	return Notification{ID: uuid.New(), Dest: DestPrivate, UserID: userID, Text: text}
}
