package models

// GuestUserID is the namespace used when no authenticated identity is present.
const GuestUserID = "guest"

// UserData is everything persisted under a single user namespace.
type UserData struct {
	Pet           *PetRecord    `json:"pet,omitempty"`
	Messages      []ChatMessage `json:"messages,omitempty"`
	Memories      *Memories     `json:"memories,omitempty"`
	HubID         string        `json:"hub_id,omitempty"`
	HubRegistered bool          `json:"hub_registered,omitempty"`
}

// StorageVersion is the current persistence envelope version.
const StorageVersion = 2

// Storage is the V2 persistence envelope: one namespace per user identity.
type Storage struct {
	Version int                  `json:"version"`
	Users   map[string]*UserData `json:"users"`
}

func NewStorage() *Storage {
	return &Storage{
		Version: StorageVersion,
		Users:   make(map[string]*UserData),
	}
}

// StorageV1 is the pre-namespacing format: a single pet with its chat state
// at the top level. V1 files are migrated into the guest namespace on load.
type StorageV1 struct {
	Pet      *PetRecord    `json:"pet"`
	Messages []ChatMessage `json:"messages"`
	Memories *Memories     `json:"memories"`
}
