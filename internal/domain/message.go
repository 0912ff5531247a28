package domain

import "time"

// DirectMessage es un mensaje privado entre dos usuarios.
type DirectMessage struct {
	ID          string     `json:"id"`
	SenderID    string     `json:"sender_id"`
	RecipientID string     `json:"recipient_id"`
	Body        string     `json:"body"`
	ReadAt      *time.Time `json:"read_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// Conversation resume el ultimo intercambio con otro usuario.
type Conversation struct {
	PeerID   string    `json:"peer_id"`
	PeerName string    `json:"peer_name"`
	LastBody string    `json:"last_body"`
	LastAt   time.Time `json:"last_at"`
	Unread   int       `json:"unread"`
}
