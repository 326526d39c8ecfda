// Package model defines the persistent records of the WitnessChain backend:
// users, evidence entries, verification attempts, and access log lines.
// These structs carry both gorm tags (Postgres persistence) and json tags
// (REST responses); the encrypted file content itself never touches the
// database — only its piece CID and content hash do.
package model

import (
	"time"

	"github.com/google/uuid"
)

// EvidenceStatus tracks an evidence entry through its storage lifecycle.
type EvidenceStatus string

const (
	// EvidencePending is set when the record exists but the upload has not
	// completed.
	EvidencePending EvidenceStatus = "pending"
	// EvidenceStored means the encrypted payload is stored and its piece CID
	// validated.
	EvidenceStored EvidenceStatus = "stored"
	// EvidenceVerified means at least one verification succeeded.
	EvidenceVerified EvidenceStatus = "verified"
	// EvidenceFailed means the upload or a later integrity check failed.
	EvidenceFailed EvidenceStatus = "failed"
)

// User is an account keyed by wallet address. Signature verification happens
// upstream; by the time a request reaches the API the address is trusted.
type User struct {
	ID            uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	WalletAddress string    `json:"walletAddress" gorm:"uniqueIndex;not null"`
	CreatedAt     time.Time `json:"createdAt"`
}

// Evidence is one uploaded piece of evidence. ContentHash is the hash of the
// plaintext computed client-side before encryption; PieceCID addresses the
// encrypted payload on Filecoin.
type Evidence struct {
	ID          uuid.UUID      `json:"id" gorm:"type:uuid;primaryKey"`
	UserID      uuid.UUID      `json:"userId" gorm:"type:uuid;index;not null"`
	Title       string         `json:"title" gorm:"not null"`
	Description string         `json:"description"`
	PieceCID    string         `json:"pieceCid" gorm:"column:piece_cid;index"`
	ContentHash string         `json:"contentHash" gorm:"not null"`
	FileSize    int64          `json:"fileSize"`
	MimeType    string         `json:"mimeType"`
	Status      EvidenceStatus `json:"status" gorm:"default:pending"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
}

// Verification records one verification attempt against an evidence entry.
// On-chain anchoring is not implemented; Notes holds whatever the verifier
// reported.
type Verification struct {
	ID         uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	EvidenceID uuid.UUID `json:"evidenceId" gorm:"type:uuid;index;not null"`
	Verified   bool      `json:"verified"`
	Notes      string    `json:"notes"`
	CreatedAt  time.Time `json:"createdAt"`
}

// AccessLog is an append-only audit line for evidence access.
type AccessLog struct {
	ID           uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	EvidenceID   uuid.UUID `json:"evidenceId" gorm:"type:uuid;index;not null"`
	ActorAddress string    `json:"actorAddress"`
	Action       string    `json:"action"`
	CreatedAt    time.Time `json:"createdAt"`
}
