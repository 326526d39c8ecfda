package storage

import (
	"context"

	"github.com/shopspring/decimal"
)

// ContextMetadata is caller-supplied correlation metadata attached to a
// storage context so later integrity checks can tie a piece back to the
// evidence record it belongs to.
type ContextMetadata struct {
	// EvidenceID is an opaque tracking identifier; the boundary does not
	// interpret it.
	EvidenceID string
	// ContentHash is the hex-encoded hash of the plaintext content, computed
	// by the producer before encryption.
	ContentHash string
}

// UploadOptions configures a single context upload.
type UploadOptions struct {
	Metadata ContextMetadata
	// OnProgress, when non-nil, receives the cumulative number of bytes the
	// backend has acknowledged.
	OnProgress func(bytesUploaded int64)
}

// UploadReceipt is what the external backend reports after an upload. All
// fields are untrusted until validated by the boundary; PieceCID in
// particular may be absent or malformed.
type UploadReceipt struct {
	PieceCID        string
	Size            int64
	ProviderAddress string
	DataSetID       string
}

// PieceStatus describes whether a piece is known to the backend and where it
// can be fetched.
type PieceStatus struct {
	Exists       bool
	RetrievalURL string
}

// Client is the opaque storage backend consumed by the boundary service.
// Production deployments bind this to the Synapse/Filecoin SDK; GatewayClient
// provides a Kubo/gateway-backed implementation for development.
type Client interface {
	// CreateContext acquires an upload context carrying the given metadata.
	CreateContext(ctx context.Context, meta ContextMetadata) (UploadContext, error)
	// Download fetches the raw bytes stored under cid.
	Download(ctx context.Context, cid string) ([]byte, error)
}

// UploadContext groups related uploads sharing configuration and metadata.
type UploadContext interface {
	Upload(ctx context.Context, data []byte, opts UploadOptions) (*UploadReceipt, error)
	PieceStatus(ctx context.Context, cid string) (*PieceStatus, error)
}

// UploadResult is returned to callers after a successful upload. PieceCID has
// passed structural validation; ProviderAddress and DataSetID are empty
// strings when the backend omits them, never absent pointers.
type UploadResult struct {
	PieceCID        string `json:"pieceCid"`
	DataSetID       string `json:"dataSetId"`
	ProviderAddress string `json:"providerAddress"`
	// FilPaid is the FIL amount paid for the upload. The wrapped backend does
	// not report payment amounts, so Valid is false ("unavailable") rather
	// than a misleading zero.
	FilPaid       decimal.NullDecimal `json:"filPaid"`
	UploadedBytes int64               `json:"uploadedBytes"`
}

// StoredFileInfo is the fail-soft status lookup result.
type StoredFileInfo struct {
	PieceCID     string `json:"pieceCid"`
	Exists       bool   `json:"exists"`
	RetrievalURL string `json:"retrievalUrl"`
}
