package storage

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ipfs/go-cid"
	"go.uber.org/zap"

	"github.com/witnesschain/witnesschain-go/pkg/cidutil"
)

// Options configures a Service. Either Client or NewClient must be set;
// NewClient defers backend construction to first use so misconfiguration
// surfaces as CLIENT_NOT_CONFIGURED on the first operation instead of at
// startup.
type Options struct {
	// Client is an already-constructed backend. Takes precedence over NewClient.
	Client Client
	// NewClient builds the backend lazily, at most once.
	NewClient func() (Client, error)
	// MaxFileSize caps upload payloads in bytes. Zero disables the cap.
	MaxFileSize int64
	// UploadTimeout and RetrieveTimeout become context deadlines handed to
	// the backend. The service itself implements no deadline logic; it only
	// classifies timeout-shaped errors after the fact.
	UploadTimeout   time.Duration
	RetrieveTimeout time.Duration
}

// UploadRequest carries per-upload correlation metadata and an optional
// progress callback.
type UploadRequest struct {
	EvidenceID  string
	ContentHash string
	OnProgress  ProgressFunc
}

// Service is the storage boundary: it validates payloads and content
// identifiers on both sides of the external backend, translates backend
// failures into the closed error taxonomy, and drives the upload progress
// protocol. It is safe for concurrent use; the only shared mutable state is
// the lazily-built client handle, guarded so exactly one backend is
// constructed.
type Service struct {
	opts Options

	mu     sync.Mutex
	client Client
}

// NewService returns a Service using the given options.
func NewService(opts Options) *Service {
	return &Service{opts: opts, client: opts.Client}
}

// Reset drops the cached backend so the next operation rebuilds it. Intended
// for tests.
func (s *Service) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.client = s.opts.Client
}

// getClient returns the backend, constructing it on first use. Construction
// races are serialized by the mutex so only one client is ever built.
func (s *Service) getClient() (Client, *StorageError) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.client != nil {
		return s.client, nil
	}
	if s.opts.NewClient == nil {
		return nil, NewError(CodeClientNotConfigured, "no storage client configured")
	}
	c, err := s.opts.NewClient()
	if err != nil {
		return nil, NewError(CodeClientNotConfigured, err.Error())
	}
	s.client = c
	return c, nil
}

func opContext(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	if timeout > 0 {
		return context.WithTimeout(ctx, timeout)
	}
	return ctx, func() {}
}

// Upload stores data through the external backend and returns the validated
// upload result. The payload is treated as opaque, already-encrypted bytes.
//
// Progress is reported through req.OnProgress in stage order preparing →
// uploading → confirming → complete, with the uploading band mapped onto
// 10–80 percent proportionally to acknowledged bytes. Every failure is
// returned as a *StorageError; raw backend error text never reaches callers.
func (s *Service) Upload(ctx context.Context, data []byte, req UploadRequest) (*UploadResult, error) {
	total := int64(len(data))
	if total == 0 {
		return nil, NewError(CodeEmptyFile, "upload called with empty payload")
	}
	if s.opts.MaxFileSize > 0 && total > s.opts.MaxFileSize {
		return nil, NewErrorWithDetails(CodeFileTooLarge,
			fmt.Sprintf("payload of %d bytes exceeds limit of %d", total, s.opts.MaxFileSize),
			map[string]any{"actualSize": total, "maxSize": s.opts.MaxFileSize})
	}

	emitter := newProgressEmitter(req.OnProgress)
	emitter.stage(StagePreparing, 0, "Preparing upload", 0, total)

	client, serr := s.getClient()
	if serr != nil {
		return nil, serr
	}

	ctx, cancel := opContext(ctx, s.opts.UploadTimeout)
	defer cancel()

	meta := ContextMetadata{EvidenceID: req.EvidenceID, ContentHash: req.ContentHash}
	uploadCtx, err := client.CreateContext(ctx, meta)
	if err != nil {
		return nil, Translate(err)
	}

	receipt, err := uploadCtx.Upload(ctx, data, UploadOptions{
		Metadata: meta,
		OnProgress: func(uploaded int64) {
			emitter.tick(uploadPercent(uploaded, total), "Uploading to Filecoin", uploaded, total)
		},
	})
	if err != nil {
		return nil, Translate(err)
	}
	if receipt == nil || strings.TrimSpace(receipt.PieceCID) == "" {
		return nil, NewError(CodeMissingCID, "backend returned no piece CID")
	}

	pieceCID := canonicalCID(receipt.PieceCID)
	if res := cidutil.Validate(pieceCID); !res.Valid {
		return nil, NewErrorWithDetails(CodeInvalidCID,
			"backend returned malformed piece CID: "+res.Reason,
			map[string]any{"candidate": cidutil.SanitizeForLog(pieceCID)})
	}

	emitter.stage(StageConfirming, 80, "Confirming storage", total, total)
	emitter.stage(StageComplete, 100, "Upload complete", total, total)

	zap.L().Debug("upload complete",
		zap.String("pieceCid", cidutil.SanitizeForLog(pieceCID)),
		zap.Int64("bytes", receipt.Size))

	return &UploadResult{
		PieceCID:        pieceCID,
		DataSetID:       receipt.DataSetID,
		ProviderAddress: normalizeProvider(receipt.ProviderAddress),
		UploadedBytes:   receipt.Size,
	}, nil
}

// Retrieve fetches the raw bytes stored under pieceCID. The identifier is
// validated before any network call; malformed input fails fast with
// INVALID_CID. The returned bytes are exactly what the backend delivered; the
// boundary treats content as opaque and already encrypted by the producer.
func (s *Service) Retrieve(ctx context.Context, pieceCID string) ([]byte, error) {
	trimmed, err := cidutil.RequireValid(pieceCID)
	if err != nil {
		return nil, NewErrorWithDetails(CodeInvalidCID, err.Error(),
			map[string]any{"candidate": cidutil.SanitizeForLog(pieceCID)})
	}

	client, serr := s.getClient()
	if serr != nil {
		return nil, serr
	}

	ctx, cancel := opContext(ctx, s.opts.RetrieveTimeout)
	defer cancel()

	data, err := client.Download(ctx, trimmed)
	if err != nil {
		return nil, Translate(err)
	}
	if len(data) == 0 {
		return nil, NewError(CodeNotFound, "backend returned empty content for "+cidutil.SanitizeForLog(trimmed))
	}
	return data, nil
}

// Exists reports whether a piece is known to the backend. It never returns an
// error: malformed identifiers and backend failures alike collapse to false.
// Callers cannot distinguish "not configured" from "not found" here; that is
// documented policy, not an oversight.
func (s *Service) Exists(ctx context.Context, pieceCID string) bool {
	info, ok := s.StoredInfo(ctx, pieceCID)
	return ok && info.Exists
}

// StoredInfo looks up piece status with the same fail-soft policy as Exists:
// any failure yields (nil, false) rather than an error.
func (s *Service) StoredInfo(ctx context.Context, pieceCID string) (*StoredFileInfo, bool) {
	trimmed, err := cidutil.RequireValid(pieceCID)
	if err != nil {
		return nil, false
	}

	client, serr := s.getClient()
	if serr != nil {
		zap.L().Debug("status lookup skipped", zap.String("reason", serr.TechnicalMessage))
		return nil, false
	}

	ctx, cancel := opContext(ctx, s.opts.RetrieveTimeout)
	defer cancel()

	uploadCtx, err := client.CreateContext(ctx, ContextMetadata{})
	if err != nil {
		zap.L().Debug("status lookup failed", zap.Error(err))
		return nil, false
	}
	status, err := uploadCtx.PieceStatus(ctx, trimmed)
	if err != nil || status == nil {
		zap.L().Debug("status lookup failed", zap.Error(err))
		return nil, false
	}
	return &StoredFileInfo{
		PieceCID:     trimmed,
		Exists:       status.Exists,
		RetrievalURL: status.RetrievalURL,
	}, true
}

// canonicalCID normalizes a backend-reported identifier to its canonical
// string form when it parses as a CID. Unparseable candidates are returned
// trimmed so the structural validator can reject them with a precise reason.
func canonicalCID(candidate string) string {
	trimmed := strings.TrimSpace(candidate)
	if c, err := cid.Parse(trimmed); err == nil {
		return c.String()
	}
	return trimmed
}

// normalizeProvider returns the EIP-55 checksum form of a Filecoin-EVM
// provider address, the input unchanged when it is not a hex address, and ""
// when the backend omitted it.
func normalizeProvider(addr string) string {
	trimmed := strings.TrimSpace(addr)
	if trimmed == "" {
		return ""
	}
	if common.IsHexAddress(trimmed) {
		return common.HexToAddress(trimmed).Hex()
	}
	return trimmed
}
