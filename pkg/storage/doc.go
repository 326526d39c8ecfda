// Package storage is the boundary between WitnessChain and its
// Filecoin-backed storage backend. It validates payloads and content
// identifiers on both sides of the backend call, translates heterogeneous
// backend failures into a small closed error taxonomy, and drives a
// multi-stage upload progress protocol.
//
// # Why a boundary
//
// The backend is consumed through the opaque Client/UploadContext
// interfaces. Everything it returns is treated as untrusted: identifiers are
// structurally validated before they are persisted or shown to users, and
// its error text is never surfaced to clients. The boundary is the only
// place where raw backend errors are logged.
//
// # Error taxonomy
//
// Every error leaving this package is a *StorageError carrying one of the
// closed set of ErrorCode values and a fixed, user-safe message. Opaque
// backend errors are classified by Translate, an ordered chain of
// substring rules; already-classified errors pass through unchanged.
// The JSON form of a StorageError is exactly
//
//	{"error": CODE, "code": CODE, "message": "user message"}
//
// which is the wire contract consumed by the HTTP error writer in
// internal/api. TechnicalMessage and Details stay server-side.
//
// # Uploading
//
//	svc := storage.NewService(storage.Options{
//		NewClient:   func() (storage.Client, error) { return storage.NewGatewayClient(apiURL, gatewayURL) },
//		MaxFileSize: 200 << 20,
//	})
//
//	res, err := svc.Upload(ctx, encrypted, storage.UploadRequest{
//		EvidenceID:  evidence.ID,
//		ContentHash: contentHash,
//		OnProgress: func(p storage.ProgressInfo) {
//			log.Printf("%s %d%%", p.Stage, p.Progress)
//		},
//	})
//
// Uploads move through preparing → uploading → confirming → complete.
// Progress percentages never decrease within one upload: the uploading band
// maps acknowledged bytes onto 10–80, and repeated percentages are
// suppressed so callbacks are not flooded by small acknowledgement ticks.
// Callbacks run synchronously on the uploading goroutine.
//
// The backend-reported identifier is normalized to canonical form
// (github.com/ipfs/go-cid) and then validated with pkg/cidutil before it is
// returned; a malformed identifier fails the upload with INVALID_CID.
//
// # Retrieval
//
//	data, err := svc.Retrieve(ctx, pieceCID)
//
// The identifier is validated before any network call, so malformed input
// fails fast with INVALID_CID and wastes no I/O. Retrieved bytes are
// returned exactly as received; content is opaque, already encrypted by the
// producer.
//
// # Status lookups
//
// Exists and StoredInfo are deliberately fail-soft: malformed identifiers,
// a missing client configuration, and backend failures all collapse into
// false / absent instead of an error. Callers that need to distinguish
// those cases must use Upload or Retrieve, which do fail loudly.
//
// # Client lifecycle
//
// The backend client is built lazily on first use and reused; construction
// races are serialized so exactly one client is ever created. Reset drops
// the cached client, which tests use to exercise reconstruction. A
// configured timeout becomes a context deadline handed to the backend; the
// boundary itself implements no deadline logic and only classifies
// timeout-shaped errors after the fact.
package storage
