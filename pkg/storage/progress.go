package storage

// UploadStage names a phase of the upload state machine. Stages advance in
// order Preparing → Uploading → Confirming → Complete; failures terminate the
// sequence without a dedicated stage.
type UploadStage string

const (
	StagePreparing  UploadStage = "preparing"
	StageUploading  UploadStage = "uploading"
	StageConfirming UploadStage = "confirming"
	StageComplete   UploadStage = "complete"
)

// ProgressInfo is a transient snapshot delivered to upload progress
// callbacks. Progress is a percentage in [0,100] and never decreases across
// the callbacks of a single upload.
type ProgressInfo struct {
	Stage         UploadStage `json:"stage"`
	Progress      int         `json:"progress"`
	Message       string      `json:"message"`
	BytesUploaded int64       `json:"bytesUploaded,omitempty"`
	TotalBytes    int64       `json:"totalBytes,omitempty"`
}

// ProgressFunc receives progress snapshots synchronously on the uploading
// goroutine. Implementations must not block for long or they stall the upload.
type ProgressFunc func(ProgressInfo)

// progressEmitter delivers stage updates to an optional callback while
// enforcing monotonic progress: an update is dropped unless its percentage
// strictly exceeds the last one emitted. Stage-entry updates (preparing,
// confirming, complete) bypass the dedup so each stage is always announced.
type progressEmitter struct {
	fn   ProgressFunc
	last int
}

func newProgressEmitter(fn ProgressFunc) *progressEmitter {
	return &progressEmitter{fn: fn, last: -1}
}

// stage announces entry into a stage at the given percentage.
func (p *progressEmitter) stage(stage UploadStage, progress int, message string, uploaded, total int64) {
	if p.fn == nil {
		return
	}
	if progress > p.last {
		p.last = progress
	}
	p.fn(ProgressInfo{
		Stage:         stage,
		Progress:      p.last,
		Message:       message,
		BytesUploaded: uploaded,
		TotalBytes:    total,
	})
}

// tick reports byte-level upload progress, suppressing updates that do not
// strictly advance the percentage. This keeps callbacks from flooding when
// the SDK acknowledges many small chunks.
func (p *progressEmitter) tick(progress int, message string, uploaded, total int64) {
	if p.fn == nil || progress <= p.last {
		return
	}
	p.last = progress
	p.fn(ProgressInfo{
		Stage:         StageUploading,
		Progress:      progress,
		Message:       message,
		BytesUploaded: uploaded,
		TotalBytes:    total,
	})
}

// uploadPercent maps acknowledged bytes onto the 10–80 band reserved for the
// uploading stage: 10 + floor(uploaded/total * 70), capped at 80.
func uploadPercent(uploaded, total int64) int {
	if total <= 0 {
		return 10
	}
	pct := 10 + int(uploaded*70/total)
	if pct > 80 {
		pct = 80
	}
	return pct
}
