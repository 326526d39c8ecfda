package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
)

const (
	testCIDv0 = "QmYwAPJzv5CZsnA625s3Xf2nemtYgPpHdWEz79ojWnPbdG"
	badCID    = "Qm0000Jzv5CZsnA625s3Xf2nemtYgPpHdWEz79ojWnPbdG"
)

// fakeClient wires function hooks into the Client/UploadContext interfaces.
type fakeClient struct {
	createContext func(ctx context.Context, meta ContextMetadata) (UploadContext, error)
	download      func(ctx context.Context, cid string) ([]byte, error)
}

func (f *fakeClient) CreateContext(ctx context.Context, meta ContextMetadata) (UploadContext, error) {
	if f.createContext == nil {
		return nil, errors.New("createContext not stubbed")
	}
	return f.createContext(ctx, meta)
}

func (f *fakeClient) Download(ctx context.Context, cid string) ([]byte, error) {
	if f.download == nil {
		return nil, errors.New("download not stubbed")
	}
	return f.download(ctx, cid)
}

type fakeContext struct {
	upload      func(ctx context.Context, data []byte, opts UploadOptions) (*UploadReceipt, error)
	pieceStatus func(ctx context.Context, cid string) (*PieceStatus, error)
}

func (f *fakeContext) Upload(ctx context.Context, data []byte, opts UploadOptions) (*UploadReceipt, error) {
	return f.upload(ctx, data, opts)
}

func (f *fakeContext) PieceStatus(ctx context.Context, cid string) (*PieceStatus, error) {
	if f.pieceStatus == nil {
		return nil, errors.New("pieceStatus not stubbed")
	}
	return f.pieceStatus(ctx, cid)
}

func uploadService(receipt *UploadReceipt, uploadErr error) *Service {
	return NewService(Options{
		Client: &fakeClient{
			createContext: func(context.Context, ContextMetadata) (UploadContext, error) {
				return &fakeContext{
					upload: func(ctx context.Context, data []byte, opts UploadOptions) (*UploadReceipt, error) {
						if opts.OnProgress != nil {
							opts.OnProgress(int64(len(data)))
						}
						return receipt, uploadErr
					},
				}, nil
			},
		},
	})
}

func storageCode(t *testing.T, err error) ErrorCode {
	t.Helper()
	var se *StorageError
	if !errors.As(err, &se) {
		t.Fatalf("error %v is not a *StorageError", err)
	}
	return se.Code
}

func TestUploadHappyPath(t *testing.T) {
	svc := uploadService(&UploadReceipt{
		PieceCID:        testCIDv0,
		Size:            1024,
		ProviderAddress: "0x52908400098527886e0f7030069857d2e4169ee7",
		DataSetID:       "ds-7",
	}, nil)

	res, err := svc.Upload(context.Background(), make([]byte, 1024), UploadRequest{
		EvidenceID:  "ev-1",
		ContentHash: "deadbeef",
	})
	if err != nil {
		t.Fatalf("Upload returned error: %v", err)
	}
	if res.PieceCID != testCIDv0 {
		t.Fatalf("PieceCID = %q, want %q", res.PieceCID, testCIDv0)
	}
	if res.UploadedBytes != 1024 {
		t.Fatalf("UploadedBytes = %d, want 1024", res.UploadedBytes)
	}
	if res.DataSetID != "ds-7" {
		t.Fatalf("DataSetID = %q", res.DataSetID)
	}
	// EIP-55 checksum form.
	if res.ProviderAddress != "0x52908400098527886E0F7030069857D2E4169EE7" {
		t.Fatalf("ProviderAddress = %q", res.ProviderAddress)
	}
	if res.FilPaid.Valid {
		t.Fatal("FilPaid should be unavailable, not a concrete amount")
	}
}

func TestUploadEmptyPayloadSkipsBackend(t *testing.T) {
	svc := NewService(Options{
		NewClient: func() (Client, error) {
			t.Fatal("client must not be constructed for an empty payload")
			return nil, nil
		},
	})
	_, err := svc.Upload(context.Background(), nil, UploadRequest{})
	if code := storageCode(t, err); code != CodeEmptyFile {
		t.Fatalf("code = %s, want EMPTY_FILE", code)
	}
}

func TestUploadTooLarge(t *testing.T) {
	svc := NewService(Options{MaxFileSize: 8})
	_, err := svc.Upload(context.Background(), make([]byte, 9), UploadRequest{})
	var se *StorageError
	if !errors.As(err, &se) || se.Code != CodeFileTooLarge {
		t.Fatalf("err = %v, want FILE_TOO_LARGE", err)
	}
	if se.Details["actualSize"] != int64(9) || se.Details["maxSize"] != int64(8) {
		t.Fatalf("details = %+v", se.Details)
	}
}

func TestUploadInvalidReturnedCID(t *testing.T) {
	svc := uploadService(&UploadReceipt{PieceCID: badCID, Size: 10}, nil)
	_, err := svc.Upload(context.Background(), []byte("payload"), UploadRequest{})
	if code := storageCode(t, err); code != CodeInvalidCID {
		t.Fatalf("code = %s, want INVALID_CID", code)
	}
}

func TestUploadMissingCID(t *testing.T) {
	svc := uploadService(&UploadReceipt{PieceCID: "  "}, nil)
	_, err := svc.Upload(context.Background(), []byte("payload"), UploadRequest{})
	if code := storageCode(t, err); code != CodeMissingCID {
		t.Fatalf("code = %s, want MISSING_CID", code)
	}
}

func TestUploadTranslatesBackendError(t *testing.T) {
	svc := uploadService(nil, errors.New("insufficient funds for gas"))
	_, err := svc.Upload(context.Background(), []byte("payload"), UploadRequest{})
	if code := storageCode(t, err); code != CodeInsufficientFunds {
		t.Fatalf("code = %s, want INSUFFICIENT_FUNDS", code)
	}
}

func TestUploadPassesThroughStorageError(t *testing.T) {
	original := NewError(CodeDealFailed, "deal rejected")
	svc := uploadService(nil, original)
	_, err := svc.Upload(context.Background(), []byte("payload"), UploadRequest{})
	var se *StorageError
	if !errors.As(err, &se) || se != original {
		t.Fatalf("StorageError was not re-raised unchanged: %v", err)
	}
}

func TestUploadProgressSequence(t *testing.T) {
	svc := NewService(Options{
		Client: &fakeClient{
			createContext: func(context.Context, ContextMetadata) (UploadContext, error) {
				return &fakeContext{
					upload: func(ctx context.Context, data []byte, opts UploadOptions) (*UploadReceipt, error) {
						total := int64(len(data))
						// Many small ticks, including repeats that must be deduplicated.
						for _, b := range []int64{1, 1, 2, total / 2, total / 2, total} {
							opts.OnProgress(b)
						}
						return &UploadReceipt{PieceCID: testCIDv0, Size: total}, nil
					},
				}, nil
			},
		},
	})

	var updates []ProgressInfo
	_, err := svc.Upload(context.Background(), make([]byte, 1000), UploadRequest{
		OnProgress: func(p ProgressInfo) { updates = append(updates, p) },
	})
	if err != nil {
		t.Fatalf("Upload returned error: %v", err)
	}

	if len(updates) < 4 {
		t.Fatalf("got %d updates, want at least preparing/uploading/confirming/complete", len(updates))
	}
	if updates[0].Stage != StagePreparing || updates[0].Progress != 0 {
		t.Fatalf("first update = %+v", updates[0])
	}
	last := updates[len(updates)-1]
	if last.Stage != StageComplete || last.Progress != 100 {
		t.Fatalf("last update = %+v", last)
	}
	for i := 1; i < len(updates); i++ {
		if updates[i].Progress < updates[i-1].Progress {
			t.Fatalf("progress regressed at %d: %+v -> %+v", i, updates[i-1], updates[i])
		}
		if updates[i].Stage == StageUploading && updates[i-1].Stage == StageUploading &&
			updates[i].Progress == updates[i-1].Progress {
			t.Fatalf("duplicate uploading progress %d emitted", updates[i].Progress)
		}
	}
	// The uploading band is capped at 80 before confirming takes over.
	for _, u := range updates {
		if u.Stage == StageUploading && (u.Progress < 10 || u.Progress > 80) {
			t.Fatalf("uploading progress %d outside 10..80", u.Progress)
		}
	}
}

func TestRetrieveValidatesBeforeBackend(t *testing.T) {
	svc := NewService(Options{
		NewClient: func() (Client, error) {
			t.Fatal("client must not be constructed for an invalid CID")
			return nil, nil
		},
	})
	_, err := svc.Retrieve(context.Background(), "not-a-cid")
	if code := storageCode(t, err); code != CodeInvalidCID {
		t.Fatalf("code = %s, want INVALID_CID", code)
	}
}

func TestRetrieveReturnsBytesUntouched(t *testing.T) {
	payload := []byte{0x00, 0x1f, 0x8b, 0xff, 0x42}
	svc := NewService(Options{
		Client: &fakeClient{
			download: func(ctx context.Context, cid string) ([]byte, error) {
				if cid != testCIDv0 {
					t.Fatalf("backend received cid %q", cid)
				}
				return payload, nil
			},
		},
	})
	got, err := svc.Retrieve(context.Background(), "  "+testCIDv0+" ")
	if err != nil {
		t.Fatalf("Retrieve returned error: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Fatalf("content transformed: %x", got)
	}
}

func TestRetrieveEmptyContentIsNotFound(t *testing.T) {
	svc := NewService(Options{
		Client: &fakeClient{
			download: func(context.Context, string) ([]byte, error) { return nil, nil },
		},
	})
	_, err := svc.Retrieve(context.Background(), testCIDv0)
	if code := storageCode(t, err); code != CodeNotFound {
		t.Fatalf("code = %s, want NOT_FOUND", code)
	}
}

func TestExistsFailSoft(t *testing.T) {
	// Invalid CID: false, no panic, no backend.
	svc := NewService(Options{})
	if svc.Exists(context.Background(), "not-a-cid") {
		t.Fatal("Exists returned true for malformed CID")
	}

	// Missing client configuration also collapses to false.
	svc = NewService(Options{NewClient: func() (Client, error) {
		return nil, errors.New("missing credentials")
	}})
	if svc.Exists(context.Background(), testCIDv0) {
		t.Fatal("Exists returned true despite configuration failure")
	}

	// Backend errors collapse to false too.
	svc = NewService(Options{
		Client: &fakeClient{
			createContext: func(context.Context, ContextMetadata) (UploadContext, error) {
				return &fakeContext{
					pieceStatus: func(context.Context, string) (*PieceStatus, error) {
						return nil, errors.New("gateway exploded")
					},
				}, nil
			},
		},
	})
	if svc.Exists(context.Background(), testCIDv0) {
		t.Fatal("Exists returned true despite backend failure")
	}
}

func TestStoredInfo(t *testing.T) {
	svc := NewService(Options{
		Client: &fakeClient{
			createContext: func(context.Context, ContextMetadata) (UploadContext, error) {
				return &fakeContext{
					pieceStatus: func(ctx context.Context, cid string) (*PieceStatus, error) {
						return &PieceStatus{Exists: true, RetrievalURL: "https://gw/piece/" + cid}, nil
					},
				}, nil
			},
		},
	})
	info, ok := svc.StoredInfo(context.Background(), testCIDv0)
	if !ok {
		t.Fatal("StoredInfo returned absent for healthy backend")
	}
	if !info.Exists || info.PieceCID != testCIDv0 || info.RetrievalURL == "" {
		t.Fatalf("info = %+v", info)
	}

	if _, ok := svc.StoredInfo(context.Background(), "nope"); ok {
		t.Fatal("StoredInfo returned a value for malformed CID")
	}
}

func TestLazyClientBuiltOnce(t *testing.T) {
	var mu sync.Mutex
	built := 0
	svc := NewService(Options{
		NewClient: func() (Client, error) {
			mu.Lock()
			built++
			mu.Unlock()
			return &fakeClient{
				download: func(context.Context, string) ([]byte, error) {
					return []byte("x"), nil
				},
			}, nil
		},
	})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.Retrieve(context.Background(), testCIDv0); err != nil {
				t.Errorf("Retrieve: %v", err)
			}
		}()
	}
	wg.Wait()

	if built != 1 {
		t.Fatalf("client built %d times, want 1", built)
	}

	// Reset forces a rebuild on next use.
	svc.Reset()
	if _, err := svc.Retrieve(context.Background(), testCIDv0); err != nil {
		t.Fatalf("Retrieve after Reset: %v", err)
	}
	if built != 2 {
		t.Fatalf("client built %d times after reset, want 2", built)
	}
}

func TestClientNotConfigured(t *testing.T) {
	svc := NewService(Options{})
	_, err := svc.Retrieve(context.Background(), testCIDv0)
	if code := storageCode(t, err); code != CodeClientNotConfigured {
		t.Fatalf("code = %s, want CLIENT_NOT_CONFIGURED", code)
	}
}

func TestUploadContextCreationErrorTranslated(t *testing.T) {
	svc := NewService(Options{
		Client: &fakeClient{
			createContext: func(context.Context, ContextMetadata) (UploadContext, error) {
				return nil, fmt.Errorf("connection refused by provider gateway")
			},
		},
	})
	_, err := svc.Upload(context.Background(), []byte("payload"), UploadRequest{})
	if code := storageCode(t, err); code != CodeNetworkError {
		t.Fatalf("code = %s, want NETWORK_ERROR", code)
	}
}
