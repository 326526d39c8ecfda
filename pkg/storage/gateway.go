package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ipfs/go-cid"
	"github.com/ipfs/kubo/client/rpc"
	"go.uber.org/zap"
)

// GatewayClient is a development implementation of Client backed by a Kubo
// HTTP API node (uploads, downloads) and a public HTTP gateway (piece status,
// retrieval URLs). Production deployments bind Client to the real
// Synapse/Filecoin SDK instead; this client exists so the boundary can run
// end to end against a local IPFS node.
type GatewayClient struct {
	api        *rpc.HttpApi
	gatewayURL string
	httpClient *http.Client
}

// NewGatewayClient connects to the Kubo HTTP API at apiURL and uses
// gatewayURL (e.g. "https://gateway.lighthouse.storage/ipfs/") for status
// checks. The CID is concatenated directly to gatewayURL, so include the
// trailing slash when the gateway requires one.
func NewGatewayClient(apiURL, gatewayURL string) (*GatewayClient, error) {
	httpClient := &http.Client{Timeout: 30 * time.Second}
	api, err := rpc.NewURLApiWithClient(apiURL, httpClient)
	if err != nil {
		return nil, fmt.Errorf("connecting to IPFS API at %s: %w", apiURL, err)
	}
	return &GatewayClient{
		api:        api,
		gatewayURL: gatewayURL,
		httpClient: httpClient,
	}, nil
}

// CreateContext returns an upload context carrying meta. The gateway backend
// has no server-side context object, so the handle only scopes metadata.
func (g *GatewayClient) CreateContext(_ context.Context, meta ContextMetadata) (UploadContext, error) {
	if g.api == nil {
		return nil, fmt.Errorf("ipfs client not configured")
	}
	return &gatewayContext{client: g, meta: meta}, nil
}

// Download fetches content by CID via the Kubo `cat` command.
func (g *GatewayClient) Download(ctx context.Context, id string) (content []byte, err error) {
	if g.api == nil {
		return nil, fmt.Errorf("ipfs client not configured")
	}

	parsed, err := cid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid cid %q: %w", id, err)
	}

	resp, err := g.api.Request("cat", parsed.String()).Send(ctx)
	if err != nil {
		return nil, err
	}
	defer func(resp *rpc.Response) {
		if cerr := resp.Close(); cerr != nil {
			zap.L().Error("failed to close cat response", zap.Error(cerr))
		}
	}(resp)
	if resp.Error != nil {
		return nil, resp.Error
	}
	return io.ReadAll(resp.Output)
}

type gatewayContext struct {
	client *GatewayClient
	meta   ContextMetadata
}

// Upload adds data to the node via the Kubo `add` command. The HTTP API does
// not stream byte acknowledgements, so progress is reported once, after the
// add completes, with the full payload size.
func (c *gatewayContext) Upload(ctx context.Context, data []byte, opts UploadOptions) (*UploadReceipt, error) {
	req := c.client.api.Request("add")
	req.Body(bytes.NewReader(data))

	resp, err := req.Send(ctx)
	if err != nil {
		return nil, err
	}
	defer func(resp *rpc.Response) {
		if cerr := resp.Close(); cerr != nil {
			zap.L().Error("failed to close add response", zap.Error(cerr))
		}
	}(resp)
	if resp.Error != nil {
		return nil, resp.Error
	}

	body, err := io.ReadAll(resp.Output)
	if err != nil {
		return nil, err
	}

	var addResp struct {
		Hash string `json:"Hash"`
	}
	if err := json.Unmarshal(body, &addResp); err != nil {
		return nil, fmt.Errorf("parsing add response: %w", err)
	}

	if opts.OnProgress != nil {
		opts.OnProgress(int64(len(data)))
	}

	zap.L().Debug("uploaded to gateway backend",
		zap.String("hash", addResp.Hash),
		zap.String("evidenceId", c.meta.EvidenceID))

	return &UploadReceipt{
		PieceCID: addResp.Hash,
		Size:     int64(len(data)),
	}, nil
}

// PieceStatus checks the HTTP gateway for the piece with a HEAD request.
// 200 means the content is retrievable; 404 means unknown.
func (c *gatewayContext) PieceStatus(ctx context.Context, id string) (*PieceStatus, error) {
	url := c.client.gatewayURL + id
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.client.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func(body io.ReadCloser) {
		if cerr := body.Close(); cerr != nil {
			zap.L().Error("failed to close status response", zap.Error(cerr))
		}
	}(resp.Body)

	switch {
	case resp.StatusCode == http.StatusOK:
		return &PieceStatus{Exists: true, RetrievalURL: url}, nil
	case resp.StatusCode == http.StatusNotFound:
		return &PieceStatus{Exists: false}, nil
	default:
		return nil, fmt.Errorf("gateway returned status %d for %s", resp.StatusCode, id)
	}
}
