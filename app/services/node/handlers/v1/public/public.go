// Package public maintains the group of handlers for public access.
package public

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/websocket"
	"github.com/hashledger/ledger/business/web/errs"
	"github.com/hashledger/ledger/business/web/metrics"
	"github.com/hashledger/ledger/foundation/blockchain/chain"
	"github.com/hashledger/ledger/foundation/blockchain/signature"
	"github.com/hashledger/ledger/foundation/events"
	"github.com/hashledger/ledger/foundation/nameservice"
	"github.com/hashledger/ledger/foundation/web"
	"go.uber.org/zap"
)

// Handlers manages the set of ledger endpoints.
type Handlers struct {
	Log     *zap.SugaredLogger
	Chain   *chain.Chain
	Signer  *signature.Signer
	Metrics *metrics.Metrics
	Evts    *events.Events[chain.BlockData]
	NS      *nameservice.NameService
	WS      websocket.Upgrader
}

// Events handles a web socket to stream appended blocks to a client.
func (h Handlers) Events(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	h.WS.CheckOrigin = func(r *http.Request) bool { return true }

	c, err := h.WS.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	defer c.Close()

	ch := h.Evts.Acquire(v.TraceID)
	defer h.Evts.Release(v.TraceID)

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case bd, wd := <-ch:
			if !wd {
				return nil
			}

			if err := c.WriteJSON(bd); err != nil {
				return nil
			}

		case <-ticker.C:
			if err := c.WriteMessage(websocket.PingMessage, []byte("ping")); err != nil {
				return nil
			}
		}
	}
}

// AppendBlock adds a new block to the chain for the submitted payload.
func (h Handlers) AppendBlock(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var nb NewBlock
	if err := web.Decode(r, &nb); err != nil {
		if web.IsFieldErrors(err) {
			return err
		}
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	block, err := h.Chain.Append(*nb.Payload)
	if err != nil {
		if errors.Is(err, chain.ErrSerialization) {
			return errs.NewTrusted(err, http.StatusBadRequest)
		}
		return fmt.Errorf("append: %w", err)
	}

	h.Log.Infow("append block", "traceid", web.GetTraceID(ctx), "index", block.Index(), "hash", block.Hash())

	bd := chain.NewBlockData(block)

	if h.Metrics != nil {
		h.Metrics.Appends.Inc()
	}

	if h.Evts != nil {
		if dropped := h.Evts.Send(bd); dropped > 0 {
			h.Log.Infow("append block", "traceid", web.GetTraceID(ctx), "status", "event dropped", "receivers", dropped)
		}
	}

	return web.Respond(ctx, w, bd, http.StatusCreated)
}

// Blocks returns every block in the chain.
func (h Handlers) Blocks(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	blocks := h.Chain.Blocks()

	bds := make([]chain.BlockData, len(blocks))
	for i, b := range blocks {
		bds[i] = chain.NewBlockData(b)
	}

	return web.Respond(ctx, w, bds, http.StatusOK)
}

// BlockByIndex returns the block at the specified position.
func (h Handlers) BlockByIndex(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	idx, err := strconv.ParseUint(web.Param(r, "index"), 10, 64)
	if err != nil {
		return errs.NewTrusted(fmt.Errorf("invalid index: %w", err), http.StatusBadRequest)
	}

	block, err := h.Chain.QueryByIndex(idx)
	if err != nil {
		return errs.NewNotFound(err)
	}

	return web.Respond(ctx, w, chain.NewBlockData(block), http.StatusOK)
}

// Payload returns the original payload appended with a block hash.
func (h Handlers) Payload(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	hash := web.Param(r, "hash")

	payload, exists := h.Chain.Retrieve(hash)
	if !exists {
		return errs.NewNotFound(fmt.Errorf("payload for hash %q: %w", hash, chain.ErrNotFound))
	}

	resp := PayloadResponse{
		Hash:    hash,
		Payload: payload,
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Validate walks the chain and reports whether it is intact.
func (h Handlers) Validate(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	resp := Validation{
		Valid:  true,
		Length: h.Chain.Length(),
	}

	if err := h.Chain.Verify(); err != nil {
		resp.Valid = false
		resp.Error = err.Error()
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// SignerInfo returns the address of the key blocks are signed with.
func (h Handlers) SignerInfo(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var resp SignerResponse
	if h.Signer != nil {
		resp = SignerResponse{
			Signing: true,
			Address: h.Signer.Address(),
		}
		if h.NS != nil {
			resp.Name = h.NS.Lookup(resp.Address)
		}
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Accounts returns the named keys known to the node.
func (h Handlers) Accounts(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	accounts := []nameservice.Account{}
	if h.NS != nil {
		accounts = h.NS.Accounts()
	}

	return web.Respond(ctx, w, accounts, http.StatusOK)
}
