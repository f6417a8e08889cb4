// Package v1 contains the full set of handler functions and routes
// supported by the v1 web api.
package v1

import (
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/hashledger/ledger/app/services/node/handlers/v1/public"
	"github.com/hashledger/ledger/business/web/metrics"
	"github.com/hashledger/ledger/foundation/blockchain/chain"
	"github.com/hashledger/ledger/foundation/blockchain/signature"
	"github.com/hashledger/ledger/foundation/events"
	"github.com/hashledger/ledger/foundation/nameservice"
	"github.com/hashledger/ledger/foundation/web"
	"go.uber.org/zap"
)

const version = "v1"

// Config contains all the mandatory systems required by handlers.
type Config struct {
	Log     *zap.SugaredLogger
	Chain   *chain.Chain
	Signer  *signature.Signer
	Metrics *metrics.Metrics
	Evts    *events.Events[chain.BlockData]
	NS      *nameservice.NameService
}

// PublicRoutes binds all the version 1 public routes.
func PublicRoutes(app *web.App, cfg Config) {
	pbl := public.Handlers{
		Log:     cfg.Log,
		Chain:   cfg.Chain,
		Signer:  cfg.Signer,
		Metrics: cfg.Metrics,
		Evts:    cfg.Evts,
		NS:      cfg.NS,
		WS:      websocket.Upgrader{},
	}

	app.Handle(http.MethodGet, version, "/events", pbl.Events)
	app.Handle(http.MethodPost, version, "/blocks", pbl.AppendBlock)
	app.Handle(http.MethodGet, version, "/blocks/list", pbl.Blocks)
	app.Handle(http.MethodGet, version, "/blocks/:index", pbl.BlockByIndex)
	app.Handle(http.MethodGet, version, "/payload/:hash", pbl.Payload)
	app.Handle(http.MethodGet, version, "/chain/validate", pbl.Validate)
	app.Handle(http.MethodGet, version, "/signer", pbl.SignerInfo)
	app.Handle(http.MethodGet, version, "/accounts", pbl.Accounts)
}
