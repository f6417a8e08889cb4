package metrics_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/hashledger/ledger/business/web/metrics"
	"github.com/hashledger/ledger/foundation/blockchain/chain"
	"github.com/stretchr/testify/require"
)

func TestChainCollector(t *testing.T) {
	ch, err := chain.New(chain.Config{})
	require.NoError(t, err)

	_, err = ch.Append(chain.Single("Block 1 Data"))
	require.NoError(t, err)

	m := metrics.New(ch)
	m.Appends.Inc()

	values, err := m.Gather()
	require.NoError(t, err)
	require.Equal(t, 2.0, values["ledger_chain_length"])
	require.Equal(t, 1.0, values["ledger_chain_index_size"])
	require.Equal(t, 1.0, values["ledger_chain_valid"])
	require.Equal(t, 1.0, values["ledger_chain_appends_total"])
}

func TestHandler(t *testing.T) {
	ch, err := chain.New(chain.Config{})
	require.NoError(t, err)

	m := metrics.New(ch)

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.True(t, strings.Contains(string(body), "ledger_chain_length 1"))
}
