package cbs

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fortuna/courtvision/internal/feeds"
	"github.com/fortuna/courtvision/internal/logging"
)

const injuryPage = `<html><body>
<div class="TableBaseWrapper">
  <h4 class="TableBase-title"><span class="TeamName">Boston</span></h4>
  <table class="TableBase-table">
    <thead><tr>
      <th>Player</th><th>Position</th><th>Updated</th><th>Injury</th><th>Injury Status</th>
    </tr></thead>
    <tbody>
      <tr>
        <td><span class="CellPlayerName--short"><a href="#">J. Tatum</a></span><span class="CellPlayerName--long"><a href="#">Jayson Tatum</a></span></td>
        <td>SF</td><td>Sat, Oct 18</td><td>Achilles</td>
        <td>
          Out for the season
        </td>
      </tr>
    </tbody>
  </table>
</div>
<div class="TableBaseWrapper">
  <table>
    <tr><th>Player</th><th>Injury Status</th></tr>
    <tr><td>Joel Embiid</td><td>Game Time Decision</td></tr>
    <tr><td>Extra</td></tr>
  </table>
</div>
<table><tr><td>layout table without headers</td></tr></table>
</body></html>`

type stubFetcher struct {
	html string
	err  error
}

func (s stubFetcher) FetchHTML(context.Context, string) (string, error) {
	return s.html, s.err
}

func TestParseInjuryTables(t *testing.T) {
	doc, err := ParseHTML(injuryPage)
	require.NoError(t, err)

	rows, err := ParseInjuryTables(doc)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, "J. TatumJayson Tatum", rows[0]["Player"])
	assert.Equal(t, "Out for the season", rows[0]["Injury Status"])
	assert.Equal(t, "Achilles", rows[0]["Injury"])

	assert.Equal(t, feeds.TableRow{"Player": "Joel Embiid", "Injury Status": "Game Time Decision"}, rows[1])
	assert.Equal(t, feeds.TableRow{"Player": "Extra"}, rows[2])
}

func TestParseInjuryTablesNoTables(t *testing.T) {
	doc, err := ParseHTML("<html><body><p>maintenance</p></body></html>")
	require.NoError(t, err)

	_, err = ParseInjuryTables(doc)
	assert.ErrorIs(t, err, feeds.ErrEmptyResponse)
}

func TestClientFetchInjuryTables(t *testing.T) {
	c := New("", stubFetcher{html: injuryPage}, logging.Discard())
	rows, err := c.FetchInjuryTables(context.Background())
	require.NoError(t, err)
	assert.Len(t, rows, 3)

	c = New("", stubFetcher{err: errors.New("blocked")}, logging.Discard())
	_, err = c.FetchInjuryTables(context.Background())
	assert.ErrorContains(t, err, "blocked")
}

func TestHTTPFetcher(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "text/html", r.Header.Get("Accept"))
		w.Write([]byte(injuryPage))
	}))
	defer srv.Close()

	f := NewHTTPFetcher(time.Second, 5, logging.Discard())
	c := New(srv.URL, f, logging.Discard())
	rows, err := c.FetchInjuryTables(context.Background())
	require.NoError(t, err)
	assert.Len(t, rows, 3)
}
