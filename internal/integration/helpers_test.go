package integration

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

const gooseTemplate = `<?xml version="1.0" encoding="UTF-8"?>
<server host="MicroGoose" model="MicroGoose">
  <devices>
    <device id="0000AB12CD34" name="MicroGoose">
      <field key="TempF" value="84.92" niceName="Temperature (F)"/>
    </device>
  </devices>
  <alarms>
    <alarm alarm-num="1" device-id="0000AB12CD34" field="%s" limtype="High" limit="80" delay="0" repeat="0" email="1" actions="email" status="%s"/>
  </alarms>
</server>`

// goose is a fake MicroGoose serving /data.xml.
type goose struct {
	srv    *httptest.Server
	status atomic.Value
	field  string
}

func newGoose(t *testing.T, field, status string) *goose {
	t.Helper()

	g := &goose{field: field}
	g.status.Store(status)

	g.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/data.xml" {
			http.NotFound(w, r)
			return
		}

		w.Header().Set("Content-Type", "text/xml")
		_, _ = fmt.Fprintf(w, gooseTemplate, g.field, g.status.Load())
	}))
	t.Cleanup(g.srv.Close)

	return g
}

// host is the host:port as it would appear in the flock file.
func (g *goose) host() string {
	return strings.TrimPrefix(g.srv.URL, "http://")
}

func (g *goose) setStatus(status string) {
	g.status.Store(status)
}

// gateway is a fake SMS gateway recording every message.
type gateway struct {
	srv      *httptest.Server
	mu       sync.Mutex
	messages []string
}

func newGateway(t *testing.T) *gateway {
	t.Helper()

	gw := &gateway{}

	gw.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Phone   string `json:"phone"`
			Message string `json:"message"`
			Key     string `json:"key"`
		}

		if !assert.NoError(t, json.NewDecoder(r.Body).Decode(&body)) {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		gw.mu.Lock()
		gw.messages = append(gw.messages, body.Message)
		gw.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":true}`))
	}))
	t.Cleanup(gw.srv.Close)

	return gw
}

func (gw *gateway) sent() []string {
	gw.mu.Lock()
	defer gw.mu.Unlock()

	return slices.Clone(gw.messages)
}
