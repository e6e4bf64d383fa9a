package httpclient_test

import (
	"crypto/tls"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prilive-com/packbot/internal/httpclient"
)

func transport(t *testing.T, c *http.Client) *http.Transport {
	t.Helper()
	tr, ok := c.Transport.(*http.Transport)
	require.True(t, ok)
	return tr
}

func TestNew_AppliesConfig(t *testing.T) {
	c := httpclient.New(httpclient.Config{
		RequestTimeout:      5 * time.Second,
		IdleTimeout:         time.Minute,
		MaxIdleConns:        7,
		MaxIdleConnsPerHost: 3,
	})

	assert.Equal(t, 5*time.Second, c.Timeout)
	tr := transport(t, c)
	assert.Equal(t, 7, tr.MaxIdleConns)
	assert.Equal(t, 3, tr.MaxIdleConnsPerHost)
	assert.Equal(t, time.Minute, tr.IdleConnTimeout)
	assert.Equal(t, 10*time.Second, tr.TLSHandshakeTimeout, "zero falls back to the default")
	assert.Equal(t, uint16(tls.VersionTLS12), tr.TLSClientConfig.MinVersion)
	assert.False(t, tr.TLSClientConfig.InsecureSkipVerify)
}

func TestForLongPolling_OutlastsServerTimeout(t *testing.T) {
	c := httpclient.ForLongPolling(30)

	assert.Equal(t, 40*time.Second, c.Timeout)
	assert.Equal(t, 35*time.Second, transport(t, c).ResponseHeaderTimeout)
}
