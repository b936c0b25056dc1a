package clickhouse

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildDSN(t *testing.T) {
	tests := []struct {
		name string
		cfg  ClientConfig
		want string
	}{
		{
			name: "native without params",
			cfg:  ClientConfig{Host: "ch", Port: 9000, Database: "fintrain", User: "default"},
			want: "clickhouse://default:@ch:9000/fintrain",
		},
		{
			name: "http with timeouts",
			cfg: ClientConfig{
				Host: "ch", Port: 8123, Database: "fintrain", User: "u", Password: "p",
				UseHTTP: true, DialTimeout: 5 * time.Second, ReadTimeout: 30 * time.Second,
			},
			want: "clickhouse+http://u:p@ch:8123/fintrain?dial_timeout=5s&read_timeout=30s",
		},
		{
			name: "settings in key order",
			cfg: ClientConfig{
				Host: "ch", Port: 9000, Database: "d", User: "u",
				ReadTimeout: time.Second, DialTimeout: time.Second, MaxExecTime: 2 * time.Minute,
			},
			want: "clickhouse://u:@ch:9000/d?dial_timeout=1s&max_execution_time=120&read_timeout=1s",
		},
		{
			name: "escaped credentials",
			cfg:  ClientConfig{Host: "ch", Port: 9000, Database: "d", User: "trainer", Password: "p@ss/word"},
			want: "clickhouse://trainer:p%40ss%2Fword@ch:9000/d",
		},
		{
			name: "ipv6 host",
			cfg:  ClientConfig{Host: "::1", Port: 9000, Database: "d", User: "u"},
			want: "clickhouse://u:@[::1]:9000/d",
		},
		{
			name: "sub-second exec time is dropped",
			cfg:  ClientConfig{Host: "ch", Port: 9000, Database: "d", User: "u", MaxExecTime: 500 * time.Millisecond},
			want: "clickhouse://u:@ch:9000/d",
		},
		{
			name: "max execution time only",
			cfg:  ClientConfig{Host: "ch", Port: 9000, Database: "d", User: "u", MaxExecTime: 90 * time.Second},
			want: "clickhouse://u:@ch:9000/d?max_execution_time=90",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, buildDSN(tt.cfg))
		})
	}
}

func TestNewClient_RequiresHost(t *testing.T) {
	_, err := NewClient(WithPort(9000))
	require.Error(t, err)
}

func TestPingTimeout(t *testing.T) {
	assert.Equal(t, 5*time.Second, pingTimeout(0))
	assert.Equal(t, 2*time.Second, pingTimeout(2*time.Second))
}

func TestClient_CloseWithoutPool(t *testing.T) {
	assert.NoError(t, (&Client{}).Close())
}
