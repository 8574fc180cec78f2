package request

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveClientType(t *testing.T) {
	cases := []struct {
		name   string
		header string
		ua     string
		want   ClientType
	}{
		{"explicit header wins", "web", "okhttp/4.9", ClientWeb},
		{"browser", "", "Mozilla/5.0 (X11; Linux x86_64)", ClientWeb},
		{"android", "", "okhttp/4.9.3", ClientMobile},
		{"curl", "", "curl/8.0", ClientAPI},
		{"empty", "", "", ClientAPI},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ResolveClientType(tc.header, tc.ua))
		})
	}
	assert.True(t, IsWebClient(ClientWeb))
	assert.False(t, IsWebClient(ClientMobile))
}
