package notify

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseDeepLink(t *testing.T) {
	link, err := ParseDeepLink("kopikita://order/ord_abc123")
	require.NoError(t, err)
	require.Equal(t, "kopikita", link.Scheme)
	require.Equal(t, ResourceOrder, link.Resource)
	require.Equal(t, "ord_abc123", link.ID)

	link, err = ParseDeepLink("kopikita://orderStatus/ord_abc123?highlight=eta")
	require.NoError(t, err)
	require.Equal(t, ResourceOrderStatus, link.Resource)
	require.Equal(t, "eta", link.Query.Get("highlight"))

	link, err = ParseDeepLink("kopikita://orders?orderId=ord_1")
	require.NoError(t, err)
	require.Equal(t, ResourceOrders, link.Resource)
	require.Empty(t, link.ID)
	require.Equal(t, "ord_1", link.Query.Get("orderId"))
}

func TestParseDeepLinkRejections(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want error
	}{
		{"empty", "", ErrBadDeepLink},
		{"no scheme", "order/ord_1", ErrBadDeepLink},
		{"order without id", "kopikita://order", ErrBadDeepLink},
		{"orders with id", "kopikita://orders/ord_1", ErrBadDeepLink},
		{"extra segments", "kopikita://order/ord_1/more", ErrBadDeepLink},
		{"unknown resource", "kopikita://promo/p_1", ErrUnknownResource},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseDeepLink(tc.raw)
			require.ErrorIs(t, err, tc.want)
		})
	}
}
