package categories

import (
	"context"
	"net/http"

	"github.com/yannickabena/mboa-storefront/pkg/upstream"
)

// UpstreamFetch loads the type-category table. The endpoint is public; no
// token is attached.
func UpstreamFetch(client upstream.Caller) FetchFunc {
	return func(ctx context.Context) ([]Category, error) {
		var out []Category
		if err := client.Do(ctx, http.MethodGet, "/type-categories", nil, &out); err != nil {
			return nil, err
		}
		return out, nil
	}
}
