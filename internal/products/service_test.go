package products

import (
	"context"
	"encoding/json"
	"io"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yannickabena/mboa-storefront/pkg/upstream"
)

type fakeUpstream struct {
	responses map[string]any
	errors    map[string]error
	calls     []string
	fields    []map[string]string
	files     []*upstream.FileUpload
}

func (f *fakeUpstream) Do(ctx context.Context, method, path string, body, out any) error {
	key := method + " " + path
	f.calls = append(f.calls, key)
	if err, ok := f.errors[key]; ok {
		return err
	}
	if resp, ok := f.responses[key]; ok && out != nil {
		raw, _ := json.Marshal(resp)
		return json.Unmarshal(raw, out)
	}
	return nil
}

func (f *fakeUpstream) DoForm(ctx context.Context, method, path string, fields map[string]string, file *upstream.FileUpload, out any) error {
	f.fields = append(f.fields, fields)
	f.files = append(f.files, file)
	return f.Do(ctx, method, path, nil, out)
}

func (f *fakeUpstream) Download(ctx context.Context, path string) (io.ReadCloser, string, error) {
	return nil, "", f.Do(ctx, "GET", path, nil, nil)
}

func newService(t *testing.T, fake *fakeUpstream) *Service {
	t.Helper()
	svc, err := NewService(fake)
	require.NoError(t, err)
	return svc
}

func TestClothingProductsBuildsFilterQuery(t *testing.T) {
	fake := &fakeUpstream{responses: map[string]any{
		"GET /vetement/produits?categorie_id=3&page=2&sous_categorie_id=9": map[string]any{
			"data": []map[string]any{
				{"id": 1, "nom": "Boubou", "prix": "5000", "compagnie_id": 4},
			},
			"current_page": 2,
			"last_page":    5,
			"total":        48,
		},
	}}
	svc := newService(t, fake)

	page, err := svc.ClothingProducts(context.Background(), ListParams{
		CategorieID:     3,
		SousCategorieID: 9,
		Page:            2,
	})
	require.NoError(t, err)

	assert.Equal(t, 2, page.CurrentPage)
	assert.Equal(t, 5, page.LastPage)
	assert.Equal(t, 48, page.Total)
	require.Len(t, page.Items, 1)
	assert.True(t, page.Items[0].Prix.Equal(decimal.NewFromInt(5000)))
}

func TestClothingProductsDefaultsToFirstPage(t *testing.T) {
	fake := &fakeUpstream{responses: map[string]any{
		"GET /vetement/produits?page=1": map[string]any{"data": []map[string]any{}, "current_page": 1},
	}}
	svc := newService(t, fake)

	_, err := svc.ClothingProducts(context.Background(), ListParams{Page: -3})
	require.NoError(t, err)
	assert.Equal(t, "GET /vetement/produits?page=1", fake.calls[0])
}

func TestCreateClothingProductSendsFormAndImage(t *testing.T) {
	fake := &fakeUpstream{responses: map[string]any{
		"POST /vetement/produits": map[string]any{"id": 9, "nom": "Boubou", "prix": "7500"},
	}}
	svc := newService(t, fake)

	image := &upstream.FileUpload{Field: "image", Filename: "boubou.jpg"}
	created, err := svc.CreateClothingProduct(context.Background(), CreateProductInput{
		Nom:         "Boubou",
		Prix:        decimal.NewFromInt(7500),
		CategorieID: 3,
	}, image)
	require.NoError(t, err)
	assert.Equal(t, int64(9), created.ID)

	fields := fake.fields[0]
	assert.Equal(t, "Boubou", fields["nom"])
	assert.Equal(t, "7500", fields["prix"])
	assert.Equal(t, "3", fields["categorie_id"])
	assert.NotContains(t, fields, "sous_categorie_id")
	assert.Same(t, image, fake.files[0])
}

func TestRestaurantMenusDecodesNestedPlats(t *testing.T) {
	fake := &fakeUpstream{responses: map[string]any{
		"GET /restaurant/menus": []map[string]any{
			{"id": 1, "nom": "Midi", "plats": []map[string]any{
				{"id": 10, "nom": "Thieboudienne", "prix": "2500", "compagnie_id": 4},
			}},
		},
	}}
	svc := newService(t, fake)

	menus, err := svc.RestaurantMenus(context.Background())
	require.NoError(t, err)
	require.Len(t, menus, 1)
	require.Len(t, menus[0].Plats, 1)
	assert.True(t, menus[0].Plats[0].Prix.Equal(decimal.NewFromInt(2500)))
}

func TestClothingSubCategoriesScopesToCategory(t *testing.T) {
	fake := &fakeUpstream{responses: map[string]any{
		"GET /vetement/sous-categories/3": []map[string]any{
			{"id": 31, "nom": "Chemises"},
		},
	}}
	svc := newService(t, fake)

	subs, err := svc.ClothingSubCategories(context.Background(), 3)
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, "Chemises", subs[0].Name)
}
