package olx

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"sooq-service/internal/pkg/cache"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestClient(t *testing.T, baseURL string) (*Client, *cache.Memory) {
	t.Helper()
	mem := cache.NewMemory()
	client := NewClient(Config{
		BaseURL:    baseURL,
		Retries:    2,
		RetryDelay: time.Millisecond,
	}, mem, zap.NewNop())
	return client, mem
}

func TestFetchCategoriesBareList(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/categories/", r.URL.Path)
		w.Write([]byte(`[{"id": 1, "name": "Vehicles"}, {"id": 2, "name": "Electronics"}]`))
	}))
	defer server.Close()

	client, _ := newTestClient(t, server.URL)

	categories := client.FetchCategories(context.Background(), false)
	require.Len(t, categories, 2)
	assert.Equal(t, "Vehicles", GetString(categories[0], "name"))
}

func TestFetchCategoriesWrappedInData(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data": [{"id": "cars", "name": "Cars"}]}`))
	}))
	defer server.Close()

	client, _ := newTestClient(t, server.URL)

	categories := client.FetchCategories(context.Background(), false)
	require.Len(t, categories, 1)
	assert.Equal(t, "cars", GetString(categories[0], "id"))
}

func TestFetchCategoriesFailureDegradesToEmpty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client, _ := newTestClient(t, server.URL)

	categories := client.FetchCategories(context.Background(), false)
	assert.NotNil(t, categories)
	assert.Empty(t, categories)
}

func TestFetchCategoriesServesFromCache(t *testing.T) {
	hits := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.Write([]byte(`[{"id": 1, "name": "Vehicles"}]`))
	}))
	defer server.Close()

	client, _ := newTestClient(t, server.URL)

	client.FetchCategories(context.Background(), false)
	client.FetchCategories(context.Background(), false)
	assert.Equal(t, 1, hits)
}

func TestFetchCategoriesForceRefreshBypassesCache(t *testing.T) {
	hits := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.Write([]byte(`[{"id": 1, "name": "Vehicles"}]`))
	}))
	defer server.Close()

	client, _ := newTestClient(t, server.URL)

	client.FetchCategories(context.Background(), false)
	client.FetchCategories(context.Background(), true)
	assert.Equal(t, 2, hits)
}

func TestFetchCategoriesRetriesOn5xx(t *testing.T) {
	hits := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		if hits == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`[{"id": 1, "name": "Vehicles"}]`))
	}))
	defer server.Close()

	client, _ := newTestClient(t, server.URL)

	categories := client.FetchCategories(context.Background(), false)
	assert.Len(t, categories, 1)
	assert.Equal(t, 2, hits)
}

func TestFetchCategoryFields(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/categoryFields", r.URL.Path)
		assert.Equal(t, "cars,phones", r.URL.Query().Get("categoryExternalIDs"))
		assert.Equal(t, "true", r.URL.Query().Get("flat"))
		w.Write([]byte(`{"data": {
			"cars": {"flatFields": {
				"make": {"attribute": "make", "name": "Make", "filterType": "select"},
				"_meta": {"note": "no attribute key, skipped"}
			}},
			"not_an_object": 42
		}}`))
	}))
	defer server.Close()

	client, _ := newTestClient(t, server.URL)

	groups, err := client.FetchCategoryFields(context.Background(), []string{"cars", "phones"}, false)
	require.NoError(t, err)
	require.Contains(t, groups, "cars")
	assert.NotContains(t, groups, "not_an_object")

	fields := groups["cars"].FlatFields
	require.Contains(t, fields, "make")
	assert.NotContains(t, fields, "_meta")
	assert.Equal(t, "Make", GetString(fields["make"], "name"))
}

func TestFetchCategoryFieldsFailureSurfaces(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client, _ := newTestClient(t, server.URL)

	_, err := client.FetchCategoryFields(context.Background(), []string{"cars"}, false)
	assert.Error(t, err)
}

func TestFetchCategoryFieldsNonRetryableStatusFailsFast(t *testing.T) {
	hits := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	client, _ := newTestClient(t, server.URL)

	_, err := client.FetchCategoryFields(context.Background(), []string{"cars"}, false)
	assert.Error(t, err)
	assert.Equal(t, 1, hits)
}

func TestCategoryFieldsKeyIsOrderInsensitive(t *testing.T) {
	a := cache.CategoryFieldsKey([]string{"cars", "phones", "jobs"})
	b := cache.CategoryFieldsKey([]string{"jobs", "cars", "phones"})
	assert.Equal(t, a, b)

	c := cache.CategoryFieldsKey([]string{"cars"})
	assert.NotEqual(t, a, c)
}
