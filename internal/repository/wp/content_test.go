package wp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeGraphQL routes incoming queries by operation name to canned JSON data
// payloads, echoing back the GraphQL response envelope.
func fakeGraphQL(t *testing.T, responses map[string]string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req graphQLRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		for op, data := range responses {
			if strings.Contains(req.Query, op) {
				w.Header().Set("Content-Type", "application/json")
				fmt.Fprintf(w, `{"data":%s}`, data)
				return
			}
		}
		fmt.Fprintf(w, `{"errors":[{"message":"unknown operation"}]}`)
	}))
}

func TestBySlugUnknownCollection(t *testing.T) {
	srv := fakeGraphQL(t, map[string]string{
		"CollectionBySlug": `{"collecties":{"nodes":[]}}`,
	})
	defer srv.Close()

	content := NewContent(New(srv.URL, srv.Client()), "")
	col, err := content.BySlug(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, col)
}

func TestBySlugFound(t *testing.T) {
	srv := fakeGraphQL(t, map[string]string{
		"CollectionBySlug": `{"collecties":{"nodes":[{"title":"Pokémon","slug":"pokemon"}]}}`,
	})
	defer srv.Close()

	content := NewContent(New(srv.URL, srv.Client()), "")
	col, err := content.BySlug(context.Background(), "pokemon")
	require.NoError(t, err)
	require.NotNil(t, col)
	assert.Equal(t, "Pokémon", col.Title)
	assert.Equal(t, "pokemon", col.Slug)
}

func TestListCollections(t *testing.T) {
	srv := fakeGraphQL(t, map[string]string{
		"query Collections": `{"collecties":{
			"pageInfo":{"hasNextPage":false},
			"nodes":[
				{"id":"cG9zdDox","title":"Pokémon","slug":"pokemon","date":"2024-01-01",
				 "featuredImage":{"node":{"sourceUrl":"https://cdn.example/p.jpg"}}},
				{"id":"cG9zdDoy","title":"One Piece","slug":"one-piece","featuredImage":null}
			]}}`,
	})
	defer srv.Close()

	content := NewContent(New(srv.URL, srv.Client()), "")
	cols, err := content.List(context.Background())
	require.NoError(t, err)
	require.Len(t, cols, 2)
	assert.Equal(t, "https://cdn.example/p.jpg", cols[0].Image)
	assert.Equal(t, "2024-01-01", cols[0].Date)
	assert.Equal(t, "", cols[1].Image)
}

func TestPrimaryMenuRewritesCMSLinks(t *testing.T) {
	srv := fakeGraphQL(t, map[string]string{
		"GetPrimaryMenu": `{"menuItems":{"nodes":[
			{"id":"a","databaseId":1,"label":"Collecties","path":"https://cms.example/collecties/","childItems":{"nodes":[
				{"id":"b","databaseId":2,"label":"Pokémon","path":"https://cms.example/collecties/pokemon/"}
			]}},
			{"id":"c","databaseId":3,"label":"Discord","path":"https://discord.gg/vdubs"},
			{"id":"d","databaseId":4,"label":"Events","path":"events"},
			{"id":"e","databaseId":5,"label":"","path":"/hidden"}
		]}}`,
	})
	defer srv.Close()

	content := NewContent(New(srv.URL, srv.Client()), "https://cms.example")
	items, err := content.PrimaryMenu(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 3)

	assert.Equal(t, "/collecties", items[0].Path)
	require.Len(t, items[0].Children, 1)
	assert.Equal(t, "/collecties/pokemon", items[0].Children[0].Path)
	// Links off the CMS host are left untouched.
	assert.Equal(t, "https://discord.gg/vdubs", items[1].Path)
	// Bare relative paths get a leading slash.
	assert.Equal(t, "/events", items[2].Path)
}

func TestHomepageFallsBackWithoutBackground(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req graphQLRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		calls++
		if strings.Contains(req.Query, "countdownBackground") {
			fmt.Fprint(w, `{"errors":[{"message":"Cannot query field countdownBackground"}]}`)
			return
		}
		fmt.Fprint(w, `{"data":{"pageBy":{"homepageacf":{"countdownStatus":true,"countdownEnd":"2026-09-01 20:00:00"}}}}`)
	}))
	defer srv.Close()

	content := NewContent(New(srv.URL, srv.Client()), "")
	cfg, err := content.Homepage(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.True(t, cfg.CountdownStatus)
	assert.Equal(t, "2026-09-01 20:00:00", cfg.CountdownEnd)
	assert.Equal(t, "", cfg.CountdownBackground)
}

func TestQueryJoinsGraphQLErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"errors":[{"message":"first"},{"message":"second"}]}`)
	}))
	defer srv.Close()

	err := New(srv.URL, srv.Client()).Query(context.Background(), "query X { y }", nil, nil)
	require.Error(t, err)
	assert.Equal(t, "first; second", err.Error())
}
