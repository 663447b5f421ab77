package edgeblog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eringen/edgeblog/kv"
	"github.com/eringen/edgeblog/kv/memory"
)

func newSettingsStore(t *testing.T) (*SettingsStore, kv.Store) {
	t.Helper()
	store := memory.New()
	t.Cleanup(func() { _ = store.Close() })
	return NewSettingsStore(store, nil), store
}

func TestSettingsDefaults(t *testing.T) {
	s, store := newSettingsStore(t)
	ctx := context.Background()

	assert.Equal(t, DefaultSettings(), s.Get(ctx))

	require.NoError(t, store.Put(ctx, SettingsKey, []byte("{broken"), kv.NoTTL))
	assert.Equal(t, DefaultSettings(), s.Get(ctx))
}

func TestSettingsSaveMergesDefaults(t *testing.T) {
	s, _ := newSettingsStore(t)
	ctx := context.Background()

	err := s.Save(ctx, Settings{
		Blog:    BlogSettings{DefaultTitle: "  Custom  "},
		Domains: map[string]DomainSettings{"sec.example.com": {Title: "Sec Notes"}},
		Social:  SocialSettings{GitHub: "https://github.com/example"},
	})
	require.NoError(t, err)

	got := s.Get(ctx)
	assert.Equal(t, "Custom", got.Blog.DefaultTitle)
	assert.Equal(t, "Blog Author", got.Blog.DefaultAuthor)
	assert.Equal(t, "#3498db", got.Theme.PrimaryColor)
	assert.Equal(t, "https://github.com/example", got.Social.GitHub)
	assert.Equal(t, "Sec Notes", got.TitleForHost("sec.example.com"))
	assert.Equal(t, "Custom", got.TitleForHost("other.example.com"))
}

func TestSettingsValidation(t *testing.T) {
	s, _ := newSettingsStore(t)
	ctx := context.Background()

	err := s.Save(ctx, Settings{
		Theme:  ThemeSettings{PrimaryColor: "blue", AccentColor: "#12345"},
		Social: SocialSettings{Twitter: "not a url"},
	})
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Len(t, ve.Details, 3)
	assert.Contains(t, ve.Details, "primaryColor must be a valid hex color")

	assert.Equal(t, DefaultSettings(), s.Get(ctx), "invalid settings must not be stored")
}

func TestTitleAndDescriptionForHost(t *testing.T) {
	var empty Settings
	assert.Equal(t, "Example.com Blog", empty.TitleForHost("example.com"))
	assert.Equal(t, "Blog", empty.TitleForHost(""))
	assert.Equal(t, fallbackDescription, empty.DescriptionForHost("example.com"))

	st := DefaultSettings()
	st.Domains["a.example"] = DomainSettings{Description: "Per host"}
	assert.Equal(t, "Per host", st.DescriptionForHost("a.example"))
	assert.Equal(t, st.Blog.DefaultDescription, st.DescriptionForHost("b.example"))
}
