package settings

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/skilltrail/internal/llm"
	"github.com/abhisek/skilltrail/internal/logger"
	"github.com/abhisek/skilltrail/internal/store"
)

func newTestService(t *testing.T, base llm.Config, opts ...Option) (*Service, *store.Store) {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "settings.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return NewService(s, base, logger.Nop(), opts...), s
}

func TestMask(t *testing.T) {
	assert.Equal(t, "sk-proj-***", Mask("sk-proj-abcdef123"))
	assert.Equal(t, "configured", Mask("12345678"))
	assert.Equal(t, "configured", Mask("abc"))
	assert.Equal(t, "", Mask(""))
}

func TestView_MasksStoredAndEnvKeys(t *testing.T) {
	base := llm.DefaultConfig()
	base.ZAI.APIKey = "zai-env-key-0001"
	svc, _ := newTestService(t, base)
	ctx := context.Background()

	require.NoError(t, svc.Update(ctx, map[string]string{
		KeyProvider:                       "openai",
		APIKeySetting(llm.ProviderOpenAI): "sk-live-123456789",
		ModelSetting(llm.ProviderOpenAI):  "gpt-4.1",
	}))

	v, err := svc.View(ctx)
	require.NoError(t, err)
	assert.Equal(t, "openai", v.LLMProvider)
	assert.Equal(t, ProviderView{Model: "gpt-4.1", APIKeyMasked: "sk-live-***", Configured: true}, v.Providers["openai"])
	assert.Equal(t, "zai-env-***", v.Providers["zai"].APIKeyMasked)
	assert.False(t, v.Providers["anthropic"].Configured)
	assert.Equal(t, "claude-haiku", v.Providers["anthropic"].Model)
}

func TestUpdate_EmptyKeyLeavesStoredKey(t *testing.T) {
	svc, s := newTestService(t, llm.DefaultConfig())
	ctx := context.Background()

	require.NoError(t, svc.Update(ctx, map[string]string{"openai_api_key": "sk-first-key-value"}))
	require.NoError(t, svc.Update(ctx, map[string]string{"openai_api_key": "", "openai_model": "gpt-4o"}))

	got, ok, err := s.Settings().Get(ctx, "openai_api_key")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "sk-first-key-value", got)

	model, _, err := s.Settings().Get(ctx, "openai_model")
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o", model)
}

func TestUpdate_Rejects(t *testing.T) {
	svc, s := newTestService(t, llm.DefaultConfig())
	ctx := context.Background()

	err := svc.Update(ctx, map[string]string{KeyProvider: "watson"})
	assert.ErrorIs(t, err, ErrInvalidProvider)

	err = svc.Update(ctx, map[string]string{"watson_api_key": "x", "openai_model": "gpt-4o"})
	assert.ErrorIs(t, err, ErrUnknownSetting)

	all, err := s.Settings().All(ctx)
	require.NoError(t, err)
	assert.Empty(t, all, "a rejected update writes nothing")
}

func TestProvider_MissingKey(t *testing.T) {
	svc, _ := newTestService(t, llm.DefaultConfig())
	_, err := svc.Provider(context.Background())
	assert.ErrorIs(t, err, ErrMissingAPIKey)
}

func TestProvider_CachedPerResolvedConfig(t *testing.T) {
	var built []llm.Config
	factory := func(_ context.Context, cfg llm.Config, _ llm.EventRecorder, _ *logger.Logger) (llm.Provider, error) {
		built = append(built, cfg)
		return llm.NewMockProvider(), nil
	}
	base := llm.DefaultConfig()
	base.ZAI.APIKey = "zai-env-key-0001"
	svc, _ := newTestService(t, base, WithFactory(factory))
	ctx := context.Background()

	p1, err := svc.Provider(ctx)
	require.NoError(t, err)
	p2, err := svc.Provider(ctx)
	require.NoError(t, err)
	assert.Same(t, p1, p2)
	require.Len(t, built, 1)
	assert.Equal(t, llm.ProviderZAI, built[0].Provider)

	require.NoError(t, svc.Update(ctx, map[string]string{
		KeyProvider:         "anthropic",
		"anthropic_api_key": "sk-ant-0123456789",
	}))
	p3, err := svc.Provider(ctx)
	require.NoError(t, err)
	assert.NotSame(t, p1, p3)
	require.Len(t, built, 2)
	assert.Equal(t, "sk-ant-0123456789", built[1].Anthropic.APIKey)
}

func TestProvider_MockNeedsNoKey(t *testing.T) {
	base := llm.DefaultConfig()
	base.Provider = llm.ProviderMock
	svc, _ := newTestService(t, base)
	p, err := svc.Provider(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "mock", p.ModelID())
}
