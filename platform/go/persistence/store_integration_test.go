package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

func startPostgres(t *testing.T) *pgxpool.Pool {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping postgres integration test in short mode")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("pagebot"),
		postgres.WithUsername("postgres"),
		postgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(wait.ForListeningPort("5432/tcp").WithStartupTimeout(2*time.Minute)),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = pgContainer.Terminate(context.Background())
	})

	connString, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	require.NoError(t, MigrateUp(connString))

	pool, err := NewPool(ctx, PoolConfig{ConnString: connString})
	require.NoError(t, err)
	t.Cleanup(func() { ClosePool(pool) })

	return pool
}

type stores struct {
	tenants   *TenantStore
	pages     *PageStore
	rules     *RuleStore
	aiConfigs *AIConfigStore
	scenarios *ScenarioStore
	history   *HistoryStore
}

func newStores(t *testing.T, pool *pgxpool.Pool) stores {
	t.Helper()

	tenants, err := NewTenantStore(pool)
	require.NoError(t, err)
	pages, err := NewPageStore(pool)
	require.NoError(t, err)
	rules, err := NewRuleStore(pool)
	require.NoError(t, err)
	aiConfigs, err := NewAIConfigStore(pool)
	require.NoError(t, err)
	scenarios, err := NewScenarioStore(pool)
	require.NoError(t, err)
	history, err := NewHistoryStore(pool)
	require.NoError(t, err)

	return stores{tenants: tenants, pages: pages, rules: rules, aiConfigs: aiConfigs, scenarios: scenarios, history: history}
}

func createTenant(t *testing.T, ctx context.Context, s stores, name string) Tenant {
	t.Helper()

	token := name + "-verify"
	tenant, err := s.tenants.CreateTenant(ctx, CreateTenantParams{
		TenantID:           uuid.New(),
		Username:           name,
		Email:              name + "@example.com",
		PasswordHash:       "hash",
		WebhookVerifyToken: &token,
	})
	require.NoError(t, err)
	return tenant
}

func TestStoresAgainstPostgres(t *testing.T) {
	pool := startPostgres(t)
	s := newStores(t, pool)
	ctx := context.Background()

	t.Run("tenant uniqueness and verify token lookup", func(t *testing.T) {
		tenant := createTenant(t, ctx, s, "alice")

		_, err := s.tenants.CreateTenant(ctx, CreateTenantParams{
			TenantID:     uuid.New(),
			Username:     "alice",
			Email:        "other@example.com",
			PasswordHash: "hash",
		})
		require.ErrorIs(t, err, ErrConflict)

		exists, err := s.tenants.TenantExists(ctx, "nobody@example.com", "alice")
		require.NoError(t, err)
		require.True(t, exists)

		ok, err := s.tenants.VerifyTokenRegistered(ctx, "alice-verify")
		require.NoError(t, err)
		require.True(t, ok)

		ok, err = s.tenants.VerifyTokenRegistered(ctx, "wrong")
		require.NoError(t, err)
		require.False(t, ok)

		loaded, err := s.tenants.GetTenantByEmail(ctx, "alice@example.com")
		require.NoError(t, err)
		require.Equal(t, tenant.TenantID, loaded.TenantID)
	})

	t.Run("rules are ordered by priority then recency", func(t *testing.T) {
		tenant := createTenant(t, ctx, s, "bob")
		_, err := s.pages.ConnectPage(ctx, ConnectPageParams{TenantID: tenant.TenantID, PageID: "p-bob", PageName: "Bob", AccessToken: "tok"})
		require.NoError(t, err)

		create := func(keyword string, priority int, active bool) ResponseRule {
			rule, err := s.rules.CreateRule(ctx, CreateRuleParams{
				RuleID: uuid.New(), TenantID: tenant.TenantID, PageID: "p-bob",
				Keyword: keyword, Response: keyword + "!", Priority: priority, IsActive: active,
			})
			require.NoError(t, err)
			return rule
		}
		create("a", 1, true)
		create("b", 5, true)
		newest := create("c", 5, true)
		create("off", 10, false)

		rules, err := s.rules.ListRules(ctx, tenant.TenantID, "p-bob")
		require.NoError(t, err)
		require.Len(t, rules, 4)
		require.Equal(t, "off", rules[0].Keyword)

		active, err := s.rules.ListActiveRules(ctx, tenant.TenantID, "p-bob")
		require.NoError(t, err)
		require.Len(t, active, 3)
		require.Equal(t, newest.RuleID, active[0].RuleID)
		require.Equal(t, "a", active[2].Keyword)

		_, err = s.rules.CreateRule(ctx, CreateRuleParams{
			RuleID: uuid.New(), TenantID: tenant.TenantID, PageID: "not-connected",
			Keyword: "x", Response: "y", Priority: 1, IsActive: true,
		})
		require.ErrorIs(t, err, ErrPageNotConnected)

		other := createTenant(t, ctx, s, "mallory")
		_, err = s.rules.UpdateRule(ctx, other.TenantID, newest.RuleID, UpdateRuleParams{Keyword: "x", Response: "y", Priority: 1})
		require.ErrorIs(t, err, ErrNotFound)
		require.ErrorIs(t, s.rules.DeleteRule(ctx, other.TenantID, newest.RuleID), ErrNotFound)
	})

	t.Run("toggle hides the page from webhook resolution", func(t *testing.T) {
		tenant := createTenant(t, ctx, s, "carol")
		_, err := s.pages.ConnectPage(ctx, ConnectPageParams{TenantID: tenant.TenantID, PageID: "p-carol", PageName: "Carol", AccessToken: "tok"})
		require.NoError(t, err)

		page, err := s.pages.FindActivePage(ctx, "p-carol")
		require.NoError(t, err)
		require.Equal(t, tenant.TenantID, page.TenantID)

		require.NoError(t, s.pages.SetPageActive(ctx, tenant.TenantID, "p-carol", false))
		_, err = s.pages.FindActivePage(ctx, "p-carol")
		require.ErrorIs(t, err, ErrNotFound)

		reconnected, err := s.pages.ConnectPage(ctx, ConnectPageParams{TenantID: tenant.TenantID, PageID: "p-carol", PageName: "Carol 2", AccessToken: "tok2"})
		require.NoError(t, err)
		require.True(t, reconnected.IsActive)
		require.Equal(t, "Carol 2", reconnected.PageName)
	})

	t.Run("deleting a page cascades to its configuration", func(t *testing.T) {
		tenant := createTenant(t, ctx, s, "dave")
		_, err := s.pages.ConnectPage(ctx, ConnectPageParams{TenantID: tenant.TenantID, PageID: "p-dave", AccessToken: "tok"})
		require.NoError(t, err)

		_, err = s.rules.CreateRule(ctx, CreateRuleParams{RuleID: uuid.New(), TenantID: tenant.TenantID, PageID: "p-dave", Keyword: "hi", Response: "hello", Priority: 1, IsActive: true})
		require.NoError(t, err)
		_, err = s.aiConfigs.UpsertAIConfig(ctx, UpsertAIConfigParams{TenantID: tenant.TenantID, PageID: "p-dave", Provider: "openai", APIKey: "k", Model: "gpt-4o-mini", Temperature: 0.7, IsActive: true})
		require.NoError(t, err)
		_, err = s.scenarios.CreateScenario(ctx, uuid.New(), tenant.TenantID, "p-dave", ScenarioFields{Name: "welcome", TriggerType: "new_message", ActionType: "predefined", IsActive: true})
		require.NoError(t, err)

		require.NoError(t, s.pages.DeletePage(ctx, tenant.TenantID, "p-dave"))

		rules, err := s.rules.ListRules(ctx, tenant.TenantID, "p-dave")
		require.NoError(t, err)
		require.Empty(t, rules)

		_, err = s.aiConfigs.GetAIConfig(ctx, tenant.TenantID, "p-dave")
		require.ErrorIs(t, err, ErrNotFound)

		scenarios, err := s.scenarios.ListScenarios(ctx, tenant.TenantID, "p-dave")
		require.NoError(t, err)
		require.Empty(t, scenarios)

		require.ErrorIs(t, s.pages.DeletePage(ctx, tenant.TenantID, "p-dave"), ErrNotFound)
	})

	t.Run("ai config upsert keeps a single row", func(t *testing.T) {
		tenant := createTenant(t, ctx, s, "erin")
		_, err := s.pages.ConnectPage(ctx, ConnectPageParams{TenantID: tenant.TenantID, PageID: "p-erin", AccessToken: "tok"})
		require.NoError(t, err)

		first, err := s.aiConfigs.UpsertAIConfig(ctx, UpsertAIConfigParams{TenantID: tenant.TenantID, PageID: "p-erin", Provider: "openai", APIKey: "k1", Model: "m1", Temperature: 0.7, IsActive: true})
		require.NoError(t, err)
		second, err := s.aiConfigs.UpsertAIConfig(ctx, UpsertAIConfigParams{TenantID: tenant.TenantID, PageID: "p-erin", Provider: "mistral", APIKey: "k2", Model: "m2", Temperature: 0.2, IsActive: false})
		require.NoError(t, err)
		require.Equal(t, first.ConfigID, second.ConfigID)
		require.Equal(t, "mistral", second.Provider)

		_, err = s.aiConfigs.GetActiveAIConfig(ctx, tenant.TenantID, "p-erin")
		require.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("history pagination and statistics", func(t *testing.T) {
		tenant := createTenant(t, ctx, s, "frank")
		now := time.Now().UTC()
		reply := "Hi!"

		appendAt := func(at time.Time, kind ResponseType) {
			params := AppendHistoryParams{TenantID: tenant.TenantID, PageID: "p-frank", SenderID: "u1", MessageText: "hello", ResponseType: kind, ProcessedAt: at}
			if kind != ResponseTypeNone {
				params.ResponseText = &reply
			}
			require.NoError(t, s.history.AppendHistory(ctx, params))
		}
		appendAt(now.Add(-1*time.Hour), ResponseTypePredefined)
		appendAt(now.Add(-2*time.Hour), ResponseTypeAI)
		appendAt(now.Add(-50*time.Hour), ResponseTypeNone)
		appendAt(now.Add(-40*24*time.Hour), ResponseTypePredefined)

		page, err := s.history.ListHistory(ctx, tenant.TenantID, "p-frank", 2, 0)
		require.NoError(t, err)
		require.Len(t, page, 2)
		require.Equal(t, ResponseTypePredefined, page[0].ResponseType)
		require.Equal(t, ResponseTypeAI, page[1].ResponseType)

		rest, err := s.history.ListHistory(ctx, tenant.TenantID, "p-frank", 10, 2)
		require.NoError(t, err)
		require.Len(t, rest, 2)
		require.Nil(t, rest[0].ResponseText)

		summary, err := s.history.SummarizeHistory(ctx, tenant.TenantID, "p-frank", now.Add(-30*24*time.Hour))
		require.NoError(t, err)
		require.Equal(t, HistorySummary{TotalMessages: 3, PredefinedResponses: 1, AIResponses: 1, NoResponses: 1}, summary)

		daily, err := s.history.DailyHistory(ctx, tenant.TenantID, "p-frank", now.Add(-7*24*time.Hour))
		require.NoError(t, err)
		var total int64
		for i, d := range daily {
			total += d.MessagesCount
			if i > 0 {
				require.True(t, daily[i-1].Date.After(d.Date))
			}
		}
		require.Equal(t, int64(3), total)

		var streamed int
		err = s.history.EachHistorySince(ctx, tenant.TenantID, "p-frank", now.Add(-60*24*time.Hour), func(HistoryRecord) error {
			streamed++
			return nil
		})
		require.NoError(t, err)
		require.Equal(t, 4, streamed)
	})
}
