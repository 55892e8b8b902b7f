package contentbox

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSite_RootFusionURI(t *testing.T) {
	site := Site{NodeName: "acme", PackageKey: "Acme.Site"}
	assert.Equal(t, "resource://Acme.Site/Private/Fusion/Root.fusion", site.RootFusionURI())
}

func TestSite_Validate(t *testing.T) {
	assert.NoError(t, Site{NodeName: "a", PackageKey: "A"}.Validate())

	err := Site{PackageKey: "A"}.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), ErrMsgSiteNameEmpty)

	err = Site{NodeName: "a"}.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), ErrMsgSitePackageEmpty)
}

func TestSiteNodeName(t *testing.T) {
	tests := []struct {
		name    string
		binding any
		want    string
		ok      bool
		wantErr bool
	}{
		{name: "nil", binding: nil},
		{name: "empty string", binding: ""},
		{name: "string", binding: "acme", want: "acme", ok: true},
		{name: "site value", binding: Site{NodeName: "acme"}, want: "acme", ok: true},
		{name: "site pointer", binding: &Site{NodeName: "acme"}, want: "acme", ok: true},
		{name: "nil site pointer", binding: (*Site)(nil)},
		{name: "site node", binding: testSiteNode("acme"), want: "acme", ok: true},
		{name: "unsupported", binding: 3.5, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok, err := siteNodeName(tt.binding)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.ok, ok)
		})
	}
}

// siteRepositoryContract runs the behavior every writable repository shares
func siteRepositoryContract(t *testing.T, repo interface {
	SiteRepository
	Save(ctx context.Context, site Site) error
	Delete(ctx context.Context, nodeName string) error
	List(ctx context.Context) ([]Site, error)
}) {
	ctx := context.Background()

	t.Run("find missing", func(t *testing.T) {
		_, err := repo.FindByNodeName(ctx, "missing")
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrSiteNotFound)
	})

	t.Run("save and find", func(t *testing.T) {
		require.NoError(t, repo.Save(ctx, Site{NodeName: "acme", Name: "Acme", PackageKey: "Acme.Site"}))
		site, err := repo.FindByNodeName(ctx, "acme")
		require.NoError(t, err)
		assert.Equal(t, "Acme", site.Name)
		assert.Equal(t, "Acme.Site", site.PackageKey)
	})

	t.Run("save replaces", func(t *testing.T) {
		require.NoError(t, repo.Save(ctx, Site{NodeName: "acme", Name: "Acme 2", PackageKey: "Acme.Other"}))
		site, err := repo.FindByNodeName(ctx, "acme")
		require.NoError(t, err)
		assert.Equal(t, "Acme.Other", site.PackageKey)
	})

	t.Run("save invalid", func(t *testing.T) {
		assert.Error(t, repo.Save(ctx, Site{NodeName: "broken"}))
	})

	t.Run("list ordered", func(t *testing.T) {
		require.NoError(t, repo.Save(ctx, Site{NodeName: "beta", PackageKey: "Beta.Site"}))
		sites, err := repo.List(ctx)
		require.NoError(t, err)
		require.Len(t, sites, 2)
		assert.Equal(t, "acme", sites[0].NodeName)
		assert.Equal(t, "beta", sites[1].NodeName)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, repo.Delete(ctx, "beta"))
		assert.ErrorIs(t, repo.Delete(ctx, "beta"), ErrSiteNotFound)
		_, err := repo.FindByNodeName(ctx, "beta")
		assert.ErrorIs(t, err, ErrSiteNotFound)
	})

	t.Run("cancelled context", func(t *testing.T) {
		cancelled, cancel := context.WithCancel(ctx)
		cancel()
		_, err := repo.FindByNodeName(cancelled, "acme")
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestMemorySiteRepository(t *testing.T) {
	siteRepositoryContract(t, NewMemorySiteRepository())
}

func TestMemorySiteRepository_Concurrent(t *testing.T) {
	repo := NewMemorySiteRepository(Site{NodeName: "acme", PackageKey: "Acme.Site"})
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = repo.FindByNodeName(context.Background(), "acme")
			_ = repo.Save(context.Background(), Site{NodeName: "beta", PackageKey: "Beta.Site"})
		}()
	}
	wg.Wait()

	sites, err := repo.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, sites, 2)
}

func newSQLiteSiteRepository(t *testing.T) *SQLSiteRepository {
	t.Helper()
	repo, err := NewSQLSiteRepository(SQLSiteConfig{
		Driver:           SQLDriverSQLite,
		ConnectionString: filepath.Join(t.TempDir(), "sites.db"),
		AutoMigrate:      true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func TestSQLSiteRepository_SQLite(t *testing.T) {
	siteRepositoryContract(t, newSQLiteSiteRepository(t))
}

func TestSQLSiteRepository_Migrations(t *testing.T) {
	repo := newSQLiteSiteRepository(t)
	ctx := context.Background()

	version, err := repo.CurrentSchemaVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, version)

	require.NoError(t, repo.RunMigrations(ctx))
	version, err = repo.CurrentSchemaVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, version)
}

func TestSQLSiteRepository_Closed(t *testing.T) {
	repo := newSQLiteSiteRepository(t)
	require.NoError(t, repo.Close())
	require.NoError(t, repo.Close())

	_, err := repo.FindByNodeName(context.Background(), "acme")
	require.Error(t, err)
	assert.Contains(t, err.Error(), ErrMsgSQLClosed)
}

func TestDefaultSQLSiteConfig(t *testing.T) {
	cfg := DefaultSQLSiteConfig()

	assert.Equal(t, SQLDriverPostgres, cfg.Driver)
	assert.Equal(t, SQLDefaultMaxOpenConns, cfg.MaxOpenConns)
	assert.Equal(t, SQLDefaultMaxIdleConns, cfg.MaxIdleConns)
	assert.Equal(t, SQLDefaultConnMaxLifetime, cfg.ConnMaxLifetime)
	assert.Equal(t, SQLDefaultTablePrefix, cfg.TablePrefix)
	assert.Equal(t, SQLDefaultQueryTimeout, cfg.QueryTimeout)
	assert.False(t, cfg.AutoMigrate)
	assert.Empty(t, cfg.ConnectionString)
}

func TestNewSQLSiteRepository_Errors(t *testing.T) {
	tests := []struct {
		name   string
		config SQLSiteConfig
		msg    string
	}{
		{name: "empty connection string", config: SQLSiteConfig{}, msg: ErrMsgSQLEmptyDSN},
		{name: "unsupported driver", config: SQLSiteConfig{Driver: "mysql", ConnectionString: "x"}, msg: ErrMsgSQLUnsupportedDriver},
		{name: "invalid postgres dsn", config: SQLSiteConfig{ConnectionString: "invalid://not-a-valid-connection-string"}, msg: ErrMsgSQLConnectionFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewSQLSiteRepository(tt.config)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.msg)

			var repoErr *SiteRepositoryError
			assert.ErrorAs(t, err, &repoErr)
		})
	}
}
