package commands

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/tkforge/tk/internal/cache"
	"github.com/tkforge/tk/internal/printer"
)

var (
	cacheBackend   string
	cacheRedisAddr string
	cacheDSN       string
	cacheRepoName  string
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the external read cache",
}

var cacheSyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Sync the index into the read cache",
	Long: `Mirrors the current index entries into an external read cache so
dashboards can query tickets without cloning the repository.

The cache is a projection of a projection: a sync can always be repeated and
never feeds back into the ticket files or the index.`,
	RunE: runCacheSync,
}

func init() {
	cacheSyncCmd.Flags().StringVar(&cacheBackend, "backend", "redis", "Cache backend: redis or postgres")
	cacheSyncCmd.Flags().StringVar(&cacheRedisAddr, "redis-addr", "localhost:6379", "Redis address")
	cacheSyncCmd.Flags().StringVar(&cacheDSN, "dsn", "", "Postgres connection string")
	cacheSyncCmd.Flags().StringVar(&cacheRepoName, "repo", "", "Repository name used as the cache namespace (default: directory name of the Git root)")
	cacheCmd.AddCommand(cacheSyncCmd)
	rootCmd.AddCommand(cacheCmd)
}

func runCacheSync(cmd *cobra.Command, args []string) error {
	ws, err := openWorkspace()
	if err != nil {
		return err
	}

	repoName := cacheRepoName
	if repoName == "" {
		root, err := ws.checker.GetGitRoot()
		if err != nil {
			return printer.Error("Error: failed to determine repository name", err.Error(),
				[]string{"Pass --repo explicitly"})
		}
		repoName = filepath.Base(root)
	}

	idx, err := ws.computeIndex()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var store cache.Store
	switch cacheBackend {
	case "redis":
		store, err = cache.NewRedisStore(&redis.Options{Addr: cacheRedisAddr}, repoName)
	case "postgres":
		if cacheDSN == "" {
			return printer.Error("Error: missing --dsn", "The postgres backend needs a connection string.", nil)
		}
		store, err = cache.NewPostgresStore(ctx, cacheDSN, repoName)
	default:
		return printer.Error(
			fmt.Sprintf("Error: unknown backend %q", cacheBackend),
			"Backend must be redis or postgres.",
			nil,
		)
	}
	if err != nil {
		return printer.Error("Error: failed to open cache", err.Error(), nil)
	}
	defer store.Close()

	if err := store.Sync(ctx, idx.Tickets); err != nil {
		return printer.Error("Error: cache sync failed", err.Error(), nil)
	}

	printer.Success("Synced %d ticket(s) to %s cache '%s'\n", len(idx.Tickets), cacheBackend, repoName)
	return nil
}
