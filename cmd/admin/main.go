package main

import (
	"chessrelay/backend/internal/config"
	"chessrelay/backend/internal/storage"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	store  *storage.Service
	closer func()
)

var rootCmd = &cobra.Command{
	Use:           "admin",
	Short:         "Inspect and repair the chess relay's presence state",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var onlineCmd = &cobra.Command{
	Use:   "online",
	Short: "List users in the online set with their last-seen time",
	Args:  cobra.NoArgs,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return openStore(cmd.Context(), true)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		users, err := store.OnlineUsers(cmd.Context())
		if err != nil {
			return err
		}
		printOnline(cmd.OutOrStdout(), users)
		return nil
	},
}

var profileCmd = &cobra.Command{
	Use:   "profile <user_id>",
	Short: "Show a profile's stored presence",
	Args:  cobra.ExactArgs(1),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return openStore(cmd.Context(), false)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := store.GetProfile(cmd.Context(), args[0])
		if errors.Is(err, storage.ErrProfileNotFound) {
			return fmt.Errorf("no profile for user %s", args[0])
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "id:        %s\nusername:  %s\nonline:    %t\nlast seen: %s\n",
			p.ID, p.Username, p.IsOnline, formatSeen(p.LastSeen))
		return nil
	},
}

var resetCmd = &cobra.Command{
	Use:   "reset-presence",
	Short: "Mark every profile offline and clear the online set",
	Long: `Presence writes are fire-and-forget, so a crash can leave users flagged online.
Run this while the relay is stopped.`,
	Args: cobra.NoArgs,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return openStore(cmd.Context(), true)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := store.ResetPresence(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%d profiles marked offline\n", n)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("database-url", "", "PostgreSQL DSN of the profile store (env DATABASE_URL)")
	rootCmd.PersistentFlags().String("redis-addr", "", "Redis address of the presence cache (env REDIS_ADDR)")
	rootCmd.PersistentFlags().Int("redis-db", 0, "Redis database number (env REDIS_DB)")

	_ = viper.BindPFlag(config.KeyDatabaseURL, rootCmd.PersistentFlags().Lookup("database-url"))
	_ = viper.BindPFlag(config.KeyRedisAddr, rootCmd.PersistentFlags().Lookup("redis-addr"))
	_ = viper.BindPFlag(config.KeyRedisDB, rootCmd.PersistentFlags().Lookup("redis-db"))

	rootCmd.AddCommand(onlineCmd, profileCmd, resetCmd)
}

// openStore connects to postgres and, when withRedis is set, to redis.
func openStore(ctx context.Context, withRedis bool) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	cfg := config.LoadFrom(viper.GetViper())
	db, err := storage.OpenPostgres(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	sqlDB, _ := db.DB()
	closer = func() { _ = sqlDB.Close() }

	if !withRedis {
		store = storage.NewStorageService(db, nil, logger)
		return nil
	}
	rdb, err := storage.NewRedis(ctx, cfg.RedisAddr, cfg.RedisDB)
	if err != nil {
		closer()
		return err
	}
	closer = func() {
		_ = sqlDB.Close()
		_ = rdb.Close()
	}
	store = storage.NewStorageService(db, rdb, logger)
	return nil
}

// printOnline writes one line per user, sorted by id.
func printOnline(w io.Writer, users map[string]time.Time) {
	if len(users) == 0 {
		fmt.Fprintln(w, "no users online")
		return
	}
	ids := make([]string, 0, len(users))
	for id := range users {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		fmt.Fprintf(w, "%s\t%s\n", id, formatSeen(users[id]))
	}
}

func formatSeen(t time.Time) string {
	if t.IsZero() {
		return "unknown"
	}
	return t.UTC().Format(time.RFC3339)
}

func main() {
	_ = godotenv.Load()

	err := rootCmd.ExecuteContext(context.Background())
	if closer != nil {
		closer()
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
