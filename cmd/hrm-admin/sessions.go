package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
)

const sessionKeyPattern = "session:*"

type clearSessionsOptions struct {
	DryRun bool
	Yes    bool
}

// runClearSessions removes session keys from Redis, forcing every signed-in
// browser back through the login flow.
func runClearSessions(cmdCtx *commandContext, args []string) error {
	opts, err := parseClearSessionsFlags(args)
	if err != nil {
		return err
	}

	if !opts.DryRun {
		if confirmErr := confirmAction(confirmOptions{
			Yes:     opts.Yes,
			Warning: "WARNING: this will sign out every active user.",
			Action:  "clear all sessions",
		}); confirmErr != nil {
			return confirmErr
		}
	}

	ctx, cancel := context.WithTimeout(cmdCtx.Ctx, 2*time.Minute)
	defer cancel()

	_, redisClient, err := connectInfraWithOptions(&connectInfraOptions{
		Logger:    cmdCtx.Logger,
		Config:    &cmdCtx.Config,
		WantDB:    false,
		WantRedis: true,
	})
	if err != nil {
		return err
	}
	if redisClient == nil {
		return errors.New("redis is not configured; nothing to clear")
	}
	defer func() {
		if cerr := redisClient.Close(); cerr != nil {
			cmdCtx.Logger.Warn("redis close failed", "error", cerr)
		}
	}()

	removed, scanned, err := clearSessionKeys(ctx, redisClient, opts.DryRun)
	if err != nil {
		return err
	}

	if opts.DryRun {
		return writef(os.Stdout, "Dry run: %d session key(s) would be removed.\n", scanned)
	}
	return writef(os.Stdout, "Removed %d of %d session key(s).\n", removed, scanned)
}

func clearSessionKeys(
	ctx context.Context,
	client redis.UniversalClient,
	dryRun bool,
) (removed, scanned int, err error) {
	iter := client.Scan(ctx, 0, sessionKeyPattern, 100).Iterator()
	var batch []string

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if !dryRun {
			deleted, delErr := client.Del(ctx, batch...).Result()
			if delErr != nil {
				return fmt.Errorf("delete session keys: %w", delErr)
			}
			removed += int(deleted)
		}
		batch = batch[:0]
		return nil
	}

	for iter.Next(ctx) {
		scanned++
		batch = append(batch, iter.Val())
		if len(batch) >= 100 {
			if flushErr := flush(); flushErr != nil {
				return removed, scanned, flushErr
			}
		}
	}
	if iterErr := iter.Err(); iterErr != nil {
		return removed, scanned, fmt.Errorf("scan session keys: %w", iterErr)
	}
	if flushErr := flush(); flushErr != nil {
		return removed, scanned, flushErr
	}

	return removed, scanned, nil
}

func parseClearSessionsFlags(args []string) (clearSessionsOptions, error) {
	fs := flag.NewFlagSet("clear-sessions", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var opts clearSessionsOptions
	fs.BoolVar(&opts.DryRun, "dry-run", false, "Count matching session keys without deleting them")
	fs.BoolVar(&opts.Yes, "yes", false, "Skip confirmation prompt")

	if err := fs.Parse(args); err != nil {
		return clearSessionsOptions{}, err
	}

	return opts, nil
}
