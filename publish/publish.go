// Package publish replays a committed global stream to NATS so downstream
// consumers can follow the dataset's history as ordered messages.
package publish

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"

	"github.com/nats-io/nats.go"

	"github.com/kgevolve/wikidated/stream"
)

// DefaultSubjectPrefix is the subject root; the entity's page id is
// appended per message.
const DefaultSubjectPrefix = "wikidated.revisions"

// Options configures the replay target.
type Options struct {
	// URL of the NATS server. Publishing is skipped when empty.
	URL string
	// SubjectPrefix overrides DefaultSubjectPrefix.
	SubjectPrefix string
}

// Replay publishes every revision of the global stream in order, one JSON
// message per revision on `<prefix>.<pageID>`. Returns the number of
// messages published. When no URL is configured the replay is skipped
// and reported as a no-op rather than an error.
func Replay(ctx context.Context, global *stream.File, opts Options, logger *slog.Logger) (int, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.URL == "" {
		logger.Info("publishing disabled, no nats url configured")
		return 0, nil
	}
	prefix := opts.SubjectPrefix
	if prefix == "" {
		prefix = DefaultSubjectPrefix
	}

	conn, err := nats.Connect(opts.URL)
	if err != nil {
		return 0, fmt.Errorf("connect to nats: %w", err)
	}
	defer conn.Close()

	r, err := stream.OpenReader(global)
	if err != nil {
		return 0, err
	}
	defer r.Close()

	scanner := r.All()
	defer scanner.Close()

	published := 0
	for {
		if err := ctx.Err(); err != nil {
			return published, err
		}

		revision, line, err := scanner.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return published, err
		}

		subject := prefix + "." + strconv.FormatInt(revision.Entity.PageID, 10)
		if err := conn.Publish(subject, line); err != nil {
			return published, fmt.Errorf("publish revision %d: %w", revision.Revision.RevisionID, err)
		}
		published++
	}

	if err := conn.Flush(); err != nil {
		return published, fmt.Errorf("flush nats connection: %w", err)
	}
	logger.Info("replayed global stream",
		slog.Int("messages", published),
		slog.String("subject_prefix", prefix))
	return published, nil
}
