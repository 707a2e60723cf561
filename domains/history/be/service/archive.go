package service

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	domainrepo "github.com/zenGate-Global/pagebot/domains/history/be/repo"
	"github.com/zenGate-Global/pagebot/platform/go/persistence"
	"github.com/zenGate-Global/pagebot/platform/go/storage"
)

const archiveContentType = "application/x-ndjson"

// ArchiveConfig locates the archive inside the object store.
type ArchiveConfig struct {
	Bucket string
	Root   string
}

// ArchiveResult describes a finished export.
type ArchiveResult struct {
	Location storage.ObjectLocation
	Records  int
}

// Archiver exports a page's history as JSON Lines to an object store.
type Archiver struct {
	repo   domainrepo.Repository
	writer storage.ObjectWriter
	cfg    ArchiveConfig
	now    func() time.Time
}

// NewArchiver builds an Archiver writing through writer.
func NewArchiver(repo domainrepo.Repository, writer storage.ObjectWriter, cfg ArchiveConfig) *Archiver {
	if repo == nil {
		panic("history repository is required")
	}
	if writer == nil {
		panic("object writer is required")
	}
	return &Archiver{repo: repo, writer: writer, cfg: cfg, now: time.Now}
}

// Archive streams every record processed at or after since into
// <root>/<tenantId>/history/<pageId>/<timestamp>.jsonl, oldest first.
func (a *Archiver) Archive(ctx context.Context, tenantID uuid.UUID, pageID string, since time.Time) (ArchiveResult, error) {
	pageID = strings.TrimSpace(pageID)
	if pageID == "" || strings.ContainsAny(pageID, "/\\") {
		return ArchiveResult{}, &ValidationError{Fields: FieldErrors{"pageId": {"pageId must be a plain identifier"}}}
	}

	prefix, err := storage.TenantPrefix(a.cfg.Root, tenantID)
	if err != nil {
		return ArchiveResult{}, err
	}
	key := fmt.Sprintf("history/%s/%s.jsonl", pageID, a.now().UTC().Format("20060102T150405Z"))
	loc, err := storage.ResolveObjectLocation(prefix, a.cfg.Bucket, key)
	if err != nil {
		return ArchiveResult{}, err
	}

	if err := a.writer.Check(ctx, loc.Bucket, prefix); err != nil {
		return ArchiveResult{}, fmt.Errorf("check archive destination: %w", err)
	}

	w, err := a.writer.Create(ctx, loc, archiveContentType)
	if err != nil {
		return ArchiveResult{}, err
	}

	buf := bufio.NewWriter(w)
	enc := json.NewEncoder(buf)
	count := 0
	streamErr := a.repo.EachSince(ctx, tenantID, pageID, since, func(record persistence.HistoryRecord) error {
		if err := enc.Encode(record); err != nil {
			return err
		}
		count++
		return nil
	})
	if streamErr == nil {
		streamErr = buf.Flush()
	}
	if streamErr != nil {
		if abortErr := w.Abort(); abortErr != nil {
			streamErr = errors.Join(streamErr, abortErr)
		}
		return ArchiveResult{}, streamErr
	}
	if err := w.Close(); err != nil {
		return ArchiveResult{}, fmt.Errorf("commit archive: %w", err)
	}

	return ArchiveResult{Location: loc, Records: count}, nil
}
