package suppression

import (
	"context"
	"strings"
	"time"

	"github.com/ignite/outreach-orchestrator/internal/domain"
)

// globalListID is the Manager list ID used for cross-tenant entries.
const globalListID = "*"

// Repository is the persisted source of truth for suppression entries.
// The Store layers the Manager's bloom+binary-search cache on top of it for
// O(1)-ish reads; Repository is hit on writes and on cache reload.
type Repository interface {
	Upsert(ctx context.Context, s domain.Suppression) error
	Remove(ctx context.Context, tenantID, email string) (bool, error)
	ListUnsubscribes(ctx context.Context, tenantID string, limit int) ([]domain.Suppression, error)
	ListGlobal(ctx context.Context, limit int) ([]domain.Suppression, error)
	AllHashes(ctx context.Context, tenantID string) ([]string, error)
}

// Store is the tenant-aware suppression list: IsBlocked/Add/Remove/lists,
// backed by Repository for durability and a Manager for fast membership
// tests. TenantID "" addresses the global list throughout.
type Store struct {
	repo    Repository
	manager *Manager
}

func NewStore(repo Repository, manager *Manager) *Store {
	if manager == nil {
		manager = NewManager()
	}
	return &Store{repo: repo, manager: manager}
}

func normalize(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func listIDFor(tenantID string) string {
	if tenantID == "" {
		return globalListID
	}
	return tenantID
}

// IsBlocked reports whether email is suppressed globally or for tenantID.
func (s *Store) IsBlocked(email, tenantID string) bool {
	h := MD5HashFromEmail(email)
	return s.manager.IsSuppressedMD5(h, []string{globalListID, listIDFor(tenantID)})
}

// Add upserts a suppression entry idempotently. Hard bounces and complaints
// are forced global regardless of the tenant passed in;
// everything else is scoped to tenantID.
func (s *Store) Add(ctx context.Context, email string, reason domain.SuppressionReason, tenantID string) (domain.Suppression, error) {
	email = normalize(email)
	if reason.Global() {
		tenantID = ""
	}
	entry := domain.Suppression{
		TenantID:  tenantID,
		Email:     email,
		MD5Hash:   MD5HashFromEmail(email).ToHex(),
		Reason:    reason,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.repo.Upsert(ctx, entry); err != nil {
		return entry, err
	}
	return entry, s.reloadList(ctx, listIDFor(tenantID))
}

// Remove deletes an entry, returning true iff one existed.
func (s *Store) Remove(ctx context.Context, email, tenantID string) (bool, error) {
	removed, err := s.repo.Remove(ctx, tenantID, normalize(email))
	if err != nil || !removed {
		return removed, err
	}
	return true, s.reloadList(ctx, listIDFor(tenantID))
}

func (s *Store) ListUnsubscribes(ctx context.Context, tenantID string, limit int) ([]domain.Suppression, error) {
	return s.repo.ListUnsubscribes(ctx, tenantID, limit)
}

func (s *Store) ListGlobal(ctx context.Context, limit int) ([]domain.Suppression, error) {
	return s.repo.ListGlobal(ctx, limit)
}

// WarmCache loads the global list and tenantIDs' lists into the in-memory
// Manager at startup.
func (s *Store) WarmCache(ctx context.Context, tenantIDs []string) error {
	if err := s.reloadList(ctx, globalListID); err != nil {
		return err
	}
	for _, t := range tenantIDs {
		if err := s.reloadList(ctx, t); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) reloadList(ctx context.Context, listID string) error {
	tenantID := listID
	if listID == globalListID {
		tenantID = ""
	}
	hexHashes, err := s.repo.AllHashes(ctx, tenantID)
	if err != nil {
		return err
	}
	s.manager.UnloadList(listID)
	if len(hexHashes) == 0 {
		return nil
	}
	_, err = s.manager.LoadListFromHexStrings(listID, hexHashes)
	if err == ErrEmptyList {
		return nil
	}
	return err
}
