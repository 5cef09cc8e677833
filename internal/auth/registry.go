// Package auth implements the authorization registry: a persisted whitelist
// document of user and group principals, plus a read-only pre-approved
// handle list loaded at startup.
//
// User principals are stored either as decimal Telegram ids or as handles.
// A handle entry is upgraded to the id entry the first time the handle's
// owner is seen, so the registry self-heals toward stable identity.
package auth

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	apperrors "github.com/lueurxax/telegram-chat-assistant/internal/core/errors"
)

const whitelistKey = "whitelist"

// Verdict classifies how a principal was (or was not) authorized. The
// lookup is pure; only the ByHandle verdict carries a pending mutation
// (handle to id migration) which Authorize commits.
type Verdict int

const (
	Unauthorized Verdict = iota
	ByID
	ByHandle
	ByPreapproved
	ByGroup
)

func (v Verdict) String() string {
	switch v {
	case ByID:
		return "by_id"
	case ByHandle:
		return "by_handle"
	case ByPreapproved:
		return "by_preapproved"
	case ByGroup:
		return "by_group"
	default:
		return "unauthorized"
	}
}

// Principal identifies a user by numeric id and optional handle.
type Principal struct {
	ID     int64
	Handle string
}

// Whitelist is the persisted document: two named sets of principal strings.
type Whitelist struct {
	Users  []string `json:"users"`
	Groups []string `json:"groups"`
}

// Store is the persistence contract for the whitelist document.
type Store interface {
	GetSetting(ctx context.Context, key string, target interface{}) error
	SaveSetting(ctx context.Context, key string, value interface{}) error
}

// Registry gates command execution. All mutations are serialized by a
// single mutex: the handle migration is a read-modify-write against the
// persisted document and concurrent authorization events would otherwise
// race.
type Registry struct {
	store       Store
	preapproved map[string]struct{}
	logger      *zerolog.Logger

	mu sync.Mutex
}

// New creates a registry over the given store. The pre-approved handles are
// consulted on lookup but never written back.
func New(store Store, preapproved []string, logger *zerolog.Logger) *Registry {
	set := make(map[string]struct{}, len(preapproved))
	for _, h := range preapproved {
		set[h] = struct{}{}
	}

	return &Registry{
		store:       store,
		preapproved: set,
		logger:      logger,
	}
}

// Classify resolves a principal against a whitelist document without
// touching any state. First match wins.
func Classify(wl Whitelist, preapproved map[string]struct{}, user Principal, chatID int64) Verdict {
	if contains(wl.Users, strconv.FormatInt(user.ID, 10)) {
		return ByID
	}

	if user.Handle != "" && contains(wl.Users, user.Handle) {
		return ByHandle
	}

	if user.Handle != "" {
		if _, ok := preapproved[user.Handle]; ok {
			return ByPreapproved
		}
	}

	if contains(wl.Groups, strconv.FormatInt(chatID, 10)) {
		return ByGroup
	}

	return Unauthorized
}

// Lookup loads the current document and classifies the principal. It never
// mutates the registry.
func (r *Registry) Lookup(ctx context.Context, user Principal, chatID int64) Verdict {
	return Classify(r.load(ctx), r.preapproved, user, chatID)
}

// Authorize reports whether the principal may use the bot. A ByHandle
// verdict commits the handle-to-id migration before returning: the handle
// entry is removed and the id inserted, so subsequent calls resolve ByID.
func (r *Registry) Authorize(ctx context.Context, user Principal, chatID int64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	wl := r.load(ctx)

	verdict := Classify(wl, r.preapproved, user, chatID)
	if verdict == ByHandle {
		r.migrate(ctx, wl, user)
	}

	if verdict != Unauthorized {
		r.logger.Info().
			Int64("user_id", user.ID).
			Str("handle", user.Handle).
			Stringer("verdict", verdict).
			Msg("authorized")
	}

	return verdict != Unauthorized
}

// migrate replaces the handle entry with the numeric id and persists the
// document. A persist failure is logged but does not revoke the
// authorization already granted.
func (r *Registry) migrate(ctx context.Context, wl Whitelist, user Principal) {
	wl.Users = remove(wl.Users, user.Handle)

	id := strconv.FormatInt(user.ID, 10)
	if !contains(wl.Users, id) {
		wl.Users = append(wl.Users, id)
	}

	if err := r.save(ctx, wl); err != nil {
		r.logger.Error().Err(err).Str("handle", user.Handle).Msg("failed to persist handle migration")

		return
	}

	r.logger.Info().Str("handle", user.Handle).Str("user_id", id).Msg("migrated whitelist entry to id")
}

// AddUsers whitelists the given handles. Only callers who are pre-approved
// or already id-approved may mutate the registry. Leading "@" is stripped;
// entries already present verbatim and bare-numeric entries are skipped
// (numeric entries are reserved for migrated ids). Returns the handles
// actually added.
func (r *Registry) AddUsers(ctx context.Context, caller Principal, handles []string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	wl := r.load(ctx)

	if !r.mayMutate(wl, caller) {
		return nil, apperrors.ErrNotAuthorized
	}

	var added []string

	for _, h := range handles {
		h = strings.TrimPrefix(h, "@")
		if h == "" || contains(wl.Users, h) || isNumeric(h) {
			continue
		}

		wl.Users = append(wl.Users, h)
		added = append(added, h)
	}

	if len(added) == 0 {
		return nil, nil
	}

	if err := r.save(ctx, wl); err != nil {
		return nil, fmt.Errorf("persist whitelist: %w", err)
	}

	r.logger.Info().Strs("handles", added).Int64("by", caller.ID).Msg("whitelisted users")

	return added, nil
}

// AddGroup whitelists a group chat. Returns false when the group is already
// present. The caller is responsible for ensuring the chat actually is a
// group conversation.
func (r *Registry) AddGroup(ctx context.Context, chatID int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	wl := r.load(ctx)

	id := strconv.FormatInt(chatID, 10)
	if contains(wl.Groups, id) {
		return false, nil
	}

	wl.Groups = append(wl.Groups, id)

	if err := r.save(ctx, wl); err != nil {
		return false, fmt.Errorf("persist whitelist: %w", err)
	}

	r.logger.Info().Int64("chat_id", chatID).Msg("whitelisted group")

	return true, nil
}

func (r *Registry) mayMutate(wl Whitelist, caller Principal) bool {
	if caller.Handle != "" {
		if _, ok := r.preapproved[caller.Handle]; ok {
			return true
		}
	}

	return contains(wl.Users, strconv.FormatInt(caller.ID, 10))
}

// load reads the persisted document. A read failure is logged and yields an
// empty document: the registry fails open to "no prior approvals" rather
// than refusing all traffic.
func (r *Registry) load(ctx context.Context) Whitelist {
	var wl Whitelist

	if err := r.store.GetSetting(ctx, whitelistKey, &wl); err != nil {
		r.logger.Error().Err(err).Msg("failed to load whitelist, treating as empty")

		return Whitelist{}
	}

	return wl
}

func (r *Registry) save(ctx context.Context, wl Whitelist) error {
	return r.store.SaveSetting(ctx, whitelistKey, wl)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}

	return false
}

func remove(list []string, s string) []string {
	out := list[:0]

	for _, v := range list {
		if v != s {
			out = append(out, v)
		}
	}

	return out
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}

	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}

	return true
}
