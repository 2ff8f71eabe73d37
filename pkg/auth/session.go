// Package auth authenticates requests (session cookie or bearer token),
// resolves the caller's persisted profile and gates routes by role.
//
// Session keys should be 32 or 64 bytes for HMAC authentication,
// and 16, 24, or 32 bytes for AES encryption. Production deployments
// must use cryptographically random keys generated with:
//
//	openssl rand -base64 32
package auth

import (
	"bytes"
	"context"
	"encoding/base32"
	"encoding/gob"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
	"github.com/redis/go-redis/v9"
)

// SessionTTL matches a worker's shift on the terminal.
const SessionTTL = 12 * time.Hour

func sessionKey(id string) string       { return "blueledger:session:" + id }
func userSessionsKey(uid string) string { return "blueledger:user-sessions:" + uid }

// RedisStore is a sessions.Store that keeps session values in Redis. The
// cookie only carries the signed and encrypted session id.
//
// Every session bound to a uid is also indexed under that uid, so all of a
// user's sessions can be revoked at once when their account is removed.
type RedisStore struct {
	client  redis.UniversalClient
	codecs  []securecookie.Codec
	options sessions.Options
}

// NewSessionStore returns a store whose cookie is HttpOnly and SameSite=Lax.
// secureCookie should be true whenever the service is served over HTTPS.
func NewSessionStore(client redis.UniversalClient, authKey, encryptionKey []byte, secureCookie bool) *RedisStore {
	return &RedisStore{
		client: client,
		codecs: securecookie.CodecsFromPairs(authKey, encryptionKey),
		options: sessions.Options{
			Path:     "/",
			MaxAge:   int(SessionTTL.Seconds()),
			HttpOnly: true,
			Secure:   secureCookie,
			SameSite: http.SameSiteLaxMode,
		},
	}
}

// Get returns the request's cached session, loading it on first use.
func (s *RedisStore) Get(r *http.Request, name string) (*sessions.Session, error) {
	return sessions.GetRegistry(r).Get(s, name)
}

// New loads the session named by the request cookie. A missing, tampered or
// expired cookie, or a session gone from Redis, yields a fresh session and no
// error.
func (s *RedisStore) New(r *http.Request, name string) (*sessions.Session, error) {
	session := sessions.NewSession(s, name)
	opts := s.options
	session.Options = &opts
	session.IsNew = true

	c, err := r.Cookie(name)
	if err != nil {
		return session, nil
	}
	var id string
	if err := securecookie.DecodeMulti(name, c.Value, &id, s.codecs...); err != nil {
		return session, nil
	}
	values, err := s.load(r.Context(), id)
	if err != nil {
		return session, nil
	}
	session.ID, session.Values, session.IsNew = id, values, false
	return session, nil
}

// Save writes the session and its cookie. A negative MaxAge deletes both.
func (s *RedisStore) Save(r *http.Request, w http.ResponseWriter, session *sessions.Session) error {
	if session.Options.MaxAge < 0 {
		if err := s.destroy(r.Context(), session); err != nil {
			return err
		}
		http.SetCookie(w, sessions.NewCookie(session.Name(), "", session.Options))
		return nil
	}

	if session.ID == "" {
		session.ID = newSessionID()
	}
	if err := s.persist(r.Context(), session); err != nil {
		return err
	}

	encoded, err := securecookie.EncodeMulti(session.Name(), session.ID, s.codecs...)
	if err != nil {
		return fmt.Errorf("encode session cookie: %w", err)
	}
	http.SetCookie(w, sessions.NewCookie(session.Name(), encoded, session.Options))
	return nil
}

// Rotate drops the server-side record of session and clears its id and
// values, so the next Save issues a new id.
func (s *RedisStore) Rotate(ctx context.Context, session *sessions.Session) error {
	if err := s.destroy(ctx, session); err != nil {
		return err
	}
	session.ID = ""
	clear(session.Values)
	return nil
}

// RevokeUser deletes every session bound to uid and returns how many there
// were.
func (s *RedisStore) RevokeUser(ctx context.Context, uid uuid.UUID) (int, error) {
	index := userSessionsKey(uid.String())
	ids, err := s.client.SMembers(ctx, index).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return 0, fmt.Errorf("list sessions of %s: %w", uid, err)
	}
	keys := make([]string, 0, len(ids)+1)
	for _, id := range ids {
		keys = append(keys, sessionKey(id))
	}
	keys = append(keys, index)
	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		return 0, fmt.Errorf("revoke sessions of %s: %w", uid, err)
	}
	return len(ids), nil
}

func newSessionID() string {
	return strings.TrimRight(base32.StdEncoding.EncodeToString(securecookie.GenerateRandomKey(32)), "=")
}

func sessionUID(session *sessions.Session) string {
	uid, _ := session.Values[sessionUIDKey].(string)
	return uid
}

func (s *RedisStore) persist(ctx context.Context, session *sessions.Session) error {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(session.Values); err != nil {
		return fmt.Errorf("encode session values: %w", err)
	}
	ttl := time.Duration(session.Options.MaxAge) * time.Second

	_, err := s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Set(ctx, sessionKey(session.ID), buf.Bytes(), ttl)
		if uid := sessionUID(session); uid != "" {
			p.SAdd(ctx, userSessionsKey(uid), session.ID)
			p.Expire(ctx, userSessionsKey(uid), ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("persist session: %w", err)
	}
	return nil
}

func (s *RedisStore) load(ctx context.Context, id string) (map[any]any, error) {
	data, err := s.client.Get(ctx, sessionKey(id)).Bytes()
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	values := make(map[any]any)
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&values); err != nil {
		return nil, fmt.Errorf("decode session values: %w", err)
	}
	return values, nil
}

func (s *RedisStore) destroy(ctx context.Context, session *sessions.Session) error {
	if session.ID == "" {
		return nil
	}
	_, err := s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Del(ctx, sessionKey(session.ID))
		if uid := sessionUID(session); uid != "" {
			p.SRem(ctx, userSessionsKey(uid), session.ID)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

type rotator interface {
	Rotate(ctx context.Context, session *sessions.Session) error
}

// StartSession binds uid to the request's session and writes the cookie.
// Stores that can rotate ids get a fresh one, so a cookie planted before
// login never becomes authenticated.
func StartSession(w http.ResponseWriter, r *http.Request, store sessions.Store, uid uuid.UUID) error {
	session, err := store.Get(r, SessionName)
	if err != nil {
		return fmt.Errorf("get session: %w", err)
	}
	if rs, ok := store.(rotator); ok && !session.IsNew {
		if err := rs.Rotate(r.Context(), session); err != nil {
			return err
		}
	}
	session.Values[sessionUIDKey] = uid.String()
	if err := session.Save(r, w); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// EndSession deletes the session server-side and expires the cookie.
func EndSession(w http.ResponseWriter, r *http.Request, store sessions.Store) error {
	session, err := store.Get(r, SessionName)
	if err != nil {
		return fmt.Errorf("get session: %w", err)
	}
	session.Options.MaxAge = -1
	if err := session.Save(r, w); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}
