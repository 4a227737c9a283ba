package backend

import (
	"context"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"sync"

	"github.com/angelmondragon/storefront/internal/localstore"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"golang.org/x/net/publicsuffix"
)

type persistedCookie struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// sessionJar is a cookie jar for the backend origin whose cookies can be
// saved to and restored from the local store between runs.
type sessionJar struct {
	base  *url.URL
	store *localstore.ListStore[persistedCookie]

	mu  sync.Mutex
	jar *cookiejar.Jar
}

func newSessionJar(base *url.URL, store *localstore.ListStore[persistedCookie]) (*sessionJar, error) {
	jar, err := newCookieJar()
	if err != nil {
		return nil, err
	}
	return &sessionJar{base: base, store: store, jar: jar}, nil
}

func newCookieJar() (*cookiejar.Jar, error) {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create cookie jar")
	}
	return jar, nil
}

func (s *sessionJar) SetCookies(u *url.URL, cookies []*http.Cookie) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jar.SetCookies(u, cookies)
}

func (s *sessionJar) Cookies(u *url.URL) []*http.Cookie {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.jar.Cookies(u)
}

// restore loads persisted cookies into the jar.
func (s *sessionJar) restore(ctx context.Context) {
	if s.store == nil {
		return
	}
	saved := s.store.Load(ctx)
	if len(saved) == 0 {
		return
	}
	cookies := make([]*http.Cookie, 0, len(saved))
	for _, c := range saved {
		cookies = append(cookies, &http.Cookie{Name: c.Name, Value: c.Value, Path: "/"})
	}
	s.SetCookies(s.base, cookies)
}

// persist writes the cookies currently valid for the backend origin.
func (s *sessionJar) persist(ctx context.Context) {
	if s.store == nil {
		return
	}
	current := s.Cookies(s.base)
	if len(current) == 0 {
		s.store.Clear(ctx)
		return
	}
	out := make([]persistedCookie, 0, len(current))
	for _, c := range current {
		out = append(out, persistedCookie{Name: c.Name, Value: c.Value})
	}
	s.store.Save(ctx, out)
}

// reset drops every cookie.
func (s *sessionJar) reset(ctx context.Context) error {
	jar, err := newCookieJar()
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.jar = jar
	s.mu.Unlock()
	if s.store != nil {
		s.store.Clear(ctx)
	}
	return nil
}
