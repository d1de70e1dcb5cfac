package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"slices"
)

func defaultCookieFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".routegate-session.json"
	}
	return filepath.Join(dir, "routegate", "session.json")
}

type storedCookie struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// cookieStore persists the jar's cookies for one origin so the credential
// survives between invocations.
type cookieStore struct {
	path    string
	jar     http.CookieJar
	baseURL string
}

func (s *cookieStore) origin() (*url.URL, error) {
	u, err := url.Parse(s.baseURL)
	if err != nil {
		return nil, err
	}
	u.Path = "/"
	return u, nil
}

func (s *cookieStore) load() error {
	if s.path == "" {
		return nil
	}
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read cookie file: %w", err)
	}

	var stored []storedCookie
	if err := json.Unmarshal(data, &stored); err != nil {
		return fmt.Errorf("parse cookie file %s: %w", s.path, err)
	}
	u, err := s.origin()
	if err != nil {
		return err
	}

	cookies := make([]*http.Cookie, 0, len(stored))
	for _, c := range stored {
		cookies = append(cookies, &http.Cookie{Name: c.Name, Value: c.Value, Path: "/"})
	}
	s.jar.SetCookies(u, cookies)
	return nil
}

// save writes the jar's cookies for the origin, leaving out any named in
// drop.
func (s *cookieStore) save(drop ...string) error {
	if s.path == "" {
		return nil
	}
	u, err := s.origin()
	if err != nil {
		return err
	}

	stored := []storedCookie{}
	for _, c := range s.jar.Cookies(u) {
		if slices.Contains(drop, c.Name) {
			continue
		}
		stored = append(stored, storedCookie{Name: c.Name, Value: c.Value})
	}
	data, err := json.MarshalIndent(stored, "", "  ")
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("create cookie dir: %w", err)
	}
	return os.WriteFile(s.path, data, 0o600)
}
